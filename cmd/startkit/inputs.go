package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	startkit "github.com/albertocavalcante/go-startkit"
	"github.com/albertocavalcante/go-startkit/catalog"
	"github.com/albertocavalcante/go-startkit/registry"
)

// blankStarter is used when no starter is configured.
var blankStarter = &catalog.Starter{Name: "blank"}

// selectionFlags are the flags that shape a selection.
type selectionFlags struct {
	selectIDs   []string
	deselectIDs []string
	enableCaps  []string
	disableCaps []string
	options     []string
	imports     []string
}

func (f *selectionFlags) register(fs *pflag.FlagSet) {
	fs.StringSliceVar(&f.selectIDs, "select", nil, "add-ons to turn on, in order")
	fs.StringSliceVar(&f.deselectIDs, "deselect", nil, "starter default add-ons to turn off")
	fs.StringSliceVar(&f.enableCaps, "capability", nil, "capabilities to enable")
	fs.StringSliceVar(&f.disableCaps, "without-capability", nil, "capabilities to disable")
	fs.StringArrayVar(&f.options, "option", nil, "add-on option as id:name=value (repeatable)")
	fs.StringSliceVar(&f.imports, "import", nil, "URLs of custom add-on documents to import")
}

// inputs are the loaded catalog and starter.
type inputs struct {
	cat     *catalog.Catalog
	starter *catalog.Starter
	client  *registry.Client
}

// load reads the catalog and starter from the registry or from disk.
func (a *app) load(ctx context.Context) (*inputs, error) {
	in := &inputs{}
	base := a.v.GetString(keyRegistry)
	in.client = registry.NewClient(base, registry.WithLogger(a.log))

	var err error
	switch {
	case base != "":
		if in.cat, err = in.client.FetchCatalog(ctx); err != nil {
			return nil, err
		}
		if name := a.v.GetString(keyStarter); name != "" {
			if in.starter, err = in.client.FetchStarter(ctx, name); err != nil {
				return nil, err
			}
		}
	case a.v.GetString(keyCatalog) != "":
		if in.cat, err = catalog.LoadFile(a.v.GetString(keyCatalog)); err != nil {
			return nil, err
		}
		if path := a.v.GetString(keyStarter); path != "" {
			if in.starter, err = catalog.LoadStarterFile(path); err != nil {
				return nil, err
			}
		}
	default:
		return nil, errors.New("no catalog: set --catalog or --registry")
	}

	if in.starter == nil {
		in.starter = blankStarter
	}
	a.log.Debug("inputs loaded", "addOns", in.cat.Len(), "starter", in.starter.Name)
	return in, nil
}

// open loads inputs, starts a session and applies the selection flags.
func (a *app) open(ctx context.Context, sel *selectionFlags, opts ...startkit.Option) (*startkit.Builder, *inputs, error) {
	in, err := a.load(ctx)
	if err != nil {
		return nil, nil, err
	}

	opts = append([]startkit.Option{
		startkit.WithLogger(a.log),
		startkit.WithProjectName(a.v.GetString(keyProjectName)),
		startkit.WithRegistryClient(in.client),
	}, opts...)
	b, err := startkit.Open(in.cat, in.starter, opts...)
	if err != nil {
		return nil, nil, err
	}
	if err := sel.apply(ctx, b); err != nil {
		_ = b.Close()
		return nil, nil, err
	}
	return b, in, nil
}

// apply imports custom add-ons, then applies capabilities, toggles and
// options in that order.
func (f *selectionFlags) apply(ctx context.Context, b *startkit.Builder) error {
	for _, url := range f.imports {
		if err := b.Import(ctx, url); err != nil {
			return fmt.Errorf("import %s: %w", url, err)
		}
	}
	for _, c := range f.enableCaps {
		b.SetCapability(c, true)
	}
	for _, c := range f.disableCaps {
		b.SetCapability(c, false)
	}
	for _, id := range f.deselectIDs {
		if b.State().IsUserSelected(id) {
			b.Toggle(id)
		}
	}
	for _, id := range f.selectIDs {
		if !b.Catalog().Has(id) {
			return fmt.Errorf("%w: %q", startkit.ErrUnknownAddOn, id)
		}
		if b.State().IsUserSelected(id) {
			continue
		}
		if b.Disabled(id) {
			return fmt.Errorf("add-on %q cannot be selected: it needs a disabled capability or conflicts with a forced add-on", id)
		}
		b.Toggle(id)
	}
	for _, opt := range f.options {
		id, name, value, err := parseOption(opt)
		if err != nil {
			return err
		}
		if err := b.SetOption(id, name, value); err != nil {
			return err
		}
	}
	return nil
}

// parseOption splits "id:name=value".
func parseOption(s string) (id, name, value string, err error) {
	key, value, ok := strings.Cut(s, "=")
	if !ok {
		return "", "", "", fmt.Errorf("option %q: missing '='", s)
	}
	id, name, ok = strings.Cut(key, ":")
	if !ok || id == "" || name == "" {
		return "", "", "", fmt.Errorf("option %q: want id:name=value", s)
	}
	return id, name, value, nil
}
