package command

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"mvdan.cc/sh/v3/shell"
	"mvdan.cc/sh/v3/syntax"

	"github.com/albertocavalcante/go-startkit/catalog"
	"github.com/albertocavalcante/go-startkit/selection"
)

// DefaultProgram is the launcher prefix of a formatted command.
var DefaultProgram = []string{"npx", "create-start-app@latest"}

// Flag names.
const (
	flagAddOns         = "add-ons"
	flagOption         = "option"
	flagCapabilities   = "capabilities"
	flagPackageManager = "package-manager"
)

// Errors returned by Format and Parse.
var (
	ErrMissingProjectName = errors.New("project name is required")
	ErrNotCommand         = errors.New("not a create command")
	ErrExpansion          = errors.New("shell expansion is not allowed")
)

// Spec is everything a scaffolding command carries.
type Spec struct {
	ProjectName string

	// AddOns are the effective add-on ids.
	AddOns []string

	// Options maps add-on id then option name to the option value as text.
	Options map[string]map[string]string

	Capabilities   []string
	PackageManager string
}

// FromSnapshot builds a Spec from the effective selection and resolved
// options of a snapshot.
func FromSnapshot(projectName string, snap selection.Snapshot, packageManager string) Spec {
	spec := Spec{
		ProjectName:    projectName,
		AddOns:         slices.Clone(snap.State.Effective),
		Capabilities:   slices.Clone(snap.State.Capabilities),
		PackageManager: packageManager,
	}
	for id, values := range snap.Options {
		if len(values) == 0 {
			continue
		}
		if spec.Options == nil {
			spec.Options = make(map[string]map[string]string)
		}
		text := make(map[string]string, len(values))
		for name, v := range values {
			text[name] = v.String()
		}
		spec.Options[id] = text
	}
	return spec
}

// RawOptions returns the options in the shape selection.ResolveOptions
// accepts. Values stay text; the option schema coerces them.
func (s Spec) RawOptions() map[string]map[string]any {
	out := make(map[string]map[string]any, len(s.Options))
	for id, values := range s.Options {
		raw := make(map[string]any, len(values))
		for name, v := range values {
			raw[name] = v
		}
		out[id] = raw
	}
	return out
}

// Config configures Format and Parse.
type Config struct {
	program []string
}

// Option configures Format and Parse.
type Option func(*Config)

// WithProgram replaces DefaultProgram.
func WithProgram(words ...string) Option {
	return func(c *Config) {
		c.program = slices.Clone(words)
	}
}

func newConfig(opts []Option) *Config {
	c := &Config{program: DefaultProgram}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Format renders spec as a single shell command line. Options are emitted
// in add-on then name order.
func Format(spec Spec, opts ...Option) (string, error) {
	cfg := newConfig(opts)
	if spec.ProjectName == "" {
		return "", ErrMissingProjectName
	}

	args := slices.Clone(cfg.program)
	args = append(args, spec.ProjectName)
	if len(spec.AddOns) > 0 {
		args = append(args, "--"+flagAddOns, strings.Join(spec.AddOns, ","))
	}
	for _, id := range slices.Sorted(maps.Keys(spec.Options)) {
		if strings.ContainsAny(id, ":,") {
			return "", fmt.Errorf("invalid add-on id %q", id)
		}
		values := spec.Options[id]
		for _, name := range slices.Sorted(maps.Keys(values)) {
			if strings.Contains(name, "=") {
				return "", fmt.Errorf("invalid option name %q", name)
			}
			args = append(args, "--"+flagOption, id+":"+name+"="+values[name])
		}
	}
	if len(spec.Capabilities) > 0 {
		args = append(args, "--"+flagCapabilities, strings.Join(spec.Capabilities, ","))
	}
	if spec.PackageManager != "" {
		args = append(args, "--"+flagPackageManager, spec.PackageManager)
	}

	quoted := make([]string, len(args))
	for i, arg := range args {
		q, err := syntax.Quote(arg, syntax.LangPOSIX)
		if err != nil {
			return "", fmt.Errorf("quote %q: %w", arg, err)
		}
		quoted[i] = q
	}
	return strings.Join(quoted, " "), nil
}

// Parse reads a command produced by Format. The line is split with shell
// quoting rules. Parameter, command and arithmetic expansions are rejected
// with ErrExpansion; quote them to pass them through literally.
func Parse(line string, opts ...Option) (Spec, error) {
	cfg := newConfig(opts)

	if err := checkLiteral(line); err != nil {
		return Spec{}, err
	}
	words, err := shell.Fields(line, func(string) string { return "" })
	if err != nil {
		return Spec{}, fmt.Errorf("split command: %w", err)
	}
	if len(words) < len(cfg.program) || !slices.Equal(words[:len(cfg.program)], cfg.program) {
		return Spec{}, fmt.Errorf("%w: want prefix %q", ErrNotCommand, strings.Join(cfg.program, " "))
	}

	fs := pflag.NewFlagSet("create", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	addOns := fs.StringSlice(flagAddOns, nil, "add-on ids")
	options := fs.StringArray(flagOption, nil, "add-on option as id:name=value")
	capabilities := fs.StringSlice(flagCapabilities, nil, "project capabilities")
	packageManager := fs.String(flagPackageManager, "", "package manager")
	if err := fs.Parse(words[len(cfg.program):]); err != nil {
		return Spec{}, fmt.Errorf("parse flags: %w", err)
	}

	spec := Spec{PackageManager: *packageManager}
	switch fs.NArg() {
	case 0:
		return Spec{}, ErrMissingProjectName
	case 1:
		spec.ProjectName = fs.Arg(0)
	default:
		return Spec{}, fmt.Errorf("unexpected arguments %q", fs.Args()[1:])
	}
	if fs.Changed(flagAddOns) {
		spec.AddOns = *addOns
	}
	if fs.Changed(flagCapabilities) {
		spec.Capabilities = *capabilities
	}
	for _, opt := range *options {
		key, value, ok := strings.Cut(opt, "=")
		if !ok {
			return Spec{}, fmt.Errorf("option %q: missing '='", opt)
		}
		id, name, ok := strings.Cut(key, ":")
		if !ok || id == "" || name == "" {
			return Spec{}, fmt.Errorf("option %q: want id:name=value", opt)
		}
		if spec.Options == nil {
			spec.Options = make(map[string]map[string]string)
		}
		if spec.Options[id] == nil {
			spec.Options[id] = make(map[string]string)
		}
		spec.Options[id][name] = value
	}
	return spec, nil
}

// Resolve rebuilds a snapshot from a parsed command. The add-ons become
// user-selected roots, so a command formatted from a consistent selection
// resolves to the same effective set.
func Resolve(cat *catalog.Catalog, spec Spec) (selection.Snapshot, error) {
	state := selection.New(cat, selection.Init{
		UserSelected: spec.AddOns,
		Capabilities: spec.Capabilities,
	})
	options, err := selection.ResolveOptions(cat, state.Effective, spec.RawOptions())
	if err != nil {
		return selection.Snapshot{}, err
	}
	return selection.NewSnapshot(state, options), nil
}

// checkLiteral fails if line holds anything a shell would expand.
func checkLiteral(line string) error {
	file, err := syntax.NewParser().Parse(strings.NewReader(line), "")
	if err != nil {
		return fmt.Errorf("split command: %w", err)
	}
	var found syntax.Node
	syntax.Walk(file, func(node syntax.Node) bool {
		if found != nil {
			return false
		}
		switch node.(type) {
		case *syntax.ParamExp, *syntax.CmdSubst, *syntax.ArithmExp, *syntax.ProcSubst:
			found = node
			return false
		}
		return true
	})
	if found != nil {
		return fmt.Errorf("%w: %q at %s", ErrExpansion, line[found.Pos().Offset():found.End().Offset()], found.Pos())
	}
	return nil
}
