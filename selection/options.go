package selection

import (
	"errors"
	"fmt"
	"maps"

	"github.com/albertocavalcante/go-startkit/addon"
	"github.com/albertocavalcante/go-startkit/catalog"
)

// ResolveOptions validates raw option values against the schema of every
// effective add-on and fills in defaults. Values given for add-ons that are
// not effective are dropped. Add-ons without options are omitted from the
// result.
func ResolveOptions(cat *catalog.Catalog, effective []string, raw map[string]map[string]any) (map[string]addon.Values, error) {
	out := make(map[string]addon.Values)
	var errs []error
	for _, id := range effective {
		def, ok := cat.Get(id)
		if !ok || len(def.Options) == 0 {
			continue
		}
		values, err := addon.ResolveValues(def.Options, raw[id])
		if err != nil {
			errs = append(errs, fmt.Errorf("options for %q: %w", id, err))
			continue
		}
		out[id] = values
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// Snapshot is an immutable view of a selection and its option values, the
// unit handed to a compile.
type Snapshot struct {
	State   State
	Options map[string]addon.Values
}

// NewSnapshot copies state and options into a Snapshot.
func NewSnapshot(state State, options map[string]addon.Values) Snapshot {
	copied := make(map[string]addon.Values, len(options))
	for id, values := range options {
		copied[id] = maps.Clone(values)
	}
	return Snapshot{State: state.Clone(), Options: copied}
}
