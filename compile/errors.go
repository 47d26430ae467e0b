package compile

import (
	"errors"
	"fmt"
)

// ErrRegistryInconsistency is matched by every *RegistryInconsistencyError.
var ErrRegistryInconsistency = errors.New("registry inconsistency")

// RegistryInconsistencyError reports a selected add-on, or a requirement of
// one, that does not exist in the catalog at all.
type RegistryInconsistencyError struct {
	// RequiredBy is the add-on whose requirement is missing. Empty when the
	// selected id itself is missing.
	RequiredBy string

	// Missing is the id absent from the catalog.
	Missing string
}

func (e *RegistryInconsistencyError) Error() string {
	if e.RequiredBy == "" {
		return fmt.Sprintf("registry inconsistency: selected add-on %q is not in the catalog", e.Missing)
	}
	return fmt.Sprintf("registry inconsistency: add-on %q requires %q, which is not in the catalog", e.RequiredBy, e.Missing)
}

func (e *RegistryInconsistencyError) Is(target error) bool {
	return target == ErrRegistryInconsistency
}

// WarningKind classifies a non-fatal compile event.
type WarningKind string

const (
	// WarningOverwrite means a file written earlier was fully replaced.
	WarningOverwrite WarningKind = "overwrite"

	// WarningMarkerNotFound means an injection marker is absent from its
	// target file.
	WarningMarkerNotFound WarningKind = "marker-not-found"

	// WarningTargetMissing means an injection targets a file that does not
	// exist.
	WarningTargetMissing WarningKind = "target-missing"

	// WarningBinaryTarget means an injection targets binary content.
	WarningBinaryTarget WarningKind = "binary-target"
)

// Warning is a non-fatal compile event.
type Warning struct {
	Kind WarningKind `json:"kind"`

	// Path is the affected file.
	Path string `json:"path"`

	// AddOn is the add-on being applied.
	AddOn string `json:"addOn"`

	// Superseded names the previous owner for WarningOverwrite.
	Superseded string `json:"superseded,omitempty"`

	// Marker is the injection marker for injection warnings.
	Marker string `json:"marker,omitempty"`
}

func (w Warning) String() string {
	switch w.Kind {
	case WarningOverwrite:
		return fmt.Sprintf("%s: %s overwrote content from %s", w.Path, w.AddOn, w.Superseded)
	case WarningMarkerNotFound:
		return fmt.Sprintf("%s: marker %q for %s not found", w.Path, w.Marker, w.AddOn)
	case WarningTargetMissing:
		return fmt.Sprintf("%s: injection target for %s does not exist", w.Path, w.AddOn)
	case WarningBinaryTarget:
		return fmt.Sprintf("%s: %s cannot inject into binary content", w.Path, w.AddOn)
	default:
		return fmt.Sprintf("%s: %s (%s)", w.Path, w.Kind, w.AddOn)
	}
}
