package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/albertocavalcante/go-startkit/addon"
)

// Starter is a framework template: the skeleton files a project starts
// from and the selection a new session begins with.
type Starter struct {
	// Name identifies the starter.
	Name string `json:"name" yaml:"name"`

	// Description is shown in the starter picker.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Files is the skeleton. Every line is attributed to "base".
	Files map[string]string `json:"files" yaml:"files"`

	// DefaultAddOns are user-selected when a session opens.
	DefaultAddOns []string `json:"defaultAddOns,omitempty" yaml:"defaultAddOns,omitempty"`

	// Forced are pinned for the whole session.
	Forced []string `json:"forced,omitempty" yaml:"forced,omitempty"`

	// Capabilities are enabled when a session opens.
	Capabilities []string `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`
}

// Validate checks required fields and skeleton paths.
func (s *Starter) Validate() error {
	var errs addon.ValidationErrors
	if s.Name == "" {
		errs.Add("name", "required")
	}
	for path := range s.Files {
		if err := addon.ValidatePath(path); err != nil {
			errs.Add("files["+path+"]", err.Error())
		}
	}
	return errs.ToError()
}

// ParseStarter decodes and validates a starter document.
func ParseStarter(data []byte, format Format) (*Starter, error) {
	var s Starter
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&s); err != nil && err != io.EOF {
			return nil, fmt.Errorf("failed to parse starter YAML: %w", err)
		}
	case FormatJSON, "":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&s); err != nil {
			return nil, fmt.Errorf("failed to parse starter JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported starter format %q", format)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid starter: %w", err)
	}
	return &s, nil
}

// LoadStarterFile reads a starter document from disk.
func LoadStarterFile(path string) (*Starter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read starter: %w", err)
	}
	return ParseStarter(data, FormatForPath(path))
}
