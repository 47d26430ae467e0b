package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/albertocavalcante/go-startkit/addon"
)

// Format identifies the encoding of a catalog document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Document is the on-disk and on-the-wire shape of a catalog.
type Document struct {
	// Categories optionally overrides DefaultCategoryOrder.
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty"`

	// AddOns lists every definition.
	AddOns []*addon.Definition `json:"addOns" yaml:"addOns"`
}

// FormatForPath guesses the document format from a file extension.
// Anything that is not .yaml or .yml is treated as JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ParseDocument decodes a catalog document without building a catalog.
func ParseDocument(data []byte, format Format) (*Document, error) {
	var doc Document
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil && err != io.EOF {
			return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
		}
	case FormatJSON, "":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to parse catalog JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", format)
	}
	return &doc, nil
}

// Build turns a decoded document into a catalog.
func (d *Document) Build(opts ...Option) (*Catalog, error) {
	if len(d.Categories) > 0 {
		opts = append([]Option{WithCategoryOrder(d.Categories...)}, opts...)
	}
	return New(d.AddOns, opts...)
}

// Parse decodes and builds a catalog in one step.
func Parse(data []byte, format Format, opts ...Option) (*Catalog, error) {
	doc, err := ParseDocument(data, format)
	if err != nil {
		return nil, err
	}
	return doc.Build(opts...)
}

// Load reads a catalog document from r.
func Load(r io.Reader, format Format, opts ...Option) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data, format, opts...)
}

// LoadFile reads a catalog document from disk, picking the format from the
// file extension.
func LoadFile(path string, opts ...Option) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data, FormatForPath(path), opts...)
}

// Document returns the catalog as a document, suitable for re-encoding.
func (c *Catalog) Document() *Document {
	return &Document{
		Categories: c.Categories(),
		AddOns:     c.Definitions(),
	}
}
