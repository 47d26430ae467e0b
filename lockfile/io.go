package lockfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// lockfilePermissions is the file permission mode for manifests.
const lockfilePermissions = 0o644

// ReadFile reads and parses a manifest from the given path.
func ReadFile(path string) (*Lockfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lockfile: %w", err)
	}
	return Parse(data)
}

// Parse parses manifest JSON data and rejects other schema versions.
func Parse(data []byte) (*Lockfile, error) {
	var lf Lockfile
	if err := json.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("failed to parse lockfile JSON: %w", err)
	}
	if err := lf.Check(); err != nil {
		return nil, err
	}
	lf.normalize()
	return &lf, nil
}

// WriteFile writes the manifest to the given path with deterministic formatting.
func (l *Lockfile) WriteFile(path string) error {
	data, err := l.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, lockfilePermissions)
}

// WriteTo writes the manifest to the given writer.
func (l *Lockfile) WriteTo(w io.Writer) (int64, error) {
	data, err := l.Marshal()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// Marshal serializes the manifest as indented JSON. Map keys are sorted and
// list order is preserved, so equal manifests produce equal bytes.
func (l *Lockfile) Marshal() ([]byte, error) {
	out := *l
	out.normalize()

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(&out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Exists returns true if a manifest exists at the given path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// DefaultPath returns the manifest path inside a project directory.
func DefaultPath(projectDir string) string {
	if projectDir == "" {
		return DefaultFileName
	}
	return filepath.Join(projectDir, DefaultFileName)
}
