package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/albertocavalcante/go-startkit/addon"
	"github.com/albertocavalcante/go-startkit/compile"
)

const (
	dirPermissions  = 0o755
	filePermissions = 0o644
)

// WriteDir writes every file of p below dir, creating directories as
// needed. Files already in dir that p does not mention are left alone.
func WriteDir(dir string, p *compile.Project) error {
	for _, name := range p.Paths() {
		if err := writeFile(dir, name, p.Files[name]); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(dir, name, content string) error {
	if err := addon.ValidatePath(name); err != nil {
		return fmt.Errorf("invalid path %q: %w", name, err)
	}
	data, err := Decode(content)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	target := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(target), dirPermissions); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", name, err)
	}
	if err := os.WriteFile(target, data, filePermissions); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func removeFile(dir, name string) error {
	if err := addon.ValidatePath(name); err != nil {
		return fmt.Errorf("invalid path %q: %w", name, err)
	}
	err := os.Remove(filepath.Join(dir, filepath.FromSlash(name)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", name, err)
	}
	return nil
}
