package export

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/albertocavalcante/go-startkit/addon"
	"github.com/albertocavalcante/go-startkit/compile"
)

// archiveTime is stamped on every entry so equal projects produce equal
// archives.
var archiveTime = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

// WriteZip writes p as a ZIP archive to w. When root is non-empty every
// entry is placed under that directory. Entries are written in path order.
func WriteZip(w io.Writer, p *compile.Project, root string) error {
	if root != "" {
		if err := addon.ValidatePath(root); err != nil {
			return fmt.Errorf("invalid archive root %q: %w", root, err)
		}
	}

	zw := zip.NewWriter(w)
	for _, name := range p.Paths() {
		if err := addon.ValidatePath(name); err != nil {
			return fmt.Errorf("invalid path %q: %w", name, err)
		}
		data, err := Decode(p.Files[name])
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}

		header := &zip.FileHeader{
			Name:     path.Join(root, name),
			Method:   zip.Deflate,
			Modified: archiveTime,
		}
		header.SetMode(0o644)
		fw, err := zw.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("failed to create zip entry %s: %w", name, err)
		}
		if _, err := fw.Write(data); err != nil {
			return fmt.Errorf("failed to write zip entry %s: %w", name, err)
		}
	}
	return zw.Close()
}
