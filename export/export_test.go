package export

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albertocavalcante/go-startkit/compile"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

func testProject() *compile.Project {
	return &compile.Project{
		Files: map[string]string{
			"package.json":       "{}\n",
			"src/app.ts":         "export const app = 1\n",
			"public/logo.png":    Encode(pngBytes),
			"public/favicon.ico": string(pngBytes),
		},
		Binary: []string{"public/favicon.ico", "public/logo.png"},
	}
}

func TestDecodeEncode(t *testing.T) {
	data, err := Decode(Encode(pngBytes))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)

	data, err = Decode("plain text")
	require.NoError(t, err)
	assert.Equal(t, []byte("plain text"), data)

	_, err = Decode(compile.BinaryPrefix + "!!!")
	assert.Error(t, err)
}

func TestFlat(t *testing.T) {
	p := testProject()
	flat := Flat(p)

	assert.Equal(t, Encode(pngBytes), flat["public/favicon.ico"], "path-detected binary is escaped")
	assert.Equal(t, Encode(pngBytes), flat["public/logo.png"])
	assert.Equal(t, "{}\n", flat["package.json"])
	assert.Equal(t, string(pngBytes), p.Files["public/favicon.ico"], "project is not modified")

	assert.Empty(t, Flat(&compile.Project{}))
}

func readZip(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	out := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		out[f.Name] = content
	}
	return out
}

func TestWriteZip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteZip(&buf, testProject(), "my-app"))

	entries := readZip(t, buf.Bytes())
	assert.Len(t, entries, 4)
	assert.Equal(t, []byte("{}\n"), entries["my-app/package.json"])
	assert.Equal(t, pngBytes, entries["my-app/public/logo.png"])
	assert.Equal(t, pngBytes, entries["my-app/public/favicon.ico"])

	var again bytes.Buffer
	require.NoError(t, WriteZip(&again, testProject(), "my-app"))
	assert.Equal(t, buf.Bytes(), again.Bytes(), "archives are reproducible")
}

func TestWriteZip_NoRoot(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteZip(&buf, testProject(), ""))
	assert.Contains(t, readZip(t, buf.Bytes()), "src/app.ts")
}

func TestWriteZip_RejectsEscapingPaths(t *testing.T) {
	var buf bytes.Buffer
	err := WriteZip(&buf, &compile.Project{Files: map[string]string{"../evil": "x"}}, "")
	assert.Error(t, err)

	err = WriteZip(&buf, testProject(), "/abs")
	assert.Error(t, err)
}

func TestWriteDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteDir(dir, testProject()))

	data, err := os.ReadFile(filepath.Join(dir, "src", "app.ts"))
	require.NoError(t, err)
	assert.Equal(t, "export const app = 1\n", string(data))

	data, err = os.ReadFile(filepath.Join(dir, "public", "logo.png"))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
}

type recordingSandbox struct {
	mounts  []map[string]string
	updates []Update
	failOn  int
}

func (r *recordingSandbox) Mount(_ context.Context, files map[string]string) error {
	r.mounts = append(r.mounts, files)
	return nil
}

func (r *recordingSandbox) Apply(_ context.Context, u Update) error {
	r.updates = append(r.updates, u)
	if r.failOn == len(r.updates) {
		return errors.New("sandbox crashed")
	}
	return nil
}

func TestSyncer(t *testing.T) {
	sb := &recordingSandbox{}
	s := NewSyncer(sb)
	ctx := context.Background()

	first := &compile.Project{Files: map[string]string{"a.ts": "a\n", "b.ts": "b\n"}}
	changes, err := s.Sync(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.ts", "b.ts"}, changes.Added)
	require.Len(t, sb.mounts, 1)
	assert.Equal(t, first.Files, sb.mounts[0])

	second := &compile.Project{Files: map[string]string{"a.ts": "a2\n", "c.ts": "c\n"}}
	changes, err = s.Sync(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, 3, changes.TotalChanges())
	require.Len(t, sb.updates, 1)
	assert.Equal(t, map[string]string{"a.ts": "a2\n", "c.ts": "c\n"}, sb.updates[0].Write)
	assert.Equal(t, []string{"b.ts"}, sb.updates[0].Remove)

	changes, err = s.Sync(ctx, second)
	require.NoError(t, err)
	assert.True(t, changes.IsEmpty())
	assert.Len(t, sb.updates, 1, "no update for an unchanged tree")
}

func TestSyncer_RemountsAfterFailedApply(t *testing.T) {
	sb := &recordingSandbox{failOn: 1}
	s := NewSyncer(sb)
	ctx := context.Background()

	_, err := s.Sync(ctx, &compile.Project{Files: map[string]string{"a": "1"}})
	require.NoError(t, err)

	_, err = s.Sync(ctx, &compile.Project{Files: map[string]string{"a": "2"}})
	require.Error(t, err)

	_, err = s.Sync(ctx, &compile.Project{Files: map[string]string{"a": "3"}})
	require.NoError(t, err)
	require.Len(t, sb.mounts, 2)
	assert.Equal(t, map[string]string{"a": "3"}, sb.mounts[1])

	s.Reset()
	_, err = s.Sync(ctx, &compile.Project{Files: map[string]string{"a": "3"}})
	require.NoError(t, err)
	assert.Len(t, sb.mounts, 3)
}

func TestDirSandbox(t *testing.T) {
	dir := t.TempDir()
	s := NewSyncer(DirSandbox{Dir: dir})
	ctx := context.Background()

	_, err := s.Sync(ctx, &compile.Project{Files: map[string]string{"src/a.ts": "a\n", "src/b.ts": "b\n"}})
	require.NoError(t, err)

	_, err = s.Sync(ctx, &compile.Project{Files: map[string]string{"src/a.ts": "a2\n"}})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "src", "a.ts"))
	require.NoError(t, err)
	assert.Equal(t, "a2\n", string(data))
	_, err = os.Stat(filepath.Join(dir, "src", "b.ts"))
	assert.True(t, os.IsNotExist(err))

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	err = DirSandbox{Dir: dir}.Mount(canceled, map[string]string{"x": "y"})
	assert.ErrorIs(t, err, context.Canceled)
}
