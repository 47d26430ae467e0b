package lockfile

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/albertocavalcante/go-startkit/addon"
	"github.com/albertocavalcante/go-startkit/catalog"
	"github.com/albertocavalcante/go-startkit/compile"
	"github.com/albertocavalcante/go-startkit/selection"
)

// CurrentVersion is the manifest schema version written by this package.
// Readers accept only this version.
const CurrentVersion = 1

// DefaultFileName is the manifest file name inside a project.
const DefaultFileName = "startkit.lock.json"

// ErrUnsupportedVersion is returned when a manifest uses another schema
// version.
var ErrUnsupportedVersion = errors.New("unsupported lockfile version")

// Lockfile is the parsed contents of startkit.lock.json.
type Lockfile struct {
	Version int    `json:"lockFileVersion"`
	Project string `json:"project,omitempty"`

	UserSelected []string `json:"userSelected"`
	Forced       []string `json:"forced"`
	Effective    []string `json:"effective"`
	Capabilities []string `json:"capabilities"`

	// Options holds option values as native JSON strings and booleans,
	// keyed by add-on then option name.
	Options map[string]map[string]any `json:"options"`

	// AddOnHashes maps an effective add-on to the hash of its definition.
	AddOnHashes map[string]string `json:"addOnHashes"`

	// FileHashes maps a generated path to the hash of its content.
	FileHashes map[string]string `json:"fileHashes"`
}

// New creates an empty manifest at CurrentVersion.
func New() *Lockfile {
	lf := &Lockfile{Version: CurrentVersion}
	lf.normalize()
	return lf
}

// FromProject records a compiled project and the snapshot it was compiled
// from. cat supplies the definitions whose hashes are recorded; ids it does
// not know are skipped.
func FromProject(name string, snap selection.Snapshot, cat *catalog.Catalog, project *compile.Project) *Lockfile {
	lf := New()
	lf.Project = name
	lf.UserSelected = slices.Clone(snap.State.UserSelected)
	lf.Forced = slices.Clone(snap.State.Forced)
	lf.Effective = slices.Clone(snap.State.Effective)
	lf.Capabilities = slices.Clone(snap.State.Capabilities)
	lf.normalize()

	for id, values := range snap.Options {
		if len(values) == 0 {
			continue
		}
		raw := make(map[string]any, len(values))
		for name, v := range values {
			raw[name] = nativeValue(v)
		}
		lf.Options[id] = raw
	}

	for _, id := range lf.Effective {
		def, ok := cat.Get(id)
		if !ok {
			continue
		}
		if hash, err := HashDefinition(def); err == nil {
			lf.AddOnHashes[id] = hash
		}
	}

	if project != nil {
		for path, content := range project.Files {
			lf.FileHashes[path] = HashContent([]byte(content))
		}
	}
	return lf
}

// Init returns the selection input that reproduces the recorded state.
func (l *Lockfile) Init() selection.Init {
	return selection.Init{
		UserSelected: slices.Clone(l.UserSelected),
		Forced:       slices.Clone(l.Forced),
		Capabilities: slices.Clone(l.Capabilities),
	}
}

// RawOptions returns a copy of the recorded options, suitable for
// selection.ResolveOptions.
func (l *Lockfile) RawOptions() map[string]map[string]any {
	out := make(map[string]map[string]any, len(l.Options))
	for id, values := range l.Options {
		out[id] = maps.Clone(values)
	}
	return out
}

// Check returns an error wrapping ErrUnsupportedVersion if l was written
// with another schema version.
func (l *Lockfile) Check() error {
	if l.Version != CurrentVersion {
		return fmt.Errorf("%w: %d (want %d)", ErrUnsupportedVersion, l.Version, CurrentVersion)
	}
	return nil
}

// Drift returns the paths whose content no longer matches the recorded
// hash, plus recorded paths missing from files and unrecorded paths present
// in files. The result is sorted.
func (l *Lockfile) Drift(files map[string]string) []string {
	var out []string
	for path, hash := range l.FileHashes {
		content, ok := files[path]
		if !ok || !VerifyHash([]byte(content), hash) {
			out = append(out, path)
		}
	}
	for path := range files {
		if _, ok := l.FileHashes[path]; !ok {
			out = append(out, path)
		}
	}
	slices.Sort(out)
	return out
}

func (l *Lockfile) normalize() {
	if l.UserSelected == nil {
		l.UserSelected = []string{}
	}
	if l.Forced == nil {
		l.Forced = []string{}
	}
	if l.Effective == nil {
		l.Effective = []string{}
	}
	if l.Capabilities == nil {
		l.Capabilities = []string{}
	}
	if l.Options == nil {
		l.Options = make(map[string]map[string]any)
	}
	if l.AddOnHashes == nil {
		l.AddOnHashes = make(map[string]string)
	}
	if l.FileHashes == nil {
		l.FileHashes = make(map[string]string)
	}
}

func nativeValue(v addon.OptionValue) any {
	if b, ok := v.Bool(); ok {
		return b
	}
	return v.String()
}

// HashDefinition hashes the canonical JSON encoding of def.
func HashDefinition(def *addon.Definition) (string, error) {
	data, err := json.Marshal(def)
	if err != nil {
		return "", err
	}
	return HashContent(data), nil
}

// HashContent computes a prefixed SHA256 hash of content.
func HashContent(content []byte) string {
	h := sha256.Sum256(content)
	return "sha256:" + hex.EncodeToString(h[:])
}

// VerifyHash checks if content matches the expected hash.
func VerifyHash(content []byte, expectedHash string) bool {
	return HashContent(content) == expectedHash
}
