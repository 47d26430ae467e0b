package compile

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albertocavalcante/go-startkit/addon"
	"github.com/albertocavalcante/go-startkit/catalog"
)

func newCompiler(t *testing.T, defs []*addon.Definition, opts ...Option) *Compiler {
	t.Helper()
	cat, err := catalog.New(defs)
	require.NoError(t, err)
	c, err := New(cat, opts...)
	require.NoError(t, err)
	return c
}

func def(id, category string) *addon.Definition {
	return &addon.Definition{ID: id, Name: id, Description: id, Category: category}
}

func withFiles(d *addon.Definition, files map[string]string) *addon.Definition {
	d.Files = files
	return d
}

func withInjections(d *addon.Definition, path string, injections ...addon.Injection) *addon.Definition {
	if d.Injections == nil {
		d.Injections = make(map[string][]addon.Injection)
	}
	d.Injections[path] = append(d.Injections[path], injections...)
	return d
}

func owners(attrs []LineAttribution) []string {
	out := make([]string, len(attrs))
	for i, a := range attrs {
		out[i] = a.AddOn
	}
	return out
}

func TestCompile_LoggingOverwrite(t *testing.T) {
	c := newCompiler(t, []*addon.Definition{
		withFiles(def("logging", "monitoring"), map[string]string{"src/log.ts": "export const log = console.log\n"}),
		withFiles(def("logging-pretty", "monitoring"), map[string]string{"src/log.ts": "import pretty from 'pretty'\nexport const log = pretty\n"}),
	})

	p, err := c.Compile(nil, []string{"logging-pretty", "logging"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "import pretty from 'pretty'\nexport const log = pretty\n", p.Files["src/log.ts"])
	assert.Equal(t, []string{"logging-pretty", "logging-pretty"}, owners(p.Lines("src/log.ts")))
	assert.Equal(t, "logging-pretty", p.Owner("src/log.ts"))
	require.Len(t, p.Warnings, 1)
	assert.Equal(t, Warning{Kind: WarningOverwrite, Path: "src/log.ts", AddOn: "logging-pretty", Superseded: "logging"}, p.Warnings[0])
}

func TestCompile_CorsInjection(t *testing.T) {
	skeleton := map[string]string{
		"src/app.ts": "const app = express()\n// INSERT:middleware\napp.listen(3000)\n",
	}
	c := newCompiler(t, []*addon.Definition{
		withInjections(def("cors", "api"), "src/app.ts", addon.Injection{Marker: "// INSERT:middleware", Content: "app.use(cors())"}),
	})

	p, err := c.Compile(skeleton, []string{"cors"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "const app = express()\n// INSERT:middleware\napp.use(cors())\napp.listen(3000)\n", p.Files["src/app.ts"])
	assert.Equal(t, []LineAttribution{
		{Line: 1, AddOn: "base"},
		{Line: 2, AddOn: "base"},
		{Line: 3, AddOn: "cors"},
		{Line: 4, AddOn: "base"},
	}, p.Lines("src/app.ts"))
	assert.Empty(t, p.Warnings)
	assert.Equal(t, []string{"base", "cors"}, p.Contributors("src/app.ts"))
}

func TestCompile_MarkerMatchesWholeToken(t *testing.T) {
	skeleton := map[string]string{
		"src/app.ts": "// INSERT:middleware-late\nconst a = 1\n// INSERT:middleware\napp.listen(3000)\n",
	}
	c := newCompiler(t, []*addon.Definition{
		withInjections(def("cors", "api"), "src/app.ts", addon.Injection{Marker: "// INSERT:middleware", Content: "app.use(cors())"}),
	})

	p, err := c.Compile(skeleton, []string{"cors"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "// INSERT:middleware-late\nconst a = 1\n// INSERT:middleware\napp.use(cors())\napp.listen(3000)\n", p.Files["src/app.ts"])
	assert.Equal(t, []string{"base", "base", "base", "cors", "base"}, owners(p.Lines("src/app.ts")))
	assert.Empty(t, p.Warnings)
}

func TestContainsToken(t *testing.T) {
	tests := []struct {
		text   string
		marker string
		want   bool
	}{
		{"// INSERT:middleware", "// INSERT:middleware", true},
		{"  // INSERT:middleware  ", "// INSERT:middleware", true},
		{"// INSERT:middleware-late", "// INSERT:middleware", false},
		{"// INSERT:middleware_2", "// INSERT:middleware", false},
		{"// INSERT:middleware-late // INSERT:middleware", "// INSERT:middleware", true},
		{"{/* INSERT:routes */}", "INSERT:routes", true},
		{"// XINSERT:routes", "INSERT:routes", false},
		{"// MW:", "// MW:", true},
		{"// MW:x", "// MW:", true},
		{"nothing here", "// MW", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, containsToken(tt.text, tt.marker), "containsToken(%q, %q)", tt.text, tt.marker)
	}
}

func TestCompile_SameMarkerFollowsApplyOrder(t *testing.T) {
	skeleton := map[string]string{"src/app.ts": "// MW\nend\n"}
	custom := withInjections(def("aaa-custom", "api"), "src/app.ts", addon.Injection{Marker: "// MW", Content: "custom()"})
	custom.Custom = true
	c := newCompiler(t, []*addon.Definition{
		withInjections(def("helmet", "api"), "src/app.ts", addon.Injection{Marker: "// MW", Content: "helmet()\nhelmet2()"}),
		withInjections(def("cors", "api"), "src/app.ts", addon.Injection{Marker: "// MW", Content: "cors()"}),
		withInjections(def("biome", "toolchain"), "src/app.ts", addon.Injection{Marker: "// MW", Content: "biome()"}),
		custom,
	})

	p, err := c.Compile(skeleton, []string{"aaa-custom", "helmet", "cors", "biome"}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"biome", "cors", "helmet", "aaa-custom"}, p.Order)
	assert.Equal(t, "// MW\nbiome()\ncors()\nhelmet()\nhelmet2()\ncustom()\nend\n", p.Files["src/app.ts"])
	assert.Equal(t, []string{"base", "biome", "cors", "helmet", "helmet", "aaa-custom", "base"}, owners(p.Lines("src/app.ts")))
}

func TestCompile_InjectionsApplyInFileOrder(t *testing.T) {
	skeleton := map[string]string{"main.ts": "// IMPORTS\n// SETUP\n"}
	c := newCompiler(t, []*addon.Definition{
		withInjections(def("db", "database"), "main.ts",
			addon.Injection{Marker: "// SETUP", Content: "connect()"},
			addon.Injection{Marker: "// IMPORTS", Content: "import db"},
			addon.Injection{Marker: "// SETUP", Content: "migrate()"},
		),
	})

	p, err := c.Compile(skeleton, []string{"db"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "// IMPORTS\nimport db\n// SETUP\nconnect()\nmigrate()\n", p.Files["main.ts"])
}

func TestCompile_InjectionWarnings(t *testing.T) {
	skeleton := map[string]string{
		"src/app.ts":       "app\n",
		"public/logo.png":  "base64::iVBORw0KGgo=",
		"public/other.bin": BinaryPrefix + "AAAA",
	}
	c := newCompiler(t, []*addon.Definition{
		withInjections(
			withInjections(
				withInjections(def("x", "api"), "src/app.ts", addon.Injection{Marker: "// NOPE", Content: "x"}),
				"missing.ts", addon.Injection{Marker: "m", Content: "x"}),
			"public/logo.png", addon.Injection{Marker: "m", Content: "x"}),
	})

	p, err := c.Compile(skeleton, []string{"x"}, nil)
	require.NoError(t, err, "warnings never fail the compile")

	assert.Equal(t, "app\n", p.Files["src/app.ts"])
	kinds := make([]WarningKind, 0, len(p.Warnings))
	for _, w := range p.Warnings {
		kinds = append(kinds, w.Kind)
	}
	assert.ElementsMatch(t, []WarningKind{WarningMarkerNotFound, WarningTargetMissing, WarningBinaryTarget}, kinds)
	assert.Len(t, p.WarningsFor("x"), 3)
}

func TestCompile_BinaryPassThrough(t *testing.T) {
	c := newCompiler(t, []*addon.Definition{
		withFiles(def("icons", "styling"), map[string]string{
			"public/favicon.ico": "raw-bytes {{projectName}}",
			"src/icon.txt":       BinaryPrefix + "e3twcm9qZWN0TmFtZX19",
		}),
	}, WithVars(map[string]string{"projectName": "demo"}))

	p, err := c.Compile(nil, []string{"icons"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "raw-bytes {{projectName}}", p.Files["public/favicon.ico"], "binary content is not substituted")
	assert.Equal(t, []string{"public/favicon.ico", "src/icon.txt"}, p.Binary)
	assert.Nil(t, p.Lines("public/favicon.ico"))
	assert.True(t, p.IsBinary("src/icon.txt"))
	assert.Equal(t, []string{"public/favicon.ico", "src/icon.txt"}, p.FilesBy("icons"))
}

func TestCompile_Placeholders(t *testing.T) {
	d := withFiles(def("db", "database"), map[string]string{
		"db.ts": "dialect={{ dialect }} name={{projectName}} keep={{unknown}}\n",
	})
	d = withInjections(d, "README.md", addon.Injection{Marker: "## Setup", Content: "Run {{dialect}} migrations for {{projectName}}"})
	other := withFiles(def("other", "other"), map[string]string{"other.ts": "{{dialect}}\n"})
	c := newCompiler(t, []*addon.Definition{d, other}, WithVars(map[string]string{"projectName": "demo"}))

	p, err := c.Compile(
		map[string]string{"README.md": "# {{projectName}}\n## Setup\n"},
		[]string{"db", "other"},
		map[string]addon.Values{"db": {"dialect": addon.EnumValue("sqlite")}},
	)
	require.NoError(t, err)

	assert.Equal(t, "dialect=sqlite name=demo keep={{unknown}}\n", p.Files["db.ts"])
	assert.Equal(t, "# demo\n## Setup\nRun sqlite migrations for demo\n", p.Files["README.md"])
	assert.Equal(t, "{{dialect}}\n", p.Files["other.ts"], "options never leak across add-ons")
}

func TestCompile_RegistryInconsistency(t *testing.T) {
	broken := def("auth-oauth", "auth")
	broken.Requires = []string{"http-client"}
	c := newCompiler(t, []*addon.Definition{broken})

	_, err := c.Compile(nil, []string{"auth-oauth"}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRegistryInconsistency))
	var rie *RegistryInconsistencyError
	require.True(t, errors.As(err, &rie))
	assert.Equal(t, "auth-oauth", rie.RequiredBy)
	assert.Equal(t, "http-client", rie.Missing)

	_, err = c.Compile(nil, []string{"ghost"}, nil)
	require.True(t, errors.As(err, &rie))
	assert.Empty(t, rie.RequiredBy)
	assert.Equal(t, "ghost", rie.Missing)
}

func TestCompile_Deterministic(t *testing.T) {
	defs := []*addon.Definition{
		withInjections(withFiles(def("a", "api"), map[string]string{"a.ts": "a\n", "shared.ts": "from a\n"}), "main.ts", addon.Injection{Marker: "//X", Content: "a()"}),
		withInjections(withFiles(def("b", "auth"), map[string]string{"b.ts": "b", "shared.ts": "from b\n"}), "main.ts", addon.Injection{Marker: "//X", Content: "b()"}),
		withInjections(def("c", "database"), "shared.ts", addon.Injection{Marker: "from", Content: "c()"}),
	}
	skeleton := map[string]string{"main.ts": "//X\n", "empty.ts": ""}
	c := newCompiler(t, defs)

	first, err := c.Compile(skeleton, []string{"c", "b", "a"}, nil)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := c.Compile(skeleton, []string{"a", "c", "b"}, nil)
		require.NoError(t, err)
		assert.Equal(t, first.Files, again.Files)
		assert.Equal(t, first.Attributions, again.Attributions)
		assert.Equal(t, first.Warnings, again.Warnings)
	}
}

func TestCompile_AttributionComplete(t *testing.T) {
	defs := []*addon.Definition{
		withInjections(withFiles(def("a", "api"), map[string]string{"a.ts": "1\n2\n3", "n.ts": "\n\n"}), "main.ts", addon.Injection{Marker: "//X", Content: "a1\na2\n"}),
		withInjections(def("b", "auth"), "main.ts", addon.Injection{Marker: "//END", Content: "tail"}),
	}
	skeleton := map[string]string{"main.ts": "//X\nbody\n//END", "empty.ts": ""}
	c := newCompiler(t, defs)

	p, err := c.Compile(skeleton, []string{"a", "b"}, nil)
	require.NoError(t, err)

	for _, path := range p.Paths() {
		attrs := p.Lines(path)
		require.Len(t, attrs, LineCount(p.Files[path]), path)
		for i, a := range attrs {
			assert.Equal(t, i+1, a.Line, path)
		}
	}
	assert.Equal(t, "//X\na1\na2\nbody\n//END\ntail", p.Files["main.ts"])
	assert.Equal(t, []LineAttribution{}, p.Lines("empty.ts"))
}

func TestCompile_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c := newCompiler(t, []*addon.Definition{
		withFiles(def("a", "api"), map[string]string{"x": "1"}),
		withFiles(def("b", "auth"), map[string]string{"x": "2"}),
	}, WithLogger(logger))

	_, err := c.Compile(nil, []string{"a", "b"}, nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "compile warning")
	assert.Contains(t, buf.String(), "kind=overwrite")
	assert.Contains(t, buf.String(), "compile finished")
}

func TestNew_InvalidGlob(t *testing.T) {
	_, err := New(catalog.MustNew(nil), WithBinaryGlobs("[unclosed"))
	assert.Error(t, err)
}

func TestLineCount(t *testing.T) {
	tests := []struct {
		content string
		want    int
	}{
		{"", 0},
		{"a", 1},
		{"a\n", 1},
		{"a\nb", 2},
		{"a\nb\n", 2},
		{"\n", 1},
		{"\n\n", 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LineCount(tt.content), "%q", tt.content)
	}
}

func TestDiff(t *testing.T) {
	old := &Project{Files: map[string]string{"a": "1", "b": "2", "c": "3"}}
	next := &Project{Files: map[string]string{"a": "1", "b": "changed", "d": "4"}}

	changes := Diff(old, next)
	assert.Equal(t, []string{"d"}, changes.Added)
	assert.Equal(t, []string{"c"}, changes.Removed)
	assert.Equal(t, []string{"b"}, changes.Modified)
	assert.Equal(t, []string{"b", "d"}, changes.Written())
	assert.Equal(t, 3, changes.TotalChanges())

	assert.True(t, Diff(next, next).IsEmpty())
	assert.Equal(t, []string{"a", "b", "d"}, Diff(nil, next).Added)
	assert.Equal(t, []string{"a", "b", "d"}, Diff(next, nil).Removed)
}
