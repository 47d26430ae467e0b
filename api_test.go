package startkit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albertocavalcante/go-startkit/addon"
	"github.com/albertocavalcante/go-startkit/catalog"
	"github.com/albertocavalcante/go-startkit/command"
	"github.com/albertocavalcante/go-startkit/compile"
	"github.com/albertocavalcante/go-startkit/lockfile"
	"github.com/albertocavalcante/go-startkit/registry"
	"github.com/albertocavalcante/go-startkit/session"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New([]*addon.Definition{
		{
			ID: "auth-basic", Name: "Basic auth", Description: "password login", Category: "auth",
			ExclusiveGroups: []string{"auth"},
			Files:           map[string]string{"src/auth.ts": "export const auth = 'basic'\n"},
		},
		{
			ID: "auth-oauth", Name: "OAuth", Description: "oauth login", Category: "auth",
			ExclusiveGroups: []string{"auth"},
			Files:           map[string]string{"src/auth.ts": "export const auth = 'oauth'\n"},
		},
		{
			ID: "shadcn", Name: "shadcn/ui", Description: "components", Category: "ui",
			RequiresCapability: "tailwind",
			Files:              map[string]string{"src/ui.ts": "export {}\n"},
		},
		{
			ID: "sentry", Name: "Sentry", Description: "errors", Category: "monitoring",
			Options: map[string]addon.OptionField{
				"region": {Type: addon.KindEnum, Values: []string{"us", "eu"}, Default: "us"},
			},
			Files: map[string]string{"src/sentry.ts": "export const region = '{{region}}'\n"},
			Injections: map[string][]addon.Injection{
				"src/main.ts": {{Marker: "// plugins", Content: "import './sentry'\n"}},
			},
		},
		{
			ID: "broken", Name: "Broken", Description: "needs a ghost", Requires: []string{"ghost"},
		},
	})
	require.NoError(t, err)
	return cat
}

func testStarter() *Starter {
	return &Starter{
		Name: "react",
		Files: map[string]string{
			"package.json": "{\"name\": \"{{projectName}}\"}\n",
			"src/main.ts":  "// plugins\nstart()\n",
		},
		DefaultAddOns: []string{"auth-basic"},
		Capabilities:  []string{"tailwind"},
	}
}

func open(t *testing.T, opts ...Option) *Builder {
	t.Helper()
	b, err := Open(testCatalog(t), testStarter(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func wait(t *testing.T, b *Builder) session.Result {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r, err := b.Wait(ctx)
	require.NoError(t, err)
	return r
}

func TestOpen_FirstCompile(t *testing.T) {
	b := open(t, WithProjectName("acme"))

	r := wait(t, b)
	require.NoError(t, r.Err)
	assert.Equal(t, "{\"name\": \"acme\"}\n", r.Project.Files["package.json"])
	assert.Equal(t, "auth-basic", r.Project.Owner("src/auth.ts"))
	assert.Equal(t, []string{"auth-basic"}, b.State().Effective)
}

func TestOpen_Validation(t *testing.T) {
	cat := testCatalog(t)

	_, err := Open(nil, testStarter())
	assert.Error(t, err)

	_, err = Open(cat, nil)
	assert.Error(t, err)

	_, err = Open(cat, &Starter{Files: map[string]string{"a": "b"}})
	assert.Error(t, err, "starter without a name")

	_, err = Open(cat, testStarter(), WithProjectName(""))
	assert.Error(t, err)

	_, err = Open(cat, testStarter(), WithBinaryGlobs("[oops"))
	assert.Error(t, err)
}

func TestBuilder_ToggleExclusive(t *testing.T) {
	b := open(t)

	state := b.Toggle("auth-oauth")
	assert.Equal(t, []string{"auth-oauth"}, state.Effective)

	r := wait(t, b)
	require.NoError(t, r.Err)
	assert.Equal(t, "export const auth = 'oauth'\n", r.Project.Files["src/auth.ts"])
	assert.Equal(t, []string{"auth-oauth"}, r.Snapshot.State.Effective)
}

func TestBuilder_NoOpToggleDoesNotRecompile(t *testing.T) {
	b := open(t)
	wait(t, b)
	before, _ := b.Latest()

	b.Toggle("does-not-exist")
	after, ok := b.Latest()
	require.True(t, ok)
	assert.Equal(t, before.Seq, after.Seq)
}

func TestBuilder_SetCapabilityEvicts(t *testing.T) {
	b := open(t)
	b.Toggle("shadcn")
	assert.True(t, b.State().IsSelected("shadcn"))

	state := b.SetCapability("tailwind", false)
	assert.False(t, state.IsSelected("shadcn"))
	assert.True(t, b.Disabled("shadcn"))

	r := wait(t, b)
	require.NoError(t, r.Err)
	assert.NotContains(t, r.Project.Files, "src/ui.ts")
}

func TestBuilder_SetOption(t *testing.T) {
	b := open(t)

	assert.ErrorIs(t, b.SetOption("nope", "x", 1), ErrUnknownAddOn)
	assert.ErrorIs(t, b.SetOption("sentry", "x", 1), ErrUnknownOption)
	assert.Error(t, b.SetOption("sentry", "region", "mars"))

	require.NoError(t, b.SetOption("sentry", "region", "eu"))
	b.Toggle("sentry")

	r := wait(t, b)
	require.NoError(t, r.Err)
	assert.Equal(t, "export const region = 'eu'\n", r.Project.Files["src/sentry.ts"])
	assert.Equal(t, "// plugins\nimport './sentry'\nstart()\n", r.Project.Files["src/main.ts"])
	assert.Equal(t, "eu", b.Snapshot().Options["sentry"]["region"].String())
}

func TestBuilder_RegistryInconsistency(t *testing.T) {
	b := open(t)
	b.Toggle("broken")

	r := wait(t, b)
	require.Error(t, r.Err)
	assert.ErrorIs(t, r.Err, ErrRegistryInconsistency)
	assert.Nil(t, r.Project)

	var rie *compile.RegistryInconsistencyError
	require.True(t, errors.As(r.Err, &rie))
	assert.Equal(t, "ghost", rie.Missing)
}

func TestBuilder_CompileHook(t *testing.T) {
	var calls atomic.Int32
	fail := atomic.Bool{}
	b := open(t, WithCompileHook(func(ctx context.Context, seq uint64, p *compile.Project) error {
		calls.Add(1)
		if fail.Load() {
			return errors.New("sandbox down")
		}
		return nil
	}))

	r := wait(t, b)
	require.NoError(t, r.Err)
	assert.Equal(t, int32(1), calls.Load())

	fail.Store(true)
	b.Toggle("auth-oauth")
	r = wait(t, b)
	require.Error(t, r.Err)
	assert.Contains(t, r.Err.Error(), "sandbox down")

	_, err := Open(testCatalog(t), testStarter(), WithCompileHook(nil))
	assert.Error(t, err)
}

func TestBuilder_CompileHookSkipsSupersededCompile(t *testing.T) {
	blocked := make(chan struct{})
	var mu sync.Mutex
	var applied []uint64
	b := open(t, WithCompileHook(func(ctx context.Context, seq uint64, p *compile.Project) error {
		if seq == 1 {
			close(blocked)
			<-ctx.Done()
			return ctx.Err()
		}
		mu.Lock()
		defer mu.Unlock()
		applied = append(applied, seq)
		return nil
	}))

	select {
	case <-blocked:
	case <-time.After(5 * time.Second):
		t.Fatal("hook never ran")
	}
	b.Toggle("auth-oauth")

	r := wait(t, b)
	require.NoError(t, r.Err)
	assert.Equal(t, uint64(2), r.Seq)
	assert.Equal(t, []string{"auth-oauth"}, r.Project.Order)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []uint64{2}, applied)
}

func TestBuilder_AddAddOn(t *testing.T) {
	b := open(t)

	custom := &addon.Definition{
		ID: "my-addon", Name: "Mine", Description: "custom", Custom: true,
		Files: map[string]string{"src/mine.ts": "export {}\n"},
	}
	require.NoError(t, b.AddAddOn(custom))
	assert.True(t, b.Catalog().Has("my-addon"))
	assert.Error(t, b.AddAddOn(custom), "duplicate id")

	b.Toggle("my-addon")
	r := wait(t, b)
	require.NoError(t, r.Err)
	assert.Equal(t, "my-addon", r.Project.Owner("src/mine.ts"))
	assert.Equal(t, "my-addon", r.Project.Order[len(r.Project.Order)-1], "custom add-ons apply last")
}

func TestBuilder_Import(t *testing.T) {
	b := open(t)
	assert.ErrorIs(t, b.Import(context.Background(), "https://example.com/x.json"), ErrNoRegistry)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"remote","name":"Remote","description":"from a URL","files":{"src/remote.ts":"x\n"}}`)
	}))
	defer server.Close()

	b = open(t, WithRegistryClient(registry.NewClient("")))
	require.NoError(t, b.Import(context.Background(), server.URL+"/remote.json"))
	def, ok := b.Catalog().Get("remote")
	require.True(t, ok)
	assert.True(t, def.Custom)
}

func TestBuilder_Explain(t *testing.T) {
	b := open(t)
	exp, err := b.Explain("auth-basic")
	require.NoError(t, err)
	assert.True(t, exp.IsRoot)

	_, err = b.Explain("sentry")
	assert.Error(t, err)
}

func TestBuilder_LockfileAndCommand(t *testing.T) {
	b := open(t, WithProjectName("acme"))
	r := wait(t, b)

	lf, err := b.Lockfile(r)
	require.NoError(t, err)
	assert.Equal(t, "acme", lf.Project)
	assert.Equal(t, []string{"auth-basic"}, lf.Effective)
	assert.Len(t, lf.FileHashes, len(r.Project.Files))

	_, err = b.Lockfile(session.Result{Seq: 9, Err: errors.New("x")})
	assert.Error(t, err)

	line, err := b.Command("pnpm")
	require.NoError(t, err)
	spec, err := command.Parse(line)
	require.NoError(t, err)
	assert.Equal(t, "acme", spec.ProjectName)
	assert.Equal(t, []string{"auth-basic"}, spec.AddOns)
	assert.Equal(t, []string{"tailwind"}, spec.Capabilities)
}

func TestBuilder_LockfileUsesCompiledCatalog(t *testing.T) {
	b := open(t)
	r := wait(t, b)
	require.NoError(t, r.Err)

	old, ok := b.Catalog().Get("auth-basic")
	require.True(t, ok)
	oldHash, err := lockfile.HashDefinition(old)
	require.NoError(t, err)

	changed, err := catalog.New([]*addon.Definition{{
		ID: "auth-basic", Name: "Basic auth", Description: "password login", Category: "auth",
		ExclusiveGroups: []string{"auth"},
		Files:           map[string]string{"src/auth.ts": "export const auth = 'basic-v2'\n"},
	}})
	require.NoError(t, err)
	require.NoError(t, b.Reload(changed))
	next := wait(t, b)
	require.NoError(t, next.Err)

	lf, err := b.Lockfile(r)
	require.NoError(t, err)
	assert.Equal(t, oldHash, lf.AddOnHashes["auth-basic"])

	lf, err = b.Lockfile(next)
	require.NoError(t, err)
	assert.NotEqual(t, oldHash, lf.AddOnHashes["auth-basic"])
}

func TestBuilder_Events(t *testing.T) {
	var mu sync.Mutex
	var types []string
	sink := session.EventSinkFunc(func(_ context.Context, e cloudevents.Event) error {
		mu.Lock()
		defer mu.Unlock()
		types = append(types, e.Type())
		return nil
	})

	b := open(t, WithEventSink(sink), WithSessionID("session-1"))
	wait(t, b)

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, types)
	assert.Equal(t, session.EventCompileSucceeded, types[len(types)-1])
}

func TestBuilder_Close(t *testing.T) {
	b, err := Open(testCatalog(t), testStarter())
	require.NoError(t, err)
	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	_, err = b.Wait(context.Background())
	if err != nil {
		assert.ErrorIs(t, err, ErrClosed)
	}

	_, more := <-b.Results()
	for more {
		_, more = <-b.Results()
	}
	assert.Equal(t, uint64(1), b.ctrl.Seq())
}

func TestBuilder_Reload(t *testing.T) {
	b := open(t)
	require.NoError(t, b.AddAddOn(&addon.Definition{
		ID: "my-addon", Name: "Mine", Description: "custom", Custom: true,
		Files: map[string]string{"src/mine.ts": "export {}\n"},
	}))

	smaller, err := catalog.New([]*addon.Definition{
		{ID: "auth-oauth", Name: "OAuth", Description: "oauth", ExclusiveGroups: []string{"auth"}},
	})
	require.NoError(t, err)

	require.NoError(t, b.Reload(smaller))
	assert.True(t, b.Catalog().Has("my-addon"), "custom add-ons survive a reload")
	assert.False(t, b.Catalog().Has("auth-basic"))
	assert.Equal(t, []string{"auth-basic"}, b.State().Effective, "unknown selections are kept")

	r := wait(t, b)
	assert.ErrorIs(t, r.Err, ErrRegistryInconsistency)
}
