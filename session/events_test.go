package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albertocavalcante/go-startkit/compile"
)

func TestToCloudEvent(t *testing.T) {
	p := succeededEvent(DefaultSource, 4, &compile.Project{
		Files: map[string]string{"a.ts": "a\n"},
		Order: []string{"auth"},
	})

	event, err := p.toCloudEvent()
	require.NoError(t, err)
	assert.Equal(t, EventCompileSucceeded, event.Type())
	assert.Equal(t, DefaultSource, event.Source())
	assert.NotEmpty(t, event.ID())

	var data CompileEventData
	require.NoError(t, event.DataAs(&data))
	assert.Equal(t, CompileEventData{Seq: 4, Files: 1, Order: []string{"auth"}}, data)
}

func TestToCloudEvent_Invalid(t *testing.T) {
	_, err := failedEvent("", 2, errors.New("boom")).toCloudEvent()
	require.Error(t, err)
	assert.Contains(t, err.Error(), EventCompileFailed)
}

func TestController_DropsInvalidEvents(t *testing.T) {
	g := newGate()
	sink := &recordingSink{}
	c, err := New(g.compile, WithEventSink(sink))
	require.NoError(t, err)
	defer c.Close()
	c.src = ""

	c.RequestCompile(snap("a"))
	g.expectStart(t, 1)
	g.release(t, nil)

	r := waitResult(t, c)
	require.NoError(t, r.Err)
	assert.Empty(t, sink.types())
}
