package session

import (
	"context"
	"fmt"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"

	"github.com/albertocavalcante/go-startkit/compile"
)

// Event types emitted to an EventSink.
const (
	EventCompileSucceeded = "dev.startkit.compile.succeeded"
	EventCompileFailed    = "dev.startkit.compile.failed"
	EventCompileDiscarded = "dev.startkit.compile.discarded"
)

// DefaultSource is the CloudEvents source used when WithSource is not set.
const DefaultSource = "startkit/session"

// EventSink receives a CloudEvent for every compile outcome. EmitEvent is
// called synchronously from the compile loop and must not block for long.
type EventSink interface {
	EmitEvent(ctx context.Context, event cloudevents.Event) error
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(ctx context.Context, event cloudevents.Event) error

// EmitEvent calls f.
func (f EventSinkFunc) EmitEvent(ctx context.Context, event cloudevents.Event) error {
	return f(ctx, event)
}

// CompileEventData is the JSON payload of compile events.
type CompileEventData struct {
	Seq      uint64   `json:"seq"`
	Latest   uint64   `json:"latest,omitempty"`
	Files    int      `json:"files,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Order    []string `json:"order,omitempty"`
	Error    string   `json:"error,omitempty"`
}

type eventPayload struct {
	Type   string
	Source string
	Data   CompileEventData
}

func succeededEvent(source string, seq uint64, p *compile.Project) eventPayload {
	data := CompileEventData{Seq: seq}
	if p != nil {
		data.Files = len(p.Files)
		data.Order = p.Order
		for _, w := range p.Warnings {
			data.Warnings = append(data.Warnings, w.String())
		}
	}
	return eventPayload{Type: EventCompileSucceeded, Source: source, Data: data}
}

func failedEvent(source string, seq uint64, err error) eventPayload {
	return eventPayload{Type: EventCompileFailed, Source: source, Data: CompileEventData{Seq: seq, Error: err.Error()}}
}

func discardedEvent(source string, seq, latest uint64) eventPayload {
	return eventPayload{Type: EventCompileDiscarded, Source: source, Data: CompileEventData{Seq: seq, Latest: latest}}
}

func (p eventPayload) toCloudEvent() (cloudevents.Event, error) {
	event := cloudevents.NewEvent()
	event.SetID(newEventID())
	event.SetSource(p.Source)
	event.SetType(p.Type)
	event.SetTime(time.Now())
	event.SetSpecVersion(cloudevents.VersionV1)
	if err := event.SetData(cloudevents.ApplicationJSON, p.Data); err != nil {
		return event, fmt.Errorf("encode %s data: %w", p.Type, err)
	}
	if err := event.Validate(); err != nil {
		return event, fmt.Errorf("invalid %s event: %w", p.Type, err)
	}
	return event, nil
}

// newEventID returns a time-ordered UUIDv7, falling back to v4.
func newEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()
}
