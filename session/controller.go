package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/albertocavalcante/go-startkit/compile"
	"github.com/albertocavalcante/go-startkit/internal/logutil"
	"github.com/albertocavalcante/go-startkit/selection"
)

// ErrClosed is returned by Wait after Close.
var ErrClosed = errors.New("session closed")

// Request is one compile request. Seq increases with every request.
type Request struct {
	Seq      uint64
	Snapshot selection.Snapshot
}

// CompileFunc runs one compile. It may block; it is never called
// concurrently by the same Controller.
type CompileFunc func(ctx context.Context, req Request) (*compile.Project, error)

// PublishHook runs on a successful result before it is published. It is
// only called while the result is still the newest request; its context is
// cancelled as soon as a newer request supersedes it. A hook error turns the
// result into a failure.
type PublishHook func(ctx context.Context, r Result) error

// Result is a published compile outcome. Exactly one of Project and Err is
// set.
type Result struct {
	Seq      uint64
	Snapshot selection.Snapshot
	Project  *compile.Project
	Err      error
}

// Controller is the compile state machine of one session:
// Idle -> Compiling -> Idle.
type Controller struct {
	fn    CompileFunc
	hooks []PublishHook
	log   *slog.Logger
	sink  EventSink
	src   string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	seq     uint64
	pending *Request
	running bool
	closed  bool
	latest  *Result
	changed chan struct{}
	results chan Result

	// stopHook cancels the running publish hook, if any.
	stopHook context.CancelFunc
}

// New creates a Controller that compiles with fn.
func New(fn CompileFunc, opts ...Option) (*Controller, error) {
	if fn == nil {
		return nil, errors.New("compile function is required")
	}
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		fn:      fn,
		hooks:   cfg.hooks,
		log:     logutil.OrDiscard(cfg.logger),
		sink:    cfg.sink,
		src:     cfg.source,
		ctx:     ctx,
		cancel:  cancel,
		changed: make(chan struct{}),
		results: make(chan Result, 1),
	}, nil
}

// RequestCompile schedules a compile of snap and returns its sequence
// number. When a compile is already running, snap replaces any request
// still waiting behind it. Returns 0 after Close.
func (c *Controller) RequestCompile(snap selection.Snapshot) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0
	}
	c.seq++
	req := Request{Seq: c.seq, Snapshot: snap}

	if c.stopHook != nil {
		c.stopHook()
	}

	// A published but unread result is stale now.
	select {
	case <-c.results:
	default:
	}

	if c.running {
		if c.pending != nil {
			c.log.Debug("compile request coalesced", "replaced", c.pending.Seq, "seq", req.Seq)
		}
		c.pending = &req
		return req.Seq
	}

	c.running = true
	c.wg.Add(1)
	go c.loop(req)
	return req.Seq
}

// Seq returns the newest sequence number handed out.
func (c *Controller) Seq() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Busy reports whether a compile is running.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Results delivers published results. The channel holds at most one
// result; an unread result is replaced by a newer one. It is closed by
// Close.
func (c *Controller) Results() <-chan Result {
	return c.results
}

// Latest returns the newest published result, if any.
func (c *Controller) Latest() (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.latest == nil {
		return Result{}, false
	}
	return *c.latest, true
}

// Wait blocks until the result for the newest request is published and
// returns it. It returns ctx.Err() or ErrClosed when it gives up first.
func (c *Controller) Wait(ctx context.Context) (Result, error) {
	for {
		c.mu.Lock()
		if c.latest != nil && c.latest.Seq == c.seq {
			r := *c.latest
			c.mu.Unlock()
			return r, nil
		}
		if c.closed {
			c.mu.Unlock()
			return Result{}, ErrClosed
		}
		changed := c.changed
		c.mu.Unlock()

		select {
		case <-changed:
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}
}

// Close stops the controller. A running compile sees its context
// cancelled; its result is dropped. Close waits for it to return and then
// closes the Results channel.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.pending = nil
	c.notify()
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
	close(c.results)
	return nil
}

func (c *Controller) loop(req Request) {
	defer c.wg.Done()

	for {
		c.log.Debug("compile started", "seq", req.Seq)
		project, err := c.fn(c.ctx, req)

		c.mu.Lock()
		if err == nil {
			err = c.runHooks(Result{Seq: req.Seq, Snapshot: req.Snapshot, Project: project})
		}
		switch {
		case c.closed:
			c.running = false
			c.mu.Unlock()
			return
		case req.Seq != c.seq:
			c.log.Debug("compile result discarded", "seq", req.Seq, "latest", c.seq)
			c.emit(discardedEvent(c.src, req.Seq, c.seq))
		default:
			c.publish(Result{Seq: req.Seq, Snapshot: req.Snapshot, Project: project, Err: err})
		}

		if c.pending == nil {
			c.running = false
			c.mu.Unlock()
			return
		}
		req = *c.pending
		c.pending = nil
		c.mu.Unlock()
	}
}

// runHooks runs every publish hook for r in order. It stops without error
// as soon as r is superseded; the caller then discards r. Must be called
// with c.mu held; c.mu is released while a hook runs and held again on
// return.
func (c *Controller) runHooks(r Result) error {
	for i, hook := range c.hooks {
		if c.closed || r.Seq != c.seq {
			c.log.Debug("publish hooks skipped", "seq", r.Seq, "latest", c.seq)
			return nil
		}
		ctx, cancel := context.WithCancel(c.ctx)
		c.stopHook = cancel
		c.mu.Unlock()

		err := hook(ctx, r)

		c.mu.Lock()
		c.stopHook = nil
		cancel()
		if err != nil && !c.closed && r.Seq == c.seq {
			return fmt.Errorf("publish hook %d: %w", i, err)
		}
	}
	return nil
}

// publish must be called with c.mu held.
func (c *Controller) publish(r Result) {
	if r.Err != nil {
		r.Project = nil
		c.log.Warn("compile failed", "seq", r.Seq, "error", r.Err)
		c.emit(failedEvent(c.src, r.Seq, r.Err))
	} else {
		c.log.Debug("compile published", "seq", r.Seq)
		c.emit(succeededEvent(c.src, r.Seq, r.Project))
	}

	c.latest = &r
	select {
	case <-c.results:
	default:
	}
	c.results <- r
	c.notify()
}

// notify wakes Wait callers. Must be called with c.mu held.
func (c *Controller) notify() {
	close(c.changed)
	c.changed = make(chan struct{})
}

func (c *Controller) emit(event eventPayload) {
	if c.sink == nil {
		return
	}
	ce, err := event.toCloudEvent()
	if err != nil {
		c.log.Warn("dropping compile event", "type", event.Type, "error", err)
		return
	}
	if err := c.sink.EmitEvent(context.WithoutCancel(c.ctx), ce); err != nil {
		c.log.Warn("failed to emit compile event", "type", event.Type, "error", err)
	}
}
