// Package session sequences compile requests for one editing session.
//
// A selection can change on every keystroke, and compiles finish in any
// order. The Controller numbers every request, runs at most one compile at a
// time, coalesces requests that arrive while one is running into a single
// follow-up compile of the newest snapshot, and drops every result that is
// older than the newest request. Errors of superseded compiles are dropped
// too.
//
//	ctrl, _ := session.New(func(ctx context.Context, req session.Request) (*compile.Project, error) {
//	    return compiler.Compile(skeleton, req.Snapshot.State.Effective, req.Snapshot.Options)
//	})
//	defer ctrl.Close()
//
//	ctrl.RequestCompile(snapshot)
//	result := <-ctrl.Results()
//
// Cancellation is soft: a running compile is never interrupted by a newer
// request, its result is ignored instead. The context passed to the compile
// function is cancelled only by Close.
package session
