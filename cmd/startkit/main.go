// Command startkit composes a project from a starter and a catalog of
// add-ons.
//
// Usage:
//
//	startkit resolve --catalog catalog.yaml --select auth-basic,sentry
//	startkit compile --catalog catalog.yaml --starter react.yaml --out ./my-app --lock
//	startkit compile --catalog catalog.yaml --out ./my-app --watch
//	startkit explain http-client --select sentry
//	startkit command --select sentry --package-manager pnpm
//	startkit lint --catalog catalog.yaml
//
// Flags may also be set in startkit.yaml or through STARTKIT_* environment
// variables, for example STARTKIT_CATALOG or STARTKIT_PROJECT_NAME.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
