//go:build tools

// Package lint pins the linters run against go-startkit. It is a separate
// module so the library go.mod carries no tool dependencies.
//
// From the repository root:
//
//	go run -modfile=tools/lint/go.mod github.com/golangci/golangci-lint/v2/cmd/golangci-lint run ./...
//	go run -modfile=tools/lint/go.mod honnef.co/go/tools/cmd/staticcheck ./...
package lint
