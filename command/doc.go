// Package command renders a selection as a shell command that scaffolds the
// same project from a terminal, and parses such a command back.
//
// The command has the form
//
//	npx create-start-app@latest my-app --add-ons auth-basic,http-client \
//	    --option sentry:dsn=https://example --capabilities tailwind \
//	    --package-manager pnpm
//
// Every argument is quoted for POSIX shells, so Parse(Format(s)) returns s.
package command
