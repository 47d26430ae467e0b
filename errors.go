package startkit

import (
	"errors"

	"github.com/albertocavalcante/go-startkit/compile"
	"github.com/albertocavalcante/go-startkit/session"
)

// Sentinel errors returned by Builder.
var (
	// ErrUnknownAddOn indicates an add-on id the catalog does not contain.
	ErrUnknownAddOn = errors.New("unknown add-on")

	// ErrUnknownOption indicates an option name the add-on does not declare.
	ErrUnknownOption = errors.New("unknown option")

	// ErrNoRegistry indicates Import was called without WithRegistryClient.
	ErrNoRegistry = errors.New("no registry client configured")

	// ErrClosed is returned after Close.
	ErrClosed = session.ErrClosed

	// ErrRegistryInconsistency is the only fatal compile error: a selected
	// add-on requires an id the catalog does not contain.
	ErrRegistryInconsistency = compile.ErrRegistryInconsistency
)
