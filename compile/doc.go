// Package compile merges a starter skeleton and a resolved set of add-ons
// into one project file tree, recording which add-on produced every line.
//
// # Apply Order
//
// Add-ons are applied in catalog category order, then by id within a
// category; custom add-ons always come last. When two add-ons inject at the
// same marker, the one applied first sits closer to the marker.
//
// For each add-on, placeholders of the form {{name}} are replaced with the
// add-on's option values and the project variables, then its files are
// written (overwriting earlier content with a warning), then its injections
// are spliced after their marker lines.
//
// # Attribution
//
// Every line of every text file is attributed to "base" (the skeleton) or
// to an add-on id. Attribution lists cover lines 1..N exactly; a trailing
// newline does not start a line and an empty file has no lines.
//
// # Binary Content
//
// Content starting with BinaryPrefix, or whose path matches a binary glob,
// is passed through untouched and is exempt from injection and attribution.
//
// # Errors
//
// The only fatal condition is a selected add-on, or one of its
// requirements, that is absent from the catalog. It is reported as a
// *RegistryInconsistencyError. Everything else becomes a Warning.
package compile
