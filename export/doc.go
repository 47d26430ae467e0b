// Package export hands a compiled project to its consumers: a ZIP archive,
// a directory on disk, or a sandbox that mounts a flat file map and then
// receives incremental updates.
//
// All consumers read the same compile.Project. Binary files travel in the
// flat map with the compile.BinaryPrefix escape and are decoded to raw bytes
// when written to an archive or a directory.
package export
