// Package lockfile reads and writes startkit.lock.json, the manifest that
// records how a generated project was produced.
//
// The manifest captures the resolved selection and the integrity of its
// inputs and outputs, so a project can be regenerated or checked for drift.
//
// # Manifest Structure
//
// A manifest contains:
//   - lockFileVersion: schema version for format compatibility
//   - project: the project name passed to the compile
//   - userSelected, forced, effective, capabilities: the selection state
//   - options: resolved option values per add-on
//   - addOnHashes: sha256 of every effective add-on definition
//   - fileHashes: sha256 of every generated file
//
// # Usage
//
// Record a compile:
//
//	lf := lockfile.FromProject("my-app", snapshot, cat, project)
//	if err := lf.WriteFile(lockfile.DefaultPath(dir)); err != nil {
//	    log.Fatal(err)
//	}
//
// Restore a selection:
//
//	lf, err := lockfile.ReadFile("startkit.lock.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	state := selection.New(cat, lf.Init())
package lockfile
