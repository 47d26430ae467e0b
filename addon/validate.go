package addon

import (
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
)

// FieldError represents a validation failure for a specific field.
type FieldError struct {
	Field   string // Field path (e.g., "injections[src/app.ts][0].marker")
	Message string // Human-readable error message
}

func (e *FieldError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidationErrors collects multiple validation errors.
type ValidationErrors struct {
	Errors []*FieldError
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d validation errors:", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&b, "\n  - %s", err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying errors for errors.Is/As compatibility.
func (e *ValidationErrors) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, err := range e.Errors {
		errs[i] = err
	}
	return errs
}

// Add appends a validation error.
func (e *ValidationErrors) Add(field, message string) {
	e.Errors = append(e.Errors, &FieldError{Field: field, Message: message})
}

// HasErrors returns true if any errors were collected.
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

// ToError returns nil if no errors, otherwise returns self.
func (e *ValidationErrors) ToError() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

// idPattern accepts lowercase slugs such as "auth-oauth" or "tanstack-query".
var idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)

// Validate checks structural rules every definition must satisfy.
// Returns nil if valid, or ValidationErrors containing all issues found.
//
// References to other add-ons are not resolved here; the catalog may still
// grow through imports, so dangling requires are reported by the catalog and
// become fatal only at compile time.
func (d *Definition) Validate() error {
	var errs ValidationErrors

	switch {
	case d.ID == "":
		errs.Add("id", "required field is missing")
	case !idPattern.MatchString(d.ID):
		errs.Add("id", fmt.Sprintf("invalid id %q (lowercase letters, digits, '.', '_' and '-')", d.ID))
	}
	if d.Name == "" {
		errs.Add("name", "required field is missing")
	}
	if d.Description == "" {
		errs.Add("description", "required field is missing")
	}

	seen := make(map[string]bool, len(d.Requires))
	for i, req := range d.Requires {
		field := fmt.Sprintf("requires[%d]", i)
		switch {
		case req == "":
			errs.Add(field, "empty add-on id")
		case req == d.ID:
			errs.Add(field, "add-on cannot require itself")
		case seen[req]:
			errs.Add(field, fmt.Sprintf("duplicate requirement %q", req))
		}
		seen[req] = true
	}

	for i, group := range d.ExclusiveGroups {
		field := fmt.Sprintf("exclusiveGroups[%d]", i)
		switch {
		case group == "":
			errs.Add(field, "empty group tag")
		case group == d.ID:
			errs.Add(field, "group tag cannot equal the add-on id")
		}
	}

	for _, name := range slices.Sorted(maps.Keys(d.Options)) {
		d.Options[name].validate("options."+name, &errs)
	}

	for _, path := range d.FilePaths() {
		if err := ValidatePath(path); err != nil {
			errs.Add("files["+path+"]", err.Error())
		}
	}

	for _, path := range d.InjectionTargets() {
		if err := ValidatePath(path); err != nil {
			errs.Add("injections["+path+"]", err.Error())
		}
		for i, inj := range d.Injections[path] {
			if strings.TrimSpace(inj.Marker) == "" {
				errs.Add(fmt.Sprintf("injections[%s][%d].marker", path, i), "required field is missing")
			}
		}
	}

	return errs.ToError()
}

// ValidateImported applies Validate plus the stricter rules for documents
// imported at runtime: a custom add-on must ship at least one file.
func (d *Definition) ValidateImported() error {
	var errs ValidationErrors
	if err := d.Validate(); err != nil {
		var verrs *ValidationErrors
		if errors.As(err, &verrs) {
			errs.Errors = append(errs.Errors, verrs.Errors...)
		} else {
			errs.Add("", err.Error())
		}
	}
	if len(d.Files) == 0 {
		errs.Add("files", "required field is missing or empty")
	}
	return errs.ToError()
}

func (f OptionField) validate(field string, errs *ValidationErrors) {
	if !f.Type.Valid() {
		errs.Add(field+".type", fmt.Sprintf("unknown option type %q", f.Type))
		return
	}
	if f.Type == KindEnum && len(f.Values) == 0 {
		errs.Add(field+".values", "enum option needs at least one value")
		return
	}
	if _, err := f.DefaultValue(); err != nil {
		errs.Add(field+".default", err.Error())
	}
}

// ValidatePath checks that a project path is relative and stays inside the
// project root.
func ValidatePath(path string) error {
	switch {
	case path == "":
		return fmt.Errorf("empty path")
	case strings.HasPrefix(path, "/"):
		return fmt.Errorf("path must be relative")
	case slices.Contains(strings.Split(path, "/"), ".."):
		return fmt.Errorf("path must not contain '..'")
	}
	return nil
}
