package graph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/albertocavalcante/go-startkit/catalog"
)

// LintIssue is one structural problem found in a catalog.
type LintIssue struct {
	// AddOn is the offending add-on. For cycles it is the first member.
	AddOn string `json:"addOn"`

	// Message describes the problem.
	Message string `json:"message"`
}

func (i LintIssue) String() string {
	return i.AddOn + ": " + i.Message
}

// Lint reports requirement cycles, requirements absent from the catalog and
// add-ons whose requirements share an exclusive group. None is fatal to
// resolution, but each usually means a broken document.
func Lint(cat *catalog.Catalog) ([]LintIssue, error) {
	g, err := FromCatalog(cat)
	if err != nil {
		return nil, err
	}

	var issues []LintIssue
	for _, cycle := range g.FindCycles() {
		issues = append(issues, LintIssue{
			AddOn:   cycle[0],
			Message: "requirement cycle: " + strings.Join(cycle, ", "),
		})
	}

	unresolved := cat.Unresolved()
	ids := make([]string, 0, len(unresolved))
	for id := range unresolved {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		for _, req := range unresolved[id] {
			issues = append(issues, LintIssue{
				AddOn:   id,
				Message: fmt.Sprintf("requires unknown add-on %q", req),
			})
		}
	}

	for _, id := range cat.IDs() {
		if a, b, ok := cat.SelfConflict(id); ok {
			issues = append(issues, LintIssue{
				AddOn:   id,
				Message: fmt.Sprintf("can never be selected: %s and %s share an exclusive group", a, b),
			})
		}
	}
	return issues, nil
}
