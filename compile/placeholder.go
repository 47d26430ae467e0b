package compile

import (
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/albertocavalcante/go-startkit/addon"
)

// BinaryPrefix marks content as a base64-encoded binary payload.
const BinaryPrefix = "base64::"

var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.-]+)\s*\}\}`)

// substitute replaces {{name}} placeholders with values from vars. Unknown
// placeholders are left intact.
func substitute(content string, vars map[string]string) string {
	if len(vars) == 0 || !strings.Contains(content, "{{") {
		return content
	}
	return placeholderPattern.ReplaceAllStringFunc(content, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		if v, ok := vars[name]; ok {
			return v
		}
		return match
	})
}

// addOnVars layers an add-on's option values over the project variables.
func addOnVars(project map[string]string, values addon.Values) map[string]string {
	out := make(map[string]string, len(project)+len(values))
	for k, v := range project {
		out[k] = v
	}
	for name, v := range values {
		out[name] = v.String()
	}
	return out
}

func (c *Compiler) isBinary(path, content string) bool {
	if strings.HasPrefix(content, BinaryPrefix) {
		return true
	}
	for _, g := range c.cfg.binaryGlobs {
		if ok, _ := doublestar.Match(g, path); ok {
			return true
		}
	}
	return false
}
