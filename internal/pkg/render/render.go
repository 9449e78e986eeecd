package render

import (
	"regexp"
	"strings"
)

var placeholderRe = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_]*)\s*\}\}`)

// Render substitutes {{variable}} placeholders in s with values from vars.
// Unresolved placeholders are left verbatim so a missing variable is visible
// in the delivered content instead of silently blanked.
func Render(s string, vars map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(s, func(token string) string {
		name := strings.Trim(token, "{} \t")
		if v, ok := vars[name]; ok {
			return v
		}
		return token
	})
}

// Variables lists the distinct placeholder names that appear in s, in order
// of first appearance.
func Variables(s string) []string {
	seen := map[string]bool{}
	var names []string
	for _, m := range placeholderRe.FindAllStringSubmatch(s, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}
