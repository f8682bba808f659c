package convert

import "strings"

var (
	arbitraryPrefixes = []string{"#", "rgb(", "hsl("}
	arbitrarySuffixes = []string{"px", "em", "rem", "vh", "vw", "vmin", "vmax", "%"}
)

// IsArbitraryValue reports whether v must be rendered with bracketed
// arbitrary-value syntax (colors and explicit CSS lengths) instead of a
// named scale step.
func IsArbitraryValue(v string) bool {
	v = strings.TrimSpace(v)
	for _, p := range arbitraryPrefixes {
		if strings.HasPrefix(v, p) {
			return true
		}
	}
	for _, s := range arbitrarySuffixes {
		if strings.HasSuffix(v, s) {
			return true
		}
	}
	return false
}
