package diff

import "strings"

const tabStop = 8

// expandTabs replaces each tab with spaces up to the next tab stop, the way a
// terminal renders them, so tab/space-indented variants of a line compare
// equal.
func expandTabs(s string) string {
	if !strings.ContainsRune(s, '\t') {
		return s
	}
	var b strings.Builder
	col := 0
	for _, r := range s {
		if r == '\t' {
			n := tabStop - col%tabStop
			for i := 0; i < n; i++ {
				b.WriteByte(' ')
			}
			col += n
			continue
		}
		b.WriteRune(r)
		col++
	}
	return b.String()
}

// collapseWhitespace reduces every whitespace run to a single space and trims
// the ends, so lines that drifted in indentation or inner spacing still
// compare equal.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// lineComparators is the equality cascade shared by the normalizer and both
// appliers, strictest first.
var lineComparators = []func(a, b string) bool{
	func(a, b string) bool { return a == b },
	func(a, b string) bool { return expandTabs(a) == expandTabs(b) },
	func(a, b string) bool { return collapseWhitespace(a) == collapseWhitespace(b) },
}

// linesEquivalent reports whether two lines match under any comparator.
func linesEquivalent(a, b string) bool {
	for _, eq := range lineComparators {
		if eq(a, b) {
			return true
		}
	}
	return false
}
