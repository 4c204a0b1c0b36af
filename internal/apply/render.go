package apply

import (
	"github.com/pmezard/go-difflib/difflib"
)

// renderUnifiedDiff renders a unified diff between old and new content for
// reporting what a fallback write changed.
func renderUnifiedDiff(oldContent, newContent, path string) (string, error) {
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(oldContent),
		B:        difflib.SplitLines(newContent),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  3,
	}
	return difflib.GetUnifiedDiffString(ud)
}
