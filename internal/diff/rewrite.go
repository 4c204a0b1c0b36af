package diff

import (
	"strings"

	"github.com/kvit-s/patchfix/internal/workspace"
)

// DetectFullRewrite recognizes a diff with no deletions as a set of complete
// file replacements: each section's insert and context text, concatenated in
// order, becomes the new file content. A single delete line in any section
// disqualifies the whole diff, so partially-rewriting patches fall through to
// the fuzzier strategies instead of mixing modes across files.
func DetectFullRewrite(diffs []LooseFileDiff) []RewrittenFile {
	var out []RewrittenFile
	for _, fd := range diffs {
		var lines []string
		for _, h := range fd.Hunks {
			for _, op := range h.Ops {
				switch op.Marker {
				case Delete:
					return nil
				case Insert, Context:
					lines = append(lines, op.Text)
				}
			}
		}
		if len(lines) == 0 {
			continue
		}
		target := workspace.CleanPatchPath(fd.NewPath)
		if target == "" {
			continue
		}
		out = append(out, RewrittenFile{
			Path:    target,
			Content: strings.Join(lines, "\n") + "\n",
		})
	}
	return out
}
