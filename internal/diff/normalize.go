package diff

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Result carries the canonical text produced by Normalize and whether any
// hunk header had to be corrected or invented along the way. Callers use the
// flag to decide whether positional (header-trusting) application is safe.
type Result struct {
	Text                 string
	UntrustworthyHeaders bool
}

// hunkHeaderRe is the strict hunk header grammar. Missing lengths default
// to 1.
var hunkHeaderRe = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@(.*)$`)

func isFileHeader(line string) bool {
	return strings.HasPrefix(line, "diff --git ") ||
		strings.HasPrefix(line, "--- ") ||
		strings.HasPrefix(line, "+++ ")
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func formatHunkHeader(oldStart, oldLen, newStart, newLen int, suffix string) string {
	return fmt.Sprintf("@@ -%d,%d +%d,%d @@%s", oldStart, oldLen, newStart, newLen, suffix)
}

// Normalize rewrites a diff into canonical form in a single forward pass over
// a materialized line slice. Hunk headers are recomputed from the actually
// counted body lines; headers that disagree with the body, or that do not
// parse at all, mark the result untrustworthy. Lines inside a hunk that lack
// a recognized marker are repaired as context rather than dropped, and the
// trailing-newline presence of the input is preserved exactly.
func Normalize(text string) Result {
	if text == "" {
		return Result{}
	}
	trailingNewline := strings.HasSuffix(text, "\n")
	lines := strings.Split(text, "\n")
	if trailingNewline {
		lines = lines[:len(lines)-1]
	}

	out := make([]string, 0, len(lines))
	untrustworthy := false
	oldCursor, newCursor := 1, 1

	for i := 0; i < len(lines); i++ {
		line := lines[i]

		// A bare "---"/"+++" placeholder immediately followed by the real
		// header line is collapsed to just the real one.
		if (line == "---" || line == "+++") && i+1 < len(lines) &&
			strings.HasPrefix(lines[i+1], line+" ") {
			continue
		}

		if isFileHeader(line) {
			oldCursor, newCursor = 1, 1
			out = append(out, line)
			continue
		}

		if !strings.HasPrefix(line, "@@") {
			out = append(out, line)
			continue
		}

		// Measure the hunk body up to the next marker or file header without
		// consuming it.
		end := i + 1
		measuredOld, measuredNew := 0, 0
		for end < len(lines) {
			l := lines[end]
			if strings.HasPrefix(l, "@@") || isFileHeader(l) {
				break
			}
			if (l == "---" || l == "+++") && end+1 < len(lines) &&
				strings.HasPrefix(lines[end+1], l+" ") {
				break
			}
			switch {
			case strings.HasPrefix(l, `\`):
				// "\ No newline at end of file" counts on neither side.
			case strings.HasPrefix(l, "-"):
				measuredOld++
			case strings.HasPrefix(l, "+"):
				measuredNew++
			default:
				// Context, or an unmarked line repaired as context below.
				measuredOld++
				measuredNew++
			}
			end++
		}

		oldStart, newStart := oldCursor, newCursor
		oldLen, newLen := measuredOld, measuredNew

		if m := hunkHeaderRe.FindStringSubmatch(line); m != nil {
			oldStart = atoiDefault(m[1], oldCursor)
			newStart = atoiDefault(m[3], newCursor)
			declaredOld := atoiDefault(m[2], 1)
			declaredNew := atoiDefault(m[4], 1)
			if measuredOld == 0 && measuredNew == 0 {
				// Nothing countable; keep the declared lengths as-is.
				oldLen, newLen = declaredOld, declaredNew
			} else if declaredOld != measuredOld || declaredNew != measuredNew {
				untrustworthy = true
			}
			out = append(out, formatHunkHeader(oldStart, oldLen, newStart, newLen, m[5]))
		} else {
			// The header does not parse at all: synthesize one from the
			// running cursors and the measured body.
			untrustworthy = true
			out = append(out, formatHunkHeader(oldStart, oldLen, newStart, newLen, ""))
		}

		// Re-emit the body, repairing unmarked lines as context.
		for j := i + 1; j < end; j++ {
			l := lines[j]
			if l == "" {
				out = append(out, " ")
				continue
			}
			switch l[0] {
			case ' ', '-', '+', '\\':
				out = append(out, l)
			default:
				out = append(out, " "+l)
			}
		}
		i = end - 1

		// Advance the cursors. A side that measured zero still moves by one
		// when the other side is nonzero, so degenerate hunks cannot stall
		// the pass.
		oldAdv, newAdv := oldLen, newLen
		if oldAdv == 0 && newAdv > 0 {
			oldAdv = 1
		}
		if newAdv == 0 && oldAdv > 0 {
			newAdv = 1
		}
		oldCursor = oldStart + oldAdv
		newCursor = newStart + newAdv
	}

	canonical := strings.Join(out, "\n")
	if trailingNewline && canonical != "" {
		canonical += "\n"
	}
	return Result{Text: canonical, UntrustworthyHeaders: untrustworthy}
}
