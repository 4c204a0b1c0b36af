package diff

import "strings"

// LooksLikeDiff reports whether text plausibly contains a unified diff. It is
// a cheap classifier for deciding whether input is worth handing to the apply
// pipeline at all; it never errors, on any input.
func LooksLikeDiff(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}

	var adds, removes, hunks, headers int
	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.HasPrefix(line, "diff --git"),
			strings.HasPrefix(line, "--- "),
			strings.HasPrefix(line, "+++ "):
			headers++
		case strings.HasPrefix(line, "@@"):
			hunks++
		case strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++"):
			adds++
		case strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---"):
			removes++
		}
	}

	switch {
	case headers >= 2 && (adds > 0 || removes > 0 || hunks > 0):
		return true
	case hunks > 0 && (adds > 0 || removes > 0):
		return true
	case adds+removes >= 2:
		return true
	}
	return false
}
