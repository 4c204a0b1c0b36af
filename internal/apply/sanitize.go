package apply

import (
	"fmt"
	"regexp"
)

// ansiRe matches ANSI/VT100 escape sequences: CSI sequences and the simple
// two-byte ESC forms.
var ansiRe = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]|\x1b[@-Z\\-_]`)

// StripANSI removes terminal control sequences from text.
func StripANSI(s string) string {
	return ansiRe.ReplaceAllString(s, "")
}

// disallowedControl reports whether b is a control byte that has no business
// in diff text. Tab, LF and CR are legitimate.
func disallowedControl(b byte) bool {
	if b == '\t' || b == '\n' || b == '\r' {
		return false
	}
	return b < 0x20 || b == 0x7f
}

// Sanitize strips ANSI sequences and rejects input in which disallowed
// control bytes remain.
func Sanitize(raw string) (string, error) {
	clean := StripANSI(raw)
	for i := 0; i < len(clean); i++ {
		if disallowedControl(clean[i]) {
			return "", ControlCharacterError(
				fmt.Sprintf("control byte 0x%02x at offset %d", clean[i], i))
		}
	}
	return clean, nil
}
