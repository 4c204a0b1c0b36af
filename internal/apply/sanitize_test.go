package apply

import "testing"

func TestStripANSI(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "no escapes here", "no escapes here"},
		{"color codes", "\x1b[31m-old\x1b[0m\n\x1b[32m+new\x1b[0m", "-old\n+new"},
		{"cursor movement", "\x1b[2Jdiff --git", "diff --git"},
		{"two-byte escape", "\x1bMtext", "text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripANSI(tt.in); got != tt.want {
				t.Errorf("StripANSI(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"plain diff", "--- a/f\n+++ b/f\n@@ -1 +1 @@\n-a\n+b\n", false},
		{"tabs and carriage returns allowed", "line\twith\ttabs\r\n", false},
		{"ansi stripped then clean", "\x1b[31m+red line\x1b[0m\n", false},
		{"null byte rejected", "+line\x00broken\n", true},
		{"bell rejected", "+ding\x07\n", true},
		{"lone escape rejected", "+text\x1b\n", true},
		{"delete byte rejected", "+text\x7f\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Sanitize(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("Sanitize() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if kind, ok := KindOf(err); !ok || kind != KindControlCharacter {
					t.Errorf("error kind = %v, want KindControlCharacter", err)
				}
			}
		})
	}
}
