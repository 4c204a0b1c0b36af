package diff

import (
	"fmt"
	"os"
	"strings"

	"github.com/kvit-s/patchfix/internal/workspace"
)

// ParseStrict splits a unified diff into per-file sections, trusting the
// numeric hunk headers. Every file section must have a "--- " line
// immediately followed by a "+++ " line, and every hunk header must match the
// strict grammar. Any malformed section aborts the whole parse; strict
// parsing is all-or-nothing.
func ParseStrict(text string) ([]FileDiff, error) {
	lines := strings.Split(text, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	var diffs []FileDiff
	i := 0
	for i < len(lines) {
		line := lines[i]
		if !strings.HasPrefix(line, "--- ") {
			i++
			continue
		}
		if i+1 >= len(lines) || !strings.HasPrefix(lines[i+1], "+++ ") {
			return nil, fmt.Errorf("line %d: %q is not followed by a +++ header", i+1, line)
		}
		fd := FileDiff{
			OldPath: strings.TrimSpace(strings.TrimPrefix(line, "--- ")),
			NewPath: strings.TrimSpace(strings.TrimPrefix(lines[i+1], "+++ ")),
		}
		i += 2

		for i < len(lines) {
			l := lines[i]
			if strings.HasPrefix(l, "--- ") || strings.HasPrefix(l, "diff --git ") {
				break
			}
			if !strings.HasPrefix(l, "@@") {
				return nil, fmt.Errorf("line %d: expected hunk header, got %q", i+1, l)
			}
			m := hunkHeaderRe.FindStringSubmatch(l)
			if m == nil {
				return nil, fmt.Errorf("line %d: malformed hunk header %q", i+1, l)
			}
			h := Hunk{
				OldStart: atoiDefault(m[1], 1),
				OldLen:   atoiDefault(m[2], 1),
				NewStart: atoiDefault(m[3], 1),
				NewLen:   atoiDefault(m[4], 1),
			}
			i++
			for i < len(lines) {
				b := lines[i]
				if strings.HasPrefix(b, "@@") || strings.HasPrefix(b, "--- ") ||
					strings.HasPrefix(b, "diff --git ") {
					break
				}
				switch {
				case b == "":
					h.Ops = append(h.Ops, Op{Marker: Context})
				case strings.HasPrefix(b, `\`):
					// "\ No newline at end of file": metadata, not content.
				case b[0] == ' ':
					h.Ops = append(h.Ops, Op{Marker: Context, Text: b[1:]})
				case b[0] == '-':
					h.Ops = append(h.Ops, Op{Marker: Delete, Text: b[1:]})
				case b[0] == '+':
					h.Ops = append(h.Ops, Op{Marker: Insert, Text: b[1:]})
				default:
					return nil, fmt.Errorf("line %d: unrecognized hunk line %q", i+1, b)
				}
				i++
			}
			fd.Hunks = append(fd.Hunks, h)
		}
		diffs = append(diffs, fd)
	}

	if len(diffs) == 0 {
		return nil, fmt.Errorf("no file sections found")
	}
	return diffs, nil
}

// ApplyStrict replays strictly-parsed hunks positionally against the files
// under root and returns the rewritten files without writing them. A source
// path of /dev/null (or a file that does not exist yet) applies against empty
// content.
func ApplyStrict(root string, diffs []FileDiff) ([]RewrittenFile, error) {
	var out []RewrittenFile
	for _, fd := range diffs {
		target := workspace.CleanPatchPath(fd.NewPath)
		if target == "" {
			// Pure deletions are not materialized as writes.
			continue
		}
		original, err := readOriginal(root, fd.OldPath)
		if err != nil {
			return nil, err
		}
		content := replayStrict(original, fd.Hunks)
		out = append(out, RewrittenFile{Path: target, Content: content})
	}
	return out, nil
}

// readOriginal loads the pre-image for a file section; absent files and
// /dev/null yield empty content.
func readOriginal(root, oldPath string) (string, error) {
	rel := workspace.CleanPatchPath(oldPath)
	if rel == "" {
		return "", nil
	}
	full, err := workspace.Resolve(root, rel)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read %s: %w", rel, err)
	}
	return string(data), nil
}

// replayStrict copies unmodified original lines up to each hunk's start, then
// replays the ops: context copies and advances, delete advances without
// copying, insert emits without advancing. The remaining tail is appended
// after the last hunk.
func replayStrict(original string, hunks []Hunk) string {
	src, trailing := splitLines(original)

	var out []string
	cursor := 0
	for _, h := range hunks {
		start := h.OldStart - 1
		if start < cursor {
			start = cursor
		}
		for cursor < start && cursor < len(src) {
			out = append(out, src[cursor])
			cursor++
		}
		for _, op := range h.Ops {
			switch op.Marker {
			case Context:
				if cursor < len(src) {
					out = append(out, src[cursor])
					cursor++
				} else {
					out = append(out, op.Text)
				}
			case Delete:
				if cursor < len(src) {
					cursor++
				}
			case Insert:
				out = append(out, op.Text)
			}
		}
	}
	for cursor < len(src) {
		out = append(out, src[cursor])
		cursor++
	}

	return joinLines(out, trailing || original == "")
}

// splitLines splits content into lines without a trailing empty element,
// remembering whether the content ended with a newline.
func splitLines(content string) (lines []string, trailingNewline bool) {
	if content == "" {
		return nil, false
	}
	trailingNewline = strings.HasSuffix(content, "\n")
	lines = strings.Split(content, "\n")
	if trailingNewline {
		lines = lines[:len(lines)-1]
	}
	return lines, trailingNewline
}

// joinLines is the inverse of splitLines.
func joinLines(lines []string, trailingNewline bool) string {
	if len(lines) == 0 {
		return ""
	}
	content := strings.Join(lines, "\n")
	if trailingNewline {
		content += "\n"
	}
	return content
}
