package diff

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"go.uber.org/multierr"

	"github.com/kvit-s/patchfix/internal/workspace"
)

// similaritySpan is how far back from the search cursor the similarity search
// may look for an anchor window.
const similaritySpan = 50

// ParseLoose performs the same section scanning as ParseStrict but records
// hunks purely structurally as ordered (marker, text) lists. Header numbers
// are kept only as text and never validated; unmarked lines become context.
func ParseLoose(text string) ([]LooseFileDiff, error) {
	lines := strings.Split(text, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	var diffs []LooseFileDiff
	var cur *LooseFileDiff
	var hunk *LooseHunk

	flushHunk := func() {
		if hunk != nil && cur != nil {
			cur.Hunks = append(cur.Hunks, *hunk)
		}
		hunk = nil
	}
	flushFile := func() {
		flushHunk()
		if cur != nil {
			diffs = append(diffs, *cur)
		}
		cur = nil
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		switch {
		case strings.HasPrefix(line, "diff --git "):
			flushFile()
		case strings.HasPrefix(line, "--- "):
			flushFile()
			if i+1 >= len(lines) || !strings.HasPrefix(lines[i+1], "+++ ") {
				return nil, fmt.Errorf("line %d: %q is not followed by a +++ header", i+1, line)
			}
			cur = &LooseFileDiff{
				OldPath: strings.TrimSpace(strings.TrimPrefix(line, "--- ")),
				NewPath: strings.TrimSpace(strings.TrimPrefix(lines[i+1], "+++ ")),
			}
			i++
		case strings.HasPrefix(line, "@@"):
			if cur == nil {
				return nil, fmt.Errorf("line %d: hunk header before any file section", i+1)
			}
			flushHunk()
			hunk = &LooseHunk{Header: line}
		case cur == nil || hunk == nil:
			// Preamble and garbage between sections is ignored.
		case strings.HasPrefix(line, `\`):
			// "\ No newline at end of file": metadata, not content.
		case line == "":
			hunk.Ops = append(hunk.Ops, Op{Marker: Context})
		case line[0] == ' ':
			hunk.Ops = append(hunk.Ops, Op{Marker: Context, Text: line[1:]})
		case line[0] == '-':
			hunk.Ops = append(hunk.Ops, Op{Marker: Delete, Text: line[1:]})
		case line[0] == '+':
			hunk.Ops = append(hunk.Ops, Op{Marker: Insert, Text: line[1:]})
		default:
			hunk.Ops = append(hunk.Ops, Op{Marker: Context, Text: line})
		}
	}
	flushFile()

	if len(diffs) == 0 {
		return nil, errors.New("no file sections found")
	}
	return diffs, nil
}

// ApplyLoose applies loosely-parsed hunks to the files under root, ignoring
// hunk header numbers entirely and locating each hunk by its content. A file
// is rewritten only if at least one of its hunks anchored and replayed; the
// patch as a whole succeeds only if at least one file produced a write.
func ApplyLoose(root string, diffs []LooseFileDiff) ([]RewrittenFile, error) {
	var out []RewrittenFile
	var errs error
	for _, fd := range diffs {
		target := workspace.CleanPatchPath(fd.NewPath)
		if target == "" {
			continue
		}
		rw, err := applyLooseFile(root, target, fd)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", target, err))
			continue
		}
		if rw != nil {
			out = append(out, *rw)
		}
	}
	if len(out) == 0 {
		if errs != nil {
			return nil, errs
		}
		return nil, errors.New("no hunks produced output")
	}
	return out, nil
}

func applyLooseFile(root, target string, fd LooseFileDiff) (*RewrittenFile, error) {
	srcPath := fd.OldPath
	if workspace.CleanPatchPath(srcPath) == "" {
		srcPath = fd.NewPath
	}
	original, err := readOriginal(root, srcPath)
	if err != nil {
		return nil, err
	}
	buf, trailing := splitLines(original)

	cursor := 0
	applied := 0
	for hi, h := range fd.Hunks {
		pattern, hasEdit, allDelete := hunkShape(h)
		if !hasEdit {
			// Pure-context hunks change nothing.
			continue
		}

		start, ok := findPattern(buf, pattern, cursor)
		if !ok {
			start, ok = findBySimilarity(buf, pattern, cursor)
		}
		if !ok {
			if !allDelete {
				return nil, fmt.Errorf("hunk %d: could not locate expected content", hi+1)
			}
			// Nothing to anchor a pure-delete hunk to; replay from the
			// cursor and let the unmatched deletes be skipped.
			start = cursor
		}
		if start > len(buf) {
			start = len(buf)
		}

		segment, consumed := replayLoose(buf, start, h.Ops)
		rebuilt := make([]string, 0, len(buf)-consumed+len(segment))
		rebuilt = append(rebuilt, buf[:start]...)
		rebuilt = append(rebuilt, segment...)
		rebuilt = append(rebuilt, buf[start+consumed:]...)
		buf = rebuilt
		cursor = start + len(segment)
		applied++
	}

	if applied == 0 {
		return nil, nil
	}
	return &RewrittenFile{
		Path:    target,
		Content: joinLines(buf, trailing || original == ""),
	}, nil
}

// hunkShape extracts the expected-to-exist content (context + delete texts)
// and classifies the hunk: hasEdit is false for pure-context no-ops, and
// allDelete marks hunks that may replay unanchored.
func hunkShape(h LooseHunk) (pattern []string, hasEdit, allDelete bool) {
	allDelete = len(h.Ops) > 0
	for _, op := range h.Ops {
		switch op.Marker {
		case Context:
			pattern = append(pattern, op.Text)
			allDelete = false
		case Delete:
			pattern = append(pattern, op.Text)
			hasEdit = true
		case Insert:
			hasEdit = true
			allDelete = false
		}
	}
	return pattern, hasEdit, allDelete
}

// findPattern locates pattern's start in buf, searching [cursor, end) first
// and then [0, end), under each comparator of the cascade in turn.
func findPattern(buf, pattern []string, cursor int) (int, bool) {
	if len(pattern) == 0 {
		if cursor > len(buf) {
			cursor = len(buf)
		}
		return cursor, true
	}
	for _, eq := range lineComparators {
		if idx := searchFrom(buf, pattern, cursor, eq); idx >= 0 {
			return idx, true
		}
		if idx := searchFrom(buf, pattern, 0, eq); idx >= 0 {
			return idx, true
		}
	}
	return 0, false
}

func searchFrom(buf, pattern []string, from int, eq func(a, b string) bool) int {
	if from < 0 {
		from = 0
	}
	for i := from; i+len(pattern) <= len(buf); i++ {
		match := true
		for j := range pattern {
			if !eq(buf[i+j], pattern[j]) {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// findBySimilarity scores every window of pattern's length from just before
// the cursor to the end of the buffer and accepts the best one that clears
// the length-dependent threshold.
func findBySimilarity(buf, pattern []string, cursor int) (int, bool) {
	n := len(pattern)
	if n == 0 || n > len(buf) {
		return 0, false
	}
	lo := cursor - similaritySpan
	if lo < 0 {
		lo = 0
	}
	joined := strings.Join(pattern, "\n")
	best, bestAt := 0.0, -1
	for i := lo; i <= len(buf)-n; i++ {
		r := similarityRatio(joined, strings.Join(buf[i:i+n], "\n"))
		if r > best {
			best, bestAt = r, i
		}
	}
	if bestAt >= 0 && best >= similarityThreshold(n) {
		return bestAt, true
	}
	return 0, false
}

// similarityThreshold scales the acceptance bar by pattern length: small
// differences swing the ratio harder on short patterns, so they get a lower
// bar.
func similarityThreshold(patternLen int) float64 {
	switch {
	case patternLen > 10:
		return 0.9
	case patternLen >= 7:
		return 0.85
	default:
		return 0.8
	}
}

// similarityRatio scores two strings with difflib's SequenceMatcher over
// their characters, bounded [0, 1].
func similarityRatio(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	return difflib.NewMatcher(charSeq(a), charSeq(b)).Ratio()
}

func charSeq(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

// replayLoose replays a hunk's ops against buf from the anchor. Context and
// delete lines search forward through any run of blank filler lines for an
// equivalent line; matched context copies through, matched delete is omitted.
// A delete whose line cannot be found in that local scan is silently skipped
// so existing content is never destroyed on a guess. Insert lines always
// emit. Returns the replacement segment and how many buf lines it consumed.
func replayLoose(buf []string, start int, ops []Op) (segment []string, consumed int) {
	src := start
	var out []string
	for _, op := range ops {
		switch op.Marker {
		case Insert:
			out = append(out, op.Text)
		case Context, Delete:
			matched := -1
			for j := src; j < len(buf); j++ {
				if linesEquivalent(buf[j], op.Text) {
					matched = j
					break
				}
				if strings.TrimSpace(buf[j]) != "" {
					break
				}
			}
			if matched < 0 {
				if op.Marker == Context {
					out = append(out, op.Text)
				}
				continue
			}
			// Blank filler between the cursor and the match is preserved.
			out = append(out, buf[src:matched]...)
			if op.Marker == Context {
				out = append(out, buf[matched])
			}
			src = matched + 1
		}
	}
	return out, src - start
}
