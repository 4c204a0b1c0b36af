package diff

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseLoose_ToleratesGarbageAndScopeHeaders(t *testing.T) {
	text := "Here is the change you asked for:\n" +
		"--- a/calc.py\n" +
		"+++ b/calc.py\n" +
		"@@ def add():\n" +
		"-    return a - b\n" +
		"+    return a + b\n"

	diffs, err := ParseLoose(text)
	if err != nil {
		t.Fatalf("ParseLoose: %v", err)
	}
	if len(diffs) != 1 || len(diffs[0].Hunks) != 1 {
		t.Fatalf("diffs = %+v", diffs)
	}
	h := diffs[0].Hunks[0]
	if h.Header != "@@ def add():" {
		t.Errorf("header = %q", h.Header)
	}
	if len(h.Ops) != 2 {
		t.Errorf("got %d ops, want 2", len(h.Ops))
	}
}

func TestParseLoose_UnmarkedLinesBecomeContext(t *testing.T) {
	text := "--- a/f.txt\n" +
		"+++ b/f.txt\n" +
		"@@ -1,2 +1,2 @@\n" +
		"bare context\n" +
		"-old\n" +
		"+new\n"

	diffs, err := ParseLoose(text)
	if err != nil {
		t.Fatalf("ParseLoose: %v", err)
	}
	ops := diffs[0].Hunks[0].Ops
	if ops[0].Marker != Context || ops[0].Text != "bare context" {
		t.Errorf("ops[0] = %+v", ops[0])
	}
}

func TestParseLoose_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"no sections", "nothing resembling a diff\n"},
		{"missing new header", "--- a/f.txt\n-old\n+new\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseLoose(tt.text); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestApplyLoose_WhitespaceDrift(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "calc.py", "def add(a, b):\n    return a - b\n")

	// The delete line's indentation does not match the file; the collapsed
	// comparator must still anchor the hunk.
	text := "--- a/calc.py\n" +
		"+++ b/calc.py\n" +
		"@@ -1,2 +1,2 @@\n" +
		" def add(a, b):\n" +
		"-  return a - b\n" +
		"+    return a + b\n"

	diffs, err := ParseLoose(text)
	if err != nil {
		t.Fatalf("ParseLoose: %v", err)
	}
	files, err := ApplyLoose(root, diffs)
	if err != nil {
		t.Fatalf("ApplyLoose: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("got %d files, want 1", len(files))
	}
	want := "def add(a, b):\n    return a + b\n"
	if files[0].Content != want {
		t.Errorf("content = %q, want %q", files[0].Content, want)
	}
}

func TestApplyLoose_SimilarityAnchorSkipsUnmatchedDelete(t *testing.T) {
	root := t.TempDir()
	original := strings.Join([]string{
		"alpha beta gamma one",
		"alpha beta gamma two",
		"alpha beta gamma three",
		"alpha beta gamma four",
		"alpha beta gamma five",
		"tail line",
	}, "\n") + "\n"
	writeTestFile(t, root, "notes.txt", original)

	// The delete line never existed; the four context lines anchor the hunk
	// by similarity and the delete is skipped without destroying anything.
	text := "--- a/notes.txt\n" +
		"+++ b/notes.txt\n" +
		"@@ -1,5 +1,5 @@\n" +
		" alpha beta gamma one\n" +
		" alpha beta gamma two\n" +
		" alpha beta gamma three\n" +
		" alpha beta gamma four\n" +
		"-zz\n" +
		"+patched line\n"

	diffs, err := ParseLoose(text)
	if err != nil {
		t.Fatalf("ParseLoose: %v", err)
	}
	files, err := ApplyLoose(root, diffs)
	if err != nil {
		t.Fatalf("ApplyLoose: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("got %d files, want 1", len(files))
	}
	content := files[0].Content
	if !strings.Contains(content, "patched line\n") {
		t.Errorf("insert missing from content:\n%s", content)
	}
	if !strings.Contains(content, "alpha beta gamma five\n") {
		t.Errorf("unrelated line destroyed:\n%s", content)
	}
	if !strings.Contains(content, "tail line\n") {
		t.Errorf("tail lost:\n%s", content)
	}
}

func TestApplyLoose_PureDeleteHunkNeverFailsHard(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "f.txt", "x\ny\n")

	text := "--- a/f.txt\n" +
		"+++ b/f.txt\n" +
		"@@ -1,1 +0,0 @@\n" +
		"-no such line\n"

	diffs, err := ParseLoose(text)
	if err != nil {
		t.Fatalf("ParseLoose: %v", err)
	}
	files, err := ApplyLoose(root, diffs)
	if err != nil {
		t.Fatalf("ApplyLoose: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("got %d files, want 1", len(files))
	}
	if files[0].Content != "x\ny\n" {
		t.Errorf("content = %q, want unchanged", files[0].Content)
	}
}

func TestApplyLoose_PureContextHunksAreNoOps(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "f.txt", "a\nb\n")

	text := "--- a/f.txt\n" +
		"+++ b/f.txt\n" +
		"@@ -1,2 +1,2 @@\n" +
		" a\n" +
		" b\n"

	diffs, err := ParseLoose(text)
	if err != nil {
		t.Fatalf("ParseLoose: %v", err)
	}
	if _, err := ApplyLoose(root, diffs); err == nil {
		t.Error("expected error when no hunk produces output")
	}
}

func TestApplyLoose_NewFileFromInsertsOnly(t *testing.T) {
	root := t.TempDir()
	text := "--- /dev/null\n" +
		"+++ b/fresh.txt\n" +
		"@@ -0,0 +1,2 @@\n" +
		"+hello\n" +
		"+world\n"

	diffs, err := ParseLoose(text)
	if err != nil {
		t.Fatalf("ParseLoose: %v", err)
	}
	files, err := ApplyLoose(root, diffs)
	if err != nil {
		t.Fatalf("ApplyLoose: %v", err)
	}
	if len(files) != 1 || files[0].Path != "fresh.txt" {
		t.Fatalf("files = %+v", files)
	}
	if files[0].Content != "hello\nworld\n" {
		t.Errorf("content = %q", files[0].Content)
	}
}

func TestApplyLoose_PartialFileFailureStillWrites(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "good.txt", "old line\nkeep\n")
	writeTestFile(t, root, "bad.txt", "completely unrelated\n")

	text := "--- a/good.txt\n" +
		"+++ b/good.txt\n" +
		"@@ -1,2 +1,2 @@\n" +
		"-old line\n" +
		"+new line\n" +
		" keep\n" +
		"--- a/bad.txt\n" +
		"+++ b/bad.txt\n" +
		"@@ -1,1 +1,1 @@\n" +
		"-line that matches nothing at all\n" +
		"+replacement\n"

	diffs, err := ParseLoose(text)
	if err != nil {
		t.Fatalf("ParseLoose: %v", err)
	}
	files, err := ApplyLoose(root, diffs)
	if err != nil {
		t.Fatalf("ApplyLoose: %v", err)
	}
	if len(files) != 1 || files[0].Path != "good.txt" {
		t.Fatalf("files = %+v", files)
	}
	if files[0].Content != "new line\nkeep\n" {
		t.Errorf("content = %q", files[0].Content)
	}
}

func TestApplyLoose_ForwardSearchFromCursor(t *testing.T) {
	root := t.TempDir()
	writeTestFile(t, root, "dup.txt", "a\nb\na\nb\n")

	// Identical hunks must consume successive occurrences, not both hit the
	// first one.
	text := "--- a/dup.txt\n" +
		"+++ b/dup.txt\n" +
		"@@ -1,1 +1,1 @@\n" +
		"-a\n" +
		"+A1\n" +
		"@@ -3,1 +3,1 @@\n" +
		"-a\n" +
		"+A2\n"

	diffs, err := ParseLoose(text)
	if err != nil {
		t.Fatalf("ParseLoose: %v", err)
	}
	files, err := ApplyLoose(root, diffs)
	if err != nil {
		t.Fatalf("ApplyLoose: %v", err)
	}
	if files[0].Content != "A1\nb\nA2\nb\n" {
		t.Errorf("content = %q", files[0].Content)
	}
}

func TestReplayLoose(t *testing.T) {
	tests := []struct {
		name         string
		buf          []string
		ops          []Op
		wantSegment  []string
		wantConsumed int
	}{
		{
			name: "blank filler preserved",
			buf:  []string{"start", "", "", "end"},
			ops: []Op{
				{Marker: Context, Text: "start"},
				{Marker: Delete, Text: "end"},
				{Marker: Insert, Text: "finish"},
			},
			wantSegment:  []string{"start", "", "", "finish"},
			wantConsumed: 4,
		},
		{
			name: "unmatched delete skipped",
			buf:  []string{"keep"},
			ops: []Op{
				{Marker: Delete, Text: "missing"},
				{Marker: Insert, Text: "new"},
			},
			wantSegment:  []string{"new"},
			wantConsumed: 0,
		},
		{
			name: "unmatched context emitted",
			buf:  []string{"other"},
			ops: []Op{
				{Marker: Context, Text: "ghost"},
			},
			wantSegment:  []string{"ghost"},
			wantConsumed: 0,
		},
		{
			name: "matched delete omitted",
			buf:  []string{"a", "b", "c"},
			ops: []Op{
				{Marker: Context, Text: "a"},
				{Marker: Delete, Text: "b"},
				{Marker: Context, Text: "c"},
			},
			wantSegment:  []string{"a", "c"},
			wantConsumed: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segment, consumed := replayLoose(tt.buf, 0, tt.ops)
			if !reflect.DeepEqual(segment, tt.wantSegment) {
				t.Errorf("segment = %v, want %v", segment, tt.wantSegment)
			}
			if consumed != tt.wantConsumed {
				t.Errorf("consumed = %d, want %d", consumed, tt.wantConsumed)
			}
		})
	}
}

func TestSimilarityThreshold(t *testing.T) {
	tests := []struct {
		n    int
		want float64
	}{
		{1, 0.8},
		{6, 0.8},
		{7, 0.85},
		{10, 0.85},
		{11, 0.9},
	}
	for _, tt := range tests {
		if got := similarityThreshold(tt.n); got != tt.want {
			t.Errorf("similarityThreshold(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
}

func TestSimilarityRatio(t *testing.T) {
	if r := similarityRatio("same", "same"); r != 1 {
		t.Errorf("identical strings: ratio = %v, want 1", r)
	}
	if r := similarityRatio("", "anything"); r != 0 {
		t.Errorf("empty string: ratio = %v, want 0", r)
	}
	if r := similarityRatio("abcdef", "abcdxf"); r < 0.7 {
		t.Errorf("near-identical strings: ratio = %v, want high", r)
	}
	if r := similarityRatio("aaaa", "zzzz"); r > 0.2 {
		t.Errorf("disjoint strings: ratio = %v, want low", r)
	}
}
