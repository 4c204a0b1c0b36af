package diff

import "testing"

func TestDetectFullRewrite(t *testing.T) {
	text := "--- a/one.go\n" +
		"+++ b/one.go\n" +
		"@@ -0,0 +1,3 @@\n" +
		"+package one\n" +
		"+\n" +
		"+var X = 1\n" +
		"--- /dev/null\n" +
		"+++ b/two.go\n" +
		"@@ -0,0 +1,1 @@\n" +
		"+package two\n"

	diffs, err := ParseLoose(text)
	if err != nil {
		t.Fatalf("ParseLoose: %v", err)
	}
	files := DetectFullRewrite(diffs)
	if len(files) != 2 {
		t.Fatalf("got %d files, want 2", len(files))
	}
	if files[0].Path != "one.go" || files[0].Content != "package one\n\nvar X = 1\n" {
		t.Errorf("file[0] = %+v", files[0])
	}
	if files[1].Path != "two.go" || files[1].Content != "package two\n" {
		t.Errorf("file[1] = %+v", files[1])
	}
}

func TestDetectFullRewrite_ContextCountsAsContent(t *testing.T) {
	text := "--- a/f.txt\n" +
		"+++ b/f.txt\n" +
		"@@ -1,1 +1,2 @@\n" +
		" existing\n" +
		"+added\n"

	diffs, err := ParseLoose(text)
	if err != nil {
		t.Fatalf("ParseLoose: %v", err)
	}
	files := DetectFullRewrite(diffs)
	if len(files) != 1 {
		t.Fatalf("got %d files, want 1", len(files))
	}
	if files[0].Content != "existing\nadded\n" {
		t.Errorf("content = %q", files[0].Content)
	}
}

func TestDetectFullRewrite_AnyDeleteDisqualifiesWholeDiff(t *testing.T) {
	// The first section is a clean rewrite, but the delete in the second
	// section must disqualify both: strategies never mix across files.
	text := "--- /dev/null\n" +
		"+++ b/one.txt\n" +
		"@@ -0,0 +1,1 @@\n" +
		"+fresh content\n" +
		"--- a/two.txt\n" +
		"+++ b/two.txt\n" +
		"@@ -1,1 +1,1 @@\n" +
		"-old\n" +
		"+new\n"

	diffs, err := ParseLoose(text)
	if err != nil {
		t.Fatalf("ParseLoose: %v", err)
	}
	if files := DetectFullRewrite(diffs); files != nil {
		t.Errorf("expected nil for a diff containing deletes, got %+v", files)
	}
}

func TestDetectFullRewrite_SkipsEmptyTargets(t *testing.T) {
	diffs := []LooseFileDiff{
		{OldPath: "a/x", NewPath: "/dev/null", Hunks: []LooseHunk{
			{Header: "@@ -0,0 +0,0 @@"},
		}},
		{OldPath: "/dev/null", NewPath: "b/kept.txt", Hunks: []LooseHunk{
			{Header: "@@ -0,0 +1,1 @@", Ops: []Op{{Marker: Insert, Text: "hello"}}},
		}},
	}
	files := DetectFullRewrite(diffs)
	if len(files) != 1 || files[0].Path != "kept.txt" {
		t.Errorf("files = %+v", files)
	}
}
