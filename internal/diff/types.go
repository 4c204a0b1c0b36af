package diff

// Marker classifies a single line within a hunk body.
type Marker byte

const (
	Context Marker = ' '
	Delete  Marker = '-'
	Insert  Marker = '+'
)

// Op is one line of a hunk body: its marker and the text with the marker
// stripped.
type Op struct {
	Marker Marker
	Text   string
}

// Hunk is a strictly-parsed change region whose numeric header fields are
// trusted for positional replay.
type Hunk struct {
	OldStart int
	OldLen   int
	NewStart int
	NewLen   int
	Ops      []Op
}

// FileDiff groups the hunks that target a single file.
type FileDiff struct {
	OldPath string
	NewPath string
	Hunks   []Hunk
}

// LooseHunk records a hunk purely structurally. The header text is kept only
// for diagnostics; its numbers are never trusted.
type LooseHunk struct {
	Header string
	Ops    []Op
}

// LooseFileDiff is the loose-parsed counterpart of FileDiff.
type LooseFileDiff struct {
	OldPath string
	NewPath string
	Hunks   []LooseHunk
}

// RewrittenFile is one pending write produced by an applier: the
// workspace-relative target path and its complete new content. Appliers never
// touch the filesystem themselves; the caller commits the writes.
type RewrittenFile struct {
	Path    string
	Content string
}
