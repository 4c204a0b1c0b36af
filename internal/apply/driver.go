package apply

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kvit-s/patchfix/internal/diff"
	"github.com/kvit-s/patchfix/internal/logging"
	"github.com/kvit-s/patchfix/internal/workspace"
)

// fallbackWorthy lists git-apply diagnostics that mean the patch text itself
// is the problem, which the fallback chain knows how to recover from.
// Anything else (permissions, locks, repo corruption) is a hard failure.
var fallbackWorthy = []string{
	"corrupt patch",
	"malformed patch",
	"patch fragment without header",
	"patch with only garbage",
	"unrecognized input",
	"no valid patches in input",
	"does not exist in index",
	"no such file or directory",
	"patch does not apply",
	"already exists in working directory",
}

// Driver owns one application attempt: sanitize, normalize, drive the
// external tool, and fall back to the internal strategies when the dry run
// fails recoverably. A Driver holds no per-call state; each Apply call owns
// an independent working tree.
type Driver struct {
	tool          Tool
	log           *logging.Logger
	allowFallback bool
}

// Result reports what an Apply call wrote and how.
type Result struct {
	// Files are the workspace-relative paths the call touched.
	Files []string
	// FallbackUsed is true when the writes came from the internal fallback
	// chain instead of the external tool.
	FallbackUsed bool
	// Strategy names the fallback strategy that produced the writes, empty
	// when the external tool applied the patch.
	Strategy string
	// Diffs holds a rendered unified diff per fallback-written file, for
	// caller observability. Empty on the external tool path.
	Diffs []string
}

// NewDriver wires a Driver. A nil logger is replaced with a no-op one.
func NewDriver(tool Tool, log *logging.Logger, allowFallback bool) *Driver {
	if log == nil {
		log = logging.Nop()
	}
	return &Driver{tool: tool, log: log, allowFallback: allowFallback}
}

// Apply takes raw diff text and mutates the tree under root accordingly. The
// text is sanitized and normalized, dry-run through the external tool, then
// either applied for real or recovered through the fallback chain. No partial
// success is ever reported as success.
func (d *Driver) Apply(ctx context.Context, root, raw string) (*Result, error) {
	text, strip, norm, err := d.prepare(raw)
	if err != nil {
		return nil, err
	}

	dry, err := d.run(ctx, text, root, strip, true)
	if err != nil {
		return nil, err
	}

	if dry.ExitCode == 0 {
		real, err := d.run(ctx, text, root, strip, false)
		if err != nil {
			return nil, err
		}
		if real.ExitCode != 0 {
			d.log.Error("real apply failed after clean dry run", nil)
			return nil, RealApplyFailedError(real.Stdout, real.Stderr)
		}
		return &Result{Files: diffTargets(text)}, nil
	}

	if !d.allowFallback || !isFallbackWorthy(dry.Stdout+"\n"+dry.Stderr) {
		return nil, DryRunRejectedError(dry.Stdout, dry.Stderr)
	}

	files, strategy, ferr := diff.Fallback(root, text, norm.UntrustworthyHeaders)
	if ferr != nil {
		return nil, FallbackExhaustedError(ferr, dry.Stdout, dry.Stderr)
	}

	result := &Result{FallbackUsed: true, Strategy: strategy}
	for _, f := range files {
		full, err := workspace.Resolve(root, f.Path)
		if err != nil {
			return nil, fmt.Errorf("fallback write: %w", err)
		}
		original := ""
		if data, err := os.ReadFile(full); err == nil {
			original = string(data)
		}
		if err := workspace.WriteFileAtomic(full, f.Content); err != nil {
			return nil, fmt.Errorf("fallback write %s: %w", f.Path, err)
		}
		result.Files = append(result.Files, f.Path)
		if rendered, err := renderUnifiedDiff(original, f.Content, f.Path); err == nil && rendered != "" {
			result.Diffs = append(result.Diffs, rendered)
		}
	}
	d.log.FallbackUsed(strategy, len(result.Files))
	return result, nil
}

// Check runs only the sanitize/normalize/dry-run part of the pipeline and
// reports whether the external tool would accept the patch as-is.
func (d *Driver) Check(ctx context.Context, root, raw string) (bool, ExecResult, error) {
	text, strip, _, err := d.prepare(raw)
	if err != nil {
		return false, ExecResult{}, err
	}
	dry, err := d.run(ctx, text, root, strip, true)
	if err != nil {
		return false, dry, err
	}
	return dry.ExitCode == 0, dry, nil
}

func (d *Driver) prepare(raw string) (text string, strip int, norm diff.Result, err error) {
	clean, err := Sanitize(raw)
	if err != nil {
		return "", 0, diff.Result{}, err
	}
	norm = diff.Normalize(clean)
	d.log.Normalized(norm.UntrustworthyHeaders, len(norm.Text))
	return norm.Text, detectStripDepth(norm.Text), norm, nil
}

func (d *Driver) run(ctx context.Context, text, root string, strip int, dryRun bool) (ExecResult, error) {
	started := time.Now()
	res, err := d.tool.Run(ctx, []byte(text), root, strip, dryRun)
	d.log.ToolRun(dryRun, strip, res.ExitCode, time.Since(started))
	return res, err
}

// detectStripDepth decides the -p value for the external tool: git-style
// diffs carry a/ and b/ prefixes and need one component stripped, plain
// headers need none.
func detectStripDepth(text string) int {
	if strings.Contains(text, "--- a/") || strings.Contains(text, "diff --git ") {
		return 1
	}
	return 0
}

func isFallbackWorthy(diagnostic string) bool {
	diagnostic = strings.ToLower(diagnostic)
	for _, pattern := range fallbackWorthy {
		if strings.Contains(diagnostic, pattern) {
			return true
		}
	}
	return false
}

// diffTargets lists the cleaned target paths named by a diff's +++ headers,
// used to report what the external tool touched.
func diffTargets(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, line := range strings.Split(text, "\n") {
		if !strings.HasPrefix(line, "+++ ") {
			continue
		}
		p := workspace.CleanPatchPath(strings.TrimPrefix(line, "+++ "))
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
