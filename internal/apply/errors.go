package apply

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies application failures for the caller's retry and reporting
// decisions.
type Kind int

const (
	// KindControlCharacter - disallowed control bytes survived sanitization.
	KindControlCharacter Kind = iota

	// KindToolTimeout - the external apply tool exceeded its deadline.
	KindToolTimeout

	// KindDryRunRejected - the dry run failed and fallback was disabled or
	// the diagnostic did not look recoverable.
	KindDryRunRejected

	// KindFallbackExhausted - every fallback strategy declined.
	KindFallbackExhausted

	// KindRealApplyFailed - the dry run passed but the real apply did not;
	// the working tree changed underneath us.
	KindRealApplyFailed
)

func (k Kind) String() string {
	switch k {
	case KindControlCharacter:
		return "control_character"
	case KindToolTimeout:
		return "tool_timeout"
	case KindDryRunRejected:
		return "dry_run_rejected"
	case KindFallbackExhausted:
		return "fallback_exhausted"
	case KindRealApplyFailed:
		return "real_apply_failed"
	default:
		return "unknown"
	}
}

// Error is the typed failure result of an Apply call. Stdout and Stderr carry
// the external tool's diagnostics when they exist.
type Error struct {
	Kind    Kind
	Message string
	Stdout  string
	Stderr  string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Kind, e.Message)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if d := strings.TrimSpace(e.Stderr); d != "" {
		fmt.Fprintf(&b, " (%s)", d)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the failure kind from err, if it is (or wraps) an *Error.
func KindOf(err error) (Kind, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind, true
	}
	return 0, false
}

// ControlCharacterError reports diff text that still contains disallowed
// control bytes after ANSI stripping.
func ControlCharacterError(msg string) *Error {
	return &Error{Kind: KindControlCharacter, Message: msg}
}

// ToolTimeoutError reports an external tool invocation that was killed.
func ToolTimeoutError(err error) *Error {
	return &Error{Kind: KindToolTimeout, Message: "external apply tool timed out", Err: err}
}

// DryRunRejectedError reports a dry run failure that fallback cannot (or may
// not) recover from.
func DryRunRejectedError(stdout, stderr string) *Error {
	return &Error{Kind: KindDryRunRejected, Message: "dry-run apply rejected the patch", Stdout: stdout, Stderr: stderr}
}

// FallbackExhaustedError reports that every fallback strategy declined. The
// original dry-run diagnostic is preserved alongside the strategy errors.
func FallbackExhaustedError(err error, stdout, stderr string) *Error {
	return &Error{Kind: KindFallbackExhausted, Message: "all fallback strategies declined", Stdout: stdout, Stderr: stderr, Err: err}
}

// RealApplyFailedError reports a real apply that failed after a clean dry
// run.
func RealApplyFailedError(stdout, stderr string) *Error {
	return &Error{Kind: KindRealApplyFailed, Message: "apply failed after successful dry run", Stdout: stdout, Stderr: stderr}
}
