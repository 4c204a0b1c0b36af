package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Color definitions for consistent UI
var (
	grayColor    = color.New(color.FgWhite, color.Faint)
	errorColor   = color.New(color.FgRed)
	warnColor    = color.New(color.FgYellow)
	successColor = color.New(color.FgGreen)
)

// Writer provides formatted output with consistent prefixes and optional
// colors.
type Writer struct {
	quiet  bool
	stderr io.Writer
}

// NewWriter creates a Writer. When quiet is true everything but errors is
// suppressed.
func NewWriter(quiet bool) *Writer {
	return &Writer{quiet: quiet, stderr: os.Stderr}
}

// Info prints an info message with [info] prefix in gray.
func (w *Writer) Info(format string, args ...any) {
	if w.quiet {
		return
	}
	grayColor.Fprintf(w.stderr, "[info] "+format+"\n", args...)
}

// Warn prints a warning message with [warn] prefix in yellow.
func (w *Writer) Warn(format string, args ...any) {
	if w.quiet {
		return
	}
	warnColor.Fprintf(w.stderr, "[warn] "+format+"\n", args...)
}

// Error prints an error message with [error] prefix in red.
func (w *Writer) Error(format string, args ...any) {
	errorColor.Fprintf(w.stderr, "[error] "+format+"\n", args...)
}

// Success prints a success message in green.
func (w *Writer) Success(format string, args ...any) {
	if w.quiet {
		return
	}
	successColor.Fprintf(w.stderr, format+"\n", args...)
}

// Plain prints an uncolored message to stderr.
func (w *Writer) Plain(format string, args ...any) {
	if w.quiet {
		return
	}
	fmt.Fprintf(w.stderr, format+"\n", args...)
}
