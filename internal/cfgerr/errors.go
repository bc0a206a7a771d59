// Package cfgerr holds the typed errors surfaced through the scanner's
// ERROR token channel. It mirrors the error taxonomy a caller needs to
// decide whether a failure is fatal, the same way the rest of this
// repository attaches structured context to a plain error instead of
// returning a bare string.
package cfgerr

import (
	"fmt"
	"time"
)

// Kind classifies a scan-time failure. It does not imply severity —
// the caller decides whether to keep pulling tokens after seeing one.
type Kind string

const (
	KindGarbage    Kind = "garbage"
	KindNumeric    Kind = "numeric"
	KindInclude    Kind = "include"
	KindCycle      Kind = "cycle"
	KindDirectory  Kind = "directory"
	KindUnterminated Kind = "unterminated"
)

// ScanError is the concrete type behind ERROR tokens for lexing
// failures (malformed numbers, unterminated lexemes). Include failures
// surface as IncludeError, CycleError or DirectoryError instead. It
// carries enough context to stamp an `{error_text, error_file,
// error_line}` triple on the external error channel (§7 of the scanner
// spec).
type ScanError struct {
	Kind       Kind
	File       string
	Line       int
	Underlying error
	// Suggestion holds a "did you mean" hint when one is attached with
	// WithSuggestion. The include stack attaches its hints to
	// IncludeError, so ScanErrors from the scanner leave this empty.
	Suggestion string
	Timestamp  time.Time
}

// New creates a ScanError stamped with the current position.
func New(kind Kind, file string, line int, err error) *ScanError {
	return &ScanError{
		Kind:       kind,
		File:       file,
		Line:       line,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// WithSuggestion attaches a "did you mean" hint and returns the receiver
// for chaining at the call site.
func (e *ScanError) WithSuggestion(s string) *ScanError {
	e.Suggestion = s
	return e
}

// Error implements the error interface.
func (e *ScanError) Error() string {
	base := fmt.Sprintf("%s:%d: %s: %v", e.File, e.Line, e.Kind, e.Underlying)
	if e.Suggestion != "" {
		return base + fmt.Sprintf(" (did you mean %q?)", e.Suggestion)
	}
	return base
}

// Unwrap supports errors.Is/errors.As against the underlying cause.
func (e *ScanError) Unwrap() error {
	return e.Underlying
}

// IncludeError wraps a failure resolving or opening an @include or
// @include_dir target — not found, permission denied, not a regular
// file or symlink. A detected cycle is reported as CycleError instead.
type IncludeError struct {
	Path       string
	Directive  string // "include" or "include_dir"
	Underlying error
	// Suggestion holds a "did you mean" hint produced by
	// internal/suggest, when available.
	Suggestion string
}

func NewIncludeError(directive, path string, err error) *IncludeError {
	return &IncludeError{Directive: directive, Path: path, Underlying: err}
}

// WithSuggestion attaches a "did you mean" hint and returns the
// receiver for chaining at the call site.
func (e *IncludeError) WithSuggestion(s string) *IncludeError {
	e.Suggestion = s
	return e
}

func (e *IncludeError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("@%s %q failed: %v (did you mean %q?)", e.Directive, e.Path, e.Underlying, e.Suggestion)
	}
	return fmt.Sprintf("@%s %q failed: %v", e.Directive, e.Path, e.Underlying)
}

func (e *IncludeError) Unwrap() error {
	return e.Underlying
}

// CycleError reports an include cycle: path already present on the
// include stack when a push was attempted.
type CycleError struct {
	Path  string
	Chain []string // stack of paths, root first, that led to the cycle
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("include cycle detected: %q already on include stack (chain: %v)", e.Path, e.Chain)
}

// DirectoryError reports a failure enumerating an @include_dir target.
type DirectoryError struct {
	Path       string
	Underlying error
}

func NewDirectoryError(path string, err error) *DirectoryError {
	return &DirectoryError{Path: path, Underlying: err}
}

func (e *DirectoryError) Error() string {
	return fmt.Sprintf("directory scan failed for %q: %v", e.Path, e.Underlying)
}

func (e *DirectoryError) Unwrap() error {
	return e.Underlying
}
