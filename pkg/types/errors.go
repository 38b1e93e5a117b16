// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

// Skip reasons recorded by the repository walker. They never abort a walk.
var (
	ErrFileIgnored  = errors.New("ignored by filter")
	ErrFileTooLarge = errors.New("file exceeds size limit")
	ErrFileBinary   = errors.New("binary content")
)

// UnsupportedSourceError reports a reference that is neither a usable URL
// nor an existing local directory or PDF.
type UnsupportedSourceError struct {
	Reference string
	Reason    string
}

func (e *UnsupportedSourceError) Error() string {
	return fmt.Sprintf("unsupported source %q: %s", e.Reference, e.Reason)
}

// ExtractionEmptyError reports that main-content isolation produced no text.
type ExtractionEmptyError struct {
	Source string
}

func (e *ExtractionEmptyError) Error() string {
	return fmt.Sprintf("no content extracted from %s", e.Source)
}

// PdfCorruptError reports bytes that cannot be parsed as a PDF.
type PdfCorruptError struct {
	Source string
	Err    error
}

func (e *PdfCorruptError) Error() string {
	return fmt.Sprintf("corrupt PDF %s: %v", e.Source, e.Err)
}

func (e *PdfCorruptError) Unwrap() error { return e.Err }

// NetworkError wraps a failed request to a remote collaborator.
type NetworkError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("network error for %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("network error for %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// TimeoutError wraps a collaborator call that exceeded its deadline.
type TimeoutError struct {
	Op  string
	Err error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out: %v", e.Op, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// CloneError wraps a failed repository checkout.
type CloneError struct {
	Repo string
	Err  error
}

func (e *CloneError) Error() string {
	return fmt.Sprintf("cloning %s: %v", e.Repo, e.Err)
}

func (e *CloneError) Unwrap() error { return e.Err }
