package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks across the engine.
var (
	ErrNotFound   = errors.New("workflow not found")
	ErrValidation = errors.New("validation failed")
	ErrAnalysis   = errors.New("workflow analysis failed")
	ErrStorage    = errors.New("storage operation failed")
	ErrFileSystem = errors.New("file system error")
)

// AnalysisError reports a document that could not be analyzed. Per-document
// and recoverable: an indexing run records it and continues.
type AnalysisError struct {
	Filename string
	Line     int // 0 when no location hint is available
	Err      error
}

func (e *AnalysisError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("analysis of %s failed at line %d: %v", e.Filename, e.Line, e.Err)
	}
	return fmt.Sprintf("analysis of %s failed: %v", e.Filename, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

func (e *AnalysisError) Is(target error) bool { return target == ErrAnalysis }

// StorageError reports a failed index store operation. Fatal during
// initialization, operation-scoped afterwards.
type StorageError struct {
	Op  string // "open", "migrate", "upsert", "search", ...
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// ValidationError rejects malformed input before it reaches storage.
type ValidationError struct {
	Field string
	Rule  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Rule)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// FileSystemError reports an unreadable document root or file. Fatal for a
// reindex run, non-fatal for serving already-indexed queries.
type FileSystemError struct {
	Path string
	Err  error
}

func (e *FileSystemError) Error() string {
	return fmt.Sprintf("file system error at %s: %v", e.Path, e.Err)
}

func (e *FileSystemError) Unwrap() error { return e.Err }

func (e *FileSystemError) Is(target error) bool { return target == ErrFileSystem }
