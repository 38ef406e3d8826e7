package uploader

import (
	"errors"
	"fmt"
)

// ConfigError indicates the storage backend is missing credentials or
// settings server-side. Deployment misconfiguration, never retried.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return e.Msg }

// ValidationError indicates the caller supplied malformed or missing
// required fields. Raised before any network call is attempted.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NotFoundError indicates an operation referenced an upload ID the backend
// no longer knows about, typically an expired session.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }

// TransportError is an HTTP or network failure during any phase. Status is
// zero when no response was received at all.
type TransportError struct {
	Status     int
	StatusText string
}

func (e *TransportError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("network failure: %s", e.StatusText)
	}
	return fmt.Sprintf("request failed (%d): %s", e.Status, e.StatusText)
}

// IntegrityError indicates the backend accepted a PUT but returned no
// integrity tag. A protocol violation, not a transient fault, so it is
// never retried.
type IntegrityError struct {
	Msg string
}

func (e *IntegrityError) Error() string { return e.Msg }

// SizeError indicates the file exceeds the configured upload limit.
type SizeError struct {
	Size  int64
	Limit int64
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("file size %d exceeds the %d byte upload limit", e.Size, e.Limit)
}

// Reason is the user-facing failure category callers map to remediation text.
type Reason string

const (
	ReasonConfig    Reason = "configuration"
	ReasonNetwork   Reason = "network"
	ReasonSizeLimit Reason = "size-limit"
	ReasonUnknown   Reason = "unknown"
)

// UploadError wraps the innermost cause of a failed upload together with its
// failure category.
type UploadError struct {
	Reason Reason
	Err    error
}

func (e *UploadError) Error() string {
	switch e.Reason {
	case ReasonConfig:
		return fmt.Sprintf("upload failed: storage backend is not configured (%v)", e.Err)
	case ReasonNetwork:
		return fmt.Sprintf("upload failed: network error (%v)", e.Err)
	case ReasonSizeLimit:
		return fmt.Sprintf("upload failed: file too large for current configuration (%v)", e.Err)
	}
	return fmt.Sprintf("upload failed: %v", e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

func newUploadError(err error) *UploadError {
	return &UploadError{Reason: classify(err), Err: err}
}

func classify(err error) Reason {
	var (
		configErr    *ConfigError
		transportErr *TransportError
		sizeErr      *SizeError
	)
	switch {
	case errors.As(err, &configErr):
		return ReasonConfig
	case errors.As(err, &transportErr):
		return ReasonNetwork
	case errors.As(err, &sizeErr):
		return ReasonSizeLimit
	}
	return ReasonUnknown
}
