package types

import (
	"errors"
	"fmt"
)

// ClientInputError reports a request the caller can fix. Handlers map it
// to a 400 response.
type ClientInputError struct {
	Reason string
}

func (e *ClientInputError) Error() string {
	return e.Reason
}

// UpstreamError wraps a failure from a service this process depends on
// but does not control. Handlers map it to a 500 response.
type UpstreamError struct {
	Op  string // parse, embed, upsert, search, complete
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func NewUpstreamError(op string, err error) error {
	return &UpstreamError{Op: op, Err: err}
}

// BatchUpsertError reports how much of an ingestion landed in the vector
// store before a batch failed.
type BatchUpsertError struct {
	Stored    int
	Attempted int
	Err       error
}

func (e *BatchUpsertError) Error() string {
	return fmt.Sprintf("stored %d of %d chunks: %v", e.Stored, e.Attempted, e.Err)
}

func (e *BatchUpsertError) Unwrap() error {
	return e.Err
}

var (
	ErrMissingQuestion  = &ClientInputError{Reason: "question is required"}
	ErrMissingNamespace = &ClientInputError{Reason: "namespace is required"}
	ErrMissingFile      = &ClientInputError{Reason: "pdf file is required"}
)

// IsClientInput reports whether err originates from bad caller input
// rather than an upstream failure.
func IsClientInput(err error) bool {
	var ce *ClientInputError
	return errors.As(err, &ce)
}
