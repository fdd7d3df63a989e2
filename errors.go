package nuxt

import (
	"errors"
	"fmt"
)

// ErrMalformedInput indicates that the top-level payload is not a flat cell
// array, or that the declared root index does not exist.
var ErrMalformedInput = errors.New("malformed nuxt payload")

// ReferenceOutOfRangeError is returned when a reference names a cell index
// outside the payload. It aborts the whole run: an index pointing nowhere
// means the encoding is corrupt or incompatible, not locally recoverable.
type ReferenceOutOfRangeError struct {
	Index int
	Len   int
}

func (e *ReferenceOutOfRangeError) Error() string {
	return fmt.Sprintf("reference index %d out of range for payload of %d cells", e.Index, e.Len)
}

// GraphTooLargeError is returned when a payload declares more cells than the
// ceiling configured with [WithMaxCells]. It is raised before any hydration
// work starts.
type GraphTooLargeError struct {
	Cells int
	Limit int
}

func (e *GraphTooLargeError) Error() string {
	return fmt.Sprintf("payload declares %d cells, exceeding the limit of %d", e.Cells, e.Limit)
}

// DecodeFailure records a recognized special-type payload that could not be
// decoded. The offending node degrades to nil and the run continues; failures
// are collected on the [Result] instead of aborting.
type DecodeFailure struct {
	Index  int
	Tag    string
	Detail string
}

func (f DecodeFailure) Error() string {
	return fmt.Sprintf("decode %s payload at cell %d: %s", f.Tag, f.Index, f.Detail)
}

// Warning records a special tag that is not recognized by this decoder. The
// cell is hydrated as a plain object instead, keeping the run forward
// compatible with newer serializers.
type Warning struct {
	Index int
	Tag   string
}

func (w Warning) String() string {
	return fmt.Sprintf("unsupported special tag %s at cell %d, hydrated as plain object", w.Tag, w.Index)
}
