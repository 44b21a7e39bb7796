package ogg

import (
	"errors"
	"fmt"
)

var (
	// ErrNeedMore indicates more data is needed. It is a control signal,
	// not a failure: call again once more bytes have been written.
	ErrNeedMore = errors.New("ogg: need more data")
	// ErrTruncated indicates the buffer ends before the declared page does.
	ErrTruncated = errors.New("ogg: truncated page")
	// ErrNotAPage indicates the capture pattern is missing at the offset.
	ErrNotAPage = errors.New("ogg: capture pattern not found")
	// ErrCorruptPage indicates a checksum or structural mismatch.
	ErrCorruptPage = errors.New("ogg: corrupt page")
	// ErrInvalidPage indicates a page that cannot be serialized.
	ErrInvalidPage = errors.New("ogg: invalid page structure")
	// ErrDiscontinuity indicates a gap in page sequence numbers.
	ErrDiscontinuity = errors.New("ogg: page sequence discontinuity")
	// ErrCorruptStream indicates inconsistent continuation flags.
	ErrCorruptStream = errors.New("ogg: corrupt stream")
	// ErrStreamClosed indicates use of a logical stream after end of stream.
	ErrStreamClosed = errors.New("ogg: stream already closed")
	// ErrExcessiveGarbage indicates too many consecutive unparseable bytes.
	ErrExcessiveGarbage = errors.New("ogg: excessive garbage")
	// ErrBackpressure indicates the caller must drain output before
	// providing more input.
	ErrBackpressure = errors.New("ogg: backpressure")
	// ErrSerialMismatch indicates a page routed to the wrong logical stream.
	ErrSerialMismatch = errors.New("ogg: serial number mismatch")
	// ErrUnknownStream indicates no logical stream has the given serial.
	ErrUnknownStream = errors.New("ogg: unknown stream")
)

// CorruptPageError reports a candidate page that failed validation.
// Skip is the number of bytes a scanner must discard before searching
// again; it is always at least 1.
type CorruptPageError struct {
	Offset int
	Skip   int
	Reason string
}

func (e *CorruptPageError) Error() string {
	return fmt.Sprintf("ogg: corrupt page at offset %d: %s", e.Offset, e.Reason)
}

func (e *CorruptPageError) Is(target error) bool {
	return target == ErrCorruptPage
}

// DiscontinuityError reports missing pages in a logical stream.
// It is recoverable; packets extracted alongside it are valid.
type DiscontinuityError struct {
	Serial   uint32
	Expected uint32
	Got      uint32
}

func (e *DiscontinuityError) Error() string {
	return fmt.Sprintf("ogg: stream %08x: page sequence discontinuity: expected %d, got %d",
		e.Serial, e.Expected, e.Got)
}

func (e *DiscontinuityError) Is(target error) bool {
	return target == ErrDiscontinuity
}

// StreamError attaches a serial number to a per-stream failure.
type StreamError struct {
	Serial uint32
	Err    error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("ogg: stream %08x: %v", e.Serial, e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

// ExcessiveGarbageError is terminal for a physical stream: the input is
// either not Ogg data or catastrophically corrupted.
type ExcessiveGarbageError struct {
	// Skipped is the number of consecutive bytes skipped.
	Skipped int
	// Offset is the absolute stream offset where scanning stopped.
	Offset int64
}

func (e *ExcessiveGarbageError) Error() string {
	return fmt.Sprintf("ogg: excessive garbage: %d bytes skipped without a valid page (offset %d)",
		e.Skipped, e.Offset)
}

func (e *ExcessiveGarbageError) Is(target error) bool {
	return target == ErrExcessiveGarbage
}
