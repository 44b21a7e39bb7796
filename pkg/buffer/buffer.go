package buffer

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// ErrEmpty is returned by TryRead when no data is queued.
var ErrEmpty = errors.New("buffer: empty")

// ErrIteratorDone is returned by Next once the buffer is closed for writing
// and drained.
var ErrIteratorDone = errors.New("iterator done")

// Buffer is a growable FIFO queue. Writes never block; Read blocks while the
// buffer is empty and TryRead does not.
//
// The zero value is not usable; create one with N or Bytes.
type Buffer[T any] struct {
	writeNotify chan struct{}

	mu         sync.Mutex
	closeWrite bool
	closeErr   error
	buf        []T
}

// N creates a Buffer with an initial capacity of n elements.
func N[T any](n int) *Buffer[T] {
	return &Buffer[T]{
		writeNotify: make(chan struct{}, 1),
		buf:         make([]T, 0, n),
	}
}

// Write appends p to the buffer. It fails only once the buffer is closed.
func (b *Buffer[T]) Write(p []T) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.writableLocked(); err != nil {
		return 0, err
	}
	b.buf = append(b.buf, p...)
	b.notifyLocked()
	return len(p), nil
}

// Add appends a single element.
func (b *Buffer[T]) Add(t T) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.writableLocked(); err != nil {
		return err
	}
	b.buf = append(b.buf, t)
	b.notifyLocked()
	return nil
}

// Read copies queued elements into p, blocking until at least one is
// available. It returns io.EOF once the buffer is closed for writing and
// drained.
func (b *Buffer[T]) Read(p []T) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.waitLocked(); err != nil {
		return 0, err
	}
	return b.takeLocked(p), nil
}

// TryRead is Read without blocking. It returns ErrEmpty when nothing is
// queued and the buffer is still open for writing.
func (b *Buffer[T]) TryRead(p []T) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closeErr != nil {
		return 0, fmt.Errorf("buffer: read from closed buffer: %w", b.closeErr)
	}
	if len(b.buf) == 0 {
		if b.closeWrite {
			return 0, io.EOF
		}
		return 0, ErrEmpty
	}
	return b.takeLocked(p), nil
}

// Next removes and returns the oldest element, blocking while the buffer is
// empty.
func (b *Buffer[T]) Next() (t T, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err = b.waitLocked(); err != nil {
		if err == io.EOF {
			err = ErrIteratorDone
		}
		return
	}
	t = b.buf[0]
	var zero T
	b.buf[0] = zero
	b.buf = b.buf[1:]
	return t, nil
}

// Discard drops up to n queued elements.
func (b *Buffer[T]) Discard(n int) (err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closeErr != nil {
		return fmt.Errorf("buffer: skip from closed buffer: %w", b.closeErr)
	}
	b.buf = b.buf[min(n, len(b.buf)):]
	return nil
}

func (b *Buffer[T]) waitLocked() error {
	if b.closeErr != nil {
		return fmt.Errorf("buffer: read from closed buffer: %w", b.closeErr)
	}
	for len(b.buf) == 0 {
		if b.closeWrite {
			return io.EOF
		}
		b.mu.Unlock()
		<-b.writeNotify
		b.mu.Lock()
		if b.closeErr != nil {
			return fmt.Errorf("buffer: read from closed buffer: %w", b.closeErr)
		}
	}
	return nil
}

func (b *Buffer[T]) takeLocked(p []T) int {
	n := copy(p, b.buf)
	b.buf = b.buf[n:]
	return n
}

func (b *Buffer[T]) writableLocked() error {
	if b.closeErr != nil {
		return fmt.Errorf("buffer: write to closed buffer: %w", b.closeErr)
	}
	if b.closeWrite {
		return fmt.Errorf("buffer: write to closed buffer: %w", io.ErrClosedPipe)
	}
	return nil
}

func (b *Buffer[T]) notifyLocked() {
	select {
	case b.writeNotify <- struct{}{}:
	default:
	}
}

// CloseWithError closes both ends. Pending and future calls fail with err,
// or io.ErrClosedPipe if err is nil.
func (b *Buffer[T]) CloseWithError(err error) error {
	if err == nil {
		err = io.ErrClosedPipe
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closeErr != nil {
		return nil
	}
	b.closeErr = err
	b.buf = nil
	if !b.closeWrite {
		b.closeWrite = true
		close(b.writeNotify)
	}
	return nil
}

// Error returns the error the buffer was closed with, if any.
func (b *Buffer[T]) Error() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closeErr
}

// Close is CloseWithError(io.ErrClosedPipe).
func (b *Buffer[T]) Close() error {
	return b.CloseWithError(io.ErrClosedPipe)
}

// CloseWrite stops further writes. Queued data can still be read; after
// that Read returns io.EOF.
func (b *Buffer[T]) CloseWrite() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closeWrite {
		return nil
	}
	b.closeWrite = true
	close(b.writeNotify)
	return nil
}

// Reset drops all queued data. It does not reopen a closed buffer.
func (b *Buffer[T]) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = b.buf[:0]
}

// Len returns the number of queued elements.
func (b *Buffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buf)
}

// Bytes returns the queued elements without consuming them. The slice
// aliases the buffer and is only valid until the next write or read.
func (b *Buffer[T]) Bytes() []T {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf
}
