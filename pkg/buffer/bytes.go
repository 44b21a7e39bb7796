package buffer

import (
	"context"
	"io"
)

var (
	_ BytesBuffer = (*BlockBuffer[byte])(nil)
	_ BytesBuffer = (*Buffer[byte])(nil)
)

// BytesBuffer is the subset shared by the byte buffers.
type BytesBuffer interface {
	io.ReadWriteCloser
	CloseWrite() error
	CloseWithError(err error) error
	Error() error
	Len() int
}

// Bytes64KB creates a BlockBuffer with 64KB capacity.
func Bytes64KB() *BlockBuffer[byte] {
	return BlockN[byte](1 << 16)
}

// Bytes4KB creates a BlockBuffer with 4KB capacity.
func Bytes4KB() *BlockBuffer[byte] {
	return BlockN[byte](1 << 12)
}

// Bytes creates a growable Buffer with 1KB initial capacity.
func Bytes() *Buffer[byte] {
	return N[byte](1 << 10)
}

// Fill copies r into bb until r is exhausted and then closes the write
// side. Any other read error closes bb with that error, so the consumer
// sees it from Read.
func Fill(bb *BlockBuffer[byte], r io.Reader) (int64, error) {
	chunk := make([]byte, max(bb.Cap()/4, 512))
	var total int64
	for {
		n, rerr := r.Read(chunk)
		if n > 0 {
			wn, werr := bb.Write(chunk[:n])
			total += int64(wn)
			if werr != nil {
				return total, werr
			}
		}
		if rerr == io.EOF {
			return total, bb.CloseWrite()
		}
		if rerr != nil {
			bb.CloseWithError(rerr)
			return total, rerr
		}
	}
}

// Prefetch reads r ahead of the consumer in a separate goroutine, holding
// at most size bytes. Cancelling ctx closes the returned buffer with the
// context error.
func Prefetch(ctx context.Context, r io.Reader, size int) *BlockBuffer[byte] {
	bb := BlockN[byte](size)
	done := make(chan struct{})
	go func() {
		defer close(done)
		Fill(bb, r)
	}()
	go func() {
		select {
		case <-ctx.Done():
			bb.CloseWithError(ctx.Err())
		case <-done:
		}
	}()
	return bb
}
