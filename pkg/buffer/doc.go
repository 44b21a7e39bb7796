// Package buffer provides goroutine-safe queues for moving bytes between
// the container codec and its I/O.
//
//   - Buffer grows without bound. It holds encoded page bytes until the
//     caller reads them, and its TryRead never blocks.
//   - BlockBuffer has a fixed capacity and blocks writers while it is full.
//     Prefetch uses one to read an input ahead of the page scanner.
//
// Both support a graceful CloseWrite, after which reads drain the remaining
// data and then return io.EOF, and CloseWithError, which fails every
// pending and future call.
//
// Example:
//
//	in := buffer.Prefetch(ctx, f, 1<<16)
//	dec := ogg.NewDecoder(in, nil)
package buffer
