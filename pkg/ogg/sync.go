package ogg

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
)

// SyncOptions configures a SyncState.
type SyncOptions struct {
	// MaxGarbage is the number of consecutive bytes that may be skipped
	// before PageOut fails with ErrExcessiveGarbage. Zero means unlimited.
	MaxGarbage int

	// MaxBuffered caps the unconsumed bytes held by the SyncState. Write
	// returns ErrBackpressure once the cap is reached. Zero means
	// unlimited; smaller values are raised to MaxPageSize so a full page
	// always fits.
	MaxBuffered int
}

// SyncState manages the synchronization and page extraction from an Ogg bitstream.
//
// Bytes are appended with Write and pages extracted with PageOut. Garbage
// between pages is skipped and counted, never dropped silently.
type SyncState struct {
	buf  []byte
	pos  int
	base int64

	skipped      int
	lastSkipped  int
	totalSkipped int64

	maxGarbage  int
	maxBuffered int
	err         error
}

// NewSyncState creates a SyncState. Pass nil for default options.
func NewSyncState(opts *SyncOptions) *SyncState {
	s := &SyncState{}
	if opts != nil {
		s.maxGarbage = opts.MaxGarbage
		s.maxBuffered = opts.MaxBuffered
		if s.maxBuffered > 0 && s.maxBuffered < MaxPageSize {
			s.maxBuffered = MaxPageSize
		}
	}
	return s
}

// Reset discards all buffered data and counters.
func (s *SyncState) Reset() {
	s.base += int64(len(s.buf))
	s.buf = s.buf[:0]
	s.pos = 0
	s.skipped = 0
	s.lastSkipped = 0
	s.totalSkipped = 0
	s.err = nil
}

// Write appends data to the sync state.
//
// When MaxBuffered is set, Write accepts only what fits and returns the
// short count with ErrBackpressure; drain pages with PageOut and retry
// the remainder.
func (s *SyncState) Write(data []byte) (int, error) {
	n := len(data)
	if s.maxBuffered > 0 {
		room := s.maxBuffered - s.Buffered()
		if room <= 0 {
			return 0, ErrBackpressure
		}
		n = min(n, room)
	}
	s.buf = append(s.buf, data[:n]...)
	if n < len(data) {
		return n, ErrBackpressure
	}
	return n, nil
}

// Buffered returns the number of bytes written but not yet consumed.
func (s *SyncState) Buffered() int {
	return len(s.buf) - s.pos
}

// Offset returns the absolute stream offset of the read cursor.
func (s *SyncState) Offset() int64 {
	return s.base + int64(s.pos)
}

// Skipped returns the number of garbage bytes that preceded the page most
// recently returned by PageOut.
func (s *SyncState) Skipped() int {
	return s.lastSkipped
}

// Pending returns the number of garbage bytes skipped since the most
// recent page.
func (s *SyncState) Pending() int {
	return s.skipped
}

// TotalSkipped returns the number of garbage bytes skipped since creation
// or the last Reset.
func (s *SyncState) TotalSkipped() int64 {
	return s.totalSkipped
}

// PageOut attempts to extract a complete page from the sync state.
// Returns the page and nil error on success.
// Returns ErrNeedMore if more data is needed.
// Returns an *ExcessiveGarbageError once MaxGarbage is exceeded; the state
// then stays failed until Reset.
func (s *SyncState) PageOut() (*Page, error) {
	if s.err != nil {
		return nil, s.err
	}
	for {
		i := bytes.Index(s.buf[s.pos:], capturePattern)
		if i < 0 {
			// A capture pattern may straddle the next Write.
			keep := min(len(capturePattern)-1, s.Buffered())
			if err := s.skip(s.Buffered() - keep); err != nil {
				return nil, err
			}
			s.compact()
			return nil, ErrNeedMore
		}
		if err := s.skip(i); err != nil {
			return nil, err
		}

		page, n, err := ParsePage(s.buf, s.pos)
		if err == nil {
			s.pos += n
			s.lastSkipped = s.skipped
			s.skipped = 0
			s.compact()
			return page, nil
		}
		if errors.Is(err, ErrTruncated) {
			s.compact()
			return nil, ErrNeedMore
		}
		skip := 1
		var cpe *CorruptPageError
		if errors.As(err, &cpe) && cpe.Skip > 1 {
			skip = cpe.Skip
		}
		if err := s.skip(skip); err != nil {
			return nil, err
		}
	}
}

// Discard skips every buffered byte, counting it as garbage, and returns
// how many bytes were dropped. Call it at end of input so a trailing
// partial page shows up in Pending and TotalSkipped. The error is an
// *ExcessiveGarbageError when the drop exceeds MaxGarbage.
func (s *SyncState) Discard() (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	n := s.Buffered()
	err := s.skip(n)
	s.compact()
	return n, err
}

func (s *SyncState) skip(n int) error {
	if n <= 0 {
		return nil
	}
	s.pos += n
	s.skipped += n
	s.totalSkipped += int64(n)
	if s.maxGarbage > 0 && s.skipped > s.maxGarbage {
		s.err = &ExcessiveGarbageError{Skipped: s.skipped, Offset: s.Offset()}
		return s.err
	}
	return nil
}

// compact drops the consumed prefix of the buffer.
func (s *SyncState) compact() {
	if s.pos == 0 {
		return
	}
	n := copy(s.buf, s.buf[s.pos:])
	s.buf = s.buf[:n]
	s.base += int64(s.pos)
	s.pos = 0
}

// Decoder reads Ogg pages from an io.Reader.
type Decoder struct {
	// Logger is optional. If nil, uses slog.Default().
	Logger *slog.Logger

	r       io.Reader
	sync    *SyncState
	buf     []byte
	pending []byte
	eof     bool
}

// NewDecoder creates a new Ogg decoder. Pass nil for default options.
func NewDecoder(r io.Reader, opts *SyncOptions) *Decoder {
	return &Decoder{
		r:    r,
		sync: NewSyncState(opts),
		buf:  make([]byte, 4096),
	}
}

// Sync returns the underlying sync state, for garbage counters.
func (d *Decoder) Sync() *SyncState {
	return d.sync
}

// ReadPage reads the next page from the stream.
// It returns io.EOF once the reader is exhausted and no complete page
// remains; trailing bytes are discarded and counted as skipped.
func (d *Decoder) ReadPage() (*Page, error) {
	for {
		page, err := d.sync.PageOut()
		if err == nil {
			if n := d.sync.Skipped(); n > 0 {
				d.logger().Warn("ogg: skipped garbage before page",
					"bytes", n, "serial", page.Serial, "sequence", page.Sequence)
			}
			return page, nil
		}
		if !errors.Is(err, ErrNeedMore) {
			return nil, err
		}

		if len(d.pending) > 0 {
			n, werr := d.sync.Write(d.pending)
			d.pending = d.pending[n:]
			if werr != nil && !errors.Is(werr, ErrBackpressure) {
				return nil, werr
			}
			continue
		}
		if d.eof {
			offset := d.sync.Offset()
			n, derr := d.sync.Discard()
			if n > 0 {
				d.logger().Warn("ogg: discarding trailing bytes", "bytes", n, "offset", offset)
			}
			if derr != nil {
				return nil, derr
			}
			return nil, io.EOF
		}

		// Need more data
		n, rerr := d.r.Read(d.buf)
		d.pending = d.buf[:n]
		if rerr == io.EOF {
			d.eof = true
		} else if rerr != nil {
			return nil, rerr
		}
	}
}

func (d *Decoder) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}
