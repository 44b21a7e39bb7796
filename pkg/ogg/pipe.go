package ogg

import (
	"errors"
	"log/slog"

	"github.com/haivivi/oggmux/pkg/buffer"
)

// PipeOptions configures a Pipe.
type PipeOptions struct {
	// Sync configures the page scanner for the decode direction.
	Sync *SyncOptions

	// Multiplexer configures stream routing and serial generation.
	Multiplexer *MultiplexerOptions

	// MaxPending caps the encoded bytes waiting to be Read. Submit,
	// PageOut and Flush return ErrBackpressure while the cap is reached.
	// Zero means unlimited.
	MaxPending int

	// MaxQueued caps the packet bytes a stream holds before they are
	// paged. Submit returns ErrBackpressure once a stream's queue reaches
	// it; a single packet larger than the cap is still accepted into an
	// empty queue. Zero means unlimited.
	MaxQueued int

	// Logger is optional. If nil, uses slog.Default().
	Logger *slog.Logger
}

// Pipe is the byte-stream boundary of the container. Raw bytes go in
// through Feed and come back as events; packets go in through Submit and
// come back as page bytes through Read. A Pipe never does I/O itself.
type Pipe struct {
	sync       *SyncState
	mux        *Multiplexer
	out        *buffer.Buffer[byte]
	scratch    []byte
	maxPending int
	maxQueued  int
	logger     *slog.Logger
	err        error
}

// NewPipe creates a Pipe. Pass nil for default options.
func NewPipe(opts *PipeOptions) *Pipe {
	if opts == nil {
		opts = &PipeOptions{}
	}
	p := &Pipe{
		sync:       NewSyncState(opts.Sync),
		mux:        NewMultiplexer(opts.Multiplexer),
		out:        buffer.Bytes(),
		maxPending: opts.MaxPending,
		maxQueued:  opts.MaxQueued,
		logger:     opts.Logger,
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Multiplexer returns the stream router shared by both directions.
func (p *Pipe) Multiplexer() *Multiplexer {
	return p.mux
}

// Sync returns the page scanner, for garbage counters.
func (p *Pipe) Sync() *SyncState {
	return p.sync
}

// --- Decoding ---

// Feed consumes raw bytes and returns the events of every page completed
// by them. An ExcessiveGarbage error is terminal: the Pipe rejects all
// further input.
func (p *Pipe) Feed(data []byte) ([]Event, error) {
	if p.err != nil {
		return nil, p.err
	}
	var events []Event
	for {
		n, err := p.sync.Write(data)
		data = data[n:]
		if err != nil && !errors.Is(err, ErrBackpressure) {
			return events, err
		}
		for {
			page, err := p.sync.PageOut()
			if errors.Is(err, ErrNeedMore) {
				break
			}
			if err != nil {
				p.err = err
				p.logger.Error("ogg: giving up on physical stream", "error", err)
				return events, err
			}
			if skipped := p.sync.Skipped(); skipped > 0 {
				p.logger.Warn("ogg: resynchronized", "skipped", skipped, "serial", page.Serial)
			}
			evs := p.mux.RoutePage(page)
			p.logEvents(evs)
			events = append(events, evs...)
		}
		if len(data) == 0 {
			return events, nil
		}
	}
}

func (p *Pipe) logEvents(events []Event) {
	for _, e := range events {
		switch e.Type {
		case EventStreamDiscovered, EventStreamEnded:
			p.logger.Debug("ogg: "+e.Type.String(), "serial", e.Serial)
		case EventDiscontinuity, EventStreamError:
			p.logger.Warn("ogg: "+e.Type.String(), "serial", e.Serial, "error", e.Err)
		}
	}
}

// --- Encoding ---

// Open creates an encoding stream with the given serial.
func (p *Pipe) Open(serial uint32) error {
	_, err := p.mux.Stream(serial)
	return err
}

// OpenRandom creates an encoding stream with a fresh random serial.
func (p *Pipe) OpenRandom() (uint32, error) {
	mx, err := p.mux.NewStream()
	if err != nil {
		return 0, err
	}
	return mx.Serial(), nil
}

// Submit queues a packet on an open stream. The data is copied.
// It returns ErrBackpressure, queueing nothing, while encoded output
// waits to be Read beyond MaxPending or the stream already holds
// MaxQueued bytes; drain with PageOut, Flush and Read, then retry.
func (p *Pipe) Submit(serial uint32, data []byte, granulePos int64, eos bool) error {
	mx, err := p.mux.muxer(serial)
	if err != nil {
		return err
	}
	if err := p.checkPending(); err != nil {
		return err
	}
	if p.maxQueued > 0 && mx.Queued() >= p.maxQueued {
		return ErrBackpressure
	}
	return mx.PacketIn(Packet{Data: data, GranulePos: granulePos, EOS: eos})
}

// PageOut encodes the full pages of a stream into the output buffer and
// returns how many were produced.
func (p *Pipe) PageOut(serial uint32) (int, error) {
	if err := p.checkPending(); err != nil {
		return 0, err
	}
	pages, err := p.mux.PageOut(serial)
	if err != nil {
		return 0, err
	}
	return len(pages), p.writePages(pages)
}

// Flush encodes every queued packet of a stream into the output buffer
// and returns how many pages were produced.
func (p *Pipe) Flush(serial uint32) (int, error) {
	if err := p.checkPending(); err != nil {
		return 0, err
	}
	pages, err := p.mux.Flush(serial)
	if err != nil {
		return 0, err
	}
	return len(pages), p.writePages(pages)
}

// Pending returns the number of encoded bytes waiting to be Read.
func (p *Pipe) Pending() int {
	return p.out.Len()
}

// Read copies encoded page bytes into b. It never blocks: with nothing
// pending it returns ErrNeedMore.
func (p *Pipe) Read(b []byte) (int, error) {
	n, err := p.out.TryRead(b)
	if errors.Is(err, buffer.ErrEmpty) {
		return 0, ErrNeedMore
	}
	return n, err
}

func (p *Pipe) checkPending() error {
	if p.maxPending > 0 && p.out.Len() >= p.maxPending {
		return ErrBackpressure
	}
	return nil
}

func (p *Pipe) writePages(pages []*Page) error {
	for _, pg := range pages {
		var err error
		p.scratch, err = pg.AppendTo(p.scratch[:0])
		if err != nil {
			return err
		}
		if _, err := p.out.Write(p.scratch); err != nil {
			return err
		}
	}
	return nil
}
