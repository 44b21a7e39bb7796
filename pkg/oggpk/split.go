package oggpk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/haivivi/oggmux/pkg/ogg"
)

// SplitOptions configures Split.
type SplitOptions struct {
	Sync *ogg.SyncOptions

	// Source is recorded in every dump header.
	Source string

	// Logger is optional. If nil, uses slog.Default().
	Logger *slog.Logger
}

// StreamSummary describes one dump written by Split.
type StreamSummary struct {
	Serial          uint32 `json:"serial" yaml:"serial"`
	Packets         int64  `json:"packets" yaml:"packets"`
	Ended           bool   `json:"ended" yaml:"ended"`
	Discontinuities int    `json:"discontinuities,omitempty" yaml:"discontinuities,omitempty"`
	Errors          int    `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// OpenFunc returns the destination for the dump of a serial.
type OpenFunc func(serial uint32) (io.WriteCloser, error)

type splitStream struct {
	wc      io.WriteCloser
	w       *Writer
	summary *StreamSummary
}

// Split demultiplexes the Ogg stream in r and writes the packets of each
// logical stream to its own dump, in order of discovery. Pages with a
// serial that already ended are counted as errors and dropped.
func Split(ctx context.Context, r io.Reader, open OpenFunc, opts *SplitOptions) ([]*StreamSummary, error) {
	if opts == nil {
		opts = &SplitOptions{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	dec := ogg.NewDecoder(r, opts.Sync)
	dec.Logger = logger
	m := ogg.NewMultiplexer(nil)
	streams := make(map[uint32]*splitStream)
	var order []*StreamSummary

	closeAll := func() error {
		var errs []error
		for serial, s := range streams {
			if err := s.wc.Close(); err != nil {
				errs = append(errs, fmt.Errorf("oggpk: close dump %08x: %w", serial, err))
			}
			delete(streams, serial)
		}
		return errors.Join(errs...)
	}

	for {
		if err := ctx.Err(); err != nil {
			closeAll()
			return order, err
		}
		page, err := dec.ReadPage()
		if err == io.EOF {
			break
		}
		if err != nil {
			closeAll()
			return order, err
		}

		for _, ev := range m.RoutePage(page) {
			s := streams[ev.Serial]
			switch ev.Type {
			case ogg.EventStreamDiscovered:
				wc, err := open(ev.Serial)
				if err != nil {
					closeAll()
					return order, err
				}
				w, err := NewWriter(wc, Header{Serial: ev.Serial, Source: opts.Source})
				if err != nil {
					wc.Close()
					closeAll()
					return order, err
				}
				sum := &StreamSummary{Serial: ev.Serial}
				streams[ev.Serial] = &splitStream{wc: wc, w: w, summary: sum}
				order = append(order, sum)
				logger.Debug("oggpk: stream discovered", "serial", ev.Serial)
			case ogg.EventPacket:
				if err := s.w.WritePacket(ev.Packet); err != nil {
					closeAll()
					return order, err
				}
				s.summary.Packets++
			case ogg.EventDiscontinuity:
				s.summary.Discontinuities++
				logger.Warn("oggpk: discontinuity", "serial", ev.Serial, "error", ev.Err)
			case ogg.EventStreamError:
				if s != nil {
					s.summary.Errors++
				}
				logger.Warn("oggpk: stream error", "serial", ev.Serial, "error", ev.Err)
			case ogg.EventStreamEnded:
				s.summary.Ended = true
				delete(streams, ev.Serial)
				if err := s.wc.Close(); err != nil {
					closeAll()
					return order, fmt.Errorf("oggpk: close dump %08x: %w", ev.Serial, err)
				}
				logger.Debug("oggpk: stream ended", "serial", ev.Serial, "packets", s.summary.Packets)
			}
		}
	}

	for serial := range streams {
		logger.Warn("oggpk: stream has no end of stream page", "serial", serial)
	}
	return order, closeAll()
}
