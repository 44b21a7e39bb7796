package oggpk

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/haivivi/oggmux/pkg/ogg"
)

// JoinOptions configures Join.
type JoinOptions struct {
	Muxer *ogg.MuxerOptions

	// Rand feeds serial generation for sources with NewSerial set.
	Rand io.Reader

	// Logger is optional. If nil, uses slog.Default().
	Logger *slog.Logger
}

// Source is one logical stream to mux.
type Source struct {
	// Name identifies the source in errors.
	Name string

	Reader *Reader

	// Serial overrides the serial from the dump header when non-nil.
	Serial *uint32

	// NewSerial picks a fresh random serial instead.
	NewSerial bool
}

// JoinSummary describes the output of Join.
type JoinSummary struct {
	Pages   int64             `json:"pages" yaml:"pages"`
	Bytes   int64             `json:"bytes" yaml:"bytes"`
	Serials map[string]uint32 `json:"serials" yaml:"serials"`
}

type joinStream struct {
	src    Source
	serial uint32
	next   *ogg.Packet
}

// read returns the next packet, marking the last one of the dump as end
// of stream.
func (s *joinStream) read() (*ogg.Packet, error) {
	if s.next == nil {
		p, err := s.src.Reader.ReadPacket()
		if err != nil {
			return nil, err
		}
		s.next = p
	}
	p := s.next
	s.next = nil
	if p.EOS {
		return p, nil
	}
	n, err := s.src.Reader.ReadPacket()
	switch {
	case err == io.EOF:
		p.EOS = true
	case err != nil:
		return nil, err
	default:
		s.next = n
	}
	return p, nil
}

// Join muxes the sources into one physical Ogg stream written to w. The
// beginning of stream pages of all sources come first; after that the
// sources take turns, each contributing the pages completed by its next
// packets.
func Join(ctx context.Context, w io.Writer, sources []Source, opts *JoinOptions) (*JoinSummary, error) {
	if opts == nil {
		opts = &JoinOptions{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m := ogg.NewMultiplexer(&ogg.MultiplexerOptions{Rand: opts.Rand, Muxer: opts.Muxer})
	sum := &JoinSummary{Serials: make(map[string]uint32)}

	used := make(map[uint32]string)
	active := make([]*joinStream, 0, len(sources))
	for _, src := range sources {
		var mx *ogg.Muxer
		var err error
		switch {
		case src.NewSerial:
			mx, err = m.NewStream()
		default:
			serial := src.Reader.Header().Serial
			if src.Serial != nil {
				serial = *src.Serial
			}
			if other, ok := used[serial]; ok {
				return nil, fmt.Errorf("oggpk: %s: serial %08x already used by %s", src.Name, serial, other)
			}
			mx, err = m.Stream(serial)
		}
		if err != nil {
			return nil, fmt.Errorf("oggpk: %s: %w", src.Name, err)
		}
		used[mx.Serial()] = src.Name
		sum.Serials[src.Name] = mx.Serial()
		active = append(active, &joinStream{src: src, serial: mx.Serial()})
		logger.Debug("oggpk: joining stream", "source", src.Name, "serial", mx.Serial())
	}

	var buf []byte
	writePages := func(pages []*ogg.Page) error {
		for _, p := range pages {
			var err error
			buf, err = p.AppendTo(buf[:0])
			if err != nil {
				return err
			}
			if _, err := w.Write(buf); err != nil {
				return err
			}
			sum.Pages++
			sum.Bytes += int64(len(buf))
		}
		return nil
	}

	for len(active) > 0 {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		remaining := active[:0]
		for _, s := range active {
			pages, done, err := s.step(m)
			if err != nil {
				return sum, fmt.Errorf("oggpk: %s: %w", s.src.Name, err)
			}
			if err := writePages(pages); err != nil {
				return sum, err
			}
			if !done {
				remaining = append(remaining, s)
			}
		}
		active = remaining
	}
	return sum, nil
}

// step feeds packets until the stream yields pages or runs out.
func (s *joinStream) step(m *ogg.Multiplexer) ([]*ogg.Page, bool, error) {
	mx, err := m.Stream(s.serial)
	if err != nil {
		return nil, false, err
	}
	for {
		p, err := s.read()
		if err == io.EOF {
			// An empty dump produces no pages.
			pages, ferr := m.Flush(s.serial)
			return pages, true, ferr
		}
		if err != nil {
			return nil, false, err
		}
		if err := mx.PacketIn(*p); err != nil {
			return nil, false, err
		}
		if p.EOS {
			pages, err := m.Flush(s.serial)
			return pages, true, err
		}
		pages, err := m.PageOut(s.serial)
		if err != nil {
			return nil, false, err
		}
		if len(pages) > 0 {
			return pages, false, nil
		}
	}
}
