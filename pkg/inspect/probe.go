// Package inspect scans Ogg files: Probe summarizes the logical streams
// of a physical stream and Repair rewrites it without the damage.
package inspect

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/haivivi/oggmux/pkg/ogg"
)

// Options configures Probe and Repair.
type Options struct {
	Sync *ogg.SyncOptions

	// Logger is optional. If nil, uses slog.Default().
	Logger *slog.Logger
}

func (o *Options) logger() *slog.Logger {
	if o != nil && o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o *Options) sync() *ogg.SyncOptions {
	if o == nil {
		return nil
	}
	return o.Sync
}

// StreamReport summarizes one logical stream.
type StreamReport struct {
	Serial          uint32 `json:"serial" yaml:"serial" msgpack:"serial"`
	Pages           int64  `json:"pages" yaml:"pages" msgpack:"pages"`
	Packets         int64  `json:"packets" yaml:"packets" msgpack:"packets"`
	PacketBytes     int64  `json:"packet_bytes" yaml:"packet_bytes" msgpack:"packet_bytes"`
	FirstGranule    int64  `json:"first_granule" yaml:"first_granule" msgpack:"first_granule"`
	LastGranule     int64  `json:"last_granule" yaml:"last_granule" msgpack:"last_granule"`
	BOS             bool   `json:"bos" yaml:"bos" msgpack:"bos"`
	EOS             bool   `json:"eos" yaml:"eos" msgpack:"eos"`
	Discontinuities int    `json:"discontinuities" yaml:"discontinuities" msgpack:"discontinuities"`
	Errors          int    `json:"errors" yaml:"errors" msgpack:"errors"`
	LastError       string `json:"last_error,omitempty" yaml:"last_error,omitempty" msgpack:"last_error,omitempty"`
}

// Healthy reports whether the stream was complete and undamaged.
func (s *StreamReport) Healthy() bool {
	return s.BOS && s.EOS && s.Discontinuities == 0 && s.Errors == 0
}

// Report summarizes a physical stream.
type Report struct {
	Source       string          `json:"source,omitempty" yaml:"source,omitempty" msgpack:"source,omitempty"`
	Bytes        int64           `json:"bytes" yaml:"bytes" msgpack:"bytes"`
	Pages        int64           `json:"pages" yaml:"pages" msgpack:"pages"`
	SkippedBytes int64           `json:"skipped_bytes" yaml:"skipped_bytes" msgpack:"skipped_bytes"`
	Streams      []*StreamReport `json:"streams" yaml:"streams" msgpack:"streams"`

	// Fatal is set when scanning stopped early on unrecoverable garbage.
	Fatal string `json:"fatal,omitempty" yaml:"fatal,omitempty" msgpack:"fatal,omitempty"`
}

// Healthy reports whether every stream is healthy and nothing was skipped.
func (r *Report) Healthy() bool {
	if r.Fatal != "" || r.SkippedBytes > 0 {
		return false
	}
	for _, s := range r.Streams {
		if !s.Healthy() {
			return false
		}
	}
	return true
}

// Stream returns the report for serial.
func (r *Report) Stream(serial uint32) (*StreamReport, bool) {
	for _, s := range r.Streams {
		if s.Serial == serial {
			return s, true
		}
	}
	return nil, false
}

// Probe reads r to the end and reports on its logical streams. Excessive
// garbage ends the scan early and is recorded in Report.Fatal; read errors
// and cancellation are returned.
func Probe(ctx context.Context, r io.Reader, opts *Options) (*Report, error) {
	logger := opts.logger()
	dec := ogg.NewDecoder(r, opts.sync())
	dec.Logger = logger
	m := ogg.NewMultiplexer(nil)

	rep := &Report{}
	streams := make(map[uint32]*StreamReport)

	for {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		page, err := dec.ReadPage()
		if err == io.EOF {
			break
		}
		if errors.Is(err, ogg.ErrExcessiveGarbage) {
			rep.Fatal = err.Error()
			logger.Warn("inspect: scan stopped", "error", err, "offset", dec.Sync().Offset())
			break
		}
		if err != nil {
			return rep, err
		}
		rep.Pages++

		for _, ev := range m.RoutePage(page) {
			s := streams[ev.Serial]
			switch ev.Type {
			case ogg.EventStreamDiscovered:
				s = &StreamReport{Serial: ev.Serial, FirstGranule: -1, LastGranule: -1}
				streams[ev.Serial] = s
				rep.Streams = append(rep.Streams, s)
			case ogg.EventPage:
				if s.Pages == 0 {
					s.BOS = ev.Page.BOS()
				}
				s.Pages++
				if g := ev.Page.GranulePos; g != -1 {
					if s.FirstGranule == -1 {
						s.FirstGranule = g
					}
					s.LastGranule = g
				}
			case ogg.EventPacket:
				s.Packets++
				s.PacketBytes += int64(ev.Packet.Bytes())
			case ogg.EventDiscontinuity:
				s.Discontinuities++
			case ogg.EventStreamError:
				s.Errors++
				s.LastError = ev.Err.Error()
			case ogg.EventStreamEnded:
				s.EOS = true
			}
		}
	}

	rep.SkippedBytes = dec.Sync().TotalSkipped()
	rep.Bytes = dec.Sync().Offset() + int64(dec.Sync().Buffered())
	return rep, nil
}
