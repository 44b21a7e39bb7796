package inspect

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/haivivi/oggmux/pkg/ogg"
)

// RepairOptions configures Repair.
type RepairOptions struct {
	Options

	// Renumber rewrites page sequence numbers so that each logical stream
	// is gapless.
	Renumber bool
}

// RepairReport describes what Repair changed.
type RepairReport struct {
	PagesIn      int64 `json:"pages_in" yaml:"pages_in"`
	PagesOut     int64 `json:"pages_out" yaml:"pages_out"`
	DroppedPages int64 `json:"dropped_pages" yaml:"dropped_pages"`
	TrimmedPages int64 `json:"trimmed_pages" yaml:"trimmed_pages"`
	SkippedBytes int64 `json:"skipped_bytes" yaml:"skipped_bytes"`
	Renumbered   int64 `json:"renumbered" yaml:"renumbered"`
	BytesOut     int64 `json:"bytes_out" yaml:"bytes_out"`
}

// repairStream is the per-serial state of Repair.
type repairStream struct {
	// held are written pages whose last packet is not finished yet.
	held []*ogg.Page
	// orphan is set while input continues a packet whose start was lost.
	orphan  bool
	seen    bool
	nextSeq uint32
}

// Repair copies the valid pages of r to w. Garbage and corrupt pages are
// skipped, pages after end of stream are dropped, and with Renumber set the
// sequence numbers of each stream are made contiguous again.
//
// A page ending in an unfinished packet is held until a later page finishes
// it. When the stream breaks first (a lost page or a page that does not
// continue the packet), the unfinished tail is cut from the held page and
// the pages carrying only that tail are dropped. Likewise the leading bytes
// of a page that continue a lost packet are cut.
func Repair(ctx context.Context, r io.Reader, w io.Writer, opts *RepairOptions) (*RepairReport, error) {
	if opts == nil {
		opts = &RepairOptions{}
	}
	logger := opts.logger()
	dec := ogg.NewDecoder(r, opts.sync())
	dec.Logger = logger
	m := ogg.NewMultiplexer(nil)

	rep := &RepairReport{}
	streams := make(map[uint32]*repairStream)
	var order []uint32
	var buf []byte

	write := func(st *repairStream, page *ogg.Page) error {
		if opts.Renumber {
			if st.seen && page.Sequence != st.nextSeq {
				page.Sequence = st.nextSeq
				rep.Renumbered++
			}
			st.seen = true
			st.nextSeq = page.Sequence + 1
		}
		var err error
		buf, err = page.AppendTo(buf[:0])
		if err != nil {
			return err
		}
		n, err := w.Write(buf)
		rep.BytesOut += int64(n)
		if err != nil {
			return err
		}
		rep.PagesOut++
		return nil
	}

	release := func(st *repairStream) error {
		for _, p := range st.held {
			if err := write(st, p); err != nil {
				return err
			}
		}
		st.held = nil
		return nil
	}

	abandon := func(st *repairStream) error {
		if len(st.held) == 0 {
			return nil
		}
		first := st.held[0]
		rep.DroppedPages += int64(len(st.held) - 1)
		st.held = nil
		logger.Warn("inspect: cutting unfinished packet", "serial", first.Serial, "sequence", first.Sequence)
		first = trimPage(first, 0, trailingPartial(first))
		if first == nil {
			rep.DroppedPages++
			return nil
		}
		rep.TrimmedPages++
		return write(st, first)
	}

	for {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		page, err := dec.ReadPage()
		if err == io.EOF {
			break
		}
		if err != nil {
			rep.SkippedBytes = dec.Sync().TotalSkipped()
			return rep, err
		}
		rep.PagesIn++

		st, ok := streams[page.Serial]
		if !ok {
			st = &repairStream{}
			streams[page.Serial] = st
			order = append(order, page.Serial)
		}

		broken, corrupt, failed := classify(m.RoutePage(page))
		if corrupt != nil && failed == nil {
			// The page is fine on its own; the stream before it is not.
			logger.Warn("inspect: restarting stream", "serial", page.Serial, "sequence", page.Sequence, "error", corrupt)
			if d, ok := m.Demuxer(page.Serial); ok {
				d.Reset()
			}
			_, corrupt, failed = classify(m.RoutePage(page))
			if failed == nil {
				failed = corrupt
			}
			broken = true
		}
		if failed != nil {
			logger.Warn("inspect: dropping page", "serial", page.Serial, "sequence", page.Sequence, "error", failed)
			rep.DroppedPages++
			continue
		}

		if broken {
			if err := abandon(st); err != nil {
				return rep, err
			}
			st.orphan = page.Continued()
		}

		out := page
		if !page.Continued() {
			st.orphan = false
		} else if st.orphan {
			lead, ends := leadingContinuation(page)
			st.orphan = !ends
			if out = trimPage(page, lead, 0); out == nil {
				rep.DroppedPages++
				continue
			}
			rep.TrimmedPages++
		}

		if endsPartial(out) && !out.EOS() {
			st.held = append(st.held, out)
			continue
		}
		if err := release(st); err != nil {
			return rep, err
		}
		if err := write(st, out); err != nil {
			return rep, err
		}
	}

	for _, serial := range order {
		if err := abandon(streams[serial]); err != nil {
			return rep, err
		}
	}
	rep.SkippedBytes = dec.Sync().TotalSkipped()
	return rep, nil
}

// classify sorts the stream errors of one routed page. broken reports a
// discontinuity, corrupt holds an ErrCorruptStream and failed any other error.
func classify(events []ogg.Event) (broken bool, corrupt, failed error) {
	for _, ev := range events {
		switch {
		case ev.Type == ogg.EventDiscontinuity:
			broken = true
		case ev.Type != ogg.EventStreamError:
		case errors.Is(ev.Err, ogg.ErrCorruptStream):
			corrupt = ev.Err
		default:
			failed = ev.Err
		}
	}
	return broken, corrupt, failed
}

// leadingContinuation returns how many segments at the start of p continue
// the previous page's packet, and whether that packet ends on p.
func leadingContinuation(p *ogg.Page) (int, bool) {
	if !p.Continued() {
		return 0, true
	}
	for i, s := range p.Segments {
		if s < ogg.MaxSegmentSize {
			return i + 1, true
		}
	}
	return len(p.Segments), false
}

// trailingPartial returns how many segments at the end of p belong to a
// packet that p does not finish.
func trailingPartial(p *ogg.Page) int {
	n := 0
	for i := len(p.Segments) - 1; i >= 0 && p.Segments[i] == ogg.MaxSegmentSize; i-- {
		n++
	}
	return n
}

func endsPartial(p *ogg.Page) bool {
	return len(p.Segments) > 0 && p.Segments[len(p.Segments)-1] == ogg.MaxSegmentSize
}

// trimPage returns a copy of p without its first lead and last trail
// segments, or nil when nothing worth writing is left.
func trimPage(p *ogg.Page, lead, trail int) *ogg.Page {
	segs := p.Segments[lead : len(p.Segments)-trail]
	if len(segs) == 0 && !p.BOS() && !p.EOS() {
		return nil
	}
	start := 0
	for _, s := range p.Segments[:lead] {
		start += int(s)
	}
	end := start
	for _, s := range segs {
		end += int(s)
	}

	q := *p
	q.Segments = bytes.Clone(segs)
	q.Body = bytes.Clone(p.Body[start:end])
	if lead > 0 {
		q.HeaderType &^= ogg.FlagContinued
	}
	finished := false
	for _, s := range q.Segments {
		if s < ogg.MaxSegmentSize {
			finished = true
			break
		}
	}
	if !finished {
		q.GranulePos = -1
	}
	return &q
}
