package ogg

import "fmt"

// Demuxer reassembles the pages of one logical stream into packets.
type Demuxer struct {
	serial uint32

	started bool
	lastSeq uint32

	partial    []byte
	hasPartial bool
	// orphan is set while skipping the remainder of a packet whose start
	// was lost.
	orphan bool

	packetNo   int64
	bosPending bool
	eos        bool
	err        error
}

// NewDemuxer creates a Demuxer for the logical stream with the given serial.
func NewDemuxer(serial uint32) *Demuxer {
	return &Demuxer{serial: serial}
}

// Serial returns the stream serial number.
func (d *Demuxer) Serial() uint32 {
	return d.serial
}

// EOS returns true once the end of stream page has been consumed.
func (d *Demuxer) EOS() bool {
	return d.eos
}

// Pending returns the number of bytes of a packet still being assembled.
func (d *Demuxer) Pending() int {
	return len(d.partial)
}

// Reset discards all state, including a sticky error.
func (d *Demuxer) Reset() {
	*d = Demuxer{serial: d.serial}
}

// PageIn submits a page and returns the packets it completes.
//
// A gap in page sequence numbers drops the packet being assembled and is
// reported as a *DiscontinuityError together with the packets that could
// still be extracted. Inconsistent continuation flags fail the stream with
// ErrCorruptStream; every later call returns the same error. Pages after
// end of stream fail with ErrStreamClosed.
func (d *Demuxer) PageIn(p *Page) ([]Packet, error) {
	if p.Serial != d.serial {
		return nil, fmt.Errorf("%w: page serial %08x, stream %08x", ErrSerialMismatch, p.Serial, d.serial)
	}
	if d.err != nil {
		return nil, d.err
	}
	if d.eos {
		return nil, &StreamError{Serial: d.serial, Err: ErrStreamClosed}
	}

	var gap error
	first := !d.started
	if first {
		d.started = true
		d.bosPending = p.BOS()
	} else if p.Sequence != d.lastSeq+1 {
		gap = &DiscontinuityError{Serial: d.serial, Expected: d.lastSeq + 1, Got: p.Sequence}
		d.partial, d.hasPartial = nil, false
		d.orphan = true
	}
	d.lastSeq = p.Sequence

	segs := p.Segments
	i, off := 0, 0
	switch {
	case p.Continued() && !d.hasPartial:
		if !first && !d.orphan {
			d.err = &StreamError{
				Serial: d.serial,
				Err:    fmt.Errorf("%w: page %d continues a packet that was never started", ErrCorruptStream, p.Sequence),
			}
			return nil, d.err
		}
		// Skip the tail of a packet whose start we never saw.
		d.orphan = true
		for i < len(segs) {
			off += int(segs[i])
			i++
			if segs[i-1] < MaxSegmentSize {
				d.orphan = false
				break
			}
		}
	case !p.Continued() && d.hasPartial:
		d.err = &StreamError{
			Serial: d.serial,
			Err:    fmt.Errorf("%w: page %d does not continue the pending packet", ErrCorruptStream, p.Sequence),
		}
		return nil, d.err
	default:
		d.orphan = false
	}

	var pkts []Packet
	start := off
	for ; i < len(segs); i++ {
		off += int(segs[i])
		if segs[i] == MaxSegmentSize {
			continue
		}
		pkt := Packet{
			Data:       append(d.partial, p.Body[start:off]...),
			GranulePos: p.GranulePos,
			PacketNo:   d.packetNo,
			BOS:        d.bosPending,
		}
		if pkt.Data == nil {
			pkt.Data = []byte{}
		}
		pkts = append(pkts, pkt)
		d.packetNo++
		d.bosPending = false
		d.partial, d.hasPartial = nil, false
		start = off
	}
	if len(segs) > 0 && segs[len(segs)-1] == MaxSegmentSize && !d.orphan {
		d.partial = append(d.partial, p.Body[start:off]...)
		d.hasPartial = true
	}

	if p.EOS() {
		if len(pkts) > 0 {
			pkts[len(pkts)-1].EOS = true
		}
		d.eos = true
		d.partial, d.hasPartial = nil, false
	}
	return pkts, gap
}
