package ogg

// DefaultPageFill is the nominal page body size at which PageOut emits a
// page, matching libogg.
const DefaultPageFill = 4096

// MuxerOptions configures a Muxer.
type MuxerOptions struct {
	// PageFill is the body size at which a page counts as full.
	// Default is DefaultPageFill if zero.
	PageFill int
}

type lacingVal struct {
	size    byte
	granule int64
	// start marks the first segment of a packet.
	start bool
}

// Muxer packs the packets of one logical stream into pages.
type Muxer struct {
	serial   uint32
	pageFill int

	body   []byte
	lacing []lacingVal

	sequence uint32
	packetNo int64
	bosDone  bool
	eosIn    bool
	done     bool
}

// NewMuxer creates a Muxer for the given serial. Pass nil for default options.
func NewMuxer(serial uint32, opts *MuxerOptions) *Muxer {
	m := &Muxer{serial: serial, pageFill: DefaultPageFill}
	if opts != nil && opts.PageFill > 0 {
		m.pageFill = opts.PageFill
	}
	return m
}

// Serial returns the stream serial number.
func (m *Muxer) Serial() uint32 {
	return m.serial
}

// Queued returns the number of packet bytes not yet placed in a page.
func (m *Muxer) Queued() int {
	return len(m.body)
}

// Packets returns the number of packets submitted so far.
func (m *Muxer) Packets() int64 {
	return m.packetNo
}

// EOS returns true once an end of stream packet has been submitted.
func (m *Muxer) EOS() bool {
	return m.eosIn
}

// Done returns true once the page carrying the end of stream packet has
// been produced.
func (m *Muxer) Done() bool {
	return m.done
}

// PacketIn queues a packet. The data is copied. Packets of any size are
// accepted; those larger than one page continue onto the next pages.
func (m *Muxer) PacketIn(pkt Packet) error {
	if m.eosIn {
		return &StreamError{Serial: m.serial, Err: ErrStreamClosed}
	}
	for i, v := range Lacing(len(pkt.Data)) {
		m.lacing = append(m.lacing, lacingVal{size: v, granule: pkt.GranulePos, start: i == 0})
	}
	m.body = append(m.body, pkt.Data...)
	m.packetNo++
	m.eosIn = pkt.EOS
	return nil
}

// PageOut returns the pages that are full: a complete segment table, a
// body of at least PageFill bytes, or the initial page holding the first
// packet. It returns nothing when not enough data is queued.
func (m *Muxer) PageOut() []*Page {
	return m.PageOutFill(m.pageFill)
}

// PageOutFill is PageOut with a per-call fill size.
func (m *Muxer) PageOutFill(fill int) []*Page {
	return m.drain(fill, false)
}

// Flush forces every queued packet into pages. All but the last page are
// full; the last one may be short.
func (m *Muxer) Flush() []*Page {
	return m.FlushFill(m.pageFill)
}

// FlushFill is Flush with a per-call fill size.
func (m *Muxer) FlushFill(fill int) []*Page {
	return m.drain(fill, true)
}

func (m *Muxer) drain(fill int, force bool) []*Page {
	if fill <= 0 {
		fill = DefaultPageFill
	}
	var pages []*Page
	for {
		vals, ok := m.nextPage(fill, force)
		if !ok {
			return pages
		}
		pages = append(pages, m.makePage(vals))
	}
}

// nextPage reports how many lacing values the next page takes and
// whether it is ready to be emitted.
func (m *Muxer) nextPage(fill int, force bool) (int, bool) {
	n := len(m.lacing)
	if n == 0 {
		return 0, false
	}
	maxVals := min(n, MaxSegments)

	// The initial page carries only the first packet.
	if !m.bosDone {
		for i := 0; i < maxVals; i++ {
			if m.lacing[i].size < MaxSegmentSize {
				return i + 1, true
			}
		}
		return maxVals, maxVals == MaxSegments || force
	}

	acc := 0
	for i := 0; i < maxVals; i++ {
		acc += int(m.lacing[i].size)
		if acc >= fill {
			return i + 1, true
		}
	}
	return maxVals, maxVals == MaxSegments || force
}

func (m *Muxer) makePage(vals int) *Page {
	p := &Page{
		Serial:     m.serial,
		Sequence:   m.sequence,
		GranulePos: -1,
		Segments:   make([]byte, vals),
	}
	if !m.lacing[0].start {
		p.HeaderType |= FlagContinued
	}
	if !m.bosDone {
		p.HeaderType |= FlagBOS
		m.bosDone = true
	}

	size := 0
	for i, l := range m.lacing[:vals] {
		p.Segments[i] = l.size
		size += int(l.size)
		if l.size < MaxSegmentSize {
			p.GranulePos = l.granule
		}
	}
	p.Body = make([]byte, size)
	copy(p.Body, m.body)

	m.lacing = m.lacing[vals:]
	m.body = m.body[size:]
	if len(m.lacing) == 0 {
		m.lacing, m.body = nil, nil
		if m.eosIn {
			p.HeaderType |= FlagEOS
			m.done = true
		}
	}
	m.sequence++
	p.Checksum = p.computeChecksum()
	return p
}
