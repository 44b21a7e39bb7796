package ogg

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
)

// EventType identifies what a multiplexer Event reports.
type EventType int

const (
	// EventStreamDiscovered reports the first page of an unseen serial.
	EventStreamDiscovered EventType = iota + 1
	// EventPage carries a page routed to its logical stream.
	EventPage
	// EventPacket carries a reassembled packet.
	EventPacket
	// EventDiscontinuity reports missing pages; processing continues.
	EventDiscontinuity
	// EventStreamError reports a failure confined to one logical stream.
	EventStreamError
	// EventStreamEnded reports that the end of stream packet was delivered
	// and the stream retired.
	EventStreamEnded
)

func (t EventType) String() string {
	switch t {
	case EventStreamDiscovered:
		return "stream-discovered"
	case EventPage:
		return "page"
	case EventPacket:
		return "packet"
	case EventDiscontinuity:
		return "discontinuity"
	case EventStreamError:
		return "stream-error"
	case EventStreamEnded:
		return "stream-ended"
	default:
		return fmt.Sprintf("EventType(%d)", int(t))
	}
}

// Event is one result of routing a page.
type Event struct {
	Type   EventType
	Serial uint32
	Page   *Page   // EventPage
	Packet *Packet // EventPacket
	Err    error   // EventDiscontinuity, EventStreamError
}

// MultiplexerOptions configures a Multiplexer.
type MultiplexerOptions struct {
	// Rand is the entropy source for serial numbers.
	// Default is crypto/rand.Reader if nil.
	Rand io.Reader

	// Muxer configures the Muxers created by Stream and NewStream.
	Muxer *MuxerOptions
}

// maxSerialAttempts bounds the retries when a random serial collides.
const maxSerialAttempts = 64

// Multiplexer routes pages to per-serial Demuxers and owns per-serial
// Muxers. Streams are processed one page at a time in arrival order.
type Multiplexer struct {
	rand     io.Reader
	muxOpts  *MuxerOptions
	demuxers map[uint32]*Demuxer
	muxers   map[uint32]*Muxer

	// Serials whose stream has ended; they are never reused.
	ended  map[uint32]struct{}
	closed map[uint32]struct{}
}

// NewMultiplexer creates a Multiplexer. Pass nil for default options.
func NewMultiplexer(opts *MultiplexerOptions) *Multiplexer {
	m := &Multiplexer{
		rand:     rand.Reader,
		demuxers: make(map[uint32]*Demuxer),
		muxers:   make(map[uint32]*Muxer),
		ended:    make(map[uint32]struct{}),
		closed:   make(map[uint32]struct{}),
	}
	if opts != nil {
		if opts.Rand != nil {
			m.rand = opts.Rand
		}
		m.muxOpts = opts.Muxer
	}
	return m
}

// --- Decoding ---

// RoutePage forwards a page to the Demuxer for its serial, creating one on
// first sight, and returns the resulting events in order. Errors are
// reported as events and never affect other serials.
func (m *Multiplexer) RoutePage(p *Page) []Event {
	serial := p.Serial
	if _, ok := m.ended[serial]; ok {
		return []Event{{
			Type:   EventStreamError,
			Serial: serial,
			Page:   p,
			Err:    &StreamError{Serial: serial, Err: ErrStreamClosed},
		}}
	}

	var events []Event
	d, ok := m.demuxers[serial]
	if !ok {
		d = NewDemuxer(serial)
		m.demuxers[serial] = d
		events = append(events, Event{Type: EventStreamDiscovered, Serial: serial})
	}
	events = append(events, Event{Type: EventPage, Serial: serial, Page: p})

	pkts, err := d.PageIn(p)
	if err != nil {
		if !errors.Is(err, ErrDiscontinuity) {
			return append(events, Event{Type: EventStreamError, Serial: serial, Err: err})
		}
		events = append(events, Event{Type: EventDiscontinuity, Serial: serial, Err: err})
	}
	for i := range pkts {
		events = append(events, Event{Type: EventPacket, Serial: serial, Packet: &pkts[i]})
	}

	if d.EOS() {
		delete(m.demuxers, serial)
		m.ended[serial] = struct{}{}
		events = append(events, Event{Type: EventStreamEnded, Serial: serial})
	}
	return events
}

// Demuxer returns the live Demuxer for a serial.
func (m *Multiplexer) Demuxer(serial uint32) (*Demuxer, bool) {
	d, ok := m.demuxers[serial]
	return d, ok
}

// --- Encoding ---

// Stream returns the Muxer for serial, creating it if needed. A serial
// whose stream has been closed or has ended cannot be reopened.
func (m *Multiplexer) Stream(serial uint32) (*Muxer, error) {
	if mx, ok := m.muxers[serial]; ok {
		return mx, nil
	}
	if m.retired(serial) {
		return nil, &StreamError{Serial: serial, Err: ErrStreamClosed}
	}
	mx := NewMuxer(serial, m.muxOpts)
	m.muxers[serial] = mx
	return mx, nil
}

// NewStream creates a Muxer with a random serial that collides with no
// stream this Multiplexer has seen.
func (m *Multiplexer) NewStream() (*Muxer, error) {
	var b [4]byte
	for range maxSerialAttempts {
		if _, err := io.ReadFull(m.rand, b[:]); err != nil {
			return nil, fmt.Errorf("ogg: read serial entropy: %w", err)
		}
		serial := binary.LittleEndian.Uint32(b[:])
		if m.inUse(serial) {
			continue
		}
		return m.Stream(serial)
	}
	return nil, errors.New("ogg: failed to allocate a unique serial number")
}

// PageOut returns the full pages of a stream; see Muxer.PageOut.
func (m *Multiplexer) PageOut(serial uint32) ([]*Page, error) {
	mx, err := m.muxer(serial)
	if err != nil {
		return nil, err
	}
	pages := mx.PageOut()
	m.retireMuxer(mx)
	return pages, nil
}

// Flush drains a stream into pages; see Muxer.Flush. A stream whose end
// of stream packet has been flushed is retired.
func (m *Multiplexer) Flush(serial uint32) ([]*Page, error) {
	mx, err := m.muxer(serial)
	if err != nil {
		return nil, err
	}
	pages := mx.Flush()
	m.retireMuxer(mx)
	return pages, nil
}

// CloseStream drops a Muxer and any packets still queued in it.
func (m *Multiplexer) CloseStream(serial uint32) error {
	if _, err := m.muxer(serial); err != nil {
		return err
	}
	delete(m.muxers, serial)
	m.closed[serial] = struct{}{}
	return nil
}

// Streams returns the serials of all live streams, sorted.
func (m *Multiplexer) Streams() []uint32 {
	serials := slices.Collect(maps.Keys(m.demuxers))
	for s := range m.muxers {
		if _, ok := m.demuxers[s]; !ok {
			serials = append(serials, s)
		}
	}
	slices.Sort(serials)
	return serials
}

func (m *Multiplexer) muxer(serial uint32) (*Muxer, error) {
	mx, ok := m.muxers[serial]
	if !ok {
		return nil, &StreamError{Serial: serial, Err: ErrUnknownStream}
	}
	return mx, nil
}

func (m *Multiplexer) retireMuxer(mx *Muxer) {
	if mx.Done() {
		delete(m.muxers, mx.Serial())
		m.closed[mx.Serial()] = struct{}{}
	}
}

func (m *Multiplexer) retired(serial uint32) bool {
	_, ended := m.ended[serial]
	_, closed := m.closed[serial]
	return ended || closed
}

func (m *Multiplexer) inUse(serial uint32) bool {
	_, dm := m.demuxers[serial]
	_, mx := m.muxers[serial]
	return dm || mx || m.retired(serial)
}
