package ogg

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const (
	// HeaderSize is the fixed portion of a page header, before the
	// segment table.
	HeaderSize = 27

	// MaxSegments is the maximum number of segment table entries.
	MaxSegments = 255

	// MaxSegmentSize is the largest lacing value.
	MaxSegmentSize = 255

	// MaxPageSize is the size of the largest possible page.
	MaxPageSize = HeaderSize + MaxSegments + MaxSegments*MaxSegmentSize
)

var capturePattern = []byte("OggS")

// Page represents an Ogg page.
type Page struct {
	// HeaderType holds FlagContinued, FlagBOS and FlagEOS.
	HeaderType byte

	// GranulePos is opaque to the container. -1 means no packet
	// finishes on this page.
	GranulePos int64

	// Serial identifies the logical stream.
	Serial uint32

	// Sequence is the page sequence number within the logical stream.
	Sequence uint32

	// Checksum is the CRC stored in (or computed for) the page.
	Checksum uint32

	// Segments is the lacing table, at most MaxSegments entries.
	Segments []byte

	// Body is the page payload; len(Body) equals the sum of Segments.
	Body []byte
}

// Continued reports whether the first segment continues a packet from the
// previous page.
func (p *Page) Continued() bool {
	return p.HeaderType&FlagContinued != 0
}

// BOS returns true if this is a beginning of stream page.
func (p *Page) BOS() bool {
	return p.HeaderType&FlagBOS != 0
}

// EOS returns true if this is an end of stream page.
func (p *Page) EOS() bool {
	return p.HeaderType&FlagEOS != 0
}

// Len returns the serialized size of the page.
func (p *Page) Len() int {
	return HeaderSize + len(p.Segments) + len(p.Body)
}

// PacketCount returns the number of packets that finish on this page.
func (p *Page) PacketCount() int {
	n := 0
	for _, s := range p.Segments {
		if s < MaxSegmentSize {
			n++
		}
	}
	return n
}

// Packets returns the body slices of the packets that finish on this page.
// If the page is continued, the first slice is only the tail of its packet.
// A trailing unfinished packet is not included.
func (p *Page) Packets() [][]byte {
	var pkts [][]byte
	start, off := 0, 0
	for _, s := range p.Segments {
		off += int(s)
		if s < MaxSegmentSize {
			pkts = append(pkts, p.Body[start:off])
			start = off
		}
	}
	return pkts
}

// Validate checks that the page can be serialized.
func (p *Page) Validate() error {
	if len(p.Segments) > MaxSegments {
		return fmt.Errorf("%w: %d segments", ErrInvalidPage, len(p.Segments))
	}
	if n := bodyLen(p.Segments); n != len(p.Body) {
		return fmt.Errorf("%w: segment table covers %d bytes, body has %d", ErrInvalidPage, n, len(p.Body))
	}
	return nil
}

// Marshal serializes the page and stores the computed CRC in p.Checksum.
func (p *Page) Marshal() ([]byte, error) {
	return p.AppendTo(make([]byte, 0, p.Len()))
}

// AppendTo appends the serialized page to dst.
// The checksum is computed over the page with the CRC field zeroed, then
// patched in, and stored in p.Checksum.
func (p *Page) AppendTo(dst []byte) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return dst, err
	}
	start := len(dst)
	dst = append(dst, capturePattern...)
	dst = append(dst, 0, p.HeaderType)
	dst = binary.LittleEndian.AppendUint64(dst, uint64(p.GranulePos))
	dst = binary.LittleEndian.AppendUint32(dst, p.Serial)
	dst = binary.LittleEndian.AppendUint32(dst, p.Sequence)
	dst = append(dst, 0, 0, 0, 0)
	dst = append(dst, byte(len(p.Segments)))
	dst = append(dst, p.Segments...)
	dst = append(dst, p.Body...)

	p.Checksum = Checksum(dst[start:])
	binary.LittleEndian.PutUint32(dst[start+22:], p.Checksum)
	return dst, nil
}

// computeChecksum returns the CRC of the serialized page without building it.
func (p *Page) computeChecksum() uint32 {
	var hdr [HeaderSize]byte
	copy(hdr[:], capturePattern)
	hdr[5] = p.HeaderType
	binary.LittleEndian.PutUint64(hdr[6:], uint64(p.GranulePos))
	binary.LittleEndian.PutUint32(hdr[14:], p.Serial)
	binary.LittleEndian.PutUint32(hdr[18:], p.Sequence)
	hdr[26] = byte(len(p.Segments))
	crc := UpdateChecksum(0, hdr[:])
	crc = UpdateChecksum(crc, p.Segments)
	return UpdateChecksum(crc, p.Body)
}

// ParsePage parses the page starting at buf[offset:].
//
// It returns the page and the number of bytes it occupies. ErrNotAPage is
// returned when the capture pattern is absent at offset and ErrTruncated
// when buf ends before the page does; callers retry the latter once more
// bytes arrive. A page that is structurally invalid or fails its checksum
// yields a *CorruptPageError carrying how many bytes to skip.
//
// An offset outside buf yields ErrNotAPage. The returned page does not
// alias buf.
func ParsePage(buf []byte, offset int) (*Page, int, error) {
	if offset < 0 || offset > len(buf) {
		return nil, 0, ErrNotAPage
	}
	b := buf[offset:]
	if len(b) < len(capturePattern) {
		if bytes.HasPrefix(capturePattern, b) {
			return nil, 0, ErrTruncated
		}
		return nil, 0, ErrNotAPage
	}
	if !bytes.Equal(b[:4], capturePattern) {
		return nil, 0, ErrNotAPage
	}
	if len(b) < HeaderSize {
		return nil, 0, ErrTruncated
	}
	if b[4] != 0 {
		return nil, 0, &CorruptPageError{
			Offset: offset,
			Skip:   1,
			Reason: fmt.Sprintf("unsupported stream structure version %d", b[4]),
		}
	}

	nsegs := int(b[26])
	hdrLen := HeaderSize + nsegs
	if len(b) < hdrLen {
		return nil, 0, ErrTruncated
	}
	total := hdrLen + bodyLen(b[HeaderSize:hdrLen])
	if len(b) < total {
		return nil, 0, ErrTruncated
	}

	stored := binary.LittleEndian.Uint32(b[22:26])
	crc := UpdateChecksum(0, b[:22])
	crc = UpdateChecksum(crc, []byte{0, 0, 0, 0})
	crc = UpdateChecksum(crc, b[26:total])
	if crc != stored {
		return nil, 0, &CorruptPageError{
			Offset: offset,
			Skip:   1,
			Reason: fmt.Sprintf("checksum mismatch: stored %08x, computed %08x", stored, crc),
		}
	}

	p := &Page{
		HeaderType: b[5],
		GranulePos: int64(binary.LittleEndian.Uint64(b[6:14])),
		Serial:     binary.LittleEndian.Uint32(b[14:18]),
		Sequence:   binary.LittleEndian.Uint32(b[18:22]),
		Checksum:   stored,
		Segments:   bytes.Clone(b[HeaderSize:hdrLen]),
		Body:       bytes.Clone(b[hdrLen:total]),
	}
	return p, total, nil
}

// Lacing returns the segment table entries for a packet of n bytes:
// n/255 segments of 255 followed by one terminating segment of n%255.
// A packet whose length is a multiple of 255, including an empty packet,
// ends with a zero-length segment.
func Lacing(n int) []byte {
	segs := make([]byte, n/MaxSegmentSize+1)
	for i := 0; i < len(segs)-1; i++ {
		segs[i] = MaxSegmentSize
	}
	segs[len(segs)-1] = byte(n % MaxSegmentSize)
	return segs
}

func bodyLen(segs []byte) int {
	n := 0
	for _, s := range segs {
		n += int(s)
	}
	return n
}
