// Package oggpk reads and writes packet dumps: the packets of one logical
// Ogg stream stored as a msgpack stream, one header record followed by one
// record per packet. Dumps let a stream be taken out of its container,
// inspected or edited, and muxed back.
package oggpk

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/haivivi/oggmux/pkg/ogg"
)

// Magic identifies a packet dump.
const Magic = "oggpk"

// Version is the dump format version written by this package.
const Version = 1

// Ext is the file extension used for dumps.
const Ext = ".oggpk"

// ErrBadHeader is returned when a dump does not start with a valid header.
var ErrBadHeader = errors.New("oggpk: bad header")

// Header is the first record of a dump.
type Header struct {
	Magic   string    `msgpack:"magic" json:"magic" yaml:"magic"`
	Version int       `msgpack:"version" json:"version" yaml:"version"`
	Serial  uint32    `msgpack:"serial" json:"serial" yaml:"serial"`
	Source  string    `msgpack:"source,omitempty" json:"source,omitempty" yaml:"source,omitempty"`
	Created time.Time `msgpack:"created" json:"created" yaml:"created"`
}

type record struct {
	Data       []byte `msgpack:"d"`
	GranulePos int64  `msgpack:"g"`
	PacketNo   int64  `msgpack:"n"`
	BOS        bool   `msgpack:"b,omitempty"`
	EOS        bool   `msgpack:"e,omitempty"`
}

// Writer appends packets to a dump.
type Writer struct {
	enc     *msgpack.Encoder
	packets int64
}

// NewWriter writes h to w and returns a Writer for the packets. Magic and
// Version are filled in; a zero Created is set to now.
func NewWriter(w io.Writer, h Header) (*Writer, error) {
	h.Magic = Magic
	h.Version = Version
	if h.Created.IsZero() {
		h.Created = time.Now().UTC()
	}
	enc := msgpack.NewEncoder(w)
	if err := enc.Encode(&h); err != nil {
		return nil, fmt.Errorf("oggpk: write header: %w", err)
	}
	return &Writer{enc: enc}, nil
}

// WritePacket appends one packet.
func (w *Writer) WritePacket(p *ogg.Packet) error {
	err := w.enc.Encode(&record{
		Data:       p.Data,
		GranulePos: p.GranulePos,
		PacketNo:   p.PacketNo,
		BOS:        p.BOS,
		EOS:        p.EOS,
	})
	if err != nil {
		return fmt.Errorf("oggpk: write packet %d: %w", w.packets, err)
	}
	w.packets++
	return nil
}

// Packets returns the number of packets written.
func (w *Writer) Packets() int64 {
	return w.packets
}

// Reader reads packets from a dump.
type Reader struct {
	dec *msgpack.Decoder
	hdr Header
}

// NewReader reads and checks the header of the dump in r.
func NewReader(r io.Reader) (*Reader, error) {
	dec := msgpack.NewDecoder(r)
	var h Header
	if err := dec.Decode(&h); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadHeader, err)
	}
	if h.Magic != Magic {
		return nil, fmt.Errorf("%w: magic %q", ErrBadHeader, h.Magic)
	}
	if h.Version != Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadHeader, h.Version)
	}
	return &Reader{dec: dec, hdr: h}, nil
}

// Header returns the dump header.
func (r *Reader) Header() Header {
	return r.hdr
}

// ReadPacket returns the next packet, or io.EOF after the last one.
func (r *Reader) ReadPacket() (*ogg.Packet, error) {
	var rec record
	if err := r.dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("oggpk: read packet: %w", err)
	}
	return &ogg.Packet{
		Data:       rec.Data,
		GranulePos: rec.GranulePos,
		PacketNo:   rec.PacketNo,
		BOS:        rec.BOS,
		EOS:        rec.EOS,
	}, nil
}
