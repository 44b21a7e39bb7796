package ogg

import (
	"crypto/rand"
	"encoding/binary"
	"io"
)

// Encoder writes the pages of one logical stream to an io.Writer.
type Encoder struct {
	w      io.Writer
	stream *Muxer
	buf    []byte
}

// NewEncoder creates a new Ogg encoder with a random serial number.
func NewEncoder(w io.Writer, opts *MuxerOptions) (*Encoder, error) {
	var serialNo uint32
	if err := binary.Read(rand.Reader, binary.LittleEndian, &serialNo); err != nil {
		return nil, err
	}
	return NewEncoderWithSerial(w, serialNo, opts), nil
}

// NewEncoderWithSerial creates a new Ogg encoder with a specific serial number.
func NewEncoderWithSerial(w io.Writer, serialNo uint32, opts *MuxerOptions) *Encoder {
	return &Encoder{
		w:      w,
		stream: NewMuxer(serialNo, opts),
	}
}

// SerialNo returns the stream serial number.
func (e *Encoder) SerialNo() uint32 {
	return e.stream.Serial()
}

// WritePacket writes a packet to the stream. Full pages are written
// immediately; the rest stays queued until Flush.
// Set eos=true on the last packet.
func (e *Encoder) WritePacket(data []byte, granulePos int64, eos bool) error {
	if err := e.stream.PacketIn(Packet{Data: data, GranulePos: granulePos, EOS: eos}); err != nil {
		return err
	}
	return e.writePages(e.stream.PageOut())
}

// Flush forces any remaining packets into pages.
func (e *Encoder) Flush() error {
	return e.writePages(e.stream.Flush())
}

// Close flushes pending data. It does not close the underlying writer.
func (e *Encoder) Close() error {
	return e.Flush()
}

// WritePage writes an already built page, recomputing its checksum.
func (e *Encoder) WritePage(p *Page) error {
	var err error
	e.buf, err = p.AppendTo(e.buf[:0])
	if err != nil {
		return err
	}
	_, err = e.w.Write(e.buf)
	return err
}

func (e *Encoder) writePages(pages []*Page) error {
	for _, p := range pages {
		if err := e.WritePage(p); err != nil {
			return err
		}
	}
	return nil
}
