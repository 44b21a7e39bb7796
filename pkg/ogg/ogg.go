// Package ogg implements the Ogg container bitstream format in pure Go.
//
// Ogg packs variable-length packets into pages and interleaves several
// logical streams, each identified by a serial number, inside one physical
// byte stream. This package provides low-level access to the same sync,
// stream, page and packet operations as the reference libogg:
//
//   - SyncState scans raw bytes for page boundaries and recovers from
//     corruption by skipping garbage.
//   - Demuxer reassembles the pages of one logical stream into packets.
//   - Muxer packs the packets of one logical stream into pages.
//   - Multiplexer routes pages and packets to per-serial Demuxers and Muxers.
//   - Pipe, Decoder and Encoder adapt the above to byte-stream I/O.
//
// Packet payloads are opaque; no codec-specific interpretation is done.
// None of the types are safe for concurrent use.
package ogg

// Page header type flags
const (
	// FlagContinued indicates this page contains data from a packet continued from the previous page
	FlagContinued = 0x01
	// FlagBOS indicates beginning of stream
	FlagBOS = 0x02
	// FlagEOS indicates end of stream
	FlagEOS = 0x04
)

// Packet represents an Ogg packet.
//
// Packets returned by a Demuxer are freshly allocated and owned by the
// caller. When submitting to a Muxer, BOS and PacketNo are ignored: the
// Muxer decides which page starts the stream.
type Packet struct {
	// Data is the opaque packet payload. It may be empty.
	Data []byte

	// GranulePos is the codec-defined position of the page that completed
	// this packet.
	GranulePos int64

	// PacketNo is the packet sequence number within the logical stream.
	PacketNo int64

	// BOS is set on the first packet of a logical stream.
	BOS bool

	// EOS is set on the last packet of a logical stream.
	EOS bool
}

// Bytes returns the packet length.
func (p *Packet) Bytes() int {
	return len(p.Data)
}
