package inspect

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	"github.com/haivivi/oggmux/pkg/ogg"
)

func quietOptions() *Options {
	return &Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func rawPage(t *testing.T, serial, seq uint32, flags byte, body string) []byte {
	t.Helper()
	p := &ogg.Page{
		HeaderType: flags,
		GranulePos: int64(seq),
		Serial:     serial,
		Sequence:   seq,
		Segments:   ogg.Lacing(len(body)),
		Body:       []byte(body),
	}
	b, err := p.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	return b
}

func join(parts ...[]byte) []byte {
	return bytes.Join(parts, nil)
}

func encodeStreams(t *testing.T, serials ...uint32) []byte {
	t.Helper()
	var out bytes.Buffer
	for _, serial := range serials {
		enc := ogg.NewEncoderWithSerial(&out, serial, nil)
		for i := range 3 {
			if err := enc.WritePacket(bytes.Repeat([]byte{byte(i)}, 300), int64(i+1)*960, i == 2); err != nil {
				t.Fatalf("WritePacket failed: %v", err)
			}
		}
		if err := enc.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}
	return out.Bytes()
}
