package buffer

import "testing"

func TestBytesConstructors(t *testing.T) {
	tests := []struct {
		name string
		buf  *BlockBuffer[byte]
		cap  int
	}{
		{"64KB", Bytes64KB(), 1 << 16},
		{"4KB", Bytes4KB(), 1 << 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.buf.Cap() != tt.cap {
				t.Errorf("Cap() = %d, want %d", tt.buf.Cap(), tt.cap)
			}
			if tt.buf.Len() != 0 {
				t.Errorf("Len() = %d, want 0", tt.buf.Len())
			}
		})
	}
}

func TestBytesBufferInterface(t *testing.T) {
	for _, b := range []BytesBuffer{Bytes(), Bytes4KB()} {
		if _, err := b.Write([]byte("hello")); err != nil {
			t.Fatalf("Write error: %v", err)
		}
		b.CloseWrite()
		p := make([]byte, 8)
		n, err := b.Read(p)
		if err != nil || string(p[:n]) != "hello" {
			t.Errorf("%T: Read = %q, %v", b, p[:n], err)
		}
		if b.Error() != nil {
			t.Errorf("%T: Error() = %v", b, b.Error())
		}
	}
}
