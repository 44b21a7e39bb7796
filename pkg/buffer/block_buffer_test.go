package buffer

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strconv"
	"testing"
	"time"
)

func TestBlockBufferBlocksWhenFull(t *testing.T) {
	bb := BlockN[int](2)
	written := make(chan error, 1)
	go func() {
		n, err := bb.Write([]int{1, 2, 3, 4})
		if err == nil && n != 4 {
			err = fmt.Errorf("write [1,2,3,4] with n=%d", n)
		}
		written <- err
	}()

	select {
	case err := <-written:
		t.Fatalf("Write returned before the buffer drained: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	var got []int
	buf := make([]int, 3)
	for len(got) < 4 {
		n, err := bb.Read(buf)
		if err != nil {
			t.Fatalf("read with error: %v", err)
		}
		got = append(got, buf[:n]...)
	}
	if fmt.Sprint(got) != "[1 2 3 4]" {
		t.Errorf("got=%v", got)
	}
	if err := <-written; err != nil {
		t.Fatal(err)
	}
}

func TestBlockBufferCloseWrite(t *testing.T) {
	bb := BlockN[byte](8)
	bb.Write([]byte("abc"))
	if err := bb.CloseWrite(); err != nil {
		t.Fatalf("close write with error: %v", err)
	}
	if _, err := bb.Write([]byte("d")); !errors.Is(err, io.ErrClosedPipe) {
		t.Errorf("write after CloseWrite = %v", err)
	}

	got, err := io.ReadAll(bb)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(got) != "abc" {
		t.Errorf("got=%q", got)
	}
}

func TestBlockBufferCloseWithErrorUnblocksWriter(t *testing.T) {
	bb := BlockN[byte](1)
	boom := errors.New("boom")
	written := make(chan error, 1)
	go func() {
		_, err := bb.Write([]byte("xyz"))
		written <- err
	}()
	time.Sleep(10 * time.Millisecond)
	bb.CloseWithError(boom)

	if err := <-written; !errors.Is(err, boom) {
		t.Errorf("blocked write = %v, want boom", err)
	}
	if _, err := bb.Read(make([]byte, 1)); !errors.Is(err, boom) {
		t.Errorf("read after close = %v, want boom", err)
	}
	if !errors.Is(bb.Error(), boom) {
		t.Errorf("Error() = %v", bb.Error())
	}
}

func TestBlockBufferStreaming(t *testing.T) {
	for i := 1; i <= 4096; i *= 4 {
		sz := i
		t.Run("size="+strconv.Itoa(sz), func(t *testing.T) {
			bb := BlockN[byte](sz)

			data := make([]byte, 10240)
			rand.Read(data)
			go func() {
				for i := 0; i < len(data); {
					chunk := min(int(data[i])+537, len(data)-i)
					if _, err := bb.Write(data[i : i+chunk]); err != nil {
						bb.CloseWithError(err)
						return
					}
					i += chunk
				}
				bb.CloseWrite()
			}()

			got, err := io.ReadAll(bb)
			if err != nil {
				t.Fatalf("read with error: %v", err)
			}
			if !bytes.Equal(got, data) {
				t.Fatalf("read with data not equal")
			}
		})
	}
}

type failingReader struct {
	data []byte
	err  error
}

func (f *failingReader) Read(p []byte) (int, error) {
	if len(f.data) == 0 {
		return 0, f.err
	}
	n := copy(p, f.data)
	f.data = f.data[n:]
	return n, nil
}

func TestFill(t *testing.T) {
	data := bytes.Repeat([]byte("OggS"), 5000)
	bb := BlockN[byte](1024)
	go Fill(bb, bytes.NewReader(data))

	got, err := io.ReadAll(bb)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("got %d bytes, want %d", len(got), len(data))
	}
}

func TestFillPropagatesError(t *testing.T) {
	boom := errors.New("disk on fire")
	bb := BlockN[byte](64)
	go Fill(bb, &failingReader{data: []byte("partial"), err: boom})

	_, err := io.ReadAll(bb)
	if !errors.Is(err, boom) {
		t.Errorf("ReadAll = %v, want %v", err, boom)
	}
}

func TestPrefetchCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pr, pw := io.Pipe()
	defer pw.Close()

	bb := Prefetch(ctx, pr, 16)
	cancel()

	deadline := time.After(time.Second)
	for {
		_, err := bb.Read(make([]byte, 4))
		if errors.Is(err, context.Canceled) {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("Read did not observe cancellation, last error %v", err)
		default:
		}
	}
}

func BenchmarkBlockBuffer(b *testing.B) {
	data := make([]byte, 102400)
	rand.Read(data)
	buf := make([]byte, 537)
	for b.Loop() {
		bb := BlockN[byte](4096)
		go Fill(bb, bytes.NewReader(data))
		for {
			_, err := bb.Read(buf)
			if err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				b.Fatalf("read with error: %v", err)
			}
		}
	}
}
