package buffer

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"testing"
	"time"
)

func TestBuffer_WriteRead(t *testing.T) {
	buf := N[byte](10)

	n, err := buf.Write([]byte{1, 2, 3, 4, 5})
	if err != nil {
		t.Fatalf("Write error: %v", err)
	}
	if n != 5 || buf.Len() != 5 {
		t.Fatalf("Write returned %d, Len() = %d, want 5", n, buf.Len())
	}

	buf.CloseWrite()

	got := make([]byte, 10)
	n, err = buf.Read(got)
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if !bytes.Equal(got[:n], []byte{1, 2, 3, 4, 5}) {
		t.Fatalf("Read got %v, want [1,2,3,4,5]", got[:n])
	}

	if _, err = buf.Read(got); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestBuffer_TryRead(t *testing.T) {
	buf := Bytes()
	p := make([]byte, 4)

	if _, err := buf.TryRead(p); !errors.Is(err, ErrEmpty) {
		t.Fatalf("TryRead on empty = %v, want ErrEmpty", err)
	}

	buf.Write([]byte("OggS-page"))
	n, err := buf.TryRead(p)
	if err != nil || string(p[:n]) != "OggS" {
		t.Fatalf("TryRead = %q, %v", p[:n], err)
	}
	if buf.Len() != 5 {
		t.Errorf("Len() = %d, want 5", buf.Len())
	}

	buf.CloseWrite()
	buf.Discard(5)
	if _, err := buf.TryRead(p); err != io.EOF {
		t.Errorf("TryRead after drain = %v, want EOF", err)
	}
}

func TestBuffer_ConcurrentWriteRead(t *testing.T) {
	buf := N[byte](100)

	data := make([]byte, 256)
	for i := range data {
		data[i] = byte(i)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < len(data); i += 32 {
			if _, err := buf.Write(data[i:min(i+32, len(data))]); err != nil {
				t.Errorf("Write error: %v", err)
				return
			}
		}
		buf.CloseWrite()
	}()

	got, err := io.ReadAll(buf)
	if err != nil {
		t.Fatalf("ReadAll error: %v", err)
	}
	wg.Wait()
	if !bytes.Equal(got, data) {
		t.Fatalf("got %d bytes, want %d", len(got), len(data))
	}
}

func TestBuffer_Next(t *testing.T) {
	buf := N[int](10)
	for i := 1; i <= 3; i++ {
		if err := buf.Add(i); err != nil {
			t.Fatalf("Add(%d) error: %v", i, err)
		}
	}
	buf.CloseWrite()

	for want := 1; want <= 3; want++ {
		v, err := buf.Next()
		if err != nil {
			t.Fatalf("Next error: %v", err)
		}
		if v != want {
			t.Fatalf("Next() = %d, want %d", v, want)
		}
	}
	if _, err := buf.Next(); !errors.Is(err, ErrIteratorDone) {
		t.Fatalf("expected ErrIteratorDone, got %v", err)
	}
}

func TestBuffer_BlockingRead(t *testing.T) {
	buf := N[byte](10)
	result := make(chan []byte, 1)
	go func() {
		p := make([]byte, 10)
		n, _ := buf.Read(p)
		result <- p[:n]
	}()

	select {
	case <-result:
		t.Fatal("Read should block on an empty buffer")
	case <-time.After(20 * time.Millisecond):
	}

	buf.Write([]byte{42})
	select {
	case got := <-result:
		if !bytes.Equal(got, []byte{42}) {
			t.Errorf("Read got %v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("Read did not wake up")
	}
}

func TestBuffer_Reset(t *testing.T) {
	buf := Bytes()
	buf.Write([]byte{1, 2, 3})
	if !bytes.Equal(buf.Bytes(), []byte{1, 2, 3}) {
		t.Fatalf("Bytes() = %v", buf.Bytes())
	}
	buf.Reset()
	if buf.Len() != 0 {
		t.Errorf("Len() after Reset = %d", buf.Len())
	}
}

func TestBuffer_CloseWithError(t *testing.T) {
	buf := N[byte](10)
	buf.Write([]byte{1, 2})
	customErr := errors.New("custom error")
	buf.CloseWithError(customErr)

	if _, err := buf.Read(make([]byte, 2)); !errors.Is(err, customErr) {
		t.Errorf("Read = %v, want custom error", err)
	}
	if _, err := buf.TryRead(make([]byte, 2)); !errors.Is(err, customErr) {
		t.Errorf("TryRead = %v, want custom error", err)
	}
	if err := buf.Add(1); !errors.Is(err, customErr) {
		t.Errorf("Add = %v, want custom error", err)
	}
	if err := buf.Discard(1); err == nil {
		t.Error("Discard should fail after CloseWithError")
	}

	// Closing again keeps the first error.
	buf.CloseWithError(errors.New("other"))
	if buf.Error() != customErr {
		t.Errorf("Error() = %v", buf.Error())
	}
}

func TestBuffer_DoubleCloseWrite(t *testing.T) {
	buf := N[byte](10)
	if err := buf.CloseWrite(); err != nil {
		t.Fatalf("first CloseWrite error: %v", err)
	}
	if err := buf.CloseWrite(); err != nil {
		t.Fatalf("second CloseWrite error: %v", err)
	}
	if err := buf.Close(); err != nil {
		t.Fatalf("Close after CloseWrite error: %v", err)
	}
}
