// Package kv is the record store behind the scan catalog. Records live
// under hierarchical keys such as Key{"scan", id} or
// Key{"stream", serial, id}; segments are joined with a separator byte
// (default '/') when written to the backend.
//
// Badger persists the catalog on disk. Memory backs tests and one-shot
// runs that should not touch the filesystem.
package kv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"
)

var (
	// ErrNotFound is returned when a key does not exist in the store.
	ErrNotFound = errors.New("kv: not found")

	// ErrInvalidKey is returned for empty keys and for segments that are
	// empty or contain the separator.
	ErrInvalidKey = errors.New("kv: invalid key")
)

// Key is a hierarchical path of string segments.
type Key []string

// String joins the segments with '/' for display.
func (k Key) String() string {
	return strings.Join(k, string(DefaultSeparator))
}

// Append returns a new key with segs added after k's segments. k is not
// modified.
func (k Key) Append(segs ...string) Key {
	out := make(Key, 0, len(k)+len(segs))
	out = append(out, k...)
	return append(out, segs...)
}

// Last returns the final segment, or "" for an empty key.
func (k Key) Last() string {
	if len(k) == 0 {
		return ""
	}
	return k[len(k)-1]
}

// Entry is a key-value pair returned by List and used by BatchSet.
type Entry struct {
	Key   Key
	Value []byte
}

// Store is a key-value store with path-based keys.
type Store interface {
	// Get returns ErrNotFound if key is absent.
	Get(ctx context.Context, key Key) ([]byte, error)

	Set(ctx context.Context, key Key, value []byte) error

	// Delete is a no-op for an absent key.
	Delete(ctx context.Context, key Key) error

	// List yields entries strictly below prefix in ascending key order.
	// An empty prefix yields everything.
	List(ctx context.Context, prefix Key) iter.Seq2[Entry, error]

	BatchSet(ctx context.Context, entries []Entry) error
	BatchDelete(ctx context.Context, keys []Key) error

	Close() error
}

// DefaultSeparator joins key segments in storage.
const DefaultSeparator byte = '/'

// Options configures key encoding.
type Options struct {
	// Separator joins key segments. Zero means DefaultSeparator.
	Separator byte
}

func (o *Options) sep() byte {
	if o != nil && o.Separator != 0 {
		return o.Separator
	}
	return DefaultSeparator
}

func (o *Options) encode(k Key) ([]byte, error) {
	if len(k) == 0 {
		return nil, fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	return o.encodePrefix(k)
}

// encodePrefix encodes k for a prefix scan. The result ends with the
// separator so that "a/b" does not match "a/bc"; an empty k encodes to nil.
func (o *Options) encodePrefix(k Key) ([]byte, error) {
	s := o.sep()
	var buf bytes.Buffer
	for i, seg := range k {
		if seg == "" || strings.IndexByte(seg, s) >= 0 {
			return nil, fmt.Errorf("%w: segment %d %q", ErrInvalidKey, i, seg)
		}
		if i > 0 {
			buf.WriteByte(s)
		}
		buf.WriteString(seg)
	}
	return buf.Bytes(), nil
}

func (o *Options) scanPrefix(k Key) ([]byte, error) {
	if len(k) == 0 {
		return nil, nil
	}
	p, err := o.encodePrefix(k)
	if err != nil {
		return nil, err
	}
	return append(p, o.sep()), nil
}

func (o *Options) decode(b []byte) Key {
	return Key(strings.Split(string(b), string(o.sep())))
}

// errSeq yields a single error.
func errSeq(err error) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		yield(Entry{}, err)
	}
}
