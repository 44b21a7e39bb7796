package kv_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/haivivi/oggmux/pkg/kv"
)

type storeFactory func(t *testing.T, opts *kv.Options) kv.Store

func newMemoryStore(t *testing.T, opts *kv.Options) kv.Store {
	t.Helper()
	s := kv.NewMemory(opts)
	t.Cleanup(func() { s.Close() })
	return s
}

// runStoreTests exercises the Store contract against one backend.
func runStoreTests(t *testing.T, newStore storeFactory) {
	t.Run("GetSetDelete", func(t *testing.T) { testGetSetDelete(t, newStore(t, nil)) })
	t.Run("List", func(t *testing.T) { testList(t, newStore(t, nil)) })
	t.Run("ListPrefixBoundary", func(t *testing.T) { testListPrefixBoundary(t, newStore(t, nil)) })
	t.Run("ListEarlyBreak", func(t *testing.T) { testListEarlyBreak(t, newStore(t, nil)) })
	t.Run("BatchSetBatchDelete", func(t *testing.T) { testBatch(t, newStore(t, nil)) })
	t.Run("CustomSeparator", func(t *testing.T) { testCustomSeparator(t, newStore(t, &kv.Options{Separator: ':'})) })
	t.Run("ValueIsolation", func(t *testing.T) { testValueIsolation(t, newStore(t, nil)) })
	t.Run("InvalidKey", func(t *testing.T) { testInvalidKey(t, newStore(t, nil)) })
}

func TestMemory(t *testing.T) {
	runStoreTests(t, newMemoryStore)
}

func collectKeys(t *testing.T, s kv.Store, prefix kv.Key) []string {
	t.Helper()
	var got []string
	for entry, err := range s.List(context.Background(), prefix) {
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		got = append(got, entry.Key.String()+"="+string(entry.Value))
	}
	return got
}

func testGetSetDelete(t *testing.T, s kv.Store) {
	ctx := context.Background()
	key := kv.Key{"scan", "0193a"}

	if _, err := s.Get(ctx, key); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := s.Set(ctx, key, []byte("first")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Set(ctx, key, []byte("second")); err != nil {
		t.Fatalf("Set overwrite failed: %v", err)
	}
	got, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "second" {
		t.Fatalf("Get = %q, want %q", got, "second")
	}

	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Get(ctx, key); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.Delete(ctx, kv.Key{"no", "such", "key"}); err != nil {
		t.Fatalf("Delete non-existent failed: %v", err)
	}
}

func testList(t *testing.T, s kv.Store) {
	ctx := context.Background()
	entries := []kv.Entry{
		{Key: kv.Key{"scan", "b"}, Value: []byte("2")},
		{Key: kv.Key{"scan", "a"}, Value: []byte("1")},
		{Key: kv.Key{"stream", "0000002a", "a"}, Value: []byte("s1")},
		{Key: kv.Key{"stream", "0000002a", "b"}, Value: []byte("s2")},
		{Key: kv.Key{"stream", "0000002b", "a"}, Value: []byte("s3")},
	}
	if err := s.BatchSet(ctx, entries); err != nil {
		t.Fatalf("BatchSet failed: %v", err)
	}

	want := []string{"scan/a=1", "scan/b=2"}
	if got := collectKeys(t, s, kv.Key{"scan"}); !slices.Equal(got, want) {
		t.Fatalf("List scan = %v, want %v", got, want)
	}
	want = []string{"stream/0000002a/a=s1", "stream/0000002a/b=s2"}
	if got := collectKeys(t, s, kv.Key{"stream", "0000002a"}); !slices.Equal(got, want) {
		t.Fatalf("List stream/0000002a = %v, want %v", got, want)
	}
	if got := collectKeys(t, s, nil); len(got) != 5 {
		t.Fatalf("List all: got %d entries, want 5: %v", len(got), got)
	}
}

func testListPrefixBoundary(t *testing.T, s kv.Store) {
	ctx := context.Background()
	entries := []kv.Entry{
		{Key: kv.Key{"ab", "1"}, Value: []byte("yes")},
		{Key: kv.Key{"abc", "2"}, Value: []byte("no")},
		{Key: kv.Key{"ab", "3"}, Value: []byte("yes")},
		{Key: kv.Key{"ab"}, Value: []byte("self")},
	}
	if err := s.BatchSet(ctx, entries); err != nil {
		t.Fatalf("BatchSet failed: %v", err)
	}

	want := []string{"ab/1=yes", "ab/3=yes"}
	if got := collectKeys(t, s, kv.Key{"ab"}); !slices.Equal(got, want) {
		t.Fatalf("List ab = %v, want %v", got, want)
	}
}

func testListEarlyBreak(t *testing.T, s kv.Store) {
	ctx := context.Background()
	for _, id := range []string{"1", "2", "3"} {
		if err := s.Set(ctx, kv.Key{"n", id}, []byte(id)); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
	}
	n := 0
	for _, err := range s.List(ctx, kv.Key{"n"}) {
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		n++
		break
	}
	if n != 1 {
		t.Fatalf("iterated %d entries after break, want 1", n)
	}
}

func testBatch(t *testing.T, s kv.Store) {
	ctx := context.Background()
	entries := []kv.Entry{
		{Key: kv.Key{"a", "1"}, Value: []byte("v1")},
		{Key: kv.Key{"a", "2"}, Value: []byte("v2")},
		{Key: kv.Key{"a", "3"}, Value: []byte("v3")},
	}
	if err := s.BatchSet(ctx, entries); err != nil {
		t.Fatalf("BatchSet failed: %v", err)
	}
	if err := s.BatchDelete(ctx, []kv.Key{{"a", "1"}, {"a", "2"}}); err != nil {
		t.Fatalf("BatchDelete failed: %v", err)
	}

	want := []string{"a/3=v3"}
	if got := collectKeys(t, s, kv.Key{"a"}); !slices.Equal(got, want) {
		t.Fatalf("List a = %v, want %v", got, want)
	}
}

func testCustomSeparator(t *testing.T, s kv.Store) {
	ctx := context.Background()
	key := kv.Key{"path", "to", "value"}
	if err := s.Set(ctx, key, []byte("data")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Key.String always joins with '/', whatever the storage separator.
	want := []string{"path/to/value=data"}
	if got := collectKeys(t, s, kv.Key{"path", "to"}); !slices.Equal(got, want) {
		t.Fatalf("List = %v, want %v", got, want)
	}
	if err := s.Set(ctx, kv.Key{"a:b"}, nil); !errors.Is(err, kv.ErrInvalidKey) {
		t.Fatalf("Set with separator in segment: err = %v, want ErrInvalidKey", err)
	}
}

func testValueIsolation(t *testing.T, s kv.Store) {
	ctx := context.Background()
	key := kv.Key{"iso", "test"}
	original := []byte("original")
	if err := s.Set(ctx, key, original); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	original[0] = 'X'

	got, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got[0] != 'o' {
		t.Fatal("store value was mutated via original slice")
	}
	got[0] = 'Y'
	got2, _ := s.Get(ctx, key)
	if got2[0] != 'o' {
		t.Fatal("store value was mutated via returned slice")
	}
}

func testInvalidKey(t *testing.T, s kv.Store) {
	ctx := context.Background()
	tests := []struct {
		name string
		key  kv.Key
	}{
		{"empty", kv.Key{}},
		{"empty segment", kv.Key{"scan", ""}},
		{"separator", kv.Key{"bad/seg", "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.Set(ctx, tt.key, []byte("v")); !errors.Is(err, kv.ErrInvalidKey) {
				t.Errorf("Set err = %v, want ErrInvalidKey", err)
			}
			if _, err := s.Get(ctx, tt.key); !errors.Is(err, kv.ErrInvalidKey) {
				t.Errorf("Get err = %v, want ErrInvalidKey", err)
			}
		})
	}

	for _, err := range s.List(ctx, kv.Key{"bad/prefix"}) {
		if !errors.Is(err, kv.ErrInvalidKey) {
			t.Errorf("List err = %v, want ErrInvalidKey", err)
		}
	}
}

func TestKeyHelpers(t *testing.T) {
	base := kv.Key{"stream", "0000002a"}
	k := base.Append("scan1")
	if k.String() != "stream/0000002a/scan1" {
		t.Errorf("Append = %q", k.String())
	}
	if len(base) != 2 {
		t.Errorf("Append modified the receiver: %v", base)
	}
	if k.Last() != "scan1" || (kv.Key{}).Last() != "" {
		t.Errorf("Last = %q", k.Last())
	}
}
