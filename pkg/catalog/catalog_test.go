package catalog

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/haivivi/oggmux/pkg/inspect"
	"github.com/haivivi/oggmux/pkg/kv"
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	store := kv.NewMemory(nil)
	t.Cleanup(func() { store.Close() })
	c := New(store)
	clock := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return c
}

func report(source string, serials ...uint32) *inspect.Report {
	rep := &inspect.Report{Source: source, Pages: int64(len(serials)) * 2}
	for _, s := range serials {
		rep.Streams = append(rep.Streams, &inspect.StreamReport{Serial: s, Pages: 2, Packets: 3, BOS: true, EOS: true})
	}
	return rep
}

func TestRecordGet(t *testing.T) {
	ctx := context.Background()
	c := newTestCatalog(t)

	scan, err := c.Record(ctx, report("a.ogg", 0x2a, 0x2b))
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	got, err := c.Get(ctx, scan.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.ID != scan.ID || !got.Created.Equal(scan.Created) {
		t.Errorf("scan = %+v, want %+v", got, scan)
	}
	if got.Report.Source != "a.ogg" || len(got.Report.Streams) != 2 || got.Report.Streams[1].Serial != 0x2b {
		t.Errorf("report = %+v", got.Report)
	}
	if !got.Report.Healthy() {
		t.Error("decoded report lost its stream flags")
	}
}

func TestGetNotFound(t *testing.T) {
	c := newTestCatalog(t)
	for _, id := range []string{"not-a-uuid", "0190d5a4-0000-7000-8000-000000000000"} {
		if _, err := c.Get(context.Background(), id); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get(%q) err = %v, want ErrNotFound", id, err)
		}
	}
}

func TestListAndRecent(t *testing.T) {
	ctx := context.Background()
	c := newTestCatalog(t)

	var ids []string
	for _, src := range []string{"1.ogg", "2.ogg", "3.ogg"} {
		scan, err := c.Record(ctx, report(src, 1))
		if err != nil {
			t.Fatalf("Record failed: %v", err)
		}
		ids = append(ids, scan.ID)
	}

	var listed []string
	for scan, err := range c.List(ctx) {
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		listed = append(listed, scan.ID)
	}
	if !slices.Equal(listed, ids) {
		t.Fatalf("List = %v, want creation order %v", listed, ids)
	}

	recent, err := c.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 2 || recent[0].Report.Source != "3.ogg" || recent[1].Report.Source != "2.ogg" {
		t.Fatalf("Recent = %+v", recent)
	}
	if r, _ := c.Recent(ctx, 0); r != nil {
		t.Errorf("Recent(0) = %v, want nil", r)
	}
}

func TestBySerialAndDelete(t *testing.T) {
	ctx := context.Background()
	c := newTestCatalog(t)

	s1, _ := c.Record(ctx, report("a.ogg", 7, 8))
	s2, _ := c.Record(ctx, report("b.ogg", 8))

	ids, err := c.BySerial(ctx, 8)
	if err != nil {
		t.Fatalf("BySerial failed: %v", err)
	}
	if !slices.Equal(ids, []string{s1.ID, s2.ID}) {
		t.Fatalf("BySerial(8) = %v", ids)
	}

	if err := c.Delete(ctx, s1.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := c.Get(ctx, s1.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete err = %v", err)
	}
	ids, _ = c.BySerial(ctx, 8)
	if !slices.Equal(ids, []string{s2.ID}) {
		t.Fatalf("BySerial(8) after delete = %v", ids)
	}
	if ids, _ := c.BySerial(ctx, 7); len(ids) != 0 {
		t.Fatalf("BySerial(7) after delete = %v", ids)
	}
	if err := c.Delete(ctx, s1.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Delete err = %v, want ErrNotFound", err)
	}
}
