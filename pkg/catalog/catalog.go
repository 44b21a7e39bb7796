// Package catalog records probe reports in a kv.Store so that earlier
// scans can be listed, compared and looked up by stream serial.
//
// Layout:
//
//	scan/<id>                 msgpack-encoded Scan
//	serial/<serial>/<id>      empty; indexes scans by logical stream
//
// Scan IDs are UUIDv7, so key order is creation order.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/haivivi/oggmux/pkg/inspect"
	"github.com/haivivi/oggmux/pkg/kv"
)

// ErrNotFound is returned for unknown scan IDs.
var ErrNotFound = errors.New("catalog: scan not found")

// Scan is one recorded probe.
type Scan struct {
	ID      string          `json:"id" yaml:"id" msgpack:"id"`
	Created time.Time       `json:"created" yaml:"created" msgpack:"created"`
	Report  *inspect.Report `json:"report" yaml:"report" msgpack:"report"`
}

// Catalog stores scans.
type Catalog struct {
	store kv.Store
	now   func() time.Time
}

// New creates a Catalog on store. The store is not closed by the Catalog.
func New(store kv.Store) *Catalog {
	return &Catalog{store: store, now: time.Now}
}

func scanKey(id string) kv.Key { return kv.Key{"scan", id} }

func serialKey(serial uint32, id string) kv.Key {
	return kv.Key{"serial", fmt.Sprintf("%08x", serial), id}
}

// Record stores rep as a new scan and returns it.
func (c *Catalog) Record(ctx context.Context, rep *inspect.Report) (*Scan, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("catalog: new id: %w", err)
	}
	scan := &Scan{ID: id.String(), Created: c.now().UTC(), Report: rep}
	data, err := msgpack.Marshal(scan)
	if err != nil {
		return nil, fmt.Errorf("catalog: encode scan: %w", err)
	}

	entries := []kv.Entry{{Key: scanKey(scan.ID), Value: data}}
	for _, s := range rep.Streams {
		entries = append(entries, kv.Entry{Key: serialKey(s.Serial, scan.ID)})
	}
	if err := c.store.BatchSet(ctx, entries); err != nil {
		return nil, err
	}
	return scan, nil
}

// Get returns the scan with the given ID.
func (c *Catalog) Get(ctx context.Context, id string) (*Scan, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	data, err := c.store.Get(ctx, scanKey(id))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	var scan Scan
	if err := msgpack.Unmarshal(data, &scan); err != nil {
		return nil, fmt.Errorf("catalog: decode scan %s: %w", id, err)
	}
	return &scan, nil
}

// List yields all scans, oldest first.
func (c *Catalog) List(ctx context.Context) iter.Seq2[*Scan, error] {
	return func(yield func(*Scan, error) bool) {
		for entry, err := range c.store.List(ctx, kv.Key{"scan"}) {
			if err != nil {
				yield(nil, err)
				return
			}
			var scan Scan
			if err := msgpack.Unmarshal(entry.Value, &scan); err != nil {
				if !yield(nil, fmt.Errorf("catalog: decode scan %s: %w", entry.Key.Last(), err)) {
					return
				}
				continue
			}
			if !yield(&scan, nil) {
				return
			}
		}
	}
}

// Recent returns up to n scans, newest first.
func (c *Catalog) Recent(ctx context.Context, n int) ([]*Scan, error) {
	if n <= 0 {
		return nil, nil
	}
	var all []*Scan
	for scan, err := range c.List(ctx) {
		if err != nil {
			return nil, err
		}
		all = append(all, scan)
	}
	out := make([]*Scan, 0, min(n, len(all)))
	for i := len(all) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

// BySerial returns the IDs of scans that saw the logical stream serial,
// oldest first.
func (c *Catalog) BySerial(ctx context.Context, serial uint32) ([]string, error) {
	var ids []string
	prefix := kv.Key{"serial", fmt.Sprintf("%08x", serial)}
	for entry, err := range c.store.List(ctx, prefix) {
		if err != nil {
			return nil, err
		}
		ids = append(ids, entry.Key.Last())
	}
	return ids, nil
}

// Delete removes a scan and its serial index entries.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	scan, err := c.Get(ctx, id)
	if err != nil {
		return err
	}
	keys := []kv.Key{scanKey(id)}
	for _, s := range scan.Report.Streams {
		keys = append(keys, serialKey(s.Serial, id))
	}
	return c.store.BatchDelete(ctx, keys)
}
