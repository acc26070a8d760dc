// Package archive serialises full store snapshots and writes them to an
// object store, giving operators point-in-time JSON exports of every record.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"librarycore/internal/infra/blob"
	"librarycore/internal/infra/persistence/memory"
)

// SnapshotSource exposes the serialisable state of a store. All persistent
// store implementations satisfy it through the embedded in-memory store.
type SnapshotSource interface {
	ExportState() memory.Snapshot
}

// Archiver writes store snapshots to a blob store under a time-keyed name.
type Archiver struct {
	source SnapshotSource
	store  blob.Store
	prefix string
	nowFn  func() time.Time
}

// NewArchiver constructs an archiver targeting the supplied blob store.
func NewArchiver(source SnapshotSource, store blob.Store) *Archiver {
	return &Archiver{
		source: source,
		store:  store,
		prefix: "snapshots/",
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// Archive exports the current state and stores it as a JSON object. The
// returned info carries the generated key.
func (a *Archiver) Archive(ctx context.Context) (blob.Info, error) {
	snapshot := a.source.ExportState()
	data, err := json.Marshal(snapshot)
	if err != nil {
		return blob.Info{}, fmt.Errorf("encode snapshot: %w", err)
	}
	key := fmt.Sprintf("%slibrarycore-%s.json", a.prefix, a.nowFn().Format("20060102T150405Z"))
	info, err := a.store.Put(ctx, key, bytes.NewReader(data), blob.PutOptions{ContentType: "application/json"})
	if err != nil {
		return blob.Info{}, fmt.Errorf("store snapshot: %w", err)
	}
	return info, nil
}

// List returns the stored snapshot objects, oldest first.
func (a *Archiver) List(ctx context.Context) ([]blob.Info, error) {
	return a.store.List(ctx, a.prefix)
}
