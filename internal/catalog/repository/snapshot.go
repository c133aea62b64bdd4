package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/learnhub/catalog-service/internal/catalog"
	"github.com/learnhub/catalog-service/internal/storage"
)

// SnapshotRepo keeps a collection in memory and writes the whole collection as
// one JSON array to a BlobStore after every mutation. It backs the file and
// MinIO store modes.
type SnapshotRepo[T catalog.Record] struct {
	mem  *MemoryRepo[T]
	blob storage.BlobStore
	key  string
	// held across mutate+persist so snapshots are written in mutation order
	mu sync.Mutex
}

// OpenSnapshotRepo loads key from blob. A missing key starts an empty
// collection.
func OpenSnapshotRepo[T catalog.Record](ctx context.Context, blob storage.BlobStore, key string) (*SnapshotRepo[T], error) {
	r := &SnapshotRepo[T]{mem: NewMemoryRepo[T](), blob: blob, key: key}
	data, err := blob.Get(ctx, key)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", key, err)
	}
	var recs []T
	if len(data) > 0 {
		if err := json.Unmarshal(data, &recs); err != nil {
			return nil, fmt.Errorf("decode snapshot %s: %w", key, err)
		}
	}
	r.mem.load(recs)
	return r, nil
}

// OpenSnapshotStore opens the three collections from blob. backend names the
// store mode for readiness reporting.
func OpenSnapshotStore(ctx context.Context, backend string, blob storage.BlobStore) (*Store, error) {
	resources, err := OpenSnapshotRepo[catalog.Resource](ctx, blob, catalog.ResourcesCollection+".json")
	if err != nil {
		return nil, err
	}
	ratings, err := OpenSnapshotRepo[catalog.Rating](ctx, blob, catalog.RatingsCollection+".json")
	if err != nil {
		return nil, err
	}
	feedback, err := OpenSnapshotRepo[catalog.Feedback](ctx, blob, catalog.FeedbackCollection+".json")
	if err != nil {
		return nil, err
	}
	s := &Store{Backend: backend, Resources: resources, Ratings: ratings, Feedback: feedback}
	if p, ok := blob.(interface{ Ping(context.Context) error }); ok {
		s.ping = p.Ping
	}
	return s, nil
}

// commit writes the current collection to the blob store. When the write
// fails the working set is restored to prev, so reads never show a change
// that is not on disk.
func (r *SnapshotRepo[T]) commit(ctx context.Context, prev []T) error {
	err := r.persist(ctx)
	if err != nil {
		r.mem.load(prev)
	}
	return err
}

func (r *SnapshotRepo[T]) persist(ctx context.Context) error {
	data, err := json.MarshalIndent(r.mem.all(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", r.key, err)
	}
	if err := r.blob.Put(ctx, r.key, data); err != nil {
		return fmt.Errorf("write snapshot %s: %w", r.key, err)
	}
	return nil
}

func (r *SnapshotRepo[T]) Get(ctx context.Context, id string) (T, error) {
	return r.mem.Get(ctx, id)
}

func (r *SnapshotRepo[T]) List(ctx context.Context, filter Filter) ([]T, error) {
	return r.mem.List(ctx, filter)
}

func (r *SnapshotRepo[T]) Insert(ctx context.Context, rec T) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.mem.all()
	out, err := r.mem.Insert(ctx, rec)
	if err != nil {
		return out, err
	}
	if err := r.commit(ctx, prev); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func (r *SnapshotRepo[T]) Update(ctx context.Context, id string, patch Patch) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.mem.all()
	out, err := r.mem.Update(ctx, id, patch)
	if err != nil {
		return out, err
	}
	if err := r.commit(ctx, prev); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func (r *SnapshotRepo[T]) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.mem.all()
	ok, err := r.mem.Delete(ctx, id)
	if err != nil || !ok {
		return ok, err
	}
	if err := r.commit(ctx, prev); err != nil {
		return false, err
	}
	return true, nil
}

func (r *SnapshotRepo[T]) DeleteMany(ctx context.Context, filter Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.mem.all()
	n, err := r.mem.DeleteMany(ctx, filter)
	if err != nil || n == 0 {
		return n, err
	}
	if err := r.commit(ctx, prev); err != nil {
		return 0, err
	}
	return n, nil
}
