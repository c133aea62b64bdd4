package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/learnhub/catalog-service/internal/catalog"
	"github.com/learnhub/catalog-service/internal/storage"
)

func TestSnapshotStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	fs, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	s, err := OpenSnapshotStore(ctx, "file", fs)
	require.NoError(t, err)
	_, err = s.Resources.Insert(ctx, catalog.Resource{ID: "r1", Title: "SICP", Type: "book"})
	require.NoError(t, err)
	_, err = s.Feedback.Insert(ctx, catalog.Feedback{ID: "f1", ResourceID: "r1", FeedbackText: "classic", UserID: catalog.AnonymousUser})
	require.NoError(t, err)
	_, err = s.Resources.Update(ctx, "r1", Patch{"description": "wizard book"})
	require.NoError(t, err)

	reopened, err := OpenSnapshotStore(ctx, "file", fs)
	require.NoError(t, err)
	got, err := reopened.Resources.Get(ctx, "r1")
	require.NoError(t, err)
	require.Equal(t, "wizard book", got.Description)
	fb, err := reopened.Feedback.List(ctx, Filter{"resourceId": "r1"})
	require.NoError(t, err)
	require.Len(t, fb, 1)
	require.Equal(t, "classic", fb[0].FeedbackText)

	n, err := reopened.Feedback.DeleteMany(ctx, Filter{"resourceId": "r1"})
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	again, err := OpenSnapshotStore(ctx, "file", fs)
	require.NoError(t, err)
	fb, err = again.Feedback.List(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, fb)
}

func TestSnapshotStore_RejectsCorruptSnapshot(t *testing.T) {
	ctx := context.Background()
	fs, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, fs.Put(ctx, catalog.ResourcesCollection+".json", []byte("{not json")))

	_, err = OpenSnapshotStore(ctx, "file", fs)
	require.Error(t, err)
}

// flakyBlob fails every Put while failing is set.
type flakyBlob struct {
	storage.BlobStore
	failing bool
}

func (b *flakyBlob) Put(ctx context.Context, key string, data []byte) error {
	if b.failing {
		return errors.New("disk full")
	}
	return b.BlobStore.Put(ctx, key, data)
}

func TestSnapshotRepo_FailedWriteLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	fs, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	blob := &flakyBlob{BlobStore: fs}

	repo, err := OpenSnapshotRepo[catalog.Rating](ctx, blob, catalog.RatingsCollection+".json")
	require.NoError(t, err)
	_, err = repo.Insert(ctx, catalog.Rating{ID: "r1", ResourceID: "x", RatingValue: 5})
	require.NoError(t, err)

	blob.failing = true

	_, err = repo.Insert(ctx, catalog.Rating{ID: "r2", ResourceID: "x", RatingValue: 3})
	require.Error(t, err)
	_, err = repo.Get(ctx, "r2")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = repo.Update(ctx, "r1", Patch{"ratingValue": 1})
	require.Error(t, err)
	got, err := repo.Get(ctx, "r1")
	require.NoError(t, err)
	require.Equal(t, 5.0, got.RatingValue)

	ok, err := repo.Delete(ctx, "r1")
	require.Error(t, err)
	require.False(t, ok)
	_, err = repo.Get(ctx, "r1")
	require.NoError(t, err)

	n, err := repo.DeleteMany(ctx, Filter{"resourceId": "x"})
	require.Error(t, err)
	require.Zero(t, n)
	all, err := repo.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "r1", all[0].ID)

	// once writes succeed again the collection on disk matches memory
	blob.failing = false
	ok, err = repo.Delete(ctx, "r1")
	require.NoError(t, err)
	require.True(t, ok)
	reopened, err := OpenSnapshotRepo[catalog.Rating](ctx, fs, catalog.RatingsCollection+".json")
	require.NoError(t, err)
	all, err = reopened.List(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, all)
}
