package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/catalog-service/internal/catalog"
	"github.com/learnhub/catalog-service/internal/catalog/repository"
	"github.com/learnhub/catalog-service/pkg/metrics"
)

func newTestService(t *testing.T) (*Service, *repository.Store) {
	t.Helper()
	store := repository.NewMemoryStore()
	svc := New(store)
	n := 0
	svc.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	return svc, store
}

func mustCreate(t *testing.T, svc *Service, title, typ string) catalog.Resource {
	t.Helper()
	r, err := svc.CreateResource(context.Background(), ResourceInput{Title: title, Type: typ})
	require.NoError(t, err)
	return r
}

func TestCreateResource_RoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateResource(ctx, ResourceInput{Title: " Effective Go ", Type: "article", Description: "style guide", AuthorID: "a1"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	require.False(t, created.CreatedAt.IsZero())
	require.Equal(t, created.CreatedAt, created.UpdatedAt)

	got, err := svc.GetResource(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, " Effective Go ", got.Title)
	assert.Equal(t, "article", got.Type)
	assert.Equal(t, "style guide", got.Description)
	assert.Equal(t, "a1", got.AuthorID)
	assert.True(t, created.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, 0.0, got.AverageRating)
	assert.NotNil(t, got.Feedback)
	assert.Empty(t, got.Feedback)
}

func TestCreateResource_Validation(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateResource(ctx, ResourceInput{Type: "video"})
	require.ErrorIs(t, err, catalog.ErrValidation)
	_, err = svc.CreateResource(ctx, ResourceInput{Title: "x", Type: "   "})
	require.ErrorIs(t, err, catalog.ErrValidation)

	all, err := store.Resources.List(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestListResources_FiltersAndAverages(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	a, err := svc.CreateResource(ctx, ResourceInput{Title: "A", Type: "video", AuthorID: "u1"})
	require.NoError(t, err)
	_, err = svc.CreateResource(ctx, ResourceInput{Title: "B", Type: "book", AuthorID: "u1"})
	require.NoError(t, err)
	_, err = svc.CreateResource(ctx, ResourceInput{Title: "C", Type: "video", AuthorID: "u2"})
	require.NoError(t, err)

	for _, v := range []interface{}{2.0, 4.0, 5.0} {
		_, err := svc.CreateRating(ctx, a.ID, RatingInput{Value: v})
		require.NoError(t, err)
	}

	all, err := svc.ListResources(ctx, ResourceFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	videos, err := svc.ListResources(ctx, ResourceFilter{Type: "video"})
	require.NoError(t, err)
	require.Len(t, videos, 2)

	mine, err := svc.ListResources(ctx, ResourceFilter{Type: "video", AuthorID: "u1"})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, a.ID, mine[0].ID)

	// list and detail views apply the same rounding
	require.Equal(t, 3.67, mine[0].AverageRating)
	detail, err := svc.GetResource(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, mine[0].AverageRating, detail.AverageRating)
}

func TestUpdateResource_PartialMerge(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	created, err := svc.CreateResource(ctx, ResourceInput{Title: "T", Type: "course", AuthorID: "u1"})
	require.NoError(t, err)

	desc := "new"
	upd, err := svc.UpdateResource(ctx, created.ID, ResourcePatch{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "new", upd.Description)
	assert.Equal(t, "T", upd.Title)
	assert.Equal(t, "course", upd.Type)
	assert.Equal(t, "u1", upd.AuthorID)
	assert.True(t, upd.CreatedAt.Equal(created.CreatedAt))
	// the clock did not move, yet updatedAt must still advance
	assert.True(t, upd.UpdatedAt.After(created.UpdatedAt))
	assert.NotNil(t, upd.Feedback)
}

func TestUpdateResource_KeepsSubmittedWhitespace(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	r := mustCreate(t, svc, "T", "course")

	title, typ := "  Go Tour", "video "
	_, err := svc.UpdateResource(ctx, r.ID, ResourcePatch{Title: &title, Type: &typ})
	require.NoError(t, err)

	got, err := svc.GetResource(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "  Go Tour", got.Title)
	assert.Equal(t, "video ", got.Type)
}

func TestUpdateResource_Errors(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	r := mustCreate(t, svc, "T", "course")

	_, err := svc.UpdateResource(ctx, r.ID, ResourcePatch{})
	require.ErrorIs(t, err, catalog.ErrValidation)

	spaces := " "
	_, err = svc.UpdateResource(ctx, r.ID, ResourcePatch{Title: &spaces})
	require.ErrorIs(t, err, catalog.ErrValidation)

	title := "x"
	_, err = svc.UpdateResource(ctx, "missing", ResourcePatch{Title: &title})
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestParseRatingValue(t *testing.T) {
	for _, ok := range []interface{}{1.0, 5.0, 3.5, "4", " 2.5 ", json.Number("3"), 2} {
		_, err := ParseRatingValue(ok)
		assert.NoError(t, err, "value %v", ok)
	}
	for _, bad := range []interface{}{0.0, 6.0, 0.99, 5.01, "abc", "", nil, true, map[string]interface{}{}, "NaN", "Inf"} {
		_, err := ParseRatingValue(bad)
		assert.ErrorIs(t, err, catalog.ErrValidation, "value %v", bad)
	}
}

func TestCreateRating_RejectsWithoutWriting(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	r := mustCreate(t, svc, "T", "course")

	for _, v := range []interface{}{0, 6, "abc"} {
		_, err := svc.CreateRating(ctx, r.ID, RatingInput{Value: v})
		require.ErrorIs(t, err, catalog.ErrValidation)
	}
	_, err := svc.CreateRating(ctx, "missing", RatingInput{Value: 3})
	require.ErrorIs(t, err, catalog.ErrNotFound)
	_, err = svc.CreateFeedback(ctx, "missing", FeedbackInput{Text: "hi"})
	require.ErrorIs(t, err, catalog.ErrNotFound)
	_, err = svc.CreateFeedback(ctx, r.ID, FeedbackInput{Text: "   "})
	require.ErrorIs(t, err, catalog.ErrValidation)

	ratings, err := store.Ratings.List(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, ratings)
	fb, err := store.Feedback.List(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, fb)
}

func TestCreateRatingAndFeedback_ReturnDetail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	r := mustCreate(t, svc, "T", "course")
	before := testutil.ToFloat64(metrics.RecordsCreated.WithLabelValues(catalog.RatingsCollection))

	d, err := svc.CreateRating(ctx, r.ID, RatingInput{Value: "4"})
	require.NoError(t, err)
	require.Equal(t, 4.0, d.AverageRating)
	require.Equal(t, before+1, testutil.ToFloat64(metrics.RecordsCreated.WithLabelValues(catalog.RatingsCollection)))

	ratings, err := svc.ListRatings(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, ratings, 1)
	require.Equal(t, catalog.AnonymousUser, ratings[0].UserID)

	d, err = svc.CreateFeedback(ctx, r.ID, FeedbackInput{Text: "  solid intro  ", UserID: "u9"})
	require.NoError(t, err)
	require.Len(t, d.Feedback, 1)
	require.Equal(t, "solid intro", d.Feedback[0].FeedbackText)
	require.Equal(t, "u9", d.Feedback[0].UserID)
}

func TestDeleteResource_Cascades(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	r := mustCreate(t, svc, "T", "course")
	other := mustCreate(t, svc, "O", "course")

	_, err := svc.CreateRating(ctx, r.ID, RatingInput{Value: 2})
	require.NoError(t, err)
	_, err = svc.CreateRating(ctx, r.ID, RatingInput{Value: 5})
	require.NoError(t, err)
	d, err := svc.CreateFeedback(ctx, r.ID, FeedbackInput{Text: "ok"})
	require.NoError(t, err)
	fbID := d.Feedback[0].ID
	_, err = svc.CreateRating(ctx, other.ID, RatingInput{Value: 1})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteResource(ctx, r.ID))

	_, err = svc.GetResource(ctx, r.ID)
	require.ErrorIs(t, err, catalog.ErrNotFound)
	left, err := store.Ratings.List(ctx, repository.Filter{"resourceId": r.ID})
	require.NoError(t, err)
	require.Empty(t, left)
	_, err = store.Feedback.Get(ctx, fbID)
	require.ErrorIs(t, err, repository.ErrNotFound)

	// dependents of other resources survive
	kept, err := store.Ratings.List(ctx, repository.Filter{"resourceId": other.ID})
	require.NoError(t, err)
	require.Len(t, kept, 1)

	// never succeeds twice
	require.ErrorIs(t, svc.DeleteResource(ctx, r.ID), catalog.ErrNotFound)
	require.ErrorIs(t, svc.DeleteResource(ctx, r.ID), catalog.ErrNotFound)
}

// failingDeletes wraps a rating repository whose DeleteMany always fails.
type failingDeletes struct {
	repository.Repository[catalog.Rating]
}

func (failingDeletes) DeleteMany(context.Context, repository.Filter) (int64, error) {
	return 0, errors.New("connection reset")
}

func TestDeleteResource_DependentFailureStillSucceeds(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	r := mustCreate(t, svc, "T", "course")
	_, err := svc.CreateFeedback(ctx, r.ID, FeedbackInput{Text: "ok"})
	require.NoError(t, err)

	store.Ratings = failingDeletes{store.Ratings}
	before := testutil.ToFloat64(metrics.CascadeFailures.WithLabelValues(catalog.RatingsCollection))

	require.NoError(t, svc.DeleteResource(ctx, r.ID))
	require.Equal(t, before+1, testutil.ToFloat64(metrics.CascadeFailures.WithLabelValues(catalog.RatingsCollection)))

	// feedback cascade still ran after the rating cascade failed
	fb, err := store.Feedback.List(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, fb)
}

func TestFeedback_PairMustMatch(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	a := mustCreate(t, svc, "A", "course")
	b := mustCreate(t, svc, "B", "course")

	d, err := svc.CreateFeedback(ctx, b.ID, FeedbackInput{Text: "belongs to B"})
	require.NoError(t, err)
	fbID := d.Feedback[0].ID

	_, err = svc.UpdateFeedback(ctx, a.ID, fbID, "tampered")
	require.ErrorIs(t, err, catalog.ErrNotFound)
	require.ErrorIs(t, svc.DeleteFeedback(ctx, a.ID, fbID), catalog.ErrNotFound)

	stored, err := store.Feedback.Get(ctx, fbID)
	require.NoError(t, err)
	require.Equal(t, "belongs to B", stored.FeedbackText)
	require.Equal(t, b.ID, stored.ResourceID)

	_, err = svc.UpdateFeedback(ctx, b.ID, "missing", "x")
	require.ErrorIs(t, err, catalog.ErrNotFound)
	_, err = svc.UpdateFeedback(ctx, b.ID, fbID, "  ")
	require.ErrorIs(t, err, catalog.ErrValidation)
}

func TestFeedback_UpdateAndDelete(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	fixed := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }
	r := mustCreate(t, svc, "A", "course")

	d, err := svc.CreateFeedback(ctx, r.ID, FeedbackInput{Text: "first"})
	require.NoError(t, err)
	orig := d.Feedback[0]

	upd, err := svc.UpdateFeedback(ctx, r.ID, orig.ID, " second ")
	require.NoError(t, err)
	require.Equal(t, "second", upd.FeedbackText)
	require.Equal(t, orig.ID, upd.ID)
	require.Equal(t, orig.UserID, upd.UserID)
	require.True(t, upd.Timestamp.After(orig.Timestamp))

	require.NoError(t, svc.DeleteFeedback(ctx, r.ID, orig.ID))
	require.ErrorIs(t, svc.DeleteFeedback(ctx, r.ID, orig.ID), catalog.ErrNotFound)

	list, err := svc.ListFeedback(ctx, r.ID)
	require.NoError(t, err)
	require.Empty(t, list)
}
