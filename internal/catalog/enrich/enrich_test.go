package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/learnhub/catalog-service/internal/catalog"
)

type fakeAgg struct {
	avg map[string]float64
	fb  map[string][]catalog.Feedback
	err error
}

func (f *fakeAgg) AverageRating(_ context.Context, id string) (float64, error) {
	return f.avg[id], f.err
}

func (f *fakeAgg) FeedbackFor(_ context.Context, id string) ([]catalog.Feedback, error) {
	return f.fb[id], f.err
}

func keys(t *testing.T, v interface{}) map[string]interface{} {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	out := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(b, &out))
	return out
}

func TestSummary_OmitsFeedback(t *testing.T) {
	e := New(&fakeAgg{avg: map[string]float64{"r1": 3.5}})
	s, err := e.Summary(context.Background(), catalog.Resource{ID: "r1", Title: "t", Type: "video"})
	require.NoError(t, err)

	m := keys(t, s)
	require.NotContains(t, m, "feedback")
	require.Equal(t, 3.5, m["averageRating"])
	require.Equal(t, "r1", m["id"])
	require.Equal(t, "t", m["title"])
}

func TestDetail_AlwaysHasFeedbackArray(t *testing.T) {
	e := New(&fakeAgg{})
	d, err := e.Detail(context.Background(), catalog.Resource{ID: "r1", Title: "t", Type: "video"})
	require.NoError(t, err)

	m := keys(t, d)
	require.Contains(t, m, "feedback")
	require.Equal(t, []interface{}{}, m["feedback"])
	require.Equal(t, 0.0, m["averageRating"])
}

func TestSummaries_PropagatesErrors(t *testing.T) {
	e := New(&fakeAgg{err: errors.New("store down")})
	_, err := e.Summaries(context.Background(), []catalog.Resource{{ID: "r1"}})
	require.Error(t, err)

	e = New(&fakeAgg{avg: map[string]float64{"a": 1, "b": 5}})
	out, err := e.Summaries(context.Background(), []catalog.Resource{{ID: "a"}, {ID: "b"}})
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, 5.0, out[1].AverageRating)
}
