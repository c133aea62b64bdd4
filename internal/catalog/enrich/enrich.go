package enrich

import (
	"context"

	"github.com/learnhub/catalog-service/internal/catalog"
)

// Aggregator is the read side the enricher composes with.
type Aggregator interface {
	AverageRating(ctx context.Context, resourceID string) (float64, error)
	FeedbackFor(ctx context.Context, resourceID string) ([]catalog.Feedback, error)
}

// Enricher shapes base resource records into their list and detail views.
type Enricher struct {
	agg Aggregator
}

func New(agg Aggregator) *Enricher {
	return &Enricher{agg: agg}
}

// Summary is the list-view shape: resource fields plus averageRating.
func (e *Enricher) Summary(ctx context.Context, r catalog.Resource) (catalog.ResourceSummary, error) {
	avg, err := e.agg.AverageRating(ctx, r.ID)
	if err != nil {
		return catalog.ResourceSummary{}, err
	}
	return catalog.ResourceSummary{Resource: r, AverageRating: avg}, nil
}

// Summaries enriches every resource for a list response.
func (e *Enricher) Summaries(ctx context.Context, rs []catalog.Resource) ([]catalog.ResourceSummary, error) {
	out := make([]catalog.ResourceSummary, 0, len(rs))
	for _, r := range rs {
		s, err := e.Summary(ctx, r)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Detail is the single-resource shape: summary fields plus the full feedback
// list.
func (e *Enricher) Detail(ctx context.Context, r catalog.Resource) (catalog.ResourceDetail, error) {
	avg, err := e.agg.AverageRating(ctx, r.ID)
	if err != nil {
		return catalog.ResourceDetail{}, err
	}
	fb, err := e.agg.FeedbackFor(ctx, r.ID)
	if err != nil {
		return catalog.ResourceDetail{}, err
	}
	if fb == nil {
		fb = []catalog.Feedback{}
	}
	return catalog.ResourceDetail{Resource: r, AverageRating: avg, Feedback: fb}, nil
}
