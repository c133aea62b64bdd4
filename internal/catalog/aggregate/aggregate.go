// Package aggregate derives per-resource statistics from the raw rating and
// feedback collections. Every call reads the store; nothing is cached.
package aggregate

import (
	"context"
	"fmt"

	"github.com/montanaflynn/stats"

	"github.com/learnhub/catalog-service/internal/catalog"
	"github.com/learnhub/catalog-service/internal/catalog/repository"
)

// RatingPrecision is the number of decimal places averages are rounded to
// (half away from zero) on every read path.
const RatingPrecision = 2

// Engine computes aggregates over a Store.
type Engine struct {
	ratings  repository.Repository[catalog.Rating]
	feedback repository.Repository[catalog.Feedback]
}

func NewEngine(store *repository.Store) *Engine {
	return &Engine{ratings: store.Ratings, feedback: store.Feedback}
}

// AverageRating returns the mean ratingValue of the resource's ratings, or 0
// when it has none.
func (e *Engine) AverageRating(ctx context.Context, resourceID string) (float64, error) {
	ratings, err := e.ratings.List(ctx, repository.Filter{"resourceId": resourceID})
	if err != nil {
		return 0, fmt.Errorf("list ratings: %w", err)
	}
	return Average(ratings), nil
}

// FeedbackFor returns the resource's feedback entries. The result is never nil.
func (e *Engine) FeedbackFor(ctx context.Context, resourceID string) ([]catalog.Feedback, error) {
	fb, err := e.feedback.List(ctx, repository.Filter{"resourceId": resourceID})
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	if fb == nil {
		fb = []catalog.Feedback{}
	}
	return fb, nil
}

// Average is the rounded arithmetic mean of the rating values.
func Average(ratings []catalog.Rating) float64 {
	if len(ratings) == 0 {
		return 0
	}
	values := make(stats.Float64Data, 0, len(ratings))
	for _, r := range ratings {
		values = append(values, r.RatingValue)
	}
	mean, err := values.Mean()
	if err != nil {
		return 0
	}
	rounded, err := stats.Round(mean, RatingPrecision)
	if err != nil {
		return 0
	}
	return rounded
}
