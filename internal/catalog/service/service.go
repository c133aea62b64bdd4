package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/learnhub/catalog-service/internal/catalog"
	"github.com/learnhub/catalog-service/internal/catalog/aggregate"
	"github.com/learnhub/catalog-service/internal/catalog/enrich"
	"github.com/learnhub/catalog-service/internal/catalog/repository"
	"github.com/learnhub/catalog-service/pkg/logger"
	"github.com/learnhub/catalog-service/pkg/metrics"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Service implements the catalog operations on top of a Store. It owns the
// cross-collection rules: existence checks before dependent writes, cascade
// delete, and resource/feedback pair matching.
type Service struct {
	store  *repository.Store
	enrich *enrich.Enricher
	now    func() time.Time
	newID  func() string
}

func New(store *repository.Store) *Service {
	return &Service{
		store:  store,
		enrich: enrich.New(aggregate.NewEngine(store)),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// ResourceFilter narrows ListResources; empty fields are ignored.
type ResourceFilter struct {
	Type     string
	AuthorID string
}

type ResourceInput struct {
	Title       string
	Type        string
	Description string
	AuthorID    string
}

// ResourcePatch carries the fields of a partial update; nil means unchanged.
type ResourcePatch struct {
	Title       *string
	Type        *string
	Description *string
	AuthorID    *string
}

// RatingInput carries the raw rating value as decoded from the request, so
// numeric strings and non-numeric junk can be told apart.
type RatingInput struct {
	Value  interface{}
	UserID string
}

type FeedbackInput struct {
	Text   string
	UserID string
}

// timestamp returns the current time at the precision every backend keeps.
func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// laterThan returns a timestamp strictly after prev.
func (s *Service) laterThan(prev time.Time) time.Time {
	t := s.timestamp()
	if !t.After(prev) {
		t = prev.Add(time.Millisecond)
	}
	return t
}

// blank reports whether s has no visible characters. Values that pass are
// stored as submitted.
func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func userOrAnonymous(id string) string {
	if id = strings.TrimSpace(id); id == "" {
		return catalog.AnonymousUser
	}
	return id
}

func (s *Service) ListResources(ctx context.Context, f ResourceFilter) ([]catalog.ResourceSummary, error) {
	filter := repository.Filter{}
	if f.Type != "" {
		filter["type"] = f.Type
	}
	if f.AuthorID != "" {
		filter["authorId"] = f.AuthorID
	}
	rs, err := s.store.Resources.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	return s.enrich.Summaries(ctx, rs)
}

func (s *Service) getResource(ctx context.Context, id string) (catalog.Resource, error) {
	r, err := s.store.Resources.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return r, catalog.NotFound("resource", id)
		}
		return r, fmt.Errorf("get resource: %w", err)
	}
	return r, nil
}

func (s *Service) GetResource(ctx context.Context, id string) (catalog.ResourceDetail, error) {
	r, err := s.getResource(ctx, id)
	if err != nil {
		return catalog.ResourceDetail{}, err
	}
	return s.enrich.Detail(ctx, r)
}

func (s *Service) CreateResource(ctx context.Context, in ResourceInput) (catalog.Resource, error) {
	if blank(in.Title) {
		return catalog.Resource{}, catalog.Invalid("title", "is required")
	}
	if blank(in.Type) {
		return catalog.Resource{}, catalog.Invalid("type", "is required")
	}
	now := s.timestamp()
	r := catalog.Resource{
		ID:          s.newID(),
		Title:       in.Title,
		Type:        in.Type,
		Description: in.Description,
		AuthorID:    in.AuthorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	out, err := s.store.Resources.Insert(ctx, r)
	if err != nil {
		return catalog.Resource{}, fmt.Errorf("insert resource: %w", err)
	}
	metrics.RecordsCreated.WithLabelValues(catalog.ResourcesCollection).Inc()
	return out, nil
}

func (s *Service) UpdateResource(ctx context.Context, id string, p ResourcePatch) (catalog.ResourceDetail, error) {
	patch := repository.Patch{}
	if p.Title != nil {
		if blank(*p.Title) {
			return catalog.ResourceDetail{}, catalog.Invalid("title", "must not be empty")
		}
		patch["title"] = *p.Title
	}
	if p.Type != nil {
		if blank(*p.Type) {
			return catalog.ResourceDetail{}, catalog.Invalid("type", "must not be empty")
		}
		patch["type"] = *p.Type
	}
	if p.Description != nil {
		patch["description"] = *p.Description
	}
	if p.AuthorID != nil {
		patch["authorId"] = *p.AuthorID
	}
	if len(patch) == 0 {
		return catalog.ResourceDetail{}, catalog.Invalid("", "update payload must contain at least one field")
	}

	cur, err := s.getResource(ctx, id)
	if err != nil {
		return catalog.ResourceDetail{}, err
	}
	patch["updatedAt"] = s.laterThan(cur.UpdatedAt)

	updated, err := s.store.Resources.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return catalog.ResourceDetail{}, catalog.NotFound("resource", id)
		}
		return catalog.ResourceDetail{}, fmt.Errorf("update resource: %w", err)
	}
	return s.enrich.Detail(ctx, updated)
}

// DeleteResource removes the resource, then its ratings and feedback. Once the
// resource is gone the call succeeds even if a dependent delete fails.
func (s *Service) DeleteResource(ctx context.Context, id string) error {
	ok, err := s.store.Resources.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete resource: %w", err)
	}
	if !ok {
		return catalog.NotFound("resource", id)
	}

	filter := repository.Filter{"resourceId": id}
	n, err := s.store.Ratings.DeleteMany(ctx, filter)
	s.recordCascade(id, catalog.RatingsCollection, n, err)
	n, err = s.store.Feedback.DeleteMany(ctx, filter)
	s.recordCascade(id, catalog.FeedbackCollection, n, err)
	return nil
}

func (s *Service) recordCascade(resourceID, collection string, n int64, err error) {
	if err != nil {
		metrics.CascadeFailures.WithLabelValues(collection).Inc()
		logger.WithFields(logger.Fields{"resourceId": resourceID, "collection": collection, "error": err}).Error("cascade delete failed")
		return
	}
	metrics.CascadeDeleted.WithLabelValues(collection).Add(float64(n))
	if n > 0 {
		logger.WithFields(logger.Fields{"resourceId": resourceID, "collection": collection, "count": n}).Debug("cascade delete")
	}
}

// ParseRatingValue accepts a JSON number or a numeric string in [1,5].
func ParseRatingValue(v interface{}) (float64, error) {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0, catalog.Invalid("ratingValue", "is required")
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return 0, catalog.Invalid("ratingValue", "must be a number")
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, catalog.Invalid("ratingValue", "must be a number")
		}
		f = n
	default:
		return 0, catalog.Invalid("ratingValue", "must be a number")
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, catalog.Invalid("ratingValue", "must be a number")
	}
	if f < MinRating || f > MaxRating {
		return 0, catalog.Invalid("ratingValue", fmt.Sprintf("must be between %d and %d", MinRating, MaxRating))
	}
	return f, nil
}

// CreateRating appends a rating and answers with the rated resource's detail
// view.
func (s *Service) CreateRating(ctx context.Context, resourceID string, in RatingInput) (catalog.ResourceDetail, error) {
	value, err := ParseRatingValue(in.Value)
	if err != nil {
		return catalog.ResourceDetail{}, err
	}
	if _, err := s.getResource(ctx, resourceID); err != nil {
		return catalog.ResourceDetail{}, err
	}
	r := catalog.Rating{
		ID:          s.newID(),
		ResourceID:  resourceID,
		RatingValue: value,
		UserID:      userOrAnonymous(in.UserID),
		Timestamp:   s.timestamp(),
	}
	if _, err := s.store.Ratings.Insert(ctx, r); err != nil {
		return catalog.ResourceDetail{}, fmt.Errorf("insert rating: %w", err)
	}
	metrics.RecordsCreated.WithLabelValues(catalog.RatingsCollection).Inc()
	return s.GetResource(ctx, resourceID)
}

func (s *Service) ListRatings(ctx context.Context, resourceID string) ([]catalog.Rating, error) {
	if _, err := s.getResource(ctx, resourceID); err != nil {
		return nil, err
	}
	out, err := s.store.Ratings.List(ctx, repository.Filter{"resourceId": resourceID})
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	return out, nil
}

func (s *Service) CreateFeedback(ctx context.Context, resourceID string, in FeedbackInput) (catalog.ResourceDetail, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return catalog.ResourceDetail{}, catalog.Invalid("feedbackText", "is required")
	}
	if _, err := s.getResource(ctx, resourceID); err != nil {
		return catalog.ResourceDetail{}, err
	}
	fb := catalog.Feedback{
		ID:           s.newID(),
		ResourceID:   resourceID,
		FeedbackText: text,
		UserID:       userOrAnonymous(in.UserID),
		Timestamp:    s.timestamp(),
	}
	if _, err := s.store.Feedback.Insert(ctx, fb); err != nil {
		return catalog.ResourceDetail{}, fmt.Errorf("insert feedback: %w", err)
	}
	metrics.RecordsCreated.WithLabelValues(catalog.FeedbackCollection).Inc()
	return s.GetResource(ctx, resourceID)
}

func (s *Service) ListFeedback(ctx context.Context, resourceID string) ([]catalog.Feedback, error) {
	if _, err := s.getResource(ctx, resourceID); err != nil {
		return nil, err
	}
	out, err := s.store.Feedback.List(ctx, repository.Filter{"resourceId": resourceID})
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	return out, nil
}

// feedbackOf loads a feedback entry and checks it belongs to resourceID. A
// mismatch is reported exactly like a missing entry.
func (s *Service) feedbackOf(ctx context.Context, resourceID, feedbackID string) (catalog.Feedback, error) {
	fb, err := s.store.Feedback.Get(ctx, feedbackID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fb, catalog.NotFound("feedback", feedbackID)
		}
		return fb, fmt.Errorf("get feedback: %w", err)
	}
	if fb.ResourceID != resourceID {
		return catalog.Feedback{}, catalog.NotFound("feedback", feedbackID)
	}
	return fb, nil
}

// UpdateFeedback replaces the text of one entry and returns the entry alone.
func (s *Service) UpdateFeedback(ctx context.Context, resourceID, feedbackID, text string) (catalog.Feedback, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return catalog.Feedback{}, catalog.Invalid("feedbackText", "is required")
	}
	cur, err := s.feedbackOf(ctx, resourceID, feedbackID)
	if err != nil {
		return catalog.Feedback{}, err
	}
	out, err := s.store.Feedback.Update(ctx, feedbackID, repository.Patch{
		"feedbackText": text,
		"timestamp":    s.laterThan(cur.Timestamp),
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return catalog.Feedback{}, catalog.NotFound("feedback", feedbackID)
		}
		return catalog.Feedback{}, fmt.Errorf("update feedback: %w", err)
	}
	return out, nil
}

func (s *Service) DeleteFeedback(ctx context.Context, resourceID, feedbackID string) error {
	if _, err := s.feedbackOf(ctx, resourceID, feedbackID); err != nil {
		return err
	}
	ok, err := s.store.Feedback.Delete(ctx, feedbackID)
	if err != nil {
		return fmt.Errorf("delete feedback: %w", err)
	}
	if !ok {
		return catalog.NotFound("feedback", feedbackID)
	}
	return nil
}
