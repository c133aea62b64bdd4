package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/learnhub/catalog-service/internal/catalog"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
	ErrMissingID = errors.New("record has no id")
)

// Filter is a field-equality predicate keyed by JSON field name. An empty
// filter matches every record.
type Filter map[string]string

// Patch is a shallow set of field replacements keyed by JSON field name.
type Patch map[string]any

// Repository is the persistence contract for one collection. Implementations
// serialize access per record; nothing spans collections.
type Repository[T catalog.Record] interface {
	Get(ctx context.Context, id string) (T, error)
	List(ctx context.Context, filter Filter) ([]T, error)
	Insert(ctx context.Context, rec T) (T, error)
	Update(ctx context.Context, id string, patch Patch) (T, error)
	Delete(ctx context.Context, id string) (bool, error)
	DeleteMany(ctx context.Context, filter Filter) (int64, error)
}

// Store groups the three catalog collections behind one handle with its own
// lifecycle.
type Store struct {
	Backend   string
	Resources Repository[catalog.Resource]
	Ratings   Repository[catalog.Rating]
	Feedback  Repository[catalog.Feedback]

	ping  func(ctx context.Context) error
	close func(ctx context.Context) error
}

// Ping reports whether the backing store is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s.ping == nil {
		return nil
	}
	return s.ping(ctx)
}

// Close releases the backend connection, if any.
func (s *Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// Matches reports whether rec satisfies every clause of f.
func (f Filter) Matches(rec catalog.Record) bool {
	for field, want := range f {
		got, ok := rec.FieldValue(field)
		if !ok || got != want {
			return false
		}
	}
	return true
}

// applyPatch merges patch over rec through the record's JSON form. The id
// field is never replaced.
func applyPatch[T catalog.Record](rec T, patch Patch) (T, error) {
	var out T
	raw, err := json.Marshal(rec)
	if err != nil {
		return out, fmt.Errorf("encode record: %w", err)
	}
	doc := map[string]any{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return out, fmt.Errorf("decode record: %w", err)
	}
	for k, v := range patch {
		if k == "id" {
			continue
		}
		doc[k] = v
	}
	raw, err = json.Marshal(doc)
	if err != nil {
		return out, fmt.Errorf("encode patched record: %w", err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode patched record: %w", err)
	}
	return out, nil
}
