package catalog

import "time"

// Collection names shared by every store backend.
const (
	ResourcesCollection = "resources"
	RatingsCollection   = "ratings"
	FeedbackCollection  = "feedback"
)

// AnonymousUser is recorded when a rating or feedback arrives without a userId.
const AnonymousUser = "anonymous"

// Record is implemented by every persisted entity. FieldValue exposes the
// string-valued fields that can be used in equality filters, keyed by their
// JSON name.
type Record interface {
	RecordID() string
	FieldValue(field string) (string, bool)
}

// Resource is a catalogued learning item.
type Resource struct {
	ID          string    `json:"id" bson:"_id"`
	Title       string    `json:"title" bson:"title"`
	Type        string    `json:"type" bson:"type"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	AuthorID    string    `json:"authorId,omitempty" bson:"authorId,omitempty"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

func (r Resource) RecordID() string { return r.ID }

func (r Resource) FieldValue(field string) (string, bool) {
	switch field {
	case "id":
		return r.ID, true
	case "title":
		return r.Title, true
	case "type":
		return r.Type, true
	case "description":
		return r.Description, true
	case "authorId":
		return r.AuthorID, true
	}
	return "", false
}

// Rating is a single 1-5 score attached to a resource. Ratings are append-only.
type Rating struct {
	ID          string    `json:"id" bson:"_id"`
	ResourceID  string    `json:"resourceId" bson:"resourceId"`
	RatingValue float64   `json:"ratingValue" bson:"ratingValue"`
	UserID      string    `json:"userId" bson:"userId"`
	Timestamp   time.Time `json:"timestamp" bson:"timestamp"`
}

func (r Rating) RecordID() string { return r.ID }

func (r Rating) FieldValue(field string) (string, bool) {
	switch field {
	case "id":
		return r.ID, true
	case "resourceId":
		return r.ResourceID, true
	case "userId":
		return r.UserID, true
	}
	return "", false
}

// Feedback is a free-text comment attached to a resource.
type Feedback struct {
	ID           string    `json:"id" bson:"_id"`
	ResourceID   string    `json:"resourceId" bson:"resourceId"`
	FeedbackText string    `json:"feedbackText" bson:"feedbackText"`
	UserID       string    `json:"userId" bson:"userId"`
	Timestamp    time.Time `json:"timestamp" bson:"timestamp"`
}

func (f Feedback) RecordID() string { return f.ID }

func (f Feedback) FieldValue(field string) (string, bool) {
	switch field {
	case "id":
		return f.ID, true
	case "resourceId":
		return f.ResourceID, true
	case "userId":
		return f.UserID, true
	}
	return "", false
}

// ResourceSummary is the list-view shape of a resource. It never carries
// feedback.
type ResourceSummary struct {
	Resource
	AverageRating float64 `json:"averageRating"`
}

// ResourceDetail is the single-resource shape: summary fields plus the full
// feedback list, which is always rendered as an array.
type ResourceDetail struct {
	Resource
	AverageRating float64    `json:"averageRating"`
	Feedback      []Feedback `json:"feedback"`
}
