package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/learnhub/catalog-service/internal/catalog"
	"github.com/learnhub/catalog-service/pkg/logger"
)

// MongoRepo implements Repository on a MongoDB collection. The record id is
// stored as _id and rendered as id.
type MongoRepo[T catalog.Record] struct {
	col *mongo.Collection
}

// NewMongoRepo ensures a secondary index on each of indexFields. Index
// failures are logged; queries still work without them.
func NewMongoRepo[T catalog.Record](col *mongo.Collection, indexFields ...string) *MongoRepo[T] {
	if len(indexFields) > 0 {
		models := make([]mongo.IndexModel, 0, len(indexFields))
		for _, f := range indexFields {
			models = append(models, mongo.IndexModel{Keys: bson.D{{Key: f, Value: 1}}})
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := col.Indexes().CreateMany(ctx, models); err != nil {
			logger.WithFields(logger.Fields{"collection": col.Name(), "error": err}).Warn("create indexes failed")
		}
	}
	return &MongoRepo[T]{col: col}
}

// NewMongoStore returns a Store over db. Closing the store disconnects the
// client that owns db.
func NewMongoStore(db *mongo.Database) *Store {
	client := db.Client()
	return &Store{
		Backend:   "mongo",
		Resources: NewMongoRepo[catalog.Resource](db.Collection(catalog.ResourcesCollection), "type", "authorId"),
		Ratings:   NewMongoRepo[catalog.Rating](db.Collection(catalog.RatingsCollection), "resourceId"),
		Feedback:  NewMongoRepo[catalog.Feedback](db.Collection(catalog.FeedbackCollection), "resourceId"),
		ping:      func(ctx context.Context) error { return client.Ping(ctx, nil) },
		close:     client.Disconnect,
	}
}

func mongoFilter(f Filter) bson.M {
	m := bson.M{}
	for k, v := range f {
		if k == "id" {
			k = "_id"
		}
		m[k] = v
	}
	return m
}

func (m *MongoRepo[T]) Get(ctx context.Context, id string) (T, error) {
	var rec T
	err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return rec, ErrNotFound
		}
		return rec, err
	}
	return rec, nil
}

func (m *MongoRepo[T]) List(ctx context.Context, filter Filter) ([]T, error) {
	cur, err := m.col.Find(ctx, mongoFilter(filter))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []T{}
	for cur.Next(ctx) {
		var rec T
		if err := cur.Decode(&rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, cur.Err()
}

func (m *MongoRepo[T]) Insert(ctx context.Context, rec T) (T, error) {
	if rec.RecordID() == "" {
		return rec, ErrMissingID
	}
	if _, err := m.col.InsertOne(ctx, rec); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return rec, ErrDuplicate
		}
		return rec, err
	}
	return rec, nil
}

func (m *MongoRepo[T]) Update(ctx context.Context, id string, patch Patch) (T, error) {
	var rec T
	set := bson.M{}
	for k, v := range patch {
		if k == "id" {
			continue
		}
		set[k] = v
	}
	if len(set) == 0 {
		return m.Get(ctx, id)
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := m.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return rec, ErrNotFound
		}
		return rec, err
	}
	return rec, nil
}

func (m *MongoRepo[T]) Delete(ctx context.Context, id string) (bool, error) {
	res, err := m.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (m *MongoRepo[T]) DeleteMany(ctx context.Context, filter Filter) (int64, error) {
	res, err := m.col.DeleteMany(ctx, mongoFilter(filter))
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
