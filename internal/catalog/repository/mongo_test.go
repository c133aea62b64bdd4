package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/learnhub/catalog-service/internal/catalog"
)

// MongoRepoTestSuite runs against a live server named by MONGODB_TEST_URI.
type MongoRepoTestSuite struct {
	suite.Suite
	client *mongo.Client
	db     *mongo.Database
	store  *Store
}

func (s *MongoRepoTestSuite) SetupSuite() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(os.Getenv("MONGODB_TEST_URI")))
	s.Require().NoError(err)
	s.Require().NoError(client.Ping(ctx, nil))
	s.client = client
	s.db = client.Database("catalog_repository_test")
}

func (s *MongoRepoTestSuite) SetupTest() {
	s.Require().NoError(s.db.Drop(context.Background()))
	s.store = NewMongoStore(s.db)
}

func (s *MongoRepoTestSuite) TearDownSuite() {
	_ = s.db.Drop(context.Background())
	_ = s.client.Disconnect(context.Background())
}

func (s *MongoRepoTestSuite) TestResourceRoundTrip() {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)
	_, err := s.store.Resources.Insert(ctx, catalog.Resource{ID: "r1", Title: "Go tour", Type: "tutorial", CreatedAt: now, UpdatedAt: now})
	s.Require().NoError(err)
	_, err = s.store.Resources.Insert(ctx, catalog.Resource{ID: "r1", Title: "dup", Type: "x"})
	s.ErrorIs(err, ErrDuplicate)

	got, err := s.store.Resources.Get(ctx, "r1")
	s.Require().NoError(err)
	s.Equal("Go tour", got.Title)
	s.True(now.Equal(got.CreatedAt))

	upd, err := s.store.Resources.Update(ctx, "r1", Patch{"description": "d"})
	s.Require().NoError(err)
	s.Equal("d", upd.Description)
	s.Equal("tutorial", upd.Type)

	list, err := s.store.Resources.List(ctx, Filter{"type": "tutorial"})
	s.Require().NoError(err)
	s.Len(list, 1)

	ok, err := s.store.Resources.Delete(ctx, "r1")
	s.Require().NoError(err)
	s.True(ok)
	_, err = s.store.Resources.Get(ctx, "r1")
	s.ErrorIs(err, ErrNotFound)
}

func (s *MongoRepoTestSuite) TestDeleteManyByResource() {
	ctx := context.Background()
	for _, id := range []string{"a", "b"} {
		_, err := s.store.Ratings.Insert(ctx, catalog.Rating{ID: id, ResourceID: "r1", RatingValue: 3})
		s.Require().NoError(err)
	}
	_, err := s.store.Ratings.Insert(ctx, catalog.Rating{ID: "c", ResourceID: "r2", RatingValue: 3})
	s.Require().NoError(err)

	n, err := s.store.Ratings.DeleteMany(ctx, Filter{"resourceId": "r1"})
	s.Require().NoError(err)
	s.EqualValues(2, n)
	left, err := s.store.Ratings.List(ctx, nil)
	s.Require().NoError(err)
	s.Len(left, 1)
}

func TestMongoRepoTestSuite(t *testing.T) {
	if os.Getenv("MONGODB_TEST_URI") == "" {
		t.Skip("MONGODB_TEST_URI not set")
	}
	suite.Run(t, new(MongoRepoTestSuite))
}
