package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/learnhub/catalog-service/pkg/logger"
)

// ConnectMongo opens a connection and returns the client. Caller should call client.Disconnect(ctx).
func ConnectMongo(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	clientOpts := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// ConnectMongoWithRetry tolerates startup races with the database container:
// it retries ConnectMongo up to attempts times, doubling the wait from
// initialBackoff between tries.
func ConnectMongoWithRetry(ctx context.Context, uri string, timeout time.Duration, attempts int, initialBackoff time.Duration) (*mongo.Client, error) {
	return retry(ctx, "MongoDB", attempts, initialBackoff, func() (*mongo.Client, error) {
		return ConnectMongo(ctx, uri, timeout)
	})
}

func retry[T any](ctx context.Context, what string, attempts int, backoff time.Duration, connect func() (T, error)) (T, error) {
	if attempts < 1 {
		attempts = 1
	}
	var (
		client T
		err    error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		client, err = connect()
		if err == nil {
			return client, nil
		}
		logger.Warnf("attempt %d/%d: failed to connect to %s: %v", attempt, attempts, what, err)
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return client, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return client, fmt.Errorf("could not connect to %s after %d attempts: %w", what, attempts, err)
}
