package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/learnhub/catalog-service/internal/catalog"
)

const redisTxRetries = 10

// RedisRepo implements Repository using Redis as the backing store.
// Records are stored as JSON under "<prefix>:rec:<id>"; "<prefix>:ids" holds
// every id and "<prefix>:idx:<field>:<value>" holds ids per indexed field value.
// Writes to a record run in a WATCH transaction on its key.
type RedisRepo[T catalog.Record] struct {
	client  *redis.Client
	prefix  string
	indexed []string
}

func NewRedisRepo[T catalog.Record](client *redis.Client, prefix string, indexFields ...string) *RedisRepo[T] {
	return &RedisRepo[T]{client: client, prefix: prefix, indexed: indexFields}
}

// NewRedisStore creates a Redis-based catalog store. Prefix may be empty.
func NewRedisStore(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = "catalog:"
	}
	return &Store{
		Backend:   "redis",
		Resources: NewRedisRepo[catalog.Resource](client, prefix+catalog.ResourcesCollection, "type", "authorId"),
		Ratings:   NewRedisRepo[catalog.Rating](client, prefix+catalog.RatingsCollection, "resourceId"),
		Feedback:  NewRedisRepo[catalog.Feedback](client, prefix+catalog.FeedbackCollection, "resourceId"),
		ping:      func(ctx context.Context) error { return client.Ping(ctx).Err() },
		close:     func(context.Context) error { return client.Close() },
	}
}

func (r *RedisRepo[T]) key(id string) string { return r.prefix + ":rec:" + id }

func (r *RedisRepo[T]) idsKey() string { return r.prefix + ":ids" }

func (r *RedisRepo[T]) indexKey(field, value string) string {
	return fmt.Sprintf("%s:idx:%s:%s", r.prefix, field, value)
}

func (r *RedisRepo[T]) isIndexed(field string) bool {
	for _, f := range r.indexed {
		if f == field {
			return true
		}
	}
	return false
}

func (r *RedisRepo[T]) decode(b []byte) (T, error) {
	var rec T
	if err := json.Unmarshal(b, &rec); err != nil {
		return rec, fmt.Errorf("decode %s record: %w", r.prefix, err)
	}
	return rec, nil
}

// watch runs fn in an optimistic transaction on key, retrying when another
// client touched the key first.
func (r *RedisRepo[T]) watch(ctx context.Context, key string, fn func(tx *redis.Tx) error) error {
	for i := 0; i < redisTxRetries; i++ {
		err := r.client.Watch(ctx, fn, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("%s: too many concurrent writers", r.prefix)
}

func (r *RedisRepo[T]) Get(ctx context.Context, id string) (T, error) {
	b, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		var zero T
		if errors.Is(err, redis.Nil) {
			return zero, ErrNotFound
		}
		return zero, err
	}
	return r.decode(b)
}

func (r *RedisRepo[T]) candidateIDs(ctx context.Context, filter Filter) ([]string, error) {
	var keys []string
	for field, value := range filter {
		if r.isIndexed(field) {
			keys = append(keys, r.indexKey(field, value))
		}
	}
	if len(keys) == 0 {
		return r.client.SMembers(ctx, r.idsKey()).Result()
	}
	return r.client.SInter(ctx, keys...).Result()
}

func (r *RedisRepo[T]) List(ctx context.Context, filter Filter) ([]T, error) {
	ids, err := r.candidateIDs(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	pipe := r.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, r.key(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}
	for _, cmd := range cmds {
		b, err := cmd.Bytes()
		if err != nil {
			// deleted between SMEMBERS and GET
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, err
		}
		rec, err := r.decode(b)
		if err != nil {
			return nil, err
		}
		if filter.Matches(rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *RedisRepo[T]) Insert(ctx context.Context, rec T) (T, error) {
	id := rec.RecordID()
	if id == "" {
		return rec, ErrMissingID
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return rec, err
	}
	key := r.key(id)
	err = r.watch(ctx, key, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrDuplicate
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			pipe.SAdd(ctx, r.idsKey(), id)
			for _, f := range r.indexed {
				v, _ := rec.FieldValue(f)
				pipe.SAdd(ctx, r.indexKey(f, v), id)
			}
			return nil
		})
		return err
	})
	return rec, err
}

func (r *RedisRepo[T]) Update(ctx context.Context, id string, patch Patch) (T, error) {
	var out T
	key := r.key(id)
	err := r.watch(ctx, key, func(tx *redis.Tx) error {
		b, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrNotFound
			}
			return err
		}
		cur, err := r.decode(b)
		if err != nil {
			return err
		}
		next, err := applyPatch(cur, patch)
		if err != nil {
			return err
		}
		data, err := json.Marshal(next)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			for _, f := range r.indexed {
				oldV, _ := cur.FieldValue(f)
				newV, _ := next.FieldValue(f)
				if oldV != newV {
					pipe.SRem(ctx, r.indexKey(f, oldV), id)
					pipe.SAdd(ctx, r.indexKey(f, newV), id)
				}
			}
			return nil
		})
		if err == nil {
			out = next
		}
		return err
	})
	return out, err
}

func (r *RedisRepo[T]) Delete(ctx context.Context, id string) (bool, error) {
	deleted := false
	key := r.key(id)
	err := r.watch(ctx, key, func(tx *redis.Tx) error {
		b, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return nil
			}
			return err
		}
		cur, err := r.decode(b)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.SRem(ctx, r.idsKey(), id)
			for _, f := range r.indexed {
				v, _ := cur.FieldValue(f)
				pipe.SRem(ctx, r.indexKey(f, v), id)
			}
			return nil
		})
		deleted = err == nil
		return err
	})
	return deleted, err
}

func (r *RedisRepo[T]) DeleteMany(ctx context.Context, filter Filter) (int64, error) {
	recs, err := r.List(ctx, filter)
	if err != nil {
		return 0, err
	}
	var n int64
	for _, rec := range recs {
		ok, err := r.Delete(ctx, rec.RecordID())
		if err != nil {
			return n, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}
