package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps snapshots in Redis so several API instances can share
// editing sessions. Updates use WATCH/MULTI so a concurrent write between
// the version check and the SET aborts with ErrVersionConflict.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects to Redis at addr.
func NewRedisStore(addr string, db int, prefix string, ttl time.Duration) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	return NewRedisStoreWithClient(rdb, prefix, ttl)
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

// Ping checks connectivity.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the client's connections.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) key(id string) string {
	return r.prefix + id
}

// Create stores a new snapshot, failing if the id is already taken.
func (r *RedisStore) Create(ctx context.Context, snap *Snapshot) error {
	prepareCreate(snap, time.Now().UTC())
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode preview session: %w", err)
	}

	created, err := r.client.SetNX(ctx, r.key(snap.ID), data, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to store preview session: %w", err)
	}
	if !created {
		return fmt.Errorf("preview session %s already exists", snap.ID)
	}
	return nil
}

// Get loads a snapshot.
func (r *RedisStore) Get(ctx context.Context, id string) (*Snapshot, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load preview session: %w", err)
	}
	return decodeSnapshot(data)
}

// Update writes snap if the stored version still equals expectedVersion.
func (r *RedisStore) Update(ctx context.Context, snap *Snapshot, expectedVersion int64) error {
	key := r.key(snap.ID)

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrNotFound
			}
			return err
		}
		current, err := decodeSnapshot(data)
		if err != nil {
			return err
		}
		if current.Version != expectedVersion {
			return ErrVersionConflict
		}

		next := snap.Clone()
		next.Version = expectedVersion + 1
		next.UpdatedAt = time.Now().UTC()
		encoded, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("failed to encode preview session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, r.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		snap.Version = next.Version
		snap.UpdatedAt = next.UpdatedAt
		return nil
	}, key)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.TxFailedErr):
		return ErrVersionConflict
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrVersionConflict):
		return err
	}
	return fmt.Errorf("failed to update preview session: %w", err)
}

// Delete removes a snapshot.
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete preview session: %w", err)
	}
	return nil
}

func decodeSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode preview session: %w", err)
	}
	return &snap, nil
}
