// Package redis provides Redis-backed implementations of the snapshot store
// and distributed locker ports.
package redis

import (
	"context"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	backend "github.com/redis/go-redis/v9"

	"github.com/DrewCarlson/Fin/pkg/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Store implements ports.SnapshotStore using Redis.
// Snapshots are stored as JSON values, with a ZSET index for listing.
type Store[S any] struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Option configures a Store.
type Option[S any] func(*Store[S])

// WithTTL sets the expiration for snapshots. Zero means no expiration.
func WithTTL[S any](ttl time.Duration) Option[S] {
	return func(s *Store[S]) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for snapshots.
func WithPrefix[S any](prefix string) Option[S] {
	return func(s *Store[S]) {
		s.prefix = prefix
	}
}

// New creates a Redis store with its own client.
func New[S any](address, password string, db int, opts ...Option[S]) *Store[S] {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient creates a Redis store from an existing client.
func NewFromClient[S any](client *backend.Client, opts ...Option[S]) *Store[S] {
	store := &Store[S]{
		client: client,
		prefix: "fin:snapshot:",
		ttl:    0,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store[S]) key(id string) string {
	return s.prefix + id
}

func (s *Store[S]) indexKey() string {
	return s.prefix + "index"
}

// Save persists the snapshot and registers it in the index.
func (s *Store[S]) Save(ctx context.Context, id string, state S) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.key(id), data, s.ttl)

	// Index score doubles as the expiry instant so List can prune lazily.
	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01, effectively never
	}
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{
		Score:  score,
		Member: id,
	})

	if _, err = pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves the snapshot from Redis.
func (s *Store[S]) Load(ctx context.Context, id string) (S, error) {
	var state S

	val, err := s.client.Get(ctx, s.key(id)).Result()
	if err != nil {
		if err == backend.Nil {
			return state, domain.ErrSnapshotNotFound
		}
		return state, fmt.Errorf("failed to get from redis: %w", err)
	}

	if err := json.Unmarshal([]byte(val), &state); err != nil {
		return state, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return state, nil
}

// Delete removes the snapshot and its index entry.
func (s *Store[S]) Delete(ctx context.Context, id string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.key(id))
	pipe.ZRem(ctx, s.indexKey(), id)

	_, err := pipe.Exec(ctx)
	return err
}

// List returns the IDs of live snapshots, pruning expired index entries
// first.
func (s *Store[S]) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())

	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired snapshots: %w", err)
	}

	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return ids, nil
}

// Close closes the redis client.
func (s *Store[S]) Close() error {
	return s.client.Close()
}
