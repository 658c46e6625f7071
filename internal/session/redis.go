package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abdulmunimjemal/ai-interviewer/internal/transcript"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "interview:session:"

	// maxUpdateAttempts bounds optimistic retries when WATCH detects a
	// concurrent write. Only the store round trip is retried, never a
	// provider call.
	maxUpdateAttempts = 10
)

// RedisStore keeps transcripts as JSON strings with SET EX.
type RedisStore struct {
	rdb *redis.Client
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient creates a client and verifies the connection.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("could not connect to redis at %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

// NewRedisStore wraps an existing client.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func key(handle string) string {
	return keyPrefix + handle
}

func (s *RedisStore) Put(ctx context.Context, handle string, t transcript.Transcript, ttl time.Duration) error {
	if ttl <= 0 {
		return errInvalidTTL
	}
	data, err := transcript.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}
	if err := s.rdb.Set(ctx, key(handle), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, handle string) (transcript.Transcript, error) {
	data, err := s.rdb.Get(ctx, key(handle)).Bytes()
	if errors.Is(err, redis.Nil) {
		return transcript.Transcript{}, ErrNotFound
	}
	if err != nil {
		return transcript.Transcript{}, fmt.Errorf("redis get: %w", err)
	}
	return transcript.Unmarshal(data)
}

// Update runs fn inside WATCH/MULTI so that a concurrent writer aborts the
// transaction instead of being silently overwritten.
func (s *RedisStore) Update(ctx context.Context, handle string, fn UpdateFunc) (transcript.Transcript, error) {
	k := key(handle)
	var out transcript.Transcript

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, k).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("redis get: %w", err)
		}
		cur, err := transcript.Unmarshal(data)
		if err != nil {
			return err
		}
		next, err := fn(cur)
		if err != nil {
			return err
		}
		if next.TTL() <= 0 {
			return errInvalidTTL
		}
		payload, err := transcript.Marshal(next)
		if err != nil {
			return fmt.Errorf("marshal transcript: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, payload, next.TTL())
			return nil
		})
		if err != nil {
			return err
		}
		out = next
		return nil
	}

	for i := 0; i < maxUpdateAttempts; i++ {
		err := s.rdb.Watch(ctx, txf, k)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return transcript.Transcript{}, err
		}
		return out, nil
	}
	return transcript.Transcript{}, ErrConflict
}

// Close closes the underlying client.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
