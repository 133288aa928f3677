package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/session/core/session"
)

const defaultKeyPrefix = "session:"

const createRetries = 8

// Store persists session records in Redis. Expiry is delegated to Redis
// key TTLs, so expired records vanish without any sweeping.
type Store struct {
	client *redis.Client
	prefix string
}

// Option configures a Store.
type Option func(*Store)

// WithKeyPrefix overrides the "session:" key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a Redis-backed session store using the given client.
func New(client *redis.Client, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: defaultKeyPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(id session.ID) string {
	return s.prefix + id.String()
}

// ttl converts the record expiry into a Redis TTL. The second return value is
// false when the record is already expired and must not be written at all.
func ttl(rec *session.Record, now time.Time) (time.Duration, bool) {
	if rec.ExpiresAt.IsZero() {
		return 0, true
	}
	d := rec.ExpiresAt.Sub(now)
	if d <= 0 {
		return 0, false
	}
	return d, true
}

// Save upserts the record under its ID.
func (s *Store) Save(ctx context.Context, rec *session.Record) error {
	d, live := ttl(rec, time.Now())
	if !live {
		return s.Delete(ctx, rec.ID)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Join(session.ErrEncode, err)
	}
	if err := s.client.Set(ctx, s.key(rec.ID), data, d).Err(); err != nil {
		return fmt.Errorf("redisstore: save: %w", err)
	}
	return nil
}

// Create stores the record only if its ID is vacant, regenerating the ID on
// collision. The record's ID field reflects the ID actually used.
func (s *Store) Create(ctx context.Context, rec *session.Record) error {
	d, live := ttl(rec, time.Now())
	if !live {
		return nil
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Join(session.ErrEncode, err)
	}

	for range createRetries {
		ok, err := s.client.SetNX(ctx, s.key(rec.ID), data, d).Result()
		if err != nil {
			return fmt.Errorf("redisstore: create: %w", err)
		}
		if ok {
			return nil
		}

		id, err := session.NewID()
		if err != nil {
			return err
		}
		rec.ID = id
		if data, err = json.Marshal(rec); err != nil {
			return errors.Join(session.ErrEncode, err)
		}
	}
	return session.ErrIDCollision
}

// Load fetches the record for the given ID. Both a missing key and an expired
// record yield (nil, nil).
func (s *Store) Load(ctx context.Context, id session.ID) (*session.Record, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redisstore: load: %w", err)
	}

	var rec session.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.Join(session.ErrDecode, err)
	}
	// Redis TTLs have second granularity, so cover the sub-second window too.
	if rec.Expired(time.Now()) {
		return nil, nil
	}
	return &rec, nil
}

// Delete removes the record. Deleting an absent ID is a no-op.
func (s *Store) Delete(ctx context.Context, id session.ID) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("redisstore: delete: %w", err)
	}
	return nil
}
