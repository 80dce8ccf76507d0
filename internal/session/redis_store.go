// Package session keeps in-progress property edits in Redis between requests.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stwalsh4118/brokerage/internal/models"
)

var (
	// ErrSessionNotFound is returned when no edit is in progress, including
	// after the session expired.
	ErrSessionNotFound = errors.New("edit session not found")
	// ErrConcurrentUpdate is returned when an update kept losing races with
	// other writers.
	ErrConcurrentUpdate = errors.New("edit session changed concurrently")
)

const maxUpdateAttempts = 3

// RedisStore stores one edit session per owner and property.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a store on client. Sessions expire ttl after their
// last write.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "edit-session:",
		ttl:    ttl,
	}
}

func (s *RedisStore) key(ownerID, propertyID uuid.UUID) string {
	return s.prefix + ownerID.String() + ":" + propertyID.String()
}

// Create stores sess unless a session already exists for the same owner and
// property. It returns the stored session and whether it was created by this
// call; an existing session is never overwritten.
func (s *RedisStore) Create(ctx context.Context, sess *models.EditSession) (*models.EditSession, bool, error) {
	data, err := json.Marshal(sess)
	if err != nil {
		return nil, false, fmt.Errorf("marshal edit session: %w", err)
	}

	key := s.key(sess.OwnerID, sess.PropertyID)
	created, err := s.client.SetNX(ctx, key, data, s.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("create edit session: %w", err)
	}
	if created {
		return sess, true, nil
	}

	existing, err := s.Load(ctx, sess.OwnerID, sess.PropertyID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// Load returns the session for owner and property.
func (s *RedisStore) Load(ctx context.Context, ownerID, propertyID uuid.UUID) (*models.EditSession, error) {
	data, err := s.client.Get(ctx, s.key(ownerID, propertyID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load edit session: %w", err)
	}
	return decode(data)
}

// Update applies fn to the stored session and writes it back, retrying when
// another writer got in between. Returning an error from fn leaves the
// session untouched.
func (s *RedisStore) Update(ctx context.Context, ownerID, propertyID uuid.UUID, fn func(*models.EditSession) error) (*models.EditSession, error) {
	key := s.key(ownerID, propertyID)
	var updated *models.EditSession

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("load edit session: %w", err)
		}

		sess, err := decode(data)
		if err != nil {
			return err
		}
		if err := fn(sess); err != nil {
			return err
		}

		out, err := json.Marshal(sess)
		if err != nil {
			return fmt.Errorf("marshal edit session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, s.ttl)
			return nil
		})
		if err != nil {
			return err
		}
		updated = sess
		return nil
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, ErrConcurrentUpdate
}

// Delete removes the session. Deleting a missing session is not an error.
func (s *RedisStore) Delete(ctx context.Context, ownerID, propertyID uuid.UUID) error {
	if err := s.client.Del(ctx, s.key(ownerID, propertyID)).Err(); err != nil {
		return fmt.Errorf("delete edit session: %w", err)
	}
	return nil
}

// TTL reports how long the session has left.
func (s *RedisStore) TTL(ctx context.Context, ownerID, propertyID uuid.UUID) (time.Duration, error) {
	ttl, err := s.client.TTL(ctx, s.key(ownerID, propertyID)).Result()
	if err != nil {
		return 0, fmt.Errorf("edit session ttl: %w", err)
	}
	if ttl < 0 {
		return 0, ErrSessionNotFound
	}
	return ttl, nil
}

func decode(data []byte) (*models.EditSession, error) {
	var sess models.EditSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal edit session: %w", err)
	}
	return &sess, nil
}
