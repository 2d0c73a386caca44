package session

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const lockStripes = 64

// RedisStore persists sessions as JSON values with a TTL equal to the idle
// timeout, so expiry is enforced by Redis itself. A striped set of in-process
// mutexes serializes updates per session key.
type RedisStore struct {
	redis       *redis.Client
	idleTimeout time.Duration
	tracer      trace.Tracer

	locks [lockStripes]sync.Mutex
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client, idleTimeout time.Duration, tracer trace.Tracer) *RedisStore {
	if client == nil {
		panic("session: redis client cannot be nil")
	}
	if idleTimeout <= 0 {
		idleTimeout = 30 * time.Minute
	}
	if tracer == nil {
		tracer = otel.Tracer("hospital-assistant.internal.session")
	}
	return &RedisStore{
		redis:       client,
		idleTimeout: idleTimeout,
		tracer:      tracer,
	}
}

func sessionKey(id string) string {
	return fmt.Sprintf("booking_session:%s", id)
}

func (s *RedisStore) lockFor(id string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(id))
	return &s.locks[h.Sum32()%lockStripes]
}

func (s *RedisStore) save(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	if err := s.redis.Set(ctx, sessionKey(sess.ID), data, s.idleTimeout).Err(); err != nil {
		return fmt.Errorf("session: persist: %w", err)
	}
	return nil
}

func (s *RedisStore) load(ctx context.Context, id string) (*Session, error) {
	data, err := s.redis.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("session: load: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("session: decode: %w", err)
	}
	return &sess, nil
}

// Create registers a new session at the first conversation step.
func (s *RedisStore) Create(ctx context.Context) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "session.create")
	defer span.End()

	now := time.Now().UTC()
	sess := &Session{
		ID:        uuid.NewString(),
		Step:      StepName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.save(ctx, sess); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return sess, nil
}

// Get returns the stored session.
func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "session.get")
	defer span.End()

	sess, err := s.load(ctx, id)
	if err != nil && err != ErrSessionNotFound {
		span.RecordError(err)
	}
	return sess, err
}

// Update applies mutate under the per-key lock and refreshes the TTL.
func (s *RedisStore) Update(ctx context.Context, id string, mutate func(*Session) error) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "session.update")
	defer span.End()

	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	sess, err := s.load(ctx, id)
	if err != nil {
		if err != ErrSessionNotFound {
			span.RecordError(err)
		}
		return nil, err
	}
	if err := mutate(sess); err != nil {
		return nil, err
	}
	sess.UpdatedAt = time.Now().UTC()
	if err := s.save(ctx, sess); err != nil {
		span.RecordError(err)
		return nil, err
	}
	return sess, nil
}

// Delete removes a session; absent keys are a no-op.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "session.delete")
	defer span.End()

	if err := s.redis.Del(ctx, sessionKey(id)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: delete: %w", err)
	}
	return nil
}
