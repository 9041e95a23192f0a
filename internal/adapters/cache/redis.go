package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/domain"
	"github.com/viralforge/mesh/services/trust-compliance/M49-dispute-tribunal-service/internal/ports"
)

// Connect initializes a Redis client from URL or host:port input.
// Supporting both formats keeps local/dev and container config paths simple.
func Connect(_ context.Context, redisURL string) (*redis.Client, error) {
	if strings.HasPrefix(redisURL, "redis://") {
		opt, parseErr := redis.ParseURL(redisURL)
		if parseErr != nil {
			return nil, fmt.Errorf("parse redis url: %w", parseErr)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: redisURL}), nil
}

const (
	idempotencyKeyPrefix = "tribunal:idem:"
	eventDedupKeyPrefix  = "tribunal:dedup:"
)

type storedIdempotencyRecord struct {
	RequestHash  string    `json:"request_hash"`
	ResponseCode int       `json:"response_code"`
	ResponseBody []byte    `json:"response_body,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// RedisIdempotencyStore shares idempotency state across replicas. Reserve is
// a SETNX race: the first writer wins, a second writer with a different
// request hash sees conflict.
type RedisIdempotencyStore struct {
	client *redis.Client
}

func NewRedisIdempotencyStore(client *redis.Client) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{client: client}
}

func (s *RedisIdempotencyStore) Get(ctx context.Context, key string, _ time.Time) (*ports.IdempotencyRecord, error) {
	raw, err := s.client.Get(ctx, idempotencyKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var stored storedIdempotencyRecord
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, err
	}
	return &ports.IdempotencyRecord{
		Key:          key,
		RequestHash:  stored.RequestHash,
		ResponseCode: stored.ResponseCode,
		ResponseBody: stored.ResponseBody,
		ExpiresAt:    stored.ExpiresAt,
	}, nil
}

func (s *RedisIdempotencyStore) Reserve(ctx context.Context, key, requestHash string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		ttl = time.Minute
	}
	payload, _ := json.Marshal(storedIdempotencyRecord{RequestHash: requestHash, ExpiresAt: expiresAt})
	set, err := s.client.SetNX(ctx, idempotencyKeyPrefix+key, payload, ttl).Result()
	if err != nil {
		return err
	}
	if set {
		return nil
	}
	existing, err := s.client.Get(ctx, idempotencyKeyPrefix+key).Bytes()
	if err != nil {
		return err
	}
	var stored storedIdempotencyRecord
	if err := json.Unmarshal(existing, &stored); err != nil {
		return err
	}
	if stored.RequestHash != requestHash {
		return domain.ErrConflict
	}
	return nil
}

func (s *RedisIdempotencyStore) Complete(ctx context.Context, key string, responseCode int, responseBody []byte, at time.Time) error {
	redisKey := idempotencyKeyPrefix + key
	existing, err := s.client.Get(ctx, redisKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}
	var stored storedIdempotencyRecord
	if err := json.Unmarshal(existing, &stored); err != nil {
		return err
	}
	stored.ResponseCode = responseCode
	stored.ResponseBody = responseBody
	if at.After(stored.ExpiresAt) {
		stored.ExpiresAt = at.Add(7 * 24 * time.Hour)
	}
	payload, _ := json.Marshal(stored)
	return s.client.Set(ctx, redisKey, payload, time.Until(stored.ExpiresAt)).Err()
}

// RedisEventDedupStore remembers published event ids for the dedup window.
type RedisEventDedupStore struct {
	client *redis.Client
}

func NewRedisEventDedupStore(client *redis.Client) *RedisEventDedupStore {
	return &RedisEventDedupStore{client: client}
}

func (s *RedisEventDedupStore) IsDuplicate(ctx context.Context, eventID string, _ time.Time) (bool, error) {
	n, err := s.client.Exists(ctx, eventDedupKeyPrefix+eventID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisEventDedupStore) MarkProcessed(ctx context.Context, eventID, eventType string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		ttl = time.Minute
	}
	return s.client.Set(ctx, eventDedupKeyPrefix+eventID, eventType, ttl).Err()
}
