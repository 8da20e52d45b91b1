package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// IdempotencyRecord is the full outcome of a completed create-intent call.
// The client secret is stored alongside the order id so a replayed request
// gets back everything it needs to confirm the payment, not just a reference
// to an order it cannot pay for.
type IdempotencyRecord struct {
	OrderID      uuid.UUID `json:"order_id"`
	ClientSecret string    `json:"client_secret"`
}

// IdempotencyRepository remembers which order and payment intent a
// client-supplied idempotency key already produced, so a retried
// create-intent call does not spawn a duplicate of either.
type IdempotencyRepository interface {
	// Get returns nil when the key has no record yet.
	Get(ctx context.Context, key string) (*IdempotencyRecord, error)
	// Put reserves the key atomically; false means another request with the
	// same key won the reservation first.
	Put(ctx context.Context, key string, record IdempotencyRecord, ttl time.Duration) (bool, error)
}

const idempotencyKeyPrefix = "checkout_idem:"

type redisIdempotencyRepo struct {
	client *redis.Client
}

func NewIdempotencyRepo(client *redis.Client) IdempotencyRepository {
	return &redisIdempotencyRepo{client: client}
}

func (r *redisIdempotencyRepo) Get(ctx context.Context, key string) (*IdempotencyRecord, error) {
	val, err := r.client.Get(ctx, idempotencyKeyPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read idempotency key: %w", err)
	}

	var record IdempotencyRecord
	if err := json.Unmarshal([]byte(val), &record); err != nil {
		return nil, fmt.Errorf("corrupt idempotency entry for key %s: %w", key, err)
	}

	return &record, nil
}

func (r *redisIdempotencyRepo) Put(ctx context.Context, key string, record IdempotencyRecord, ttl time.Duration) (bool, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return false, fmt.Errorf("failed to encode idempotency record: %w", err)
	}

	reserved, err := r.client.SetNX(ctx, idempotencyKeyPrefix+key, payload, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to reserve idempotency key: %w", err)
	}

	return reserved, nil
}
