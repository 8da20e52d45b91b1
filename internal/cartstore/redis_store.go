package cartstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aurelle-beauty/commerce-platform/internal/models"
	"github.com/redis/go-redis/v9"
)

// Guest carts expire on their own; a device that never logs in should not
// leave a blob behind forever.
const guestCartTTL = 30 * 24 * time.Hour

const guestCartKeyPrefix = "guest_cart:"

type redisGuestStore struct {
	client *redis.Client
}

func NewRedisGuestStore(client *redis.Client) GuestStore {
	return &redisGuestStore{client: client}
}

func guestCartKey(deviceID string) string {
	return guestCartKeyPrefix + deviceID
}

func (s *redisGuestStore) Get(ctx context.Context, deviceID string) (*models.Cart, error) {
	data, err := s.client.Get(ctx, guestCartKey(deviceID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCartNotFound
		}

		return nil, fmt.Errorf("failed to get guest cart %s from redis: %w", deviceID, err)
	}

	cart := &models.Cart{}
	if err := json.Unmarshal(data, cart); err != nil {
		return nil, fmt.Errorf("failed to unmarshal guest cart %s: %w", deviceID, err)
	}

	return cart, nil
}

func (s *redisGuestStore) Save(ctx context.Context, deviceID string, cart *models.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("failed to marshal guest cart %s: %w", deviceID, err)
	}

	if err := s.client.Set(ctx, guestCartKey(deviceID), data, guestCartTTL).Err(); err != nil {
		return fmt.Errorf("failed to set guest cart %s in redis: %w", deviceID, err)
	}

	return nil
}

func (s *redisGuestStore) Delete(ctx context.Context, deviceID string) error {
	if err := s.client.Del(ctx, guestCartKey(deviceID)).Err(); err != nil {
		return fmt.Errorf("failed to delete guest cart %s from redis: %w", deviceID, err)
	}

	return nil
}
