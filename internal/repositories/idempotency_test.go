package repository_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	repository "github.com/aurelle-beauty/commerce-platform/internal/repositories"
	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyRepo_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - Returns Stored Record", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		repo := repository.NewIdempotencyRepo(client)

		record := repository.IdempotencyRecord{OrderID: uuid.New(), ClientSecret: "pi_123_secret"}
		data, err := json.Marshal(record)
		require.NoError(t, err)

		mock.ExpectGet("checkout_idem:key-1").SetVal(string(data))

		got, err := repo.Get(ctx, "key-1")

		assert.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, record.OrderID, got.OrderID)
		assert.Equal(t, "pi_123_secret", got.ClientSecret)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success - Missing Key Returns Nil", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		repo := repository.NewIdempotencyRepo(client)

		mock.ExpectGet("checkout_idem:key-1").RedisNil()

		got, err := repo.Get(ctx, "key-1")

		assert.NoError(t, err)
		assert.Nil(t, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestIdempotencyRepo_Put(t *testing.T) {
	ctx := context.Background()
	record := repository.IdempotencyRecord{OrderID: uuid.New(), ClientSecret: "pi_123_secret"}
	data, _ := json.Marshal(record)

	t.Run("Success - Reserves Free Key", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		repo := repository.NewIdempotencyRepo(client)

		mock.ExpectSetNX("checkout_idem:key-1", data, 24*time.Hour).SetVal(true)

		reserved, err := repo.Put(ctx, "key-1", record, 24*time.Hour)

		assert.NoError(t, err)
		assert.True(t, reserved)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success - Lost Reservation Reported", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		repo := repository.NewIdempotencyRepo(client)

		mock.ExpectSetNX("checkout_idem:key-1", data, 24*time.Hour).SetVal(false)

		reserved, err := repo.Put(ctx, "key-1", record, 24*time.Hour)

		assert.NoError(t, err)
		assert.False(t, reserved)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
