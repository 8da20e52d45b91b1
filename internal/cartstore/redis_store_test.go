package cartstore_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aurelle-beauty/commerce-platform/internal/cartstore"
	"github.com/aurelle-beauty/commerce-platform/internal/models"
	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisGuestStore_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		store := cartstore.NewRedisGuestStore(client)

		cart := &models.Cart{
			OwnerKey: "device-1",
			Items:    []models.CartItem{{ProductID: uuid.New(), Name: "Clay Mask", UnitPrice: 12, Quantity: 2}},
		}
		data, err := json.Marshal(cart)
		require.NoError(t, err)

		mock.ExpectGet("guest_cart:device-1").SetVal(string(data))

		got, err := store.Get(ctx, "device-1")

		assert.NoError(t, err)
		assert.Equal(t, cart.OwnerKey, got.OwnerKey)
		assert.Len(t, got.Items, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure - Missing Cart", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		store := cartstore.NewRedisGuestStore(client)

		mock.ExpectGet("guest_cart:device-1").RedisNil()

		got, err := store.Get(ctx, "device-1")

		assert.Nil(t, got)
		assert.ErrorIs(t, err, cartstore.ErrCartNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRedisGuestStore_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("Success - Sets Expiry", func(t *testing.T) {
		client, mock := redismock.NewClientMock()
		store := cartstore.NewRedisGuestStore(client)

		cart := &models.Cart{OwnerKey: "device-1"}
		data, err := json.Marshal(cart)
		require.NoError(t, err)

		mock.ExpectSet("guest_cart:device-1", data, 30*24*time.Hour).SetVal("OK")

		assert.NoError(t, store.Save(ctx, "device-1", cart))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRedisGuestStore_Delete(t *testing.T) {
	ctx := context.Background()

	client, mock := redismock.NewClientMock()
	store := cartstore.NewRedisGuestStore(client)

	mock.ExpectDel("guest_cart:device-1").SetVal(1)

	assert.NoError(t, store.Delete(ctx, "device-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
