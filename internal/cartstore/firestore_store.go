package cartstore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/aurelle-beauty/commerce-platform/internal/config"
	"github.com/aurelle-beauty/commerce-platform/internal/models"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type firestoreUserStore struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreClient connects to the cart document store. An empty
// credentials file falls back to Application Default Credentials.
func NewFirestoreClient(ctx context.Context, cfg *config.Firestore) (*firestore.Client, error) {
	var (
		client *firestore.Client
		err    error
	)

	if cfg.CredentialsFile != "" {
		client, err = firestore.NewClient(ctx, cfg.ProjectID, option.WithCredentialsFile(cfg.CredentialsFile))
	} else {
		client, err = firestore.NewClient(ctx, cfg.ProjectID)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	return client, nil
}

func NewFirestoreUserStore(client *firestore.Client, collection string) UserStore {
	if collection == "" {
		collection = "carts"
	}

	return &firestoreUserStore{client: client, collection: collection}
}

func (s *firestoreUserStore) Get(ctx context.Context, userID string) (*models.Cart, error) {
	snap, err := s.client.Collection(s.collection).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrCartNotFound
		}

		return nil, fmt.Errorf("failed to get cart document %s: %w", userID, err)
	}

	if !snap.Exists() {
		return nil, ErrCartNotFound
	}

	cart := &models.Cart{}
	if err := snap.DataTo(cart); err != nil {
		return nil, fmt.Errorf("failed to decode cart document %s: %w", userID, err)
	}

	// Doc id is authoritative over whatever the blob carries.
	cart.OwnerKey = userID

	return cart, nil
}

func (s *firestoreUserStore) Save(ctx context.Context, userID string, cart *models.Cart) error {
	cart.OwnerKey = userID

	// Full-document overwrite, never a delta.
	if _, err := s.client.Collection(s.collection).Doc(userID).Set(ctx, cart); err != nil {
		return fmt.Errorf("failed to write cart document %s: %w", userID, err)
	}

	return nil
}

func (s *firestoreUserStore) Delete(ctx context.Context, userID string) error {
	if _, err := s.client.Collection(s.collection).Doc(userID).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete cart document %s: %w", userID, err)
	}

	return nil
}
