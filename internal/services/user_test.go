package service_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/aurelle-beauty/commerce-platform/internal/cartstore"
	cartmocks "github.com/aurelle-beauty/commerce-platform/internal/cartstore/mocks"
	"github.com/aurelle-beauty/commerce-platform/internal/config"
	appErrors "github.com/aurelle-beauty/commerce-platform/internal/errors"
	"github.com/aurelle-beauty/commerce-platform/internal/models"
	"github.com/aurelle-beauty/commerce-platform/internal/repositories/mocks"
	service "github.com/aurelle-beauty/commerce-platform/internal/services"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
)

type userFixture struct {
	repo       *mocks.UserRepository
	rateLimit  *mocks.RateLimitRepository
	guestStore *cartmocks.GuestStore
	userStore  *cartmocks.UserStore
	service    *service.UserService
}

func newUserFixture() *userFixture {
	repo := new(mocks.UserRepository)
	rateLimit := new(mocks.RateLimitRepository)
	guestStore := new(cartmocks.GuestStore)
	userStore := new(cartmocks.UserStore)
	productRepo := new(mocks.ProductRepository)

	cfg := &config.Config{Security: config.Security{JWTKey: "test-key"}}
	carts := service.NewCartService(guestStore, userStore, productRepo)

	return &userFixture{
		repo:       repo,
		rateLimit:  rateLimit,
		guestStore: guestStore,
		userStore:  userStore,
		service:    service.NewUserService(repo, rateLimit, carts, cfg),
	}
}

func hashedUser(password string) *models.User {
	hashed, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return &models.User{
		ID:       uuid.New(),
		Name:     "Test User",
		Email:    "test@example.com",
		Password: string(hashed),
		Role:     models.RoleCustomer,
	}
}

func TestRegisterUser(t *testing.T) {
	ctx := context.Background()
	req := &models.RegisterRequest{Name: "Test User", Email: "test@example.com", Password: "P@ssword123!"}

	t.Run("Success", func(t *testing.T) {
		f := newUserFixture()

		f.repo.On("GetUserByEmail", ctx, req.Email).Return(nil, sql.ErrNoRows).Once()
		f.repo.On("CreateUser", ctx, mock.AnythingOfType("*models.User")).Return(nil).Once()

		user, err := f.service.RegisterUser(ctx, req)

		assert.NoError(t, err)
		assert.Equal(t, req.Email, user.Email)
		assert.Equal(t, models.RoleCustomer, user.Role)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)))
		f.repo.AssertExpectations(t)
	})

	t.Run("Failure - Duplicate Email", func(t *testing.T) {
		f := newUserFixture()

		f.repo.On("GetUserByEmail", ctx, req.Email).Return(hashedUser("x"), nil).Once()

		user, err := f.service.RegisterUser(ctx, req)

		assert.Error(t, err)
		assert.Nil(t, user)
		appErr, ok := appErrors.IsAppError(err)
		assert.True(t, ok)
		assert.Equal(t, appErrors.ErrCodeDuplicateEntry, appErr.Code)
		f.repo.AssertNotCalled(t, "CreateUser")
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	req := &models.LoginRequest{Email: "test@example.com", Password: "P@ssword123!"}

	t.Run("Success - Without Device", func(t *testing.T) {
		f := newUserFixture()
		user := hashedUser(req.Password)

		f.rateLimit.On("CheckLoginRateLimit", ctx, req.Email).Return(true, 4, 0, nil).Once()
		f.repo.On("GetUserByEmail", ctx, req.Email).Return(user, nil).Once()

		resp, err := f.service.Login(ctx, req, "")

		assert.NoError(t, err)
		assert.True(t, resp.Success)
		assert.False(t, resp.CartMerged)
		assert.NotEmpty(t, resp.Token)

		claims := &models.Claims{}
		_, parseErr := jwt.ParseWithClaims(resp.Token, claims, func(t *jwt.Token) (any, error) {
			return []byte("test-key"), nil
		})
		assert.NoError(t, parseErr)
		assert.Equal(t, user.ID, claims.UserID)
		f.guestStore.AssertNotCalled(t, "Get")
	})

	t.Run("Success - Merges Guest Cart On Login", func(t *testing.T) {
		f := newUserFixture()
		user := hashedUser(req.Password)

		f.rateLimit.On("CheckLoginRateLimit", ctx, req.Email).Return(true, 4, 0, nil).Once()
		f.repo.On("GetUserByEmail", ctx, req.Email).Return(user, nil).Once()

		f.guestStore.On("Get", ctx, "device-1").Return(&models.Cart{
			OwnerKey: "device-1",
			Items:    []models.CartItem{{ProductID: uuid.New(), Name: "Clay Mask", UnitPrice: 12, Quantity: 1}},
		}, nil).Once()
		f.userStore.On("Get", ctx, user.ID.String()).Return(nil, cartstore.ErrCartNotFound).Once()
		f.userStore.On("Save", ctx, user.ID.String(), mock.AnythingOfType("*models.Cart")).Return(nil).Once()
		f.guestStore.On("Delete", ctx, "device-1").Return(nil).Once()

		resp, err := f.service.Login(ctx, req, "device-1")

		assert.NoError(t, err)
		assert.True(t, resp.Success)
		assert.True(t, resp.CartMerged)
		f.guestStore.AssertExpectations(t)
		f.userStore.AssertExpectations(t)
	})

	t.Run("Success - Login Survives A Failed Merge", func(t *testing.T) {
		f := newUserFixture()
		user := hashedUser(req.Password)

		f.rateLimit.On("CheckLoginRateLimit", ctx, req.Email).Return(true, 4, 0, nil).Once()
		f.repo.On("GetUserByEmail", ctx, req.Email).Return(user, nil).Once()
		f.guestStore.On("Get", ctx, "device-1").Return(nil, assert.AnError).Once()

		resp, err := f.service.Login(ctx, req, "device-1")

		assert.NoError(t, err)
		assert.True(t, resp.Success)
		assert.False(t, resp.CartMerged)
	})

	t.Run("Failure - Wrong Password", func(t *testing.T) {
		f := newUserFixture()
		user := hashedUser("different-password")

		f.rateLimit.On("CheckLoginRateLimit", ctx, req.Email).Return(true, 3, 0, nil).Once()
		f.repo.On("GetUserByEmail", ctx, req.Email).Return(user, nil).Once()

		resp, err := f.service.Login(ctx, req, "")

		assert.Error(t, err)
		assert.False(t, resp.Success)
		assert.Equal(t, 3, resp.RemainingTries)
	})

	t.Run("Failure - Rate Limited", func(t *testing.T) {
		f := newUserFixture()

		f.rateLimit.On("CheckLoginRateLimit", ctx, req.Email).Return(false, 0, 42, nil).Once()

		resp, err := f.service.Login(ctx, req, "")

		assert.Error(t, err)
		assert.False(t, resp.Success)
		assert.Equal(t, 42, resp.RetryAfter)
		f.repo.AssertNotCalled(t, "GetUserByEmail")
	})
}
