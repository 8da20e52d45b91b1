package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/aurelle-beauty/commerce-platform/internal/api/middleware"
	"github.com/aurelle-beauty/commerce-platform/internal/config"
	appErrors "github.com/aurelle-beauty/commerce-platform/internal/errors"
	"github.com/aurelle-beauty/commerce-platform/internal/models"
	repository "github.com/aurelle-beauty/commerce-platform/internal/repositories"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const tokenLifetime = 24 * time.Hour

type UserService struct {
	repo      repository.UserRepository
	rateLimit repository.RateLimitRepository
	carts     *CartService
	cfg       *config.Config
}

func NewUserService(repo repository.UserRepository, rateLimit repository.RateLimitRepository, carts *CartService, cfg *config.Config) *UserService {
	return &UserService{repo: repo, rateLimit: rateLimit, carts: carts, cfg: cfg}
}

func (s *UserService) RegisterUser(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	if _, err := s.repo.GetUserByEmail(ctx, req.Email); err == nil {
		return nil, appErrors.DuplicateEntryError("An account with this email already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.DatabaseError("Failed to check existing account").WithError(err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.InternalError("Failed to hash password").WithError(err)
	}

	user := &models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashed),
		Role:     models.RoleCustomer,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, appErrors.DatabaseError("Failed to create user").WithError(err)
	}

	return user, nil
}

// Login authenticates the user and, when the request carries a device id,
// folds that device's guest cart into the user's cart. A failed merge does
// not fail the login: the session is established either way.
func (s *UserService) Login(ctx context.Context, req *models.LoginRequest, deviceID string) (*models.LoginResponse, error) {
	logger := middleware.LoggerFromContext(ctx)

	allowed, remaining, retryAfter, err := s.rateLimit.CheckLoginRateLimit(ctx, req.Email)
	if err != nil {
		return nil, appErrors.InternalError("Failed to check rate limit").WithError(err)
	}

	if !allowed {
		return &models.LoginResponse{
			Success:    false,
			Message:    "Too many login attempts, please try again later",
			RetryAfter: retryAfter,
		}, appErrors.TooManyRequestsError("Too many login attempts")
	}

	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.LoginResponse{
				Success:        false,
				Message:        "Invalid email or password",
				RemainingTries: remaining,
			}, appErrors.UnauthorizedError("Invalid email or password")
		}

		return nil, appErrors.DatabaseError("Failed to look up user").WithError(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return &models.LoginResponse{
			Success:        false,
			Message:        "Invalid email or password",
			RemainingTries: remaining,
		}, appErrors.UnauthorizedError("Invalid email or password")
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, appErrors.InternalError("Failed to generate token").WithError(err)
	}

	resp := &models.LoginResponse{
		Success:   true,
		Token:     token,
		ExpiresIn: int(tokenLifetime.Seconds()),
	}

	if deviceID != "" {
		if _, err := s.carts.MergeGuestCart(ctx, deviceID, user.ID.String()); err != nil {
			logger.Warn("Guest cart merge failed at login",
				slog.String("userId", user.ID.String()),
				slog.String("error", err.Error()))
		} else {
			resp.CartMerged = true
		}
	}

	return resp, nil
}

func (s *UserService) generateToken(user *models.User) (string, error) {
	claims := &models.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenLifetime)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   user.ID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(s.cfg.Security.JWTKey))
}

func (s *UserService) GetProfile(ctx context.Context, claims *models.Claims) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFoundError("User not found")
		}

		return nil, appErrors.DatabaseError("Failed to load user").WithError(err)
	}

	return user, nil
}
