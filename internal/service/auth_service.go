package service

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/civic-desk/complaint-service/internal/auth"
	"github.com/civic-desk/complaint-service/internal/config"
	"github.com/civic-desk/complaint-service/internal/domain"
	"github.com/civic-desk/complaint-service/internal/repository"
	apperrors "github.com/civic-desk/complaint-service/pkg/util/errorutil"
)

// SignupInput is a new citizen account.
type SignupInput struct {
	Username string `json:"username" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	AadharNo string `json:"aadhar_no" validate:"required,len=12,numeric"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginInput carries sign-in credentials.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	stats      repository.StatsCache
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, tokens *auth.TokenManager, users repository.UserRepository) *AuthService {
	return &AuthService{
		users:      users,
		stats:      repository.NewRedisStatsCache(nil, 0),
		tokenMgr:   tokens,
		bcryptCost: cfg.BcryptCost,
	}
}

// WithStatsCache sets the admin overview cache, which counts accounts and must be
// dropped when one is created.
func (s *AuthService) WithStatsCache(cache repository.StatsCache) *AuthService {
	if cache != nil {
		s.stats = cache
	}
	return s
}

// Signup creates a citizen account and signs it in.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*domain.User, *domain.Token, error) {
	user, err := s.createAccount(ctx, input, domain.RoleUser)
	if err != nil {
		return nil, nil, err
	}
	token, err := s.tokenMgr.Issue(user)
	if err != nil {
		return nil, nil, err
	}
	return user, token, nil
}

// CreateAdmin provisions an administrator account.
func (s *AuthService) CreateAdmin(ctx context.Context, input SignupInput) (*domain.User, error) {
	return s.createAccount(ctx, input, domain.RoleAdmin)
}

func (s *AuthService) createAccount(ctx context.Context, input SignupInput, role domain.Role) (*domain.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.AadharNo = strings.TrimSpace(input.AadharNo)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     input.Username,
		Email:        input.Email,
		AadharNo:     input.AadharNo,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return nil, apperrors.NewConflict("account already exists", map[string]any{"email": input.Email})
		}
		return nil, err
	}
	// best effort; the overview expires on its own TTL
	_ = s.stats.Invalidate(ctx)
	return user, nil
}

// Login authenticates an account by email and password.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*domain.User, *domain.Token, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if err := validateInput(input); err != nil {
		return nil, nil, err
	}

	user, err := s.users.GetByEmail(ctx, input.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, invalidCredentials()
	}
	if err != nil {
		return nil, nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, input.Password); err != nil {
		return nil, nil, invalidCredentials()
	}

	token, err := s.tokenMgr.Issue(user)
	if err != nil {
		return nil, nil, err
	}
	return user, token, nil
}

// Profile returns the account behind an id.
func (s *AuthService) Profile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFound("user", nil)
	}
	return user, err
}

func invalidCredentials() error {
	return apperrors.NewDomainError("INVALID_CREDENTIALS", "invalid email or password", http.StatusUnauthorized, nil)
}
