package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"crowdpulse-api/internal/auth"
	"crowdpulse-api/internal/model"
	"crowdpulse-api/pkg/apierror"
)

const invalidCredentialsMessage = "invalid email or password"

type UserStore interface {
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	Create(ctx context.Context, u model.User) error
	UpdateRole(ctx context.Context, id string, role auth.Role, updatedAt time.Time) (model.User, error)
	UpdatePassword(ctx context.Context, id string, passwordHash string, updatedAt time.Time) (model.User, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]model.User, error)
}

// RevocationStore remembers refresh token ids that were logged out.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, userID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type AuthService struct {
	users       UserStore
	codec       *auth.Codec
	hasher      *PasswordHasher
	revocations RevocationStore
	accessTTL   time.Duration
	refreshTTL  time.Duration
	now         func() time.Time
}

func NewAuthService(
	users UserStore,
	codec *auth.Codec,
	hasher *PasswordHasher,
	revocations RevocationStore,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) *AuthService {
	return &AuthService{
		users:       users,
		codec:       codec,
		hasher:      hasher,
		revocations: revocations,
		accessTTL:   accessTTL,
		refreshTTL:  refreshTTL,
		now:         time.Now,
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Signin(ctx context.Context, email string, password string) (model.AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, model.ErrUserNotFound) {
		s.hasher.CompareDummy(ctx, password)
		return model.AuthResult{}, apierror.Unauthorized(invalidCredentialsMessage)
	}
	if err != nil {
		return model.AuthResult{}, fmt.Errorf("signin lookup: %w", err)
	}

	ok, err := s.hasher.Compare(ctx, user.PasswordHash, password)
	if err != nil {
		return model.AuthResult{}, err
	}
	if !ok {
		return model.AuthResult{}, apierror.Unauthorized(invalidCredentialsMessage)
	}

	return s.issue(user)
}

func (s *AuthService) Signup(ctx context.Context, input model.SignupInput) (model.AuthResult, error) {
	if input.Password != input.ConfirmPassword {
		return model.AuthResult{}, apierror.BadRequest("passwords do not match")
	}

	email := NormalizeEmail(input.Email)

	_, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return model.AuthResult{}, apierror.Conflict("user already exists")
	}
	if !errors.Is(err, model.ErrUserNotFound) {
		return model.AuthResult{}, fmt.Errorf("signup lookup: %w", err)
	}

	hash, err := s.hasher.Hash(ctx, input.Password)
	if err != nil {
		return model.AuthResult{}, err
	}

	now := s.now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Email:        email,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Role:         auth.RoleUser,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, model.ErrUserAlreadyExists) {
			return model.AuthResult{}, apierror.Conflict("user already exists")
		}
		return model.AuthResult{}, err
	}

	return s.issue(user)
}

// Refresh mints a new access token from a refresh token. The account is read
// again so role and email changes since signin take effect. The refresh token
// itself is returned unchanged.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	claims, err := s.verifyRefresh(refreshToken)
	if err != nil {
		return model.TokenPair{}, err
	}

	if s.revocations != nil && claims.TokenID != "" {
		revoked, err := s.revocations.IsRevoked(ctx, claims.TokenID)
		if err != nil {
			return model.TokenPair{}, err
		}
		if revoked {
			return model.TokenPair{}, apierror.Unauthorized("invalid refresh token")
		}
	}

	user, err := s.users.FindByID(ctx, claims.Subject)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.TokenPair{}, apierror.Unauthorized("invalid refresh token")
	}
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("refresh lookup: %w", err)
	}

	accessToken, err := s.accessToken(user)
	if err != nil {
		return model.TokenPair{}, err
	}

	return model.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Logout revokes a refresh token until it expires. Tokens that do not verify
// are ignored. It returns the token's subject, or "" when nothing was revoked.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) (string, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return "", nil
	}

	claims, err := s.verifyRefresh(refreshToken)
	if err != nil {
		return "", nil
	}

	if s.revocations == nil || claims.TokenID == "" {
		return claims.Subject, nil
	}

	if err := s.revocations.Revoke(ctx, claims.TokenID, claims.Subject, claims.ExpiresAt); err != nil {
		return claims.Subject, err
	}
	return claims.Subject, nil
}

func (s *AuthService) Me(ctx context.Context, userID string) (model.PublicUser, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.PublicUser{}, apierror.NotFound("user not found")
	}
	if err != nil {
		return model.PublicUser{}, err
	}
	return user.Public(), nil
}

// EnsureDefaultAdmin creates the configured administrator, or promotes an
// existing account with that email. It does nothing when no credentials are
// configured.
func (s *AuthService) EnsureDefaultAdmin(ctx context.Context, admin model.DefaultAdmin) error {
	email := NormalizeEmail(admin.Email)
	if email == "" || admin.Password == "" {
		slog.Info("default administrator credentials not provided, skipping seeding")
		return nil
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		if existing.Role == auth.RoleAdministrator {
			slog.Info("default administrator already exists", "email", email)
			return nil
		}
		if _, err := s.users.UpdateRole(ctx, existing.ID, auth.RoleAdministrator, s.now().UTC()); err != nil {
			return fmt.Errorf("promote default administrator: %w", err)
		}
		slog.Info("promoted existing account to administrator", "email", email)
		return nil
	}
	if !errors.Is(err, model.ErrUserNotFound) {
		return fmt.Errorf("look up default administrator: %w", err)
	}

	hash, err := s.hasher.Hash(ctx, admin.Password)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	err = s.users.Create(ctx, model.User{
		ID:           uuid.NewString(),
		Email:        email,
		FirstName:    strings.TrimSpace(admin.FirstName),
		LastName:     strings.TrimSpace(admin.LastName),
		Role:         auth.RoleAdministrator,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if errors.Is(err, model.ErrUserAlreadyExists) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create default administrator: %w", err)
	}

	slog.Info("default administrator created", "email", email)
	return nil
}

func (s *AuthService) verifyRefresh(token string) (auth.Claims, error) {
	claims, err := s.codec.Verify(token)
	if err != nil || claims.Kind != auth.KindRefresh || !claims.HasIdentity() {
		return auth.Claims{}, apierror.Unauthorized("invalid refresh token")
	}
	return claims, nil
}

func (s *AuthService) issue(user model.User) (model.AuthResult, error) {
	accessToken, err := s.accessToken(user)
	if err != nil {
		return model.AuthResult{}, err
	}

	refreshToken, err := s.codec.Issue(auth.Claims{
		Subject: user.ID,
		Email:   user.Email,
		Kind:    auth.KindRefresh,
	}, s.refreshTTL)
	if err != nil {
		return model.AuthResult{}, err
	}

	return model.AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user.Public(),
	}, nil
}

func (s *AuthService) accessToken(user model.User) (string, error) {
	return s.codec.Issue(auth.Claims{
		Subject: user.ID,
		Email:   user.Email,
		Role:    user.Role,
		Kind:    auth.KindAccess,
	}, s.accessTTL)
}
