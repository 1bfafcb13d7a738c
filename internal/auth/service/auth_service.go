package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/appliancevault/appliance-vault-backend/internal/auth"
	"github.com/appliancevault/appliance-vault-backend/internal/auth/domain"
)

// UserRepository is the persistence contract the auth service depends on.
type UserRepository interface {
	Create(ctx context.Context, req *domain.CreateUserRequest) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, id string, req *domain.UpdateUserRequest) (*domain.User, error)
}

// IdentityVerifier validates a federated identity token and yields the
// verified profile.
type IdentityVerifier interface {
	Verify(ctx context.Context, rawToken string) (*auth.Identity, error)
}

type SignupRequest struct {
	Username  string
	FirstName string
	LastName  string
	Password  string
}

type UpdateProfileRequest struct {
	Username  *string
	FirstName *string
	LastName  *string
	Password  *string
}

// TokenResult is what every login path returns: a local bearer token
// plus the user it identifies. Federated login never hands the external
// token back to the caller.
type TokenResult struct {
	Token   string
	User    *domain.User
	Created bool
}

type AuthService struct {
	userRepo   UserRepository
	tokens     *TokenService
	verifier   IdentityVerifier
	revocation *RevocationStore
}

func NewAuthService(userRepo UserRepository, tokens *TokenService, verifier IdentityVerifier, revocation *RevocationStore) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		tokens:     tokens,
		verifier:   verifier,
		revocation: revocation,
	}
}

// Signup creates a user with a bcrypt-hashed password and returns a
// fresh token. Duplicate usernames surface domain.ErrDuplicateUsername.
func (s *AuthService) Signup(ctx context.Context, req *SignupRequest) (*TokenResult, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.userRepo.Create(ctx, &domain.CreateUserRequest{
		Username:     normalizeUsername(req.Username),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: string(hash),
	})
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Generate(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("mint token: %w", err)
	}

	return &TokenResult{Token: token, User: user, Created: true}, nil
}

// Signin verifies username/password and returns a fresh token. Unknown
// users and password mismatches both map to ErrInvalidCredentials.
func (s *AuthService) Signin(ctx context.Context, username, password string) (*TokenResult, error) {
	user, err := s.userRepo.GetByUsername(ctx, normalizeUsername(username))
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("mint token: %w", err)
	}

	return &TokenResult{Token: token, User: user}, nil
}

// GoogleLogin verifies a federated identity token, provisions a local
// user on first login (with an unusable random password placeholder and
// a linked account, atomically) and mints a local token either way.
func (s *AuthService) GoogleLogin(ctx context.Context, rawToken string) (*TokenResult, error) {
	if s.verifier == nil {
		return nil, fmt.Errorf("federated login is not configured")
	}

	identity, err := s.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}

	created := false
	user, err := s.userRepo.GetByUsername(ctx, normalizeUsername(identity.Email))
	if errors.Is(err, domain.ErrUserNotFound) {
		placeholder, perr := unusablePassword()
		if perr != nil {
			return nil, perr
		}
		user, err = s.userRepo.Create(ctx, &domain.CreateUserRequest{
			Username:     normalizeUsername(identity.Email),
			FirstName:    identity.GivenName,
			LastName:     identity.FamilyName,
			PasswordHash: placeholder,
		})
		created = err == nil
	}
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Generate(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("mint token: %w", err)
	}

	return &TokenResult{Token: token, User: user, Created: created}, nil
}

// Signout denylists the token's jti for its remaining lifetime. A
// no-op when Redis is not configured.
func (s *AuthService) Signout(ctx context.Context, tokenString string) error {
	claims, err := s.tokens.Verify(tokenString)
	if err != nil {
		return err
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	return s.revocation.Revoke(ctx, claims.ID, ttl)
}

// GetProfile returns the user for an authenticated subject id.
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// UpdateProfile applies a partial self-service update; a new password
// is re-hashed before storage.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, req *UpdateProfileRequest) (*domain.User, error) {
	update := &domain.UpdateUserRequest{
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}

	if req.Username != nil {
		normalized := normalizeUsername(*req.Username)
		update.Username = &normalized
	}

	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		hashed := string(hash)
		update.PasswordHash = &hashed
	}

	return s.userRepo.Update(ctx, userID, update)
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// unusablePassword produces a bcrypt hash of random bytes that is never
// communicated to anyone, so federated-only users cannot sign in with a
// password.
func unusablePassword() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate placeholder password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(b)), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash placeholder password: %w", err)
	}
	return string(hash), nil
}
