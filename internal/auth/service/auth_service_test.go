package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/appliancevault/appliance-vault-backend/internal/auth"
	"github.com/appliancevault/appliance-vault-backend/internal/auth/domain"
)

// =============================================================================
// Mock UserRepository
// =============================================================================

type mockUserRepository struct {
	createFunc        func(ctx context.Context, req *domain.CreateUserRequest) (*domain.User, error)
	getByUsernameFunc func(ctx context.Context, username string) (*domain.User, error)
	getByIDFunc       func(ctx context.Context, id string) (*domain.User, error)
	updateFunc        func(ctx context.Context, id string, req *domain.UpdateUserRequest) (*domain.User, error)
}

func (m *mockUserRepository) Create(ctx context.Context, req *domain.CreateUserRequest) (*domain.User, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.getByUsernameFunc != nil {
		return m.getByUsernameFunc(ctx, username)
	}
	return nil, errors.New("not implemented")
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, errors.New("not implemented")
}

func (m *mockUserRepository) Update(ctx context.Context, id string, req *domain.UpdateUserRequest) (*domain.User, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, req)
	}
	return nil, errors.New("not implemented")
}

type mockVerifier struct {
	verifyFunc func(ctx context.Context, rawToken string) (*auth.Identity, error)
}

func (m *mockVerifier) Verify(ctx context.Context, rawToken string) (*auth.Identity, error) {
	return m.verifyFunc(ctx, rawToken)
}

func setupTestRedis(t *testing.T) *redis.Client {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func newTestService(repo UserRepository, verifier IdentityVerifier, client *redis.Client) *AuthService {
	return NewAuthService(repo, NewTokenService(testSecret, testTTL), verifier, NewRevocationStore(client))
}

// =============================================================================
// Signup / Signin
// =============================================================================

func TestAuthService_Signup(t *testing.T) {
	repo := &mockUserRepository{
		createFunc: func(ctx context.Context, req *domain.CreateUserRequest) (*domain.User, error) {
			// Password must arrive hashed, never in the clear.
			assert.NotEqual(t, "secret1", req.PasswordHash)
			assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(req.PasswordHash), []byte("secret1")))
			assert.Equal(t, "a@b.com", req.Username, "username is case-normalized")
			return &domain.User{ID: "user-1", Username: req.Username}, nil
		},
	}
	svc := newTestService(repo, nil, nil)

	res, err := svc.Signup(context.Background(), &SignupRequest{
		Username:  "A@B.com",
		FirstName: "Jane",
		LastName:  "Doe",
		Password:  "secret1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.True(t, res.Created)
}

func TestAuthService_SignupDuplicate(t *testing.T) {
	repo := &mockUserRepository{
		createFunc: func(ctx context.Context, req *domain.CreateUserRequest) (*domain.User, error) {
			return nil, domain.ErrDuplicateUsername
		},
	}
	svc := newTestService(repo, nil, nil)

	_, err := svc.Signup(context.Background(), &SignupRequest{Username: "a@b.com", Password: "secret1"})
	assert.ErrorIs(t, err, domain.ErrDuplicateUsername)
}

func TestAuthService_Signin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.DefaultCost)
	require.NoError(t, err)

	stored := &domain.User{ID: "user-1", Username: "a@b.com", PasswordHash: string(hash)}
	repo := &mockUserRepository{
		getByUsernameFunc: func(ctx context.Context, username string) (*domain.User, error) {
			if username == "a@b.com" {
				return stored, nil
			}
			return nil, domain.ErrUserNotFound
		},
	}
	svc := newTestService(repo, nil, nil)

	t.Run("valid credentials", func(t *testing.T) {
		res, err := svc.Signin(context.Background(), "a@b.com", "secret1")
		require.NoError(t, err)
		assert.NotEmpty(t, res.Token)
		assert.Equal(t, "user-1", res.User.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Signin(context.Background(), "a@b.com", "wrong")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.Signin(context.Background(), "ghost@b.com", "secret1")
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})
}

func TestAuthService_SigninRepositoryErrorIsNotInvalidCredentials(t *testing.T) {
	dbErr := errors.New("connection refused")
	repo := &mockUserRepository{
		getByUsernameFunc: func(ctx context.Context, username string) (*domain.User, error) {
			return nil, dbErr
		},
	}
	svc := newTestService(repo, nil, nil)

	_, err := svc.Signin(context.Background(), "a@b.com", "secret1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.ErrorIs(t, err, dbErr)
}

// =============================================================================
// Federated login
// =============================================================================

func TestAuthService_GoogleLoginFirstTime(t *testing.T) {
	var createdHash string
	repo := &mockUserRepository{
		getByUsernameFunc: func(ctx context.Context, username string) (*domain.User, error) {
			return nil, domain.ErrUserNotFound
		},
		createFunc: func(ctx context.Context, req *domain.CreateUserRequest) (*domain.User, error) {
			createdHash = req.PasswordHash
			return &domain.User{ID: "user-9", Username: req.Username, FirstName: req.FirstName, LastName: req.LastName}, nil
		},
	}
	verifier := &mockVerifier{
		verifyFunc: func(ctx context.Context, rawToken string) (*auth.Identity, error) {
			return &auth.Identity{Email: "New@Example.com", GivenName: "New", FamilyName: "User"}, nil
		},
	}
	svc := newTestService(repo, verifier, nil)

	res, err := svc.GoogleLogin(context.Background(), "google-token")
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.NotEmpty(t, res.Token, "federated login must output a local token")
	assert.Equal(t, "new@example.com", res.User.Username)

	// Placeholder hash exists but matches no guessable password.
	require.NotEmpty(t, createdHash)
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(createdHash), []byte("")))
}

func TestAuthService_GoogleLoginExistingUser(t *testing.T) {
	repo := &mockUserRepository{
		getByUsernameFunc: func(ctx context.Context, username string) (*domain.User, error) {
			return &domain.User{ID: "user-1", Username: username}, nil
		},
	}
	verifier := &mockVerifier{
		verifyFunc: func(ctx context.Context, rawToken string) (*auth.Identity, error) {
			return &auth.Identity{Email: "a@b.com"}, nil
		},
	}
	svc := newTestService(repo, verifier, nil)

	res, err := svc.GoogleLogin(context.Background(), "google-token")
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Equal(t, "user-1", res.User.ID)
}

func TestAuthService_GoogleLoginBadToken(t *testing.T) {
	verifier := &mockVerifier{
		verifyFunc: func(ctx context.Context, rawToken string) (*auth.Identity, error) {
			return nil, errors.New("audience mismatch")
		},
	}
	svc := newTestService(&mockUserRepository{}, verifier, nil)

	_, err := svc.GoogleLogin(context.Background(), "bad-token")
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)
}

// =============================================================================
// Signout / revocation
// =============================================================================

func TestAuthService_SignoutRevokesToken(t *testing.T) {
	client := setupTestRedis(t)
	svc := newTestService(&mockUserRepository{}, nil, client)

	token, err := svc.tokens.Generate("user-1", "a@b.com")
	require.NoError(t, err)

	claims, err := svc.tokens.Verify(token)
	require.NoError(t, err)
	assert.False(t, svc.revocation.IsRevoked(context.Background(), claims.ID))

	require.NoError(t, svc.Signout(context.Background(), token))
	assert.True(t, svc.revocation.IsRevoked(context.Background(), claims.ID))
}

func TestAuthService_SignoutWithoutRedisIsNoop(t *testing.T) {
	svc := newTestService(&mockUserRepository{}, nil, nil)

	token, err := svc.tokens.Generate("user-1", "a@b.com")
	require.NoError(t, err)

	assert.NoError(t, svc.Signout(context.Background(), token))
}

func TestRevocationStore_TTL(t *testing.T) {
	client := setupTestRedis(t)
	store := NewRevocationStore(client)

	require.NoError(t, store.Revoke(context.Background(), "jti-1", time.Minute))
	assert.True(t, store.IsRevoked(context.Background(), "jti-1"))
	assert.False(t, store.IsRevoked(context.Background(), "jti-2"))
}
