package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	jwtauth "github.com/Ranith1/LLM-Junior-Developer/internal/auth"
	"github.com/Ranith1/LLM-Junior-Developer/internal/config"
	"github.com/Ranith1/LLM-Junior-Developer/internal/domain"
	"github.com/Ranith1/LLM-Junior-Developer/pkg/ctxutil"
)

type userRepoMock struct {
	GetByIDFunc    func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByLoginFunc func(ctx context.Context, login string) (*domain.User, error)
	CreateFunc     func(ctx context.Context, u *domain.User) (*domain.User, error)
}

func (m *userRepoMock) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *userRepoMock) GetByLogin(ctx context.Context, login string) (*domain.User, error) {
	return m.GetByLoginFunc(ctx, login)
}

func (m *userRepoMock) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	return m.CreateFunc(ctx, u)
}

type tokenRepoMock struct {
	CreateFunc          func(ctx context.Context, t *domain.RefreshToken) error
	GetByHashFunc       func(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	RevokeByIDFunc      func(ctx context.Context, id uuid.UUID) error
	RevokeAllByUserFunc func(ctx context.Context, userID uuid.UUID) error
}

func (m *tokenRepoMock) Create(ctx context.Context, t *domain.RefreshToken) error {
	return m.CreateFunc(ctx, t)
}

func (m *tokenRepoMock) GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	return m.GetByHashFunc(ctx, tokenHash)
}

func (m *tokenRepoMock) RevokeByID(ctx context.Context, id uuid.UUID) error {
	return m.RevokeByIDFunc(ctx, id)
}

func (m *tokenRepoMock) RevokeAllByUser(ctx context.Context, userID uuid.UUID) error {
	return m.RevokeAllByUserFunc(ctx, userID)
}

type txManagerMock struct{}

func (txManagerMock) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

const testSecret = "test-secret-key-of-sufficient-length!!"

func newTestService(users *userRepoMock, tokens *tokenRepoMock) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	jwt := jwtauth.NewJWTManager(testSecret, "test-issuer", 15*time.Minute)
	cfg := config.AuthConfig{
		JWTSecret:       testSecret,
		JWTIssuer:       "test-issuer",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 720 * time.Hour,
		MinPasswordLen:  6,
	}
	return NewService(logger, users, tokens, txManagerMock{}, jwt, cfg)
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestService_Register(t *testing.T) {
	t.Parallel()

	var created *domain.User
	users := &userRepoMock{
		CreateFunc: func(_ context.Context, u *domain.User) (*domain.User, error) {
			created = u
			return u, nil
		},
	}
	tokens := &tokenRepoMock{
		CreateFunc: func(_ context.Context, _ *domain.RefreshToken) error { return nil },
	}
	svc := newTestService(users, tokens)

	user, pair, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Ada",
		Email:    "Ada@Example.com",
		Username: "ada",
		Password: "hunter22",
	})
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.Equal(t, "ada@example.com", user.Email, "email is normalized to lower case")
	assert.Equal(t, domain.UserRoleStudent, user.Role, "role defaults to student")
	assert.NotEqual(t, "hunter22", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("hunter22")))

	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
}

func TestService_Register_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   RegisterInput
	}{
		{name: "empty name", in: RegisterInput{Email: "a@b.c", Username: "u", Password: "secret1"}},
		{name: "bad email", in: RegisterInput{Name: "A", Email: "nope", Username: "u", Password: "secret1"}},
		{name: "empty username", in: RegisterInput{Name: "A", Email: "a@b.c", Password: "secret1"}},
		{name: "short password", in: RegisterInput{Name: "A", Email: "a@b.c", Username: "u", Password: "abc"}},
		{name: "unknown role", in: RegisterInput{Name: "A", Email: "a@b.c", Username: "u", Password: "secret1", Role: "admin"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := newTestService(&userRepoMock{}, &tokenRepoMock{})

			_, _, err := svc.Register(context.Background(), tt.in)

			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestService_Login(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	stored := &domain.User{
		ID:           userID,
		Email:        "ada@example.com",
		Username:     "ada",
		PasswordHash: hashPassword(t, "hunter22"),
		Role:         domain.UserRoleStudent,
	}

	users := &userRepoMock{
		GetByLoginFunc: func(_ context.Context, login string) (*domain.User, error) {
			if login == "ada@example.com" || login == "ada" {
				return stored, nil
			}
			return nil, domain.ErrNotFound
		},
	}
	tokens := &tokenRepoMock{
		CreateFunc: func(_ context.Context, _ *domain.RefreshToken) error { return nil },
	}
	svc := newTestService(users, tokens)

	t.Run("valid credentials", func(t *testing.T) {
		user, pair, err := svc.Login(context.Background(), "ada@example.com", "hunter22")
		require.NoError(t, err)
		assert.Equal(t, userID, user.ID)

		gotID, role, err := svc.ValidateToken(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, userID, gotID)
		assert.Equal(t, "student", role)
	})

	t.Run("username works as login", func(t *testing.T) {
		_, _, err := svc.Login(context.Background(), "ada", "hunter22")
		assert.NoError(t, err)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := svc.Login(context.Background(), "ada@example.com", "wrong")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("unknown login", func(t *testing.T) {
		_, _, err := svc.Login(context.Background(), "nobody", "hunter22")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}

func TestService_Refresh_RotatesToken(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	user := &domain.User{ID: userID, Role: domain.UserRoleStudent}

	store := map[string]*domain.RefreshToken{}
	var revoked []uuid.UUID

	users := &userRepoMock{
		GetByIDFunc: func(_ context.Context, id uuid.UUID) (*domain.User, error) {
			require.Equal(t, userID, id)
			return user, nil
		},
	}
	tokens := &tokenRepoMock{
		CreateFunc: func(_ context.Context, rt *domain.RefreshToken) error {
			rt.ID = uuid.New()
			store[rt.TokenHash] = rt
			return nil
		},
		GetByHashFunc: func(_ context.Context, hash string) (*domain.RefreshToken, error) {
			rt, ok := store[hash]
			if !ok {
				return nil, domain.ErrNotFound
			}
			return rt, nil
		},
		RevokeByIDFunc: func(_ context.Context, id uuid.UUID) error {
			revoked = append(revoked, id)
			for hash, rt := range store {
				if rt.ID == id {
					delete(store, hash)
				}
			}
			return nil
		},
	}
	svc := newTestService(users, tokens)

	// Seed an initial token through the service itself.
	raw, hash, err := jwtauth.NewJWTManager(testSecret, "test-issuer", time.Minute).GenerateRefreshToken()
	require.NoError(t, err)
	initial := &domain.RefreshToken{ID: uuid.New(), UserID: userID, TokenHash: hash, ExpiresAt: time.Now().Add(time.Hour)}
	store[hash] = initial

	pair, err := svc.Refresh(context.Background(), raw)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEqual(t, raw, pair.RefreshToken, "refresh yields a new token")
	assert.Contains(t, revoked, initial.ID, "old token is revoked")

	// The old token no longer refreshes.
	_, err = svc.Refresh(context.Background(), raw)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	// The new one does.
	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	assert.NoError(t, err)
}

func TestService_Logout(t *testing.T) {
	t.Parallel()

	tokenID := uuid.New()
	raw := "some-refresh-token"
	var revoked bool

	tokens := &tokenRepoMock{
		GetByHashFunc: func(_ context.Context, hash string) (*domain.RefreshToken, error) {
			if hash == jwtauth.HashToken(raw) {
				return &domain.RefreshToken{ID: tokenID}, nil
			}
			return nil, domain.ErrNotFound
		},
		RevokeByIDFunc: func(_ context.Context, id uuid.UUID) error {
			assert.Equal(t, tokenID, id)
			revoked = true
			return nil
		},
	}
	svc := newTestService(&userRepoMock{}, tokens)

	require.NoError(t, svc.Logout(context.Background(), raw))
	assert.True(t, revoked)

	// Unknown token: logout is a no-op, not an error.
	assert.NoError(t, svc.Logout(context.Background(), "unknown"))
}

func TestService_LogoutAll(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	var revokedFor uuid.UUID

	tokens := &tokenRepoMock{
		RevokeAllByUserFunc: func(_ context.Context, id uuid.UUID) error {
			revokedFor = id
			return nil
		},
	}
	svc := newTestService(&userRepoMock{}, tokens)

	ctx := ctxutil.WithUserID(context.Background(), userID)
	require.NoError(t, svc.LogoutAll(ctx))
	assert.Equal(t, userID, revokedFor)

	assert.ErrorIs(t, svc.LogoutAll(context.Background()), domain.ErrUnauthorized)
}

func TestService_ValidateToken_Invalid(t *testing.T) {
	t.Parallel()

	svc := newTestService(&userRepoMock{}, &tokenRepoMock{})

	_, _, err := svc.ValidateToken("not-a-jwt")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, _, err = svc.ValidateToken("")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
