package token_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ranith1/LLM-Junior-Developer/internal/adapter/postgres/testhelper"
	"github.com/Ranith1/LLM-Junior-Developer/internal/adapter/postgres/token"
	"github.com/Ranith1/LLM-Junior-Developer/internal/domain"
)

func newRepo(t *testing.T) (*token.Repo, *pgxpool.Pool) {
	t.Helper()
	pool := testhelper.SetupTestDB(t)
	return token.New(pool), pool
}

func createToken(t *testing.T, repo *token.Repo, userID uuid.UUID, expiresAt time.Time) string {
	t.Helper()
	hash := "hash-" + uuid.New().String()
	err := repo.Create(context.Background(), &domain.RefreshToken{
		UserID:    userID,
		TokenHash: hash,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		t.Fatalf("Create token: %v", err)
	}
	return hash
}

func TestRepo_CreateAndGetByHash(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	user := testhelper.SeedUser(t, pool, domain.UserRoleStudent)
	expiresAt := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Microsecond)
	hash := createToken(t, repo, user.ID, expiresAt)

	got, err := repo.GetByHash(ctx, hash)
	if err != nil {
		t.Fatalf("GetByHash: unexpected error: %v", err)
	}
	if got.ID == uuid.Nil {
		t.Error("ID should not be nil")
	}
	if got.UserID != user.ID {
		t.Errorf("UserID mismatch: got %s, want %s", got.UserID, user.ID)
	}
	if !got.ExpiresAt.Equal(expiresAt) {
		t.Errorf("ExpiresAt mismatch: got %v, want %v", got.ExpiresAt, expiresAt)
	}
	if got.RevokedAt != nil {
		t.Errorf("RevokedAt should be nil, got %v", got.RevokedAt)
	}
}

func TestRepo_Create_InvalidUserID(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)

	err := repo.Create(context.Background(), &domain.RefreshToken{
		UserID:    uuid.New(),
		TokenHash: "hash-" + uuid.New().String(),
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	})
	assertIsDomainError(t, err, domain.ErrNotFound)
}

func TestRepo_GetByHash_NotFound(t *testing.T) {
	t.Parallel()
	repo, _ := newRepo(t)

	_, err := repo.GetByHash(context.Background(), "nonexistent-"+uuid.New().String())
	assertIsDomainError(t, err, domain.ErrNotFound)
}

func TestRepo_GetByHash_Expired(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	user := testhelper.SeedUser(t, pool, domain.UserRoleStudent)
	hash := createToken(t, repo, user.ID, time.Now().UTC().Add(-time.Hour))

	_, err := repo.GetByHash(ctx, hash)
	assertIsDomainError(t, err, domain.ErrNotFound)
}

func TestRepo_RevokeByID(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	user := testhelper.SeedUser(t, pool, domain.UserRoleStudent)
	hash := createToken(t, repo, user.ID, time.Now().UTC().Add(time.Hour))

	got, err := repo.GetByHash(ctx, hash)
	if err != nil {
		t.Fatalf("GetByHash: %v", err)
	}

	if err := repo.RevokeByID(ctx, got.ID); err != nil {
		t.Fatalf("RevokeByID: unexpected error: %v", err)
	}

	// Revoked tokens are invisible to GetByHash.
	_, err = repo.GetByHash(ctx, hash)
	assertIsDomainError(t, err, domain.ErrNotFound)

	// Revoking again is a no-op.
	if err := repo.RevokeByID(ctx, got.ID); err != nil {
		t.Fatalf("second RevokeByID: unexpected error: %v", err)
	}
}

func TestRepo_RevokeAllByUser(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	user := testhelper.SeedUser(t, pool, domain.UserRoleStudent)
	other := testhelper.SeedUser(t, pool, domain.UserRoleStudent)

	hash1 := createToken(t, repo, user.ID, time.Now().UTC().Add(time.Hour))
	hash2 := createToken(t, repo, user.ID, time.Now().UTC().Add(time.Hour))
	otherHash := createToken(t, repo, other.ID, time.Now().UTC().Add(time.Hour))

	if err := repo.RevokeAllByUser(ctx, user.ID); err != nil {
		t.Fatalf("RevokeAllByUser: unexpected error: %v", err)
	}

	for _, h := range []string{hash1, hash2} {
		if _, err := repo.GetByHash(ctx, h); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("token %s should be revoked, got err=%v", h, err)
		}
	}

	// Other user's token is untouched.
	if _, err := repo.GetByHash(ctx, otherHash); err != nil {
		t.Errorf("other user's token should still be active: %v", err)
	}
}

func TestRepo_DeleteExpired(t *testing.T) {
	t.Parallel()
	repo, pool := newRepo(t)
	ctx := context.Background()

	user := testhelper.SeedUser(t, pool, domain.UserRoleStudent)

	createToken(t, repo, user.ID, time.Now().UTC().Add(-time.Hour)) // expired
	activeHash := createToken(t, repo, user.ID, time.Now().UTC().Add(time.Hour))

	deleted, err := repo.DeleteExpired(ctx)
	if err != nil {
		t.Fatalf("DeleteExpired: unexpected error: %v", err)
	}
	if deleted < 1 {
		t.Errorf("expected at least 1 deleted token, got %d", deleted)
	}

	if _, err := repo.GetByHash(ctx, activeHash); err != nil {
		t.Errorf("active token should survive cleanup: %v", err)
	}
}

func assertIsDomainError(t *testing.T, err error, target error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error wrapping %v, got nil", target)
	}
	if !errors.Is(err, target) {
		t.Fatalf("expected error wrapping %v, got: %v", target, err)
	}
}
