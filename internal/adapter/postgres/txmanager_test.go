package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ranith1/LLM-Junior-Developer/internal/adapter/postgres"
	"github.com/Ranith1/LLM-Junior-Developer/internal/adapter/postgres/testhelper"
	"github.com/Ranith1/LLM-Junior-Developer/internal/domain"
)

func conversationExists(t *testing.T, pool *pgxpool.Pool, id uuid.UUID) bool {
	t.Helper()
	var exists bool
	err := pool.QueryRow(
		context.Background(),
		`SELECT EXISTS(SELECT 1 FROM conversations WHERE id = $1)`,
		id,
	).Scan(&exists)
	if err != nil {
		t.Fatalf("conversationExists query: %v", err)
	}
	return exists
}

func insertConversation(ctx context.Context, pool *pgxpool.Pool, id, ownerID uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, pool)
	_, err := q.Exec(ctx,
		`INSERT INTO conversations (id, user_id, title) VALUES ($1, $2, 'tx test')`,
		id, ownerID,
	)
	return err
}

func TestRunInTx_Commit(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	owner := testhelper.SeedUser(t, pool, domain.UserRoleStudent)
	convID := uuid.New()

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		return insertConversation(ctx, pool, convID, owner.ID)
	})
	if err != nil {
		t.Fatalf("RunInTx returned error: %v", err)
	}

	if !conversationExists(t, pool, convID) {
		t.Fatal("expected conversation to exist after committed transaction")
	}
}

func TestRunInTx_RollbackOnError(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	owner := testhelper.SeedUser(t, pool, domain.UserRoleStudent)
	convID := uuid.New()
	sentinel := errors.New("business logic error")

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		if err := insertConversation(ctx, pool, convID, owner.ID); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got: %v", err)
	}

	if conversationExists(t, pool, convID) {
		t.Fatal("expected insert to be rolled back")
	}
}

func TestRunInTx_RollbackOnPanic(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	owner := testhelper.SeedUser(t, pool, domain.UserRoleStudent)
	convID := uuid.New()

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Error("expected panic to propagate")
			}
		}()
		_ = tm.RunInTx(context.Background(), func(ctx context.Context) error {
			if err := insertConversation(ctx, pool, convID, owner.ID); err != nil {
				return err
			}
			panic("boom")
		})
	}()

	if conversationExists(t, pool, convID) {
		t.Fatal("expected insert to be rolled back after panic")
	}
}
