// Package conversation implements the Conversation repository using PostgreSQL.
package conversation

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ranith1/LLM-Junior-Developer/internal/adapter/postgres"
	"github.com/Ranith1/LLM-Junior-Developer/internal/domain"
)

const table = "conversations"

var columns = []string{
	"id", "user_id", "title", "status", "started_at", "last_activity_at",
	"current_step", "message_count",
}

// UpdateFields holds the optional fields of a conversation update.
// Nil fields are left unchanged; last_activity_at is always bumped.
type UpdateFields struct {
	Title       *string
	CurrentStep *int
	Status      *domain.ConversationStatus
}

// Repo provides conversation persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new conversation repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// ListByOwner returns the owner's non-deleted conversations,
// most recently active first.
func (r *Repo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Conversation, error) {
	query := postgres.Builder.
		Select(columns...).
		From(table).
		Where(sq.Eq{"user_id": ownerID}).
		Where(sq.NotEq{"status": domain.ConversationStatusDeleted}).
		OrderBy("last_activity_at DESC")

	list, err := r.list(ctx, query)
	if err != nil {
		return nil, postgres.MapError(err, "conversation", ownerID)
	}
	return list, nil
}

// ListStartedSince returns the owner's non-deleted conversations started at or
// after the given instant. This is the analytics window query; it relies on
// the (user_id, started_at) index.
func (r *Repo) ListStartedSince(ctx context.Context, ownerID uuid.UUID, since time.Time) ([]domain.Conversation, error) {
	query := postgres.Builder.
		Select(columns...).
		From(table).
		Where(sq.Eq{"user_id": ownerID}).
		Where(sq.NotEq{"status": domain.ConversationStatusDeleted}).
		Where(sq.GtOrEq{"started_at": since}).
		OrderBy("started_at ASC")

	list, err := r.list(ctx, query)
	if err != nil {
		return nil, postgres.MapError(err, "conversation", ownerID)
	}
	return list, nil
}

// Create inserts a new conversation and returns the persisted row.
func (r *Repo) Create(ctx context.Context, c *domain.Conversation) (*domain.Conversation, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder.
		Insert(table).
		Columns("id", "user_id", "title", "status", "current_step").
		Values(c.ID, c.UserID, c.Title, c.Status, c.CurrentStep).
		Suffix("RETURNING id, user_id, title, status, started_at, last_activity_at, current_step, message_count").
		ToSql()
	if err != nil {
		return nil, postgres.MapError(err, "conversation", c.ID)
	}

	created, err := scanConversation(q.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, postgres.MapError(err, "conversation", c.ID)
	}
	return created, nil
}

// GetForOwner returns a non-deleted conversation owned by ownerID.
// Returns domain.ErrNotFound when it does not exist, is deleted,
// or belongs to another user.
func (r *Repo) GetForOwner(ctx context.Context, id, ownerID uuid.UUID) (*domain.Conversation, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder.
		Select(columns...).
		From(table).
		Where(sq.Eq{"id": id, "user_id": ownerID}).
		Where(sq.NotEq{"status": domain.ConversationStatusDeleted}).
		ToSql()
	if err != nil {
		return nil, postgres.MapError(err, "conversation", id)
	}

	c, err := scanConversation(q.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, postgres.MapError(err, "conversation", id)
	}
	return c, nil
}

// Update applies the non-nil fields and bumps last_activity_at.
// Scoped to the owner; returns domain.ErrNotFound on no match.
func (r *Repo) Update(ctx context.Context, id, ownerID uuid.UUID, fields UpdateFields) (*domain.Conversation, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	update := postgres.Builder.
		Update(table).
		Set("last_activity_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id, "user_id": ownerID}).
		Suffix("RETURNING id, user_id, title, status, started_at, last_activity_at, current_step, message_count")

	if fields.Title != nil {
		update = update.Set("title", *fields.Title)
	}
	if fields.CurrentStep != nil {
		update = update.Set("current_step", *fields.CurrentStep)
	}
	if fields.Status != nil {
		update = update.Set("status", *fields.Status)
	}

	sql, args, err := update.ToSql()
	if err != nil {
		return nil, postgres.MapError(err, "conversation", id)
	}

	c, err := scanConversation(q.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, postgres.MapError(err, "conversation", id)
	}
	return c, nil
}

// SoftDelete marks the conversation deleted. Scoped to the owner.
func (r *Repo) SoftDelete(ctx context.Context, id, ownerID uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder.
		Update(table).
		Set("status", domain.ConversationStatusDeleted).
		Set("last_activity_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id, "user_id": ownerID}).
		Where(sq.NotEq{"status": domain.ConversationStatusDeleted}).
		ToSql()
	if err != nil {
		return postgres.MapError(err, "conversation", id)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "conversation", id)
	}
	if tag.RowsAffected() == 0 {
		return postgres.MapError(pgx.ErrNoRows, "conversation", id)
	}
	return nil
}

// Touch bumps last_activity_at, increments message_count, and optionally
// advances current_step. Called inside the message-append transaction.
func (r *Repo) Touch(ctx context.Context, id uuid.UUID, step *int) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	update := postgres.Builder.
		Update(table).
		Set("last_activity_at", sq.Expr("now()")).
		Set("message_count", sq.Expr("message_count + 1")).
		Where(sq.Eq{"id": id})

	if step != nil {
		update = update.Set("current_step", *step)
	}

	sql, args, err := update.ToSql()
	if err != nil {
		return postgres.MapError(err, "conversation", id)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "conversation", id)
	}
	if tag.RowsAffected() == 0 {
		return postgres.MapError(pgx.ErrNoRows, "conversation", id)
	}
	return nil
}

func (r *Repo) list(ctx context.Context, query sq.SelectBuilder) ([]domain.Conversation, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []domain.Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *c)
	}
	return list, rows.Err()
}

// scanConversation reads one conversation row in the canonical column order.
func scanConversation(row pgx.Row) (*domain.Conversation, error) {
	var c domain.Conversation
	err := row.Scan(
		&c.ID, &c.UserID, &c.Title, &c.Status, &c.StartedAt, &c.LastActivityAt,
		&c.CurrentStep, &c.MessageCount,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
