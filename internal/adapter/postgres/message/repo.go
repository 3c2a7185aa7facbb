// Package message implements the Message repository using PostgreSQL,
// including the analytics read queries over message history.
package message

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

const table = "messages"

var columns = []string{
	"id", "conversation_id", "role", "sender_id", "content", "seq",
	"date_created", "step", "validation", "notes",
}

// Repo provides message persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new message repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// ListByConversation returns all messages of a conversation ordered by seq.
func (r *Repo) ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]domain.Message, error) {
	query := postgres.Builder.
		Select(columns...).
		From(table).
		Where(sq.Eq{"conversation_id": conversationID}).
		OrderBy("seq ASC")

	list, err := r.list(ctx, query)
	if err != nil {
		return nil, postgres.MapError(err, "message", conversationID)
	}
	return list, nil
}

// ListFirstN returns the first n messages of a conversation by seq.
// Used to build help-request conversation summaries.
func (r *Repo) ListFirstN(ctx context.Context, conversationID uuid.UUID, n int) ([]domain.Message, error) {
	query := postgres.Builder.
		Select(columns...).
		From(table).
		Where(sq.Eq{"conversation_id": conversationID}).
		OrderBy("seq ASC").
		Limit(uint64(n))

	list, err := r.list(ctx, query)
	if err != nil {
		return nil, postgres.MapError(err, "message", conversationID)
	}
	return list, nil
}

// Create inserts a new message, assigning the next seq for the conversation
// atomically inside the insert. Must run inside the message-append
// transaction so the unique (conversation_id, seq) index cannot race.
func (r *Repo) Create(ctx context.Context, m *domain.Message) (*domain.Message, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder.
		Insert(table).
		Columns("id", "conversation_id", "role", "sender_id", "content", "seq", "step", "validation", "notes").
		Values(
			m.ID, m.ConversationID, m.Role, m.SenderID, m.Content,
			sq.Expr("(SELECT COALESCE(MAX(seq), 0) + 1 FROM messages WHERE conversation_id = ?)", m.ConversationID),
			m.Step, m.Validation, m.Notes,
		).
		Suffix("RETURNING id, conversation_id, role, sender_id, content, seq, date_created, step, validation, notes").
		ToSql()
	if err != nil {
		return nil, postgres.MapError(err, "message", m.ID)
	}

	created, err := scanMessage(q.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, postgres.MapError(err, "message", m.ID)
	}
	return created, nil
}

// FirstValidationTimes returns, per conversation, the earliest date_created of
// a validation-flagged message. Conversations without one are absent from the
// returned map.
func (r *Repo) FirstValidationTimes(ctx context.Context, conversationIDs []uuid.UUID) (map[uuid.UUID]time.Time, error) {
	if len(conversationIDs) == 0 {
		return map[uuid.UUID]time.Time{}, nil
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder.
		Select("conversation_id", "MIN(date_created)").
		From(table).
		Where(sq.Eq{"conversation_id": conversationIDs, "validation": true}).
		GroupBy("conversation_id").
		ToSql()
	if err != nil {
		return nil, postgres.MapError(err, "message", uuid.Nil)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.MapError(err, "message", uuid.Nil)
	}
	defer rows.Close()

	result := make(map[uuid.UUID]time.Time, len(conversationIDs))
	for rows.Next() {
		var id uuid.UUID
		var at time.Time
		if err := rows.Scan(&id, &at); err != nil {
			return nil, postgres.MapError(err, "message", uuid.Nil)
		}
		result[id] = at
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, "message", uuid.Nil)
	}

	return result, nil
}

// UserContentsSince returns the content of every role='user' message created
// at or after the given instant, across the given conversations. Order is
// not significant for frequency counting and is left to the store.
func (r *Repo) UserContentsSince(ctx context.Context, conversationIDs []uuid.UUID, since time.Time) ([]string, error) {
	if len(conversationIDs) == 0 {
		return nil, nil
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder.
		Select("content").
		From(table).
		Where(sq.Eq{"conversation_id": conversationIDs, "role": domain.MessageRoleUser}).
		Where(sq.GtOrEq{"date_created": since}).
		ToSql()
	if err != nil {
		return nil, postgres.MapError(err, "message", uuid.Nil)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.MapError(err, "message", uuid.Nil)
	}
	defer rows.Close()

	var contents []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, postgres.MapError(err, "message", uuid.Nil)
		}
		contents = append(contents, content)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, "message", uuid.Nil)
	}

	return contents, nil
}

func (r *Repo) list(ctx context.Context, query sq.SelectBuilder) ([]domain.Message, error) {
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

	var list []domain.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *m)
	}
	return list, rows.Err()
}

// scanMessage reads one message row in the canonical column order.
func scanMessage(row pgx.Row) (*domain.Message, error) {
	var m domain.Message
	err := row.Scan(
		&m.ID, &m.ConversationID, &m.Role, &m.SenderID, &m.Content, &m.Seq,
		&m.DateCreated, &m.Step, &m.Validation, &m.Notes,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
