// Package helprequest implements the HelpRequest repository using PostgreSQL.
package helprequest

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ranith1/LLM-Junior-Developer/internal/adapter/postgres"
	"github.com/Ranith1/LLM-Junior-Developer/internal/domain"
)

const table = "help_requests"

var columns = []string{
	"id", "student_id", "student_name", "student_email", "conversation_id",
	"problem_description", "conversation_summary", "assigned_senior_id",
	"status", "created_at", "contacted_at", "resolved_at",
}

// Repo provides help-request persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new help-request repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Create inserts a new help request and returns the persisted row.
func (r *Repo) Create(ctx context.Context, h *domain.HelpRequest) (*domain.HelpRequest, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder.
		Insert(table).
		Columns("id", "student_id", "student_name", "student_email", "conversation_id",
			"problem_description", "conversation_summary", "assigned_senior_id", "status").
		Values(h.ID, h.StudentID, h.StudentName, h.StudentEmail, h.ConversationID,
			h.ProblemDescription, h.ConversationSummary, h.AssignedSeniorID, h.Status).
		Suffix("RETURNING " + columnList()).
		ToSql()
	if err != nil {
		return nil, postgres.MapError(err, "help_request", h.ID)
	}

	created, err := scanHelpRequest(q.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, postgres.MapError(err, "help_request", h.ID)
	}
	return created, nil
}

// GetByID returns a help request by primary key.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.HelpRequest, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder.
		Select(columns...).
		From(table).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, postgres.MapError(err, "help_request", id)
	}

	h, err := scanHelpRequest(q.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, postgres.MapError(err, "help_request", id)
	}
	return h, nil
}

// ListAssignedOpen returns a senior's pending and contacted requests,
// newest first.
func (r *Repo) ListAssignedOpen(ctx context.Context, seniorID uuid.UUID) ([]domain.HelpRequest, error) {
	query := postgres.Builder.
		Select(columns...).
		From(table).
		Where(sq.Eq{
			"assigned_senior_id": seniorID,
			"status":             []domain.HelpRequestStatus{domain.HelpRequestStatusPending, domain.HelpRequestStatusContacted},
		}).
		OrderBy("created_at DESC")

	list, err := r.list(ctx, query)
	if err != nil {
		return nil, postgres.MapError(err, "help_request", seniorID)
	}
	return list, nil
}

// ListByStudent returns all of a student's requests, newest first.
func (r *Repo) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]domain.HelpRequest, error) {
	query := postgres.Builder.
		Select(columns...).
		From(table).
		Where(sq.Eq{"student_id": studentID}).
		OrderBy("created_at DESC")

	list, err := r.list(ctx, query)
	if err != nil {
		return nil, postgres.MapError(err, "help_request", studentID)
	}
	return list, nil
}

// FindByConversation returns the student's non-cancelled request for a
// conversation, or domain.ErrNotFound when none exists.
func (r *Repo) FindByConversation(ctx context.Context, conversationID, studentID uuid.UUID) (*domain.HelpRequest, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := postgres.Builder.
		Select(columns...).
		From(table).
		Where(sq.Eq{
			"conversation_id": conversationID,
			"student_id":      studentID,
			"status": []domain.HelpRequestStatus{
				domain.HelpRequestStatusPending,
				domain.HelpRequestStatusContacted,
				domain.HelpRequestStatusResolved,
			},
		}).
		OrderBy("created_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, postgres.MapError(err, "help_request", conversationID)
	}

	h, err := scanHelpRequest(q.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, postgres.MapError(err, "help_request", conversationID)
	}
	return h, nil
}

// UpdateStatus sets the status and stamps contacted_at/resolved_at the first
// time the corresponding status is reached.
func (r *Repo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.HelpRequestStatus) (*domain.HelpRequest, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	update := postgres.Builder.
		Update(table).
		Set("status", status).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + columnList())

	switch status {
	case domain.HelpRequestStatusContacted:
		update = update.Set("contacted_at", sq.Expr("COALESCE(contacted_at, now())"))
	case domain.HelpRequestStatusResolved:
		update = update.Set("resolved_at", sq.Expr("COALESCE(resolved_at, now())"))
	}

	sql, args, err := update.ToSql()
	if err != nil {
		return nil, postgres.MapError(err, "help_request", id)
	}

	h, err := scanHelpRequest(q.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, postgres.MapError(err, "help_request", id)
	}
	return h, nil
}

func (r *Repo) list(ctx context.Context, query sq.SelectBuilder) ([]domain.HelpRequest, error) {
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

	var list []domain.HelpRequest
	for rows.Next() {
		h, err := scanHelpRequest(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *h)
	}
	return list, rows.Err()
}

// scanHelpRequest reads one help-request row in the canonical column order.
func scanHelpRequest(row pgx.Row) (*domain.HelpRequest, error) {
	var h domain.HelpRequest
	err := row.Scan(
		&h.ID, &h.StudentID, &h.StudentName, &h.StudentEmail, &h.ConversationID,
		&h.ProblemDescription, &h.ConversationSummary, &h.AssignedSeniorID,
		&h.Status, &h.CreatedAt, &h.ContactedAt, &h.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func columnList() string {
	list := columns[0]
	for _, c := range columns[1:] {
		list += ", " + c
	}
	return list
}
