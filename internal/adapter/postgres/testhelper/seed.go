package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ranith1/LLM-Junior-Developer/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedUser creates a user with the given role and a throwaway password hash.
// Returns the filled domain.User.
func SeedUser(t *testing.T, pool *pgxpool.Pool, role domain.UserRole) domain.User {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	now := time.Now().UTC().Truncate(time.Microsecond)
	user := domain.User{
		ID:           uuid.New(),
		Name:         "Test User " + suffix,
		Email:        "testuser-" + suffix + "@example.com",
		Username:     "testuser-" + suffix,
		PasswordHash: "$2a$04$notarealhash" + suffix,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO users (id, name, email, username, password_hash, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		user.ID, user.Name, user.Email, user.Username, user.PasswordHash, string(user.Role),
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedUser insert: %v", err)
	}

	return user
}

// SeedConversation creates an active conversation for the given owner with
// the given start time. Returns the filled domain.Conversation.
func SeedConversation(t *testing.T, pool *pgxpool.Pool, ownerID uuid.UUID, startedAt time.Time) domain.Conversation {
	t.Helper()
	ctx := context.Background()

	startedAt = startedAt.UTC().Truncate(time.Microsecond)
	conv := domain.Conversation{
		ID:             uuid.New(),
		UserID:         ownerID,
		Title:          "Conversation " + uniqueSuffix(),
		Status:         domain.ConversationStatusActive,
		StartedAt:      startedAt,
		LastActivityAt: startedAt,
		CurrentStep:    1,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO conversations (id, user_id, title, status, started_at, last_activity_at, current_step)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		conv.ID, conv.UserID, conv.Title, string(conv.Status),
		conv.StartedAt, conv.LastActivityAt, conv.CurrentStep,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedConversation insert: %v", err)
	}

	return conv
}

// SeedMessage appends a message at the given seq with an explicit timestamp.
// Validation and step are optional; pass nil to leave them unset.
func SeedMessage(t *testing.T, pool *pgxpool.Pool, conversationID uuid.UUID, role domain.MessageRole,
	content string, seq int, createdAt time.Time, validation *bool) domain.Message {
	t.Helper()
	ctx := context.Background()

	msg := domain.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		Seq:            seq,
		DateCreated:    createdAt.UTC().Truncate(time.Microsecond),
		Validation:     validation,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO messages (id, conversation_id, role, content, seq, date_created, validation)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		msg.ID, msg.ConversationID, string(msg.Role), msg.Content, msg.Seq, msg.DateCreated, msg.Validation,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedMessage insert: %v", err)
	}

	return msg
}

// SeedHelpRequest creates a pending help request for the given student,
// conversation, and assigned senior.
func SeedHelpRequest(t *testing.T, pool *pgxpool.Pool, student domain.User,
	conversationID, seniorID uuid.UUID) domain.HelpRequest {
	t.Helper()
	ctx := context.Background()

	req := domain.HelpRequest{
		ID:                  uuid.New(),
		StudentID:           student.ID,
		StudentName:         student.Name,
		StudentEmail:        student.Email,
		ConversationID:      conversationID,
		ProblemDescription:  "stuck on " + uniqueSuffix(),
		ConversationSummary: "user: help\n\nassistant: what have you tried?",
		AssignedSeniorID:    seniorID,
		Status:              domain.HelpRequestStatusPending,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO help_requests (id, student_id, student_name, student_email, conversation_id,
		     problem_description, conversation_summary, assigned_senior_id, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		req.ID, req.StudentID, req.StudentName, req.StudentEmail, req.ConversationID,
		req.ProblemDescription, req.ConversationSummary, req.AssignedSeniorID, string(req.Status),
	)
	if err != nil {
		t.Fatalf("testhelper: SeedHelpRequest insert: %v", err)
	}

	return req
}
