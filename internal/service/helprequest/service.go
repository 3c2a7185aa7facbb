// Package helprequest implements escalation of a stuck conversation to a
// senior mentor: creation with a conversation summary, the senior queue, and
// status transitions.
package helprequest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"

	"github.com/google/uuid"

	"github.com/Ranith1/LLM-Junior-Developer/internal/domain"
	"github.com/Ranith1/LLM-Junior-Developer/pkg/ctxutil"
)

// summaryMessages is how many leading messages of the conversation are
// folded into the summary shown to the assigned senior.
const summaryMessages = 10

type helpRequestRepo interface {
	Create(ctx context.Context, h *domain.HelpRequest) (*domain.HelpRequest, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.HelpRequest, error)
	ListAssignedOpen(ctx context.Context, seniorID uuid.UUID) ([]domain.HelpRequest, error)
	ListByStudent(ctx context.Context, studentID uuid.UUID) ([]domain.HelpRequest, error)
	FindByConversation(ctx context.Context, conversationID, studentID uuid.UUID) (*domain.HelpRequest, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.HelpRequestStatus) (*domain.HelpRequest, error)
}

type conversationRepo interface {
	GetForOwner(ctx context.Context, id, ownerID uuid.UUID) (*domain.Conversation, error)
}

type messageRepo interface {
	ListFirstN(ctx context.Context, conversationID uuid.UUID, n int) ([]domain.Message, error)
}

type userRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	ListByRole(ctx context.Context, role domain.UserRole) ([]domain.User, error)
}

// Service implements help-request operations.
type Service struct {
	log           *slog.Logger
	requests      helpRequestRepo
	conversations conversationRepo
	messages      messageRepo
	users         userRepo

	// pickSenior selects the assignee from the available seniors.
	// Overridable in tests; random by default.
	pickSenior func(seniors []domain.User) domain.User
}

// NewService creates a new help-request service instance.
func NewService(
	logger *slog.Logger,
	requests helpRequestRepo,
	conversations conversationRepo,
	messages messageRepo,
	users userRepo,
) *Service {
	return &Service{
		log:           logger.With("service", "helprequest"),
		requests:      requests,
		conversations: conversations,
		messages:      messages,
		users:         users,
		pickSenior: func(seniors []domain.User) domain.User {
			return seniors[rand.Intn(len(seniors))]
		},
	}
}

// Create escalates one of the caller's conversations to a randomly chosen
// senior mentor. The request snapshots the student's name and email and a
// summary built from the conversation's first messages.
//
// Returns domain.ErrAlreadyExists if the conversation already has an open or
// resolved request, and domain.ErrNotFound if no senior mentor is registered.
func (s *Service) Create(ctx context.Context, conversationID uuid.UUID, problem string) (*domain.HelpRequest, error) {
	studentID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	problem = strings.TrimSpace(problem)
	if problem == "" {
		return nil, domain.NewValidationError("problem_description", "must not be empty")
	}

	if _, err := s.conversations.GetForOwner(ctx, conversationID, studentID); err != nil {
		return nil, err
	}

	_, err := s.requests.FindByConversation(ctx, conversationID, studentID)
	switch {
	case err == nil:
		return nil, fmt.Errorf("conversation already escalated: %w", domain.ErrAlreadyExists)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("find existing request: %w", err)
	}

	student, err := s.users.GetByID(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("get student: %w", err)
	}

	seniors, err := s.users.ListByRole(ctx, domain.UserRoleSenior)
	if err != nil {
		return nil, fmt.Errorf("list seniors: %w", err)
	}
	if len(seniors) == 0 {
		return nil, fmt.Errorf("no senior mentors available: %w", domain.ErrNotFound)
	}
	senior := s.pickSenior(seniors)

	summary, err := s.buildSummary(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	created, err := s.requests.Create(ctx, &domain.HelpRequest{
		ID:                  uuid.New(),
		StudentID:           student.ID,
		StudentName:         student.Name,
		StudentEmail:        student.Email,
		ConversationID:      conversationID,
		ProblemDescription:  problem,
		ConversationSummary: summary,
		AssignedSeniorID:    senior.ID,
		Status:              domain.HelpRequestStatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("create help request: %w", err)
	}

	s.log.InfoContext(ctx, "help request created",
		slog.String("help_request_id", created.ID.String()),
		slog.String("assigned_senior_id", senior.ID.String()),
	)

	return created, nil
}

// AssignedToMe returns the caller's open queue. Senior mentors only.
func (s *Service) AssignedToMe(ctx context.Context) ([]domain.HelpRequest, error) {
	seniorID, err := requireSenior(ctx)
	if err != nil {
		return nil, err
	}
	return s.requests.ListAssignedOpen(ctx, seniorID)
}

// MyRequests returns all requests the caller has created, newest first.
func (s *Service) MyRequests(ctx context.Context) ([]domain.HelpRequest, error) {
	studentID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	return s.requests.ListByStudent(ctx, studentID)
}

// ByConversation returns the caller's non-cancelled request for the given
// conversation, if any.
func (s *Service) ByConversation(ctx context.Context, conversationID uuid.UUID) (*domain.HelpRequest, error) {
	studentID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	return s.requests.FindByConversation(ctx, conversationID, studentID)
}

// UpdateStatus moves a request to contacted, resolved, or cancelled. Only the
// assigned senior may do this, and closed requests stay closed.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.HelpRequestStatus) (*domain.HelpRequest, error) {
	seniorID, err := requireSenior(ctx)
	if err != nil {
		return nil, err
	}

	switch status {
	case domain.HelpRequestStatusContacted, domain.HelpRequestStatusResolved, domain.HelpRequestStatusCancelled:
	default:
		return nil, domain.NewValidationError("status", "must be contacted, resolved, or cancelled")
	}

	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.AssignedSeniorID != seniorID {
		return nil, domain.ErrForbidden
	}
	if !req.IsOpen() {
		return nil, domain.NewValidationError("status", "request is already closed")
	}

	return s.requests.UpdateStatus(ctx, id, status)
}

// buildSummary renders the first messages of the conversation as
// "role: content" blocks separated by blank lines.
func (s *Service) buildSummary(ctx context.Context, conversationID uuid.UUID) (string, error) {
	msgs, err := s.messages.ListFirstN(ctx, conversationID, summaryMessages)
	if err != nil {
		return "", fmt.Errorf("list messages: %w", err)
	}

	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		parts = append(parts, fmt.Sprintf("%s: %s", m.Role, m.Content))
	}
	return strings.Join(parts, "\n\n"), nil
}

func requireSenior(ctx context.Context) (uuid.UUID, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return uuid.Nil, domain.ErrUnauthorized
	}
	if ctxutil.UserRoleFromCtx(ctx) != domain.UserRoleSenior.String() {
		return uuid.Nil, domain.ErrForbidden
	}
	return userID, nil
}
