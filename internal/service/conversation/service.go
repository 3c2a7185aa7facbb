// Package conversation implements the tutoring dialogue lifecycle:
// listing, creation, metadata updates, soft deletion, and message appends.
package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	convrepo "github.com/Ranith1/LLM-Junior-Developer/internal/adapter/postgres/conversation"
	"github.com/Ranith1/LLM-Junior-Developer/internal/domain"
	"github.com/Ranith1/LLM-Junior-Developer/pkg/ctxutil"
)

// defaultTitle is used when a conversation is created without one.
const defaultTitle = "New Chat"

// maxContentLen caps a single message body.
const maxContentLen = 32_000

// minStep and maxStep bound the Socratic method steps.
const (
	minStep = 1
	maxStep = 5
)

type conversationRepo interface {
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Conversation, error)
	Create(ctx context.Context, c *domain.Conversation) (*domain.Conversation, error)
	GetForOwner(ctx context.Context, id, ownerID uuid.UUID) (*domain.Conversation, error)
	Update(ctx context.Context, id, ownerID uuid.UUID, fields convrepo.UpdateFields) (*domain.Conversation, error)
	SoftDelete(ctx context.Context, id, ownerID uuid.UUID) error
	Touch(ctx context.Context, id uuid.UUID, step *int) error
}

type messageRepo interface {
	ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]domain.Message, error)
	Create(ctx context.Context, m *domain.Message) (*domain.Message, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service implements conversation and message operations. Every operation is
// scoped to the authenticated owner; there is no cross-user access here.
type Service struct {
	log           *slog.Logger
	conversations conversationRepo
	messages      messageRepo
	tx            txManager
}

// NewService creates a new conversation service instance.
func NewService(logger *slog.Logger, conversations conversationRepo, messages messageRepo, tx txManager) *Service {
	return &Service{
		log:           logger.With("service", "conversation"),
		conversations: conversations,
		messages:      messages,
		tx:            tx,
	}
}

// List returns the caller's non-deleted conversations, most recently active first.
func (s *Service) List(ctx context.Context) ([]domain.Conversation, error) {
	ownerID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	return s.conversations.ListByOwner(ctx, ownerID)
}

// Create starts a new conversation for the caller.
func (s *Service) Create(ctx context.Context, title string) (*domain.Conversation, error) {
	ownerID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = defaultTitle
	}

	created, err := s.conversations.Create(ctx, &domain.Conversation{
		ID:          uuid.New(),
		UserID:      ownerID,
		Title:       title,
		Status:      domain.ConversationStatusActive,
		CurrentStep: minStep,
	})
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}

	s.log.InfoContext(ctx, "conversation created",
		slog.String("conversation_id", created.ID.String()),
	)

	return created, nil
}

// Get returns one of the caller's conversations together with its full
// message history in seq order.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Conversation, []domain.Message, error) {
	ownerID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, nil, domain.ErrUnauthorized
	}

	conv, err := s.conversations.GetForOwner(ctx, id, ownerID)
	if err != nil {
		return nil, nil, err
	}

	msgs, err := s.messages.ListByConversation(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("list messages: %w", err)
	}

	return conv, msgs, nil
}

// UpdateInput holds the optional fields of a conversation update.
type UpdateInput struct {
	Title       *string
	CurrentStep *int
	Status      *domain.ConversationStatus
}

// Update applies the non-nil fields of the input to the caller's conversation.
// Status may only move between active and archived; deletion goes through Delete.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*domain.Conversation, error) {
	ownerID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	if err := validateUpdate(in); err != nil {
		return nil, err
	}

	return s.conversations.Update(ctx, id, ownerID, convrepo.UpdateFields{
		Title:       in.Title,
		CurrentStep: in.CurrentStep,
		Status:      in.Status,
	})
}

// Delete soft-deletes the caller's conversation. The row and its messages
// stay in storage but disappear from listings and analytics.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	ownerID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return domain.ErrUnauthorized
	}

	if err := s.conversations.SoftDelete(ctx, id, ownerID); err != nil {
		return err
	}

	s.log.InfoContext(ctx, "conversation deleted",
		slog.String("conversation_id", id.String()),
	)
	return nil
}

// MessageInput holds the fields of a message append.
type MessageInput struct {
	Role       domain.MessageRole
	Content    string
	Step       *int
	Validation *bool
	Notes      *string
}

// AddMessage appends a message to the caller's conversation. The insert and
// the conversation bump (last activity, message count, optional step advance)
// run in one transaction so seq assignment cannot race.
//
// Messages with Role user carry the caller as sender; other roles have no
// sender of their own.
func (s *Service) AddMessage(ctx context.Context, conversationID uuid.UUID, in MessageInput) (*domain.Message, error) {
	ownerID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	if err := validateMessage(in); err != nil {
		return nil, err
	}

	if _, err := s.conversations.GetForOwner(ctx, conversationID, ownerID); err != nil {
		return nil, err
	}

	msg := &domain.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		Role:           in.Role,
		Content:        in.Content,
		Step:           in.Step,
		Validation:     in.Validation,
		Notes:          in.Notes,
	}
	if in.Role == domain.MessageRoleUser {
		msg.SenderID = &ownerID
	}

	var created *domain.Message
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.messages.Create(ctx, msg)
		if err != nil {
			return fmt.Errorf("create message: %w", err)
		}
		if err := s.conversations.Touch(ctx, conversationID, in.Step); err != nil {
			return fmt.Errorf("touch conversation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

func validateUpdate(in UpdateInput) error {
	var errs []domain.FieldError

	if in.Title == nil && in.CurrentStep == nil && in.Status == nil {
		return domain.NewValidationError("body", "no fields to update")
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		errs = append(errs, domain.FieldError{Field: "title", Message: "must not be empty"})
	}
	if in.CurrentStep != nil && (*in.CurrentStep < minStep || *in.CurrentStep > maxStep) {
		errs = append(errs, domain.FieldError{
			Field:   "current_step",
			Message: fmt.Sprintf("must be between %d and %d", minStep, maxStep),
		})
	}
	if in.Status != nil {
		switch *in.Status {
		case domain.ConversationStatusActive, domain.ConversationStatusArchived:
		default:
			errs = append(errs, domain.FieldError{Field: "status", Message: "must be active or archived"})
		}
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

func validateMessage(in MessageInput) error {
	var errs []domain.FieldError

	if !in.Role.IsValid() {
		errs = append(errs, domain.FieldError{Field: "role", Message: "unknown message role"})
	}
	if strings.TrimSpace(in.Content) == "" {
		errs = append(errs, domain.FieldError{Field: "content", Message: "must not be empty"})
	}
	if len(in.Content) > maxContentLen {
		errs = append(errs, domain.FieldError{
			Field:   "content",
			Message: fmt.Sprintf("must be at most %d characters", maxContentLen),
		})
	}
	if in.Step != nil && (*in.Step < minStep || *in.Step > maxStep) {
		errs = append(errs, domain.FieldError{
			Field:   "step",
			Message: fmt.Sprintf("must be between %d and %d", minStep, maxStep),
		})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}
