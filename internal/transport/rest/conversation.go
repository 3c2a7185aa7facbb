package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Ranith1/LLM-Junior-Developer/internal/domain"
	"github.com/Ranith1/LLM-Junior-Developer/internal/service/conversation"
)

// conversationService defines the minimal interface needed by ConversationHandler.
type conversationService interface {
	List(ctx context.Context) ([]domain.Conversation, error)
	Create(ctx context.Context, title string) (*domain.Conversation, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Conversation, []domain.Message, error)
	Update(ctx context.Context, id uuid.UUID, in conversation.UpdateInput) (*domain.Conversation, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddMessage(ctx context.Context, conversationID uuid.UUID, in conversation.MessageInput) (*domain.Message, error)
}

// ConversationHandler serves conversation REST endpoints.
type ConversationHandler struct {
	svc conversationService
	log *slog.Logger
}

// NewConversationHandler creates a ConversationHandler.
func NewConversationHandler(svc conversationService, logger *slog.Logger) *ConversationHandler {
	return &ConversationHandler{svc: svc, log: logger.With("handler", "conversation")}
}

type createConversationRequest struct {
	Title string `json:"title"`
}

type updateConversationRequest struct {
	Title       *string `json:"title"`
	CurrentStep *int    `json:"currentStep"`
	Status      *string `json:"status"`
}

type addMessageRequest struct {
	Role       string  `json:"role"`
	Content    string  `json:"content"`
	Step       *int    `json:"step"`
	Validation *bool   `json:"validation"`
	Notes      *string `json:"notes"`
}

type conversationResponse struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Status         string    `json:"status"`
	StartedAt      time.Time `json:"startedAt"`
	LastActivityAt time.Time `json:"lastActivityAt"`
	CurrentStep    int       `json:"currentStep"`
	MessageCount   int       `json:"messageCount"`
}

type messageResponse struct {
	ID          string    `json:"id"`
	Role        string    `json:"role"`
	SenderID    *string   `json:"senderId,omitempty"`
	Content     string    `json:"content"`
	Seq         int       `json:"seq"`
	DateCreated time.Time `json:"dateCreated"`
	Step        *int      `json:"step,omitempty"`
	Validation  *bool     `json:"validation,omitempty"`
	Notes       *string   `json:"notes,omitempty"`
}

// List handles GET /api/conversations.
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	out := make([]conversationResponse, 0, len(list))
	for i := range list {
		out = append(out, toConversationResponse(&list[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// Create handles POST /api/conversations.
func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.svc.Create(r.Context(), req.Title)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toConversationResponse(created))
}

// Get handles GET /api/conversations/{id}.
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	conv, msgs, err := h.svc.Get(r.Context(), id)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	messages := make([]messageResponse, 0, len(msgs))
	for i := range msgs {
		messages = append(messages, toMessageResponse(&msgs[i]))
	}

	writeJSON(w, http.StatusOK, struct {
		conversationResponse
		Messages []messageResponse `json:"messages"`
	}{toConversationResponse(conv), messages})
}

// Update handles PUT /api/conversations/{id}.
func (h *ConversationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req updateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in := conversation.UpdateInput{
		Title:       req.Title,
		CurrentStep: req.CurrentStep,
	}
	if req.Status != nil {
		status := domain.ConversationStatus(*req.Status)
		in.Status = &status
	}

	updated, err := h.svc.Update(r.Context(), id, in)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toConversationResponse(updated))
}

// Delete handles DELETE /api/conversations/{id}.
func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// AddMessage handles POST /api/conversations/{id}/messages.
func (h *ConversationHandler) AddMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req addMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.svc.AddMessage(r.Context(), id, conversation.MessageInput{
		Role:       domain.MessageRole(req.Role),
		Content:    req.Content,
		Step:       req.Step,
		Validation: req.Validation,
		Notes:      req.Notes,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toMessageResponse(created))
}

// pathUUID parses a UUID path segment, writing a 400 on failure.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func toConversationResponse(c *domain.Conversation) conversationResponse {
	return conversationResponse{
		ID:             c.ID.String(),
		Title:          c.Title,
		Status:         c.Status.String(),
		StartedAt:      c.StartedAt,
		LastActivityAt: c.LastActivityAt,
		CurrentStep:    c.CurrentStep,
		MessageCount:   c.MessageCount,
	}
}

func toMessageResponse(m *domain.Message) messageResponse {
	resp := messageResponse{
		ID:          m.ID.String(),
		Role:        m.Role.String(),
		Content:     m.Content,
		Seq:         m.Seq,
		DateCreated: m.DateCreated,
		Step:        m.Step,
		Validation:  m.Validation,
		Notes:       m.Notes,
	}
	if m.SenderID != nil {
		s := m.SenderID.String()
		resp.SenderID = &s
	}
	return resp
}
