package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Ranith1/LLM-Junior-Developer/internal/domain"
)

// helpRequestService defines the minimal interface needed by HelpRequestHandler.
type helpRequestService interface {
	Create(ctx context.Context, conversationID uuid.UUID, problem string) (*domain.HelpRequest, error)
	AssignedToMe(ctx context.Context) ([]domain.HelpRequest, error)
	MyRequests(ctx context.Context) ([]domain.HelpRequest, error)
	ByConversation(ctx context.Context, conversationID uuid.UUID) (*domain.HelpRequest, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.HelpRequestStatus) (*domain.HelpRequest, error)
}

// HelpRequestHandler serves help-request REST endpoints.
type HelpRequestHandler struct {
	svc helpRequestService
	log *slog.Logger
}

// NewHelpRequestHandler creates a HelpRequestHandler.
func NewHelpRequestHandler(svc helpRequestService, logger *slog.Logger) *HelpRequestHandler {
	return &HelpRequestHandler{svc: svc, log: logger.With("handler", "helprequest")}
}

type createHelpRequestRequest struct {
	ConversationID     string `json:"conversationId"`
	ProblemDescription string `json:"problemDescription"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type helpRequestResponse struct {
	ID                  string     `json:"id"`
	StudentID           string     `json:"studentId"`
	StudentName         string     `json:"studentName"`
	StudentEmail        string     `json:"studentEmail"`
	ConversationID      string     `json:"conversationId"`
	ProblemDescription  string     `json:"problemDescription"`
	ConversationSummary string     `json:"conversationSummary"`
	AssignedSeniorID    string     `json:"assignedSeniorId"`
	Status              string     `json:"status"`
	CreatedAt           time.Time  `json:"createdAt"`
	ContactedAt         *time.Time `json:"contactedAt,omitempty"`
	ResolvedAt          *time.Time `json:"resolvedAt,omitempty"`
}

// Create handles POST /api/help-requests.
func (h *HelpRequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createHelpRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	conversationID, err := uuid.Parse(req.ConversationID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid conversationId")
		return
	}

	created, err := h.svc.Create(r.Context(), conversationID, req.ProblemDescription)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toHelpRequestResponse(created))
}

// AssignedToMe handles GET /api/help-requests/assigned-to-me.
func (h *HelpRequestHandler) AssignedToMe(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.AssignedToMe(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toHelpRequestResponses(list))
}

// MyRequests handles GET /api/help-requests/my-requests.
func (h *HelpRequestHandler) MyRequests(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.MyRequests(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toHelpRequestResponses(list))
}

// ByConversation handles GET /api/help-requests/conversation/{conversationId}.
// Responds with null when the conversation has no active request.
func (h *HelpRequestHandler) ByConversation(w http.ResponseWriter, r *http.Request) {
	conversationID, ok := pathUUID(w, r, "conversationId")
	if !ok {
		return
	}

	req, err := h.svc.ByConversation(r.Context(), conversationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusOK, nil)
			return
		}
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toHelpRequestResponse(req))
}

// UpdateStatus handles PUT /api/help-requests/{id}/status.
func (h *HelpRequestHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.svc.UpdateStatus(r.Context(), id, domain.HelpRequestStatus(req.Status))
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toHelpRequestResponse(updated))
}

func toHelpRequestResponses(list []domain.HelpRequest) []helpRequestResponse {
	out := make([]helpRequestResponse, 0, len(list))
	for i := range list {
		out = append(out, toHelpRequestResponse(&list[i]))
	}
	return out
}

func toHelpRequestResponse(h *domain.HelpRequest) helpRequestResponse {
	return helpRequestResponse{
		ID:                  h.ID.String(),
		StudentID:           h.StudentID.String(),
		StudentName:         h.StudentName,
		StudentEmail:        h.StudentEmail,
		ConversationID:      h.ConversationID.String(),
		ProblemDescription:  h.ProblemDescription,
		ConversationSummary: h.ConversationSummary,
		AssignedSeniorID:    h.AssignedSeniorID.String(),
		Status:              h.Status.String(),
		CreatedAt:           h.CreatedAt,
		ContactedAt:         h.ContactedAt,
		ResolvedAt:          h.ResolvedAt,
	}
}
