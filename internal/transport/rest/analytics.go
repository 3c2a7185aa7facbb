package rest

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/Ranith1/LLM-Junior-Developer/internal/domain"
)

// analyticsService defines the minimal interface needed by AnalyticsHandler.
type analyticsService interface {
	UserReport(ctx context.Context, subjectID uuid.UUID, windowDays int) (*domain.Report, error)
	UserReportByEmail(ctx context.Context, email string, windowDays int) (*domain.Report, error)
	MyReport(ctx context.Context, windowDays int) (*domain.Report, error)
}

// AnalyticsHandler serves analytics REST endpoints.
type AnalyticsHandler struct {
	svc analyticsService
	log *slog.Logger
}

// NewAnalyticsHandler creates an AnalyticsHandler.
func NewAnalyticsHandler(svc analyticsService, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{svc: svc, log: logger.With("handler", "analytics")}
}

type reportResponse struct {
	WindowDays int                   `json:"windowDays"`
	Durations  []durationRowResponse `json:"durations"`
	Stats      reportStatsResponse   `json:"stats"`
	TopWords   []wordCountResponse   `json:"topWords"`
}

type durationRowResponse struct {
	ConversationID     string `json:"conversationId"`
	FullDurationMs     int64  `json:"fullDurationMs"`
	TimeToValidationMs *int64 `json:"timeToValidationMs"`
	StartedAt          string `json:"startedAt"`
	LastActivityAt     string `json:"lastActivityAt"`
}

type reportStatsResponse struct {
	FullDuration     distributionResponse `json:"fullDuration"`
	TimeToValidation distributionResponse `json:"timeToValidation"`
}

type distributionResponse struct {
	Count int    `json:"count"`
	AvgMs *int64 `json:"avgMs"`
	P50Ms *int64 `json:"p50Ms"`
	P90Ms *int64 `json:"p90Ms"`
}

type wordCountResponse struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// MyReport handles GET /api/analytics/user/me?days=N.
func (h *AnalyticsHandler) MyReport(w http.ResponseWriter, r *http.Request) {
	days, ok := queryDays(w, r)
	if !ok {
		return
	}

	report, err := h.svc.MyReport(r.Context(), days)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toReportResponse(report))
}

// UserReport handles GET /api/analytics/user/{id}?days=N.
func (h *AnalyticsHandler) UserReport(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	days, ok := queryDays(w, r)
	if !ok {
		return
	}

	report, err := h.svc.UserReport(r.Context(), subjectID, days)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toReportResponse(report))
}

// UserReportByEmail handles GET /api/analytics/user/by-email/{email}?days=N.
func (h *AnalyticsHandler) UserReportByEmail(w http.ResponseWriter, r *http.Request) {
	days, ok := queryDays(w, r)
	if !ok {
		return
	}

	report, err := h.svc.UserReportByEmail(r.Context(), r.PathValue("email"), days)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toReportResponse(report))
}

// queryDays parses the optional days query parameter. Absent means 0, which
// selects the service default; present values must be positive integers.
func queryDays(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return 0, true
	}

	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 {
		writeError(w, http.StatusBadRequest, "days must be a positive integer")
		return 0, false
	}
	return days, true
}

func toReportResponse(report *domain.Report) reportResponse {
	durations := make([]durationRowResponse, 0, len(report.Durations))
	for _, row := range report.Durations {
		durations = append(durations, durationRowResponse{
			ConversationID:     row.ConversationID.String(),
			FullDurationMs:     row.FullDurationMs,
			TimeToValidationMs: row.TimeToValidationMs,
			StartedAt:          row.StartedAt.Format(time.RFC3339),
			LastActivityAt:     row.LastActivityAt.Format(time.RFC3339),
		})
	}

	topWords := make([]wordCountResponse, 0, len(report.TopWords))
	for _, wc := range report.TopWords {
		topWords = append(topWords, wordCountResponse{Word: wc.Word, Count: wc.Count})
	}

	return reportResponse{
		WindowDays: report.WindowDays,
		Durations:  durations,
		Stats: reportStatsResponse{
			FullDuration:     toDistributionResponse(report.Stats.FullDuration),
			TimeToValidation: toDistributionResponse(report.Stats.TimeToValidation),
		},
		TopWords: topWords,
	}
}

func toDistributionResponse(d domain.DistributionStats) distributionResponse {
	return distributionResponse{
		Count: d.Count,
		AvgMs: d.AvgMs,
		P50Ms: d.P50Ms,
		P90Ms: d.P90Ms,
	}
}
