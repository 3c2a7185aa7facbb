// Package rest implements the JSON HTTP API.
package rest

import "net/http"

// Handlers groups the REST handlers mounted by NewRouter.
type Handlers struct {
	Health       *HealthHandler
	Auth         *AuthHandler
	Conversation *ConversationHandler
	HelpRequest  *HelpRequestHandler
	Analytics    *AnalyticsHandler
}

// NewRouter builds the route table. Cross-cutting middleware is applied by
// the caller around the returned mux.
func NewRouter(h Handlers) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.Health.Health)
	mux.HandleFunc("GET /health/live", h.Health.Live)
	mux.HandleFunc("GET /health/ready", h.Health.Ready)

	mux.HandleFunc("POST /api/auth/signup", h.Auth.Signup)
	mux.HandleFunc("POST /api/auth/login", h.Auth.Login)
	mux.HandleFunc("POST /api/auth/refresh", h.Auth.Refresh)
	mux.HandleFunc("POST /api/auth/logout", h.Auth.Logout)
	mux.HandleFunc("POST /api/auth/logout-all", h.Auth.LogoutAll)
	mux.HandleFunc("GET /api/auth/verify", h.Auth.Verify)

	mux.HandleFunc("GET /api/conversations", h.Conversation.List)
	mux.HandleFunc("POST /api/conversations", h.Conversation.Create)
	mux.HandleFunc("GET /api/conversations/{id}", h.Conversation.Get)
	mux.HandleFunc("PUT /api/conversations/{id}", h.Conversation.Update)
	mux.HandleFunc("DELETE /api/conversations/{id}", h.Conversation.Delete)
	mux.HandleFunc("POST /api/conversations/{id}/messages", h.Conversation.AddMessage)

	mux.HandleFunc("POST /api/help-requests", h.HelpRequest.Create)
	mux.HandleFunc("GET /api/help-requests/assigned-to-me", h.HelpRequest.AssignedToMe)
	mux.HandleFunc("GET /api/help-requests/my-requests", h.HelpRequest.MyRequests)
	mux.HandleFunc("GET /api/help-requests/conversation/{conversationId}", h.HelpRequest.ByConversation)
	mux.HandleFunc("PUT /api/help-requests/{id}/status", h.HelpRequest.UpdateStatus)

	mux.HandleFunc("GET /api/analytics/user/me", h.Analytics.MyReport)
	mux.HandleFunc("GET /api/analytics/user/by-email/{email}", h.Analytics.UserReportByEmail)
	mux.HandleFunc("GET /api/analytics/user/{id}", h.Analytics.UserReport)

	return mux
}
