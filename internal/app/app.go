// Package app wires configuration, logging, storage, services, and the HTTP
// server into a runnable application.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Ranith1/LLM-Junior-Developer/internal/adapter/postgres"
	conversationrepo "github.com/Ranith1/LLM-Junior-Developer/internal/adapter/postgres/conversation"
	helprequestrepo "github.com/Ranith1/LLM-Junior-Developer/internal/adapter/postgres/helprequest"
	messagerepo "github.com/Ranith1/LLM-Junior-Developer/internal/adapter/postgres/message"
	tokenrepo "github.com/Ranith1/LLM-Junior-Developer/internal/adapter/postgres/token"
	userrepo "github.com/Ranith1/LLM-Junior-Developer/internal/adapter/postgres/user"
	jwtauth "github.com/Ranith1/LLM-Junior-Developer/internal/auth"
	"github.com/Ranith1/LLM-Junior-Developer/internal/config"
	analyticssvc "github.com/Ranith1/LLM-Junior-Developer/internal/service/analytics"
	authsvc "github.com/Ranith1/LLM-Junior-Developer/internal/service/auth"
	conversationsvc "github.com/Ranith1/LLM-Junior-Developer/internal/service/conversation"
	helprequestsvc "github.com/Ranith1/LLM-Junior-Developer/internal/service/helprequest"
	"github.com/Ranith1/LLM-Junior-Developer/internal/transport/middleware"
	"github.com/Ranith1/LLM-Junior-Developer/internal/transport/rest"
)

// Run is the application entry point: it loads configuration, connects to the
// database, assembles services and handlers, starts the HTTP server, and
// shuts it down gracefully when ctx is cancelled.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)
	users := userrepo.New(pool)
	tokens := tokenrepo.New(pool)
	conversations := conversationrepo.New(pool)
	messages := messagerepo.New(pool)
	helpRequests := helprequestrepo.New(pool)

	jwtManager := jwtauth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL)

	authService := authsvc.NewService(logger, users, tokens, txManager, jwtManager, cfg.Auth)
	conversationService := conversationsvc.NewService(logger, conversations, messages, txManager)
	helpRequestService := helprequestsvc.NewService(logger, helpRequests, conversations, messages, users)
	analyticsService := analyticssvc.NewService(logger, conversations, messages, users, cfg.Analytics)

	mux := rest.NewRouter(rest.Handlers{
		Health:       rest.NewHealthHandler(pool, BuildVersion()),
		Auth:         rest.NewAuthHandler(authService, logger),
		Conversation: rest.NewConversationHandler(conversationService, logger),
		HelpRequest:  rest.NewHelpRequestHandler(helpRequestService, logger),
		Analytics:    rest.NewAnalyticsHandler(analyticsService, logger),
	})

	rateLimiter := middleware.NewRateLimiter(time.Minute)
	defer rateLimiter.Stop()

	handler := middleware.Chain(
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.Recovery(logger),
		middleware.CORS(cfg.CORS),
		rateLimiter.Limit(cfg.Server.RateLimitPerMin),
		middleware.Auth(authService),
	)(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	return nil
}
