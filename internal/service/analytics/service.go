// Package analytics computes per-user usage reports over a trailing time
// window: per-conversation timing with duration distributions, plus a
// lexical frequency ranking of the student's own messages.
//
// Reports are pure functions of store state. Nothing is cached or
// persisted, and identical inputs over unchanged data yield identical
// reports.
package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Ranith1/LLM-Junior-Developer/internal/config"
	"github.com/Ranith1/LLM-Junior-Developer/internal/domain"
	"github.com/Ranith1/LLM-Junior-Developer/pkg/ctxutil"
)

// conversationRepo defines the conversation reads needed by the analytics service.
type conversationRepo interface {
	ListStartedSince(ctx context.Context, ownerID uuid.UUID, since time.Time) ([]domain.Conversation, error)
}

// messageRepo defines the message reads needed by the analytics service.
type messageRepo interface {
	FirstValidationTimes(ctx context.Context, conversationIDs []uuid.UUID) (map[uuid.UUID]time.Time, error)
	UserContentsSince(ctx context.Context, conversationIDs []uuid.UUID, since time.Time) ([]string, error)
}

// userRepo defines the user reads needed by the analytics service.
type userRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// Service computes analytics reports.
type Service struct {
	log           *slog.Logger
	conversations conversationRepo
	messages      messageRepo
	users         userRepo
	cfg           config.AnalyticsConfig
}

// NewService creates a new analytics service instance.
func NewService(
	logger *slog.Logger,
	conversations conversationRepo,
	messages messageRepo,
	users userRepo,
	cfg config.AnalyticsConfig,
) *Service {
	return &Service{
		log:           logger.With("service", "analytics"),
		conversations: conversations,
		messages:      messages,
		users:         users,
		cfg:           cfg,
	}
}

// UserReport computes the report for the given subject user.
//
// windowDays <= 0 selects the configured default (90 days); there is no
// upper bound. Seniors may query any subject; other callers
// only themselves. The subject must exist (domain.ErrNotFound otherwise).
func (s *Service) UserReport(ctx context.Context, subjectID uuid.UUID, windowDays int) (*domain.Report, error) {
	if err := s.authorize(ctx, subjectID); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByID(ctx, subjectID); err != nil {
		return nil, fmt.Errorf("resolve subject: %w", err)
	}

	return s.report(ctx, subjectID, windowDays)
}

// UserReportByEmail resolves the subject by email, then computes the report.
func (s *Service) UserReportByEmail(ctx context.Context, email string, windowDays int) (*domain.Report, error) {
	if email == "" {
		return nil, domain.NewValidationError("email", "must not be empty")
	}

	subject, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("resolve subject: %w", err)
	}

	if err := s.authorize(ctx, subject.ID); err != nil {
		return nil, err
	}

	return s.report(ctx, subject.ID, windowDays)
}

// MyReport computes the report for the authenticated caller.
func (s *Service) MyReport(ctx context.Context, windowDays int) (*domain.Report, error) {
	callerID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	return s.report(ctx, callerID, windowDays)
}

// authorize enforces the subject-access rule: seniors may query any subject,
// everyone else only themselves.
func (s *Service) authorize(ctx context.Context, subjectID uuid.UUID) error {
	callerID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return domain.ErrUnauthorized
	}

	if callerID == subjectID {
		return nil
	}
	if ctxutil.UserRoleFromCtx(ctx) == domain.UserRoleSenior.String() {
		return nil
	}
	return domain.ErrForbidden
}

// report runs the three-stage pipeline: resolve the window into the subject's
// conversation set, then run the timing and lexical analyzers concurrently
// over that set. Any failed read aborts the whole report; there are no
// partial results.
func (s *Service) report(ctx context.Context, subjectID uuid.UUID, windowDays int) (*domain.Report, error) {
	if windowDays <= 0 {
		windowDays = s.cfg.DefaultWindowDays
	}

	since := windowStart(time.Now(), windowDays)

	conversations, err := s.conversations.ListStartedSince(ctx, subjectID, since)
	if err != nil {
		return nil, fmt.Errorf("select window: %w", err)
	}

	ids := make([]uuid.UUID, len(conversations))
	for i, c := range conversations {
		ids[i] = c.ID
	}

	// The two analyzers share only the conversation-id set and the window;
	// they read disjoint data and join before the report is assembled.
	var (
		rows   []domain.DurationRow
		stats  domain.ReportStats
		topW   []domain.WordCount
		g, gctx = errgroup.WithContext(ctx)
	)

	g.Go(func() error {
		firstValidation, err := s.messages.FirstValidationTimes(gctx, ids)
		if err != nil {
			return fmt.Errorf("timing analyzer: %w", err)
		}
		rows = durationRows(conversations, firstValidation)
		stats = timingStats(rows)
		return nil
	})

	g.Go(func() error {
		contents, err := s.messages.UserContentsSince(gctx, ids, since)
		if err != nil {
			return fmt.Errorf("lexical analyzer: %w", err)
		}
		counter := newWordCounter()
		for _, content := range contents {
			counter.add(content)
		}
		topW = counter.top(s.cfg.TopWords)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.log.DebugContext(ctx, "report computed",
		slog.String("subject_id", subjectID.String()),
		slog.Int("window_days", windowDays),
		slog.Int("conversations", len(conversations)),
	)

	return &domain.Report{
		WindowDays: windowDays,
		Durations:  rows,
		Stats:      stats,
		TopWords:   topW,
	}, nil
}

// windowStart returns now minus days*24h. Day counts too large to represent
// as a time.Duration collapse to the zero time, so an oversized window reads
// as "all history" rather than wrapping around.
func windowStart(now time.Time, days int) time.Time {
	const maxDays = int(math.MaxInt64 / (24 * time.Hour))
	if days > maxDays {
		return time.Time{}
	}
	return now.Add(-time.Duration(days) * 24 * time.Hour)
}
