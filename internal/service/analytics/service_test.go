package analytics

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ranith1/LLM-Junior-Developer/internal/config"
	"github.com/Ranith1/LLM-Junior-Developer/internal/domain"
	"github.com/Ranith1/LLM-Junior-Developer/pkg/ctxutil"
)

type conversationRepoMock struct {
	ListStartedSinceFunc func(ctx context.Context, ownerID uuid.UUID, since time.Time) ([]domain.Conversation, error)
}

func (m *conversationRepoMock) ListStartedSince(ctx context.Context, ownerID uuid.UUID, since time.Time) ([]domain.Conversation, error) {
	return m.ListStartedSinceFunc(ctx, ownerID, since)
}

type messageRepoMock struct {
	FirstValidationTimesFunc func(ctx context.Context, conversationIDs []uuid.UUID) (map[uuid.UUID]time.Time, error)
	UserContentsSinceFunc    func(ctx context.Context, conversationIDs []uuid.UUID, since time.Time) ([]string, error)
}

func (m *messageRepoMock) FirstValidationTimes(ctx context.Context, conversationIDs []uuid.UUID) (map[uuid.UUID]time.Time, error) {
	return m.FirstValidationTimesFunc(ctx, conversationIDs)
}

func (m *messageRepoMock) UserContentsSince(ctx context.Context, conversationIDs []uuid.UUID, since time.Time) ([]string, error) {
	return m.UserContentsSinceFunc(ctx, conversationIDs, since)
}

type userRepoMock struct {
	GetByIDFunc    func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmailFunc func(ctx context.Context, email string) (*domain.User, error)
}

func (m *userRepoMock) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return m.GetByIDFunc(ctx, id)
}

func (m *userRepoMock) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return m.GetByEmailFunc(ctx, email)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() config.AnalyticsConfig {
	return config.AnalyticsConfig{DefaultWindowDays: 90, TopWords: 10}
}

func callerCtx(id uuid.UUID, role domain.UserRole) context.Context {
	ctx := ctxutil.WithUserID(context.Background(), id)
	return ctxutil.WithUserRole(ctx, role.String())
}

func emptyRepos(subjectID uuid.UUID) (*conversationRepoMock, *messageRepoMock, *userRepoMock) {
	conversations := &conversationRepoMock{
		ListStartedSinceFunc: func(_ context.Context, _ uuid.UUID, _ time.Time) ([]domain.Conversation, error) {
			return nil, nil
		},
	}
	messages := &messageRepoMock{
		FirstValidationTimesFunc: func(_ context.Context, _ []uuid.UUID) (map[uuid.UUID]time.Time, error) {
			return nil, nil
		},
		UserContentsSinceFunc: func(_ context.Context, _ []uuid.UUID, _ time.Time) ([]string, error) {
			return nil, nil
		},
	}
	users := &userRepoMock{
		GetByIDFunc: func(_ context.Context, id uuid.UUID) (*domain.User, error) {
			if id != subjectID {
				return nil, domain.ErrNotFound
			}
			return &domain.User{ID: subjectID}, nil
		},
	}
	return conversations, messages, users
}

func TestService_UserReport_Authorization(t *testing.T) {
	t.Parallel()

	subjectID := uuid.New()
	otherID := uuid.New()

	tests := []struct {
		name    string
		ctx     context.Context
		wantErr error
	}{
		{
			name: "student may query self",
			ctx:  callerCtx(subjectID, domain.UserRoleStudent),
		},
		{
			name:    "student may not query another user",
			ctx:     callerCtx(otherID, domain.UserRoleStudent),
			wantErr: domain.ErrForbidden,
		},
		{
			name: "senior may query any subject",
			ctx:  callerCtx(otherID, domain.UserRoleSenior),
		},
		{
			name:    "anonymous caller rejected",
			ctx:     context.Background(),
			wantErr: domain.ErrUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			conversations, messages, users := emptyRepos(subjectID)
			svc := NewService(testLogger(), conversations, messages, users, testConfig())

			report, err := svc.UserReport(tt.ctx, subjectID, 0)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, report)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, report)
		})
	}
}

func TestService_UserReport_SubjectNotFound(t *testing.T) {
	t.Parallel()

	seniorID := uuid.New()
	conversations, messages, users := emptyRepos(uuid.New())
	svc := NewService(testLogger(), conversations, messages, users, testConfig())

	report, err := svc.UserReport(callerCtx(seniorID, domain.UserRoleSenior), uuid.New(), 30)

	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, report)
}

func TestService_UserReport_DefaultWindow(t *testing.T) {
	t.Parallel()

	subjectID := uuid.New()
	var gotSince time.Time

	conversations, messages, users := emptyRepos(subjectID)
	conversations.ListStartedSinceFunc = func(_ context.Context, ownerID uuid.UUID, since time.Time) ([]domain.Conversation, error) {
		assert.Equal(t, subjectID, ownerID)
		gotSince = since
		return nil, nil
	}

	svc := NewService(testLogger(), conversations, messages, users, testConfig())

	report, err := svc.UserReport(callerCtx(subjectID, domain.UserRoleStudent), subjectID, 0)
	require.NoError(t, err)

	assert.Equal(t, 90, report.WindowDays)
	wantSince := time.Now().Add(-90 * 24 * time.Hour)
	assert.WithinDuration(t, wantSince, gotSince, 5*time.Second)
}

func TestWindowStart(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, now.Add(-30*24*time.Hour), windowStart(now, 30))

	// Day counts past the duration range cover all history instead of
	// wrapping around to a future instant.
	for _, days := range []int{200_000, math.MaxInt} {
		got := windowStart(now, days)
		assert.True(t, got.IsZero(), "windowStart(now, %d) = %v, want zero time", days, got)
	}
}

func TestService_UserReport_HugeWindowCoversAllHistory(t *testing.T) {
	t.Parallel()

	subjectID := uuid.New()
	var gotSince time.Time

	conversations, messages, users := emptyRepos(subjectID)
	conversations.ListStartedSinceFunc = func(_ context.Context, _ uuid.UUID, since time.Time) ([]domain.Conversation, error) {
		gotSince = since
		return nil, nil
	}

	svc := NewService(testLogger(), conversations, messages, users, testConfig())

	report, err := svc.UserReport(callerCtx(subjectID, domain.UserRoleStudent), subjectID, math.MaxInt)
	require.NoError(t, err)

	assert.True(t, gotSince.IsZero(), "oversized window should query from the zero time, got %v", gotSince)
	assert.Equal(t, math.MaxInt, report.WindowDays)
}

func TestService_UserReport_EmptyWindow(t *testing.T) {
	t.Parallel()

	subjectID := uuid.New()
	conversations, messages, users := emptyRepos(subjectID)
	svc := NewService(testLogger(), conversations, messages, users, testConfig())

	report, err := svc.UserReport(callerCtx(subjectID, domain.UserRoleStudent), subjectID, 7)
	require.NoError(t, err)

	assert.Equal(t, 7, report.WindowDays)
	assert.Empty(t, report.Durations)
	assert.Empty(t, report.TopWords)
	assert.Equal(t, 0, report.Stats.FullDuration.Count)
	assert.Nil(t, report.Stats.FullDuration.AvgMs)
	assert.Equal(t, 0, report.Stats.TimeToValidation.Count)
}

func TestService_UserReport_AggregatesBothAnalyzers(t *testing.T) {
	t.Parallel()

	subjectID := uuid.New()
	start := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)

	convA := domain.Conversation{ID: uuid.New(), StartedAt: start, LastActivityAt: start.Add(10 * time.Minute)}
	convB := domain.Conversation{ID: uuid.New(), StartedAt: start, LastActivityAt: start.Add(20 * time.Minute)}

	conversations := &conversationRepoMock{
		ListStartedSinceFunc: func(_ context.Context, _ uuid.UUID, _ time.Time) ([]domain.Conversation, error) {
			return []domain.Conversation{convA, convB}, nil
		},
	}
	messages := &messageRepoMock{
		FirstValidationTimesFunc: func(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]time.Time, error) {
			assert.ElementsMatch(t, []uuid.UUID{convA.ID, convB.ID}, ids)
			return map[uuid.UUID]time.Time{convA.ID: start.Add(4 * time.Minute)}, nil
		},
		UserContentsSinceFunc: func(_ context.Context, ids []uuid.UUID, _ time.Time) ([]string, error) {
			assert.ElementsMatch(t, []uuid.UUID{convA.ID, convB.ID}, ids)
			return []string{"goroutine deadlock", "goroutine leak"}, nil
		},
	}
	_, _, users := emptyRepos(subjectID)

	svc := NewService(testLogger(), conversations, messages, users, testConfig())

	report, err := svc.UserReport(callerCtx(subjectID, domain.UserRoleStudent), subjectID, 30)
	require.NoError(t, err)

	require.Len(t, report.Durations, 2)
	assert.Equal(t, int64(10*60*1000), report.Durations[0].FullDurationMs)
	require.NotNil(t, report.Durations[0].TimeToValidationMs)
	assert.Equal(t, int64(4*60*1000), *report.Durations[0].TimeToValidationMs)
	assert.Nil(t, report.Durations[1].TimeToValidationMs)

	assert.Equal(t, 2, report.Stats.FullDuration.Count)
	assert.Equal(t, 1, report.Stats.TimeToValidation.Count)

	assert.Equal(t, []domain.WordCount{
		{Word: "goroutine", Count: 2},
		{Word: "deadlock", Count: 1},
		{Word: "leak", Count: 1},
	}, report.TopWords)
}

func TestService_UserReport_AnalyzerFailureAbortsReport(t *testing.T) {
	t.Parallel()

	subjectID := uuid.New()
	readErr := errors.New("connection reset")

	tests := []struct {
		name string
		mut  func(m *messageRepoMock)
	}{
		{
			name: "timing read fails",
			mut: func(m *messageRepoMock) {
				m.FirstValidationTimesFunc = func(_ context.Context, _ []uuid.UUID) (map[uuid.UUID]time.Time, error) {
					return nil, readErr
				}
			},
		},
		{
			name: "lexical read fails",
			mut: func(m *messageRepoMock) {
				m.UserContentsSinceFunc = func(_ context.Context, _ []uuid.UUID, _ time.Time) ([]string, error) {
					return nil, readErr
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			conversations, messages, users := emptyRepos(subjectID)
			tt.mut(messages)

			svc := NewService(testLogger(), conversations, messages, users, testConfig())

			report, err := svc.UserReport(callerCtx(subjectID, domain.UserRoleStudent), subjectID, 30)

			require.ErrorIs(t, err, readErr)
			assert.Nil(t, report, "no partial report on analyzer failure")
		})
	}
}

func TestService_UserReport_Idempotent(t *testing.T) {
	t.Parallel()

	subjectID := uuid.New()
	start := time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC)
	conv := domain.Conversation{ID: uuid.New(), StartedAt: start, LastActivityAt: start.Add(time.Hour)}

	conversations, messages, users := emptyRepos(subjectID)
	conversations.ListStartedSinceFunc = func(_ context.Context, _ uuid.UUID, _ time.Time) ([]domain.Conversation, error) {
		return []domain.Conversation{conv}, nil
	}
	messages.UserContentsSinceFunc = func(_ context.Context, _ []uuid.UUID, _ time.Time) ([]string, error) {
		return []string{"channel buffering question", "channel select"}, nil
	}

	svc := NewService(testLogger(), conversations, messages, users, testConfig())
	ctx := callerCtx(subjectID, domain.UserRoleStudent)

	first, err := svc.UserReport(ctx, subjectID, 30)
	require.NoError(t, err)
	second, err := svc.UserReport(ctx, subjectID, 30)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestService_UserReportByEmail(t *testing.T) {
	t.Parallel()

	subjectID := uuid.New()
	seniorID := uuid.New()

	conversations, messages, users := emptyRepos(subjectID)
	users.GetByEmailFunc = func(_ context.Context, email string) (*domain.User, error) {
		if email != "student@example.com" {
			return nil, domain.ErrNotFound
		}
		return &domain.User{ID: subjectID, Email: email}, nil
	}

	svc := NewService(testLogger(), conversations, messages, users, testConfig())
	ctx := callerCtx(seniorID, domain.UserRoleSenior)

	report, err := svc.UserReportByEmail(ctx, "student@example.com", 0)
	require.NoError(t, err)
	assert.Equal(t, 90, report.WindowDays)

	_, err = svc.UserReportByEmail(ctx, "nobody@example.com", 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.UserReportByEmail(ctx, "", 0)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestService_MyReport(t *testing.T) {
	t.Parallel()

	subjectID := uuid.New()
	conversations, messages, users := emptyRepos(subjectID)
	svc := NewService(testLogger(), conversations, messages, users, testConfig())

	report, err := svc.MyReport(callerCtx(subjectID, domain.UserRoleStudent), 14)
	require.NoError(t, err)
	assert.Equal(t, 14, report.WindowDays)

	_, err = svc.MyReport(context.Background(), 14)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
