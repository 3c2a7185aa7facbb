package analytics

import (
	"time"

	"github.com/google/uuid"

	"github.com/Ranith1/LLM-Junior-Developer/internal/domain"
)

// durationRows computes the per-conversation timing rows. fullDuration is
// last activity minus start; timeToValidation is the first validation
// checkpoint minus start, nil when the conversation has none. Both are
// clamped at zero.
func durationRows(conversations []domain.Conversation, firstValidation map[uuid.UUID]time.Time) []domain.DurationRow {
	rows := make([]domain.DurationRow, 0, len(conversations))

	for _, c := range conversations {
		row := domain.DurationRow{
			ConversationID: c.ID,
			FullDurationMs: clampMs(c.LastActivityAt.Sub(c.StartedAt).Milliseconds()),
			StartedAt:      c.StartedAt,
			LastActivityAt: c.LastActivityAt,
		}

		if at, ok := firstValidation[c.ID]; ok {
			ttv := clampMs(at.Sub(c.StartedAt).Milliseconds())
			row.TimeToValidationMs = &ttv
		}

		rows = append(rows, row)
	}

	return rows
}

// timingStats aggregates the rows into the two duration distributions.
// Conversations without a validation message contribute to fullDuration only.
func timingStats(rows []domain.DurationRow) domain.ReportStats {
	full := make([]int64, 0, len(rows))
	ttv := make([]int64, 0, len(rows))

	for _, r := range rows {
		full = append(full, r.FullDurationMs)
		if r.TimeToValidationMs != nil {
			ttv = append(ttv, *r.TimeToValidationMs)
		}
	}

	return domain.ReportStats{
		FullDuration:     distribution(full),
		TimeToValidation: distribution(ttv),
	}
}
