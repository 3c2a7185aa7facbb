package domain

import (
	"time"

	"github.com/google/uuid"
)

// Report is the result of one analytics request. It is computed fresh on
// every call and never persisted or cached.
type Report struct {
	WindowDays int
	Durations  []DurationRow
	Stats      ReportStats
	TopWords   []WordCount
}

// DurationRow holds per-conversation timing for the report window.
// TimeToValidationMs is nil when the conversation has no validation-flagged
// message.
type DurationRow struct {
	ConversationID     uuid.UUID
	FullDurationMs     int64
	TimeToValidationMs *int64
	StartedAt          time.Time
	LastActivityAt     time.Time
}

// ReportStats groups the two duration distributions of a report.
type ReportStats struct {
	FullDuration     DistributionStats
	TimeToValidation DistributionStats
}

// DistributionStats summarizes a sample of millisecond durations.
// AvgMs, P50Ms and P90Ms are nil when Count is zero.
type DistributionStats struct {
	Count int
	AvgMs *int64
	P50Ms *int64
	P90Ms *int64
}

// WordCount is one entry of the lexical frequency ranking.
type WordCount struct {
	Word  string
	Count int
}
