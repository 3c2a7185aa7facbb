package domain

import (
	"time"

	"github.com/google/uuid"
)

// HelpRequest is a student's escalation of a conversation to a senior mentor.
// Student name/email are denormalized at creation time so the senior's queue
// renders without extra lookups.
type HelpRequest struct {
	ID                  uuid.UUID
	StudentID           uuid.UUID
	StudentName         string
	StudentEmail        string
	ConversationID      uuid.UUID
	ProblemDescription  string
	ConversationSummary string
	AssignedSeniorID    uuid.UUID
	Status              HelpRequestStatus
	CreatedAt           time.Time
	ContactedAt         *time.Time
	ResolvedAt          *time.Time
}

// IsOpen returns true while the request still needs senior attention.
func (h *HelpRequest) IsOpen() bool {
	return h.Status == HelpRequestStatusPending || h.Status == HelpRequestStatusContacted
}
