package domain

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is a Socratic tutoring dialogue owned by a single student.
// LastActivityAt is bumped on every message append and metadata update;
// StartedAt is immutable after creation.
type Conversation struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Title          string
	Status         ConversationStatus
	StartedAt      time.Time
	LastActivityAt time.Time
	CurrentStep    int
	MessageCount   int
}

// Message is a single turn within a conversation. Seq is strictly increasing
// per conversation, starting at 1 (uniqueness enforced by the store).
type Message struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	Role           MessageRole
	SenderID       *uuid.UUID
	Content        string
	Seq            int
	DateCreated    time.Time
	Step           *int
	Validation     *bool
	Notes          *string
}

// IsValidation returns true if the message is flagged as a validation
// checkpoint (step 5 of the Socratic method).
func (m *Message) IsValidation() bool {
	return m.Validation != nil && *m.Validation
}
