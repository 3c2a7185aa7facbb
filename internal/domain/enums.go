package domain

// UserRole represents the application role of a user.
type UserRole string

const (
	UserRoleStudent UserRole = "student"
	UserRoleSenior  UserRole = "senior"
)

func (r UserRole) String() string { return string(r) }

func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleStudent, UserRoleSenior:
		return true
	}
	return false
}

// ConversationStatus represents the lifecycle state of a conversation.
// Deleted conversations are soft-deleted: they stay in storage but are
// excluded from listings and analytics.
type ConversationStatus string

const (
	ConversationStatusActive   ConversationStatus = "active"
	ConversationStatusArchived ConversationStatus = "archived"
	ConversationStatusDeleted  ConversationStatus = "deleted"
)

func (s ConversationStatus) String() string { return string(s) }

func (s ConversationStatus) IsValid() bool {
	switch s {
	case ConversationStatusActive, ConversationStatusArchived, ConversationStatusDeleted:
		return true
	}
	return false
}

// MessageRole identifies the author kind of a message within a dialogue.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleMentor    MessageRole = "mentor"
	MessageRoleTool      MessageRole = "tool"
	MessageRoleSystem    MessageRole = "system"
)

func (r MessageRole) String() string { return string(r) }

func (r MessageRole) IsValid() bool {
	switch r {
	case MessageRoleUser, MessageRoleAssistant, MessageRoleMentor, MessageRoleTool, MessageRoleSystem:
		return true
	}
	return false
}

// HelpRequestStatus represents the state of an escalation to a senior mentor.
type HelpRequestStatus string

const (
	HelpRequestStatusPending   HelpRequestStatus = "pending"
	HelpRequestStatusContacted HelpRequestStatus = "contacted"
	HelpRequestStatusResolved  HelpRequestStatus = "resolved"
	HelpRequestStatusCancelled HelpRequestStatus = "cancelled"
)

func (s HelpRequestStatus) String() string { return string(s) }

func (s HelpRequestStatus) IsValid() bool {
	switch s {
	case HelpRequestStatusPending, HelpRequestStatusContacted,
		HelpRequestStatusResolved, HelpRequestStatusCancelled:
		return true
	}
	return false
}
