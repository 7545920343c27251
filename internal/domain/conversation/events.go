package conversation

import (
	"github.com/tokoroti/backend/internal/domain/shared"
)

// Event type constants for the conversation domain
const (
	EventTypeConversationCompleted = "conversation.completed"
	EventTypeConversationReset     = "conversation.reset"
)

const aggregateTypeConversation = "ConversationState"

// CompletedEvent is emitted when a dialogue hands off to order handling
type CompletedEvent struct {
	shared.BaseDomainEvent
	CustomerID string `json:"customer_id"`
	Intent     Intent `json:"intent"`
}

// NewConversationCompletedEvent creates a CompletedEvent
func NewConversationCompletedEvent(c *ConversationState) *CompletedEvent {
	return &CompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeConversationCompleted, aggregateTypeConversation, c.ID),
		CustomerID:      c.CustomerID,
		Intent:          c.Intent,
	}
}

// ResetEvent is emitted when a state is hard-reset for reuse
type ResetEvent struct {
	shared.BaseDomainEvent
	CustomerID string `json:"customer_id"`
}

// NewConversationResetEvent creates a ResetEvent
func NewConversationResetEvent(c *ConversationState) *ResetEvent {
	return &ResetEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeConversationReset, aggregateTypeConversation, c.ID),
		CustomerID:      c.CustomerID,
	}
}
