package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tokoroti/backend/internal/domain/conversation"
)

// GormConversationRepository implements conversation.Repository using GORM.
// The unique index on customer_id keeps at most one state row per customer;
// draft, transcript and pending question live in JSON columns.
type GormConversationRepository struct {
	db *gorm.DB
}

// NewGormConversationRepository creates a new GormConversationRepository
func NewGormConversationRepository(db *gorm.DB) *GormConversationRepository {
	return &GormConversationRepository{db: db}
}

// FindByCustomer returns the customer's conversation state, nil if none
// exists yet
func (r *GormConversationRepository) FindByCustomer(ctx context.Context, customerID string) (*conversation.ConversationState, error) {
	var state conversation.ConversationState
	if err := r.db.WithContext(ctx).
		First(&state, "customer_id = ?", customerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &state, nil
}

// Save persists the conversation state, rejecting stale versions with
// shared.ErrConcurrencyConflict
func (r *GormConversationRepository) Save(ctx context.Context, state *conversation.ConversationState) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return saveAggregateRow(tx, state)
	})
}

// Ensure GormConversationRepository implements Repository
var _ conversation.Repository = (*GormConversationRepository)(nil)
