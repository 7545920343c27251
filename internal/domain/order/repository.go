package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/tokoroti/backend/internal/domain/shared"
)

// Repository defines persistence operations for orders. Find methods load
// items and lot usage records; Save persists the aggregate with its children
// and rejects stale versions with shared.ErrConcurrencyConflict.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	// FindActiveByCustomer returns the customer's non-terminal orders,
	// oldest first, for the "new order or edit" routing.
	FindActiveByCustomer(ctx context.Context, customerID string) ([]Order, error)
	// FindByStatus returns orders in the given status, oldest first
	FindByStatus(ctx context.Context, status Status) ([]Order, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Order, error)
	Save(ctx context.Context, order *Order) error
}
