package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tokoroti/backend/internal/domain/order"
	"github.com/tokoroti/backend/internal/domain/shared"
)

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order by its ID, items and lot usage included
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("LotUsages").
		First(&o, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

// FindActiveByCustomer returns the customer's non-terminal orders, oldest first
func (r *GormOrderRepository) FindActiveByCustomer(ctx context.Context, customerID string) ([]order.Order, error) {
	var orders []order.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("LotUsages").
		Where("customer_id = ? AND status NOT IN ?", customerID,
			[]order.Status{order.StatusCompleted, order.StatusCancelled}).
		Order("created_at ASC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// FindByStatus returns orders in the given status, oldest first
func (r *GormOrderRepository) FindByStatus(ctx context.Context, status order.Status) ([]order.Order, error) {
	var orders []order.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("LotUsages").
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// FindAll returns orders matching the filter, newest first by default
func (r *GormOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]order.Order, error) {
	var orders []order.Order
	query := r.db.WithContext(ctx).Model(&order.Order{}).
		Preload("Items").
		Preload("LotUsages")

	if filter.Search != "" {
		query = query.Where("customer_id = ? OR customer_name LIKE ?", filter.Search, "%"+filter.Search+"%")
	}

	query = applyOrdering(query, filter, "created_at DESC")
	query = query.Offset(filter.Offset()).Limit(filter.Limit())

	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Save persists the order with its items and lot usage records as one
// transaction. Items dropped by an edit are deleted; the version check
// guards concurrent writers.
func (r *GormOrderRepository) Save(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveAggregateRow(tx, o); err != nil {
			return err
		}

		keepItems := make([]uuid.UUID, 0, len(o.Items))
		for idx := range o.Items {
			item := &o.Items[idx]
			item.OrderID = o.ID
			if err := tx.Save(item).Error; err != nil {
				return err
			}
			keepItems = append(keepItems, item.ID)
		}
		if err := deleteOrphanChildren(tx, &order.Item{}, "order_id", o.ID, keepItems); err != nil {
			return err
		}

		keepUsages := make([]uuid.UUID, 0, len(o.LotUsages))
		for idx := range o.LotUsages {
			usage := &o.LotUsages[idx]
			usage.OrderID = o.ID
			if err := tx.Save(usage).Error; err != nil {
				return err
			}
			keepUsages = append(keepUsages, usage.ID)
		}
		return deleteOrphanChildren(tx, &order.LotUsageRecord{}, "order_id", o.ID, keepUsages)
	})
}

// Ensure GormOrderRepository implements Repository
var _ order.Repository = (*GormOrderRepository)(nil)
