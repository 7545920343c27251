package persistence

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tokoroti/backend/internal/domain/shared"
)

// saveAggregateRow persists the aggregate's own row with optimistic locking.
// Existing rows are updated only while the stored version still matches the
// in-memory one, then bumped; a mismatch on an existing row means another
// writer got there first and yields shared.ErrConcurrencyConflict. Children
// are omitted here and persisted by the caller.
func saveAggregateRow(tx *gorm.DB, agg shared.AggregateRoot) error {
	result := tx.Model(agg).
		Where("version = ?", agg.GetVersion()).
		Select("*").
		Omit("id", "created_at", clause.Associations).
		Updates(agg)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		agg.IncrementVersion()
		return tx.Model(agg).UpdateColumn("version", agg.GetVersion()).Error
	}

	// No row matched: either the aggregate is new or the version is stale
	var count int64
	if err := tx.Model(agg).Where("id = ?", agg.GetID()).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return shared.ErrConcurrencyConflict
	}
	return tx.Omit(clause.Associations).Create(agg).Error
}

// deleteOrphanChildren removes child rows of the parent that are no longer
// part of the aggregate
func deleteOrphanChildren(tx *gorm.DB, model any, fkColumn string, parentID uuid.UUID, keep []uuid.UUID) error {
	query := tx.Where(fkColumn+" = ?", parentID)
	if len(keep) > 0 {
		query = query.Where("id NOT IN ?", keep)
	}
	return query.Delete(model).Error
}

var safeColumnPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// applyOrdering applies the filter's ordering, falling back to the given
// default. OrderBy is restricted to plain column names to keep user input
// out of the ORDER BY clause.
func applyOrdering(query *gorm.DB, filter shared.Filter, fallback string) *gorm.DB {
	if filter.OrderBy != "" && safeColumnPattern.MatchString(filter.OrderBy) {
		direction := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			direction = "DESC"
		}
		return query.Order(filter.OrderBy + " " + direction)
	}
	return query.Order(fallback)
}
