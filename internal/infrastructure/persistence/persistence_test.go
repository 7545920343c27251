package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/tokoroti/backend/internal/domain/inventory"
	"github.com/tokoroti/backend/internal/domain/shared"
)

// newMockDB creates a GORM connection backed by sqlmock
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func TestGormProductRepository_FindByID(t *testing.T) {
	t.Run("loads product with recipe", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormProductRepository(db)

		productID := uuid.New()
		ingredientID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "products" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(productID, 1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "price", "active", "version"}).
				AddRow(productID, "Roti Tawar", "12000", true, 1))

		mock.ExpectQuery(`SELECT \* FROM "recipe_items" WHERE "recipe_items"."product_id" = \$1`).
			WithArgs(productID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "product_id", "ingredient_id", "qty_per_unit", "unit"}).
				AddRow(uuid.New(), productID, ingredientID, "2", "kg"))

		product, err := repo.FindByID(context.Background(), productID)

		require.NoError(t, err)
		assert.Equal(t, "Roti Tawar", product.Name)
		require.Len(t, product.Recipe, 1)
		assert.Equal(t, ingredientID, product.Recipe[0].IngredientID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps missing row to ErrNotFound", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormProductRepository(db)

		productID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "products" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(productID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		product, err := repo.FindByID(context.Background(), productID)

		assert.Nil(t, product)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormConversationRepository_FindByCustomer(t *testing.T) {
	t.Run("returns nil without error when no state exists", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormConversationRepository(db)

		mock.ExpectQuery(`SELECT \* FROM "conversation_states" WHERE customer_id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs("cust-1", 1).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		state, err := repo.FindByCustomer(context.Background(), "cust-1")

		assert.NoError(t, err)
		assert.Nil(t, state)
	})
}

func TestGormIngredientRepository_Save(t *testing.T) {
	t.Run("inserts a new ingredient", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormIngredientRepository(db)

		ingredient, err := inventory.NewIngredient("Tepung Terigu", "kg")
		require.NoError(t, err)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "ingredients" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT count\(\*\) FROM "ingredients"`).
			WithArgs(ingredient.ID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectExec(`INSERT INTO "ingredients"`).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(`DELETE FROM "ingredient_lots" WHERE ingredient_id = \$1`).
			WithArgs(ingredient.ID).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		err = repo.Save(context.Background(), ingredient)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale version yields concurrency conflict", func(t *testing.T) {
		db, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormIngredientRepository(db)

		ingredient, err := inventory.NewIngredient("Tepung Terigu", "kg")
		require.NoError(t, err)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "ingredients" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT count\(\*\) FROM "ingredients"`).
			WithArgs(ingredient.ID).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectRollback()

		err = repo.Save(context.Background(), ingredient)

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
