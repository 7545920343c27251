// Package integration exercises the application services against a real
// database. Tests run on in-memory sqlite through the same persistence
// layer the server uses.
package integration

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tokoroti/backend/internal/infrastructure/config"
	"github.com/tokoroti/backend/internal/infrastructure/persistence"
)

var dbCounter atomic.Int64

// NewTestDB opens a fresh in-memory database with the full schema migrated.
// Every call gets its own database, so tests are fully isolated.
func NewTestDB(t *testing.T) *persistence.Database {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Driver: "sqlite",
		// A named in-memory database with a shared cache survives across
		// pooled connections; the counter isolates tests from each other.
		Path:            fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", dbCounter.Add(1)),
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: 60,
		ConnMaxIdleTime: 60,
	}

	db, err := persistence.NewDatabase(cfg, nil)
	require.NoError(t, err, "failed to open test database")
	t.Cleanup(func() {
		_ = db.Close()
	})

	require.NoError(t, db.AutoMigrate(), "failed to migrate test schema")
	return db
}
