package persistence

import (
	"context"
	"testing"

	"github.com/gateway/backend/internal/domain/billing"
	"github.com/gateway/backend/internal/domain/catalog"
	"github.com/gateway/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an in-memory SQLite database with the gateway schema.
// A single connection keeps every goroutine on the same in-memory database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func seedPlan(t *testing.T, db *gorm.DB, name string, limit int64) *catalog.Plan {
	t.Helper()
	plan, err := catalog.NewPlan(name, name+" plan", limit)
	require.NoError(t, err)
	require.NoError(t, NewGormPlanRepository(db).Create(context.Background(), plan))
	return plan
}

func seedPermission(t *testing.T, db *gorm.DB, name, endpoint string) *catalog.Permission {
	t.Helper()
	perm, err := catalog.NewPermission(name, endpoint, "")
	require.NoError(t, err)
	require.NoError(t, NewGormPermissionRepository(db).Create(context.Background(), perm))
	return perm
}

func seedSubscription(t *testing.T, db *gorm.DB, userID, planID, usage int64) *billing.Subscription {
	t.Helper()
	sub, err := billing.NewSubscription(userID, planID)
	require.NoError(t, err)
	sub.Usage = usage
	require.NoError(t, NewGormSubscriptionRepository(db).Create(context.Background(), sub))
	return sub
}
