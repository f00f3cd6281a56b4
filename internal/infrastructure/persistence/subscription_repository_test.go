package persistence

import (
	"context"
	"database/sql"
	"sync/atomic"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gateway/backend/internal/domain/billing"
	"github.com/gateway/backend/internal/domain/shared"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestGormSubscriptionRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewGormSubscriptionRepository(db)
	plan := seedPlan(t, db, "Basic", 5)

	sub := seedSubscription(t, db, 1, plan.ID, 0)
	assert.Positive(t, sub.ID)

	t.Run("second subscription for the same user is rejected", func(t *testing.T) {
		dup, err := billing.NewSubscription(1, plan.ID)
		require.NoError(t, err)
		assert.ErrorIs(t, repo.Create(ctx, dup), shared.ErrAlreadyExists)
	})

	t.Run("find by user", func(t *testing.T) {
		found, err := repo.FindByUserID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, plan.ID, found.PlanID)
		assert.Zero(t, found.Usage)

		_, err = repo.FindByUserID(ctx, 2)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("count and list", func(t *testing.T) {
		count, err := repo.CountByPlan(ctx, plan.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		subs, total, err := repo.FindAll(ctx, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Len(t, subs, 1)
	})
}

func TestGormSubscriptionRepository_UpdateKeepsUsage(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewGormSubscriptionRepository(db)
	basic := seedPlan(t, db, "Basic", 5)
	pro := seedPlan(t, db, "Pro", 100)
	seedSubscription(t, db, 1, basic.ID, 3)

	// A stale entity must not overwrite the stored usage.
	stale, err := repo.FindByUserID(ctx, 1)
	require.NoError(t, err)
	_, err = repo.IncrementUsage(ctx, 1, basic.UsageLimit)
	require.NoError(t, err)

	require.NoError(t, stale.ChangePlan(pro.ID))
	require.NoError(t, repo.Update(ctx, stale))

	found, err := repo.FindByUserID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, pro.ID, found.PlanID)
	assert.Equal(t, int64(4), found.Usage)

	require.NoError(t, repo.DeleteByUserID(ctx, 1))
	assert.ErrorIs(t, repo.DeleteByUserID(ctx, 1), shared.ErrNotFound)
}

func TestGormSubscriptionRepository_IncrementUsage(t *testing.T) {
	ctx := context.Background()

	t.Run("limit calls succeed then the next is rejected", func(t *testing.T) {
		db := newTestDB(t)
		repo := NewGormSubscriptionRepository(db)
		const limit = 5
		plan := seedPlan(t, db, "Basic", limit)
		seedSubscription(t, db, 1, plan.ID, 0)

		for i := int64(1); i <= limit; i++ {
			usage, err := repo.IncrementUsage(ctx, 1, limit)
			require.NoError(t, err)
			assert.Equal(t, i, usage)
		}

		_, err := repo.IncrementUsage(ctx, 1, limit)
		assert.ErrorIs(t, err, shared.ErrQuotaExceeded)

		found, err := repo.FindByUserID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(limit), found.Usage)
	})

	t.Run("zero limit is unlimited", func(t *testing.T) {
		db := newTestDB(t)
		repo := NewGormSubscriptionRepository(db)
		plan := seedPlan(t, db, "Unlimited", 0)
		seedSubscription(t, db, 1, plan.ID, 1_000_000)

		usage, err := repo.IncrementUsage(ctx, 1, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(1_000_001), usage)
	})

	t.Run("missing subscription is not found", func(t *testing.T) {
		repo := NewGormSubscriptionRepository(newTestDB(t))

		_, err := repo.IncrementUsage(ctx, 42, 5)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("guard decides the last unit after stale reads", func(t *testing.T) {
		db := newTestDB(t)
		repo := NewGormSubscriptionRepository(db)
		const limit = 5
		plan := seedPlan(t, db, "Basic", limit)
		seedSubscription(t, db, 1, plan.ID, limit-1)

		// Both callers see room before either writes
		first, err := repo.FindByUserID(ctx, 1)
		require.NoError(t, err)
		second, err := repo.FindByUserID(ctx, 1)
		require.NoError(t, err)
		require.Less(t, first.Usage, int64(limit))
		require.Less(t, second.Usage, int64(limit))

		usage, err := repo.IncrementUsage(ctx, 1, limit)
		require.NoError(t, err)
		assert.Equal(t, int64(limit), usage)

		_, err = repo.IncrementUsage(ctx, 1, limit)
		assert.ErrorIs(t, err, shared.ErrQuotaExceeded)

		found, err := repo.FindByUserID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(limit), found.Usage)
	})

	// SQLite runs on one connection here, so the goroutines are serialized.
	// Real parallel writers are covered by the integration-tagged postgres test.
	t.Run("concurrent increments never overshoot", func(t *testing.T) {
		db := newTestDB(t)
		repo := NewGormSubscriptionRepository(db)
		const (
			limit   = 10
			k       = 3
			callers = 8
		)
		plan := seedPlan(t, db, "Basic", limit)
		seedSubscription(t, db, 1, plan.ID, limit-k)

		var succeeded, rejected atomic.Int64
		var g errgroup.Group
		for i := 0; i < callers; i++ {
			g.Go(func() error {
				_, err := repo.IncrementUsage(ctx, 1, limit)
				switch {
				case err == nil:
					succeeded.Add(1)
				case shared.CodeOf(err) == shared.CodeQuotaExceeded:
					rejected.Add(1)
				default:
					return err
				}
				return nil
			})
		}
		require.NoError(t, g.Wait())

		assert.Equal(t, int64(k), succeeded.Load())
		assert.Equal(t, int64(callers-k), rejected.Load())

		found, err := repo.FindByUserID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(limit), found.Usage)
	})
}

// newMockSubscriptionRepository creates a repository over a mocked PostgreSQL connection
func newMockSubscriptionRepository(t *testing.T) (*GormSubscriptionRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return NewGormSubscriptionRepository(gormDB), mock, mockDB
}

func TestGormSubscriptionRepository_IncrementUsage_SQL(t *testing.T) {
	ctx := context.Background()

	t.Run("guarded update then read back", func(t *testing.T) {
		repo, mock, mockDB := newMockSubscriptionRepository(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "subscriptions" SET .*"usage"=usage \+ 1.* WHERE user_id = \$\d+ AND usage < \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT .*usage.* FROM "subscriptions" WHERE user_id = \$1`).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"usage"}).AddRow(5))
		mock.ExpectCommit()

		usage, err := repo.IncrementUsage(ctx, 1, 5)
		require.NoError(t, err)
		assert.Equal(t, int64(5), usage)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unlimited plan has no usage guard", func(t *testing.T) {
		repo, mock, mockDB := newMockSubscriptionRepository(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "subscriptions" SET .* WHERE user_id = \$\d+$`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT .*usage.* FROM "subscriptions"`).
			WillReturnRows(sqlmock.NewRows([]string{"usage"}).AddRow(12))
		mock.ExpectCommit()

		usage, err := repo.IncrementUsage(ctx, 1, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(12), usage)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejected update with existing row is quota exceeded", func(t *testing.T) {
		repo, mock, mockDB := newMockSubscriptionRepository(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "subscriptions"`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT count\(\*\) FROM "subscriptions" WHERE user_id = \$1`).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectRollback()

		_, err := repo.IncrementUsage(ctx, 1, 5)
		assert.ErrorIs(t, err, shared.ErrQuotaExceeded)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("serialization failure is store busy", func(t *testing.T) {
		repo, mock, mockDB := newMockSubscriptionRepository(t)
		defer mockDB.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "subscriptions"`).
			WillReturnError(&pgconn.PgError{Code: "40001", Message: "could not serialize access"})
		mock.ExpectRollback()

		_, err := repo.IncrementUsage(ctx, 1, 5)
		assert.ErrorIs(t, err, shared.ErrStoreBusy)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
