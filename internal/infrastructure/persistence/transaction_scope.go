package persistence

import (
	"context"

	"github.com/gateway/backend/internal/domain/access"
	"github.com/gateway/backend/internal/domain/billing"
	"github.com/gateway/backend/internal/domain/catalog"
	"gorm.io/gorm"
)

// GormTransactionScope implements access.TransactionScope using GORM transactions.
// Every repository handed to fn shares the same transaction.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction.
// The transaction commits when fn returns nil and rolls back on an error or panic.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos access.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) PlanRepo() catalog.PlanRepository {
	return NewGormPlanRepository(r.tx)
}

func (r *gormTransactionalRepositories) PermissionRepo() catalog.PermissionRepository {
	return NewGormPermissionRepository(r.tx)
}

func (r *gormTransactionalRepositories) PlanPermissionRepo() catalog.PlanPermissionRepository {
	return NewGormPlanPermissionRepository(r.tx)
}

func (r *gormTransactionalRepositories) SubscriptionRepo() billing.SubscriptionRepository {
	return NewGormSubscriptionRepository(r.tx)
}

var _ access.TransactionScope = (*GormTransactionScope)(nil)
var _ access.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
