package access

import (
	"context"

	"github.com/gateway/backend/internal/domain/billing"
	"github.com/gateway/backend/internal/domain/catalog"
)

// TransactionScope runs one logical operation in a single store transaction.
// Repositories handed to fn share that transaction; it commits when fn
// returns nil and rolls back otherwise.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the repositories bound to one transaction
type TransactionalRepositories interface {
	PlanRepo() catalog.PlanRepository
	PermissionRepo() catalog.PermissionRepository
	PlanPermissionRepo() catalog.PlanPermissionRepository
	SubscriptionRepo() billing.SubscriptionRepository
}

// NoOpTransactionScope runs fn against plain repositories without a transaction.
// Useful in tests that mock the repositories.
type NoOpTransactionScope struct {
	Plans           catalog.PlanRepository
	Permissions     catalog.PermissionRepository
	PlanPermissions catalog.PlanPermissionRepository
	Subscriptions   billing.SubscriptionRepository
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) PlanRepo() catalog.PlanRepository { return s.Plans }

func (s *NoOpTransactionScope) PermissionRepo() catalog.PermissionRepository { return s.Permissions }

func (s *NoOpTransactionScope) PlanPermissionRepo() catalog.PlanPermissionRepository {
	return s.PlanPermissions
}

func (s *NoOpTransactionScope) SubscriptionRepo() billing.SubscriptionRepository {
	return s.Subscriptions
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
