package access

import (
	"context"
	"sync"

	"github.com/gateway/backend/internal/domain/access"
	"github.com/gateway/backend/internal/domain/billing"
	"github.com/gateway/backend/internal/domain/catalog"
	"github.com/gateway/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

type mockSubscriptionRepository struct {
	mock.Mock
}

func (m *mockSubscriptionRepository) Create(ctx context.Context, sub *billing.Subscription) error {
	return m.Called(ctx, sub).Error(0)
}

func (m *mockSubscriptionRepository) Update(ctx context.Context, sub *billing.Subscription) error {
	return m.Called(ctx, sub).Error(0)
}

func (m *mockSubscriptionRepository) DeleteByUserID(ctx context.Context, userID int64) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *mockSubscriptionRepository) FindByUserID(ctx context.Context, userID int64) (*billing.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Subscription), args.Error(1)
}

func (m *mockSubscriptionRepository) FindAll(ctx context.Context, filter shared.Filter) ([]billing.Subscription, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]billing.Subscription), args.Get(1).(int64), args.Error(2)
}

func (m *mockSubscriptionRepository) CountByPlan(ctx context.Context, planID int64) (int64, error) {
	args := m.Called(ctx, planID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSubscriptionRepository) IncrementUsage(ctx context.Context, userID, limit int64) (int64, error) {
	args := m.Called(ctx, userID, limit)
	return args.Get(0).(int64), args.Error(1)
}

type mockPlanRepository struct {
	mock.Mock
}

func (m *mockPlanRepository) Create(ctx context.Context, plan *catalog.Plan) error {
	return m.Called(ctx, plan).Error(0)
}

func (m *mockPlanRepository) Update(ctx context.Context, plan *catalog.Plan) error {
	return m.Called(ctx, plan).Error(0)
}

func (m *mockPlanRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockPlanRepository) FindByID(ctx context.Context, id int64) (*catalog.Plan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Plan), args.Error(1)
}

func (m *mockPlanRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Plan, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]catalog.Plan), args.Get(1).(int64), args.Error(2)
}

func (m *mockPlanRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

type mockPlanPermissionRepository struct {
	mock.Mock
}

func (m *mockPlanPermissionRepository) Create(ctx context.Context, link *catalog.PlanPermission) error {
	return m.Called(ctx, link).Error(0)
}

func (m *mockPlanPermissionRepository) Delete(ctx context.Context, planID, permissionID int64) error {
	return m.Called(ctx, planID, permissionID).Error(0)
}

func (m *mockPlanPermissionRepository) DeleteByPlan(ctx context.Context, planID int64) (int64, error) {
	args := m.Called(ctx, planID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockPlanPermissionRepository) DeleteByPermission(ctx context.Context, permissionID int64) (int64, error) {
	args := m.Called(ctx, permissionID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockPlanPermissionRepository) FindPermissionsByPlan(ctx context.Context, planID int64) ([]catalog.Permission, error) {
	args := m.Called(ctx, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Permission), args.Error(1)
}

func (m *mockPlanPermissionRepository) FindPlanIDsByPermission(ctx context.Context, permissionID int64) ([]int64, error) {
	args := m.Called(ctx, permissionID)
	return args.Get(0).([]int64), args.Error(1)
}

type recordingMetrics struct {
	mu        sync.Mutex
	decisions map[string]int
	retries   int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{decisions: make(map[string]int)}
}

func (r *recordingMetrics) RecordDecision(_ context.Context, outcome, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decisions[outcome]++
}

func (r *recordingMetrics) RecordIncrementRetry(context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retries++
}

type fixture struct {
	subs      *mockSubscriptionRepository
	plans     *mockPlanRepository
	planPerms *mockPlanPermissionRepository
	scope     *access.NoOpTransactionScope
}

func newFixture() *fixture {
	f := &fixture{
		subs:      new(mockSubscriptionRepository),
		plans:     new(mockPlanRepository),
		planPerms: new(mockPlanPermissionRepository),
	}
	f.scope = &access.NoOpTransactionScope{
		Plans:           f.plans,
		PlanPermissions: f.planPerms,
		Subscriptions:   f.subs,
	}
	return f
}

func testPlan(id, limit int64) *catalog.Plan {
	return &catalog.Plan{BaseEntity: shared.BaseEntity{ID: id}, Name: "starter", Description: "Starter tier", UsageLimit: limit}
}

func testPermission(id int64, endpoint string) catalog.Permission {
	return catalog.Permission{BaseEntity: shared.BaseEntity{ID: id}, Name: endpoint, APIEndpoint: endpoint}
}
