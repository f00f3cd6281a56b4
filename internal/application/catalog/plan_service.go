package catalog

import (
	"context"
	"errors"

	"github.com/gateway/backend/internal/domain/access"
	"github.com/gateway/backend/internal/domain/catalog"
	"github.com/gateway/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// PlanService administers plans and the endpoints they grant
type PlanService struct {
	planRepo     catalog.PlanRepository
	permRepo     catalog.PermissionRepository
	planPermRepo catalog.PlanPermissionRepository
	scope        access.TransactionScope
	cache        access.EntitlementCache
	logger       *zap.Logger
}

// NewPlanService creates a new PlanService
func NewPlanService(
	planRepo catalog.PlanRepository,
	permRepo catalog.PermissionRepository,
	planPermRepo catalog.PlanPermissionRepository,
	scope access.TransactionScope,
	cache access.EntitlementCache,
	logger *zap.Logger,
) *PlanService {
	if cache == nil {
		cache = access.NopEntitlementCache{}
	}
	return &PlanService{
		planRepo:     planRepo,
		permRepo:     permRepo,
		planPermRepo: planPermRepo,
		scope:        scope,
		cache:        cache,
		logger:       logger,
	}
}

// Create adds a plan
func (s *PlanService) Create(ctx context.Context, input CreatePlanInput) (*PlanDTO, error) {
	plan, err := catalog.NewPlan(input.Name, input.Description, input.UsageLimit)
	if err != nil {
		return nil, err
	}

	exists, err := s.planRepo.ExistsByName(ctx, plan.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists, "Plan name already exists")
	}

	if err := s.planRepo.Create(ctx, plan); err != nil {
		return nil, err
	}

	s.logger.Info("Plan created",
		zap.Int64("plan_id", plan.ID),
		zap.String("name", plan.Name),
		zap.Int64("usage_limit", plan.UsageLimit))

	dto := ToPlanDTO(plan)
	return &dto, nil
}

// Get returns one plan
func (s *PlanService) Get(ctx context.Context, id int64) (*PlanDTO, error) {
	plan, err := s.findPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := ToPlanDTO(plan)
	return &dto, nil
}

// List returns plans page by page
func (s *PlanService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[PlanDTO], error) {
	filter = filter.Normalize()
	plans, total, err := s.planRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]PlanDTO, 0, len(plans))
	for i := range plans {
		items = append(items, ToPlanDTO(&plans[i]))
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Update applies the present fields of update to a plan
func (s *PlanService) Update(ctx context.Context, id int64, update catalog.PlanUpdate) (*PlanDTO, error) {
	plan, err := s.findPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	if update.IsEmpty() {
		dto := ToPlanDTO(plan)
		return &dto, nil
	}

	if update.Name != nil && *update.Name != plan.Name {
		exists, err := s.planRepo.ExistsByName(ctx, *update.Name)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, shared.NewDomainError(shared.CodeAlreadyExists, "Plan name already exists")
		}
	}

	if err := plan.Apply(update); err != nil {
		return nil, err
	}
	if err := s.planRepo.Update(ctx, plan); err != nil {
		return nil, err
	}

	s.logger.Info("Plan updated", zap.Int64("plan_id", plan.ID))
	dto := ToPlanDTO(plan)
	return &dto, nil
}

// Delete removes a plan. Its permission links are deleted first in the same
// transaction. Subscriptions still pointing at the plan are left in place and
// evaluate as "Plan not found" afterwards.
func (s *PlanService) Delete(ctx context.Context, id int64) error {
	var unlinked int64
	err := s.scope.Execute(ctx, func(repos access.TransactionalRepositories) error {
		if _, err := repos.PlanRepo().FindByID(ctx, id); err != nil {
			return notFound(err, "Plan not found")
		}
		n, err := repos.PlanPermissionRepo().DeleteByPlan(ctx, id)
		if err != nil {
			return err
		}
		unlinked = n
		return repos.PlanRepo().Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, id)
	s.logger.Info("Plan deleted", zap.Int64("plan_id", id), zap.Int64("unlinked_permissions", unlinked))
	return nil
}

// GrantPermission lets a plan call a permission's endpoint
func (s *PlanService) GrantPermission(ctx context.Context, planID, permissionID int64) error {
	if _, err := s.findPlan(ctx, planID); err != nil {
		return err
	}
	if _, err := s.permRepo.FindByID(ctx, permissionID); err != nil {
		return notFound(err, "Permission not found")
	}

	if err := s.planPermRepo.Create(ctx, catalog.NewPlanPermission(planID, permissionID)); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return shared.NewDomainError(shared.CodeAlreadyExists, "Plan already grants this permission")
		}
		return err
	}

	s.invalidate(ctx, planID)
	s.logger.Info("Permission granted to plan", zap.Int64("plan_id", planID), zap.Int64("permission_id", permissionID))
	return nil
}

// RevokePermission removes a permission from a plan
func (s *PlanService) RevokePermission(ctx context.Context, planID, permissionID int64) error {
	if err := s.planPermRepo.Delete(ctx, planID, permissionID); err != nil {
		return notFound(err, "Plan does not grant this permission")
	}
	s.invalidate(ctx, planID)
	s.logger.Info("Permission revoked from plan", zap.Int64("plan_id", planID), zap.Int64("permission_id", permissionID))
	return nil
}

// ListPermissions returns the permissions a plan grants
func (s *PlanService) ListPermissions(ctx context.Context, planID int64) ([]PermissionDTO, error) {
	if _, err := s.findPlan(ctx, planID); err != nil {
		return nil, err
	}
	perms, err := s.planPermRepo.FindPermissionsByPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	items := make([]PermissionDTO, 0, len(perms))
	for i := range perms {
		items = append(items, ToPermissionDTO(&perms[i]))
	}
	return items, nil
}

func (s *PlanService) findPlan(ctx context.Context, id int64) (*catalog.Plan, error) {
	plan, err := s.planRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Plan not found")
	}
	return plan, nil
}

func (s *PlanService) invalidate(ctx context.Context, planIDs ...int64) {
	if err := s.cache.Invalidate(ctx, planIDs...); err != nil {
		s.logger.Warn("Entitlement cache invalidation failed", zap.Int64s("plan_ids", planIDs), zap.Error(err))
	}
}

// notFound replaces a bare ErrNotFound with a message naming the missing resource
func notFound(err error, message string) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewDomainError(shared.CodeNotFound, message)
	}
	return err
}
