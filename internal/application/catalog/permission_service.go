package catalog

import (
	"context"

	"github.com/gateway/backend/internal/domain/access"
	"github.com/gateway/backend/internal/domain/catalog"
	"github.com/gateway/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// PermissionService administers gateable endpoints
type PermissionService struct {
	permRepo     catalog.PermissionRepository
	planPermRepo catalog.PlanPermissionRepository
	scope        access.TransactionScope
	cache        access.EntitlementCache
	logger       *zap.Logger
}

// NewPermissionService creates a new PermissionService
func NewPermissionService(
	permRepo catalog.PermissionRepository,
	planPermRepo catalog.PlanPermissionRepository,
	scope access.TransactionScope,
	cache access.EntitlementCache,
	logger *zap.Logger,
) *PermissionService {
	if cache == nil {
		cache = access.NopEntitlementCache{}
	}
	return &PermissionService{
		permRepo:     permRepo,
		planPermRepo: planPermRepo,
		scope:        scope,
		cache:        cache,
		logger:       logger,
	}
}

// Create adds a permission
func (s *PermissionService) Create(ctx context.Context, input CreatePermissionInput) (*PermissionDTO, error) {
	perm, err := catalog.NewPermission(input.Name, input.APIEndpoint, input.Description)
	if err != nil {
		return nil, err
	}
	if err := s.permRepo.Create(ctx, perm); err != nil {
		return nil, err
	}

	s.logger.Info("Permission created",
		zap.Int64("permission_id", perm.ID),
		zap.String("api_endpoint", perm.APIEndpoint))

	dto := ToPermissionDTO(perm)
	return &dto, nil
}

// Get returns one permission
func (s *PermissionService) Get(ctx context.Context, id int64) (*PermissionDTO, error) {
	perm, err := s.permRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Permission not found")
	}
	dto := ToPermissionDTO(perm)
	return &dto, nil
}

// List returns permissions page by page
func (s *PermissionService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[PermissionDTO], error) {
	filter = filter.Normalize()
	perms, total, err := s.permRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]PermissionDTO, 0, len(perms))
	for i := range perms {
		items = append(items, ToPermissionDTO(&perms[i]))
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Update applies the present fields of update. Plans granting the permission
// see the new endpoint pattern on their next evaluation.
func (s *PermissionService) Update(ctx context.Context, id int64, update catalog.PermissionUpdate) (*PermissionDTO, error) {
	perm, err := s.permRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "Permission not found")
	}
	if update.IsEmpty() {
		dto := ToPermissionDTO(perm)
		return &dto, nil
	}
	if err := perm.Apply(update); err != nil {
		return nil, err
	}
	if err := s.permRepo.Update(ctx, perm); err != nil {
		return nil, err
	}

	s.invalidateGranting(ctx, id)
	s.logger.Info("Permission updated", zap.Int64("permission_id", id))
	dto := ToPermissionDTO(perm)
	return &dto, nil
}

// Delete removes a permission after unlinking it from every plan, in one transaction
func (s *PermissionService) Delete(ctx context.Context, id int64) error {
	var planIDs []int64
	err := s.scope.Execute(ctx, func(repos access.TransactionalRepositories) error {
		if _, err := repos.PermissionRepo().FindByID(ctx, id); err != nil {
			return notFound(err, "Permission not found")
		}
		ids, err := repos.PlanPermissionRepo().FindPlanIDsByPermission(ctx, id)
		if err != nil {
			return err
		}
		planIDs = ids
		if _, err := repos.PlanPermissionRepo().DeleteByPermission(ctx, id); err != nil {
			return err
		}
		return repos.PermissionRepo().Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	if len(planIDs) > 0 {
		if err := s.cache.Invalidate(ctx, planIDs...); err != nil {
			s.logger.Warn("Entitlement cache invalidation failed", zap.Error(err))
		}
	}
	s.logger.Info("Permission deleted", zap.Int64("permission_id", id), zap.Int("unlinked_plans", len(planIDs)))
	return nil
}

func (s *PermissionService) invalidateGranting(ctx context.Context, permissionID int64) {
	planIDs, err := s.planPermRepo.FindPlanIDsByPermission(ctx, permissionID)
	if err != nil {
		s.logger.Warn("Failed to find plans for cache invalidation", zap.Int64("permission_id", permissionID), zap.Error(err))
		return
	}
	if len(planIDs) == 0 {
		return
	}
	if err := s.cache.Invalidate(ctx, planIDs...); err != nil {
		s.logger.Warn("Entitlement cache invalidation failed", zap.Error(err))
	}
}
