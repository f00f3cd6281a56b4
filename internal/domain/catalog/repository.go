package catalog

import (
	"context"

	"github.com/gateway/backend/internal/domain/shared"
)

// PlanRepository defines persistence for plans
type PlanRepository interface {
	// Create inserts a plan and assigns its ID
	Create(ctx context.Context, plan *Plan) error

	// Update saves changes to an existing plan
	Update(ctx context.Context, plan *Plan) error

	// Delete removes a plan by ID
	Delete(ctx context.Context, id int64) error

	// FindByID finds a plan by ID
	FindByID(ctx context.Context, id int64) (*Plan, error)

	// FindAll returns plans with pagination
	FindAll(ctx context.Context, filter shared.Filter) ([]Plan, int64, error)

	// ExistsByName checks whether a plan name is taken
	ExistsByName(ctx context.Context, name string) (bool, error)
}

// PermissionRepository defines persistence for permissions
type PermissionRepository interface {
	Create(ctx context.Context, permission *Permission) error
	Update(ctx context.Context, permission *Permission) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*Permission, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Permission, int64, error)
}

// PlanPermissionRepository defines persistence for the plan to permission mapping
type PlanPermissionRepository interface {
	// Create links a plan to a permission, failing with ErrAlreadyExists on a duplicate pair
	Create(ctx context.Context, link *PlanPermission) error

	// Delete removes one plan to permission link
	Delete(ctx context.Context, planID, permissionID int64) error

	// DeleteByPlan removes every link of a plan and returns how many were removed
	DeleteByPlan(ctx context.Context, planID int64) (int64, error)

	// DeleteByPermission removes every link of a permission and returns how many were removed
	DeleteByPermission(ctx context.Context, permissionID int64) (int64, error)

	// FindPermissionsByPlan returns the permissions a plan grants
	FindPermissionsByPlan(ctx context.Context, planID int64) ([]Permission, error)

	// FindPlanIDsByPermission returns the plans that grant a permission
	FindPlanIDsByPermission(ctx context.Context, permissionID int64) ([]int64, error)
}
