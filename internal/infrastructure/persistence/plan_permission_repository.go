package persistence

import (
	"context"

	"github.com/gateway/backend/internal/domain/catalog"
	"github.com/gateway/backend/internal/domain/shared"
	"github.com/gateway/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPlanPermissionRepository implements catalog.PlanPermissionRepository using GORM
type GormPlanPermissionRepository struct {
	db *gorm.DB
}

// NewGormPlanPermissionRepository creates a new GormPlanPermissionRepository
func NewGormPlanPermissionRepository(db *gorm.DB) *GormPlanPermissionRepository {
	return &GormPlanPermissionRepository{db: db}
}

// Create links a plan to a permission. The unique pair index reports duplicates.
func (r *GormPlanPermissionRepository) Create(ctx context.Context, link *catalog.PlanPermission) error {
	model := models.PlanPermissionModelFromDomain(link)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError(err)
	}
	link.ID = model.ID
	return nil
}

// Delete removes one link
func (r *GormPlanPermissionRepository) Delete(ctx context.Context, planID, permissionID int64) error {
	result := r.db.WithContext(ctx).
		Where("plan_id = ? AND api_id = ?", planID, permissionID).
		Delete(&models.PlanPermissionModel{})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteByPlan removes every link of a plan
func (r *GormPlanPermissionRepository) DeleteByPlan(ctx context.Context, planID int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("plan_id = ?", planID).
		Delete(&models.PlanPermissionModel{})
	return result.RowsAffected, translateError(result.Error)
}

// DeleteByPermission removes every link of a permission
func (r *GormPlanPermissionRepository) DeleteByPermission(ctx context.Context, permissionID int64) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("api_id = ?", permissionID).
		Delete(&models.PlanPermissionModel{})
	return result.RowsAffected, translateError(result.Error)
}

// FindPermissionsByPlan returns the permissions granted to a plan, ordered by ID
func (r *GormPlanPermissionRepository) FindPermissionsByPlan(ctx context.Context, planID int64) ([]catalog.Permission, error) {
	var rows []models.PermissionModel
	if err := r.db.WithContext(ctx).
		Model(&models.PermissionModel{}).
		Select("permissions.*").
		Joins("JOIN plan_permissions ON plan_permissions.api_id = permissions.id").
		Where("plan_permissions.plan_id = ?", planID).
		Order("permissions.id ASC").
		Find(&rows).Error; err != nil {
		return nil, translateError(err)
	}

	permissions := make([]catalog.Permission, len(rows))
	for i := range rows {
		permissions[i] = *rows[i].ToDomain()
	}
	return permissions, nil
}

// FindPlanIDsByPermission returns the IDs of plans granting a permission
func (r *GormPlanPermissionRepository) FindPlanIDsByPermission(ctx context.Context, permissionID int64) ([]int64, error) {
	var planIDs []int64
	if err := r.db.WithContext(ctx).
		Model(&models.PlanPermissionModel{}).
		Where("api_id = ?", permissionID).
		Order("plan_id ASC").
		Pluck("plan_id", &planIDs).Error; err != nil {
		return nil, translateError(err)
	}
	return planIDs, nil
}

var _ catalog.PlanPermissionRepository = (*GormPlanPermissionRepository)(nil)
