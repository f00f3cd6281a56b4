package persistence

import (
	"context"
	"strings"

	"github.com/gateway/backend/internal/domain/catalog"
	"github.com/gateway/backend/internal/domain/shared"
	"github.com/gateway/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPlanRepository implements catalog.PlanRepository using GORM
type GormPlanRepository struct {
	db *gorm.DB
}

// NewGormPlanRepository creates a new GormPlanRepository
func NewGormPlanRepository(db *gorm.DB) *GormPlanRepository {
	return &GormPlanRepository{db: db}
}

// Create inserts a plan and writes the generated ID back to the entity
func (r *GormPlanRepository) Create(ctx context.Context, plan *catalog.Plan) error {
	model := models.PlanModelFromDomain(plan)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError(err)
	}
	plan.ID = model.ID
	return nil
}

// Update saves the mutable plan fields
func (r *GormPlanRepository) Update(ctx context.Context, plan *catalog.Plan) error {
	result := r.db.WithContext(ctx).
		Model(&models.PlanModel{}).
		Where("id = ?", plan.ID).
		Updates(map[string]any{
			"name":        plan.Name,
			"description": plan.Description,
			"usage_limit": plan.UsageLimit,
			"updated_at":  plan.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a plan by ID. Grants must already be gone.
func (r *GormPlanRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.PlanModel{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a plan by ID
func (r *GormPlanRepository) FindByID(ctx context.Context, id int64) (*catalog.Plan, error) {
	var model models.PlanModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll returns a page of plans and the total count
func (r *GormPlanRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Plan, int64, error) {
	filter = filter.Normalize()
	query := r.db.WithContext(ctx).Model(&models.PlanModel{})
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var rows []models.PlanModel
	if err := query.
		Order(orderClause(filter, PlanSortFields)).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, translateError(err)
	}

	plans := make([]catalog.Plan, len(rows))
	for i := range rows {
		plans[i] = *rows[i].ToDomain()
	}
	return plans, total, nil
}

// ExistsByName checks whether a plan name is taken, ignoring case
func (r *GormPlanRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.PlanModel{}).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		Count(&count).Error; err != nil {
		return false, translateError(err)
	}
	return count > 0, nil
}

var _ catalog.PlanRepository = (*GormPlanRepository)(nil)
