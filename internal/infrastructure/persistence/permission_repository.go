package persistence

import (
	"context"
	"strings"

	"github.com/gateway/backend/internal/domain/catalog"
	"github.com/gateway/backend/internal/domain/shared"
	"github.com/gateway/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPermissionRepository implements catalog.PermissionRepository using GORM
type GormPermissionRepository struct {
	db *gorm.DB
}

// NewGormPermissionRepository creates a new GormPermissionRepository
func NewGormPermissionRepository(db *gorm.DB) *GormPermissionRepository {
	return &GormPermissionRepository{db: db}
}

// Create inserts a permission and writes the generated ID back to the entity
func (r *GormPermissionRepository) Create(ctx context.Context, permission *catalog.Permission) error {
	model := models.PermissionModelFromDomain(permission)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError(err)
	}
	permission.ID = model.ID
	return nil
}

// Update saves the mutable permission fields
func (r *GormPermissionRepository) Update(ctx context.Context, permission *catalog.Permission) error {
	result := r.db.WithContext(ctx).
		Model(&models.PermissionModel{}).
		Where("id = ?", permission.ID).
		Updates(map[string]any{
			"name":         permission.Name,
			"api_endpoint": permission.APIEndpoint,
			"description":  permission.Description,
			"updated_at":   permission.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a permission by ID. Grants must already be gone.
func (r *GormPermissionRepository) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&models.PermissionModel{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// FindByID finds a permission by ID
func (r *GormPermissionRepository) FindByID(ctx context.Context, id int64) (*catalog.Permission, error) {
	var model models.PermissionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll returns a page of permissions and the total count
func (r *GormPermissionRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Permission, int64, error) {
	filter = filter.Normalize()
	query := r.db.WithContext(ctx).Model(&models.PermissionModel{})
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(api_endpoint) LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	var rows []models.PermissionModel
	if err := query.
		Order(orderClause(filter, PermissionSortFields)).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, translateError(err)
	}

	permissions := make([]catalog.Permission, len(rows))
	for i := range rows {
		permissions[i] = *rows[i].ToDomain()
	}
	return permissions, total, nil
}

var _ catalog.PermissionRepository = (*GormPermissionRepository)(nil)
