package catalog

import (
	"time"

	"github.com/gateway/backend/internal/domain/catalog"
)

// PlanDTO is the read model of a plan
type PlanDTO struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	UsageLimit  int64     `json:"usage_limit"`
	Unlimited   bool      `json:"unlimited"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToPlanDTO converts a domain plan
func ToPlanDTO(p *catalog.Plan) PlanDTO {
	return PlanDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		UsageLimit:  p.UsageLimit,
		Unlimited:   p.IsUnlimited(),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// PermissionDTO is the read model of a permission
type PermissionDTO struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	APIEndpoint string    `json:"api_endpoint"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToPermissionDTO converts a domain permission
func ToPermissionDTO(p *catalog.Permission) PermissionDTO {
	return PermissionDTO{
		ID:          p.ID,
		Name:        p.Name,
		APIEndpoint: p.APIEndpoint,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// CreatePlanInput contains the fields of a new plan
type CreatePlanInput struct {
	Name        string
	Description string
	UsageLimit  int64
}

// CreatePermissionInput contains the fields of a new permission
type CreatePermissionInput struct {
	Name        string
	APIEndpoint string
	Description string
}
