package handler

import (
	"github.com/gateway/backend/internal/domain/catalog"
	"github.com/gateway/backend/internal/domain/shared"
	"github.com/gateway/backend/internal/interfaces/http/dto"
)

// CreatePlanRequest is the body of POST /plans
type CreatePlanRequest struct {
	Name        string `json:"name" binding:"required,max=100" example:"basic"`
	Description string `json:"description" binding:"max=500" example:"Storage only"`
	// 0 means unlimited
	UsageLimit int64 `json:"usage_limit" binding:"gte=0" example:"100"`
}

// UpdatePlanRequest is the body of PUT /plans/:id. Omitted fields are kept.
type UpdatePlanRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=100"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	UsageLimit  *int64  `json:"usage_limit" binding:"omitempty,gte=0"`
}

// ToPlanUpdate converts the request to the domain update
func (r UpdatePlanRequest) ToPlanUpdate() catalog.PlanUpdate {
	return catalog.PlanUpdate{
		Name:        r.Name,
		Description: r.Description,
		UsageLimit:  r.UsageLimit,
	}
}

// CreatePermissionRequest is the body of POST /permissions
type CreatePermissionRequest struct {
	Name        string `json:"name" binding:"required,max=100" example:"Create bucket"`
	APIEndpoint string `json:"api_endpoint" binding:"required,max=255" example:"/cloud-services/create-bucket"`
	Description string `json:"description" binding:"max=500"`
}

// UpdatePermissionRequest is the body of PUT /permissions/:id. Omitted fields are kept.
type UpdatePermissionRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=100"`
	APIEndpoint *string `json:"api_endpoint" binding:"omitempty,max=255"`
	Description *string `json:"description" binding:"omitempty,max=500"`
}

// ToPermissionUpdate converts the request to the domain update
func (r UpdatePermissionRequest) ToPermissionUpdate() catalog.PermissionUpdate {
	return catalog.PermissionUpdate{
		Name:        r.Name,
		APIEndpoint: r.APIEndpoint,
		Description: r.Description,
	}
}

// GrantPermissionRequest is the body of POST /plans/:id/permissions
type GrantPermissionRequest struct {
	PermissionID int64 `json:"permission_id" binding:"required,min=1" example:"3"`
}

// toFilter converts list query parameters to a repository filter
func toFilter(req dto.ListRequest) shared.Filter {
	return shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
		Search:   req.Search,
	}.Normalize()
}
