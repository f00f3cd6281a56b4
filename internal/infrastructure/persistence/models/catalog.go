package models

import (
	"time"

	"github.com/gateway/backend/internal/domain/catalog"
)

// PlanModel is the persistence model for the Plan entity.
type PlanModel struct {
	BaseModel
	Name        string `gorm:"type:varchar(100);not null;uniqueIndex:idx_plans_name"`
	Description string `gorm:"type:text"`
	UsageLimit  int64  `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (PlanModel) TableName() string {
	return "plans"
}

// ToDomain converts the persistence model to a domain Plan.
func (m *PlanModel) ToDomain() *catalog.Plan {
	return &catalog.Plan{
		BaseEntity:  m.BaseModel.ToDomain(),
		Name:        m.Name,
		Description: m.Description,
		UsageLimit:  m.UsageLimit,
	}
}

// PlanModelFromDomain creates a persistence model from a domain Plan.
func PlanModelFromDomain(p *catalog.Plan) *PlanModel {
	m := &PlanModel{
		Name:        p.Name,
		Description: p.Description,
		UsageLimit:  p.UsageLimit,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}

// PermissionModel is the persistence model for the Permission entity.
type PermissionModel struct {
	BaseModel
	Name        string `gorm:"type:varchar(100);not null"`
	APIEndpoint string `gorm:"column:api_endpoint;type:varchar(255);not null"`
	Description string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (PermissionModel) TableName() string {
	return "permissions"
}

// ToDomain converts the persistence model to a domain Permission.
func (m *PermissionModel) ToDomain() *catalog.Permission {
	return &catalog.Permission{
		BaseEntity:  m.BaseModel.ToDomain(),
		Name:        m.Name,
		APIEndpoint: m.APIEndpoint,
		Description: m.Description,
	}
}

// PermissionModelFromDomain creates a persistence model from a domain Permission.
func PermissionModelFromDomain(p *catalog.Permission) *PermissionModel {
	m := &PermissionModel{
		Name:        p.Name,
		APIEndpoint: p.APIEndpoint,
		Description: p.Description,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}

// PlanPermissionModel links a plan to a permission. The pair is unique.
type PlanPermissionModel struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	PlanID       int64     `gorm:"not null;uniqueIndex:idx_plan_permissions_pair,priority:1"`
	PermissionID int64     `gorm:"column:api_id;not null;uniqueIndex:idx_plan_permissions_pair,priority:2;index"`
	CreatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PlanPermissionModel) TableName() string {
	return "plan_permissions"
}

// ToDomain converts the persistence model to a domain PlanPermission.
func (m *PlanPermissionModel) ToDomain() *catalog.PlanPermission {
	return &catalog.PlanPermission{
		ID:           m.ID,
		PlanID:       m.PlanID,
		PermissionID: m.PermissionID,
		CreatedAt:    m.CreatedAt,
	}
}

// PlanPermissionModelFromDomain creates a persistence model from a domain PlanPermission.
func PlanPermissionModelFromDomain(pp *catalog.PlanPermission) *PlanPermissionModel {
	return &PlanPermissionModel{
		ID:           pp.ID,
		PlanID:       pp.PlanID,
		PermissionID: pp.PermissionID,
		CreatedAt:    pp.CreatedAt,
	}
}
