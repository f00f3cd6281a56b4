package models

import (
	"time"

	"github.com/gateway/backend/internal/domain/shared"
)

// BaseModel provides the common persistence fields for all models.
// IDs are auto-increment integers assigned by the store.
type BaseModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to the domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomainBaseEntity populates BaseModel from a domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// All returns every model in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&UserModel{},
		&PlanModel{},
		&PermissionModel{},
		&PlanPermissionModel{},
		&SubscriptionModel{},
	}
}
