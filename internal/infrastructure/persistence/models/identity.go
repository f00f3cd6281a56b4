package models

import (
	"github.com/gateway/backend/internal/domain/identity"
)

// UserModel is the persistence model for the User entity.
type UserModel struct {
	BaseModel
	Username     string        `gorm:"type:varchar(100);not null;uniqueIndex:idx_users_username"`
	PasswordHash string        `gorm:"type:varchar(255);not null"`
	Role         identity.Role `gorm:"type:varchar(20);not null;default:'user'"`
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User.
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseEntity:   m.BaseModel.ToDomain(),
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		Role:         m.Role,
	}
}

// UserModelFromDomain creates a persistence model from a domain User.
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
	}
	m.FromDomainBaseEntity(u.BaseEntity)
	return m
}
