package models

import (
	"github.com/gateway/backend/internal/domain/billing"
)

// SubscriptionModel is the persistence model for the Subscription entity.
// user_id is unique: a user holds at most one subscription.
type SubscriptionModel struct {
	BaseModel
	UserID int64 `gorm:"not null;uniqueIndex:idx_subscriptions_user"`
	PlanID int64 `gorm:"not null;index"`
	Usage  int64 `gorm:"column:usage;not null;default:0"`
}

// TableName returns the table name for GORM
func (SubscriptionModel) TableName() string {
	return "subscriptions"
}

// ToDomain converts the persistence model to a domain Subscription.
func (m *SubscriptionModel) ToDomain() *billing.Subscription {
	return &billing.Subscription{
		BaseEntity: m.BaseModel.ToDomain(),
		UserID:     m.UserID,
		PlanID:     m.PlanID,
		Usage:      m.Usage,
	}
}

// SubscriptionModelFromDomain creates a persistence model from a domain Subscription.
func SubscriptionModelFromDomain(s *billing.Subscription) *SubscriptionModel {
	m := &SubscriptionModel{
		UserID: s.UserID,
		PlanID: s.PlanID,
		Usage:  s.Usage,
	}
	m.FromDomainBaseEntity(s.BaseEntity)
	return m
}
