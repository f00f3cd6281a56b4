package billing

import (
	"github.com/gateway/backend/internal/domain/shared"
)

// Subscription is the binding of one user to one plan
type Subscription struct {
	shared.BaseEntity
	UserID int64
	PlanID int64
	Usage  int64
}

// NewSubscription subscribes a user to a plan with zero usage
func NewSubscription(userID, planID int64) (*Subscription, error) {
	if userID <= 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "User ID must be positive")
	}
	if planID <= 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Plan ID must be positive")
	}

	return &Subscription{
		BaseEntity: shared.NewBaseEntity(),
		UserID:     userID,
		PlanID:     planID,
	}, nil
}

// ChangePlan moves the subscription to another plan. Usage is kept.
func (s *Subscription) ChangePlan(planID int64) error {
	if planID <= 0 {
		return shared.NewDomainError(shared.CodeInvalidInput, "Plan ID must be positive")
	}
	s.PlanID = planID
	s.Touch()
	return nil
}
