package billing

import (
	"time"

	"github.com/gateway/backend/internal/domain/billing"
)

// SubscriptionDTO is the read model of a subscription
type SubscriptionDTO struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	PlanID    int64     `json:"plan_id"`
	Usage     int64     `json:"usage"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToSubscriptionDTO converts a domain subscription
func ToSubscriptionDTO(s *billing.Subscription) SubscriptionDTO {
	return SubscriptionDTO{
		ID:        s.ID,
		UserID:    s.UserID,
		PlanID:    s.PlanID,
		Usage:     s.Usage,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// QuotaDTO reports a subscriber's usage against the plan limit.
// Remaining is omitted when the plan is unlimited.
type QuotaDTO struct {
	UserID       int64   `json:"user_id"`
	PlanID       int64   `json:"plan_id"`
	PlanName     string  `json:"plan_name"`
	Usage        int64   `json:"usage"`
	Limit        int64   `json:"limit"`
	Remaining    *int64  `json:"remaining,omitempty"`
	Unlimited    bool    `json:"unlimited"`
	Status       string  `json:"status"`
	UsagePercent float64 `json:"usage_percent"`
	Message      string  `json:"message"`
}

// ToQuotaDTO converts a quota view
func ToQuotaDTO(userID, planID int64, planName string, q billing.Quota) QuotaDTO {
	dto := QuotaDTO{
		UserID:       userID,
		PlanID:       planID,
		PlanName:     planName,
		Usage:        q.Usage,
		Limit:        q.Limit,
		Unlimited:    q.Unlimited,
		Status:       q.Status.String(),
		UsagePercent: q.UsagePercent,
		Message:      q.GetMessage(),
	}
	if !q.Unlimited {
		remaining := q.Remaining
		dto.Remaining = &remaining
	}
	return dto
}

// CreateSubscriptionInput subscribes a user to a plan
type CreateSubscriptionInput struct {
	UserID int64
	PlanID int64
}
