package billing

import (
	"context"

	"github.com/gateway/backend/internal/domain/shared"
)

// SubscriptionRepository defines persistence for subscriptions
type SubscriptionRepository interface {
	// Create inserts a subscription, failing with ErrAlreadyExists when the user already has one
	Create(ctx context.Context, sub *Subscription) error

	// Update saves plan changes. It never writes the usage column.
	Update(ctx context.Context, sub *Subscription) error

	// DeleteByUserID removes a user's subscription
	DeleteByUserID(ctx context.Context, userID int64) error

	// FindByUserID finds the subscription of a user
	FindByUserID(ctx context.Context, userID int64) (*Subscription, error)

	// FindAll returns subscriptions with pagination
	FindAll(ctx context.Context, filter shared.Filter) ([]Subscription, int64, error)

	// CountByPlan returns the number of subscriptions on a plan
	CountByPlan(ctx context.Context, planID int64) (int64, error)

	// IncrementUsage adds one to the user's usage counter in a single
	// conditional update that only succeeds while usage < limit (or limit is 0).
	// It returns the new usage. ErrNotFound means no subscription exists;
	// ErrQuotaExceeded means the limit guard rejected the update.
	IncrementUsage(ctx context.Context, userID, limit int64) (int64, error)
}
