package billing

import (
	"context"
	"errors"
	"time"

	"github.com/gateway/backend/internal/domain/access"
	"github.com/gateway/backend/internal/domain/billing"
	"github.com/gateway/backend/internal/domain/catalog"
	"github.com/gateway/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// MeteringService records and reports subscription usage
type MeteringService struct {
	subRepo  billing.SubscriptionRepository
	planRepo catalog.PlanRepository
	retry    RetryConfig
	logger   *zap.Logger
}

// NewMeteringService creates a new MeteringService
func NewMeteringService(
	subRepo billing.SubscriptionRepository,
	planRepo catalog.PlanRepository,
	retry RetryConfig,
	logger *zap.Logger,
) *MeteringService {
	return &MeteringService{
		subRepo:  subRepo,
		planRepo: planRepo,
		retry:    retry,
		logger:   logger,
	}
}

// Increment adds one call to the user's usage and returns the new count.
// The plan limit is enforced by the store in the same statement.
func (s *MeteringService) Increment(ctx context.Context, userID int64) (int64, error) {
	sub, plan, err := s.load(ctx, userID)
	if err != nil {
		return 0, err
	}

	usage, err := s.Record(ctx, s.subRepo, userID, plan.UsageLimit, nil)
	if err != nil {
		return 0, err
	}

	s.logger.Debug("Usage incremented",
		zap.Int64("user_id", userID),
		zap.Int64("plan_id", sub.PlanID),
		zap.Int64("usage", usage))
	return usage, nil
}

// Record consumes one unit of limit for userID through subs, which may be
// bound to the caller's transaction, and returns the new usage. onRetry is
// called in addition to the configured hook before each contended retry.
func (s *MeteringService) Record(
	ctx context.Context,
	subs billing.SubscriptionRepository,
	userID, limit int64,
	onRetry func(err error, wait time.Duration),
) (int64, error) {
	retry := s.retry
	if hook := retry.OnRetry; onRetry != nil {
		retry.OnRetry = func(err error, wait time.Duration) {
			if hook != nil {
				hook(err, wait)
			}
			onRetry(err, wait)
		}
	}

	usage, err := IncrementWithRetry(ctx, subs, userID, limit, retry)
	if err == nil {
		return usage, nil
	}
	switch {
	case errors.Is(err, shared.ErrNotFound):
		return 0, access.ErrSubscriptionNotFound
	case errors.Is(err, shared.ErrQuotaExceeded):
		return 0, access.ErrQuotaExceeded
	case errors.Is(err, shared.ErrStoreBusy):
		s.logger.Warn("Usage increment gave up after retries",
			zap.Int64("user_id", userID),
			zap.Uint("attempts", s.retry.MaxAttempts))
		return 0, err
	}
	s.logger.Error("Failed to increment usage", zap.Int64("user_id", userID), zap.Error(err))
	return 0, err
}

// Remaining reports the user's usage against the plan limit without changing it
func (s *MeteringService) Remaining(ctx context.Context, userID int64) (*QuotaDTO, error) {
	sub, plan, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	dto := ToQuotaDTO(userID, plan.ID, plan.Name, billing.NewQuota(sub.Usage, plan.UsageLimit))
	return &dto, nil
}

func (s *MeteringService) load(ctx context.Context, userID int64) (*billing.Subscription, *catalog.Plan, error) {
	sub, err := s.subRepo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil, access.ErrSubscriptionNotFound
		}
		return nil, nil, err
	}
	plan, err := s.planRepo.FindByID(ctx, sub.PlanID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil, access.ErrPlanNotFound
		}
		return nil, nil, err
	}
	return sub, plan, nil
}
