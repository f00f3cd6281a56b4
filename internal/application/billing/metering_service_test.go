package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gateway/backend/internal/domain/access"
	"github.com/gateway/backend/internal/domain/billing"
	"github.com/gateway/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

func TestMeteringService_Increment(t *testing.T) {
	ctx := context.Background()

	t.Run("increments with plan limit", func(t *testing.T) {
		subRepo := new(mockSubscriptionRepository)
		planRepo := new(mockPlanRepository)
		svc := NewMeteringService(subRepo, planRepo, fastRetry(), zap.NewNop())

		subRepo.On("FindByUserID", ctx, int64(1)).Return(&billing.Subscription{UserID: 1, PlanID: 7, Usage: 4}, nil)
		planRepo.On("FindByID", ctx, int64(7)).Return(testPlan(7, 5), nil)
		subRepo.On("IncrementUsage", ctx, int64(1), int64(5)).Return(int64(5), nil)

		usage, err := svc.Increment(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(5), usage)
		subRepo.AssertExpectations(t)
	})

	t.Run("missing subscription", func(t *testing.T) {
		subRepo := new(mockSubscriptionRepository)
		planRepo := new(mockPlanRepository)
		svc := NewMeteringService(subRepo, planRepo, fastRetry(), zap.NewNop())

		subRepo.On("FindByUserID", ctx, int64(9)).Return(nil, shared.ErrNotFound)

		_, err := svc.Increment(ctx, 9)
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
		assert.Equal(t, access.MsgSubscriptionNotFound, err.Error())
		subRepo.AssertNotCalled(t, "IncrementUsage", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("limit guard rejects", func(t *testing.T) {
		subRepo := new(mockSubscriptionRepository)
		planRepo := new(mockPlanRepository)
		svc := NewMeteringService(subRepo, planRepo, fastRetry(), zap.NewNop())

		subRepo.On("FindByUserID", ctx, int64(1)).Return(&billing.Subscription{UserID: 1, PlanID: 7, Usage: 5}, nil)
		planRepo.On("FindByID", ctx, int64(7)).Return(testPlan(7, 5), nil)
		subRepo.On("IncrementUsage", ctx, int64(1), int64(5)).Return(int64(0), shared.ErrQuotaExceeded)

		_, err := svc.Increment(ctx, 1)
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrQuotaExceeded))
		subRepo.AssertNumberOfCalls(t, "IncrementUsage", 1)
	})

	t.Run("retries transient contention", func(t *testing.T) {
		subRepo := new(mockSubscriptionRepository)
		planRepo := new(mockPlanRepository)
		retries := 0
		cfg := fastRetry()
		cfg.OnRetry = func(error, time.Duration) { retries++ }
		svc := NewMeteringService(subRepo, planRepo, cfg, zap.NewNop())

		subRepo.On("FindByUserID", ctx, int64(1)).Return(&billing.Subscription{UserID: 1, PlanID: 7}, nil)
		planRepo.On("FindByID", ctx, int64(7)).Return(testPlan(7, 0), nil)
		subRepo.On("IncrementUsage", ctx, int64(1), int64(0)).Return(int64(0), shared.ErrStoreBusy).Once()
		subRepo.On("IncrementUsage", ctx, int64(1), int64(0)).Return(int64(1), nil).Once()

		usage, err := svc.Increment(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), usage)
		assert.Equal(t, 1, retries)
		subRepo.AssertNumberOfCalls(t, "IncrementUsage", 2)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		subRepo := new(mockSubscriptionRepository)
		planRepo := new(mockPlanRepository)
		svc := NewMeteringService(subRepo, planRepo, fastRetry(), zap.NewNop())

		subRepo.On("FindByUserID", ctx, int64(1)).Return(&billing.Subscription{UserID: 1, PlanID: 7}, nil)
		planRepo.On("FindByID", ctx, int64(7)).Return(testPlan(7, 0), nil)
		subRepo.On("IncrementUsage", ctx, int64(1), int64(0)).Return(int64(0), shared.ErrStoreBusy)

		_, err := svc.Increment(ctx, 1)
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrStoreBusy))
		subRepo.AssertNumberOfCalls(t, "IncrementUsage", 3)
	})
}

func TestMeteringService_Record(t *testing.T) {
	ctx := context.Background()

	t.Run("writes through the given repository", func(t *testing.T) {
		own := new(mockSubscriptionRepository)
		txRepo := new(mockSubscriptionRepository)
		svc := NewMeteringService(own, new(mockPlanRepository), fastRetry(), zap.NewNop())

		txRepo.On("IncrementUsage", ctx, int64(1), int64(5)).Return(int64(3), nil).Once()

		usage, err := svc.Record(ctx, txRepo, 1, 5, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(3), usage)
		txRepo.AssertExpectations(t)
		own.AssertNotCalled(t, "IncrementUsage", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("calls both retry hooks", func(t *testing.T) {
		txRepo := new(mockSubscriptionRepository)
		configured, extra := 0, 0
		cfg := fastRetry()
		cfg.OnRetry = func(error, time.Duration) { configured++ }
		svc := NewMeteringService(new(mockSubscriptionRepository), new(mockPlanRepository), cfg, zap.NewNop())

		txRepo.On("IncrementUsage", ctx, int64(1), int64(0)).Return(int64(0), shared.ErrStoreBusy).Once()
		txRepo.On("IncrementUsage", ctx, int64(1), int64(0)).Return(int64(1), nil).Once()

		_, err := svc.Record(ctx, txRepo, 1, 0, func(error, time.Duration) { extra++ })
		require.NoError(t, err)
		assert.Equal(t, 1, configured)
		assert.Equal(t, 1, extra)
	})

	t.Run("maps store errors", func(t *testing.T) {
		txRepo := new(mockSubscriptionRepository)
		svc := NewMeteringService(new(mockSubscriptionRepository), new(mockPlanRepository), fastRetry(), zap.NewNop())

		txRepo.On("IncrementUsage", ctx, int64(1), int64(5)).Return(int64(0), shared.ErrQuotaExceeded).Once()
		txRepo.On("IncrementUsage", ctx, int64(2), int64(5)).Return(int64(0), shared.ErrNotFound).Once()

		_, err := svc.Record(ctx, txRepo, 1, 5, nil)
		assert.True(t, errors.Is(err, access.ErrQuotaExceeded))
		_, err = svc.Record(ctx, txRepo, 2, 5, nil)
		assert.True(t, errors.Is(err, access.ErrSubscriptionNotFound))
	})
}

func TestMeteringService_Remaining(t *testing.T) {
	ctx := context.Background()

	t.Run("limited plan", func(t *testing.T) {
		subRepo := new(mockSubscriptionRepository)
		planRepo := new(mockPlanRepository)
		svc := NewMeteringService(subRepo, planRepo, fastRetry(), zap.NewNop())

		subRepo.On("FindByUserID", ctx, int64(1)).Return(&billing.Subscription{UserID: 1, PlanID: 7, Usage: 4}, nil)
		planRepo.On("FindByID", ctx, int64(7)).Return(testPlan(7, 5), nil)

		q, err := svc.Remaining(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(4), q.Usage)
		assert.Equal(t, int64(5), q.Limit)
		require.NotNil(t, q.Remaining)
		assert.Equal(t, int64(1), *q.Remaining)
		assert.False(t, q.Unlimited)
	})

	t.Run("unlimited plan", func(t *testing.T) {
		subRepo := new(mockSubscriptionRepository)
		planRepo := new(mockPlanRepository)
		svc := NewMeteringService(subRepo, planRepo, fastRetry(), zap.NewNop())

		subRepo.On("FindByUserID", ctx, int64(1)).Return(&billing.Subscription{UserID: 1, PlanID: 7, Usage: 40}, nil)
		planRepo.On("FindByID", ctx, int64(7)).Return(testPlan(7, 0), nil)

		q, err := svc.Remaining(ctx, 1)
		require.NoError(t, err)
		assert.True(t, q.Unlimited)
		assert.Nil(t, q.Remaining)
	})

	t.Run("orphaned plan", func(t *testing.T) {
		subRepo := new(mockSubscriptionRepository)
		planRepo := new(mockPlanRepository)
		svc := NewMeteringService(subRepo, planRepo, fastRetry(), zap.NewNop())

		subRepo.On("FindByUserID", ctx, int64(1)).Return(&billing.Subscription{UserID: 1, PlanID: 7}, nil)
		planRepo.On("FindByID", ctx, int64(7)).Return(nil, shared.ErrNotFound)

		_, err := svc.Remaining(ctx, 1)
		require.Error(t, err)
		assert.Equal(t, access.MsgPlanNotFound, err.Error())
	})
}
