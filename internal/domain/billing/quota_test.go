package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQuota(t *testing.T) {
	tests := []struct {
		name      string
		usage     int64
		limit     int64
		remaining int64
		unlimited bool
		status    QuotaStatus
	}{
		{"fresh", 0, 5, 5, false, QuotaStatusOK},
		{"last call left", 4, 5, 1, false, QuotaStatusOK},
		{"at limit", 5, 5, 0, false, QuotaStatusExceeded},
		{"over limit after plan downgrade", 9, 5, 0, false, QuotaStatusExceeded},
		{"unlimited", 42, 0, -1, true, QuotaStatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewQuota(tt.usage, tt.limit)
			assert.Equal(t, tt.remaining, q.Remaining)
			assert.Equal(t, tt.unlimited, q.Unlimited)
			assert.Equal(t, tt.status, q.Status)
			assert.Equal(t, tt.status == QuotaStatusOK, q.IsAllowed())
		})
	}

	assert.InDelta(t, 80.0, NewQuota(4, 5).UsagePercent, 0.001)
	assert.Equal(t, "Usage is unlimited", NewQuota(1, 0).GetMessage())
}

func TestNewSubscription(t *testing.T) {
	t.Run("starts with zero usage", func(t *testing.T) {
		sub, err := NewSubscription(1, 7)
		require.NoError(t, err)
		assert.Equal(t, int64(0), sub.Usage)
		assert.Equal(t, int64(7), sub.PlanID)
	})

	t.Run("rejects invalid ids", func(t *testing.T) {
		_, err := NewSubscription(0, 7)
		assert.Error(t, err)
		_, err = NewSubscription(1, 0)
		assert.Error(t, err)
	})

	t.Run("change plan keeps usage", func(t *testing.T) {
		sub := &Subscription{UserID: 1, PlanID: 7, Usage: 3}
		require.NoError(t, sub.ChangePlan(8))
		assert.Equal(t, int64(8), sub.PlanID)
		assert.Equal(t, int64(3), sub.Usage)
	})
}
