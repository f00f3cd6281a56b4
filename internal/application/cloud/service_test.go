package cloud

import (
	"context"
	"testing"

	"github.com/gateway/backend/internal/domain/access"
	"github.com/gateway/backend/internal/domain/billing"
	"github.com/gateway/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubAuthorizer struct {
	calls []string
	err   error
}

func (s *stubAuthorizer) AuthorizeAndRecord(_ context.Context, userID int64, endpoint string) (*access.Receipt, error) {
	s.calls = append(s.calls, endpoint)
	if s.err != nil {
		return nil, s.err
	}
	return &access.Receipt{UserID: userID, PlanID: 7, Endpoint: endpoint, Quota: billing.NewQuota(1, 5)}, nil
}

func TestService_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("every operation goes through the gateway", func(t *testing.T) {
		stub := &stubAuthorizer{}
		svc := NewService(stub, zap.NewNop())

		for _, op := range Operations {
			result, err := svc.Execute(ctx, 1, op)
			require.NoError(t, err)
			assert.Equal(t, op.Message, result.Message)
			assert.Equal(t, int64(1), result.Receipt.Quota.Usage)
		}
		require.Len(t, stub.calls, 9)
		assert.Equal(t, "/cloud-services/create-bucket", stub.calls[0])
		assert.Equal(t, "/cloud-services/delete-logs", stub.calls[8])
	})

	t.Run("denied operation returns gateway error", func(t *testing.T) {
		stub := &stubAuthorizer{err: access.ErrQuotaExceeded}
		svc := NewService(stub, zap.NewNop())

		result, err := svc.Execute(ctx, 1, Operations[0])
		assert.Nil(t, result)
		assert.ErrorIs(t, err, shared.ErrQuotaExceeded)
	})
}
