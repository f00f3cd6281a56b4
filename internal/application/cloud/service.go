package cloud

import (
	"context"

	appaccess "github.com/gateway/backend/internal/application/access"
	"github.com/gateway/backend/internal/domain/access"
	"go.uber.org/zap"
)

// Authorizer is the gateway check every operation passes before running
type Authorizer interface {
	AuthorizeAndRecord(ctx context.Context, userID int64, endpoint string) (*access.Receipt, error)
}

// Result is the outcome of a simulated operation
type Result struct {
	Message string               `json:"message"`
	Receipt appaccess.ReceiptDTO `json:"usage"`
}

// Service runs simulated cloud operations behind the gateway
type Service struct {
	gateway Authorizer
	logger  *zap.Logger
}

// NewService creates a new Service
func NewService(gateway Authorizer, logger *zap.Logger) *Service {
	return &Service{gateway: gateway, logger: logger}
}

// Execute authorizes and meters op for userID, then performs it
func (s *Service) Execute(ctx context.Context, userID int64, op Operation) (*Result, error) {
	receipt, err := s.gateway.AuthorizeAndRecord(ctx, userID, op.Path())
	if err != nil {
		return nil, err
	}

	s.logger.Info("Cloud operation executed",
		zap.String("operation", op.Name),
		zap.Int64("user_id", userID),
		zap.Int64("usage", receipt.Quota.Usage))

	return &Result{
		Message: op.Message,
		Receipt: appaccess.ToReceiptDTO(receipt),
	}, nil
}
