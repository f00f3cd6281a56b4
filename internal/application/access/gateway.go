package access

import (
	"context"
	"time"

	appbilling "github.com/gateway/backend/internal/application/billing"
	"github.com/gateway/backend/internal/domain/access"
	"github.com/gateway/backend/internal/domain/billing"
	"github.com/gateway/backend/internal/domain/shared"
	"github.com/gateway/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Gateway is the single check-then-increment entry point that every metered
// operation calls before doing any work.
type Gateway struct {
	scope     access.TransactionScope
	evaluator *Evaluator
	metering  *appbilling.MeteringService
	metrics   Metrics
	logger    *zap.Logger
}

// GatewayConfig contains configuration for the Gateway
type GatewayConfig struct {
	Metrics Metrics
}

// NewGateway creates a new Gateway. Usage is recorded through metering against
// the repositories of each request's transaction.
func NewGateway(
	scope access.TransactionScope,
	evaluator *Evaluator,
	metering *appbilling.MeteringService,
	cfg GatewayConfig,
	logger *zap.Logger,
) *Gateway {
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Gateway{
		scope:     scope,
		evaluator: evaluator,
		metering:  metering,
		metrics:   metrics,
		logger:    logger,
	}
}

// AuthorizeAndRecord checks, in order, subscription, plan, quota and endpoint
// permission, then records exactly one call. Nothing is recorded on any
// rejection. Quota is judged on the pre-increment usage and re-checked by the
// conditional update, so concurrent callers cannot push usage past the limit.
func (g *Gateway) AuthorizeAndRecord(ctx context.Context, userID int64, endpoint string) (*access.Receipt, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "gateway", "authorize_and_record",
		telemetry.WithAttribute(telemetry.SpanAttrUserID, userID),
		telemetry.WithAttribute(telemetry.SpanAttrEndpoint, endpoint),
	)
	defer span.End()

	var receipt *access.Receipt
	err := g.scope.Execute(ctx, func(repos access.TransactionalRepositories) error {
		decision, plan, err := g.evaluator.evaluate(ctx, repos, userID, endpoint)
		if err != nil {
			return err
		}
		if !decision.Allowed {
			return decision.Err()
		}

		usage, err := g.metering.Record(ctx, repos.SubscriptionRepo(), userID, plan.UsageLimit,
			func(err error, wait time.Duration) {
				g.metrics.RecordIncrementRetry(ctx)
				telemetry.AddEvent(span, "increment_retry", "wait_ms", wait.Milliseconds())
				g.logger.Debug("Retrying usage increment",
					zap.Int64("user_id", userID),
					zap.Duration("wait", wait),
					zap.Error(err))
			})
		if err != nil {
			return err
		}

		receipt = &access.Receipt{
			UserID:   userID,
			PlanID:   plan.ID,
			PlanName: plan.Name,
			Endpoint: endpoint,
			Matched:  *decision.Matched,
			Quota:    billing.NewQuota(usage, plan.UsageLimit),
		}
		return nil
	})

	outcome := outcomeOf(err)
	g.metrics.RecordDecision(ctx, outcome, endpoint)
	telemetry.SetAttribute(span, telemetry.SpanAttrOutcome, outcome)

	if err != nil {
		fields := []zap.Field{
			zap.Int64("user_id", userID),
			zap.String("endpoint", endpoint),
			zap.String("outcome", outcome),
		}
		if outcome == OutcomeError {
			telemetry.RecordError(span, err)
			g.logger.Error("Gateway authorization failed", append(fields, zap.Error(err))...)
		} else {
			g.logger.Warn("Gateway request denied", fields...)
		}
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrPlanID, receipt.PlanID,
		telemetry.SpanAttrUsage, receipt.Quota.Usage,
		telemetry.SpanAttrLimit, receipt.Quota.Limit,
	)
	g.logger.Debug("Gateway request authorized",
		zap.Int64("user_id", userID),
		zap.String("endpoint", endpoint),
		zap.Int64("usage", receipt.Quota.Usage),
		zap.Int64("limit", receipt.Quota.Limit))
	return receipt, nil
}

func outcomeOf(err error) string {
	switch shared.CodeOf(err) {
	case "":
		if err == nil {
			return OutcomeAllowed
		}
		return OutcomeError
	case shared.CodeQuotaExceeded:
		return OutcomeQuotaExceeded
	case shared.CodeForbidden:
		return OutcomeForbidden
	case shared.CodeNotFound:
		return OutcomeNotFound
	default:
		return OutcomeError
	}
}
