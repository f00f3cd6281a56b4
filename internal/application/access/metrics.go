package access

import "context"

// Outcome labels for gateway metrics
const (
	OutcomeAllowed       = "allowed"
	OutcomeQuotaExceeded = "quota_exceeded"
	OutcomeForbidden     = "forbidden"
	OutcomeNotFound      = "not_found"
	OutcomeError         = "error"
)

// Metrics receives gateway decision counts
type Metrics interface {
	RecordDecision(ctx context.Context, outcome, endpoint string)
	RecordIncrementRetry(ctx context.Context)
}

type nopMetrics struct{}

func (nopMetrics) RecordDecision(context.Context, string, string) {}

func (nopMetrics) RecordIncrementRetry(context.Context) {}
