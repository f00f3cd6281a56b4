package access

import (
	"context"
	"errors"

	"github.com/gateway/backend/internal/domain/access"
	"github.com/gateway/backend/internal/domain/catalog"
	"github.com/gateway/backend/internal/domain/shared"
)

// Evaluator renders read-only access decisions
type Evaluator struct {
	scope        access.TransactionScope
	matcher      access.EndpointMatcher
	entitlements *EntitlementResolver
}

// NewEvaluator creates a new Evaluator
func NewEvaluator(scope access.TransactionScope, matcher access.EndpointMatcher, entitlements *EntitlementResolver) *Evaluator {
	return &Evaluator{
		scope:        scope,
		matcher:      matcher,
		entitlements: entitlements,
	}
}

// Evaluate decides whether userID may call endpoint without recording usage.
// A missing subscription or plan is an error; quota and endpoint denials are
// reported in the decision.
func (e *Evaluator) Evaluate(ctx context.Context, userID int64, endpoint string) (*access.Decision, error) {
	var decision access.Decision
	err := e.scope.Execute(ctx, func(repos access.TransactionalRepositories) error {
		d, _, err := e.evaluate(ctx, repos, userID, endpoint)
		if err != nil {
			return err
		}
		decision = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &decision, nil
}

// MatchPolicy returns the configured endpoint matching policy
func (e *Evaluator) MatchPolicy() access.MatchPolicy {
	return e.matcher.Policy()
}

func (e *Evaluator) evaluate(ctx context.Context, repos access.TransactionalRepositories, userID int64, endpoint string) (access.Decision, *catalog.Plan, error) {
	sub, err := repos.SubscriptionRepo().FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return access.Decision{}, nil, access.ErrSubscriptionNotFound
		}
		return access.Decision{}, nil, err
	}

	plan, err := repos.PlanRepo().FindByID(ctx, sub.PlanID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return access.Decision{}, nil, access.ErrPlanNotFound
		}
		return access.Decision{}, nil, err
	}

	endpoints, err := e.entitlements.Resolve(ctx, repos.PlanPermissionRepo(), plan.ID)
	if err != nil {
		return access.Decision{}, nil, err
	}

	return access.Decide(sub, plan, endpoints, e.matcher, endpoint), plan, nil
}
