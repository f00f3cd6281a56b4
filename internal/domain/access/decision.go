package access

import (
	"github.com/gateway/backend/internal/domain/billing"
	"github.com/gateway/backend/internal/domain/catalog"
	"github.com/gateway/backend/internal/domain/shared"
)

// Reason explains an access decision
type Reason string

const (
	ReasonGranted       Reason = "GRANTED"
	ReasonQuotaExceeded Reason = "QUOTA_EXCEEDED"
	ReasonForbidden     Reason = "FORBIDDEN"
)

// User-facing messages for each outcome
const (
	MsgSubscriptionNotFound = "Subscription not found"
	MsgPlanNotFound         = "Plan not found"
	MsgGranted              = "Access granted"
	MsgQuotaExceeded        = "Usage limit exceeded. Upgrade your plan to continue accessing this API."
	MsgForbidden            = "You do not have access to this endpoint with your current plan."
)

// Lookup errors shared by the evaluator and the gateway
var (
	ErrSubscriptionNotFound = shared.NewDomainError(shared.CodeNotFound, MsgSubscriptionNotFound)
	ErrPlanNotFound         = shared.NewDomainError(shared.CodeNotFound, MsgPlanNotFound)
	ErrQuotaExceeded        = shared.NewDomainError(shared.CodeQuotaExceeded, MsgQuotaExceeded)
	ErrEndpointForbidden    = shared.NewDomainError(shared.CodeForbidden, MsgForbidden)
)

// EndpointRef is one endpoint a plan grants
type EndpointRef struct {
	PermissionID int64  `json:"permission_id"`
	Name         string `json:"name"`
	Pattern      string `json:"api_endpoint"`
}

// EndpointRefsFrom converts permissions to endpoint references
func EndpointRefsFrom(perms []catalog.Permission) []EndpointRef {
	refs := make([]EndpointRef, 0, len(perms))
	for _, p := range perms {
		refs = append(refs, EndpointRef{PermissionID: p.ID, Name: p.Name, Pattern: p.APIEndpoint})
	}
	return refs
}

// Decision is the outcome of evaluating one request
type Decision struct {
	Allowed          bool
	Reason           Reason
	Message          string
	UserID           int64
	PlanID           int64
	PlanName         string
	PlanDescription  string
	Endpoint         string
	Quota            billing.Quota
	AllowedEndpoints []EndpointRef
	Matched          *EndpointRef
}

// Decide renders a decision for a subscription on a plan. Quota is checked
// against the pre-increment usage and before endpoint matching.
func Decide(sub *billing.Subscription, plan *catalog.Plan, endpoints []EndpointRef, matcher EndpointMatcher, path string) Decision {
	d := Decision{
		UserID:           sub.UserID,
		PlanID:           plan.ID,
		PlanName:         plan.Name,
		PlanDescription:  plan.Description,
		Endpoint:         path,
		Quota:            billing.NewQuota(sub.Usage, plan.UsageLimit),
		AllowedEndpoints: endpoints,
	}

	if !plan.Allows(sub.Usage) {
		d.Reason = ReasonQuotaExceeded
		d.Message = MsgQuotaExceeded
		return d
	}

	for i := range endpoints {
		if matcher.Match(endpoints[i].Pattern, path) {
			ref := endpoints[i]
			d.Allowed = true
			d.Reason = ReasonGranted
			d.Message = MsgGranted
			d.Matched = &ref
			return d
		}
	}

	d.Reason = ReasonForbidden
	d.Message = MsgForbidden
	return d
}

// Err returns the domain error for a denied decision, or nil when allowed
func (d Decision) Err() error {
	switch d.Reason {
	case ReasonGranted:
		return nil
	case ReasonQuotaExceeded:
		return ErrQuotaExceeded
	default:
		return ErrEndpointForbidden
	}
}

// Receipt records a successfully authorized and metered call
type Receipt struct {
	UserID   int64
	PlanID   int64
	PlanName string
	Endpoint string
	Matched  EndpointRef
	Quota    billing.Quota
}
