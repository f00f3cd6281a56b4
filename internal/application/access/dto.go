package access

import (
	appbilling "github.com/gateway/backend/internal/application/billing"
	"github.com/gateway/backend/internal/domain/access"
)

// DecisionDTO is the response of an access check
type DecisionDTO struct {
	Allowed          bool                 `json:"allowed"`
	Reason           string               `json:"reason"`
	Message          string               `json:"message"`
	Endpoint         string               `json:"endpoint"`
	PlanID           int64                `json:"plan_id"`
	PlanName         string               `json:"plan_name"`
	PlanDescription  string               `json:"plan_description"`
	Quota            appbilling.QuotaDTO  `json:"quota"`
	AllowedEndpoints []access.EndpointRef `json:"allowed_endpoints"`
}

// ToDecisionDTO converts a domain decision
func ToDecisionDTO(d access.Decision) DecisionDTO {
	endpoints := d.AllowedEndpoints
	if endpoints == nil {
		endpoints = []access.EndpointRef{}
	}
	return DecisionDTO{
		Allowed:          d.Allowed,
		Reason:           string(d.Reason),
		Message:          d.Message,
		Endpoint:         d.Endpoint,
		PlanID:           d.PlanID,
		PlanName:         d.PlanName,
		PlanDescription:  d.PlanDescription,
		Quota:            appbilling.ToQuotaDTO(d.UserID, d.PlanID, d.PlanName, d.Quota),
		AllowedEndpoints: endpoints,
	}
}

// ReceiptDTO is returned to a caller whose request was authorized and metered
type ReceiptDTO struct {
	Endpoint string              `json:"endpoint"`
	Matched  access.EndpointRef  `json:"matched_permission"`
	Quota    appbilling.QuotaDTO `json:"quota"`
}

// ToReceiptDTO converts a domain receipt
func ToReceiptDTO(r *access.Receipt) ReceiptDTO {
	return ReceiptDTO{
		Endpoint: r.Endpoint,
		Matched:  r.Matched,
		Quota:    appbilling.ToQuotaDTO(r.UserID, r.PlanID, r.PlanName, r.Quota),
	}
}
