package persistence

import (
	"strings"

	"github.com/gateway/backend/internal/domain/shared"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "ASC" for anything other than a case-insensitive "desc".
func ValidateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "desc") {
		return "DESC"
	}
	return "ASC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns defaultField if the input is empty or not whitelisted.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// orderClause builds a safe ORDER BY clause from a filter
func orderClause(filter shared.Filter, allowed map[string]bool) string {
	return ValidateSortField(filter.OrderBy, allowed, "id") + " " + ValidateSortOrder(filter.OrderDir)
}

// PlanSortFields contains allowed sort fields for plans
var PlanSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"updated_at":  true,
	"name":        true,
	"usage_limit": true,
}

// PermissionSortFields contains allowed sort fields for permissions
var PermissionSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"name":         true,
	"api_endpoint": true,
}

// SubscriptionSortFields contains allowed sort fields for subscriptions
var SubscriptionSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"user_id":    true,
	"plan_id":    true,
	"usage":      true,
}
