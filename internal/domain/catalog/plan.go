package catalog

import (
	"strings"

	"github.com/gateway/backend/internal/domain/shared"
)

// UnlimitedUsage is the usage limit value meaning "no quota"
const UnlimitedUsage int64 = 0

// Plan is a subscription tier with a call quota
type Plan struct {
	shared.BaseEntity
	Name        string
	Description string
	UsageLimit  int64
}

// PlanUpdate carries the fields to change on a plan. Nil fields are left untouched.
type PlanUpdate struct {
	Name        *string
	Description *string
	UsageLimit  *int64
}

// NewPlan creates a new plan
func NewPlan(name, description string, usageLimit int64) (*Plan, error) {
	name = strings.TrimSpace(name)
	if err := validatePlanName(name); err != nil {
		return nil, err
	}
	if err := validateUsageLimit(usageLimit); err != nil {
		return nil, err
	}

	return &Plan{
		BaseEntity:  shared.NewBaseEntity(),
		Name:        name,
		Description: strings.TrimSpace(description),
		UsageLimit:  usageLimit,
	}, nil
}

// IsUnlimited reports whether the plan has no quota
func (p *Plan) IsUnlimited() bool {
	return p.UsageLimit == UnlimitedUsage
}

// Allows reports whether a subscription at the given usage may make one more call
func (p *Plan) Allows(usage int64) bool {
	return p.IsUnlimited() || usage < p.UsageLimit
}

// Apply applies the non-nil fields of u to the plan
func (p *Plan) Apply(u PlanUpdate) error {
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if err := validatePlanName(name); err != nil {
			return err
		}
		p.Name = name
	}
	if u.Description != nil {
		p.Description = strings.TrimSpace(*u.Description)
	}
	if u.UsageLimit != nil {
		if err := validateUsageLimit(*u.UsageLimit); err != nil {
			return err
		}
		p.UsageLimit = *u.UsageLimit
	}
	p.Touch()
	return nil
}

// IsEmpty reports whether the update changes nothing
func (u PlanUpdate) IsEmpty() bool {
	return u.Name == nil && u.Description == nil && u.UsageLimit == nil
}

func validatePlanName(name string) error {
	if name == "" {
		return shared.NewDomainError(shared.CodeInvalidInput, "Plan name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewDomainError(shared.CodeInvalidInput, "Plan name cannot exceed 100 characters")
	}
	return nil
}

func validateUsageLimit(limit int64) error {
	if limit < 0 {
		return shared.NewDomainError(shared.CodeInvalidInput, "Usage limit cannot be negative")
	}
	return nil
}
