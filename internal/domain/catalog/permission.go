package catalog

import (
	"strings"

	"github.com/gateway/backend/internal/domain/shared"
)

// Permission is a single gateable API endpoint
type Permission struct {
	shared.BaseEntity
	Name        string
	APIEndpoint string
	Description string
}

// PermissionUpdate carries the fields to change on a permission. Nil fields are left untouched.
type PermissionUpdate struct {
	Name        *string
	APIEndpoint *string
	Description *string
}

// NewPermission creates a new permission for an endpoint pattern
func NewPermission(name, endpoint, description string) (*Permission, error) {
	name = strings.TrimSpace(name)
	endpoint = strings.TrimSpace(endpoint)
	if err := validatePermissionName(name); err != nil {
		return nil, err
	}
	if err := validateEndpoint(endpoint); err != nil {
		return nil, err
	}

	return &Permission{
		BaseEntity:  shared.NewBaseEntity(),
		Name:        name,
		APIEndpoint: endpoint,
		Description: strings.TrimSpace(description),
	}, nil
}

// Apply applies the non-nil fields of u to the permission
func (p *Permission) Apply(u PermissionUpdate) error {
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if err := validatePermissionName(name); err != nil {
			return err
		}
		p.Name = name
	}
	if u.APIEndpoint != nil {
		endpoint := strings.TrimSpace(*u.APIEndpoint)
		if err := validateEndpoint(endpoint); err != nil {
			return err
		}
		p.APIEndpoint = endpoint
	}
	if u.Description != nil {
		p.Description = strings.TrimSpace(*u.Description)
	}
	p.Touch()
	return nil
}

// IsEmpty reports whether the update changes nothing
func (u PermissionUpdate) IsEmpty() bool {
	return u.Name == nil && u.APIEndpoint == nil && u.Description == nil
}

func validatePermissionName(name string) error {
	if name == "" {
		return shared.NewDomainError(shared.CodeInvalidInput, "Permission name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewDomainError(shared.CodeInvalidInput, "Permission name cannot exceed 100 characters")
	}
	return nil
}

func validateEndpoint(endpoint string) error {
	// A pattern of only separators would match every path once trimmed.
	if strings.Trim(endpoint, "/") == "" {
		return shared.NewDomainError(shared.CodeInvalidInput, "API endpoint cannot be empty")
	}
	if len(endpoint) > 255 {
		return shared.NewDomainError(shared.CodeInvalidInput, "API endpoint cannot exceed 255 characters")
	}
	return nil
}
