package catalog

import "time"

// PlanPermission grants a plan access to one permission's endpoint
type PlanPermission struct {
	ID           int64
	PlanID       int64
	PermissionID int64
	CreatedAt    time.Time
}

// NewPlanPermission links a plan to a permission
func NewPlanPermission(planID, permissionID int64) *PlanPermission {
	return &PlanPermission{
		PlanID:       planID,
		PermissionID: permissionID,
		CreatedAt:    time.Now(),
	}
}
