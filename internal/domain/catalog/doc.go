// Package catalog holds the plan and permission reference data that the
// gateway evaluates requests against.
//
// A Plan is a named tier with a usage limit (0 means unlimited). A Permission
// names one gateable API endpoint by path pattern. PlanPermission links the
// two; a plan authorizes exactly the endpoints it is linked to.
package catalog
