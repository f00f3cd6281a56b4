package access

import "context"

// EntitlementCache caches the endpoints granted to each plan.
// A miss is reported with ok=false and a nil error.
//
// Every plan has a generation that Invalidate advances. A loader reads the
// generation before loading from the store and passes it to Set, which stores
// nothing once the plan has been invalidated since. A grant revoked while a
// load is in flight therefore cannot be written back.
type EntitlementCache interface {
	Get(ctx context.Context, planID int64) (refs []EndpointRef, ok bool, err error)
	Generation(ctx context.Context, planID int64) (uint64, error)
	Set(ctx context.Context, planID int64, generation uint64, refs []EndpointRef) (stored bool, err error)
	Invalidate(ctx context.Context, planIDs ...int64) error
}

// NopEntitlementCache never caches anything
type NopEntitlementCache struct{}

func (NopEntitlementCache) Get(context.Context, int64) ([]EndpointRef, bool, error) {
	return nil, false, nil
}

func (NopEntitlementCache) Generation(context.Context, int64) (uint64, error) { return 0, nil }

func (NopEntitlementCache) Set(context.Context, int64, uint64, []EndpointRef) (bool, error) {
	return false, nil
}

func (NopEntitlementCache) Invalidate(context.Context, ...int64) error { return nil }
