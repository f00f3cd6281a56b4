package access

import (
	"context"
	"strconv"

	"github.com/gateway/backend/internal/domain/access"
	"github.com/gateway/backend/internal/domain/catalog"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// EntitlementResolver returns the endpoints a plan grants, reading through an
// EntitlementCache. Concurrent misses for the same plan share one store read.
type EntitlementResolver struct {
	cache  access.EntitlementCache
	group  singleflight.Group
	logger *zap.Logger
}

// NewEntitlementResolver creates a resolver. A nil cache disables caching.
func NewEntitlementResolver(cache access.EntitlementCache, logger *zap.Logger) *EntitlementResolver {
	if cache == nil {
		cache = access.NopEntitlementCache{}
	}
	return &EntitlementResolver{cache: cache, logger: logger}
}

// Resolve loads the plan's endpoints with repo on a cache miss. Cache errors
// are logged and never fail the lookup.
//
// The plan's cache generation is read before the store, so a load that races
// an invalidation is returned to its callers but never cached. Callers that
// arrive after an invalidation see the new generation and do not join a load
// started before it.
func (r *EntitlementResolver) Resolve(ctx context.Context, repo catalog.PlanPermissionRepository, planID int64) ([]access.EndpointRef, error) {
	refs, ok, err := r.cache.Get(ctx, planID)
	if err != nil {
		r.logger.Warn("Entitlement cache read failed", zap.Int64("plan_id", planID), zap.Error(err))
	}
	if ok {
		return refs, nil
	}

	generation, err := r.cache.Generation(ctx, planID)
	cacheable := err == nil
	if err != nil {
		r.logger.Warn("Entitlement cache generation read failed", zap.Int64("plan_id", planID), zap.Error(err))
	}

	key := strconv.FormatInt(planID, 10) + ":" + strconv.FormatUint(generation, 10)
	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		perms, err := repo.FindPermissionsByPlan(ctx, planID)
		if err != nil {
			return nil, err
		}
		loaded := access.EndpointRefsFrom(perms)
		if !cacheable {
			return loaded, nil
		}
		stored, err := r.cache.Set(ctx, planID, generation, loaded)
		switch {
		case err != nil:
			r.logger.Warn("Entitlement cache write failed", zap.Int64("plan_id", planID), zap.Error(err))
		case !stored:
			r.logger.Debug("Plan invalidated during load, result not cached", zap.Int64("plan_id", planID))
		}
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]access.EndpointRef), nil
}

// Invalidate drops cached endpoints for the given plans
func (r *EntitlementResolver) Invalidate(ctx context.Context, planIDs ...int64) {
	if len(planIDs) == 0 {
		return
	}
	if err := r.cache.Invalidate(ctx, planIDs...); err != nil {
		r.logger.Warn("Entitlement cache invalidation failed", zap.Int64s("plan_ids", planIDs), zap.Error(err))
	}
}
