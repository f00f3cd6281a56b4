package handler

import (
	"fmt"
	"net/http"
	"sync"
	"testing"

	appaccess "github.com/gateway/backend/internal/application/access"
	appbilling "github.com/gateway/backend/internal/application/billing"
	appcatalog "github.com/gateway/backend/internal/application/catalog"
	"github.com/gateway/backend/internal/domain/identity"
	"github.com/gateway/backend/internal/infrastructure/persistence/models"
	"github.com/gateway/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cloudResult struct {
	Message string               `json:"message"`
	Usage   appaccess.ReceiptDTO `json:"usage"`
}

// subscriber sets up a plan granting endpoints and a user subscribed to it
type subscriber struct {
	userID int64
	token  string
	plan   appcatalog.PlanDTO
}

func (a *testAPI) subscriber(admin, username string, limit int64, endpoints ...string) subscriber {
	a.t.Helper()
	plan := a.createPlan(admin, username+"-plan", limit)
	for _, ep := range endpoints {
		perm := a.createPermission(admin, ep, ep)
		a.grant(admin, plan.ID, perm.ID)
	}
	userID, token := a.register(username, identity.RoleUser)

	w := a.do(http.MethodPost, "/api/v1/subscriptions", admin, CreateSubscriptionRequest{UserID: userID, PlanID: plan.ID})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return subscriber{userID: userID, token: token, plan: plan}
}

func (a *testAPI) setUsage(userID, usage int64) {
	a.t.Helper()
	require.NoError(a.t, a.db.DB.Model(&models.SubscriptionModel{}).
		Where("user_id = ?", userID).
		Update("usage", usage).Error)
}

func (a *testAPI) usageOf(token string) appbilling.QuotaDTO {
	a.t.Helper()
	w := a.do(http.MethodGet, "/api/v1/usage", token, nil)
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	var quota appbilling.QuotaDTO
	data(a.t, w, &quota)
	return quota
}

func TestCloudHandler_LimitIsEnforced(t *testing.T) {
	api := newTestAPI(t)
	_, admin := api.register("admin", identity.RoleAdmin)
	const limit = 3
	sub := api.subscriber(admin, "alice", limit, "create-bucket")

	for i := int64(1); i <= limit; i++ {
		w := api.do(http.MethodPost, "/api/v1/cloud-services/create-bucket", sub.token, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var result cloudResult
		data(t, w, &result)
		assert.Equal(t, "Bucket created successfully", result.Message)
		assert.Equal(t, i, result.Usage.Quota.Usage)
		require.NotNil(t, result.Usage.Quota.Remaining)
		assert.Equal(t, limit-i, *result.Usage.Quota.Remaining)
	}

	w := api.do(http.MethodPost, "/api/v1/cloud-services/create-bucket", sub.token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, dto.ErrCodeQuotaExceeded, resp.Error.Code)
	assert.Equal(t, "Usage limit exceeded. Upgrade your plan to continue accessing this API.", resp.Error.Message)

	assert.Equal(t, int64(limit), api.usageOf(sub.token).Usage)
}

func TestCloudHandler_OneCallLeft(t *testing.T) {
	api := newTestAPI(t)
	_, admin := api.register("admin", identity.RoleAdmin)
	sub := api.subscriber(admin, "alice", 5, "create-bucket")
	api.setUsage(sub.userID, 4)

	w := api.do(http.MethodPost, "/api/v1/cloud-services/create-bucket", sub.token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(http.MethodPost, "/api/v1/cloud-services/create-bucket", sub.token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, dto.ErrCodeQuotaExceeded, decodeResponse(t, w).Error.Code)

	quota := api.usageOf(sub.token)
	assert.Equal(t, int64(5), quota.Usage)
	require.NotNil(t, quota.Remaining)
	assert.Equal(t, int64(0), *quota.Remaining)
}

func TestCloudHandler_EndpointNotInPlan(t *testing.T) {
	api := newTestAPI(t)
	_, admin := api.register("admin", identity.RoleAdmin)
	sub := api.subscriber(admin, "alice", 10, "create-bucket")

	w := api.do(http.MethodPost, "/api/v1/cloud-services/create-vm", sub.token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, dto.ErrCodeForbidden, resp.Error.Code)
	assert.Equal(t, "You do not have access to this endpoint with your current plan.", resp.Error.Message)

	assert.Equal(t, int64(0), api.usageOf(sub.token).Usage, "denied calls are not metered")
}

func TestCloudHandler_QuotaCheckedBeforePermission(t *testing.T) {
	api := newTestAPI(t)
	_, admin := api.register("admin", identity.RoleAdmin)
	sub := api.subscriber(admin, "alice", 2, "create-bucket")
	api.setUsage(sub.userID, 2)

	w := api.do(http.MethodPost, "/api/v1/cloud-services/create-vm", sub.token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, dto.ErrCodeQuotaExceeded, decodeResponse(t, w).Error.Code)
}

func TestCloudHandler_UnlimitedPlan(t *testing.T) {
	api := newTestAPI(t)
	_, admin := api.register("admin", identity.RoleAdmin)
	sub := api.subscriber(admin, "alice", 0, "get-logs")
	api.setUsage(sub.userID, 1_000_000)

	w := api.do(http.MethodGet, "/api/v1/cloud-services/get-logs", sub.token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result cloudResult
	data(t, w, &result)
	assert.True(t, result.Usage.Quota.Unlimited)
	assert.Nil(t, result.Usage.Quota.Remaining)
	assert.Equal(t, int64(1_000_001), result.Usage.Quota.Usage)
}

func TestCloudHandler_NoSubscription(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.register("bob", identity.RoleUser)

	w := api.do(http.MethodPost, "/api/v1/cloud-services/create-bucket", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Subscription not found", decodeResponse(t, w).Error.Message)
}

func TestCloudHandler_PlanDeleted(t *testing.T) {
	api := newTestAPI(t)
	_, admin := api.register("admin", identity.RoleAdmin)
	sub := api.subscriber(admin, "alice", 10, "create-bucket")

	w := api.do(http.MethodDelete, fmt.Sprintf("/api/v1/plans/%d", sub.plan.ID), admin, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = api.do(http.MethodPost, "/api/v1/cloud-services/create-bucket", sub.token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Plan not found", decodeResponse(t, w).Error.Message)

	w = api.do(http.MethodGet, "/api/v1/access/check?endpoint=/cloud-services/create-bucket", sub.token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCloudHandler_RequiresToken(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodPost, "/api/v1/cloud-services/create-bucket", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid token", decodeResponse(t, w).Error.Message)
}

// The SQLite store behind newTestAPI holds a single connection, so this checks
// the HTTP path under concurrent callers rather than parallel database writers.
func TestCloudHandler_ConcurrentCallsNeverExceedLimit(t *testing.T) {
	api := newTestAPI(t)
	_, admin := api.register("admin", identity.RoleAdmin)
	const (
		limit   = 10
		left    = 3
		callers = 8
	)
	sub := api.subscriber(admin, "alice", limit, "create-bucket")
	api.setUsage(sub.userID, limit-left)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		exceeded  int
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := api.do(http.MethodPost, "/api/v1/cloud-services/create-bucket", sub.token, nil)
			mu.Lock()
			defer mu.Unlock()
			switch w.Code {
			case http.StatusOK:
				succeeded++
			case http.StatusForbidden:
				exceeded++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, left, succeeded)
	assert.Equal(t, callers-left, exceeded)
	assert.Equal(t, int64(limit), api.usageOf(sub.token).Usage)
}

func TestUsageHandler_CheckAccess(t *testing.T) {
	api := newTestAPI(t)
	_, admin := api.register("admin", identity.RoleAdmin)
	sub := api.subscriber(admin, "alice", 5, "create-bucket")

	t.Run("allowed", func(t *testing.T) {
		w := api.do(http.MethodGet, "/api/v1/access/check?endpoint=/cloud-services/create-bucket", sub.token, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var decision appaccess.DecisionDTO
		data(t, w, &decision)
		assert.True(t, decision.Allowed)
		assert.Equal(t, sub.plan.ID, decision.PlanID)
		assert.Len(t, decision.AllowedEndpoints, 1)
	})

	t.Run("denied", func(t *testing.T) {
		w := api.do(http.MethodGet, "/api/v1/access/check?endpoint=/cloud-services/create-vm", sub.token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var decision appaccess.DecisionDTO
		data(t, w, &decision)
		assert.False(t, decision.Allowed)
		assert.Equal(t, "FORBIDDEN", decision.Reason)
	})

	t.Run("does not record usage", func(t *testing.T) {
		assert.Equal(t, int64(0), api.usageOf(sub.token).Usage)
	})

	t.Run("endpoint required", func(t *testing.T) {
		w := api.do(http.MethodGet, "/api/v1/access/check", sub.token, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUsageHandler_AdminView(t *testing.T) {
	api := newTestAPI(t)
	_, admin := api.register("admin", identity.RoleAdmin)
	sub := api.subscriber(admin, "alice", 5, "create-bucket")
	api.setUsage(sub.userID, 2)

	w := api.do(http.MethodGet, fmt.Sprintf("/api/v1/usage/%d", sub.userID), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var quota appbilling.QuotaDTO
	data(t, w, &quota)
	assert.Equal(t, int64(2), quota.Usage)
	require.NotNil(t, quota.Remaining)
	assert.Equal(t, int64(3), *quota.Remaining)

	w = api.do(http.MethodGet, fmt.Sprintf("/api/v1/usage/%d", sub.userID), sub.token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSubscriptionHandler(t *testing.T) {
	api := newTestAPI(t)
	_, admin := api.register("admin", identity.RoleAdmin)
	sub := api.subscriber(admin, "alice", 5, "create-bucket")
	path := fmt.Sprintf("/api/v1/subscriptions/%d", sub.userID)

	t.Run("second subscription conflicts", func(t *testing.T) {
		w := api.do(http.MethodPost, "/api/v1/subscriptions", admin,
			CreateSubscriptionRequest{UserID: sub.userID, PlanID: sub.plan.ID})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("unknown plan", func(t *testing.T) {
		userID, _ := api.register("carol", identity.RoleUser)
		w := api.do(http.MethodPost, "/api/v1/subscriptions", admin,
			CreateSubscriptionRequest{UserID: userID, PlanID: 9999})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("change plan keeps usage", func(t *testing.T) {
		api.setUsage(sub.userID, 4)
		pro := api.createPlan(admin, "pro", 100)

		w := api.do(http.MethodPut, path, admin, ChangePlanRequest{PlanID: pro.ID})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var got appbilling.SubscriptionDTO
		data(t, w, &got)
		assert.Equal(t, pro.ID, got.PlanID)
		assert.Equal(t, int64(4), got.Usage)
	})

	t.Run("get and list", func(t *testing.T) {
		w := api.do(http.MethodGet, path, admin, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = api.do(http.MethodGet, "/api/v1/subscriptions", admin, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var subs []appbilling.SubscriptionDTO
		data(t, w, &subs)
		assert.Len(t, subs, 1)
	})

	t.Run("delete", func(t *testing.T) {
		w := api.do(http.MethodDelete, path, admin, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = api.do(http.MethodGet, path, admin, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
