package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	appaccess "github.com/gateway/backend/internal/application/access"
	appbilling "github.com/gateway/backend/internal/application/billing"
	appcatalog "github.com/gateway/backend/internal/application/catalog"
	appcloud "github.com/gateway/backend/internal/application/cloud"
	appidentity "github.com/gateway/backend/internal/application/identity"
	"github.com/gateway/backend/internal/domain/access"
	"github.com/gateway/backend/internal/domain/identity"
	"github.com/gateway/backend/internal/infrastructure/auth"
	"github.com/gateway/backend/internal/infrastructure/cache"
	"github.com/gateway/backend/internal/infrastructure/config"
	"github.com/gateway/backend/internal/infrastructure/persistence"
	"github.com/gateway/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	identity.BcryptCost = bcrypt.MinCost
}

// testAPI wires real services over an in-memory SQLite database behind the
// same middleware the server uses.
type testAPI struct {
	t      *testing.T
	engine *gin.Engine
	db     *persistence.Database
	jwt    *auth.JWTService
	auth   *appidentity.AuthService
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	db, err := persistence.NewDatabase(&config.DatabaseConfig{Driver: "sqlite", SQLitePath: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.AutoMigrate())

	log := zap.NewNop()
	jwtSvc := auth.NewJWTService(config.JWTConfig{
		Secret:                "handler-test-secret-0123456789abcdef",
		AccessTokenExpiration: time.Hour,
		Issuer:                "gateway-test",
	})

	planRepo := persistence.NewGormPlanRepository(db.DB)
	permRepo := persistence.NewGormPermissionRepository(db.DB)
	planPermRepo := persistence.NewGormPlanPermissionRepository(db.DB)
	subRepo := persistence.NewGormSubscriptionRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	scope := persistence.NewGormTransactionScope(db.DB)
	entitlementCache := cache.NewMemoryEntitlementCache(time.Minute)

	matcher, err := access.NewEndpointMatcher(access.MatchSubstring)
	require.NoError(t, err)

	retry := appbilling.DefaultRetryConfig()
	evaluator := appaccess.NewEvaluator(scope, matcher, appaccess.NewEntitlementResolver(entitlementCache, log))
	metering := appbilling.NewMeteringService(subRepo, planRepo, retry, log)
	gateway := appaccess.NewGateway(scope, evaluator, metering, appaccess.GatewayConfig{}, log)
	authSvc := appidentity.NewAuthService(userRepo, jwtSvc, log)

	plans := NewPlanHandler(appcatalog.NewPlanService(planRepo, permRepo, planPermRepo, scope, entitlementCache, log))
	perms := NewPermissionHandler(appcatalog.NewPermissionService(permRepo, planPermRepo, scope, entitlementCache, log))
	subs := NewSubscriptionHandler(appbilling.NewSubscriptionService(subRepo, planRepo, userRepo, log))
	usage := NewUsageHandler(metering, evaluator)
	cloudH := NewCloudHandler(appcloud.NewService(gateway, log))
	authH := NewAuthHandler(authSvc)
	system := NewSystemHandler("API Gateway", "test", db)

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.GET("/health", system.Health)

	api := engine.Group("/api/v1")
	api.POST("/auth/register", authH.Register)
	api.POST("/auth/login", authH.Login)
	api.GET("/plans", plans.ListPlans)

	secured := api.Group("", middleware.JWTAuthMiddleware(jwtSvc))
	secured.GET("/auth/me", authH.GetCurrentUser)
	secured.GET("/usage", usage.GetMyUsage)
	secured.GET("/access/check", usage.CheckAccess)
	for _, op := range appcloud.Operations {
		secured.Handle(op.Method, op.Path(), cloudH.Operation(op))
	}

	admin := secured.Group("", middleware.RequireAdmin())
	admin.POST("/plans", plans.CreatePlan)
	admin.GET("/plans/:id", plans.GetPlan)
	admin.PUT("/plans/:id", plans.UpdatePlan)
	admin.DELETE("/plans/:id", plans.DeletePlan)
	admin.GET("/plans/:id/permissions", plans.ListPlanPermissions)
	admin.POST("/plans/:id/permissions", plans.GrantPermission)
	admin.DELETE("/plans/:id/permissions/:permission_id", plans.RevokePermission)
	admin.POST("/permissions", perms.CreatePermission)
	admin.GET("/permissions", perms.ListPermissions)
	admin.GET("/permissions/:id", perms.GetPermission)
	admin.PUT("/permissions/:id", perms.UpdatePermission)
	admin.DELETE("/permissions/:id", perms.DeletePermission)
	admin.POST("/subscriptions", subs.CreateSubscription)
	admin.GET("/subscriptions", subs.ListSubscriptions)
	admin.GET("/subscriptions/:user_id", subs.GetSubscription)
	admin.PUT("/subscriptions/:user_id", subs.ChangePlan)
	admin.DELETE("/subscriptions/:user_id", subs.DeleteSubscription)
	admin.GET("/usage/:user_id", usage.GetUserUsage)

	return &testAPI{t: t, engine: engine, db: db, jwt: jwtSvc, auth: authSvc}
}

// register creates a user and returns its ID and a bearer token
func (a *testAPI) register(username string, role identity.Role) (int64, string) {
	a.t.Helper()
	user, err := a.auth.Register(context.Background(), appidentity.RegisterInput{
		Username: username,
		Password: "password-123",
		Role:     string(role),
	})
	require.NoError(a.t, err)

	token, err := a.jwt.GenerateAccessToken(auth.GenerateTokenInput{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	})
	require.NoError(a.t, err)
	return user.ID, token.Token
}

func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		reader = jsonBody(a.t, body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

// data decodes the success payload of w into out
func data(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope), w.Body.String())
	require.True(t, envelope.Success, w.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func stringsReader(s string) io.Reader {
	return strings.NewReader(s)
}
