package router

import (
	"github.com/gateway/backend/internal/application/cloud"
	"github.com/gateway/backend/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// Handlers are the HTTP handlers served under the versioned API prefix
type Handlers struct {
	Auth         *handler.AuthHandler
	Plan         *handler.PlanHandler
	Permission   *handler.PermissionHandler
	Subscription *handler.SubscriptionHandler
	Usage        *handler.UsageHandler
	Cloud        *handler.CloudHandler
	System       *handler.SystemHandler
}

// Guards are the access middleware the route table applies
type Guards struct {
	// Authenticate validates the bearer token (middleware.JWTAuthMiddleware)
	Authenticate gin.HandlerFunc
	// RequireAdmin rejects non-admin callers; runs after Authenticate
	RequireAdmin gin.HandlerFunc
	// AuthRateLimit throttles login and registration; optional
	AuthRateLimit gin.HandlerFunc
}

// GatewayGroups returns the route table of the gateway API
func GatewayGroups(h Handlers, g Guards) []*DomainGroup {
	system := NewDomainGroup("system", "")
	system.GET("/health", h.System.Health)
	system.GET("/system/info", h.System.GetSystemInfo)

	auth := NewDomainGroup("auth", "/auth")
	auth.Group("auth-public", "").
		Use(g.AuthRateLimit).
		POST("/register", h.Auth.Register).
		POST("/login", h.Auth.Login)
	auth.Group("auth-self", "").
		Use(g.Authenticate).
		GET("/me", h.Auth.GetCurrentUser)

	plans := NewDomainGroup("plans", "/plans")
	plans.GET("", h.Plan.ListPlans)
	plans.Group("plans-admin", "").
		Use(g.Authenticate, g.RequireAdmin).
		POST("", h.Plan.CreatePlan).
		GET("/:id", h.Plan.GetPlan).
		PUT("/:id", h.Plan.UpdatePlan).
		DELETE("/:id", h.Plan.DeletePlan).
		GET("/:id/permissions", h.Plan.ListPlanPermissions).
		POST("/:id/permissions", h.Plan.GrantPermission).
		DELETE("/:id/permissions/:permission_id", h.Plan.RevokePermission)

	permissions := NewDomainGroup("permissions", "/permissions").
		Use(g.Authenticate, g.RequireAdmin).
		POST("", h.Permission.CreatePermission).
		GET("", h.Permission.ListPermissions).
		GET("/:id", h.Permission.GetPermission).
		PUT("/:id", h.Permission.UpdatePermission).
		DELETE("/:id", h.Permission.DeletePermission)

	subscriptions := NewDomainGroup("subscriptions", "/subscriptions").
		Use(g.Authenticate, g.RequireAdmin).
		POST("", h.Subscription.CreateSubscription).
		GET("", h.Subscription.ListSubscriptions).
		GET("/:user_id", h.Subscription.GetSubscription).
		PUT("/:user_id", h.Subscription.ChangePlan).
		DELETE("/:user_id", h.Subscription.DeleteSubscription)

	usage := NewDomainGroup("usage", "/usage").
		Use(g.Authenticate).
		GET("", h.Usage.GetMyUsage)
	usage.Group("usage-admin", "").
		Use(g.RequireAdmin).
		GET("/:user_id", h.Usage.GetUserUsage)

	accessCheck := NewDomainGroup("access", "/access").
		Use(g.Authenticate).
		GET("/check", h.Usage.CheckAccess)

	cloudServices := NewDomainGroup("cloud-services", cloud.PathPrefix).Use(g.Authenticate)
	for _, op := range cloud.Operations {
		cloudServices.Handle(op.Method, "/"+op.Name, h.Cloud.Operation(op))
	}

	return []*DomainGroup{system, auth, plans, permissions, subscriptions, usage, accessCheck, cloudServices}
}

// RegisterGateway mounts the gateway route table on r
func RegisterGateway(r *Router, h Handlers, g Guards) *Router {
	for _, group := range GatewayGroups(h, g) {
		r.Register(group)
	}
	return r
}
