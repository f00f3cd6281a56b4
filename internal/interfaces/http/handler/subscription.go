package handler

import (
	"github.com/gateway/backend/internal/application/billing"
	"github.com/gateway/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// CreateSubscriptionRequest subscribes a user to a plan
type CreateSubscriptionRequest struct {
	UserID int64 `json:"user_id" binding:"required,min=1"`
	PlanID int64 `json:"plan_id" binding:"required,min=1"`
}

// ChangePlanRequest moves a subscriber to another plan
type ChangePlanRequest struct {
	PlanID int64 `json:"plan_id" binding:"required,min=1"`
}

// SubscriptionHandler handles subscription administration
type SubscriptionHandler struct {
	BaseHandler
	subscriptionService *billing.SubscriptionService
}

// NewSubscriptionHandler creates a new SubscriptionHandler
func NewSubscriptionHandler(subscriptionService *billing.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService}
}

// CreateSubscription godoc
// @ID           createSubscription
// @Summary      Subscribe a user to a plan
// @Description  A user holds at most one subscription; usage starts at zero
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateSubscriptionRequest true "Subscription"
// @Success      201 {object} APIResponse[billing.SubscriptionDTO]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /subscriptions [post]
func (h *SubscriptionHandler) CreateSubscription(c *gin.Context) {
	var req CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	sub, err := h.subscriptionService.Subscribe(c.Request.Context(), billing.CreateSubscriptionInput{
		UserID: req.UserID,
		PlanID: req.PlanID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, sub)
}

// ListSubscriptions godoc
// @ID           listSubscriptions
// @Summary      List subscriptions
// @Tags         subscriptions
// @Produce      json
// @Security     BearerAuth
// @Param        page      query int false "Page number" default(1)
// @Param        page_size query int false "Page size"   default(20)
// @Success      200 {object} APIResponse[[]billing.SubscriptionDTO]
// @Router       /subscriptions [get]
func (h *SubscriptionHandler) ListSubscriptions(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}

	page, err := h.subscriptionService.List(c.Request.Context(), toFilter(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetSubscription godoc
// @ID           getSubscription
// @Summary      Get a user's subscription
// @Tags         subscriptions
// @Produce      json
// @Security     BearerAuth
// @Param        user_id path int true "User ID"
// @Success      200 {object} APIResponse[billing.SubscriptionDTO]
// @Failure      404 {object} ErrorResponse
// @Router       /subscriptions/{user_id} [get]
func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	userID, ok := parseIDParam(c, "user_id")
	if !ok {
		h.BadRequest(c, "Invalid user ID")
		return
	}

	sub, err := h.subscriptionService.Get(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sub)
}

// ChangePlan godoc
// @ID           changeSubscriptionPlan
// @Summary      Move a subscriber to another plan
// @Description  Usage is carried over unchanged
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        user_id path int               true "User ID"
// @Param        request body ChangePlanRequest true "New plan"
// @Success      200 {object} APIResponse[billing.SubscriptionDTO]
// @Failure      404 {object} ErrorResponse
// @Router       /subscriptions/{user_id} [put]
func (h *SubscriptionHandler) ChangePlan(c *gin.Context) {
	userID, ok := parseIDParam(c, "user_id")
	if !ok {
		h.BadRequest(c, "Invalid user ID")
		return
	}

	var req ChangePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	sub, err := h.subscriptionService.ChangePlan(c.Request.Context(), userID, req.PlanID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sub)
}

// DeleteSubscription godoc
// @ID           deleteSubscription
// @Summary      Remove a user's subscription
// @Tags         subscriptions
// @Security     BearerAuth
// @Param        user_id path int true "User ID"
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Router       /subscriptions/{user_id} [delete]
func (h *SubscriptionHandler) DeleteSubscription(c *gin.Context) {
	userID, ok := parseIDParam(c, "user_id")
	if !ok {
		h.BadRequest(c, "Invalid user ID")
		return
	}

	if err := h.subscriptionService.Unsubscribe(c.Request.Context(), userID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
