package handler

import (
	"github.com/gateway/backend/internal/application/access"
	"github.com/gateway/backend/internal/application/billing"
	"github.com/gin-gonic/gin"
)

// AccessCheckRequest names the endpoint to evaluate
type AccessCheckRequest struct {
	Endpoint string `form:"endpoint" binding:"required,max=255"`
}

// UsageHandler reports metering state and dry-run access decisions
type UsageHandler struct {
	BaseHandler
	meteringService *billing.MeteringService
	evaluator       *access.Evaluator
}

// NewUsageHandler creates a new UsageHandler
func NewUsageHandler(meteringService *billing.MeteringService, evaluator *access.Evaluator) *UsageHandler {
	return &UsageHandler{meteringService: meteringService, evaluator: evaluator}
}

// GetMyUsage godoc
// @ID           getMyUsage
// @Summary      Get the caller's usage
// @Tags         usage
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} APIResponse[billing.QuotaDTO]
// @Failure      404 {object} ErrorResponse
// @Router       /usage [get]
func (h *UsageHandler) GetMyUsage(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}
	h.respondUsage(c, userID)
}

// GetUserUsage godoc
// @ID           getUserUsage
// @Summary      Get a user's usage
// @Tags         usage
// @Produce      json
// @Security     BearerAuth
// @Param        user_id path int true "User ID"
// @Success      200 {object} APIResponse[billing.QuotaDTO]
// @Failure      404 {object} ErrorResponse
// @Router       /usage/{user_id} [get]
func (h *UsageHandler) GetUserUsage(c *gin.Context) {
	userID, ok := parseIDParam(c, "user_id")
	if !ok {
		h.BadRequest(c, "Invalid user ID")
		return
	}
	h.respondUsage(c, userID)
}

func (h *UsageHandler) respondUsage(c *gin.Context, userID int64) {
	quota, err := h.meteringService.Remaining(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, quota)
}

// CheckAccess godoc
// @ID           checkAccess
// @Summary      Evaluate access to an endpoint
// @Description  Reports whether the caller could call the endpoint now. Usage is not recorded.
// @Tags         usage
// @Produce      json
// @Security     BearerAuth
// @Param        endpoint query string true "Endpoint path, e.g. /cloud-services/create-bucket"
// @Success      200 {object} APIResponse[access.DecisionDTO]
// @Failure      404 {object} ErrorResponse
// @Router       /access/check [get]
func (h *UsageHandler) CheckAccess(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req AccessCheckRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}

	decision, err := h.evaluator.Evaluate(c.Request.Context(), userID, req.Endpoint)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, access.ToDecisionDTO(*decision))
}
