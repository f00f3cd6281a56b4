package handler

import (
	"github.com/gateway/backend/internal/application/cloud"
	"github.com/gin-gonic/gin"
)

// CloudHandler serves the metered cloud-service operations
type CloudHandler struct {
	BaseHandler
	cloudService *cloud.Service
}

// NewCloudHandler creates a new CloudHandler
func NewCloudHandler(cloudService *cloud.Service) *CloudHandler {
	return &CloudHandler{cloudService: cloudService}
}

// Operation returns the handler of op. Every call passes through the gateway,
// which checks the caller's plan and records one unit of usage on success.
//
// @ID           cloudOperation
// @Summary      Run a cloud-service operation
// @Tags         cloud-services
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} APIResponse[cloud.Result]
// @Failure      403 {object} ErrorResponse "Quota exceeded or endpoint not in plan"
// @Failure      404 {object} ErrorResponse "No subscription or plan"
// @Router       /cloud-services/{operation} [post]
func (h *CloudHandler) Operation(op cloud.Operation) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := getUserID(c)
		if !ok {
			h.Unauthorized(c, "Authentication required")
			return
		}

		result, err := h.cloudService.Execute(c.Request.Context(), userID, op)
		if err != nil {
			h.HandleError(c, err)
			return
		}

		h.Success(c, result)
	}
}
