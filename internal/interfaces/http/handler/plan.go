package handler

import (
	"github.com/gateway/backend/internal/application/catalog"
	"github.com/gateway/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// PlanHandler handles plan administration and plan-permission grants
type PlanHandler struct {
	BaseHandler
	planService *catalog.PlanService
}

// NewPlanHandler creates a new PlanHandler
func NewPlanHandler(planService *catalog.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// CreatePlan godoc
// @ID           createPlan
// @Summary      Create a plan
// @Tags         plans
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreatePlanRequest true "Plan"
// @Success      201 {object} APIResponse[catalog.PlanDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /plans [post]
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	plan, err := h.planService.Create(c.Request.Context(), catalog.CreatePlanInput{
		Name:        req.Name,
		Description: req.Description,
		UsageLimit:  req.UsageLimit,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, plan)
}

// ListPlans godoc
// @ID           listPlans
// @Summary      List plans
// @Description  Public catalog of plans
// @Tags         plans
// @Produce      json
// @Param        page      query int    false "Page number" default(1)
// @Param        page_size query int    false "Page size"   default(20)
// @Param        search    query string false "Name contains"
// @Success      200 {object} APIResponse[[]catalog.PlanDTO]
// @Router       /plans [get]
func (h *PlanHandler) ListPlans(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}

	page, err := h.planService.List(c.Request.Context(), toFilter(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetPlan godoc
// @ID           getPlan
// @Summary      Get a plan
// @Tags         plans
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Plan ID"
// @Success      200 {object} APIResponse[catalog.PlanDTO]
// @Failure      404 {object} ErrorResponse
// @Router       /plans/{id} [get]
func (h *PlanHandler) GetPlan(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid plan ID")
		return
	}

	plan, err := h.planService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, plan)
}

// UpdatePlan godoc
// @ID           updatePlan
// @Summary      Update a plan
// @Description  Only the fields present in the body are changed
// @Tags         plans
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int               true "Plan ID"
// @Param        request body UpdatePlanRequest true "Fields to change"
// @Success      200 {object} APIResponse[catalog.PlanDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /plans/{id} [put]
func (h *PlanHandler) UpdatePlan(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid plan ID")
		return
	}

	var req UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	plan, err := h.planService.Update(c.Request.Context(), id, req.ToPlanUpdate())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, plan)
}

// DeletePlan godoc
// @ID           deletePlan
// @Summary      Delete a plan
// @Description  Removes the plan and its permission grants. Subscribers of the plan are left in place.
// @Tags         plans
// @Security     BearerAuth
// @Param        id path int true "Plan ID"
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Router       /plans/{id} [delete]
func (h *PlanHandler) DeletePlan(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid plan ID")
		return
	}

	if err := h.planService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// ListPlanPermissions godoc
// @ID           listPlanPermissions
// @Summary      List the permissions granted to a plan
// @Tags         plans
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Plan ID"
// @Success      200 {object} APIResponse[[]catalog.PermissionDTO]
// @Failure      404 {object} ErrorResponse
// @Router       /plans/{id}/permissions [get]
func (h *PlanHandler) ListPlanPermissions(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid plan ID")
		return
	}

	perms, err := h.planService.ListPermissions(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, perms)
}

// GrantPermission godoc
// @ID           grantPlanPermission
// @Summary      Grant a permission to a plan
// @Tags         plans
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int                    true "Plan ID"
// @Param        request body GrantPermissionRequest true "Permission to grant"
// @Success      201 {object} SuccessResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /plans/{id}/permissions [post]
func (h *PlanHandler) GrantPermission(c *gin.Context) {
	planID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid plan ID")
		return
	}

	var req GrantPermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	if err := h.planService.GrantPermission(c.Request.Context(), planID, req.PermissionID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, gin.H{"plan_id": planID, "permission_id": req.PermissionID})
}

// RevokePermission godoc
// @ID           revokePlanPermission
// @Summary      Revoke a permission from a plan
// @Tags         plans
// @Security     BearerAuth
// @Param        id            path int true "Plan ID"
// @Param        permission_id path int true "Permission ID"
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Router       /plans/{id}/permissions/{permission_id} [delete]
func (h *PlanHandler) RevokePermission(c *gin.Context) {
	planID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid plan ID")
		return
	}
	permID, ok := parseIDParam(c, "permission_id")
	if !ok {
		h.BadRequest(c, "Invalid permission ID")
		return
	}

	if err := h.planService.RevokePermission(c.Request.Context(), planID, permID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
