package handler

import (
	"github.com/gateway/backend/internal/application/catalog"
	"github.com/gateway/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// PermissionHandler handles permission (API endpoint) administration
type PermissionHandler struct {
	BaseHandler
	permissionService *catalog.PermissionService
}

// NewPermissionHandler creates a new PermissionHandler
func NewPermissionHandler(permissionService *catalog.PermissionService) *PermissionHandler {
	return &PermissionHandler{permissionService: permissionService}
}

// CreatePermission godoc
// @ID           createPermission
// @Summary      Create a permission
// @Description  A permission names an API endpoint pattern that plans can be granted
// @Tags         permissions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreatePermissionRequest true "Permission"
// @Success      201 {object} APIResponse[catalog.PermissionDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /permissions [post]
func (h *PermissionHandler) CreatePermission(c *gin.Context) {
	var req CreatePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	perm, err := h.permissionService.Create(c.Request.Context(), catalog.CreatePermissionInput{
		Name:        req.Name,
		APIEndpoint: req.APIEndpoint,
		Description: req.Description,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, perm)
}

// ListPermissions godoc
// @ID           listPermissions
// @Summary      List permissions
// @Tags         permissions
// @Produce      json
// @Security     BearerAuth
// @Param        page      query int false "Page number" default(1)
// @Param        page_size query int false "Page size"   default(20)
// @Success      200 {object} APIResponse[[]catalog.PermissionDTO]
// @Router       /permissions [get]
func (h *PermissionHandler) ListPermissions(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}

	page, err := h.permissionService.List(c.Request.Context(), toFilter(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetPermission godoc
// @ID           getPermission
// @Summary      Get a permission
// @Tags         permissions
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Permission ID"
// @Success      200 {object} APIResponse[catalog.PermissionDTO]
// @Failure      404 {object} ErrorResponse
// @Router       /permissions/{id} [get]
func (h *PermissionHandler) GetPermission(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid permission ID")
		return
	}

	perm, err := h.permissionService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, perm)
}

// UpdatePermission godoc
// @ID           updatePermission
// @Summary      Update a permission
// @Description  Only the fields present in the body are changed
// @Tags         permissions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int                     true "Permission ID"
// @Param        request body UpdatePermissionRequest true "Fields to change"
// @Success      200 {object} APIResponse[catalog.PermissionDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /permissions/{id} [put]
func (h *PermissionHandler) UpdatePermission(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid permission ID")
		return
	}

	var req UpdatePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	perm, err := h.permissionService.Update(c.Request.Context(), id, req.ToPermissionUpdate())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, perm)
}

// DeletePermission godoc
// @ID           deletePermission
// @Summary      Delete a permission
// @Description  Revokes the permission from every plan, then removes it
// @Tags         permissions
// @Security     BearerAuth
// @Param        id path int true "Permission ID"
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Router       /permissions/{id} [delete]
func (h *PermissionHandler) DeletePermission(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid permission ID")
		return
	}

	if err := h.permissionService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
