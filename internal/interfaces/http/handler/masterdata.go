package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	app "github.com/payables/backend/internal/application/payables"
)

// MasterdataHandler handles vendor and project API endpoints
type MasterdataHandler struct {
	BaseHandler
	service *app.MasterdataService
}

// NewMasterdataHandler creates a new MasterdataHandler
func NewMasterdataHandler(service *app.MasterdataService) *MasterdataHandler {
	return &MasterdataHandler{service: service}
}

// VendorRequest carries a vendor create or rename
type VendorRequest struct {
	Name string `json:"name" binding:"required,min=1,max=200"`
}

// ProjectRequest carries a project create or update
type ProjectRequest struct {
	ProjectTitle string `json:"project_title" binding:"required,min=1,max=200"`
	CerNumber    string `json:"cer_number" binding:"required,min=1,max=50"`
}

// CreateVendor creates a vendor
func (h *MasterdataHandler) CreateVendor(c *gin.Context) {
	var req VendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Vendor name is required")
		return
	}

	resp, err := h.service.CreateVendor(c.Request.Context(), req.Name)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListVendors returns a filtered page of vendors
func (h *MasterdataHandler) ListVendors(c *gin.Context) {
	var filter app.MasterdataListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	items, total, err := h.service.ListVendors(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// GetVendor returns one vendor
func (h *MasterdataHandler) GetVendor(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid vendor ID")
		return
	}

	resp, err := h.service.GetVendor(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// RenameVendor renames a vendor
func (h *MasterdataHandler) RenameVendor(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid vendor ID")
		return
	}

	var req VendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Vendor name is required")
		return
	}

	resp, err := h.service.RenameVendor(c.Request.Context(), id, req.Name)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// DeleteVendor removes a vendor with no purchase orders
func (h *MasterdataHandler) DeleteVendor(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid vendor ID")
		return
	}

	if err := h.service.DeleteVendor(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// CreateProject creates a project
func (h *MasterdataHandler) CreateProject(c *gin.Context) {
	var req ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Project title and CER number are required")
		return
	}

	resp, err := h.service.CreateProject(c.Request.Context(), req.ProjectTitle, req.CerNumber)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListProjects returns a filtered page of projects
func (h *MasterdataHandler) ListProjects(c *gin.Context) {
	var filter app.MasterdataListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	items, total, err := h.service.ListProjects(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// GetProject returns one project
func (h *MasterdataHandler) GetProject(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid project ID")
		return
	}

	resp, err := h.service.GetProject(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UpdateProject updates a project's title and CER number
func (h *MasterdataHandler) UpdateProject(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid project ID")
		return
	}

	var req ProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Project title and CER number are required")
		return
	}

	resp, err := h.service.UpdateProject(c.Request.Context(), id, req.ProjectTitle, req.CerNumber)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// DeleteProject removes a project with no purchase orders
func (h *MasterdataHandler) DeleteProject(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid project ID")
		return
	}

	if err := h.service.DeleteProject(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
