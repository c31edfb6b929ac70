package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	app "github.com/payables/backend/internal/application/payables"
)

// RequisitionHandler handles check requisition API endpoints
type RequisitionHandler struct {
	BaseHandler
	service *app.RequisitionService
}

// NewRequisitionHandler creates a new RequisitionHandler
func NewRequisitionHandler(service *app.RequisitionService) *RequisitionHandler {
	return &RequisitionHandler{service: service}
}

// Create creates a check requisition over approved invoices
func (h *RequisitionHandler) Create(c *gin.Context) {
	var input app.CreateRequisitionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	actorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	input.ActorID = actorID

	resp, err := h.service.Create(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List returns a filtered page of check requisitions
func (h *RequisitionHandler) List(c *gin.Context) {
	var filter app.RequisitionListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	items, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// ListUnassigned returns approved requisitions not yet linked to any
// disbursement
func (h *RequisitionHandler) ListUnassigned(c *gin.Context) {
	items, err := h.service.ListUnassigned(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// Get returns one check requisition with its invoices
func (h *RequisitionHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid requisition ID")
		return
	}

	resp, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Submit moves a draft requisition into the approval queue
func (h *RequisitionHandler) Submit(c *gin.Context) {
	h.transition(c, h.service.Submit)
}

// Approve approves a submitted requisition
func (h *RequisitionHandler) Approve(c *gin.Context) {
	h.transition(c, h.service.Approve)
}

// Reject rejects a submitted requisition
func (h *RequisitionHandler) Reject(c *gin.Context) {
	h.transition(c, h.service.Reject)
}

// Cancel cancels a requisition that is not linked to a disbursement
func (h *RequisitionHandler) Cancel(c *gin.Context) {
	h.transition(c, h.service.Cancel)
}

// Delete removes a requisition that is not linked to a disbursement
func (h *RequisitionHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid requisition ID")
		return
	}

	actorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	if err := h.service.Delete(c.Request.Context(), id, actorID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

func (h *RequisitionHandler) transition(
	c *gin.Context,
	op func(ctx context.Context, id uuid.UUID, actorID uuid.UUID) (*app.RequisitionResponse, error),
) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid requisition ID")
		return
	}

	actorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	resp, err := op(c.Request.Context(), id, actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
