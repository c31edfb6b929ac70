package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	app "github.com/payables/backend/internal/application/payables"
)

// InvoiceHandler handles supplier invoice API endpoints
type InvoiceHandler struct {
	BaseHandler
	service *app.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(service *app.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{service: service}
}

// Create books a supplier invoice against a purchase order
func (h *InvoiceHandler) Create(c *gin.Context) {
	var input app.CreateInvoiceInput
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

// List returns a filtered page of invoices
func (h *InvoiceHandler) List(c *gin.Context) {
	var filter app.InvoiceListFilter
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

// Get returns one invoice
func (h *InvoiceHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	resp, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Submit moves a draft invoice into the approval queue
func (h *InvoiceHandler) Submit(c *gin.Context) {
	h.transition(c, h.service.Submit)
}

// Approve approves a submitted invoice for payment processing
func (h *InvoiceHandler) Approve(c *gin.Context) {
	h.transition(c, h.service.Approve)
}

// Reject rejects a submitted invoice
func (h *InvoiceHandler) Reject(c *gin.Context) {
	h.transition(c, h.service.Reject)
}

// Cancel cancels an invoice that is not on a requisition
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	h.transition(c, h.service.Cancel)
}

// Delete removes an invoice that is not on a requisition
func (h *InvoiceHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
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

func (h *InvoiceHandler) transition(
	c *gin.Context,
	op func(ctx context.Context, id uuid.UUID, actorID uuid.UUID) (*app.InvoiceResponse, error),
) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
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
