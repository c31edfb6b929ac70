package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	app "github.com/payables/backend/internal/application/payables"
)

// DisbursementHandler handles check disbursement API endpoints
type DisbursementHandler struct {
	BaseHandler
	service *app.DisbursementService
}

// NewDisbursementHandler creates a new DisbursementHandler
func NewDisbursementHandler(service *app.DisbursementService) *DisbursementHandler {
	return &DisbursementHandler{service: service}
}

// Create creates a disbursement over approved check requisitions
func (h *DisbursementHandler) Create(c *gin.Context) {
	var input app.CreateDisbursementInput
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

// List returns a filtered page of disbursements plus aggregate statistics
func (h *DisbursementHandler) List(c *gin.Context) {
	var filter app.DisbursementListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result, result.Total, filter.Page, filter.PageSize)
}

// Get returns one disbursement with its linked requisitions
func (h *DisbursementHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid disbursement ID")
		return
	}

	resp, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Update edits a disbursement's details and requisition linkage
func (h *DisbursementHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid disbursement ID")
		return
	}

	var input app.UpdateDisbursementInput
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

	resp, err := h.service.Update(c.Request.Context(), id, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Delete removes a disbursement and reverts its cascade
func (h *DisbursementHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid disbursement ID")
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

// Release releases a disbursement's check to the vendor and opens the undo
// window
func (h *DisbursementHandler) Release(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid disbursement ID")
		return
	}

	var input app.ReleaseInput
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

	resp, err := h.service.Release(c.Request.Context(), id, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UndoRelease reverts a release within the undo window
func (h *DisbursementHandler) UndoRelease(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid disbursement ID")
		return
	}

	actorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	resp, err := h.service.UndoRelease(c.Request.Context(), id, actorID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// CorrectReleaseRequest carries the audited reversal reason
type CorrectReleaseRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// CorrectRelease reverts a release after the undo window with an audited
// reason
func (h *DisbursementHandler) CorrectRelease(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid disbursement ID")
		return
	}

	var req CorrectReleaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Reason is required")
		return
	}

	actorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	resp, err := h.service.CorrectRelease(c.Request.Context(), id, app.CorrectReleaseInput{
		Reason:  req.Reason,
		ActorID: actorID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// BulkRelease releases several disbursements; failures are reported per item
// and never block the rest
func (h *DisbursementHandler) BulkRelease(c *gin.Context) {
	var input app.BulkReleaseInput
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

	result, err := h.service.BulkRelease(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// VoucherUniqueResponse reports whether a voucher number is free
type VoucherUniqueResponse struct {
	VoucherNumber string `json:"voucher_number"`
	Available     bool   `json:"available"`
}

// CheckVoucherUnique checks check voucher number uniqueness, optionally
// excluding the disbursement being edited
func (h *DisbursementHandler) CheckVoucherUnique(c *gin.Context) {
	voucherNumber := c.Query("voucher_number")
	if voucherNumber == "" {
		h.BadRequest(c, "voucher_number is required")
		return
	}

	var excludeID *uuid.UUID
	if raw := c.Query("exclude_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid exclude_id")
			return
		}
		excludeID = &id
	}

	unique, err := h.service.CheckVoucherUnique(c.Request.Context(), voucherNumber, excludeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, VoucherUniqueResponse{VoucherNumber: voucherNumber, Available: unique})
}
