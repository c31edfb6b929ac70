package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	app "github.com/payables/backend/internal/application/payables"
)

// AuditHandler serves the remark and activity log trails that hang off
// disbursements, check requisitions, invoices and purchase orders via the
// :entity_type/:entity_id route segments.
type AuditHandler struct {
	BaseHandler
	service *app.AuditService
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(service *app.AuditService) *AuditHandler {
	return &AuditHandler{service: service}
}

// RemarkRequest carries a new remark body
type RemarkRequest struct {
	Body string `json:"body" binding:"required,min=1,max=2000"`
}

func (h *AuditHandler) bindEntity(c *gin.Context) (string, uuid.UUID, bool) {
	entityType := c.Param("entity_type")
	entityID, err := uuid.Parse(c.Param("entity_id"))
	if err != nil {
		h.BadRequest(c, "Invalid entity ID")
		return "", uuid.Nil, false
	}
	return entityType, entityID, true
}

// AppendRemark appends a remark to an entity's trail
func (h *AuditHandler) AppendRemark(c *gin.Context) {
	entityType, entityID, ok := h.bindEntity(c)
	if !ok {
		return
	}

	var req RemarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Remark body is required")
		return
	}

	authorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	resp, err := h.service.AppendRemark(c.Request.Context(), entityType, entityID, authorID, req.Body)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListRemarks lists an entity's remarks, newest first
func (h *AuditHandler) ListRemarks(c *gin.Context) {
	entityType, entityID, ok := h.bindEntity(c)
	if !ok {
		return
	}

	var filter app.AuditListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	items, total, err := h.service.ListRemarks(c.Request.Context(), entityType, entityID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// ListActivity lists an entity's activity log, newest first
func (h *AuditHandler) ListActivity(c *gin.Context) {
	entityType, entityID, ok := h.bindEntity(c)
	if !ok {
		return
	}

	var filter app.AuditListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}

	items, total, err := h.service.ListActivity(c.Request.Context(), entityType, entityID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}
