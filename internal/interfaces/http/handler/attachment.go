package handler

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	app "github.com/payables/backend/internal/application/payables"
	"github.com/payables/backend/internal/domain/payables"
)

// AttachmentHandler handles file attachment API endpoints. Attachments hang
// off disbursements, check requisitions and invoices via the
// :attachable_type/:attachable_id route segments.
type AttachmentHandler struct {
	BaseHandler
	service *app.AttachmentService
}

// NewAttachmentHandler creates a new AttachmentHandler
func NewAttachmentHandler(service *app.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{service: service}
}

func (h *AttachmentHandler) bindAttachable(c *gin.Context) (payables.AttachableType, uuid.UUID, bool) {
	attachableType := payables.AttachableType(c.Param("attachable_type"))
	if !attachableType.IsValid() {
		h.BadRequest(c, "Unknown attachable type")
		return "", uuid.Nil, false
	}
	attachableID, err := uuid.Parse(c.Param("attachable_id"))
	if err != nil {
		h.BadRequest(c, "Invalid attachable ID")
		return "", uuid.Nil, false
	}
	return attachableType, attachableID, true
}

// Upload streams a multipart file into object storage and records the
// attachment against the target entity
func (h *AttachmentHandler) Upload(c *gin.Context) {
	attachableType, attachableID, ok := h.bindAttachable(c)
	if !ok {
		return
	}

	actorID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "A multipart file field named \"file\" is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.InternalError(c, "Failed to read uploaded file")
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	resp, err := h.service.Upload(c.Request.Context(), app.UploadAttachmentInput{
		AttachableType: attachableType,
		AttachableID:   attachableID,
		FileName:       fileHeader.Filename,
		ContentType:    contentType,
		SizeBytes:      fileHeader.Size,
		Body:           file,
		ActorID:        actorID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List lists an entity's attachments
func (h *AttachmentHandler) List(c *gin.Context) {
	attachableType, attachableID, ok := h.bindAttachable(c)
	if !ok {
		return
	}

	items, err := h.service.List(c.Request.Context(), attachableType, attachableID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// Download streams an attachment body back to the client
func (h *AttachmentHandler) Download(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid attachment ID")
		return
	}

	meta, body, err := h.service.Download(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer body.Close()

	disposition := fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(meta.FileName))
	c.DataFromReader(http.StatusOK, meta.SizeBytes, meta.ContentType, body,
		map[string]string{"Content-Disposition": disposition})
}

// Delete removes an attachment and its stored body
func (h *AttachmentHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid attachment ID")
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
