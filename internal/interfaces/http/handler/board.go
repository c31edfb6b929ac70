package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	app "github.com/payables/backend/internal/application/payables"
)

// BoardHandler serves the kanban, calendar and smart grouping projections of
// the disbursement pipeline
type BoardHandler struct {
	BaseHandler
	service *app.BoardService
}

// NewBoardHandler creates a new BoardHandler
func NewBoardHandler(service *app.BoardService) *BoardHandler {
	return &BoardHandler{service: service}
}

// KanbanData returns the pipeline bucketed by release urgency
func (h *BoardHandler) KanbanData(c *gin.Context) {
	data, err := h.service.KanbanData(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, data)
}

// CalendarData returns scheduled and released checks laid out on a calendar
// grid for the requested date range
func (h *BoardHandler) CalendarData(c *gin.Context) {
	start, err := time.Parse("2006-01-02", c.Query("start"))
	if err != nil {
		h.BadRequest(c, "start must be a date in YYYY-MM-DD format")
		return
	}
	end, err := time.Parse("2006-01-02", c.Query("end"))
	if err != nil {
		h.BadRequest(c, "end must be a date in YYYY-MM-DD format")
		return
	}

	data, err := h.service.CalendarData(c.Request.Context(), start, end)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, data)
}

// SmartGrouping suggests batches of unassigned requisitions that could share
// one disbursement
func (h *BoardHandler) SmartGrouping(c *gin.Context) {
	suggestions, err := h.service.SmartGroupingSuggestions(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, suggestions)
}
