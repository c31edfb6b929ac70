package router

import (
	"github.com/payables/backend/internal/interfaces/http/handler"
)

// Handlers bundles the HTTP handlers wired into the API surface
type Handlers struct {
	System        *handler.SystemHandler
	Masterdata    *handler.MasterdataHandler
	PurchaseOrder *handler.PurchaseOrderHandler
	Invoice       *handler.InvoiceHandler
	Requisition   *handler.RequisitionHandler
	Disbursement  *handler.DisbursementHandler
	Board         *handler.BoardHandler
	Attachment    *handler.AttachmentHandler
	Audit         *handler.AuditHandler
}

// RegisterPayablesRoutes registers the full payables API under the router's
// version prefix. Static segments like /unassigned and /kanban-data are
// declared alongside the :id routes; gin resolves static matches first.
func RegisterPayablesRoutes(r *Router, h Handlers) {
	vendors := NewDomainGroup("vendors", "/vendors")
	vendors.POST("", h.Masterdata.CreateVendor).
		GET("", h.Masterdata.ListVendors).
		GET("/:id", h.Masterdata.GetVendor).
		PUT("/:id", h.Masterdata.RenameVendor).
		DELETE("/:id", h.Masterdata.DeleteVendor)

	projects := NewDomainGroup("projects", "/projects")
	projects.POST("", h.Masterdata.CreateProject).
		GET("", h.Masterdata.ListProjects).
		GET("/:id", h.Masterdata.GetProject).
		PUT("/:id", h.Masterdata.UpdateProject).
		DELETE("/:id", h.Masterdata.DeleteProject)

	purchaseOrders := NewDomainGroup("purchase-orders", "/purchase-orders")
	purchaseOrders.POST("", h.PurchaseOrder.Create).
		GET("", h.PurchaseOrder.List).
		GET("/:id", h.PurchaseOrder.Get).
		POST("/:id/sync-financials", h.PurchaseOrder.SyncFinancials).
		DELETE("/:id", h.PurchaseOrder.Delete)

	invoices := NewDomainGroup("invoices", "/invoices")
	invoices.POST("", h.Invoice.Create).
		GET("", h.Invoice.List).
		GET("/:id", h.Invoice.Get).
		POST("/:id/submit", h.Invoice.Submit).
		POST("/:id/approve", h.Invoice.Approve).
		POST("/:id/reject", h.Invoice.Reject).
		POST("/:id/cancel", h.Invoice.Cancel).
		DELETE("/:id", h.Invoice.Delete)

	requisitions := NewDomainGroup("check-requisitions", "/check-requisitions")
	requisitions.POST("", h.Requisition.Create).
		GET("", h.Requisition.List).
		GET("/unassigned", h.Requisition.ListUnassigned).
		GET("/:id", h.Requisition.Get).
		POST("/:id/submit", h.Requisition.Submit).
		POST("/:id/approve", h.Requisition.Approve).
		POST("/:id/reject", h.Requisition.Reject).
		POST("/:id/cancel", h.Requisition.Cancel).
		DELETE("/:id", h.Requisition.Delete)

	disbursements := NewDomainGroup("disbursements", "/disbursements")
	disbursements.POST("", h.Disbursement.Create).
		GET("", h.Disbursement.List).
		GET("/kanban-data", h.Board.KanbanData).
		GET("/calendar-data", h.Board.CalendarData).
		GET("/smart-grouping", h.Board.SmartGrouping).
		GET("/check-voucher-unique", h.Disbursement.CheckVoucherUnique).
		POST("/bulk-release", h.Disbursement.BulkRelease).
		GET("/:id", h.Disbursement.Get).
		PUT("/:id", h.Disbursement.Update).
		POST("/:id", h.Disbursement.Update).
		POST("/:id/quick-release", h.Disbursement.Release).
		POST("/:id/undo-release", h.Disbursement.UndoRelease).
		POST("/:id/correct-release", h.Disbursement.CorrectRelease).
		DELETE("/:id", h.Disbursement.Delete)

	attachments := NewDomainGroup("attachments", "/attachments")
	attachments.POST("/:attachable_type/:attachable_id", h.Attachment.Upload).
		GET("/:attachable_type/:attachable_id", h.Attachment.List).
		GET("/:attachable_type/:attachable_id/:id/download", h.Attachment.Download).
		DELETE("/:attachable_type/:attachable_id/:id", h.Attachment.Delete)

	remarks := NewDomainGroup("remarks", "/remarks")
	remarks.POST("/:entity_type/:entity_id", h.Audit.AppendRemark).
		GET("/:entity_type/:entity_id", h.Audit.ListRemarks)

	activity := NewDomainGroup("activity-logs", "/activity-logs")
	activity.GET("/:entity_type/:entity_id", h.Audit.ListActivity)

	system := NewDomainGroup("system", "/system")
	system.GET("/info", h.System.GetSystemInfo)

	r.Register(vendors).
		Register(projects).
		Register(purchaseOrders).
		Register(invoices).
		Register(requisitions).
		Register(disbursements).
		Register(attachments).
		Register(remarks).
		Register(activity).
		Register(system)
}
