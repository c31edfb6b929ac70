package payables

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/payables/backend/internal/domain/shared"
)

// VendorRepository defines the interface for vendor persistence
type VendorRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Vendor, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Vendor, int64, error)
	Save(ctx context.Context, vendor *Vendor) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProjectRepository defines the interface for project persistence
type ProjectRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Project, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Project, int64, error)
	Save(ctx context.Context, project *Project) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// PurchaseOrderFilter defines filtering options for purchase order queries
type PurchaseOrderFilter struct {
	shared.Filter
	VendorID        *uuid.UUID
	ProjectID       *uuid.UUID
	OutstandingOnly bool
}

// PurchaseOrderRepository defines the interface for purchase order persistence
type PurchaseOrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)
	FindByPoNumber(ctx context.Context, poNumber string) (*PurchaseOrder, error)
	FindAll(ctx context.Context, filter PurchaseOrderFilter) ([]PurchaseOrder, int64, error)
	Save(ctx context.Context, po *PurchaseOrder) error
	SaveWithLock(ctx context.Context, po *PurchaseOrder) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// InvoiceFilter defines filtering options for invoice queries
type InvoiceFilter struct {
	shared.Filter
	PurchaseOrderID *uuid.UUID
	Status          *InvoiceStatus
	DueFrom         *time.Time
	DueTo           *time.Time
}

// InvoiceRepository defines the interface for invoice persistence
type InvoiceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Invoice, error)
	FindByPurchaseOrder(ctx context.Context, purchaseOrderID uuid.UUID) ([]*Invoice, error)
	FindAll(ctx context.Context, filter InvoiceFilter) ([]Invoice, int64, error)
	Save(ctx context.Context, invoice *Invoice) error
	// ApplyStatusWrites persists a batch of cascade-planned status writes.
	// PaidAt stamping follows the same rules as Invoice.ApplyStatus.
	ApplyStatusWrites(ctx context.Context, writes []InvoiceStatusWrite, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// RequisitionFilter defines filtering options for check requisition queries
type RequisitionFilter struct {
	shared.Filter
	Status    *RequisitionStatus
	VendorID  *uuid.UUID
	ProjectID *uuid.UUID
	PayeeName string
}

// CheckRequisitionRepository defines the interface for check requisition persistence
type CheckRequisitionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*CheckRequisition, error)
	// FindByIDs loads the requisitions with their member invoices preloaded.
	// A missing id is reported as a not found error, not silently skipped.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*CheckRequisition, error)
	FindAll(ctx context.Context, filter RequisitionFilter) ([]CheckRequisition, int64, error)
	// FindUnassignedApproved returns approved requisitions not linked to any
	// disbursement, with invoices preloaded, for the grouping suggestions.
	FindUnassignedApproved(ctx context.Context) ([]*CheckRequisition, error)
	// LinkedActiveDisbursement maps each given requisition id to the
	// disbursement it is currently linked to, omitting unlinked ones.
	LinkedActiveDisbursement(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]uuid.UUID, error)
	Save(ctx context.Context, requisition *CheckRequisition) error
	ApplyStatusWrites(ctx context.Context, writes []RequisitionStatusWrite) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// DisbursementDateField selects which date column a date-range filter applies to
type DisbursementDateField string

const (
	DisbursementDateFieldPrinting  DisbursementDateField = "date_check_printing"
	DisbursementDateFieldScheduled DisbursementDateField = "date_check_scheduled"
	DisbursementDateFieldReleased  DisbursementDateField = "date_check_released_to_vendor"
)

// IsValid checks if the date field selector is valid
func (f DisbursementDateField) IsValid() bool {
	switch f {
	case DisbursementDateFieldPrinting, DisbursementDateFieldScheduled, DisbursementDateFieldReleased:
		return true
	}
	return false
}

// DisbursementFilter defines filtering options for disbursement queries
type DisbursementFilter struct {
	shared.Filter
	VendorID        *uuid.UUID
	ProjectID       *uuid.UUID
	PurchaseOrderID *uuid.UUID
	RequisitionID   *uuid.UUID
	Released        *bool
	DateField       DisbursementDateField
	DateFrom        *time.Time
	DateTo          *time.Time
	MinAmount       *decimal.Decimal
	MaxAmount       *decimal.Decimal
}

// DisbursementSummary carries the aggregate statistics returned alongside a
// disbursement listing page.
type DisbursementSummary struct {
	TotalCount     int64           `json:"total_count"`
	ReleasedCount  int64           `json:"released_count"`
	PendingCount   int64           `json:"pending_count"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	ReleasedAmount decimal.Decimal `json:"released_amount"`
	PendingAmount  decimal.Decimal `json:"pending_amount"`
}

// DisbursementRepository defines the interface for disbursement persistence
type DisbursementRepository interface {
	// FindByID loads a disbursement with its requisitions and their invoices.
	FindByID(ctx context.Context, id uuid.UUID) (*Disbursement, error)
	FindAll(ctx context.Context, filter DisbursementFilter) ([]Disbursement, int64, error)
	// FindUnreleased returns all unreleased disbursements with requisitions
	// preloaded, for the board projections.
	FindUnreleased(ctx context.Context) ([]*Disbursement, error)
	// FindByDateRange returns disbursements whose scheduled or released date
	// falls inside [from, to], for the calendar projection.
	FindByDateRange(ctx context.Context, from, to time.Time) ([]*Disbursement, error)
	// ExistsByVoucherNumber reports whether another disbursement already
	// carries the voucher number. excludeID skips the disbursement being
	// edited so its own unchanged voucher is not flagged.
	ExistsByVoucherNumber(ctx context.Context, voucherNumber string, excludeID *uuid.UUID) (bool, error)
	Summary(ctx context.Context, filter DisbursementFilter) (*DisbursementSummary, error)
	Save(ctx context.Context, disbursement *Disbursement) error
	SaveWithLock(ctx context.Context, disbursement *Disbursement) error
	// ReplaceLinks rewrites the pivot rows linking the disbursement to the
	// given requisition ids.
	ReplaceLinks(ctx context.Context, disbursementID uuid.UUID, requisitionIDs []uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// AttachmentRepository defines the interface for attachment persistence
type AttachmentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Attachment, error)
	FindByAttachable(ctx context.Context, attachableType AttachableType, attachableID uuid.UUID) ([]Attachment, error)
	Save(ctx context.Context, attachment *Attachment) error
	Delete(ctx context.Context, id uuid.UUID) error
}
