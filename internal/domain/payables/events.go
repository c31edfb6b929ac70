package payables

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/payables/backend/internal/domain/shared"
)

// PurchaseOrderCreatedEvent is raised when a new purchase order is created
type PurchaseOrderCreatedEvent struct {
	shared.BaseDomainEvent
	PurchaseOrderID uuid.UUID       `json:"purchase_order_id"`
	PoNumber        string          `json:"po_number"`
	PoAmount        decimal.Decimal `json:"po_amount"`
	VendorID        uuid.UUID       `json:"vendor_id"`
	ProjectID       uuid.UUID       `json:"project_id"`
}

// EventType returns the event type name
func (e *PurchaseOrderCreatedEvent) EventType() string {
	return "PurchaseOrderCreated"
}

// NewPurchaseOrderCreatedEvent creates a new PurchaseOrderCreatedEvent
func NewPurchaseOrderCreatedEvent(po *PurchaseOrder) *PurchaseOrderCreatedEvent {
	return &PurchaseOrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("PurchaseOrderCreated", "PurchaseOrder", po.ID),
		PurchaseOrderID: po.ID,
		PoNumber:        po.PoNumber,
		PoAmount:        po.PoAmount,
		VendorID:        po.VendorID,
		ProjectID:       po.ProjectID,
	}
}

// InvoiceCreatedEvent is raised when a new invoice is booked
type InvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	InvoiceID       uuid.UUID       `json:"invoice_id"`
	SiNumber        string          `json:"si_number"`
	PurchaseOrderID uuid.UUID       `json:"purchase_order_id"`
	NetAmount       decimal.Decimal `json:"net_amount"`
	SiDate          time.Time       `json:"si_date"`
}

// EventType returns the event type name
func (e *InvoiceCreatedEvent) EventType() string {
	return "InvoiceCreated"
}

// NewInvoiceCreatedEvent creates a new InvoiceCreatedEvent
func NewInvoiceCreatedEvent(inv *Invoice) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoiceCreated", "Invoice", inv.ID),
		InvoiceID:       inv.ID,
		SiNumber:        inv.SiNumber,
		PurchaseOrderID: inv.PurchaseOrderID,
		NetAmount:       inv.NetAmount,
		SiDate:          inv.SiDate,
	}
}

// InvoiceStatusChangedEvent is raised whenever an invoice changes status
type InvoiceStatusChangedEvent struct {
	shared.BaseDomainEvent
	InvoiceID      uuid.UUID     `json:"invoice_id"`
	SiNumber       string        `json:"si_number"`
	PreviousStatus InvoiceStatus `json:"previous_status"`
	NewStatus      InvoiceStatus `json:"new_status"`
}

// EventType returns the event type name
func (e *InvoiceStatusChangedEvent) EventType() string {
	return "InvoiceStatusChanged"
}

// NewInvoiceStatusChangedEvent creates a new InvoiceStatusChangedEvent
func NewInvoiceStatusChangedEvent(inv *Invoice, previous InvoiceStatus) *InvoiceStatusChangedEvent {
	return &InvoiceStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("InvoiceStatusChanged", "Invoice", inv.ID),
		InvoiceID:       inv.ID,
		SiNumber:        inv.SiNumber,
		PreviousStatus:  previous,
		NewStatus:       inv.Status,
	}
}

// RequisitionCreatedEvent is raised when a new check requisition is created
type RequisitionCreatedEvent struct {
	shared.BaseDomainEvent
	RequisitionID     uuid.UUID       `json:"requisition_id"`
	RequisitionNumber string          `json:"requisition_number"`
	PayeeName         string          `json:"payee_name"`
	PhpAmount         decimal.Decimal `json:"php_amount"`
}

// EventType returns the event type name
func (e *RequisitionCreatedEvent) EventType() string {
	return "CheckRequisitionCreated"
}

// NewRequisitionCreatedEvent creates a new RequisitionCreatedEvent
func NewRequisitionCreatedEvent(cr *CheckRequisition) *RequisitionCreatedEvent {
	return &RequisitionCreatedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent("CheckRequisitionCreated", "CheckRequisition", cr.ID),
		RequisitionID:     cr.ID,
		RequisitionNumber: cr.RequisitionNumber,
		PayeeName:         cr.PayeeName,
		PhpAmount:         cr.PhpAmount,
	}
}

// RequisitionStatusChangedEvent is raised whenever a requisition changes status
type RequisitionStatusChangedEvent struct {
	shared.BaseDomainEvent
	RequisitionID     uuid.UUID         `json:"requisition_id"`
	RequisitionNumber string            `json:"requisition_number"`
	PreviousStatus    RequisitionStatus `json:"previous_status"`
	NewStatus         RequisitionStatus `json:"new_status"`
}

// EventType returns the event type name
func (e *RequisitionStatusChangedEvent) EventType() string {
	return "CheckRequisitionStatusChanged"
}

// NewRequisitionStatusChangedEvent creates a new RequisitionStatusChangedEvent
func NewRequisitionStatusChangedEvent(cr *CheckRequisition, previous RequisitionStatus) *RequisitionStatusChangedEvent {
	return &RequisitionStatusChangedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent("CheckRequisitionStatusChanged", "CheckRequisition", cr.ID),
		RequisitionID:     cr.ID,
		RequisitionNumber: cr.RequisitionNumber,
		PreviousStatus:    previous,
		NewStatus:         cr.Status,
	}
}

// DisbursementCreatedEvent is raised when a new disbursement is created
type DisbursementCreatedEvent struct {
	shared.BaseDomainEvent
	DisbursementID uuid.UUID   `json:"disbursement_id"`
	VoucherNumber  *string     `json:"check_voucher_number,omitempty"`
	RequisitionIDs []uuid.UUID `json:"requisition_ids"`
}

// EventType returns the event type name
func (e *DisbursementCreatedEvent) EventType() string {
	return "DisbursementCreated"
}

// NewDisbursementCreatedEvent creates a new DisbursementCreatedEvent
func NewDisbursementCreatedEvent(d *Disbursement) *DisbursementCreatedEvent {
	return &DisbursementCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("DisbursementCreated", "Disbursement", d.ID),
		DisbursementID:  d.ID,
		VoucherNumber:   d.CheckVoucherNumber,
		RequisitionIDs:  d.RequisitionIDs(),
	}
}

// DisbursementUpdatedEvent is raised when a disbursement's linkage changes
type DisbursementUpdatedEvent struct {
	shared.BaseDomainEvent
	DisbursementID uuid.UUID   `json:"disbursement_id"`
	RequisitionIDs []uuid.UUID `json:"requisition_ids"`
}

// EventType returns the event type name
func (e *DisbursementUpdatedEvent) EventType() string {
	return "DisbursementUpdated"
}

// NewDisbursementUpdatedEvent creates a new DisbursementUpdatedEvent
func NewDisbursementUpdatedEvent(d *Disbursement) *DisbursementUpdatedEvent {
	return &DisbursementUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("DisbursementUpdated", "Disbursement", d.ID),
		DisbursementID:  d.ID,
		RequisitionIDs:  d.RequisitionIDs(),
	}
}

// DisbursementReleasedEvent is raised when a check is released to the vendor
type DisbursementReleasedEvent struct {
	shared.BaseDomainEvent
	DisbursementID uuid.UUID  `json:"disbursement_id"`
	ReleasedAt     time.Time  `json:"released_at"`
	UndoExpiresAt  *time.Time `json:"undo_expires_at,omitempty"`
}

// EventType returns the event type name
func (e *DisbursementReleasedEvent) EventType() string {
	return "DisbursementReleased"
}

// NewDisbursementReleasedEvent creates a new DisbursementReleasedEvent
func NewDisbursementReleasedEvent(d *Disbursement, releasedAt time.Time) *DisbursementReleasedEvent {
	return &DisbursementReleasedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("DisbursementReleased", "Disbursement", d.ID),
		DisbursementID:  d.ID,
		ReleasedAt:      releasedAt,
		UndoExpiresAt:   d.UndoExpiresAt,
	}
}

// DisbursementReleaseUndoneEvent is raised when a release is undone inside
// the grace window
type DisbursementReleaseUndoneEvent struct {
	shared.BaseDomainEvent
	DisbursementID uuid.UUID `json:"disbursement_id"`
}

// EventType returns the event type name
func (e *DisbursementReleaseUndoneEvent) EventType() string {
	return "DisbursementReleaseUndone"
}

// NewDisbursementReleaseUndoneEvent creates a new DisbursementReleaseUndoneEvent
func NewDisbursementReleaseUndoneEvent(d *Disbursement) *DisbursementReleaseUndoneEvent {
	return &DisbursementReleaseUndoneEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("DisbursementReleaseUndone", "Disbursement", d.ID),
		DisbursementID:  d.ID,
	}
}

// DisbursementReleaseCorrectedEvent is raised when a release is reversed
// after the grace window through the audited correction path
type DisbursementReleaseCorrectedEvent struct {
	shared.BaseDomainEvent
	DisbursementID uuid.UUID `json:"disbursement_id"`
	Reason         string    `json:"reason"`
}

// EventType returns the event type name
func (e *DisbursementReleaseCorrectedEvent) EventType() string {
	return "DisbursementReleaseCorrected"
}

// NewDisbursementReleaseCorrectedEvent creates a new DisbursementReleaseCorrectedEvent
func NewDisbursementReleaseCorrectedEvent(d *Disbursement, reason string) *DisbursementReleaseCorrectedEvent {
	return &DisbursementReleaseCorrectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("DisbursementReleaseCorrected", "Disbursement", d.ID),
		DisbursementID:  d.ID,
		Reason:          reason,
	}
}
