package payables

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/payables/backend/internal/domain/shared"
	"github.com/payables/backend/internal/domain/shared/valueobject"
)

// InvoiceStatus represents the status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft               InvoiceStatus = "draft"
	InvoiceStatusSubmitted           InvoiceStatus = "submitted"
	InvoiceStatusApproved            InvoiceStatus = "approved"
	InvoiceStatusPendingDisbursement InvoiceStatus = "pending_disbursement"
	InvoiceStatusPaid                InvoiceStatus = "paid"
	InvoiceStatusRejected            InvoiceStatus = "rejected"
	InvoiceStatusCancelled           InvoiceStatus = "cancelled"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSubmitted, InvoiceStatusApproved,
		InvoiceStatusPendingDisbursement, InvoiceStatusPaid,
		InvoiceStatusRejected, InvoiceStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the invoice is in a terminal state
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusRejected || s == InvoiceStatusCancelled
}

// Invoice represents a supplier invoice booked against a purchase order.
// Status transitions past "approved" are driven by the check requisition
// and disbursement lifecycle, never by the invoice itself.
type Invoice struct {
	shared.BaseAggregateRoot
	SiNumber        string               `json:"si_number"`
	PurchaseOrderID uuid.UUID            `json:"purchase_order_id"`
	InvoiceAmount   decimal.Decimal      `json:"invoice_amount"`
	NetAmount       decimal.Decimal      `json:"net_amount"`
	Currency        valueobject.Currency `json:"currency"`
	Status          InvoiceStatus        `json:"invoice_status"`
	SiDate          time.Time            `json:"si_date"`
	DueDate         *time.Time           `json:"due_date"`
	PaidAt          *time.Time           `json:"paid_at"`
}

// NewInvoice creates a new invoice in draft status
func NewInvoice(siNumber string, purchaseOrderID uuid.UUID, invoiceAmount, netAmount valueobject.Money, siDate time.Time, dueDate *time.Time) (*Invoice, error) {
	if siNumber == "" {
		return nil, shared.NewDomainError("INVALID_SI_NUMBER", "SI number cannot be empty")
	}
	if purchaseOrderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PURCHASE_ORDER", "Purchase order ID cannot be empty")
	}
	if invoiceAmount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Invoice amount must be positive")
	}
	if netAmount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Net amount must be positive")
	}
	if siDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_SI_DATE", "SI date is required")
	}

	inv := &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SiNumber:          siNumber,
		PurchaseOrderID:   purchaseOrderID,
		InvoiceAmount:     invoiceAmount.Amount(),
		NetAmount:         netAmount.Amount(),
		Currency:          invoiceAmount.Currency(),
		Status:            InvoiceStatusDraft,
		SiDate:            siDate,
		DueDate:           dueDate,
	}
	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))
	return inv, nil
}

// Submit moves a draft invoice into the approval queue
func (inv *Invoice) Submit() error {
	if inv.Status != InvoiceStatusDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot submit invoice in %s status", inv.Status))
	}
	inv.transition(InvoiceStatusSubmitted)
	return nil
}

// Approve marks a submitted invoice as approved
func (inv *Invoice) Approve() error {
	if inv.Status != InvoiceStatusSubmitted {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot approve invoice in %s status", inv.Status))
	}
	inv.transition(InvoiceStatusApproved)
	return nil
}

// Reject rejects a submitted invoice
func (inv *Invoice) Reject() error {
	if inv.Status != InvoiceStatusSubmitted {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot reject invoice in %s status", inv.Status))
	}
	inv.transition(InvoiceStatusRejected)
	return nil
}

// Cancel cancels an invoice that has not entered the payment pipeline
func (inv *Invoice) Cancel() error {
	if inv.Status == InvoiceStatusPendingDisbursement || inv.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel invoice in %s status", inv.Status))
	}
	inv.transition(InvoiceStatusCancelled)
	return nil
}

// ApplyStatus applies a cascade-planned status write. PaidAt is stamped on
// entry to paid and cleared on any reversal out of paid so aging resumes.
func (inv *Invoice) ApplyStatus(status InvoiceStatus, at time.Time) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown invoice status %q", status))
	}
	previous := inv.Status
	inv.Status = status
	switch {
	case status == InvoiceStatusPaid:
		paidAt := at
		inv.PaidAt = &paidAt
	case previous == InvoiceStatusPaid:
		inv.PaidAt = nil
	}
	inv.Touch()
	inv.IncrementVersion()
	inv.AddDomainEvent(NewInvoiceStatusChangedEvent(inv, previous))
	return nil
}

func (inv *Invoice) transition(status InvoiceStatus) {
	previous := inv.Status
	inv.Status = status
	inv.Touch()
	inv.IncrementVersion()
	inv.AddDomainEvent(NewInvoiceStatusChangedEvent(inv, previous))
}

// AgingDays returns the signed whole-day aging for this invoice as of now.
// Aging freezes at PaidAt once the invoice is paid.
func (inv *Invoice) AgingDays(now time.Time) int {
	until := now
	if inv.Status == InvoiceStatusPaid && inv.PaidAt != nil {
		until = *inv.PaidAt
	}
	return AgingDays(inv.SiDate, until)
}

// AgingSeverity returns the presentation severity bucket for this invoice.
func (inv *Invoice) AgingSeverity(now time.Time) AgingSeverity {
	return SeverityForDays(inv.AgingDays(now))
}

// GetNetAmountMoney returns the net amount as Money
func (inv *Invoice) GetNetAmountMoney() valueobject.Money {
	m, err := valueobject.NewMoney(inv.NetAmount, inv.Currency)
	if err != nil {
		return valueobject.NewMoneyPHP(inv.NetAmount)
	}
	return m
}

// IsPaid returns true if the invoice is fully paid
func (inv *Invoice) IsPaid() bool {
	return inv.Status == InvoiceStatusPaid
}
