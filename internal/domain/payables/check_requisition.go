package payables

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/payables/backend/internal/domain/shared"
	"github.com/payables/backend/internal/domain/shared/valueobject"
)

// RequisitionStatus represents the status of a check requisition
type RequisitionStatus string

const (
	RequisitionStatusDraft     RequisitionStatus = "draft"
	RequisitionStatusSubmitted RequisitionStatus = "submitted"
	RequisitionStatusApproved  RequisitionStatus = "approved"
	RequisitionStatusProcessed RequisitionStatus = "processed" // linked to a disbursement, not yet released
	RequisitionStatusPaid      RequisitionStatus = "paid"
	RequisitionStatusRejected  RequisitionStatus = "rejected"
	RequisitionStatusCancelled RequisitionStatus = "cancelled"
)

// IsValid checks if the status is a valid RequisitionStatus
func (s RequisitionStatus) IsValid() bool {
	switch s {
	case RequisitionStatusDraft, RequisitionStatusSubmitted, RequisitionStatusApproved,
		RequisitionStatusProcessed, RequisitionStatusPaid,
		RequisitionStatusRejected, RequisitionStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of RequisitionStatus
func (s RequisitionStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the requisition is in a terminal state
func (s RequisitionStatus) IsTerminal() bool {
	return s == RequisitionStatusPaid || s == RequisitionStatusRejected || s == RequisitionStatusCancelled
}

// CanLink returns true if the requisition may be attached to a disbursement
func (s RequisitionStatus) CanLink() bool {
	return s == RequisitionStatusApproved
}

// CheckRequisition groups one or more approved invoices into a single payment
// request for a payee. VendorID and ProjectID are denormalized from the
// member invoices' purchase orders so grouping queries avoid deep joins.
type CheckRequisition struct {
	shared.BaseAggregateRoot
	RequisitionNumber string            `json:"requisition_number"`
	PayeeName         string            `json:"payee_name"`
	PhpAmount         decimal.Decimal   `json:"php_amount"`
	Status            RequisitionStatus `json:"status"`
	RequestDate       time.Time         `json:"request_date"`
	ApprovedAt        *time.Time        `json:"approved_at"`
	VendorID          uuid.UUID         `json:"vendor_id"`
	ProjectID         uuid.UUID         `json:"project_id"`
	Invoices          []*Invoice        `json:"invoices"`
}

// NewCheckRequisition creates a new check requisition in draft status
func NewCheckRequisition(requisitionNumber, payeeName string, amount valueobject.Money, requestDate time.Time, vendorID, projectID uuid.UUID, invoices []*Invoice) (*CheckRequisition, error) {
	if requisitionNumber == "" {
		return nil, shared.NewDomainError("INVALID_REQUISITION_NUMBER", "Requisition number cannot be empty")
	}
	if payeeName == "" {
		return nil, shared.NewDomainError("INVALID_PAYEE", "Payee name cannot be empty")
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Requisition amount must be positive")
	}
	if requestDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_REQUEST_DATE", "Request date is required")
	}
	if len(invoices) == 0 {
		return nil, shared.NewDomainError("EMPTY_INVOICES", "A requisition must cover at least one invoice")
	}

	cr := &CheckRequisition{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		RequisitionNumber: requisitionNumber,
		PayeeName:         payeeName,
		PhpAmount:         amount.Amount(),
		Status:            RequisitionStatusDraft,
		RequestDate:       requestDate,
		VendorID:          vendorID,
		ProjectID:         projectID,
		Invoices:          invoices,
	}
	cr.AddDomainEvent(NewRequisitionCreatedEvent(cr))
	return cr, nil
}

// Submit moves a draft requisition into the approval queue
func (cr *CheckRequisition) Submit() error {
	if cr.Status != RequisitionStatusDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot submit requisition in %s status", cr.Status))
	}
	cr.transition(RequisitionStatusSubmitted)
	return nil
}

// Approve marks a submitted requisition as approved and stamps ApprovedAt
func (cr *CheckRequisition) Approve(at time.Time) error {
	if cr.Status != RequisitionStatusSubmitted {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot approve requisition in %s status", cr.Status))
	}
	approvedAt := at
	cr.ApprovedAt = &approvedAt
	cr.transition(RequisitionStatusApproved)
	return nil
}

// Reject rejects a submitted requisition
func (cr *CheckRequisition) Reject() error {
	if cr.Status != RequisitionStatusSubmitted {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot reject requisition in %s status", cr.Status))
	}
	cr.transition(RequisitionStatusRejected)
	return nil
}

// Cancel cancels a requisition that has not been linked to a disbursement
func (cr *CheckRequisition) Cancel() error {
	if cr.Status == RequisitionStatusProcessed || cr.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel requisition in %s status", cr.Status))
	}
	cr.transition(RequisitionStatusCancelled)
	return nil
}

// ApplyStatus applies a cascade-planned status write without transition
// guards. The cascade planner owns the legality of these moves.
func (cr *CheckRequisition) ApplyStatus(status RequisitionStatus) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", fmt.Sprintf("Unknown requisition status %q", status))
	}
	cr.transition(status)
	return nil
}

func (cr *CheckRequisition) transition(status RequisitionStatus) {
	previous := cr.Status
	cr.Status = status
	cr.Touch()
	cr.IncrementVersion()
	cr.AddDomainEvent(NewRequisitionStatusChangedEvent(cr, previous))
}

// GetAmountMoney returns the requisition amount as Money
func (cr *CheckRequisition) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyPHP(cr.PhpAmount)
}

// MaxInvoiceAgingDays returns the highest aging across member invoices as of
// now, or 0 when the requisition carries no invoices.
func (cr *CheckRequisition) MaxInvoiceAgingDays(now time.Time) int {
	maxDays := 0
	for i, inv := range cr.Invoices {
		days := inv.AgingDays(now)
		if i == 0 || days > maxDays {
			maxDays = days
		}
	}
	return maxDays
}
