package payables

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/payables/backend/internal/domain/shared"
	"github.com/payables/backend/internal/domain/shared/valueobject"
)

// DisbursementState is the presentation state derived from the disbursement's
// date fields. The dates are independent columns; the furthest-set date wins,
// so a disbursement can jump straight to released with no intermediate dates.
type DisbursementState string

const (
	DisbursementStateDraft     DisbursementState = "draft"
	DisbursementStatePrinted   DisbursementState = "printed"
	DisbursementStateScheduled DisbursementState = "scheduled"
	DisbursementStateReleased  DisbursementState = "released"
)

// String returns the string representation of DisbursementState
func (s DisbursementState) String() string {
	return string(s)
}

// DefaultUndoWindow is the grace period after release during which an undo
// is accepted without going through the audited correction path.
const DefaultUndoWindow = 30 * time.Second

// Disbursement groups one or more approved check requisitions into a single
// check-release event. DateCheckReleasedToVendor is the single source of
// truth for released state; non-nil means released.
type Disbursement struct {
	shared.BaseAggregateRoot
	CheckVoucherNumber        *string             `json:"check_voucher_number"`
	DateCheckPrinting         *time.Time          `json:"date_check_printing"`
	DateCheckScheduled        *time.Time          `json:"date_check_scheduled"`
	DateCheckReleasedToVendor *time.Time          `json:"date_check_released_to_vendor"`
	UndoExpiresAt             *time.Time          `json:"undo_expires_at"`
	Remarks                   string              `json:"remarks"`
	Requisitions              []*CheckRequisition `json:"check_requisitions"`
}

// NewDisbursement creates a new disbursement over the given requisitions.
// Every requisition must be in approved status; linkage side effects (status
// writes on the requisitions and invoices) are planned by the cascade
// functions, not applied here.
func NewDisbursement(voucherNumber *string, printing, scheduled, released *time.Time, remarks string, requisitions []*CheckRequisition) (*Disbursement, error) {
	if len(requisitions) == 0 {
		return nil, shared.NewDomainError("EMPTY_REQUISITIONS", "A disbursement must cover at least one check requisition")
	}
	if voucherNumber != nil && strings.TrimSpace(*voucherNumber) == "" {
		return nil, shared.NewDomainError("INVALID_VOUCHER", "Check voucher number cannot be blank")
	}
	for _, cr := range requisitions {
		if !cr.Status.CanLink() {
			return nil, shared.NewDomainError("REQUISITION_NOT_APPROVED",
				fmt.Sprintf("Check requisition %s is %s, only approved requisitions can be disbursed", cr.RequisitionNumber, cr.Status))
		}
	}

	d := &Disbursement{
		BaseAggregateRoot:         shared.NewBaseAggregateRoot(),
		CheckVoucherNumber:        voucherNumber,
		DateCheckPrinting:         printing,
		DateCheckScheduled:        scheduled,
		DateCheckReleasedToVendor: released,
		Remarks:                   remarks,
		Requisitions:              requisitions,
	}
	d.AddDomainEvent(NewDisbursementCreatedEvent(d))
	return d, nil
}

// State derives the lifecycle state from the date fields
func (d *Disbursement) State() DisbursementState {
	switch {
	case d.DateCheckReleasedToVendor != nil:
		return DisbursementStateReleased
	case d.DateCheckScheduled != nil:
		return DisbursementStateScheduled
	case d.DateCheckPrinting != nil:
		return DisbursementStatePrinted
	default:
		return DisbursementStateDraft
	}
}

// IsReleased returns true once the check has been handed to the vendor
func (d *Disbursement) IsReleased() bool {
	return d.DateCheckReleasedToVendor != nil
}

// Release marks the check as handed to the vendor and opens the undo window.
// The release date may be back-dated by the caller; the undo deadline is
// anchored to the server clock so a back-dated release still gets its full
// grace period. The caller cascades paid status to the linked requisitions
// and invoices using PlanRelease.
func (d *Disbursement) Release(at, now time.Time, undoWindow time.Duration, notes string) error {
	if d.IsReleased() {
		return shared.NewDomainError("ALREADY_RELEASED", "Disbursement has already been released")
	}
	releasedAt := at
	expiresAt := now.Add(undoWindow)
	d.DateCheckReleasedToVendor = &releasedAt
	d.UndoExpiresAt = &expiresAt
	if notes != "" {
		d.appendRemark(notes)
	}
	d.Touch()
	d.IncrementVersion()
	d.AddDomainEvent(NewDisbursementReleasedEvent(d, releasedAt))
	return nil
}

// UndoRelease reverts a release inside the undo window. The deadline is
// evaluated server-side against the persisted UndoExpiresAt so any process
// can answer "is undo still allowed" independently of who handled release.
func (d *Disbursement) UndoRelease(now time.Time) error {
	if !d.IsReleased() {
		return shared.NewDomainError("NOT_RELEASED", "Disbursement has not been released")
	}
	if d.UndoExpiresAt == nil || now.After(*d.UndoExpiresAt) {
		return shared.NewDomainError("UNDO_WINDOW_EXPIRED", "The undo window has expired, use a release correction instead")
	}
	d.DateCheckReleasedToVendor = nil
	d.UndoExpiresAt = nil
	d.Touch()
	d.IncrementVersion()
	d.AddDomainEvent(NewDisbursementReleaseUndoneEvent(d))
	return nil
}

// CorrectRelease reverts a release after the undo window has expired. It has
// the same effect as UndoRelease but is a distinct, audited operation that
// requires a reason.
func (d *Disbursement) CorrectRelease(now time.Time, reason string) error {
	if !d.IsReleased() {
		return shared.NewDomainError("NOT_RELEASED", "Disbursement has not been released")
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Correction reason is required")
	}
	d.DateCheckReleasedToVendor = nil
	d.UndoExpiresAt = nil
	d.Touch()
	d.IncrementVersion()
	d.AddDomainEvent(NewDisbursementReleaseCorrectedEvent(d, reason))
	return nil
}

// CanUndo reports whether an undo would still be accepted at the given instant
func (d *Disbursement) CanUndo(now time.Time) bool {
	return d.IsReleased() && d.UndoExpiresAt != nil && !now.After(*d.UndoExpiresAt)
}

// SetVoucherNumber sets or clears the check voucher number. Uniqueness across
// disbursements is enforced by the repository, not here.
func (d *Disbursement) SetVoucherNumber(voucher *string) error {
	if voucher != nil && strings.TrimSpace(*voucher) == "" {
		return shared.NewDomainError("INVALID_VOUCHER", "Check voucher number cannot be blank")
	}
	d.CheckVoucherNumber = voucher
	d.Touch()
	d.IncrementVersion()
	return nil
}

// SetPrintingDate sets the check printing date
func (d *Disbursement) SetPrintingDate(at *time.Time) {
	d.DateCheckPrinting = at
	d.Touch()
	d.IncrementVersion()
}

// SetScheduledDate sets the check scheduled date
func (d *Disbursement) SetScheduledDate(at *time.Time) {
	d.DateCheckScheduled = at
	d.Touch()
	d.IncrementVersion()
}

// SetRemarks replaces the remarks text
func (d *Disbursement) SetRemarks(remarks string) {
	d.Remarks = remarks
	d.Touch()
	d.IncrementVersion()
}

// UpdateDetails applies a detail edit (voucher, printing and scheduled dates,
// remarks) as a single version increment so the optimistic lock check spans
// the whole edit. The release date and undo deadline are never touched here.
func (d *Disbursement) UpdateDetails(voucher *string, printing, scheduled *time.Time, remarks string) error {
	if voucher != nil && strings.TrimSpace(*voucher) == "" {
		return shared.NewDomainError("INVALID_VOUCHER", "Check voucher number cannot be blank")
	}
	d.CheckVoucherNumber = voucher
	d.DateCheckPrinting = printing
	d.DateCheckScheduled = scheduled
	d.Remarks = remarks
	d.Touch()
	d.IncrementVersion()
	d.AddDomainEvent(NewDisbursementUpdatedEvent(d))
	return nil
}

// ReplaceRequisitions swaps the linked requisition set. Status side effects
// for the moved requisitions come from PlanLinkageChange. The version is not
// bumped here: links live in the pivot table and the version column guards
// the disbursement row itself.
func (d *Disbursement) ReplaceRequisitions(requisitions []*CheckRequisition) error {
	if len(requisitions) == 0 {
		return shared.NewDomainError("EMPTY_REQUISITIONS", "A disbursement must cover at least one check requisition")
	}
	d.Requisitions = requisitions
	d.Touch()
	d.AddDomainEvent(NewDisbursementUpdatedEvent(d))
	return nil
}

// RequisitionIDs returns the ids of the linked requisitions
func (d *Disbursement) RequisitionIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(d.Requisitions))
	for _, cr := range d.Requisitions {
		ids = append(ids, cr.ID)
	}
	return ids
}

// Amount sums the PHP amounts of the linked requisitions
func (d *Disbursement) Amount() valueobject.Money {
	total := decimal.Zero
	for _, cr := range d.Requisitions {
		total = total.Add(cr.PhpAmount)
	}
	return valueobject.NewMoneyPHP(total)
}

func (d *Disbursement) appendRemark(text string) {
	if d.Remarks == "" {
		d.Remarks = text
		return
	}
	d.Remarks = d.Remarks + "\n" + text
}
