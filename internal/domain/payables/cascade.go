package payables

import "github.com/google/uuid"

// The disbursement lifecycle cascades status writes onto check requisitions
// and their invoices. The planner functions below are pure: they take the
// affected requisitions and return the exact set of entity status writes,
// so the cascade is testable without a database.

// RequisitionStatusWrite is a planned status change for a check requisition
type RequisitionStatusWrite struct {
	RequisitionID uuid.UUID
	Status        RequisitionStatus
}

// InvoiceStatusWrite is a planned status change for an invoice
type InvoiceStatusWrite struct {
	InvoiceID uuid.UUID
	Status    InvoiceStatus
}

// CascadePlan is the full set of status writes produced by one lifecycle
// transition. An empty plan means the transition has no downstream effect.
type CascadePlan struct {
	Requisitions []RequisitionStatusWrite
	Invoices     []InvoiceStatusWrite
}

// IsEmpty returns true when the plan carries no writes
func (p CascadePlan) IsEmpty() bool {
	return len(p.Requisitions) == 0 && len(p.Invoices) == 0
}

func (p *CascadePlan) add(cr *CheckRequisition, crStatus RequisitionStatus, invStatus InvoiceStatus) {
	p.Requisitions = append(p.Requisitions, RequisitionStatusWrite{RequisitionID: cr.ID, Status: crStatus})
	for _, inv := range cr.Invoices {
		p.Invoices = append(p.Invoices, InvoiceStatusWrite{InvoiceID: inv.ID, Status: invStatus})
	}
}

// DiffLinkage splits a linkage edit into removed and added requisition ids.
// Order within each slice follows the input order.
func DiffLinkage(original, requested []uuid.UUID) (removed, added []uuid.UUID) {
	inOriginal := make(map[uuid.UUID]bool, len(original))
	for _, id := range original {
		inOriginal[id] = true
	}
	inRequested := make(map[uuid.UUID]bool, len(requested))
	for _, id := range requested {
		inRequested[id] = true
	}
	for _, id := range original {
		if !inRequested[id] {
			removed = append(removed, id)
		}
	}
	for _, id := range requested {
		if !inOriginal[id] {
			added = append(added, id)
		}
	}
	return removed, added
}

// PlanLinkageChange computes the status writes for requisitions moved in or
// out of a disbursement.
//
// Removed requisitions always revert to approved, and their invoices with
// them, regardless of the disbursement's release state. Added requisitions
// become processed with invoices pending disbursement; on an already
// released disbursement they go straight to paid, since released means every
// linked requisition and invoice is paid.
func PlanLinkageChange(removed, added []*CheckRequisition, released bool) CascadePlan {
	var plan CascadePlan
	for _, cr := range removed {
		plan.add(cr, RequisitionStatusApproved, InvoiceStatusApproved)
	}
	for _, cr := range added {
		if released {
			plan.add(cr, RequisitionStatusPaid, InvoiceStatusPaid)
		} else {
			plan.add(cr, RequisitionStatusProcessed, InvoiceStatusPendingDisbursement)
		}
	}
	return plan
}

// PlanRelease marks every linked requisition and every reachable invoice as
// paid.
func PlanRelease(linked []*CheckRequisition) CascadePlan {
	var plan CascadePlan
	for _, cr := range linked {
		plan.add(cr, RequisitionStatusPaid, InvoiceStatusPaid)
	}
	return plan
}

// PlanUndoRelease reverts a release: requisitions return to processed and
// invoices to pending disbursement, restoring the pre-release statuses.
func PlanUndoRelease(linked []*CheckRequisition) CascadePlan {
	var plan CascadePlan
	for _, cr := range linked {
		plan.add(cr, RequisitionStatusProcessed, InvoiceStatusPendingDisbursement)
	}
	return plan
}
