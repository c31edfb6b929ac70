package payables

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/payables/backend/internal/domain/shared"
	"github.com/payables/backend/internal/domain/shared/valueobject"
)

// PurchaseOrder represents a purchase order issued to a vendor under a project.
// The derived totals (TotalInvoiced, TotalPaid, OutstandingAmount) are kept in
// sync by an explicit SyncFinancials call, not by database triggers.
type PurchaseOrder struct {
	shared.BaseAggregateRoot
	PoNumber          string          `json:"po_number"`
	PoAmount          decimal.Decimal `json:"po_amount"`
	VendorID          uuid.UUID       `json:"vendor_id"`
	ProjectID         uuid.UUID       `json:"project_id"`
	TotalInvoiced     decimal.Decimal `json:"total_invoiced"`
	TotalPaid         decimal.Decimal `json:"total_paid"`
	OutstandingAmount decimal.Decimal `json:"outstanding_amount"`
}

// NewPurchaseOrder creates a new purchase order
func NewPurchaseOrder(poNumber string, poAmount valueobject.Money, vendorID, projectID uuid.UUID) (*PurchaseOrder, error) {
	if poNumber == "" {
		return nil, shared.NewDomainError("INVALID_PO_NUMBER", "PO number cannot be empty")
	}
	if len(poNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_PO_NUMBER", "PO number cannot exceed 50 characters")
	}
	if vendorID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_VENDOR", "Vendor ID cannot be empty")
	}
	if projectID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PROJECT", "Project ID cannot be empty")
	}
	if poAmount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "PO amount must be positive")
	}

	po := &PurchaseOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PoNumber:          poNumber,
		PoAmount:          poAmount.Amount(),
		VendorID:          vendorID,
		ProjectID:         projectID,
		TotalInvoiced:     decimal.Zero,
		TotalPaid:         decimal.Zero,
		OutstandingAmount: poAmount.Amount(),
	}
	po.AddDomainEvent(NewPurchaseOrderCreatedEvent(po))
	return po, nil
}

// SyncFinancials recomputes the derived totals from the purchase order's
// invoices. The caller passes the current invoice set; the invariant
// OutstandingAmount = PoAmount - TotalPaid is restored here.
func (po *PurchaseOrder) SyncFinancials(invoices []*Invoice) {
	totalInvoiced := decimal.Zero
	totalPaid := decimal.Zero
	for _, inv := range invoices {
		if inv.PurchaseOrderID != po.ID {
			continue
		}
		if inv.Status == InvoiceStatusRejected || inv.Status == InvoiceStatusCancelled {
			continue
		}
		totalInvoiced = totalInvoiced.Add(inv.NetAmount)
		if inv.Status == InvoiceStatusPaid {
			totalPaid = totalPaid.Add(inv.NetAmount)
		}
	}
	po.TotalInvoiced = totalInvoiced
	po.TotalPaid = totalPaid
	po.OutstandingAmount = po.PoAmount.Sub(totalPaid)
	po.Touch()
	po.IncrementVersion()
}

// GetPoAmountMoney returns the PO amount as Money
func (po *PurchaseOrder) GetPoAmountMoney() valueobject.Money {
	return valueobject.NewMoneyPHP(po.PoAmount)
}

// GetOutstandingAmountMoney returns the outstanding amount as Money
func (po *PurchaseOrder) GetOutstandingAmountMoney() valueobject.Money {
	return valueobject.NewMoneyPHP(po.OutstandingAmount)
}

// IsFullyPaid returns true when nothing remains outstanding
func (po *PurchaseOrder) IsFullyPaid() bool {
	return po.OutstandingAmount.LessThanOrEqual(decimal.Zero)
}
