package payables

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/payables/backend/internal/domain/shared/valueobject"
)

func newTestPurchaseOrder(t *testing.T, amount float64) *PurchaseOrder {
	t.Helper()
	po, err := NewPurchaseOrder("PO-2025-001", valueobject.NewMoneyPHPFromFloat(amount), uuid.New(), uuid.New())
	require.NoError(t, err)
	return po
}

func poInvoice(t *testing.T, po *PurchaseOrder, netAmount float64, status InvoiceStatus) *Invoice {
	t.Helper()
	inv, err := NewInvoice(
		"SI-"+uuid.NewString()[:8],
		po.ID,
		valueobject.NewMoneyPHPFromFloat(netAmount),
		valueobject.NewMoneyPHPFromFloat(netAmount),
		time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		nil,
	)
	require.NoError(t, err)
	if status != InvoiceStatusDraft {
		require.NoError(t, inv.ApplyStatus(status, time.Now()))
	}
	return inv
}

func TestNewPurchaseOrder(t *testing.T) {
	t.Run("creates with outstanding equal to PO amount", func(t *testing.T) {
		po := newTestPurchaseOrder(t, 10000)
		assert.True(t, po.OutstandingAmount.Equal(po.PoAmount))
		assert.True(t, po.TotalInvoiced.IsZero())
		assert.False(t, po.IsFullyPaid())
	})

	t.Run("rejects empty PO number", func(t *testing.T) {
		_, err := NewPurchaseOrder("", valueobject.NewMoneyPHPFromFloat(100), uuid.New(), uuid.New())
		assert.Error(t, err)
	})

	t.Run("rejects nil vendor or project", func(t *testing.T) {
		_, err := NewPurchaseOrder("PO-1", valueobject.NewMoneyPHPFromFloat(100), uuid.Nil, uuid.New())
		assert.Error(t, err)
		_, err = NewPurchaseOrder("PO-1", valueobject.NewMoneyPHPFromFloat(100), uuid.New(), uuid.Nil)
		assert.Error(t, err)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		_, err := NewPurchaseOrder("PO-1", valueobject.NewMoneyPHPFromFloat(0), uuid.New(), uuid.New())
		assert.Error(t, err)
	})
}

func TestPurchaseOrderSyncFinancials(t *testing.T) {
	t.Run("recomputes totals from invoices", func(t *testing.T) {
		po := newTestPurchaseOrder(t, 10000)
		invoices := []*Invoice{
			poInvoice(t, po, 4000, InvoiceStatusPaid),
			poInvoice(t, po, 3000, InvoiceStatusPendingDisbursement),
			poInvoice(t, po, 1000, InvoiceStatusApproved),
		}

		po.SyncFinancials(invoices)

		assert.Equal(t, "8000", po.TotalInvoiced.String())
		assert.Equal(t, "4000", po.TotalPaid.String())
		assert.Equal(t, "6000", po.OutstandingAmount.String())
	})

	t.Run("outstanding invariant holds", func(t *testing.T) {
		po := newTestPurchaseOrder(t, 5000)
		invoices := []*Invoice{poInvoice(t, po, 5000, InvoiceStatusPaid)}

		po.SyncFinancials(invoices)

		assert.True(t, po.OutstandingAmount.Equal(po.PoAmount.Sub(po.TotalPaid)))
		assert.True(t, po.IsFullyPaid())
	})

	t.Run("skips rejected and cancelled invoices", func(t *testing.T) {
		po := newTestPurchaseOrder(t, 10000)
		invoices := []*Invoice{
			poInvoice(t, po, 2000, InvoiceStatusRejected),
			poInvoice(t, po, 3000, InvoiceStatusCancelled),
		}

		po.SyncFinancials(invoices)

		assert.True(t, po.TotalInvoiced.IsZero())
	})

	t.Run("ignores invoices of other purchase orders", func(t *testing.T) {
		po := newTestPurchaseOrder(t, 10000)
		other := newTestPurchaseOrder(t, 10000)
		invoices := []*Invoice{poInvoice(t, other, 2000, InvoiceStatusPaid)}

		po.SyncFinancials(invoices)

		assert.True(t, po.TotalPaid.IsZero())
	})
}
