package payables

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/payables/backend/internal/domain/shared/valueobject"
)

func newApprovedRequisition(t *testing.T, amount float64, invoices ...*Invoice) *CheckRequisition {
	t.Helper()
	if len(invoices) == 0 {
		invoices = []*Invoice{newTestInvoice(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))}
	}
	cr, err := NewCheckRequisition(
		"CR-"+uuid.NewString()[:8],
		"Acme Supplies Inc.",
		valueobject.NewMoneyPHPFromFloat(amount),
		time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		uuid.New(),
		uuid.New(),
		invoices,
	)
	require.NoError(t, err)
	require.NoError(t, cr.Submit())
	require.NoError(t, cr.Approve(time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC)))
	return cr
}

func TestNewCheckRequisition(t *testing.T) {
	invoices := []*Invoice{newTestInvoice(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))}
	requestDate := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	t.Run("creates draft requisition", func(t *testing.T) {
		cr, err := NewCheckRequisition("CR-001", "Acme", valueobject.NewMoneyPHPFromFloat(1000), requestDate, uuid.New(), uuid.New(), invoices)
		require.NoError(t, err)
		assert.Equal(t, RequisitionStatusDraft, cr.Status)
		assert.Nil(t, cr.ApprovedAt)
	})

	t.Run("rejects empty invoice set", func(t *testing.T) {
		_, err := NewCheckRequisition("CR-001", "Acme", valueobject.NewMoneyPHPFromFloat(1000), requestDate, uuid.New(), uuid.New(), nil)
		assert.Error(t, err)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		_, err := NewCheckRequisition("CR-001", "Acme", valueobject.NewMoneyPHPFromFloat(0), requestDate, uuid.New(), uuid.New(), invoices)
		assert.Error(t, err)
	})

	t.Run("rejects empty payee", func(t *testing.T) {
		_, err := NewCheckRequisition("CR-001", "", valueobject.NewMoneyPHPFromFloat(1000), requestDate, uuid.New(), uuid.New(), invoices)
		assert.Error(t, err)
	})
}

func TestRequisitionApprovalFlow(t *testing.T) {
	t.Run("approve stamps ApprovedAt", func(t *testing.T) {
		cr := newApprovedRequisition(t, 1000)
		assert.Equal(t, RequisitionStatusApproved, cr.Status)
		require.NotNil(t, cr.ApprovedAt)
		assert.True(t, cr.Status.CanLink())
	})

	t.Run("cannot approve a draft", func(t *testing.T) {
		cr, err := NewCheckRequisition("CR-001", "Acme", valueobject.NewMoneyPHPFromFloat(1000),
			time.Now(), uuid.New(), uuid.New(),
			[]*Invoice{newTestInvoice(t, time.Now())})
		require.NoError(t, err)
		assert.Error(t, cr.Approve(time.Now()))
	})

	t.Run("cannot cancel a processed requisition", func(t *testing.T) {
		cr := newApprovedRequisition(t, 1000)
		require.NoError(t, cr.ApplyStatus(RequisitionStatusProcessed))
		assert.Error(t, cr.Cancel())
	})
}

func TestRequisitionApplyStatus(t *testing.T) {
	cr := newApprovedRequisition(t, 1000)

	require.NoError(t, cr.ApplyStatus(RequisitionStatusProcessed))
	assert.Equal(t, RequisitionStatusProcessed, cr.Status)
	assert.False(t, cr.Status.CanLink())

	require.NoError(t, cr.ApplyStatus(RequisitionStatusPaid))
	assert.True(t, cr.Status.IsTerminal())

	require.NoError(t, cr.ApplyStatus(RequisitionStatusApproved))
	assert.Equal(t, RequisitionStatusApproved, cr.Status)

	assert.Error(t, cr.ApplyStatus(RequisitionStatus("bogus")))
}

func TestRequisitionMaxInvoiceAgingDays(t *testing.T) {
	old := newTestInvoice(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	recent := newTestInvoice(t, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))
	cr := newApprovedRequisition(t, 2000, old, recent)

	now := time.Date(2025, 5, 11, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 130, cr.MaxInvoiceAgingDays(now))
}
