package payables

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/payables/backend/internal/domain/payables"
	"github.com/payables/backend/internal/domain/shared"
)

func newRequisitionServiceForTest(
	requisitionRepo *MockCheckRequisitionRepository,
	invoiceRepo *MockInvoiceRepository,
	purchaseOrderRepo *MockPurchaseOrderRepository,
	opts ...RequisitionServiceOption,
) *RequisitionService {
	activityRepo := new(MockActivityLogRepository)
	activityRepo.On("Append", mock.Anything, mock.Anything).Return(nil).Maybe()
	return NewRequisitionService(requisitionRepo, invoiceRepo, purchaseOrderRepo,
		activityRepo, fakeTxManager{}, opts...)
}

func purchaseOrderFor(vendorID, projectID uuid.UUID) *payables.PurchaseOrder {
	return &payables.PurchaseOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PoNumber:          "PO-" + uuid.NewString()[:8],
		PoAmount:          decimal.NewFromInt(100000),
		VendorID:          vendorID,
		ProjectID:         projectID,
	}
}

func TestRequisitionServiceCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("sums net amounts and derives vendor and project from the purchase orders", func(t *testing.T) {
		requisitionRepo := new(MockCheckRequisitionRepository)
		invoiceRepo := new(MockInvoiceRepository)
		purchaseOrderRepo := new(MockPurchaseOrderRepository)
		svc := newRequisitionServiceForTest(requisitionRepo, invoiceRepo, purchaseOrderRepo)

		vendorID := uuid.New()
		projectID := uuid.New()
		po := purchaseOrderFor(vendorID, projectID)

		invA := newApprovedInvoice(1500)
		invB := newApprovedInvoice(2500)
		invA.PurchaseOrderID = po.ID
		invB.PurchaseOrderID = po.ID

		invoiceRepo.On("FindByIDs", mock.Anything, []uuid.UUID{invA.ID, invB.ID}).
			Return([]*payables.Invoice{invA, invB}, nil)
		purchaseOrderRepo.On("FindByID", mock.Anything, po.ID).Return(po, nil).Once()
		requisitionRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

		response, err := svc.Create(ctx, CreateRequisitionInput{
			RequisitionNumber: "CR-2026-0101",
			PayeeName:         "Acme Builders",
			RequestDate:       time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC),
			InvoiceIDs:        []uuid.UUID{invA.ID, invB.ID},
			ActorID:           uuid.New(),
		})

		require.NoError(t, err)
		assert.Equal(t, "draft", response.Status)
		assert.True(t, response.PhpAmount.Equal(decimal.NewFromInt(4000)))
		assert.Equal(t, vendorID, response.VendorID)
		assert.Equal(t, projectID, response.ProjectID)
		assert.Len(t, response.Invoices, 2)
		// the shared purchase order is loaded once, not per invoice
		purchaseOrderRepo.AssertExpectations(t)
	})

	t.Run("rejects invoices from different vendors", func(t *testing.T) {
		requisitionRepo := new(MockCheckRequisitionRepository)
		invoiceRepo := new(MockInvoiceRepository)
		purchaseOrderRepo := new(MockPurchaseOrderRepository)
		svc := newRequisitionServiceForTest(requisitionRepo, invoiceRepo, purchaseOrderRepo)

		projectID := uuid.New()
		poA := purchaseOrderFor(uuid.New(), projectID)
		poB := purchaseOrderFor(uuid.New(), projectID)

		invA := newApprovedInvoice(1000)
		invB := newApprovedInvoice(2000)
		invA.PurchaseOrderID = poA.ID
		invB.PurchaseOrderID = poB.ID

		invoiceRepo.On("FindByIDs", mock.Anything, []uuid.UUID{invA.ID, invB.ID}).
			Return([]*payables.Invoice{invA, invB}, nil)
		purchaseOrderRepo.On("FindByID", mock.Anything, poA.ID).Return(poA, nil)
		purchaseOrderRepo.On("FindByID", mock.Anything, poB.ID).Return(poB, nil)

		_, err := svc.Create(ctx, CreateRequisitionInput{
			RequisitionNumber: "CR-2026-0102",
			PayeeName:         "Acme Builders",
			RequestDate:       time.Now(),
			InvoiceIDs:        []uuid.UUID{invA.ID, invB.ID},
		})

		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", domainCode(t, err))
		requisitionRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("rejects an invoice that is not approved", func(t *testing.T) {
		requisitionRepo := new(MockCheckRequisitionRepository)
		invoiceRepo := new(MockInvoiceRepository)
		purchaseOrderRepo := new(MockPurchaseOrderRepository)
		svc := newRequisitionServiceForTest(requisitionRepo, invoiceRepo, purchaseOrderRepo)

		inv := newApprovedInvoice(1000)
		inv.Status = payables.InvoiceStatusDraft
		invoiceRepo.On("FindByIDs", mock.Anything, []uuid.UUID{inv.ID}).Return([]*payables.Invoice{inv}, nil)

		_, err := svc.Create(ctx, CreateRequisitionInput{
			RequisitionNumber: "CR-2026-0103",
			PayeeName:         "Acme Builders",
			RequestDate:       time.Now(),
			InvoiceIDs:        []uuid.UUID{inv.ID},
		})

		require.Error(t, err)
		assert.Equal(t, "INVALID_STATE", domainCode(t, err))
	})

	t.Run("reports missing invoices as not found", func(t *testing.T) {
		requisitionRepo := new(MockCheckRequisitionRepository)
		invoiceRepo := new(MockInvoiceRepository)
		purchaseOrderRepo := new(MockPurchaseOrderRepository)
		svc := newRequisitionServiceForTest(requisitionRepo, invoiceRepo, purchaseOrderRepo)

		inv := newApprovedInvoice(1000)
		missingID := uuid.New()
		invoiceRepo.On("FindByIDs", mock.Anything, []uuid.UUID{inv.ID, missingID}).
			Return([]*payables.Invoice{inv}, nil)

		_, err := svc.Create(ctx, CreateRequisitionInput{
			RequisitionNumber: "CR-2026-0104",
			PayeeName:         "Acme Builders",
			RequestDate:       time.Now(),
			InvoiceIDs:        []uuid.UUID{inv.ID, missingID},
		})

		require.Error(t, err)
		assert.Equal(t, "NOT_FOUND", domainCode(t, err))
	})
}

func TestRequisitionServiceApprovalFlow(t *testing.T) {
	ctx := context.Background()
	approvedAt := time.Date(2026, 8, 26, 11, 0, 0, 0, time.UTC)

	t.Run("submit then approve stamps the approval time", func(t *testing.T) {
		requisitionRepo := new(MockCheckRequisitionRepository)
		svc := newRequisitionServiceForTest(requisitionRepo, new(MockInvoiceRepository),
			new(MockPurchaseOrderRepository), WithRequisitionClock(func() time.Time { return approvedAt }))

		cr := newApprovedRequisition(1000)
		cr.Status = payables.RequisitionStatusDraft
		requisitionRepo.On("FindByID", mock.Anything, cr.ID).Return(cr, nil)
		requisitionRepo.On("Save", mock.Anything, cr).Return(nil)

		submitted, err := svc.Submit(ctx, cr.ID, uuid.New())
		require.NoError(t, err)
		assert.Equal(t, "submitted", submitted.Status)

		approved, err := svc.Approve(ctx, cr.ID, uuid.New())
		require.NoError(t, err)
		assert.Equal(t, "approved", approved.Status)
		require.NotNil(t, approved.ApprovedAt)
		assert.Equal(t, approvedAt, *approved.ApprovedAt)
	})

	t.Run("approving a draft fails", func(t *testing.T) {
		requisitionRepo := new(MockCheckRequisitionRepository)
		svc := newRequisitionServiceForTest(requisitionRepo, new(MockInvoiceRepository),
			new(MockPurchaseOrderRepository))

		cr := newApprovedRequisition(1000)
		cr.Status = payables.RequisitionStatusDraft
		requisitionRepo.On("FindByID", mock.Anything, cr.ID).Return(cr, nil)

		_, err := svc.Approve(ctx, cr.ID, uuid.New())
		require.Error(t, err)
		assert.Equal(t, "INVALID_STATE", domainCode(t, err))
	})

	t.Run("cancel is blocked once linked to a disbursement", func(t *testing.T) {
		requisitionRepo := new(MockCheckRequisitionRepository)
		svc := newRequisitionServiceForTest(requisitionRepo, new(MockInvoiceRepository),
			new(MockPurchaseOrderRepository))

		cr := newApprovedRequisition(1000)
		cr.Status = payables.RequisitionStatusProcessed
		requisitionRepo.On("FindByID", mock.Anything, cr.ID).Return(cr, nil)

		_, err := svc.Cancel(ctx, cr.ID, uuid.New())
		require.Error(t, err)
		assert.Equal(t, "INVALID_STATE", domainCode(t, err))
	})
}

func TestRequisitionServiceDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("processed requisitions cannot be deleted", func(t *testing.T) {
		requisitionRepo := new(MockCheckRequisitionRepository)
		svc := newRequisitionServiceForTest(requisitionRepo, new(MockInvoiceRepository),
			new(MockPurchaseOrderRepository))

		cr := newApprovedRequisition(1000)
		cr.Status = payables.RequisitionStatusProcessed
		requisitionRepo.On("FindByID", mock.Anything, cr.ID).Return(cr, nil)

		err := svc.Delete(ctx, cr.ID, uuid.New())
		require.Error(t, err)
		assert.Equal(t, "INVALID_STATE", domainCode(t, err))
		requisitionRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("draft requisitions delete cleanly", func(t *testing.T) {
		requisitionRepo := new(MockCheckRequisitionRepository)
		svc := newRequisitionServiceForTest(requisitionRepo, new(MockInvoiceRepository),
			new(MockPurchaseOrderRepository))

		cr := newApprovedRequisition(1000)
		cr.Status = payables.RequisitionStatusDraft
		requisitionRepo.On("FindByID", mock.Anything, cr.ID).Return(cr, nil)
		requisitionRepo.On("Delete", mock.Anything, cr.ID).Return(nil)

		require.NoError(t, svc.Delete(ctx, cr.ID, uuid.New()))
		requisitionRepo.AssertExpectations(t)
	})
}
