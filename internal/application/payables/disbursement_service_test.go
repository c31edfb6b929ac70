package payables

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/payables/backend/internal/domain/payables"
	"github.com/payables/backend/internal/domain/shared"
)

func newDisbursementServiceForTest(
	disbursementRepo *MockDisbursementRepository,
	requisitionRepo *MockCheckRequisitionRepository,
	invoiceRepo *MockInvoiceRepository,
	opts ...DisbursementServiceOption,
) (*DisbursementService, *MockActivityLogRepository, *fakeLockStore) {
	activityRepo := new(MockActivityLogRepository)
	activityRepo.On("Append", mock.Anything, mock.Anything).Return(nil).Maybe()
	locks := &fakeLockStore{}
	svc := NewDisbursementService(disbursementRepo, requisitionRepo, invoiceRepo,
		activityRepo, fakeTxManager{}, locks, opts...)
	return svc, activityRepo, locks
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr), "expected a domain error, got %v", err)
	return domainErr.Code
}

func TestDisbursementServiceCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("links approved requisitions and cascades processed status", func(t *testing.T) {
		disbursementRepo := new(MockDisbursementRepository)
		requisitionRepo := new(MockCheckRequisitionRepository)
		invoiceRepo := new(MockInvoiceRepository)
		svc, _, _ := newDisbursementServiceForTest(disbursementRepo, requisitionRepo, invoiceRepo)

		cr := newApprovedRequisition(1500)
		voucher := "CV-2026-0001"

		disbursementRepo.On("ExistsByVoucherNumber", mock.Anything, voucher, (*uuid.UUID)(nil)).Return(false, nil)
		requisitionRepo.On("FindByIDs", mock.Anything, []uuid.UUID{cr.ID}).Return([]*payables.CheckRequisition{cr}, nil)
		requisitionRepo.On("LinkedActiveDisbursement", mock.Anything, []uuid.UUID{cr.ID}).Return(map[uuid.UUID]uuid.UUID{}, nil)
		disbursementRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
		disbursementRepo.On("ReplaceLinks", mock.Anything, mock.Anything, []uuid.UUID{cr.ID}).Return(nil)
		requisitionRepo.On("ApplyStatusWrites", mock.Anything, mock.MatchedBy(func(writes []payables.RequisitionStatusWrite) bool {
			return len(writes) == 1 &&
				writes[0].RequisitionID == cr.ID &&
				writes[0].Status == payables.RequisitionStatusProcessed
		})).Return(nil)
		invoiceRepo.On("ApplyStatusWrites", mock.Anything, mock.MatchedBy(func(writes []payables.InvoiceStatusWrite) bool {
			return len(writes) == 1 && writes[0].Status == payables.InvoiceStatusPendingDisbursement
		}), mock.Anything).Return(nil)

		response, err := svc.Create(ctx, CreateDisbursementInput{
			CheckVoucherNumber: &voucher,
			RequisitionIDs:     []uuid.UUID{cr.ID},
			ActorID:            uuid.New(),
		})

		require.NoError(t, err)
		assert.Equal(t, "draft", response.State)
		assert.False(t, response.CanUndo)
		assert.True(t, response.TotalAmount.Equal(cr.PhpAmount))
		disbursementRepo.AssertExpectations(t)
		requisitionRepo.AssertExpectations(t)
		invoiceRepo.AssertExpectations(t)
	})

	t.Run("rejects a voucher number already in use", func(t *testing.T) {
		disbursementRepo := new(MockDisbursementRepository)
		requisitionRepo := new(MockCheckRequisitionRepository)
		invoiceRepo := new(MockInvoiceRepository)
		svc, _, _ := newDisbursementServiceForTest(disbursementRepo, requisitionRepo, invoiceRepo)

		voucher := "CV-2026-0002"
		disbursementRepo.On("ExistsByVoucherNumber", mock.Anything, voucher, (*uuid.UUID)(nil)).Return(true, nil)

		_, err := svc.Create(ctx, CreateDisbursementInput{
			CheckVoucherNumber: &voucher,
			RequisitionIDs:     []uuid.UUID{uuid.New()},
		})

		require.Error(t, err)
		assert.Equal(t, "CONFLICT", domainCode(t, err))
		disbursementRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("rejects requisitions linked to another disbursement", func(t *testing.T) {
		disbursementRepo := new(MockDisbursementRepository)
		requisitionRepo := new(MockCheckRequisitionRepository)
		invoiceRepo := new(MockInvoiceRepository)
		svc, _, _ := newDisbursementServiceForTest(disbursementRepo, requisitionRepo, invoiceRepo)

		cr := newApprovedRequisition(900)
		requisitionRepo.On("FindByIDs", mock.Anything, []uuid.UUID{cr.ID}).Return([]*payables.CheckRequisition{cr}, nil)
		requisitionRepo.On("LinkedActiveDisbursement", mock.Anything, []uuid.UUID{cr.ID}).
			Return(map[uuid.UUID]uuid.UUID{cr.ID: uuid.New()}, nil)

		_, err := svc.Create(ctx, CreateDisbursementInput{RequisitionIDs: []uuid.UUID{cr.ID}})

		require.Error(t, err)
		assert.Equal(t, "CONFLICT", domainCode(t, err))
	})

	t.Run("cascades straight to paid when created already released", func(t *testing.T) {
		disbursementRepo := new(MockDisbursementRepository)
		requisitionRepo := new(MockCheckRequisitionRepository)
		invoiceRepo := new(MockInvoiceRepository)
		svc, _, _ := newDisbursementServiceForTest(disbursementRepo, requisitionRepo, invoiceRepo)

		cr := newApprovedRequisition(2400)
		releasedAt := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)

		requisitionRepo.On("FindByIDs", mock.Anything, []uuid.UUID{cr.ID}).Return([]*payables.CheckRequisition{cr}, nil)
		requisitionRepo.On("LinkedActiveDisbursement", mock.Anything, []uuid.UUID{cr.ID}).Return(map[uuid.UUID]uuid.UUID{}, nil)
		disbursementRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
		disbursementRepo.On("ReplaceLinks", mock.Anything, mock.Anything, []uuid.UUID{cr.ID}).Return(nil)
		requisitionRepo.On("ApplyStatusWrites", mock.Anything, mock.MatchedBy(func(writes []payables.RequisitionStatusWrite) bool {
			return len(writes) == 1 && writes[0].Status == payables.RequisitionStatusPaid
		})).Return(nil)
		invoiceRepo.On("ApplyStatusWrites", mock.Anything, mock.MatchedBy(func(writes []payables.InvoiceStatusWrite) bool {
			return len(writes) == 1 && writes[0].Status == payables.InvoiceStatusPaid
		}), releasedAt).Return(nil)

		response, err := svc.Create(ctx, CreateDisbursementInput{
			DateCheckReleasedToVendor: &releasedAt,
			RequisitionIDs:            []uuid.UUID{cr.ID},
		})

		require.NoError(t, err)
		assert.Equal(t, "released", response.State)
		invoiceRepo.AssertExpectations(t)
	})

	t.Run("requires at least one requisition", func(t *testing.T) {
		svc, _, _ := newDisbursementServiceForTest(
			new(MockDisbursementRepository), new(MockCheckRequisitionRepository), new(MockInvoiceRepository))

		_, err := svc.Create(ctx, CreateDisbursementInput{})

		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", domainCode(t, err))
	})
}

func TestDisbursementServiceUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("conflicts when the linkage diverged since the form was loaded", func(t *testing.T) {
		disbursementRepo := new(MockDisbursementRepository)
		requisitionRepo := new(MockCheckRequisitionRepository)
		invoiceRepo := new(MockInvoiceRepository)
		svc, _, _ := newDisbursementServiceForTest(disbursementRepo, requisitionRepo, invoiceRepo)

		crA := newApprovedRequisition(1000)
		crB := newApprovedRequisition(2000)
		d := newUnreleasedDisbursement(crA, crB)
		disbursementRepo.On("FindByID", mock.Anything, d.ID).Return(d, nil)

		_, err := svc.Update(ctx, d.ID, UpdateDisbursementInput{
			RequisitionIDs:         []uuid.UUID{crA.ID},
			OriginalRequisitionIDs: []uuid.UUID{crA.ID}, // form never saw crB
		})

		require.Error(t, err)
		assert.Equal(t, "CONFLICT", domainCode(t, err))
		disbursementRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("reverts removed requisitions and processes added ones", func(t *testing.T) {
		disbursementRepo := new(MockDisbursementRepository)
		requisitionRepo := new(MockCheckRequisitionRepository)
		invoiceRepo := new(MockInvoiceRepository)
		svc, _, _ := newDisbursementServiceForTest(disbursementRepo, requisitionRepo, invoiceRepo)

		crOld := newApprovedRequisition(1000)
		crNew := newApprovedRequisition(3000)
		d := newUnreleasedDisbursement(crOld)

		disbursementRepo.On("FindByID", mock.Anything, d.ID).Return(d, nil)
		requisitionRepo.On("FindByIDs", mock.Anything, []uuid.UUID{crNew.ID}).Return([]*payables.CheckRequisition{crNew}, nil)
		requisitionRepo.On("LinkedActiveDisbursement", mock.Anything, []uuid.UUID{crNew.ID}).Return(map[uuid.UUID]uuid.UUID{}, nil)
		requisitionRepo.On("ApplyStatusWrites", mock.Anything, mock.MatchedBy(func(writes []payables.RequisitionStatusWrite) bool {
			if len(writes) != 2 {
				return false
			}
			byID := map[uuid.UUID]payables.RequisitionStatus{}
			for _, w := range writes {
				byID[w.RequisitionID] = w.Status
			}
			return byID[crOld.ID] == payables.RequisitionStatusApproved &&
				byID[crNew.ID] == payables.RequisitionStatusProcessed
		})).Return(nil)
		invoiceRepo.On("ApplyStatusWrites", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		disbursementRepo.On("SaveWithLock", mock.Anything, d).Return(nil)
		disbursementRepo.On("ReplaceLinks", mock.Anything, d.ID, []uuid.UUID{crNew.ID}).Return(nil)

		response, err := svc.Update(ctx, d.ID, UpdateDisbursementInput{
			RequisitionIDs:         []uuid.UUID{crNew.ID},
			OriginalRequisitionIDs: []uuid.UUID{crOld.ID},
			Remarks:                "swapped payee",
		})

		require.NoError(t, err)
		assert.Len(t, response.Requisitions, 1)
		assert.Equal(t, crNew.ID, response.Requisitions[0].ID)
		assert.Equal(t, "swapped payee", response.Remarks)
		requisitionRepo.AssertExpectations(t)
	})

	t.Run("rejects an unapproved added requisition", func(t *testing.T) {
		disbursementRepo := new(MockDisbursementRepository)
		requisitionRepo := new(MockCheckRequisitionRepository)
		invoiceRepo := new(MockInvoiceRepository)
		svc, _, _ := newDisbursementServiceForTest(disbursementRepo, requisitionRepo, invoiceRepo)

		crOld := newApprovedRequisition(1000)
		crDraft := newApprovedRequisition(500)
		crDraft.Status = payables.RequisitionStatusDraft
		d := newUnreleasedDisbursement(crOld)

		disbursementRepo.On("FindByID", mock.Anything, d.ID).Return(d, nil)
		requisitionRepo.On("FindByIDs", mock.Anything, []uuid.UUID{crDraft.ID}).Return([]*payables.CheckRequisition{crDraft}, nil)

		_, err := svc.Update(ctx, d.ID, UpdateDisbursementInput{
			RequisitionIDs:         []uuid.UUID{crOld.ID, crDraft.ID},
			OriginalRequisitionIDs: []uuid.UUID{crOld.ID},
		})

		require.Error(t, err)
		assert.Equal(t, "REQUISITION_NOT_APPROVED", domainCode(t, err))
	})
}

func TestDisbursementServiceReleaseAndUndo(t *testing.T) {
	ctx := context.Background()
	releaseTime := time.Date(2026, 8, 25, 9, 30, 0, 0, time.UTC)

	t.Run("release then undo inside the window restores statuses", func(t *testing.T) {
		disbursementRepo := new(MockDisbursementRepository)
		requisitionRepo := new(MockCheckRequisitionRepository)
		invoiceRepo := new(MockInvoiceRepository)

		clock := releaseTime
		svc, _, locks := newDisbursementServiceForTest(disbursementRepo, requisitionRepo, invoiceRepo,
			WithClock(func() time.Time { return clock }))

		cr := newApprovedRequisition(5000)
		d := newUnreleasedDisbursement(cr)

		disbursementRepo.On("FindByID", mock.Anything, d.ID).Return(d, nil)
		disbursementRepo.On("SaveWithLock", mock.Anything, d).Return(nil)
		requisitionRepo.On("ApplyStatusWrites", mock.Anything, mock.MatchedBy(func(writes []payables.RequisitionStatusWrite) bool {
			return len(writes) == 1 && writes[0].Status == payables.RequisitionStatusPaid
		})).Return(nil).Once()
		invoiceRepo.On("ApplyStatusWrites", mock.Anything, mock.MatchedBy(func(writes []payables.InvoiceStatusWrite) bool {
			return len(writes) == 1 && writes[0].Status == payables.InvoiceStatusPaid
		}), releaseTime).Return(nil).Once()

		released, err := svc.Release(ctx, d.ID, ReleaseInput{ActorID: uuid.New()})
		require.NoError(t, err)
		assert.Equal(t, "released", released.State)
		assert.True(t, released.CanUndo)
		require.NotNil(t, released.UndoExpiresAt)
		assert.Equal(t, releaseTime.Add(payables.DefaultUndoWindow), *released.UndoExpiresAt)

		// 10 seconds later, still inside the 30 second window
		clock = releaseTime.Add(10 * time.Second)

		requisitionRepo.On("ApplyStatusWrites", mock.Anything, mock.MatchedBy(func(writes []payables.RequisitionStatusWrite) bool {
			return len(writes) == 1 && writes[0].Status == payables.RequisitionStatusProcessed
		})).Return(nil).Once()
		invoiceRepo.On("ApplyStatusWrites", mock.Anything, mock.MatchedBy(func(writes []payables.InvoiceStatusWrite) bool {
			return len(writes) == 1 && writes[0].Status == payables.InvoiceStatusPendingDisbursement
		}), mock.Anything).Return(nil).Once()

		undone, err := svc.UndoRelease(ctx, d.ID, uuid.New())
		require.NoError(t, err)
		assert.NotEqual(t, "released", undone.State)
		assert.Nil(t, undone.DateCheckReleasedToVendor)
		assert.Nil(t, undone.UndoExpiresAt)
		assert.False(t, undone.CanUndo)

		// both operations went through the per-disbursement lock
		assert.Len(t, locks.acquired, 2)
		assert.Len(t, locks.released, 2)
		requisitionRepo.AssertExpectations(t)
		invoiceRepo.AssertExpectations(t)
	})

	t.Run("back-dated release still gets the full undo window", func(t *testing.T) {
		disbursementRepo := new(MockDisbursementRepository)
		requisitionRepo := new(MockCheckRequisitionRepository)
		invoiceRepo := new(MockInvoiceRepository)

		clock := releaseTime
		svc, _, _ := newDisbursementServiceForTest(disbursementRepo, requisitionRepo, invoiceRepo,
			WithClock(func() time.Time { return clock }))

		cr := newApprovedRequisition(5000)
		d := newUnreleasedDisbursement(cr)
		yesterday := releaseTime.Add(-24 * time.Hour)

		disbursementRepo.On("FindByID", mock.Anything, d.ID).Return(d, nil)
		disbursementRepo.On("SaveWithLock", mock.Anything, d).Return(nil)
		requisitionRepo.On("ApplyStatusWrites", mock.Anything, mock.Anything).Return(nil)
		invoiceRepo.On("ApplyStatusWrites", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		released, err := svc.Release(ctx, d.ID, ReleaseInput{
			ReleaseDate: &yesterday,
			ActorID:     uuid.New(),
		})
		require.NoError(t, err)
		require.NotNil(t, released.DateCheckReleasedToVendor)
		assert.Equal(t, yesterday, *released.DateCheckReleasedToVendor)

		// the undo deadline is anchored to the server clock, not the
		// back-dated release date
		require.NotNil(t, released.UndoExpiresAt)
		assert.Equal(t, releaseTime.Add(payables.DefaultUndoWindow), *released.UndoExpiresAt)
		assert.True(t, released.CanUndo)

		clock = releaseTime.Add(10 * time.Second)
		undone, err := svc.UndoRelease(ctx, d.ID, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, undone.DateCheckReleasedToVendor)
	})

	t.Run("undo after the window expired fails and forces the correction path", func(t *testing.T) {
		disbursementRepo := new(MockDisbursementRepository)
		requisitionRepo := new(MockCheckRequisitionRepository)
		invoiceRepo := new(MockInvoiceRepository)

		clock := releaseTime
		svc, _, _ := newDisbursementServiceForTest(disbursementRepo, requisitionRepo, invoiceRepo,
			WithClock(func() time.Time { return clock }))

		cr := newApprovedRequisition(5000)
		d := newUnreleasedDisbursement(cr)
		require.NoError(t, d.Release(releaseTime, releaseTime, payables.DefaultUndoWindow, ""))

		disbursementRepo.On("FindByID", mock.Anything, d.ID).Return(d, nil)

		clock = releaseTime.Add(payables.DefaultUndoWindow + time.Second)

		_, err := svc.UndoRelease(ctx, d.ID, uuid.New())
		require.Error(t, err)
		assert.Equal(t, "UNDO_WINDOW_EXPIRED", domainCode(t, err))
		disbursementRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)

		// the correction path still works, with a reason
		requisitionRepo.On("ApplyStatusWrites", mock.Anything, mock.Anything).Return(nil)
		invoiceRepo.On("ApplyStatusWrites", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		disbursementRepo.On("SaveWithLock", mock.Anything, d).Return(nil)

		corrected, err := svc.CorrectRelease(ctx, d.ID, CorrectReleaseInput{
			Reason:  "check returned by bank",
			ActorID: uuid.New(),
		})
		require.NoError(t, err)
		assert.Nil(t, corrected.DateCheckReleasedToVendor)
	})

	t.Run("correction without a reason is rejected", func(t *testing.T) {
		disbursementRepo := new(MockDisbursementRepository)
		requisitionRepo := new(MockCheckRequisitionRepository)
		invoiceRepo := new(MockInvoiceRepository)
		svc, _, _ := newDisbursementServiceForTest(disbursementRepo, requisitionRepo, invoiceRepo)

		cr := newApprovedRequisition(100)
		d := newUnreleasedDisbursement(cr)
		require.NoError(t, d.Release(releaseTime, releaseTime, payables.DefaultUndoWindow, ""))
		disbursementRepo.On("FindByID", mock.Anything, d.ID).Return(d, nil)

		_, err := svc.CorrectRelease(ctx, d.ID, CorrectReleaseInput{})
		require.Error(t, err)
		assert.Equal(t, "INVALID_REASON", domainCode(t, err))
	})

	t.Run("release is rejected while another release operation holds the lock", func(t *testing.T) {
		disbursementRepo := new(MockDisbursementRepository)
		requisitionRepo := new(MockCheckRequisitionRepository)
		invoiceRepo := new(MockInvoiceRepository)
		svc, _, locks := newDisbursementServiceForTest(disbursementRepo, requisitionRepo, invoiceRepo)
		locks.denied = true

		_, err := svc.Release(ctx, uuid.New(), ReleaseInput{})
		require.Error(t, err)
		assert.Equal(t, "CONFLICT", domainCode(t, err))
		disbursementRepo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("releasing an already released disbursement fails", func(t *testing.T) {
		disbursementRepo := new(MockDisbursementRepository)
		requisitionRepo := new(MockCheckRequisitionRepository)
		invoiceRepo := new(MockInvoiceRepository)
		svc, _, _ := newDisbursementServiceForTest(disbursementRepo, requisitionRepo, invoiceRepo)

		cr := newApprovedRequisition(100)
		d := newUnreleasedDisbursement(cr)
		require.NoError(t, d.Release(releaseTime, releaseTime, payables.DefaultUndoWindow, ""))
		disbursementRepo.On("FindByID", mock.Anything, d.ID).Return(d, nil)

		_, err := svc.Release(ctx, d.ID, ReleaseInput{})
		require.Error(t, err)
		assert.Equal(t, "ALREADY_RELEASED", domainCode(t, err))
	})
}

func TestDisbursementServiceBulkRelease(t *testing.T) {
	ctx := context.Background()
	releaseTime := time.Date(2026, 8, 25, 9, 30, 0, 0, time.UTC)

	t.Run("one failure never blocks the other items", func(t *testing.T) {
		disbursementRepo := new(MockDisbursementRepository)
		requisitionRepo := new(MockCheckRequisitionRepository)
		invoiceRepo := new(MockInvoiceRepository)
		svc, _, _ := newDisbursementServiceForTest(disbursementRepo, requisitionRepo, invoiceRepo,
			WithClock(func() time.Time { return releaseTime }))

		good := newUnreleasedDisbursement(newApprovedRequisition(1000))
		alreadyReleased := newUnreleasedDisbursement(newApprovedRequisition(2000))
		require.NoError(t, alreadyReleased.Release(releaseTime.Add(-time.Hour), releaseTime.Add(-time.Hour), payables.DefaultUndoWindow, ""))

		disbursementRepo.On("FindByID", mock.Anything, good.ID).Return(good, nil)
		disbursementRepo.On("FindByID", mock.Anything, alreadyReleased.ID).Return(alreadyReleased, nil)
		disbursementRepo.On("SaveWithLock", mock.Anything, good).Return(nil)
		requisitionRepo.On("ApplyStatusWrites", mock.Anything, mock.Anything).Return(nil)
		invoiceRepo.On("ApplyStatusWrites", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		result, err := svc.BulkRelease(ctx, BulkReleaseInput{
			DisbursementIDs: []uuid.UUID{good.ID, alreadyReleased.ID},
			ActorID:         uuid.New(),
		})

		require.NoError(t, err)
		assert.Equal(t, 1, result.SuccessCount)
		require.Len(t, result.Released, 1)
		assert.Equal(t, good.ID, result.Released[0].ID)
		require.Len(t, result.Errors, 1)
		assert.Equal(t, alreadyReleased.ID, result.Errors[0].DisbursementID)
		assert.Equal(t, "ALREADY_RELEASED", result.Errors[0].Code)
	})

	t.Run("requires at least one disbursement", func(t *testing.T) {
		svc, _, _ := newDisbursementServiceForTest(
			new(MockDisbursementRepository), new(MockCheckRequisitionRepository), new(MockInvoiceRepository))

		_, err := svc.BulkRelease(ctx, BulkReleaseInput{})
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", domainCode(t, err))
	})
}

func TestDisbursementServiceCheckVoucherUnique(t *testing.T) {
	ctx := context.Background()

	t.Run("reports availability", func(t *testing.T) {
		disbursementRepo := new(MockDisbursementRepository)
		svc, _, _ := newDisbursementServiceForTest(disbursementRepo,
			new(MockCheckRequisitionRepository), new(MockInvoiceRepository))

		disbursementRepo.On("ExistsByVoucherNumber", mock.Anything, "CV-FREE", (*uuid.UUID)(nil)).Return(false, nil)
		disbursementRepo.On("ExistsByVoucherNumber", mock.Anything, "CV-TAKEN", (*uuid.UUID)(nil)).Return(true, nil)

		unique, err := svc.CheckVoucherUnique(ctx, "CV-FREE", nil)
		require.NoError(t, err)
		assert.True(t, unique)

		unique, err = svc.CheckVoucherUnique(ctx, "CV-TAKEN", nil)
		require.NoError(t, err)
		assert.False(t, unique)
	})

	t.Run("skips the disbursement being edited", func(t *testing.T) {
		disbursementRepo := new(MockDisbursementRepository)
		svc, _, _ := newDisbursementServiceForTest(disbursementRepo,
			new(MockCheckRequisitionRepository), new(MockInvoiceRepository))

		editedID := uuid.New()
		disbursementRepo.On("ExistsByVoucherNumber", mock.Anything, "CV-MINE", &editedID).Return(false, nil)

		unique, err := svc.CheckVoucherUnique(ctx, "CV-MINE", &editedID)
		require.NoError(t, err)
		assert.True(t, unique)
	})

	t.Run("rejects an empty voucher", func(t *testing.T) {
		svc, _, _ := newDisbursementServiceForTest(new(MockDisbursementRepository),
			new(MockCheckRequisitionRepository), new(MockInvoiceRepository))

		_, err := svc.CheckVoucherUnique(ctx, "", nil)
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", domainCode(t, err))
	})
}

func TestDisbursementServiceDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("reverts linked requisitions before deleting", func(t *testing.T) {
		disbursementRepo := new(MockDisbursementRepository)
		requisitionRepo := new(MockCheckRequisitionRepository)
		invoiceRepo := new(MockInvoiceRepository)
		svc, _, _ := newDisbursementServiceForTest(disbursementRepo, requisitionRepo, invoiceRepo)

		cr := newApprovedRequisition(1200)
		d := newUnreleasedDisbursement(cr)

		disbursementRepo.On("FindByID", mock.Anything, d.ID).Return(d, nil)
		requisitionRepo.On("ApplyStatusWrites", mock.Anything, mock.MatchedBy(func(writes []payables.RequisitionStatusWrite) bool {
			return len(writes) == 1 && writes[0].Status == payables.RequisitionStatusApproved
		})).Return(nil)
		invoiceRepo.On("ApplyStatusWrites", mock.Anything, mock.MatchedBy(func(writes []payables.InvoiceStatusWrite) bool {
			return len(writes) == 1 && writes[0].Status == payables.InvoiceStatusApproved
		}), mock.Anything).Return(nil)
		disbursementRepo.On("Delete", mock.Anything, d.ID).Return(nil)

		err := svc.Delete(ctx, d.ID, uuid.New())
		require.NoError(t, err)
		disbursementRepo.AssertExpectations(t)
		requisitionRepo.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		disbursementRepo := new(MockDisbursementRepository)
		svc, _, _ := newDisbursementServiceForTest(disbursementRepo,
			new(MockCheckRequisitionRepository), new(MockInvoiceRepository))

		id := uuid.New()
		disbursementRepo.On("FindByID", mock.Anything, id).Return(nil, nil)

		err := svc.Delete(ctx, id, uuid.New())
		require.Error(t, err)
		assert.Equal(t, "NOT_FOUND", domainCode(t, err))
	})
}
