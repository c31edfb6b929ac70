package payables

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/payables/backend/internal/domain/audit"
	"github.com/payables/backend/internal/domain/payables"
	"github.com/payables/backend/internal/domain/shared"
)

// =============================================================================
// Shared test doubles for the payables application services
// =============================================================================

// fakeTxManager runs the unit of work directly, without a database
type fakeTxManager struct{}

func (fakeTxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fakeLockStore is an always-granting lock store that records acquisitions.
// Setting denied makes every Acquire report the lock as held elsewhere.
type fakeLockStore struct {
	mu       sync.Mutex
	denied   bool
	acquired []string
	released []string
}

func (f *fakeLockStore) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.denied {
		return false, nil
	}
	f.acquired = append(f.acquired, key)
	return true, nil
}

func (f *fakeLockStore) Release(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, key)
	return nil
}

func (f *fakeLockStore) Close() error { return nil }

// MockDisbursementRepository is a mock implementation of DisbursementRepository
type MockDisbursementRepository struct {
	mock.Mock
}

func (m *MockDisbursementRepository) FindByID(ctx context.Context, id uuid.UUID) (*payables.Disbursement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payables.Disbursement), args.Error(1)
}

func (m *MockDisbursementRepository) FindAll(ctx context.Context, filter payables.DisbursementFilter) ([]payables.Disbursement, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]payables.Disbursement), args.Get(1).(int64), args.Error(2)
}

func (m *MockDisbursementRepository) FindUnreleased(ctx context.Context) ([]*payables.Disbursement, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*payables.Disbursement), args.Error(1)
}

func (m *MockDisbursementRepository) FindByDateRange(ctx context.Context, from, to time.Time) ([]*payables.Disbursement, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]*payables.Disbursement), args.Error(1)
}

func (m *MockDisbursementRepository) ExistsByVoucherNumber(ctx context.Context, voucherNumber string, excludeID *uuid.UUID) (bool, error) {
	args := m.Called(ctx, voucherNumber, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDisbursementRepository) Summary(ctx context.Context, filter payables.DisbursementFilter) (*payables.DisbursementSummary, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payables.DisbursementSummary), args.Error(1)
}

func (m *MockDisbursementRepository) Save(ctx context.Context, disbursement *payables.Disbursement) error {
	args := m.Called(ctx, disbursement)
	return args.Error(0)
}

func (m *MockDisbursementRepository) SaveWithLock(ctx context.Context, disbursement *payables.Disbursement) error {
	args := m.Called(ctx, disbursement)
	return args.Error(0)
}

func (m *MockDisbursementRepository) ReplaceLinks(ctx context.Context, disbursementID uuid.UUID, requisitionIDs []uuid.UUID) error {
	args := m.Called(ctx, disbursementID, requisitionIDs)
	return args.Error(0)
}

func (m *MockDisbursementRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockCheckRequisitionRepository is a mock implementation of CheckRequisitionRepository
type MockCheckRequisitionRepository struct {
	mock.Mock
}

func (m *MockCheckRequisitionRepository) FindByID(ctx context.Context, id uuid.UUID) (*payables.CheckRequisition, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payables.CheckRequisition), args.Error(1)
}

func (m *MockCheckRequisitionRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*payables.CheckRequisition, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*payables.CheckRequisition), args.Error(1)
}

func (m *MockCheckRequisitionRepository) FindAll(ctx context.Context, filter payables.RequisitionFilter) ([]payables.CheckRequisition, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]payables.CheckRequisition), args.Get(1).(int64), args.Error(2)
}

func (m *MockCheckRequisitionRepository) FindUnassignedApproved(ctx context.Context) ([]*payables.CheckRequisition, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*payables.CheckRequisition), args.Error(1)
}

func (m *MockCheckRequisitionRepository) LinkedActiveDisbursement(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]uuid.UUID, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(map[uuid.UUID]uuid.UUID), args.Error(1)
}

func (m *MockCheckRequisitionRepository) Save(ctx context.Context, requisition *payables.CheckRequisition) error {
	args := m.Called(ctx, requisition)
	return args.Error(0)
}

func (m *MockCheckRequisitionRepository) ApplyStatusWrites(ctx context.Context, writes []payables.RequisitionStatusWrite) error {
	args := m.Called(ctx, writes)
	return args.Error(0)
}

func (m *MockCheckRequisitionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockInvoiceRepository is a mock implementation of InvoiceRepository
type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*payables.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payables.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*payables.Invoice, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*payables.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByPurchaseOrder(ctx context.Context, purchaseOrderID uuid.UUID) ([]*payables.Invoice, error) {
	args := m.Called(ctx, purchaseOrderID)
	return args.Get(0).([]*payables.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindAll(ctx context.Context, filter payables.InvoiceFilter) ([]payables.Invoice, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]payables.Invoice), args.Get(1).(int64), args.Error(2)
}

func (m *MockInvoiceRepository) Save(ctx context.Context, invoice *payables.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) ApplyStatusWrites(ctx context.Context, writes []payables.InvoiceStatusWrite, at time.Time) error {
	args := m.Called(ctx, writes, at)
	return args.Error(0)
}

func (m *MockInvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockPurchaseOrderRepository is a mock implementation of PurchaseOrderRepository
type MockPurchaseOrderRepository struct {
	mock.Mock
}

func (m *MockPurchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*payables.PurchaseOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payables.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderRepository) FindByPoNumber(ctx context.Context, poNumber string) (*payables.PurchaseOrder, error) {
	args := m.Called(ctx, poNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payables.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderRepository) FindAll(ctx context.Context, filter payables.PurchaseOrderFilter) ([]payables.PurchaseOrder, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]payables.PurchaseOrder), args.Get(1).(int64), args.Error(2)
}

func (m *MockPurchaseOrderRepository) Save(ctx context.Context, po *payables.PurchaseOrder) error {
	args := m.Called(ctx, po)
	return args.Error(0)
}

func (m *MockPurchaseOrderRepository) SaveWithLock(ctx context.Context, po *payables.PurchaseOrder) error {
	args := m.Called(ctx, po)
	return args.Error(0)
}

func (m *MockPurchaseOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockVendorRepository is a mock implementation of VendorRepository
type MockVendorRepository struct {
	mock.Mock
}

func (m *MockVendorRepository) FindByID(ctx context.Context, id uuid.UUID) (*payables.Vendor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payables.Vendor), args.Error(1)
}

func (m *MockVendorRepository) FindAll(ctx context.Context, filter shared.Filter) ([]payables.Vendor, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]payables.Vendor), args.Get(1).(int64), args.Error(2)
}

func (m *MockVendorRepository) Save(ctx context.Context, vendor *payables.Vendor) error {
	args := m.Called(ctx, vendor)
	return args.Error(0)
}

func (m *MockVendorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockProjectRepository is a mock implementation of ProjectRepository
type MockProjectRepository struct {
	mock.Mock
}

func (m *MockProjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*payables.Project, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payables.Project), args.Error(1)
}

func (m *MockProjectRepository) FindAll(ctx context.Context, filter shared.Filter) ([]payables.Project, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]payables.Project), args.Get(1).(int64), args.Error(2)
}

func (m *MockProjectRepository) Save(ctx context.Context, project *payables.Project) error {
	args := m.Called(ctx, project)
	return args.Error(0)
}

func (m *MockProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockActivityLogRepository is a mock implementation of ActivityLogRepository
type MockActivityLogRepository struct {
	mock.Mock
}

func (m *MockActivityLogRepository) Append(ctx context.Context, entry *audit.ActivityLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockActivityLogRepository) FindByEntity(ctx context.Context, entityType string, entityID uuid.UUID, filter shared.Filter) ([]audit.ActivityLog, int64, error) {
	args := m.Called(ctx, entityType, entityID, filter)
	return args.Get(0).([]audit.ActivityLog), args.Get(1).(int64), args.Error(2)
}

// =============================================================================
// Fixture helpers
// =============================================================================

func newApprovedRequisition(amount int64) *payables.CheckRequisition {
	inv := newApprovedInvoice(amount)
	cr := &payables.CheckRequisition{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		RequisitionNumber: "CR-" + uuid.NewString()[:8],
		PayeeName:         "Acme Builders",
		PhpAmount:         decimal.NewFromInt(amount),
		Status:            payables.RequisitionStatusApproved,
		RequestDate:       time.Now().AddDate(0, 0, -10),
		VendorID:          uuid.New(),
		ProjectID:         uuid.New(),
		Invoices:          []*payables.Invoice{inv},
	}
	return cr
}

func newApprovedInvoice(amount int64) *payables.Invoice {
	return &payables.Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SiNumber:          "SI-" + uuid.NewString()[:8],
		PurchaseOrderID:   uuid.New(),
		InvoiceAmount:     decimal.NewFromInt(amount),
		NetAmount:         decimal.NewFromInt(amount),
		Currency:          "PHP",
		Status:            payables.InvoiceStatusApproved,
		SiDate:            time.Now().AddDate(0, 0, -10),
	}
}

func newUnreleasedDisbursement(requisitions ...*payables.CheckRequisition) *payables.Disbursement {
	d := &payables.Disbursement{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Remarks:           "",
		Requisitions:      requisitions,
	}
	for _, cr := range requisitions {
		cr.Status = payables.RequisitionStatusProcessed
		for _, inv := range cr.Invoices {
			inv.Status = payables.InvoiceStatusPendingDisbursement
		}
	}
	return d
}
