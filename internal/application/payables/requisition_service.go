package payables

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/payables/backend/internal/domain/audit"
	"github.com/payables/backend/internal/domain/payables"
	"github.com/payables/backend/internal/domain/shared"
	"github.com/payables/backend/internal/domain/shared/valueobject"
	"github.com/payables/backend/internal/infrastructure/telemetry"
)

const requisitionEntityType = "check_requisition"

// RequisitionService provides application-level check requisition operations
type RequisitionService struct {
	requisitionRepo   payables.CheckRequisitionRepository
	invoiceRepo       payables.InvoiceRepository
	purchaseOrderRepo payables.PurchaseOrderRepository
	activityLogRepo   audit.ActivityLogRepository
	txManager         shared.TransactionManager
	now               func() time.Time
}

// RequisitionServiceOption is a functional option for configuring RequisitionService
type RequisitionServiceOption func(*RequisitionService)

// WithRequisitionClock overrides the wall clock, used by tests
func WithRequisitionClock(now func() time.Time) RequisitionServiceOption {
	return func(s *RequisitionService) {
		s.now = now
	}
}

// NewRequisitionService creates a new RequisitionService
func NewRequisitionService(
	requisitionRepo payables.CheckRequisitionRepository,
	invoiceRepo payables.InvoiceRepository,
	purchaseOrderRepo payables.PurchaseOrderRepository,
	activityLogRepo audit.ActivityLogRepository,
	txManager shared.TransactionManager,
	opts ...RequisitionServiceOption,
) *RequisitionService {
	s := &RequisitionService{
		requisitionRepo:   requisitionRepo,
		invoiceRepo:       invoiceRepo,
		purchaseOrderRepo: purchaseOrderRepo,
		activityLogRepo:   activityLogRepo,
		txManager:         txManager,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RequisitionResponse represents a check requisition in API responses
type RequisitionResponse struct {
	ID                uuid.UUID         `json:"id"`
	RequisitionNumber string            `json:"requisition_number"`
	PayeeName         string            `json:"payee_name"`
	PhpAmount         decimal.Decimal   `json:"php_amount"`
	Status            string            `json:"status"`
	RequestDate       time.Time         `json:"request_date"`
	ApprovedAt        *time.Time        `json:"approved_at,omitempty"`
	VendorID          uuid.UUID         `json:"vendor_id"`
	ProjectID         uuid.UUID         `json:"project_id"`
	MaxAgingDays      int               `json:"max_aging_days"`
	AgingSeverity     string            `json:"aging_severity"`
	Invoices          []InvoiceResponse `json:"invoices"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
	Version           int               `json:"version"`
}

func toRequisitionResponse(cr *payables.CheckRequisition, now time.Time) *RequisitionResponse {
	invoices := make([]InvoiceResponse, 0, len(cr.Invoices))
	for _, inv := range cr.Invoices {
		invoices = append(invoices, *toInvoiceResponse(inv, now))
	}
	maxAging := cr.MaxInvoiceAgingDays(now)
	return &RequisitionResponse{
		ID:                cr.ID,
		RequisitionNumber: cr.RequisitionNumber,
		PayeeName:         cr.PayeeName,
		PhpAmount:         cr.PhpAmount,
		Status:            cr.Status.String(),
		RequestDate:       cr.RequestDate,
		ApprovedAt:        cr.ApprovedAt,
		VendorID:          cr.VendorID,
		ProjectID:         cr.ProjectID,
		MaxAgingDays:      maxAging,
		AgingSeverity:     payables.SeverityForDays(maxAging).String(),
		Invoices:          invoices,
		CreatedAt:         cr.CreatedAt,
		UpdatedAt:         cr.UpdatedAt,
		Version:           cr.Version,
	}
}

// CreateRequisitionInput carries a check requisition create request. The
// requisition amount is the sum of the member invoices' net amounts; vendor
// and project are derived from the invoices' purchase orders.
type CreateRequisitionInput struct {
	RequisitionNumber string      `json:"requisition_number"`
	PayeeName         string      `json:"payee_name"`
	RequestDate       time.Time   `json:"request_date"`
	InvoiceIDs        []uuid.UUID `json:"invoice_ids"`
	ActorID           uuid.UUID   `json:"-"`
}

// RequisitionListFilter defines filtering options for requisition list queries
type RequisitionListFilter struct {
	Search    string     `form:"search"`
	Status    string     `form:"status"`
	VendorID  *uuid.UUID `form:"vendor_id"`
	ProjectID *uuid.UUID `form:"project_id"`
	PayeeName string     `form:"payee_name"`
	OrderBy   string     `form:"order_by"`
	OrderDir  string     `form:"order_dir"`
	Page      int        `form:"page"`
	PageSize  int        `form:"page_size"`
}

// Create creates a check requisition over approved invoices that share one
// vendor and one project.
func (s *RequisitionService) Create(ctx context.Context, input CreateRequisitionInput) (*RequisitionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "check_requisition", "create")
	defer span.End()

	if len(input.InvoiceIDs) == 0 {
		return nil, shared.NewValidationError("invoice_ids", "At least one invoice is required")
	}

	invoices, err := s.invoiceRepo.FindByIDs(ctx, input.InvoiceIDs)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load invoices: %w", err)
	}
	if len(invoices) != len(input.InvoiceIDs) {
		return nil, shared.NewDomainError("NOT_FOUND", "One or more invoices were not found")
	}

	total := decimal.Zero
	for _, inv := range invoices {
		if inv.Status != payables.InvoiceStatusApproved {
			return nil, shared.NewDomainError("INVALID_STATE",
				fmt.Sprintf("Invoice %s is %s, only approved invoices can be requisitioned", inv.SiNumber, inv.Status))
		}
		total = total.Add(inv.NetAmount)
	}

	vendorID, projectID, err := s.resolveVendorAndProject(ctx, invoices)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	requisition, err := payables.NewCheckRequisition(
		input.RequisitionNumber,
		input.PayeeName,
		valueobject.NewMoneyPHP(total),
		input.RequestDate,
		vendorID,
		projectID,
		invoices,
	)
	if err != nil {
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrRequisitionID, requisition.ID.String(),
		telemetry.SpanAttrRequisitionNumber, requisition.RequisitionNumber,
		telemetry.SpanAttrAmount, total.InexactFloat64(),
	)

	err = s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.requisitionRepo.Save(txCtx, requisition); err != nil {
			return fmt.Errorf("failed to save check requisition: %w", err)
		}
		return s.logActivity(txCtx, requisition.ID, audit.ActionCreated, input.ActorID,
			fmt.Sprintf("Check requisition %s created over %d invoice(s)",
				requisition.RequisitionNumber, len(invoices)))
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	return toRequisitionResponse(requisition, s.now()), nil
}

// Submit moves a draft requisition into the approval queue
func (s *RequisitionService) Submit(ctx context.Context, id uuid.UUID, actorID uuid.UUID) (*RequisitionResponse, error) {
	return s.transition(ctx, id, actorID, "submit", func(cr *payables.CheckRequisition) error {
		return cr.Submit()
	})
}

// Approve approves a submitted requisition and stamps the approval time
func (s *RequisitionService) Approve(ctx context.Context, id uuid.UUID, actorID uuid.UUID) (*RequisitionResponse, error) {
	return s.transition(ctx, id, actorID, "approve", func(cr *payables.CheckRequisition) error {
		return cr.Approve(s.now())
	})
}

// Reject rejects a submitted requisition
func (s *RequisitionService) Reject(ctx context.Context, id uuid.UUID, actorID uuid.UUID) (*RequisitionResponse, error) {
	return s.transition(ctx, id, actorID, "reject", func(cr *payables.CheckRequisition) error {
		return cr.Reject()
	})
}

// Cancel cancels a requisition that has not entered the payment pipeline
func (s *RequisitionService) Cancel(ctx context.Context, id uuid.UUID, actorID uuid.UUID) (*RequisitionResponse, error) {
	return s.transition(ctx, id, actorID, "cancel", func(cr *payables.CheckRequisition) error {
		return cr.Cancel()
	})
}

func (s *RequisitionService) transition(ctx context.Context, id uuid.UUID, actorID uuid.UUID, method string, mutate func(*payables.CheckRequisition) error) (*RequisitionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "check_requisition", method,
		telemetry.WithAttribute(telemetry.SpanAttrRequisitionID, id.String()))
	defer span.End()

	var response *RequisitionResponse
	err := s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		requisition, err := s.requisitionRepo.FindByID(txCtx, id)
		if err != nil {
			return fmt.Errorf("failed to load check requisition: %w", err)
		}
		if requisition == nil {
			return shared.NewDomainError("NOT_FOUND", "Check requisition not found")
		}
		if err := mutate(requisition); err != nil {
			return err
		}
		if err := s.requisitionRepo.Save(txCtx, requisition); err != nil {
			return fmt.Errorf("failed to save check requisition: %w", err)
		}
		if err := s.logActivity(txCtx, requisition.ID, audit.ActionUpdated, actorID,
			fmt.Sprintf("Check requisition %s: %s", requisition.RequisitionNumber, requisition.Status)); err != nil {
			return err
		}
		response = toRequisitionResponse(requisition, s.now())
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return response, nil
}

// GetByID gets a check requisition by ID with its invoices
func (s *RequisitionService) GetByID(ctx context.Context, id uuid.UUID) (*RequisitionResponse, error) {
	requisition, err := s.requisitionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if requisition == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Check requisition not found")
	}
	return toRequisitionResponse(requisition, s.now()), nil
}

// List lists check requisitions with filtering
func (s *RequisitionService) List(ctx context.Context, filter RequisitionListFilter) ([]RequisitionResponse, int64, error) {
	domainFilter := payables.RequisitionFilter{
		VendorID:  filter.VendorID,
		ProjectID: filter.ProjectID,
		PayeeName: filter.PayeeName,
	}
	domainFilter.Page = filter.Page
	domainFilter.PageSize = filter.PageSize
	domainFilter.OrderBy = filter.OrderBy
	domainFilter.OrderDir = filter.OrderDir
	domainFilter.Search = filter.Search

	if filter.Status != "" {
		status := payables.RequisitionStatus(filter.Status)
		if !status.IsValid() {
			return nil, 0, shared.NewValidationError("status", fmt.Sprintf("Unknown status %q", filter.Status))
		}
		domainFilter.Status = &status
	}

	requisitions, total, err := s.requisitionRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list check requisitions: %w", err)
	}

	now := s.now()
	responses := make([]RequisitionResponse, 0, len(requisitions))
	for i := range requisitions {
		responses = append(responses, *toRequisitionResponse(&requisitions[i], now))
	}
	return responses, total, nil
}

// ListUnassigned lists the approved requisitions not linked to any
// disbursement, the candidate pool for new disbursements.
func (s *RequisitionService) ListUnassigned(ctx context.Context) ([]RequisitionResponse, error) {
	requisitions, err := s.requisitionRepo.FindUnassignedApproved(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list unassigned requisitions: %w", err)
	}
	now := s.now()
	responses := make([]RequisitionResponse, 0, len(requisitions))
	for _, cr := range requisitions {
		responses = append(responses, *toRequisitionResponse(cr, now))
	}
	return responses, nil
}

// Delete removes a requisition that has not entered the payment pipeline
func (s *RequisitionService) Delete(ctx context.Context, id uuid.UUID, actorID uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "check_requisition", "delete",
		telemetry.WithAttribute(telemetry.SpanAttrRequisitionID, id.String()))
	defer span.End()

	err := s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		requisition, err := s.requisitionRepo.FindByID(txCtx, id)
		if err != nil {
			return fmt.Errorf("failed to load check requisition: %w", err)
		}
		if requisition == nil {
			return shared.NewDomainError("NOT_FOUND", "Check requisition not found")
		}
		if requisition.Status == payables.RequisitionStatusProcessed || requisition.Status == payables.RequisitionStatusPaid {
			return shared.NewDomainError("INVALID_STATE",
				fmt.Sprintf("Cannot delete requisition in %s status", requisition.Status))
		}
		if err := s.requisitionRepo.Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete check requisition: %w", err)
		}
		return s.logActivity(txCtx, id, audit.ActionDeleted, actorID,
			fmt.Sprintf("Check requisition %s deleted", requisition.RequisitionNumber))
	})
	if err != nil {
		telemetry.RecordError(span, err)
	}
	return err
}

// resolveVendorAndProject derives the requisition's vendor and project from
// the member invoices' purchase orders and rejects mixed sets.
func (s *RequisitionService) resolveVendorAndProject(ctx context.Context, invoices []*payables.Invoice) (uuid.UUID, uuid.UUID, error) {
	var vendorID, projectID uuid.UUID
	seen := make(map[uuid.UUID]*payables.PurchaseOrder)
	for _, inv := range invoices {
		po, ok := seen[inv.PurchaseOrderID]
		if !ok {
			var err error
			po, err = s.purchaseOrderRepo.FindByID(ctx, inv.PurchaseOrderID)
			if err != nil {
				return uuid.Nil, uuid.Nil, fmt.Errorf("failed to load purchase order: %w", err)
			}
			if po == nil {
				return uuid.Nil, uuid.Nil, shared.NewDomainError("NOT_FOUND",
					fmt.Sprintf("Purchase order for invoice %s not found", inv.SiNumber))
			}
			seen[inv.PurchaseOrderID] = po
		}
		if vendorID == uuid.Nil {
			vendorID = po.VendorID
			projectID = po.ProjectID
			continue
		}
		if po.VendorID != vendorID || po.ProjectID != projectID {
			return uuid.Nil, uuid.Nil, shared.NewValidationError("invoice_ids",
				"All invoices in a requisition must share one vendor and one project")
		}
	}
	return vendorID, projectID, nil
}

func (s *RequisitionService) logActivity(ctx context.Context, requisitionID uuid.UUID, action audit.Action, actorID uuid.UUID, description string) error {
	entry, err := audit.NewActivityLog(requisitionEntityType, requisitionID, action, actorID, description)
	if err != nil {
		return err
	}
	if err := s.activityLogRepo.Append(ctx, entry); err != nil {
		return fmt.Errorf("failed to append activity log: %w", err)
	}
	return nil
}
