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

const invoiceEntityType = "invoice"

// InvoiceService provides application-level invoice operations. Statuses past
// approved are owned by the requisition and disbursement lifecycle; this
// service only drives the approval workflow.
type InvoiceService struct {
	invoiceRepo       payables.InvoiceRepository
	purchaseOrderRepo payables.PurchaseOrderRepository
	activityLogRepo   audit.ActivityLogRepository
	txManager         shared.TransactionManager
	now               func() time.Time
}

// InvoiceServiceOption is a functional option for configuring InvoiceService
type InvoiceServiceOption func(*InvoiceService)

// WithInvoiceClock overrides the wall clock, used by tests
func WithInvoiceClock(now func() time.Time) InvoiceServiceOption {
	return func(s *InvoiceService) {
		s.now = now
	}
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	invoiceRepo payables.InvoiceRepository,
	purchaseOrderRepo payables.PurchaseOrderRepository,
	activityLogRepo audit.ActivityLogRepository,
	txManager shared.TransactionManager,
	opts ...InvoiceServiceOption,
) *InvoiceService {
	s := &InvoiceService{
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

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID              uuid.UUID       `json:"id"`
	SiNumber        string          `json:"si_number"`
	PurchaseOrderID uuid.UUID       `json:"purchase_order_id"`
	InvoiceAmount   decimal.Decimal `json:"invoice_amount"`
	NetAmount       decimal.Decimal `json:"net_amount"`
	Currency        string          `json:"currency"`
	Status          string          `json:"status"`
	SiDate          time.Time       `json:"si_date"`
	DueDate         *time.Time      `json:"due_date,omitempty"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
	AgingDays       int             `json:"aging_days"`
	AgingSeverity   string          `json:"aging_severity"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Version         int             `json:"version"`
}

func toInvoiceResponse(inv *payables.Invoice, now time.Time) *InvoiceResponse {
	return &InvoiceResponse{
		ID:              inv.ID,
		SiNumber:        inv.SiNumber,
		PurchaseOrderID: inv.PurchaseOrderID,
		InvoiceAmount:   inv.InvoiceAmount,
		NetAmount:       inv.NetAmount,
		Currency:        string(inv.Currency),
		Status:          inv.Status.String(),
		SiDate:          inv.SiDate,
		DueDate:         inv.DueDate,
		PaidAt:          inv.PaidAt,
		AgingDays:       inv.AgingDays(now),
		AgingSeverity:   inv.AgingSeverity(now).String(),
		CreatedAt:       inv.CreatedAt,
		UpdatedAt:       inv.UpdatedAt,
		Version:         inv.Version,
	}
}

// CreateInvoiceInput carries an invoice create request
type CreateInvoiceInput struct {
	SiNumber        string          `json:"si_number"`
	PurchaseOrderID uuid.UUID       `json:"purchase_order_id"`
	InvoiceAmount   decimal.Decimal `json:"invoice_amount"`
	NetAmount       decimal.Decimal `json:"net_amount"`
	Currency        string          `json:"currency"`
	SiDate          time.Time       `json:"si_date"`
	DueDate         *time.Time      `json:"due_date"`
	ActorID         uuid.UUID       `json:"-"`
}

// InvoiceListFilter defines filtering options for invoice list queries
type InvoiceListFilter struct {
	Search          string     `form:"search"`
	PurchaseOrderID *uuid.UUID `form:"purchase_order_id"`
	Status          string     `form:"status"`
	DueFrom         *time.Time `form:"due_from" time_format:"2006-01-02"`
	DueTo           *time.Time `form:"due_to" time_format:"2006-01-02"`
	OrderBy         string     `form:"order_by"`
	OrderDir        string     `form:"order_dir"`
	Page            int        `form:"page"`
	PageSize        int        `form:"page_size"`
}

// Create books a new invoice against a purchase order in draft status
func (s *InvoiceService) Create(ctx context.Context, input CreateInvoiceInput) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "create",
		telemetry.WithAttribute(telemetry.SpanAttrPurchaseOrderID, input.PurchaseOrderID.String()))
	defer span.End()

	po, err := s.purchaseOrderRepo.FindByID(ctx, input.PurchaseOrderID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load purchase order: %w", err)
	}
	if po == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Purchase order not found")
	}

	currency := valueobject.Currency(input.Currency)
	if currency == "" {
		currency = valueobject.DefaultCurrency
	}
	invoiceAmount, err := valueobject.NewMoney(input.InvoiceAmount, currency)
	if err != nil {
		return nil, shared.NewValidationError("currency", err.Error())
	}
	netAmount, err := valueobject.NewMoney(input.NetAmount, currency)
	if err != nil {
		return nil, shared.NewValidationError("currency", err.Error())
	}

	invoice, err := payables.NewInvoice(input.SiNumber, input.PurchaseOrderID,
		invoiceAmount, netAmount, input.SiDate, input.DueDate)
	if err != nil {
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrInvoiceID, invoice.ID.String())

	err = s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.invoiceRepo.Save(txCtx, invoice); err != nil {
			return fmt.Errorf("failed to save invoice: %w", err)
		}
		return s.logActivity(txCtx, invoice.ID, audit.ActionCreated, input.ActorID,
			fmt.Sprintf("Invoice %s booked against PO %s", invoice.SiNumber, po.PoNumber))
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	return toInvoiceResponse(invoice, s.now()), nil
}

// Submit moves a draft invoice into the approval queue
func (s *InvoiceService) Submit(ctx context.Context, id uuid.UUID, actorID uuid.UUID) (*InvoiceResponse, error) {
	return s.transition(ctx, id, actorID, "submit", func(inv *payables.Invoice) error {
		return inv.Submit()
	})
}

// Approve approves a submitted invoice
func (s *InvoiceService) Approve(ctx context.Context, id uuid.UUID, actorID uuid.UUID) (*InvoiceResponse, error) {
	return s.transition(ctx, id, actorID, "approve", func(inv *payables.Invoice) error {
		return inv.Approve()
	})
}

// Reject rejects a submitted invoice
func (s *InvoiceService) Reject(ctx context.Context, id uuid.UUID, actorID uuid.UUID) (*InvoiceResponse, error) {
	return s.transition(ctx, id, actorID, "reject", func(inv *payables.Invoice) error {
		return inv.Reject()
	})
}

// Cancel cancels an invoice that has not entered the payment pipeline
func (s *InvoiceService) Cancel(ctx context.Context, id uuid.UUID, actorID uuid.UUID) (*InvoiceResponse, error) {
	return s.transition(ctx, id, actorID, "cancel", func(inv *payables.Invoice) error {
		return inv.Cancel()
	})
}

func (s *InvoiceService) transition(ctx context.Context, id uuid.UUID, actorID uuid.UUID, method string, mutate func(*payables.Invoice) error) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", method,
		telemetry.WithAttribute(telemetry.SpanAttrInvoiceID, id.String()))
	defer span.End()

	var response *InvoiceResponse
	err := s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		invoice, err := s.invoiceRepo.FindByID(txCtx, id)
		if err != nil {
			return fmt.Errorf("failed to load invoice: %w", err)
		}
		if invoice == nil {
			return shared.NewDomainError("NOT_FOUND", "Invoice not found")
		}
		if err := mutate(invoice); err != nil {
			return err
		}
		if err := s.invoiceRepo.Save(txCtx, invoice); err != nil {
			return fmt.Errorf("failed to save invoice: %w", err)
		}
		if err := s.logActivity(txCtx, invoice.ID, audit.ActionUpdated, actorID,
			fmt.Sprintf("Invoice %s: %s", invoice.SiNumber, invoice.Status)); err != nil {
			return err
		}
		response = toInvoiceResponse(invoice, s.now())
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return response, nil
}

// GetByID gets an invoice by ID
func (s *InvoiceService) GetByID(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Invoice not found")
	}
	return toInvoiceResponse(invoice, s.now()), nil
}

// List lists invoices with filtering
func (s *InvoiceService) List(ctx context.Context, filter InvoiceListFilter) ([]InvoiceResponse, int64, error) {
	domainFilter := payables.InvoiceFilter{
		PurchaseOrderID: filter.PurchaseOrderID,
		DueFrom:         filter.DueFrom,
		DueTo:           filter.DueTo,
	}
	domainFilter.Page = filter.Page
	domainFilter.PageSize = filter.PageSize
	domainFilter.OrderBy = filter.OrderBy
	domainFilter.OrderDir = filter.OrderDir
	domainFilter.Search = filter.Search

	if filter.Status != "" {
		status := payables.InvoiceStatus(filter.Status)
		if !status.IsValid() {
			return nil, 0, shared.NewValidationError("status", fmt.Sprintf("Unknown status %q", filter.Status))
		}
		domainFilter.Status = &status
	}

	invoices, total, err := s.invoiceRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list invoices: %w", err)
	}

	now := s.now()
	responses := make([]InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		responses = append(responses, *toInvoiceResponse(&invoices[i], now))
	}
	return responses, total, nil
}

// Delete removes a draft or rejected invoice
func (s *InvoiceService) Delete(ctx context.Context, id uuid.UUID, actorID uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "delete",
		telemetry.WithAttribute(telemetry.SpanAttrInvoiceID, id.String()))
	defer span.End()

	err := s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		invoice, err := s.invoiceRepo.FindByID(txCtx, id)
		if err != nil {
			return fmt.Errorf("failed to load invoice: %w", err)
		}
		if invoice == nil {
			return shared.NewDomainError("NOT_FOUND", "Invoice not found")
		}
		switch invoice.Status {
		case payables.InvoiceStatusDraft, payables.InvoiceStatusRejected, payables.InvoiceStatusCancelled:
		default:
			return shared.NewDomainError("INVALID_STATE",
				fmt.Sprintf("Cannot delete invoice in %s status", invoice.Status))
		}
		if err := s.invoiceRepo.Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete invoice: %w", err)
		}
		return s.logActivity(txCtx, id, audit.ActionDeleted, actorID,
			fmt.Sprintf("Invoice %s deleted", invoice.SiNumber))
	})
	if err != nil {
		telemetry.RecordError(span, err)
	}
	return err
}

func (s *InvoiceService) logActivity(ctx context.Context, invoiceID uuid.UUID, action audit.Action, actorID uuid.UUID, description string) error {
	entry, err := audit.NewActivityLog(invoiceEntityType, invoiceID, action, actorID, description)
	if err != nil {
		return err
	}
	if err := s.activityLogRepo.Append(ctx, entry); err != nil {
		return fmt.Errorf("failed to append activity log: %w", err)
	}
	return nil
}
