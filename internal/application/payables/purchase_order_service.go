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

const purchaseOrderEntityType = "purchase_order"

// PurchaseOrderService provides application-level purchase order operations.
// The derived totals are recomputed only by an explicit SyncFinancials call.
type PurchaseOrderService struct {
	purchaseOrderRepo payables.PurchaseOrderRepository
	invoiceRepo       payables.InvoiceRepository
	activityLogRepo   audit.ActivityLogRepository
	txManager         shared.TransactionManager
}

// NewPurchaseOrderService creates a new PurchaseOrderService
func NewPurchaseOrderService(
	purchaseOrderRepo payables.PurchaseOrderRepository,
	invoiceRepo payables.InvoiceRepository,
	activityLogRepo audit.ActivityLogRepository,
	txManager shared.TransactionManager,
) *PurchaseOrderService {
	return &PurchaseOrderService{
		purchaseOrderRepo: purchaseOrderRepo,
		invoiceRepo:       invoiceRepo,
		activityLogRepo:   activityLogRepo,
		txManager:         txManager,
	}
}

// PurchaseOrderResponse represents a purchase order in API responses
type PurchaseOrderResponse struct {
	ID                uuid.UUID       `json:"id"`
	PoNumber          string          `json:"po_number"`
	PoAmount          decimal.Decimal `json:"po_amount"`
	VendorID          uuid.UUID       `json:"vendor_id"`
	ProjectID         uuid.UUID       `json:"project_id"`
	TotalInvoiced     decimal.Decimal `json:"total_invoiced"`
	TotalPaid         decimal.Decimal `json:"total_paid"`
	OutstandingAmount decimal.Decimal `json:"outstanding_amount"`
	FullyPaid         bool            `json:"fully_paid"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Version           int             `json:"version"`
}

func toPurchaseOrderResponse(po *payables.PurchaseOrder) *PurchaseOrderResponse {
	return &PurchaseOrderResponse{
		ID:                po.ID,
		PoNumber:          po.PoNumber,
		PoAmount:          po.PoAmount,
		VendorID:          po.VendorID,
		ProjectID:         po.ProjectID,
		TotalInvoiced:     po.TotalInvoiced,
		TotalPaid:         po.TotalPaid,
		OutstandingAmount: po.OutstandingAmount,
		FullyPaid:         po.IsFullyPaid(),
		CreatedAt:         po.CreatedAt,
		UpdatedAt:         po.UpdatedAt,
		Version:           po.Version,
	}
}

// CreatePurchaseOrderInput carries a purchase order create request
type CreatePurchaseOrderInput struct {
	PoNumber  string          `json:"po_number"`
	PoAmount  decimal.Decimal `json:"po_amount"`
	VendorID  uuid.UUID       `json:"vendor_id"`
	ProjectID uuid.UUID       `json:"project_id"`
	ActorID   uuid.UUID       `json:"-"`
}

// PurchaseOrderListFilter defines filtering options for purchase order list queries
type PurchaseOrderListFilter struct {
	Search          string     `form:"search"`
	VendorID        *uuid.UUID `form:"vendor_id"`
	ProjectID       *uuid.UUID `form:"project_id"`
	OutstandingOnly bool       `form:"outstanding_only"`
	OrderBy         string     `form:"order_by"`
	OrderDir        string     `form:"order_dir"`
	Page            int        `form:"page"`
	PageSize        int        `form:"page_size"`
}

// Create creates a purchase order
func (s *PurchaseOrderService) Create(ctx context.Context, input CreatePurchaseOrderInput) (*PurchaseOrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "purchase_order", "create")
	defer span.End()

	existing, err := s.purchaseOrderRepo.FindByPoNumber(ctx, input.PoNumber)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to check PO number: %w", err)
	}
	if existing != nil {
		return nil, shared.NewConflictError(fmt.Sprintf("PO number %s is already in use", input.PoNumber))
	}

	po, err := payables.NewPurchaseOrder(input.PoNumber,
		valueobject.NewMoneyPHP(input.PoAmount), input.VendorID, input.ProjectID)
	if err != nil {
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrPurchaseOrderID, po.ID.String(),
		telemetry.SpanAttrVendorID, po.VendorID.String(),
	)

	err = s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.purchaseOrderRepo.Save(txCtx, po); err != nil {
			return fmt.Errorf("failed to save purchase order: %w", err)
		}
		return s.logActivity(txCtx, po.ID, audit.ActionCreated, input.ActorID,
			fmt.Sprintf("Purchase order %s created", po.PoNumber))
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	return toPurchaseOrderResponse(po), nil
}

// GetByID gets a purchase order by ID
func (s *PurchaseOrderService) GetByID(ctx context.Context, id uuid.UUID) (*PurchaseOrderResponse, error) {
	po, err := s.purchaseOrderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if po == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Purchase order not found")
	}
	return toPurchaseOrderResponse(po), nil
}

// List lists purchase orders with filtering
func (s *PurchaseOrderService) List(ctx context.Context, filter PurchaseOrderListFilter) ([]PurchaseOrderResponse, int64, error) {
	domainFilter := payables.PurchaseOrderFilter{
		VendorID:        filter.VendorID,
		ProjectID:       filter.ProjectID,
		OutstandingOnly: filter.OutstandingOnly,
	}
	domainFilter.Page = filter.Page
	domainFilter.PageSize = filter.PageSize
	domainFilter.OrderBy = filter.OrderBy
	domainFilter.OrderDir = filter.OrderDir
	domainFilter.Search = filter.Search

	orders, total, err := s.purchaseOrderRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list purchase orders: %w", err)
	}

	responses := make([]PurchaseOrderResponse, 0, len(orders))
	for i := range orders {
		responses = append(responses, *toPurchaseOrderResponse(&orders[i]))
	}
	return responses, total, nil
}

// SyncFinancials recomputes the purchase order's derived totals from its
// current invoices and saves them under the optimistic lock.
func (s *PurchaseOrderService) SyncFinancials(ctx context.Context, id uuid.UUID, actorID uuid.UUID) (*PurchaseOrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "purchase_order", "sync_financials",
		telemetry.WithAttribute(telemetry.SpanAttrPurchaseOrderID, id.String()))
	defer span.End()

	var response *PurchaseOrderResponse
	err := s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		po, err := s.purchaseOrderRepo.FindByID(txCtx, id)
		if err != nil {
			return fmt.Errorf("failed to load purchase order: %w", err)
		}
		if po == nil {
			return shared.NewDomainError("NOT_FOUND", "Purchase order not found")
		}

		invoices, err := s.invoiceRepo.FindByPurchaseOrder(txCtx, id)
		if err != nil {
			return fmt.Errorf("failed to load invoices: %w", err)
		}

		po.SyncFinancials(invoices)
		if err := s.purchaseOrderRepo.SaveWithLock(txCtx, po); err != nil {
			return err
		}
		if err := s.logActivity(txCtx, po.ID, audit.ActionUpdated, actorID,
			fmt.Sprintf("Purchase order %s financials recomputed over %d invoice(s)",
				po.PoNumber, len(invoices))); err != nil {
			return err
		}

		response = toPurchaseOrderResponse(po)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return response, nil
}

// Delete removes a purchase order with no booked invoices
func (s *PurchaseOrderService) Delete(ctx context.Context, id uuid.UUID, actorID uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "purchase_order", "delete",
		telemetry.WithAttribute(telemetry.SpanAttrPurchaseOrderID, id.String()))
	defer span.End()

	err := s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		po, err := s.purchaseOrderRepo.FindByID(txCtx, id)
		if err != nil {
			return fmt.Errorf("failed to load purchase order: %w", err)
		}
		if po == nil {
			return shared.NewDomainError("NOT_FOUND", "Purchase order not found")
		}

		invoices, err := s.invoiceRepo.FindByPurchaseOrder(txCtx, id)
		if err != nil {
			return fmt.Errorf("failed to load invoices: %w", err)
		}
		if len(invoices) > 0 {
			return shared.NewConflictError("Cannot delete a purchase order with booked invoices")
		}

		if err := s.purchaseOrderRepo.Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete purchase order: %w", err)
		}
		return s.logActivity(txCtx, id, audit.ActionDeleted, actorID,
			fmt.Sprintf("Purchase order %s deleted", po.PoNumber))
	})
	if err != nil {
		telemetry.RecordError(span, err)
	}
	return err
}

func (s *PurchaseOrderService) logActivity(ctx context.Context, poID uuid.UUID, action audit.Action, actorID uuid.UUID, description string) error {
	entry, err := audit.NewActivityLog(purchaseOrderEntityType, poID, action, actorID, description)
	if err != nil {
		return err
	}
	if err := s.activityLogRepo.Append(ctx, entry); err != nil {
		return fmt.Errorf("failed to append activity log: %w", err)
	}
	return nil
}
