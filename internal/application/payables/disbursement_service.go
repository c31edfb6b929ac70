package payables

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/payables/backend/internal/domain/audit"
	"github.com/payables/backend/internal/domain/payables"
	"github.com/payables/backend/internal/domain/shared"
	"github.com/payables/backend/internal/infrastructure/telemetry"
)

// releaseLockTTL bounds how long a crashed process can hold a release lock.
const releaseLockTTL = 10 * time.Second

const disbursementEntityType = "disbursement"

// DisbursementService orchestrates the disbursement lifecycle: create, edit,
// release, undo and correction, including the status cascade onto the linked
// check requisitions and their invoices.
type DisbursementService struct {
	disbursementRepo payables.DisbursementRepository
	requisitionRepo  payables.CheckRequisitionRepository
	invoiceRepo      payables.InvoiceRepository
	activityLogRepo  audit.ActivityLogRepository
	txManager        shared.TransactionManager
	locks            shared.LockStore
	metrics          *telemetry.PayablesMetrics
	undoWindow       time.Duration
	now              func() time.Time
}

// DisbursementServiceOption is a functional option for configuring DisbursementService
type DisbursementServiceOption func(*DisbursementService)

// WithUndoWindow overrides the release undo grace period
func WithUndoWindow(window time.Duration) DisbursementServiceOption {
	return func(s *DisbursementService) {
		if window > 0 {
			s.undoWindow = window
		}
	}
}

// WithPayablesMetrics wires the release business counters
func WithPayablesMetrics(metrics *telemetry.PayablesMetrics) DisbursementServiceOption {
	return func(s *DisbursementService) {
		s.metrics = metrics
	}
}

// WithClock overrides the wall clock, used by tests
func WithClock(now func() time.Time) DisbursementServiceOption {
	return func(s *DisbursementService) {
		s.now = now
	}
}

// NewDisbursementService creates a new DisbursementService
func NewDisbursementService(
	disbursementRepo payables.DisbursementRepository,
	requisitionRepo payables.CheckRequisitionRepository,
	invoiceRepo payables.InvoiceRepository,
	activityLogRepo audit.ActivityLogRepository,
	txManager shared.TransactionManager,
	locks shared.LockStore,
	opts ...DisbursementServiceOption,
) *DisbursementService {
	s := &DisbursementService{
		disbursementRepo: disbursementRepo,
		requisitionRepo:  requisitionRepo,
		invoiceRepo:      invoiceRepo,
		activityLogRepo:  activityLogRepo,
		txManager:        txManager,
		locks:            locks,
		undoWindow:       payables.DefaultUndoWindow,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ===================== Responses =====================

// DisbursementResponse represents a disbursement in API responses
type DisbursementResponse struct {
	ID                        uuid.UUID                    `json:"id"`
	CheckVoucherNumber        *string                      `json:"check_voucher_number"`
	State                     string                       `json:"state"`
	DateCheckPrinting         *time.Time                   `json:"date_check_printing"`
	DateCheckScheduled        *time.Time                   `json:"date_check_scheduled"`
	DateCheckReleasedToVendor *time.Time                   `json:"date_check_released_to_vendor"`
	UndoExpiresAt             *time.Time                   `json:"undo_expires_at,omitempty"`
	CanUndo                   bool                         `json:"can_undo"`
	Remarks                   string                       `json:"remarks"`
	TotalAmount               decimal.Decimal              `json:"total_amount"`
	Requisitions              []RequisitionSummaryResponse `json:"check_requisitions"`
	CreatedAt                 time.Time                    `json:"created_at"`
	UpdatedAt                 time.Time                    `json:"updated_at"`
	Version                   int                          `json:"version"`
}

// RequisitionSummaryResponse represents a linked requisition inside a
// disbursement response
type RequisitionSummaryResponse struct {
	ID                uuid.UUID       `json:"id"`
	RequisitionNumber string          `json:"requisition_number"`
	PayeeName         string          `json:"payee_name"`
	PhpAmount         decimal.Decimal `json:"php_amount"`
	Status            string          `json:"status"`
	VendorID          uuid.UUID       `json:"vendor_id"`
	ProjectID         uuid.UUID       `json:"project_id"`
	MaxAgingDays      int             `json:"max_aging_days"`
	AgingSeverity     string          `json:"aging_severity"`
}

// DisbursementListResult is one page of disbursements plus the aggregate
// statistics over the whole filtered set
type DisbursementListResult struct {
	Items   []DisbursementResponse       `json:"items"`
	Total   int64                        `json:"total"`
	Summary payables.DisbursementSummary `json:"summary"`
}

func toRequisitionSummaryResponse(cr *payables.CheckRequisition, now time.Time) RequisitionSummaryResponse {
	maxAging := cr.MaxInvoiceAgingDays(now)
	return RequisitionSummaryResponse{
		ID:                cr.ID,
		RequisitionNumber: cr.RequisitionNumber,
		PayeeName:         cr.PayeeName,
		PhpAmount:         cr.PhpAmount,
		Status:            cr.Status.String(),
		VendorID:          cr.VendorID,
		ProjectID:         cr.ProjectID,
		MaxAgingDays:      maxAging,
		AgingSeverity:     payables.SeverityForDays(maxAging).String(),
	}
}

func toDisbursementResponse(d *payables.Disbursement, now time.Time) *DisbursementResponse {
	requisitions := make([]RequisitionSummaryResponse, 0, len(d.Requisitions))
	for _, cr := range d.Requisitions {
		requisitions = append(requisitions, toRequisitionSummaryResponse(cr, now))
	}
	return &DisbursementResponse{
		ID:                        d.ID,
		CheckVoucherNumber:        d.CheckVoucherNumber,
		State:                     d.State().String(),
		DateCheckPrinting:         d.DateCheckPrinting,
		DateCheckScheduled:        d.DateCheckScheduled,
		DateCheckReleasedToVendor: d.DateCheckReleasedToVendor,
		UndoExpiresAt:             d.UndoExpiresAt,
		CanUndo:                   d.CanUndo(now),
		Remarks:                   d.Remarks,
		TotalAmount:               d.Amount().Amount(),
		Requisitions:              requisitions,
		CreatedAt:                 d.CreatedAt,
		UpdatedAt:                 d.UpdatedAt,
		Version:                   d.Version,
	}
}

// ===================== Inputs =====================

// CreateDisbursementInput carries a disbursement create request. A release
// date may be set directly; the lifecycle dates are independent and jumps
// are allowed.
type CreateDisbursementInput struct {
	CheckVoucherNumber        *string     `json:"check_voucher_number"`
	DateCheckPrinting         *time.Time  `json:"date_check_printing"`
	DateCheckScheduled        *time.Time  `json:"date_check_scheduled"`
	DateCheckReleasedToVendor *time.Time  `json:"date_check_released_to_vendor"`
	Remarks                   string      `json:"remarks"`
	RequisitionIDs            []uuid.UUID `json:"check_requisition_ids"`
	ActorID                   uuid.UUID   `json:"-"`
}

// UpdateDisbursementInput carries a disbursement edit. OriginalRequisitionIDs
// is the linkage the editing form was loaded with; the update conflicts if
// the persisted linkage has diverged from it since.
type UpdateDisbursementInput struct {
	CheckVoucherNumber     *string     `json:"check_voucher_number"`
	DateCheckPrinting      *time.Time  `json:"date_check_printing"`
	DateCheckScheduled     *time.Time  `json:"date_check_scheduled"`
	Remarks                string      `json:"remarks"`
	RequisitionIDs         []uuid.UUID `json:"check_requisition_ids"`
	OriginalRequisitionIDs []uuid.UUID `json:"original_check_requisition_ids"`
	ActorID                uuid.UUID   `json:"-"`
}

// ReleaseInput carries a release request. A nil ReleaseDate means "now".
type ReleaseInput struct {
	ReleaseDate *time.Time `json:"release_date"`
	Notes       string     `json:"notes"`
	ActorID     uuid.UUID  `json:"-"`
}

// CorrectReleaseInput carries an audited release reversal
type CorrectReleaseInput struct {
	Reason  string    `json:"reason"`
	ActorID uuid.UUID `json:"-"`
}

// BulkReleaseInput carries a bulk release request
type BulkReleaseInput struct {
	DisbursementIDs []uuid.UUID `json:"disbursement_ids"`
	ReleaseDate     *time.Time  `json:"release_date"`
	Notes           string      `json:"notes"`
	ActorID         uuid.UUID   `json:"-"`
}

// BulkReleaseError reports one failed item of a bulk release
type BulkReleaseError struct {
	DisbursementID uuid.UUID `json:"disbursement_id"`
	Code           string    `json:"code"`
	Message        string    `json:"message"`
}

// BulkReleaseResult reports the outcome of a bulk release. Failures never
// block other items; every successful release gets its own undo window.
type BulkReleaseResult struct {
	SuccessCount int                    `json:"success_count"`
	Released     []DisbursementResponse `json:"released"`
	Errors       []BulkReleaseError     `json:"errors"`
}

// DisbursementListFilter defines filtering options for disbursement list queries
type DisbursementListFilter struct {
	Search          string           `form:"search"`
	VendorID        *uuid.UUID       `form:"vendor_id"`
	ProjectID       *uuid.UUID       `form:"project_id"`
	PurchaseOrderID *uuid.UUID       `form:"purchase_order_id"`
	RequisitionID   *uuid.UUID       `form:"check_requisition_id"`
	Released        *bool            `form:"released"`
	DateField       string           `form:"date_field"`
	DateFrom        *time.Time       `form:"date_from" time_format:"2006-01-02"`
	DateTo          *time.Time       `form:"date_to" time_format:"2006-01-02"`
	MinAmount       *decimal.Decimal `form:"min_amount"`
	MaxAmount       *decimal.Decimal `form:"max_amount"`
	OrderBy         string           `form:"order_by"`
	OrderDir        string           `form:"order_dir"`
	Page            int              `form:"page"`
	PageSize        int              `form:"page_size"`
}

// ===================== Operations =====================

// Create creates a disbursement over the given check requisitions. Every
// requisition must be approved and not linked to another disbursement; the
// linkage cascade (requisitions to processed, invoices to pending
// disbursement, or straight to paid when created already released) is applied
// in the same transaction.
func (s *DisbursementService) Create(ctx context.Context, input CreateDisbursementInput) (*DisbursementResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "disbursement", "create")
	defer span.End()

	if len(input.RequisitionIDs) == 0 {
		return nil, shared.NewValidationError("check_requisition_ids", "At least one check requisition is required")
	}

	if input.CheckVoucherNumber != nil {
		taken, err := s.disbursementRepo.ExistsByVoucherNumber(ctx, *input.CheckVoucherNumber, nil)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("failed to check voucher uniqueness: %w", err)
		}
		if taken {
			return nil, shared.NewConflictError(
				fmt.Sprintf("Check voucher number %s is already in use", *input.CheckVoucherNumber))
		}
	}

	requisitions, err := s.requisitionRepo.FindByIDs(ctx, input.RequisitionIDs)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.requireUnlinked(ctx, input.RequisitionIDs, nil); err != nil {
		return nil, err
	}

	disbursement, err := payables.NewDisbursement(
		input.CheckVoucherNumber,
		input.DateCheckPrinting,
		input.DateCheckScheduled,
		input.DateCheckReleasedToVendor,
		input.Remarks,
		requisitions,
	)
	if err != nil {
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrDisbursementID, disbursement.ID.String(),
		telemetry.SpanAttrState, disbursement.State().String(),
		telemetry.SpanAttrAmount, disbursement.Amount().Amount().InexactFloat64(),
	)

	cascadeAt := s.now()
	if disbursement.DateCheckReleasedToVendor != nil {
		cascadeAt = *disbursement.DateCheckReleasedToVendor
	}

	err = s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.disbursementRepo.Save(txCtx, disbursement); err != nil {
			return fmt.Errorf("failed to save disbursement: %w", err)
		}
		if err := s.disbursementRepo.ReplaceLinks(txCtx, disbursement.ID, input.RequisitionIDs); err != nil {
			return fmt.Errorf("failed to link check requisitions: %w", err)
		}
		plan := payables.PlanLinkageChange(nil, requisitions, disbursement.IsReleased())
		if err := s.applyCascade(txCtx, plan, cascadeAt); err != nil {
			return err
		}
		return s.logActivity(txCtx, disbursement.ID, audit.ActionCreated, input.ActorID,
			fmt.Sprintf("Disbursement created over %d check requisition(s)", len(requisitions)))
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	return toDisbursementResponse(disbursement, s.now()), nil
}

// Update edits a disbursement's details and linkage. The persisted linkage is
// re-read inside the transaction and compared against the linkage the form
// was loaded with, so two concurrent editors cannot silently overwrite each
// other's requisition moves. Removed requisitions and their invoices revert
// to approved even on a released disbursement.
func (s *DisbursementService) Update(ctx context.Context, id uuid.UUID, input UpdateDisbursementInput) (*DisbursementResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "disbursement", "update",
		telemetry.WithAttribute(telemetry.SpanAttrDisbursementID, id.String()))
	defer span.End()

	if len(input.RequisitionIDs) == 0 {
		return nil, shared.NewValidationError("check_requisition_ids", "At least one check requisition is required")
	}

	var response *DisbursementResponse
	err := s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		disbursement, err := s.disbursementRepo.FindByID(txCtx, id)
		if err != nil {
			return fmt.Errorf("failed to load disbursement: %w", err)
		}
		if disbursement == nil {
			return shared.NewDomainError("NOT_FOUND", "Disbursement not found")
		}

		current := disbursement.RequisitionIDs()
		if !sameIDSet(current, input.OriginalRequisitionIDs) {
			return shared.NewConflictError(
				"Disbursement links changed since the form was loaded, reload and try again")
		}

		if input.CheckVoucherNumber != nil {
			taken, err := s.disbursementRepo.ExistsByVoucherNumber(txCtx, *input.CheckVoucherNumber, &id)
			if err != nil {
				return fmt.Errorf("failed to check voucher uniqueness: %w", err)
			}
			if taken {
				return shared.NewConflictError(
					fmt.Sprintf("Check voucher number %s is already in use", *input.CheckVoucherNumber))
			}
		}

		removedIDs, addedIDs := payables.DiffLinkage(current, input.RequisitionIDs)

		var added []*payables.CheckRequisition
		if len(addedIDs) > 0 {
			added, err = s.requisitionRepo.FindByIDs(txCtx, addedIDs)
			if err != nil {
				return err
			}
			for _, cr := range added {
				if !cr.Status.CanLink() {
					return shared.NewDomainError("REQUISITION_NOT_APPROVED",
						fmt.Sprintf("Check requisition %s is %s, only approved requisitions can be disbursed",
							cr.RequisitionNumber, cr.Status))
				}
			}
			if err := s.requireUnlinked(txCtx, addedIDs, &id); err != nil {
				return err
			}
		}

		removed := pickRequisitions(disbursement.Requisitions, removedIDs)
		kept := keepRequisitions(disbursement.Requisitions, removedIDs)
		final := append(kept, added...)

		if err := disbursement.UpdateDetails(input.CheckVoucherNumber,
			input.DateCheckPrinting, input.DateCheckScheduled, input.Remarks); err != nil {
			return err
		}
		if err := disbursement.ReplaceRequisitions(final); err != nil {
			return err
		}

		plan := payables.PlanLinkageChange(removed, added, disbursement.IsReleased())
		if err := s.applyCascade(txCtx, plan, s.now()); err != nil {
			return err
		}
		if err := s.disbursementRepo.SaveWithLock(txCtx, disbursement); err != nil {
			return err
		}
		if err := s.disbursementRepo.ReplaceLinks(txCtx, disbursement.ID, input.RequisitionIDs); err != nil {
			return fmt.Errorf("failed to relink check requisitions: %w", err)
		}
		if err := s.logActivity(txCtx, disbursement.ID, audit.ActionUpdated, input.ActorID,
			fmt.Sprintf("Disbursement updated (%d linked, %d removed, %d added)",
				len(final), len(removed), len(added))); err != nil {
			return err
		}

		response = toDisbursementResponse(disbursement, s.now())
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return response, nil
}

// Release marks the check as handed to the vendor, cascades paid status to
// the linked requisitions and every reachable invoice, and opens the undo
// window. Concurrent release and undo on the same disbursement are serialized
// through the lock store.
func (s *DisbursementService) Release(ctx context.Context, id uuid.UUID, input ReleaseInput) (*DisbursementResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "disbursement", "release",
		telemetry.WithAttribute(telemetry.SpanAttrDisbursementID, id.String()))
	defer span.End()

	unlock, err := s.acquireReleaseLock(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	defer unlock()

	releasedAt := s.now()
	if input.ReleaseDate != nil {
		releasedAt = *input.ReleaseDate
	}

	var response *DisbursementResponse
	var amount decimal.Decimal
	err = s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		disbursement, err := s.disbursementRepo.FindByID(txCtx, id)
		if err != nil {
			return fmt.Errorf("failed to load disbursement: %w", err)
		}
		if disbursement == nil {
			return shared.NewDomainError("NOT_FOUND", "Disbursement not found")
		}

		if err := disbursement.Release(releasedAt, s.now(), s.undoWindow, input.Notes); err != nil {
			return err
		}

		plan := payables.PlanRelease(disbursement.Requisitions)
		if err := s.applyCascade(txCtx, plan, releasedAt); err != nil {
			return err
		}
		if err := s.disbursementRepo.SaveWithLock(txCtx, disbursement); err != nil {
			return err
		}
		if err := s.logActivity(txCtx, disbursement.ID, audit.ActionReleased, input.ActorID,
			fmt.Sprintf("Check released to vendor, %d requisition(s) paid", len(disbursement.Requisitions))); err != nil {
			return err
		}

		amount = disbursement.Amount().Amount()
		response = toDisbursementResponse(disbursement, s.now())
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.AddEvent(span, "disbursement_released",
		telemetry.SpanAttrAmount, amount.InexactFloat64())
	if s.metrics != nil {
		s.metrics.RecordRelease(ctx, amount)
	}
	return response, nil
}

// UndoRelease reverts a release while the persisted undo deadline has not
// passed. The deadline is checked server-side against the stored timestamp,
// never against client timing. Requisitions return to processed, invoices to
// pending disbursement, and invoice aging resumes.
func (s *DisbursementService) UndoRelease(ctx context.Context, id uuid.UUID, actorID uuid.UUID) (*DisbursementResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "disbursement", "undo_release",
		telemetry.WithAttribute(telemetry.SpanAttrDisbursementID, id.String()))
	defer span.End()

	unlock, err := s.acquireReleaseLock(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	defer unlock()

	var response *DisbursementResponse
	err = s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		disbursement, err := s.disbursementRepo.FindByID(txCtx, id)
		if err != nil {
			return fmt.Errorf("failed to load disbursement: %w", err)
		}
		if disbursement == nil {
			return shared.NewDomainError("NOT_FOUND", "Disbursement not found")
		}

		if err := disbursement.UndoRelease(s.now()); err != nil {
			return err
		}

		plan := payables.PlanUndoRelease(disbursement.Requisitions)
		if err := s.applyCascade(txCtx, plan, s.now()); err != nil {
			return err
		}
		if err := s.disbursementRepo.SaveWithLock(txCtx, disbursement); err != nil {
			return err
		}
		if err := s.logActivity(txCtx, disbursement.ID, audit.ActionReleaseUndone, actorID,
			"Release undone within the grace window"); err != nil {
			return err
		}

		response = toDisbursementResponse(disbursement, s.now())
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordReleaseUndone(ctx)
	}
	return response, nil
}

// CorrectRelease reverts a release after the undo window has expired. It has
// the same downstream effect as UndoRelease but requires a reason and is
// recorded as a distinct audited action.
func (s *DisbursementService) CorrectRelease(ctx context.Context, id uuid.UUID, input CorrectReleaseInput) (*DisbursementResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "disbursement", "correct_release",
		telemetry.WithAttribute(telemetry.SpanAttrDisbursementID, id.String()))
	defer span.End()

	unlock, err := s.acquireReleaseLock(ctx, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	defer unlock()

	var response *DisbursementResponse
	err = s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		disbursement, err := s.disbursementRepo.FindByID(txCtx, id)
		if err != nil {
			return fmt.Errorf("failed to load disbursement: %w", err)
		}
		if disbursement == nil {
			return shared.NewDomainError("NOT_FOUND", "Disbursement not found")
		}

		if err := disbursement.CorrectRelease(s.now(), input.Reason); err != nil {
			return err
		}

		plan := payables.PlanUndoRelease(disbursement.Requisitions)
		if err := s.applyCascade(txCtx, plan, s.now()); err != nil {
			return err
		}
		if err := s.disbursementRepo.SaveWithLock(txCtx, disbursement); err != nil {
			return err
		}
		if err := s.logActivity(txCtx, disbursement.ID, audit.ActionReleaseCorrected, input.ActorID,
			fmt.Sprintf("Release corrected: %s", input.Reason)); err != nil {
			return err
		}

		response = toDisbursementResponse(disbursement, s.now())
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordReleaseCorrected(ctx)
	}
	return response, nil
}

// BulkRelease releases multiple disbursements with per-item isolation: one
// failure never blocks the others, and each success opens its own undo
// window.
func (s *DisbursementService) BulkRelease(ctx context.Context, input BulkReleaseInput) (*BulkReleaseResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "disbursement", "bulk_release")
	defer span.End()

	if len(input.DisbursementIDs) == 0 {
		return nil, shared.NewValidationError("disbursement_ids", "At least one disbursement is required")
	}

	result := &BulkReleaseResult{
		Released: make([]DisbursementResponse, 0, len(input.DisbursementIDs)),
		Errors:   make([]BulkReleaseError, 0),
	}
	for _, id := range input.DisbursementIDs {
		response, err := s.Release(ctx, id, ReleaseInput{
			ReleaseDate: input.ReleaseDate,
			Notes:       input.Notes,
			ActorID:     input.ActorID,
		})
		if err != nil {
			result.Errors = append(result.Errors, toBulkReleaseError(id, err))
			continue
		}
		result.SuccessCount++
		result.Released = append(result.Released, *response)
	}

	telemetry.SetAttributes(span,
		"requested", len(input.DisbursementIDs),
		"succeeded", result.SuccessCount,
		"failed", len(result.Errors),
	)
	return result, nil
}

// CheckVoucherUnique reports whether a voucher number is still available.
// excludeID skips the disbursement being edited so its own unchanged voucher
// is never flagged.
func (s *DisbursementService) CheckVoucherUnique(ctx context.Context, voucherNumber string, excludeID *uuid.UUID) (bool, error) {
	if voucherNumber == "" {
		return false, shared.NewValidationError("voucher_number", "Voucher number is required")
	}
	taken, err := s.disbursementRepo.ExistsByVoucherNumber(ctx, voucherNumber, excludeID)
	if err != nil {
		return false, fmt.Errorf("failed to check voucher uniqueness: %w", err)
	}
	return !taken, nil
}

// GetByID gets a disbursement by ID with its requisitions and invoices
func (s *DisbursementService) GetByID(ctx context.Context, id uuid.UUID) (*DisbursementResponse, error) {
	disbursement, err := s.disbursementRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if disbursement == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Disbursement not found")
	}
	return toDisbursementResponse(disbursement, s.now()), nil
}

// List lists disbursements with filtering, whitelist sorting and the summary
// statistics computed over the whole filtered set, not just the page.
func (s *DisbursementService) List(ctx context.Context, filter DisbursementListFilter) (*DisbursementListResult, error) {
	domainFilter := payables.DisbursementFilter{
		VendorID:        filter.VendorID,
		ProjectID:       filter.ProjectID,
		PurchaseOrderID: filter.PurchaseOrderID,
		RequisitionID:   filter.RequisitionID,
		Released:        filter.Released,
		DateFrom:        filter.DateFrom,
		DateTo:          filter.DateTo,
		MinAmount:       filter.MinAmount,
		MaxAmount:       filter.MaxAmount,
	}
	domainFilter.Page = filter.Page
	domainFilter.PageSize = filter.PageSize
	domainFilter.OrderBy = filter.OrderBy
	domainFilter.OrderDir = filter.OrderDir
	domainFilter.Search = filter.Search

	if filter.DateField != "" {
		dateField := payables.DisbursementDateField(filter.DateField)
		if !dateField.IsValid() {
			return nil, shared.NewValidationError("date_field",
				fmt.Sprintf("Unknown date field %q", filter.DateField))
		}
		domainFilter.DateField = dateField
	}

	items, total, err := s.disbursementRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to list disbursements: %w", err)
	}
	summary, err := s.disbursementRepo.Summary(ctx, domainFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize disbursements: %w", err)
	}

	now := s.now()
	responses := make([]DisbursementResponse, 0, len(items))
	for i := range items {
		responses = append(responses, *toDisbursementResponse(&items[i], now))
	}
	return &DisbursementListResult{Items: responses, Total: total, Summary: *summary}, nil
}

// Delete removes a disbursement, reverting its requisitions and their
// invoices to approved first so nothing stays stuck in processed.
func (s *DisbursementService) Delete(ctx context.Context, id uuid.UUID, actorID uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "disbursement", "delete",
		telemetry.WithAttribute(telemetry.SpanAttrDisbursementID, id.String()))
	defer span.End()

	err := s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		disbursement, err := s.disbursementRepo.FindByID(txCtx, id)
		if err != nil {
			return fmt.Errorf("failed to load disbursement: %w", err)
		}
		if disbursement == nil {
			return shared.NewDomainError("NOT_FOUND", "Disbursement not found")
		}

		plan := payables.PlanLinkageChange(disbursement.Requisitions, nil, disbursement.IsReleased())
		if err := s.applyCascade(txCtx, plan, s.now()); err != nil {
			return err
		}
		if err := s.disbursementRepo.Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete disbursement: %w", err)
		}
		return s.logActivity(txCtx, id, audit.ActionDeleted, actorID, "Disbursement deleted")
	})
	if err != nil {
		telemetry.RecordError(span, err)
	}
	return err
}

// GetPendingDisbursements implements telemetry.PendingMetricsProvider so the
// periodic collector can gauge the unreleased workload.
func (s *DisbursementService) GetPendingDisbursements(ctx context.Context) (int64, decimal.Decimal, error) {
	released := false
	summary, err := s.disbursementRepo.Summary(ctx, payables.DisbursementFilter{Released: &released})
	if err != nil {
		return 0, decimal.Zero, err
	}
	return summary.PendingCount, summary.PendingAmount, nil
}

// ===================== Helpers =====================

func (s *DisbursementService) acquireReleaseLock(ctx context.Context, id uuid.UUID) (func(), error) {
	key := "disbursement:release:" + id.String()
	acquired, err := s.locks.Acquire(ctx, key, releaseLockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire release lock: %w", err)
	}
	if !acquired {
		return nil, shared.NewConflictError("Another release operation is in progress for this disbursement")
	}
	return func() { _ = s.locks.Release(ctx, key) }, nil
}

func (s *DisbursementService) applyCascade(ctx context.Context, plan payables.CascadePlan, at time.Time) error {
	if plan.IsEmpty() {
		return nil
	}
	if len(plan.Requisitions) > 0 {
		if err := s.requisitionRepo.ApplyStatusWrites(ctx, plan.Requisitions); err != nil {
			return fmt.Errorf("failed to apply requisition status writes: %w", err)
		}
	}
	if len(plan.Invoices) > 0 {
		if err := s.invoiceRepo.ApplyStatusWrites(ctx, plan.Invoices, at); err != nil {
			return fmt.Errorf("failed to apply invoice status writes: %w", err)
		}
	}
	return nil
}

func (s *DisbursementService) logActivity(ctx context.Context, disbursementID uuid.UUID, action audit.Action, actorID uuid.UUID, description string) error {
	entry, err := audit.NewActivityLog(disbursementEntityType, disbursementID, action, actorID, description)
	if err != nil {
		return err
	}
	if err := s.activityLogRepo.Append(ctx, entry); err != nil {
		return fmt.Errorf("failed to append activity log: %w", err)
	}
	return nil
}

func toBulkReleaseError(id uuid.UUID, err error) BulkReleaseError {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return BulkReleaseError{DisbursementID: id, Code: domainErr.Code, Message: domainErr.Message}
	}
	return BulkReleaseError{DisbursementID: id, Code: "INTERNAL", Message: err.Error()}
}

func sameIDSet(a, b []uuid.UUID) bool {
	removed, added := payables.DiffLinkage(a, b)
	return len(removed) == 0 && len(added) == 0
}

func (s *DisbursementService) requireUnlinked(ctx context.Context, ids []uuid.UUID, selfID *uuid.UUID) error {
	linked, err := s.requisitionRepo.LinkedActiveDisbursement(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to check requisition linkage: %w", err)
	}
	for requisitionID, disbursementID := range linked {
		if selfID != nil && disbursementID == *selfID {
			continue
		}
		return shared.NewConflictError(
			fmt.Sprintf("Check requisition %s is already linked to another disbursement", requisitionID))
	}
	return nil
}

func pickRequisitions(requisitions []*payables.CheckRequisition, ids []uuid.UUID) []*payables.CheckRequisition {
	wanted := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	picked := make([]*payables.CheckRequisition, 0, len(ids))
	for _, cr := range requisitions {
		if wanted[cr.ID] {
			picked = append(picked, cr)
		}
	}
	return picked
}

func keepRequisitions(requisitions []*payables.CheckRequisition, removedIDs []uuid.UUID) []*payables.CheckRequisition {
	removed := make(map[uuid.UUID]bool, len(removedIDs))
	for _, id := range removedIDs {
		removed[id] = true
	}
	kept := make([]*payables.CheckRequisition, 0, len(requisitions))
	for _, cr := range requisitions {
		if !removed[cr.ID] {
			kept = append(kept, cr)
		}
	}
	return kept
}
