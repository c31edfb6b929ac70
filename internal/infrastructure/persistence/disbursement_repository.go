package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/payables/backend/internal/domain/payables"
	"github.com/payables/backend/internal/domain/shared"
	"github.com/payables/backend/internal/infrastructure/persistence/models"
)

// amountsSubquery aggregates the requisition amounts per disbursement so
// listing filters and summaries can work against the disbursement total.
const amountsSubquery = `LEFT JOIN (
	SELECT dcr.disbursement_id, SUM(cr.php_amount) AS total
	FROM disbursement_check_requisitions dcr
	JOIN check_requisitions cr ON cr.id = dcr.check_requisition_id
	GROUP BY dcr.disbursement_id
) amounts ON amounts.disbursement_id = disbursements.id`

// GormDisbursementRepository implements DisbursementRepository using GORM
type GormDisbursementRepository struct {
	db *gorm.DB
}

var _ payables.DisbursementRepository = (*GormDisbursementRepository)(nil)

// NewGormDisbursementRepository creates a new GormDisbursementRepository
func NewGormDisbursementRepository(db *gorm.DB) *GormDisbursementRepository {
	return &GormDisbursementRepository{db: db}
}

// FindByID loads a disbursement with its requisitions and their invoices
func (r *GormDisbursementRepository) FindByID(ctx context.Context, id uuid.UUID) (*payables.Disbursement, error) {
	var model models.DisbursementModel
	if err := dbFromContext(ctx, r.db).
		Preload("Requisitions.Invoices").
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

func applyDisbursementFilter(query *gorm.DB, filter payables.DisbursementFilter) *gorm.DB {
	query = query.Joins(amountsSubquery)

	if filter.VendorID != nil {
		query = query.Where(`EXISTS (
			SELECT 1 FROM disbursement_check_requisitions dcr
			JOIN check_requisitions cr ON cr.id = dcr.check_requisition_id
			WHERE dcr.disbursement_id = disbursements.id AND cr.vendor_id = ?)`, *filter.VendorID)
	}
	if filter.ProjectID != nil {
		query = query.Where(`EXISTS (
			SELECT 1 FROM disbursement_check_requisitions dcr
			JOIN check_requisitions cr ON cr.id = dcr.check_requisition_id
			WHERE dcr.disbursement_id = disbursements.id AND cr.project_id = ?)`, *filter.ProjectID)
	}
	if filter.PurchaseOrderID != nil {
		query = query.Where(`EXISTS (
			SELECT 1 FROM disbursement_check_requisitions dcr
			JOIN check_requisition_invoices cri ON cri.check_requisition_id = dcr.check_requisition_id
			JOIN invoices i ON i.id = cri.invoice_id
			WHERE dcr.disbursement_id = disbursements.id AND i.purchase_order_id = ?)`, *filter.PurchaseOrderID)
	}
	if filter.RequisitionID != nil {
		query = query.Where(`EXISTS (
			SELECT 1 FROM disbursement_check_requisitions dcr
			WHERE dcr.disbursement_id = disbursements.id AND dcr.check_requisition_id = ?)`, *filter.RequisitionID)
	}
	if filter.Released != nil {
		if *filter.Released {
			query = query.Where("date_check_released_to_vendor IS NOT NULL")
		} else {
			query = query.Where("date_check_released_to_vendor IS NULL")
		}
	}
	if filter.DateFrom != nil || filter.DateTo != nil {
		dateField := payables.DisbursementDateFieldScheduled
		if filter.DateField.IsValid() {
			dateField = filter.DateField
		}
		if filter.DateFrom != nil {
			query = query.Where(fmt.Sprintf("%s >= ?", dateField), *filter.DateFrom)
		}
		if filter.DateTo != nil {
			query = query.Where(fmt.Sprintf("%s <= ?", dateField), *filter.DateTo)
		}
	}
	if filter.MinAmount != nil {
		query = query.Where("COALESCE(amounts.total, 0) >= ?", *filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		query = query.Where("COALESCE(amounts.total, 0) <= ?", *filter.MaxAmount)
	}
	if filter.Search != "" {
		query = query.Where("check_voucher_number ILIKE ? OR remarks ILIKE ?",
			"%"+filter.Search+"%", "%"+filter.Search+"%")
	}
	return query
}

// FindAll finds all disbursements with filtering and pagination
func (r *GormDisbursementRepository) FindAll(ctx context.Context, filter payables.DisbursementFilter) ([]payables.Disbursement, int64, error) {
	query := applyDisbursementFilter(
		dbFromContext(ctx, r.db).Model(&models.DisbursementModel{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := ValidateSortField(filter.OrderBy, DisbursementSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("disbursements.%s %s", orderBy, orderDir))

	if filter.Limit() > 0 {
		query = query.Limit(filter.Limit()).Offset(filter.Offset())
	}

	var rows []models.DisbursementModel
	if err := query.Preload("Requisitions.Invoices").Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	disbursements := make([]payables.Disbursement, 0, len(rows))
	for i := range rows {
		disbursements = append(disbursements, *rows[i].ToDomain())
	}
	return disbursements, total, nil
}

// FindUnreleased returns all unreleased disbursements with requisitions and
// invoices preloaded
func (r *GormDisbursementRepository) FindUnreleased(ctx context.Context) ([]*payables.Disbursement, error) {
	var rows []models.DisbursementModel
	err := dbFromContext(ctx, r.db).
		Preload("Requisitions.Invoices").
		Where("date_check_released_to_vendor IS NULL").
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	disbursements := make([]*payables.Disbursement, 0, len(rows))
	for i := range rows {
		disbursements = append(disbursements, rows[i].ToDomain())
	}
	return disbursements, nil
}

// FindByDateRange returns disbursements whose scheduled or released date falls
// inside [from, to]
func (r *GormDisbursementRepository) FindByDateRange(ctx context.Context, from, to time.Time) ([]*payables.Disbursement, error) {
	var rows []models.DisbursementModel
	err := dbFromContext(ctx, r.db).
		Preload("Requisitions.Invoices").
		Where("(date_check_scheduled BETWEEN ? AND ?) OR (date_check_released_to_vendor BETWEEN ? AND ?)",
			from, to, from, to).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	disbursements := make([]*payables.Disbursement, 0, len(rows))
	for i := range rows {
		disbursements = append(disbursements, rows[i].ToDomain())
	}
	return disbursements, nil
}

// ExistsByVoucherNumber reports whether another disbursement already carries
// the voucher number
func (r *GormDisbursementRepository) ExistsByVoucherNumber(ctx context.Context, voucherNumber string, excludeID *uuid.UUID) (bool, error) {
	query := dbFromContext(ctx, r.db).
		Model(&models.DisbursementModel{}).
		Where("check_voucher_number = ?", voucherNumber)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Summary computes aggregate statistics over the filtered disbursements
func (r *GormDisbursementRepository) Summary(ctx context.Context, filter payables.DisbursementFilter) (*payables.DisbursementSummary, error) {
	query := applyDisbursementFilter(
		dbFromContext(ctx, r.db).Model(&models.DisbursementModel{}), filter)

	var rows []struct {
		Released bool
		Count    int64
		Amount   decimal.Decimal
	}
	err := query.
		Select("(date_check_released_to_vendor IS NOT NULL) AS released, COUNT(*) AS count, COALESCE(SUM(amounts.total), 0) AS amount").
		Group("released").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	summary := &payables.DisbursementSummary{
		TotalAmount:    decimal.Zero,
		ReleasedAmount: decimal.Zero,
		PendingAmount:  decimal.Zero,
	}
	for _, row := range rows {
		summary.TotalCount += row.Count
		summary.TotalAmount = summary.TotalAmount.Add(row.Amount)
		if row.Released {
			summary.ReleasedCount = row.Count
			summary.ReleasedAmount = row.Amount
		} else {
			summary.PendingCount = row.Count
			summary.PendingAmount = row.Amount
		}
	}
	return summary, nil
}

// Save creates or updates a disbursement. Requisition links are written
// through ReplaceLinks.
func (r *GormDisbursementRepository) Save(ctx context.Context, disbursement *payables.Disbursement) error {
	var model models.DisbursementModel
	model.FromDomain(disbursement)
	return dbFromContext(ctx, r.db).Save(&model).Error
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormDisbursementRepository) SaveWithLock(ctx context.Context, disbursement *payables.Disbursement) error {
	var model models.DisbursementModel
	model.FromDomain(disbursement)

	updates := map[string]any{
		"check_voucher_number":          model.CheckVoucherNumber,
		"date_check_printing":           model.DateCheckPrinting,
		"date_check_scheduled":          model.DateCheckScheduled,
		"date_check_released_to_vendor": model.DateCheckReleasedToVendor,
		"undo_expires_at":               model.UndoExpiresAt,
		"remarks":                       model.Remarks,
		"version":                       model.Version,
		"updated_at":                    model.UpdatedAt,
	}

	result := dbFromContext(ctx, r.db).
		Model(&models.DisbursementModel{}).
		Where("id = ? AND version = ?", model.ID, model.Version-1).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// ReplaceLinks rewrites the pivot rows linking the disbursement to the given
// requisition ids
func (r *GormDisbursementRepository) ReplaceLinks(ctx context.Context, disbursementID uuid.UUID, requisitionIDs []uuid.UUID) error {
	db := dbFromContext(ctx, r.db)

	if err := db.Delete(&models.DisbursementRequisitionLink{},
		"disbursement_id = ?", disbursementID).Error; err != nil {
		return err
	}
	if len(requisitionIDs) == 0 {
		return nil
	}

	now := time.Now()
	links := make([]models.DisbursementRequisitionLink, 0, len(requisitionIDs))
	for _, id := range requisitionIDs {
		links = append(links, models.DisbursementRequisitionLink{
			DisbursementID:     disbursementID,
			CheckRequisitionID: id,
			CreatedAt:          now,
		})
	}
	return db.Create(&links).Error
}

// Delete deletes a disbursement and its requisition links
func (r *GormDisbursementRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := dbFromContext(ctx, r.db)
	if err := db.Delete(&models.DisbursementRequisitionLink{},
		"disbursement_id = ?", id).Error; err != nil {
		return err
	}
	return db.Delete(&models.DisbursementModel{}, "id = ?", id).Error
}
