package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/payables/backend/internal/domain/payables"
	"github.com/payables/backend/internal/infrastructure/persistence/models"
)

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

var _ payables.InvoiceRepository = (*GormInvoiceRepository)(nil)

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds an invoice by ID
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*payables.Invoice, error) {
	var model models.InvoiceModel
	if err := dbFromContext(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds invoices by a set of IDs
func (r *GormInvoiceRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*payables.Invoice, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.InvoiceModel
	if err := dbFromContext(ctx, r.db).Find(&rows, "id IN ?", ids).Error; err != nil {
		return nil, err
	}
	invoices := make([]*payables.Invoice, 0, len(rows))
	for i := range rows {
		invoices = append(invoices, rows[i].ToDomain())
	}
	return invoices, nil
}

// FindByPurchaseOrder finds all invoices booked against a purchase order
func (r *GormInvoiceRepository) FindByPurchaseOrder(ctx context.Context, purchaseOrderID uuid.UUID) ([]*payables.Invoice, error) {
	var rows []models.InvoiceModel
	if err := dbFromContext(ctx, r.db).
		Find(&rows, "purchase_order_id = ?", purchaseOrderID).Error; err != nil {
		return nil, err
	}
	invoices := make([]*payables.Invoice, 0, len(rows))
	for i := range rows {
		invoices = append(invoices, rows[i].ToDomain())
	}
	return invoices, nil
}

// FindAll finds all invoices with filtering and pagination
func (r *GormInvoiceRepository) FindAll(ctx context.Context, filter payables.InvoiceFilter) ([]payables.Invoice, int64, error) {
	query := dbFromContext(ctx, r.db).Model(&models.InvoiceModel{})

	if filter.PurchaseOrderID != nil {
		query = query.Where("purchase_order_id = ?", *filter.PurchaseOrderID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.DueFrom != nil {
		query = query.Where("due_date >= ?", *filter.DueFrom)
	}
	if filter.DueTo != nil {
		query = query.Where("due_date <= ?", *filter.DueTo)
	}
	if filter.Search != "" {
		query = query.Where("si_number ILIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := ValidateSortField(filter.OrderBy, InvoiceSortFields, "si_date")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", orderBy, orderDir))

	if filter.Limit() > 0 {
		query = query.Limit(filter.Limit()).Offset(filter.Offset())
	}

	var rows []models.InvoiceModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	invoices := make([]payables.Invoice, 0, len(rows))
	for i := range rows {
		invoices = append(invoices, *rows[i].ToDomain())
	}
	return invoices, total, nil
}

// Save creates or updates an invoice
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *payables.Invoice) error {
	var model models.InvoiceModel
	model.FromDomain(invoice)
	return dbFromContext(ctx, r.db).Save(&model).Error
}

// ApplyStatusWrites persists a batch of cascade-planned status writes.
// PaidAt is stamped on entry to paid and cleared on any other status.
func (r *GormInvoiceRepository) ApplyStatusWrites(ctx context.Context, writes []payables.InvoiceStatusWrite, at time.Time) error {
	db := dbFromContext(ctx, r.db)
	for _, w := range writes {
		updates := map[string]any{
			"status":     string(w.Status),
			"updated_at": time.Now(),
		}
		if w.Status == payables.InvoiceStatusPaid {
			updates["paid_at"] = at
		} else {
			updates["paid_at"] = nil
		}
		result := db.Model(&models.InvoiceModel{}).
			Where("id = ?", w.InvoiceID).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("invoice %s not found for status write", w.InvoiceID)
		}
	}
	return nil
}

// Delete deletes an invoice
func (r *GormInvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return dbFromContext(ctx, r.db).Delete(&models.InvoiceModel{}, "id = ?", id).Error
}
