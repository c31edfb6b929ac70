package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/payables/backend/internal/domain/payables"
	"github.com/payables/backend/internal/domain/shared"
	"github.com/payables/backend/internal/infrastructure/persistence/models"
)

// GormPurchaseOrderRepository implements PurchaseOrderRepository using GORM
type GormPurchaseOrderRepository struct {
	db *gorm.DB
}

var _ payables.PurchaseOrderRepository = (*GormPurchaseOrderRepository)(nil)

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db}
}

// FindByID finds a purchase order by ID
func (r *GormPurchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*payables.PurchaseOrder, error) {
	var model models.PurchaseOrderModel
	if err := dbFromContext(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByPoNumber finds a purchase order by PO number
func (r *GormPurchaseOrderRepository) FindByPoNumber(ctx context.Context, poNumber string) (*payables.PurchaseOrder, error) {
	var model models.PurchaseOrderModel
	if err := dbFromContext(ctx, r.db).First(&model, "po_number = ?", poNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds all purchase orders with filtering and pagination
func (r *GormPurchaseOrderRepository) FindAll(ctx context.Context, filter payables.PurchaseOrderFilter) ([]payables.PurchaseOrder, int64, error) {
	query := dbFromContext(ctx, r.db).Model(&models.PurchaseOrderModel{})

	if filter.VendorID != nil {
		query = query.Where("vendor_id = ?", *filter.VendorID)
	}
	if filter.ProjectID != nil {
		query = query.Where("project_id = ?", *filter.ProjectID)
	}
	if filter.OutstandingOnly {
		query = query.Where("outstanding_amount > 0")
	}
	if filter.Search != "" {
		query = query.Where("po_number ILIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := ValidateSortField(filter.OrderBy, PurchaseOrderSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", orderBy, orderDir))

	if filter.Limit() > 0 {
		query = query.Limit(filter.Limit()).Offset(filter.Offset())
	}

	var rows []models.PurchaseOrderModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	orders := make([]payables.PurchaseOrder, 0, len(rows))
	for i := range rows {
		orders = append(orders, *rows[i].ToDomain())
	}
	return orders, total, nil
}

// Save creates or updates a purchase order
func (r *GormPurchaseOrderRepository) Save(ctx context.Context, po *payables.PurchaseOrder) error {
	var model models.PurchaseOrderModel
	model.FromDomain(po)
	return dbFromContext(ctx, r.db).Save(&model).Error
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormPurchaseOrderRepository) SaveWithLock(ctx context.Context, po *payables.PurchaseOrder) error {
	var model models.PurchaseOrderModel
	model.FromDomain(po)

	result := dbFromContext(ctx, r.db).
		Model(&models.PurchaseOrderModel{}).
		Where("id = ? AND version = ?", model.ID, model.Version-1).
		Updates(&model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Delete deletes a purchase order
func (r *GormPurchaseOrderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return dbFromContext(ctx, r.db).Delete(&models.PurchaseOrderModel{}, "id = ?", id).Error
}
