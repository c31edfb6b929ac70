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

// GormVendorRepository implements VendorRepository using GORM
type GormVendorRepository struct {
	db *gorm.DB
}

var _ payables.VendorRepository = (*GormVendorRepository)(nil)

// NewGormVendorRepository creates a new GormVendorRepository
func NewGormVendorRepository(db *gorm.DB) *GormVendorRepository {
	return &GormVendorRepository{db: db}
}

// FindByID finds a vendor by ID
func (r *GormVendorRepository) FindByID(ctx context.Context, id uuid.UUID) (*payables.Vendor, error) {
	var model models.VendorModel
	if err := dbFromContext(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds all vendors with filtering and pagination
func (r *GormVendorRepository) FindAll(ctx context.Context, filter shared.Filter) ([]payables.Vendor, int64, error) {
	query := dbFromContext(ctx, r.db).Model(&models.VendorModel{})

	if filter.Search != "" {
		query = query.Where("name ILIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := ValidateSortField(filter.OrderBy, VendorSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", orderBy, orderDir))

	if filter.Limit() > 0 {
		query = query.Limit(filter.Limit()).Offset(filter.Offset())
	}

	var rows []models.VendorModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	vendors := make([]payables.Vendor, 0, len(rows))
	for i := range rows {
		vendors = append(vendors, *rows[i].ToDomain())
	}
	return vendors, total, nil
}

// Save creates or updates a vendor
func (r *GormVendorRepository) Save(ctx context.Context, vendor *payables.Vendor) error {
	var model models.VendorModel
	model.FromDomain(vendor)
	return dbFromContext(ctx, r.db).Save(&model).Error
}

// Delete deletes a vendor
func (r *GormVendorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return dbFromContext(ctx, r.db).Delete(&models.VendorModel{}, "id = ?", id).Error
}
