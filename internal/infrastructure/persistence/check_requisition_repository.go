package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/payables/backend/internal/domain/payables"
	"github.com/payables/backend/internal/domain/shared"
	"github.com/payables/backend/internal/infrastructure/persistence/models"
)

// GormCheckRequisitionRepository implements CheckRequisitionRepository using GORM
type GormCheckRequisitionRepository struct {
	db *gorm.DB
}

var _ payables.CheckRequisitionRepository = (*GormCheckRequisitionRepository)(nil)

// NewGormCheckRequisitionRepository creates a new GormCheckRequisitionRepository
func NewGormCheckRequisitionRepository(db *gorm.DB) *GormCheckRequisitionRepository {
	return &GormCheckRequisitionRepository{db: db}
}

// FindByID finds a check requisition by ID with its invoices preloaded
func (r *GormCheckRequisitionRepository) FindByID(ctx context.Context, id uuid.UUID) (*payables.CheckRequisition, error) {
	var model models.CheckRequisitionModel
	if err := dbFromContext(ctx, r.db).
		Preload("Invoices").
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs loads the requisitions with invoices preloaded. Every requested
// id must exist.
func (r *GormCheckRequisitionRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*payables.CheckRequisition, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.CheckRequisitionModel
	if err := dbFromContext(ctx, r.db).
		Preload("Invoices").
		Find(&rows, "id IN ?", ids).Error; err != nil {
		return nil, err
	}

	found := make(map[uuid.UUID]*payables.CheckRequisition, len(rows))
	for i := range rows {
		found[rows[i].ID] = rows[i].ToDomain()
	}

	requisitions := make([]*payables.CheckRequisition, 0, len(ids))
	for _, id := range ids {
		cr, ok := found[id]
		if !ok {
			return nil, shared.NewNotFoundError(fmt.Sprintf("Check requisition %s", id))
		}
		requisitions = append(requisitions, cr)
	}
	return requisitions, nil
}

// FindAll finds all check requisitions with filtering and pagination
func (r *GormCheckRequisitionRepository) FindAll(ctx context.Context, filter payables.RequisitionFilter) ([]payables.CheckRequisition, int64, error) {
	query := dbFromContext(ctx, r.db).Model(&models.CheckRequisitionModel{})

	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.VendorID != nil {
		query = query.Where("vendor_id = ?", *filter.VendorID)
	}
	if filter.ProjectID != nil {
		query = query.Where("project_id = ?", *filter.ProjectID)
	}
	if filter.PayeeName != "" {
		query = query.Where("payee_name ILIKE ?", "%"+filter.PayeeName+"%")
	}
	if filter.Search != "" {
		query = query.Where("requisition_number ILIKE ? OR payee_name ILIKE ?",
			"%"+filter.Search+"%", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := ValidateSortField(filter.OrderBy, RequisitionSortFields, "request_date")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", orderBy, orderDir))

	if filter.Limit() > 0 {
		query = query.Limit(filter.Limit()).Offset(filter.Offset())
	}

	var rows []models.CheckRequisitionModel
	if err := query.Preload("Invoices").Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	requisitions := make([]payables.CheckRequisition, 0, len(rows))
	for i := range rows {
		requisitions = append(requisitions, *rows[i].ToDomain())
	}
	return requisitions, total, nil
}

// FindUnassignedApproved returns approved requisitions that no disbursement
// currently links, with invoices preloaded
func (r *GormCheckRequisitionRepository) FindUnassignedApproved(ctx context.Context) ([]*payables.CheckRequisition, error) {
	var rows []models.CheckRequisitionModel
	err := dbFromContext(ctx, r.db).
		Preload("Invoices").
		Joins("LEFT JOIN disbursement_check_requisitions dcr ON dcr.check_requisition_id = check_requisitions.id").
		Where("check_requisitions.status = ?", string(payables.RequisitionStatusApproved)).
		Where("dcr.disbursement_id IS NULL").
		Order("check_requisitions.request_date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	requisitions := make([]*payables.CheckRequisition, 0, len(rows))
	for i := range rows {
		requisitions = append(requisitions, rows[i].ToDomain())
	}
	return requisitions, nil
}

// LinkedActiveDisbursement maps each requisition id to the disbursement it is
// linked to. Unlinked ids are omitted from the result.
func (r *GormCheckRequisitionRepository) LinkedActiveDisbursement(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]uuid.UUID, error) {
	result := make(map[uuid.UUID]uuid.UUID, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var links []models.DisbursementRequisitionLink
	if err := dbFromContext(ctx, r.db).
		Find(&links, "check_requisition_id IN ?", ids).Error; err != nil {
		return nil, err
	}
	for _, link := range links {
		result[link.CheckRequisitionID] = link.DisbursementID
	}
	return result, nil
}

// Save creates or updates a check requisition and its invoice membership
func (r *GormCheckRequisitionRepository) Save(ctx context.Context, requisition *payables.CheckRequisition) error {
	db := dbFromContext(ctx, r.db)

	var model models.CheckRequisitionModel
	model.FromDomain(requisition)
	if err := db.Save(&model).Error; err != nil {
		return err
	}

	invoices := make([]*models.InvoiceModel, 0, len(requisition.Invoices))
	for _, inv := range requisition.Invoices {
		var im models.InvoiceModel
		im.FromDomain(inv)
		invoices = append(invoices, &im)
	}
	return db.Model(&model).Association("Invoices").Replace(invoices)
}

// ApplyStatusWrites persists a batch of cascade-planned status writes
func (r *GormCheckRequisitionRepository) ApplyStatusWrites(ctx context.Context, writes []payables.RequisitionStatusWrite) error {
	db := dbFromContext(ctx, r.db)
	for _, w := range writes {
		result := db.Model(&models.CheckRequisitionModel{}).
			Where("id = ?", w.RequisitionID).
			Updates(map[string]any{
				"status":     string(w.Status),
				"updated_at": time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("check requisition %s not found for status write", w.RequisitionID)
		}
	}
	return nil
}

// Delete deletes a check requisition and its invoice links
func (r *GormCheckRequisitionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := dbFromContext(ctx, r.db)
	if err := db.Exec("DELETE FROM check_requisition_invoices WHERE check_requisition_id = ?", id).Error; err != nil {
		return err
	}
	return db.Delete(&models.CheckRequisitionModel{}, "id = ?", id).Error
}
