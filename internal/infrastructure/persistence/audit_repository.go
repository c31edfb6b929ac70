package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/payables/backend/internal/domain/audit"
	"github.com/payables/backend/internal/domain/shared"
	"github.com/payables/backend/internal/infrastructure/persistence/models"
)

// GormActivityLogRepository implements ActivityLogRepository using GORM
type GormActivityLogRepository struct {
	db *gorm.DB
}

var _ audit.ActivityLogRepository = (*GormActivityLogRepository)(nil)

// NewGormActivityLogRepository creates a new GormActivityLogRepository
func NewGormActivityLogRepository(db *gorm.DB) *GormActivityLogRepository {
	return &GormActivityLogRepository{db: db}
}

// Append inserts a new activity log entry
func (r *GormActivityLogRepository) Append(ctx context.Context, entry *audit.ActivityLog) error {
	var model models.ActivityLogModel
	model.FromDomain(entry)
	return dbFromContext(ctx, r.db).Create(&model).Error
}

// FindByEntity returns the activity log entries for an entity, newest first
func (r *GormActivityLogRepository) FindByEntity(ctx context.Context, entityType string, entityID uuid.UUID, filter shared.Filter) ([]audit.ActivityLog, int64, error) {
	query := dbFromContext(ctx, r.db).
		Model(&models.ActivityLogModel{}).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := ValidateSortField(filter.OrderBy, CommonSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", orderBy, orderDir))

	if filter.Limit() > 0 {
		query = query.Limit(filter.Limit()).Offset(filter.Offset())
	}

	var rows []models.ActivityLogModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	entries := make([]audit.ActivityLog, 0, len(rows))
	for i := range rows {
		entries = append(entries, *rows[i].ToDomain())
	}
	return entries, total, nil
}

// GormRemarkRepository implements RemarkRepository using GORM
type GormRemarkRepository struct {
	db *gorm.DB
}

var _ audit.RemarkRepository = (*GormRemarkRepository)(nil)

// NewGormRemarkRepository creates a new GormRemarkRepository
func NewGormRemarkRepository(db *gorm.DB) *GormRemarkRepository {
	return &GormRemarkRepository{db: db}
}

// Append inserts a new remark
func (r *GormRemarkRepository) Append(ctx context.Context, remark *audit.Remark) error {
	var model models.RemarkModel
	model.FromDomain(remark)
	return dbFromContext(ctx, r.db).Create(&model).Error
}

// FindByEntity returns the remarks for an entity, newest first
func (r *GormRemarkRepository) FindByEntity(ctx context.Context, entityType string, entityID uuid.UUID, filter shared.Filter) ([]audit.Remark, int64, error) {
	query := dbFromContext(ctx, r.db).
		Model(&models.RemarkModel{}).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := ValidateSortField(filter.OrderBy, CommonSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", orderBy, orderDir))

	if filter.Limit() > 0 {
		query = query.Limit(filter.Limit()).Offset(filter.Offset())
	}

	var rows []models.RemarkModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	remarks := make([]audit.Remark, 0, len(rows))
	for i := range rows {
		remarks = append(remarks, *rows[i].ToDomain())
	}
	return remarks, total, nil
}
