package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/payables/backend/internal/domain/payables"
	"github.com/payables/backend/internal/infrastructure/persistence/models"
)

// GormAttachmentRepository implements AttachmentRepository using GORM
type GormAttachmentRepository struct {
	db *gorm.DB
}

var _ payables.AttachmentRepository = (*GormAttachmentRepository)(nil)

// NewGormAttachmentRepository creates a new GormAttachmentRepository
func NewGormAttachmentRepository(db *gorm.DB) *GormAttachmentRepository {
	return &GormAttachmentRepository{db: db}
}

// FindByID finds an attachment by ID
func (r *GormAttachmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*payables.Attachment, error) {
	var model models.AttachmentModel
	if err := dbFromContext(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByAttachable returns all attachments for an entity, oldest first
func (r *GormAttachmentRepository) FindByAttachable(ctx context.Context, attachableType payables.AttachableType, attachableID uuid.UUID) ([]payables.Attachment, error) {
	var rows []models.AttachmentModel
	err := dbFromContext(ctx, r.db).
		Where("attachable_type = ? AND attachable_id = ?", string(attachableType), attachableID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	attachments := make([]payables.Attachment, 0, len(rows))
	for i := range rows {
		attachments = append(attachments, *rows[i].ToDomain())
	}
	return attachments, nil
}

// Save creates or updates an attachment
func (r *GormAttachmentRepository) Save(ctx context.Context, attachment *payables.Attachment) error {
	var model models.AttachmentModel
	model.FromDomain(attachment)
	return dbFromContext(ctx, r.db).Save(&model).Error
}

// Delete deletes an attachment
func (r *GormAttachmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return dbFromContext(ctx, r.db).Delete(&models.AttachmentModel{}, "id = ?", id).Error
}
