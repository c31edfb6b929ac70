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

// GormProjectRepository implements ProjectRepository using GORM
type GormProjectRepository struct {
	db *gorm.DB
}

var _ payables.ProjectRepository = (*GormProjectRepository)(nil)

// NewGormProjectRepository creates a new GormProjectRepository
func NewGormProjectRepository(db *gorm.DB) *GormProjectRepository {
	return &GormProjectRepository{db: db}
}

// FindByID finds a project by ID
func (r *GormProjectRepository) FindByID(ctx context.Context, id uuid.UUID) (*payables.Project, error) {
	var model models.ProjectModel
	if err := dbFromContext(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds all projects with filtering and pagination
func (r *GormProjectRepository) FindAll(ctx context.Context, filter shared.Filter) ([]payables.Project, int64, error) {
	query := dbFromContext(ctx, r.db).Model(&models.ProjectModel{})

	if filter.Search != "" {
		query = query.Where("project_title ILIKE ? OR cer_number ILIKE ?",
			"%"+filter.Search+"%", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orderBy := ValidateSortField(filter.OrderBy, ProjectSortFields, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", orderBy, orderDir))

	if filter.Limit() > 0 {
		query = query.Limit(filter.Limit()).Offset(filter.Offset())
	}

	var rows []models.ProjectModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	projects := make([]payables.Project, 0, len(rows))
	for i := range rows {
		projects = append(projects, *rows[i].ToDomain())
	}
	return projects, total, nil
}

// Save creates or updates a project
func (r *GormProjectRepository) Save(ctx context.Context, project *payables.Project) error {
	var model models.ProjectModel
	model.FromDomain(project)
	return dbFromContext(ctx, r.db).Save(&model).Error
}

// Delete deletes a project
func (r *GormProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return dbFromContext(ctx, r.db).Delete(&models.ProjectModel{}, "id = ?", id).Error
}
