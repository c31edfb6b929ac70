package payables

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/payables/backend/internal/domain/payables"
	"github.com/payables/backend/internal/domain/shared"
)

// MasterdataService provides vendor and project administration. Vendors stay
// immutable once a purchase order references them.
type MasterdataService struct {
	vendorRepo        payables.VendorRepository
	projectRepo       payables.ProjectRepository
	purchaseOrderRepo payables.PurchaseOrderRepository
}

// NewMasterdataService creates a new MasterdataService
func NewMasterdataService(
	vendorRepo payables.VendorRepository,
	projectRepo payables.ProjectRepository,
	purchaseOrderRepo payables.PurchaseOrderRepository,
) *MasterdataService {
	return &MasterdataService{
		vendorRepo:        vendorRepo,
		projectRepo:       projectRepo,
		purchaseOrderRepo: purchaseOrderRepo,
	}
}

// VendorResponse represents a vendor in API responses
type VendorResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`
}

// ProjectResponse represents a project in API responses
type ProjectResponse struct {
	ID           uuid.UUID `json:"id"`
	ProjectTitle string    `json:"project_title"`
	CerNumber    string    `json:"cer_number"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Version      int       `json:"version"`
}

func toVendorResponse(v *payables.Vendor) *VendorResponse {
	return &VendorResponse{
		ID:        v.ID,
		Name:      v.Name,
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
		Version:   v.Version,
	}
}

func toProjectResponse(p *payables.Project) *ProjectResponse {
	return &ProjectResponse{
		ID:           p.ID,
		ProjectTitle: p.ProjectTitle,
		CerNumber:    p.CerNumber,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
		Version:      p.Version,
	}
}

// MasterdataListFilter defines filtering options for vendor and project lists
type MasterdataListFilter struct {
	Search   string `form:"search"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

func (f MasterdataListFilter) toShared() shared.Filter {
	return shared.Filter{
		Page:     f.Page,
		PageSize: f.PageSize,
		OrderBy:  f.OrderBy,
		OrderDir: f.OrderDir,
		Search:   f.Search,
	}
}

// ===================== Vendors =====================

// CreateVendor creates a vendor
func (s *MasterdataService) CreateVendor(ctx context.Context, name string) (*VendorResponse, error) {
	vendor, err := payables.NewVendor(name)
	if err != nil {
		return nil, err
	}
	if err := s.vendorRepo.Save(ctx, vendor); err != nil {
		return nil, fmt.Errorf("failed to save vendor: %w", err)
	}
	return toVendorResponse(vendor), nil
}

// GetVendor gets a vendor by ID
func (s *MasterdataService) GetVendor(ctx context.Context, id uuid.UUID) (*VendorResponse, error) {
	vendor, err := s.vendorRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if vendor == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Vendor not found")
	}
	return toVendorResponse(vendor), nil
}

// ListVendors lists vendors with filtering
func (s *MasterdataService) ListVendors(ctx context.Context, filter MasterdataListFilter) ([]VendorResponse, int64, error) {
	vendors, total, err := s.vendorRepo.FindAll(ctx, filter.toShared())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list vendors: %w", err)
	}
	responses := make([]VendorResponse, 0, len(vendors))
	for i := range vendors {
		responses = append(responses, *toVendorResponse(&vendors[i]))
	}
	return responses, total, nil
}

// RenameVendor renames a vendor not yet referenced by any purchase order
func (s *MasterdataService) RenameVendor(ctx context.Context, id uuid.UUID, name string) (*VendorResponse, error) {
	vendor, err := s.vendorRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if vendor == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Vendor not found")
	}
	if err := s.requireVendorUnreferenced(ctx, id); err != nil {
		return nil, err
	}
	if err := vendor.Rename(name); err != nil {
		return nil, err
	}
	if err := s.vendorRepo.Save(ctx, vendor); err != nil {
		return nil, fmt.Errorf("failed to save vendor: %w", err)
	}
	return toVendorResponse(vendor), nil
}

// DeleteVendor removes a vendor not yet referenced by any purchase order
func (s *MasterdataService) DeleteVendor(ctx context.Context, id uuid.UUID) error {
	vendor, err := s.vendorRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if vendor == nil {
		return shared.NewDomainError("NOT_FOUND", "Vendor not found")
	}
	if err := s.requireVendorUnreferenced(ctx, id); err != nil {
		return err
	}
	if err := s.vendorRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete vendor: %w", err)
	}
	return nil
}

func (s *MasterdataService) requireVendorUnreferenced(ctx context.Context, vendorID uuid.UUID) error {
	filter := payables.PurchaseOrderFilter{VendorID: &vendorID}
	filter.Page = 1
	filter.PageSize = 1
	_, total, err := s.purchaseOrderRepo.FindAll(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to check vendor references: %w", err)
	}
	if total > 0 {
		return shared.NewConflictError("Vendor is referenced by purchase orders and cannot be changed")
	}
	return nil
}

// ===================== Projects =====================

// CreateProject creates a project
func (s *MasterdataService) CreateProject(ctx context.Context, title, cerNumber string) (*ProjectResponse, error) {
	project, err := payables.NewProject(title, cerNumber)
	if err != nil {
		return nil, err
	}
	if err := s.projectRepo.Save(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to save project: %w", err)
	}
	return toProjectResponse(project), nil
}

// GetProject gets a project by ID
func (s *MasterdataService) GetProject(ctx context.Context, id uuid.UUID) (*ProjectResponse, error) {
	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Project not found")
	}
	return toProjectResponse(project), nil
}

// ListProjects lists projects with filtering
func (s *MasterdataService) ListProjects(ctx context.Context, filter MasterdataListFilter) ([]ProjectResponse, int64, error) {
	projects, total, err := s.projectRepo.FindAll(ctx, filter.toShared())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}
	responses := make([]ProjectResponse, 0, len(projects))
	for i := range projects {
		responses = append(responses, *toProjectResponse(&projects[i]))
	}
	return responses, total, nil
}

// UpdateProject changes a project's title and CER number
func (s *MasterdataService) UpdateProject(ctx context.Context, id uuid.UUID, title, cerNumber string) (*ProjectResponse, error) {
	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Project not found")
	}
	if err := project.Update(title, cerNumber); err != nil {
		return nil, err
	}
	if err := s.projectRepo.Save(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to save project: %w", err)
	}
	return toProjectResponse(project), nil
}

// DeleteProject removes a project not yet referenced by any purchase order
func (s *MasterdataService) DeleteProject(ctx context.Context, id uuid.UUID) error {
	project, err := s.projectRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if project == nil {
		return shared.NewDomainError("NOT_FOUND", "Project not found")
	}

	filter := payables.PurchaseOrderFilter{ProjectID: &id}
	filter.Page = 1
	filter.PageSize = 1
	_, total, err := s.purchaseOrderRepo.FindAll(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to check project references: %w", err)
	}
	if total > 0 {
		return shared.NewConflictError("Project is referenced by purchase orders and cannot be deleted")
	}

	if err := s.projectRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}
