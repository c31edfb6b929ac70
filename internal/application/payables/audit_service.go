package payables

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/payables/backend/internal/domain/audit"
	"github.com/payables/backend/internal/domain/shared"
)

// auditableEntityTypes names the entity kinds that accept remarks and expose
// an activity trail.
var auditableEntityTypes = map[string]bool{
	disbursementEntityType:  true,
	requisitionEntityType:   true,
	invoiceEntityType:       true,
	purchaseOrderEntityType: true,
}

// AuditService exposes the append-only remark and activity log trails
type AuditService struct {
	remarkRepo      audit.RemarkRepository
	activityLogRepo audit.ActivityLogRepository
}

// NewAuditService creates a new AuditService
func NewAuditService(remarkRepo audit.RemarkRepository, activityLogRepo audit.ActivityLogRepository) *AuditService {
	return &AuditService{
		remarkRepo:      remarkRepo,
		activityLogRepo: activityLogRepo,
	}
}

// RemarkResponse represents a remark in API responses
type RemarkResponse struct {
	ID         uuid.UUID `json:"id"`
	EntityType string    `json:"entity_type"`
	EntityID   uuid.UUID `json:"entity_id"`
	AuthorID   uuid.UUID `json:"author_id"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// ActivityLogResponse represents an activity log entry in API responses
type ActivityLogResponse struct {
	ID          uuid.UUID `json:"id"`
	EntityType  string    `json:"entity_type"`
	EntityID    uuid.UUID `json:"entity_id"`
	Action      string    `json:"action"`
	ActorID     uuid.UUID `json:"actor_id"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

func toRemarkResponse(r *audit.Remark) *RemarkResponse {
	return &RemarkResponse{
		ID:         r.ID,
		EntityType: r.EntityType,
		EntityID:   r.EntityID,
		AuthorID:   r.AuthorID,
		Body:       r.Body,
		CreatedAt:  r.CreatedAt,
	}
}

func toActivityLogResponse(e *audit.ActivityLog) *ActivityLogResponse {
	return &ActivityLogResponse{
		ID:          e.ID,
		EntityType:  e.EntityType,
		EntityID:    e.EntityID,
		Action:      string(e.Action),
		ActorID:     e.ActorID,
		Description: e.Description,
		CreatedAt:   e.CreatedAt,
	}
}

// AuditListFilter defines pagination for remark and activity log lists
type AuditListFilter struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}

// AppendRemark appends a remark to an entity's trail
func (s *AuditService) AppendRemark(ctx context.Context, entityType string, entityID uuid.UUID, authorID uuid.UUID, body string) (*RemarkResponse, error) {
	if !auditableEntityTypes[entityType] {
		return nil, shared.NewValidationError("entity_type", fmt.Sprintf("Unknown entity type %q", entityType))
	}
	remark, err := audit.NewRemark(entityType, entityID, authorID, body)
	if err != nil {
		return nil, err
	}
	if err := s.remarkRepo.Append(ctx, remark); err != nil {
		return nil, fmt.Errorf("failed to append remark: %w", err)
	}
	return toRemarkResponse(remark), nil
}

// ListRemarks lists an entity's remarks, newest first
func (s *AuditService) ListRemarks(ctx context.Context, entityType string, entityID uuid.UUID, filter AuditListFilter) ([]RemarkResponse, int64, error) {
	if !auditableEntityTypes[entityType] {
		return nil, 0, shared.NewValidationError("entity_type", fmt.Sprintf("Unknown entity type %q", entityType))
	}
	remarks, total, err := s.remarkRepo.FindByEntity(ctx, entityType, entityID, listFilter(filter))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list remarks: %w", err)
	}
	responses := make([]RemarkResponse, 0, len(remarks))
	for i := range remarks {
		responses = append(responses, *toRemarkResponse(&remarks[i]))
	}
	return responses, total, nil
}

// ListActivity lists an entity's activity log, newest first
func (s *AuditService) ListActivity(ctx context.Context, entityType string, entityID uuid.UUID, filter AuditListFilter) ([]ActivityLogResponse, int64, error) {
	if !auditableEntityTypes[entityType] {
		return nil, 0, shared.NewValidationError("entity_type", fmt.Sprintf("Unknown entity type %q", entityType))
	}
	entries, total, err := s.activityLogRepo.FindByEntity(ctx, entityType, entityID, listFilter(filter))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list activity log: %w", err)
	}
	responses := make([]ActivityLogResponse, 0, len(entries))
	for i := range entries {
		responses = append(responses, *toActivityLogResponse(&entries[i]))
	}
	return responses, total, nil
}

func listFilter(filter AuditListFilter) shared.Filter {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	return f
}
