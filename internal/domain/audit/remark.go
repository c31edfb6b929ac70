package audit

import (
	"context"

	"github.com/google/uuid"

	"github.com/payables/backend/internal/domain/shared"
)

// Remark is a free-text note attached polymorphically to a payables entity.
// Like activity logs, remarks are append-only.
type Remark struct {
	shared.BaseEntity
	EntityType string    `json:"entity_type"`
	EntityID   uuid.UUID `json:"entity_id"`
	AuthorID   uuid.UUID `json:"author_id"`
	Body       string    `json:"body"`
}

// NewRemark creates a new remark
func NewRemark(entityType string, entityID uuid.UUID, authorID uuid.UUID, body string) (*Remark, error) {
	if entityType == "" {
		return nil, shared.NewDomainError("INVALID_ENTITY_TYPE", "Entity type cannot be empty")
	}
	if entityID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ENTITY_ID", "Entity ID cannot be empty")
	}
	if body == "" {
		return nil, shared.NewDomainError("INVALID_BODY", "Remark body cannot be empty")
	}
	if len(body) > 4000 {
		return nil, shared.NewDomainError("INVALID_BODY", "Remark body cannot exceed 4000 characters")
	}
	return &Remark{
		BaseEntity: shared.NewBaseEntity(),
		EntityType: entityType,
		EntityID:   entityID,
		AuthorID:   authorID,
		Body:       body,
	}, nil
}

// RemarkRepository defines the interface for remark persistence
type RemarkRepository interface {
	Append(ctx context.Context, remark *Remark) error
	FindByEntity(ctx context.Context, entityType string, entityID uuid.UUID, filter shared.Filter) ([]Remark, int64, error)
}
