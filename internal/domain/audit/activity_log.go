package audit

import (
	"context"

	"github.com/google/uuid"

	"github.com/payables/backend/internal/domain/shared"
)

// Action names the user operation an activity log entry records
type Action string

const (
	ActionCreated          Action = "created"
	ActionUpdated          Action = "updated"
	ActionDeleted          Action = "deleted"
	ActionReleased         Action = "released"
	ActionReleaseUndone    Action = "release_undone"
	ActionReleaseCorrected Action = "release_corrected"
	ActionFileUploaded     Action = "file_uploaded"
)

// ActivityLog is an append-only record of a user action against a payables
// entity. Entries are created on action and never mutated or deleted.
type ActivityLog struct {
	shared.BaseEntity
	EntityType  string    `json:"entity_type"`
	EntityID    uuid.UUID `json:"entity_id"`
	Action      Action    `json:"action"`
	ActorID     uuid.UUID `json:"actor_id"`
	Description string    `json:"description"`
}

// NewActivityLog creates a new activity log entry
func NewActivityLog(entityType string, entityID uuid.UUID, action Action, actorID uuid.UUID, description string) (*ActivityLog, error) {
	if entityType == "" {
		return nil, shared.NewDomainError("INVALID_ENTITY_TYPE", "Entity type cannot be empty")
	}
	if entityID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ENTITY_ID", "Entity ID cannot be empty")
	}
	if action == "" {
		return nil, shared.NewDomainError("INVALID_ACTION", "Action cannot be empty")
	}
	return &ActivityLog{
		BaseEntity:  shared.NewBaseEntity(),
		EntityType:  entityType,
		EntityID:    entityID,
		Action:      action,
		ActorID:     actorID,
		Description: description,
	}, nil
}

// ActivityLogRepository defines the interface for activity log persistence.
// The store is append-only: there is no update or delete.
type ActivityLogRepository interface {
	Append(ctx context.Context, entry *ActivityLog) error
	FindByEntity(ctx context.Context, entityType string, entityID uuid.UUID, filter shared.Filter) ([]ActivityLog, int64, error)
}
