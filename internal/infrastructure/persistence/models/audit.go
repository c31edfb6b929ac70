package models

import (
	"github.com/google/uuid"

	"github.com/payables/backend/internal/domain/audit"
)

// ActivityLogModel is the persistence model for activity log entries
type ActivityLogModel struct {
	BaseModel
	EntityType  string    `gorm:"size:50;not null;index:idx_activity_logs_entity"`
	EntityID    uuid.UUID `gorm:"type:uuid;not null;index:idx_activity_logs_entity"`
	Action      string    `gorm:"size:50;not null"`
	ActorID     uuid.UUID `gorm:"type:uuid;index"`
	Description string    `gorm:"type:text"`
}

// TableName returns the table name
func (ActivityLogModel) TableName() string {
	return "activity_logs"
}

// ToDomain converts the model to a domain activity log entry
func (m *ActivityLogModel) ToDomain() *audit.ActivityLog {
	return &audit.ActivityLog{
		BaseEntity:  m.BaseModel.ToDomain(),
		EntityType:  m.EntityType,
		EntityID:    m.EntityID,
		Action:      audit.Action(m.Action),
		ActorID:     m.ActorID,
		Description: m.Description,
	}
}

// FromDomain populates the model from a domain activity log entry
func (m *ActivityLogModel) FromDomain(entry *audit.ActivityLog) {
	m.FromDomainBaseEntity(entry.BaseEntity)
	m.EntityType = entry.EntityType
	m.EntityID = entry.EntityID
	m.Action = string(entry.Action)
	m.ActorID = entry.ActorID
	m.Description = entry.Description
}

// RemarkModel is the persistence model for remarks
type RemarkModel struct {
	BaseModel
	EntityType string    `gorm:"size:50;not null;index:idx_remarks_entity"`
	EntityID   uuid.UUID `gorm:"type:uuid;not null;index:idx_remarks_entity"`
	AuthorID   uuid.UUID `gorm:"type:uuid"`
	Body       string    `gorm:"type:text;not null"`
}

// TableName returns the table name
func (RemarkModel) TableName() string {
	return "remarks"
}

// ToDomain converts the model to a domain remark
func (m *RemarkModel) ToDomain() *audit.Remark {
	return &audit.Remark{
		BaseEntity: m.BaseModel.ToDomain(),
		EntityType: m.EntityType,
		EntityID:   m.EntityID,
		AuthorID:   m.AuthorID,
		Body:       m.Body,
	}
}

// FromDomain populates the model from a domain remark
func (m *RemarkModel) FromDomain(r *audit.Remark) {
	m.FromDomainBaseEntity(r.BaseEntity)
	m.EntityType = r.EntityType
	m.EntityID = r.EntityID
	m.AuthorID = r.AuthorID
	m.Body = r.Body
}
