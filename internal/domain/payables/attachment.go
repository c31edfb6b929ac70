package payables

import (
	"github.com/google/uuid"

	"github.com/payables/backend/internal/domain/shared"
)

// AttachableType names the entity kinds that can own file attachments
type AttachableType string

const (
	AttachableTypeDisbursement AttachableType = "disbursement"
	AttachableTypeRequisition  AttachableType = "check_requisition"
	AttachableTypeInvoice      AttachableType = "invoice"
)

// IsValid checks if the attachable type is valid
func (t AttachableType) IsValid() bool {
	switch t {
	case AttachableTypeDisbursement, AttachableTypeRequisition, AttachableTypeInvoice:
		return true
	}
	return false
}

// Attachment is an uploaded file linked polymorphically to a payables
// entity. The file body lives in object storage; only the storage key is
// kept here.
type Attachment struct {
	shared.BaseEntity
	AttachableType AttachableType `json:"attachable_type"`
	AttachableID   uuid.UUID      `json:"attachable_id"`
	FileName       string         `json:"file_name"`
	ContentType    string         `json:"content_type"`
	SizeBytes      int64          `json:"size_bytes"`
	StorageKey     string         `json:"storage_key"`
	UploadedBy     uuid.UUID      `json:"uploaded_by"`
}

// NewAttachment creates a new attachment record
func NewAttachment(attachableType AttachableType, attachableID uuid.UUID, fileName, contentType string, sizeBytes int64, storageKey string, uploadedBy uuid.UUID) (*Attachment, error) {
	if !attachableType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ATTACHABLE_TYPE", "Unknown attachable type")
	}
	if attachableID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ATTACHABLE_ID", "Attachable ID cannot be empty")
	}
	if fileName == "" {
		return nil, shared.NewDomainError("INVALID_FILE_NAME", "File name cannot be empty")
	}
	if storageKey == "" {
		return nil, shared.NewDomainError("INVALID_STORAGE_KEY", "Storage key cannot be empty")
	}
	if sizeBytes <= 0 {
		return nil, shared.NewDomainError("INVALID_FILE_SIZE", "File size must be positive")
	}
	return &Attachment{
		BaseEntity:     shared.NewBaseEntity(),
		AttachableType: attachableType,
		AttachableID:   attachableID,
		FileName:       fileName,
		ContentType:    contentType,
		SizeBytes:      sizeBytes,
		StorageKey:     storageKey,
		UploadedBy:     uploadedBy,
	}, nil
}
