package payables

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/payables/backend/internal/domain/audit"
	"github.com/payables/backend/internal/domain/payables"
	"github.com/payables/backend/internal/domain/shared"
	"github.com/payables/backend/internal/infrastructure/storage"
	"github.com/payables/backend/internal/infrastructure/telemetry"
)

// maxAttachmentSize caps a single uploaded file at 20MB
const maxAttachmentSize = 20 << 20

// AttachmentService stores uploaded files in object storage and keeps the
// polymorphic attachment records pointing at them.
type AttachmentService struct {
	attachmentRepo  payables.AttachmentRepository
	activityLogRepo audit.ActivityLogRepository
	objectStorage   storage.ObjectStorage
}

// NewAttachmentService creates a new AttachmentService
func NewAttachmentService(
	attachmentRepo payables.AttachmentRepository,
	activityLogRepo audit.ActivityLogRepository,
	objectStorage storage.ObjectStorage,
) *AttachmentService {
	return &AttachmentService{
		attachmentRepo:  attachmentRepo,
		activityLogRepo: activityLogRepo,
		objectStorage:   objectStorage,
	}
}

// AttachmentResponse represents an attachment record in API responses
type AttachmentResponse struct {
	ID             uuid.UUID `json:"id"`
	AttachableType string    `json:"attachable_type"`
	AttachableID   uuid.UUID `json:"attachable_id"`
	FileName       string    `json:"file_name"`
	ContentType    string    `json:"content_type"`
	SizeBytes      int64     `json:"size_bytes"`
	UploadedBy     uuid.UUID `json:"uploaded_by"`
	CreatedAt      time.Time `json:"created_at"`
}

func toAttachmentResponse(a *payables.Attachment) *AttachmentResponse {
	return &AttachmentResponse{
		ID:             a.ID,
		AttachableType: string(a.AttachableType),
		AttachableID:   a.AttachableID,
		FileName:       a.FileName,
		ContentType:    a.ContentType,
		SizeBytes:      a.SizeBytes,
		UploadedBy:     a.UploadedBy,
		CreatedAt:      a.CreatedAt,
	}
}

// UploadAttachmentInput carries an attachment upload. Body is streamed to the
// storage backend, never buffered in the record.
type UploadAttachmentInput struct {
	AttachableType payables.AttachableType
	AttachableID   uuid.UUID
	FileName       string
	ContentType    string
	SizeBytes      int64
	Body           io.Reader
	ActorID        uuid.UUID
}

// Upload stores the file body and creates the attachment record
func (s *AttachmentService) Upload(ctx context.Context, input UploadAttachmentInput) (*AttachmentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "attachment", "upload")
	defer span.End()

	if !input.AttachableType.IsValid() {
		return nil, shared.NewValidationError("attachable_type", "Unknown attachable type")
	}
	if input.SizeBytes > maxAttachmentSize {
		return nil, shared.NewValidationError("file", "File exceeds the 20MB size limit")
	}

	storageKey := fmt.Sprintf("%s/%s/%s%s",
		input.AttachableType, input.AttachableID, uuid.New(), path.Ext(input.FileName))

	if err := s.objectStorage.Put(ctx, storageKey, input.Body, input.ContentType); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to store attachment body: %w", err)
	}

	attachment, err := payables.NewAttachment(input.AttachableType, input.AttachableID,
		input.FileName, input.ContentType, input.SizeBytes, storageKey, input.ActorID)
	if err != nil {
		_ = s.objectStorage.Delete(ctx, storageKey)
		return nil, err
	}
	if err := s.attachmentRepo.Save(ctx, attachment); err != nil {
		_ = s.objectStorage.Delete(ctx, storageKey)
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save attachment: %w", err)
	}

	if entry, err := audit.NewActivityLog(string(input.AttachableType), input.AttachableID,
		audit.ActionFileUploaded, input.ActorID,
		fmt.Sprintf("File %s uploaded", input.FileName)); err == nil {
		_ = s.activityLogRepo.Append(ctx, entry)
	}

	return toAttachmentResponse(attachment), nil
}

// Download opens the attachment body for streaming to the client
func (s *AttachmentService) Download(ctx context.Context, id uuid.UUID) (*AttachmentResponse, io.ReadCloser, error) {
	attachment, err := s.attachmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if attachment == nil {
		return nil, nil, shared.NewDomainError("NOT_FOUND", "Attachment not found")
	}

	body, err := s.objectStorage.Get(ctx, attachment.StorageKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open attachment body: %w", err)
	}
	return toAttachmentResponse(attachment), body, nil
}

// List lists the attachments of one entity
func (s *AttachmentService) List(ctx context.Context, attachableType payables.AttachableType, attachableID uuid.UUID) ([]AttachmentResponse, error) {
	if !attachableType.IsValid() {
		return nil, shared.NewValidationError("attachable_type", "Unknown attachable type")
	}
	attachments, err := s.attachmentRepo.FindByAttachable(ctx, attachableType, attachableID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	responses := make([]AttachmentResponse, 0, len(attachments))
	for i := range attachments {
		responses = append(responses, *toAttachmentResponse(&attachments[i]))
	}
	return responses, nil
}

// Delete removes the attachment record and its stored body
func (s *AttachmentService) Delete(ctx context.Context, id uuid.UUID) error {
	attachment, err := s.attachmentRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if attachment == nil {
		return shared.NewDomainError("NOT_FOUND", "Attachment not found")
	}

	if err := s.attachmentRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}
	if err := s.objectStorage.Delete(ctx, attachment.StorageKey); err != nil {
		return fmt.Errorf("failed to delete attachment body: %w", err)
	}
	return nil
}
