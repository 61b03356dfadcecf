package services

import (
	"context"
	"fmt"
	"log"

	"studiobook/internal/models"
	"studiobook/internal/repositories"

	"github.com/google/uuid"
)

// AuditLogsService records administrative mutations. Writes are best-effort:
// a failed audit insert is logged and never fails the operation it trails.
type AuditLogsService interface {
	Record(ctx context.Context, action, entity, recordID string, performedBy *uuid.UUID, details models.JSONB)
	ListByRecord(ctx context.Context, entity, recordID string, limit, offset int) ([]*models.AuditLog, error)
}

type auditLogsService struct {
	auditRepo repositories.AuditLogsRepository
}

func NewAuditLogsService(auditRepo repositories.AuditLogsRepository) AuditLogsService {
	return &auditLogsService{auditRepo: auditRepo}
}

func (s *auditLogsService) Record(ctx context.Context, action, entity, recordID string, performedBy *uuid.UUID, details models.JSONB) {
	entry := &models.AuditLog{
		Entity:      entity,
		RecordID:    recordID,
		Action:      action,
		Details:     details,
		PerformedBy: performedBy,
	}
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		log.Printf("Failed to write audit log %s %s/%s: %v", action, entity, recordID, err)
	}
}

func (s *auditLogsService) ListByRecord(ctx context.Context, entity, recordID string, limit, offset int) ([]*models.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	logs, err := s.auditRepo.ListByRecord(ctx, entity, recordID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return logs, nil
}
