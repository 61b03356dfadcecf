package repositories

import (
	"context"
	"encoding/json"
	"time"

	"studiobook/internal/models"

	"github.com/google/uuid"
)

type AuditLogsRepository interface {
	Create(ctx context.Context, auditLog *models.AuditLog) error
	ListByRecord(ctx context.Context, entity, recordID string, limit, offset int) ([]*models.AuditLog, error)
}

type auditLogsRepo struct {
	db Database
}

func NewAuditLogsRepo(db Database) AuditLogsRepository {
	return &auditLogsRepo{db: db}
}

func (r *auditLogsRepo) Create(ctx context.Context, auditLog *models.AuditLog) error {
	if auditLog.ID == uuid.Nil {
		auditLog.ID = uuid.New()
	}
	auditLog.CreatedAt = time.Now()

	details, err := json.Marshal(auditLog.Details)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO audit_logs (id, entity, record_id, action, details, performed_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.db.Exec(ctx, query, auditLog.ID, auditLog.Entity, auditLog.RecordID, auditLog.Action, details, auditLog.PerformedBy, auditLog.CreatedAt)
	return err
}

func (r *auditLogsRepo) ListByRecord(ctx context.Context, entity, recordID string, limit, offset int) ([]*models.AuditLog, error) {
	query := `
		SELECT id, entity, record_id, action, details, performed_by, created_at
		FROM audit_logs
		WHERE entity = $1 AND record_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, entity, recordID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*models.AuditLog
	for rows.Next() {
		auditLog := &models.AuditLog{}
		var details []byte
		if err := rows.Scan(&auditLog.ID, &auditLog.Entity, &auditLog.RecordID, &auditLog.Action, &details, &auditLog.PerformedBy, &auditLog.CreatedAt); err != nil {
			return nil, err
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &auditLog.Details); err != nil {
				return nil, err
			}
		}
		logs = append(logs, auditLog)
	}
	return logs, rows.Err()
}
