package models

import (
	"time"

	"github.com/google/uuid"
)

// JSONB maps a Postgres jsonb column.
type JSONB map[string]interface{}

// AuditLog records an administrative mutation (coupon release/delete, sweep
// batches) for later inspection.
type AuditLog struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Entity      string     `json:"entity" db:"entity"`
	RecordID    string     `json:"record_id" db:"record_id"`
	Action      string     `json:"action" db:"action"`
	Details     JSONB      `json:"details" db:"details"`
	PerformedBy *uuid.UUID `json:"performed_by" db:"performed_by"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// Audit actions
const (
	AuditActionRelease = "COUPON_RELEASE"
	AuditActionDelete  = "COUPON_DELETE"
	AuditActionSweep   = "PLAN_SWEEP"
)
