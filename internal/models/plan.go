package models

import (
	"time"

	"github.com/google/uuid"
)

// Plan statuses. A plan is created active (payment is confirmed upstream)
// and only ever moves to inactive, via the expiry sweep or an admin
// correction. Plans are historical records and are never deleted.
const (
	PlanStatusActive   = "active"
	PlanStatusInactive = "inactive"
)

// Billing modes
const (
	BillingModeMonthly = "monthly"
	BillingModeAnnual  = "annual"
)

type Plan struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	UserID      uuid.UUID  `json:"user_id" db:"user_id"`
	Tier        string     `json:"tier" db:"tier"`
	BillingMode string     `json:"billing_mode" db:"billing_mode"`
	Amount      float64    `json:"amount" db:"amount"`
	Status      string     `json:"status" db:"status"`
	StartDate   time.Time  `json:"start_date" db:"start_date"`
	EndDate     time.Time  `json:"end_date" db:"end_date"`
	ReadAt      *time.Time `json:"read_at" db:"read_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// IsExpired reports whether the plan's billing period has ended at now.
// The status column may lag behind this between sweeps.
func (p *Plan) IsExpired(now time.Time) bool {
	return !p.EndDate.After(now)
}

func ValidBillingMode(mode string) bool {
	return mode == BillingModeMonthly || mode == BillingModeAnnual
}
