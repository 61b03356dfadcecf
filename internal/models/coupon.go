package models

import (
	"time"

	"github.com/google/uuid"
)

// Discount types
const (
	DiscountTypePercent = "percent"
	DiscountTypeFixed   = "fixed"
)

// Coupon types
const (
	CouponTypeRefund = "refund"
	CouponTypePlan   = "plan"
)

// Coupon is a single-use discount token. Used and UsedAt are always written
// together in the same statement so used=true ⇔ used_at set holds.
type Coupon struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	Code          string     `json:"code" db:"code"`
	DiscountType  string     `json:"discount_type" db:"discount_type"`
	DiscountValue float64    `json:"discount_value" db:"discount_value"`
	CouponType    string     `json:"coupon_type" db:"coupon_type"`
	PlanID        *uuid.UUID `json:"plan_id" db:"plan_id"`
	AppointmentID *uuid.UUID `json:"appointment_id" db:"appointment_id"`
	Used          bool       `json:"used" db:"used"`
	UsedAt        *time.Time `json:"used_at" db:"used_at"`
	UsedBy        *uuid.UUID `json:"used_by" db:"used_by"`
	ExpiresAt     *time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// IsExpired reports whether the coupon can no longer be redeemed because its
// expiry passed. A coupon with no expiry never expires.
func (c *Coupon) IsExpired(now time.Time) bool {
	return c.ExpiresAt != nil && !c.ExpiresAt.After(now)
}

func ValidDiscountType(t string) bool {
	return t == DiscountTypePercent || t == DiscountTypeFixed
}

func ValidCouponType(t string) bool {
	return t == CouponTypeRefund || t == CouponTypePlan
}
