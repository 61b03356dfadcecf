package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"studiobook/internal/models"
	"studiobook/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// IssueCouponRequest carries the parameters for minting a coupon.
type IssueCouponRequest struct {
	DiscountType  string     `json:"discount_type"`
	DiscountValue float64    `json:"discount_value"`
	CouponType    string     `json:"coupon_type"`
	PlanID        *uuid.UUID `json:"plan_id"`
	AppointmentID *uuid.UUID `json:"appointment_id"`
	ExpiresAt     *time.Time `json:"expires_at"`
}

// CouponService owns the coupon ledger: issuance with collision-safe codes,
// exactly-once redemption, and administrative release/deletion.
type CouponService interface {
	Issue(ctx context.Context, req *IssueCouponRequest) (*models.Coupon, error)
	Redeem(ctx context.Context, code string, userID uuid.UUID) (*models.Coupon, error)
	Release(ctx context.Context, code string, performedBy *uuid.UUID) (*models.Coupon, error)
	GetByCode(ctx context.Context, code string) (*models.Coupon, error)
	ListByPlan(ctx context.Context, planID uuid.UUID) ([]*models.Coupon, error)
	Delete(ctx context.Context, id uuid.UUID, performedBy *uuid.UUID) error
}

type couponService struct {
	couponRepo repositories.CouponRepository
	codes      CodeGenerator
	auditSvc   AuditLogsService
}

func NewCouponService(couponRepo repositories.CouponRepository, codes CodeGenerator, auditSvc AuditLogsService) CouponService {
	return &couponService{
		couponRepo: couponRepo,
		codes:      codes,
		auditSvc:   auditSvc,
	}
}

func validateIssueRequest(req *IssueCouponRequest) error {
	if !models.ValidDiscountType(req.DiscountType) {
		return fmt.Errorf("%w: unknown discount type %q", ErrInvalidDiscount, req.DiscountType)
	}
	if !models.ValidCouponType(req.CouponType) {
		return fmt.Errorf("%w: unknown coupon type %q", ErrInvalidDiscount, req.CouponType)
	}
	if req.DiscountValue <= 0 {
		return fmt.Errorf("%w: discount value must be positive", ErrInvalidDiscount)
	}
	if req.DiscountType == models.DiscountTypePercent && req.DiscountValue > 100 {
		return fmt.Errorf("%w: percent discount cannot exceed 100", ErrInvalidDiscount)
	}
	return nil
}

// Issue mints a coupon with a fresh unique code. Collisions, whether caught
// by the existence check or by the unique index when a concurrent Issue races
// past it, consume one of the bounded attempts; running out surfaces as
// ErrCodeExhaustion so a duplicate is never returned silently.
func (s *couponService) Issue(ctx context.Context, req *IssueCouponRequest) (*models.Coupon, error) {
	if err := validateIssueRequest(req); err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := s.codes.Generate()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}

		exists, err := s.couponRepo.ExistsByCode(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		if exists {
			log.Printf("coupon code collision on attempt %d/%d", attempt, maxCodeAttempts)
			continue
		}

		coupon := &models.Coupon{
			ID:            uuid.New(),
			Code:          code,
			DiscountType:  req.DiscountType,
			DiscountValue: req.DiscountValue,
			CouponType:    req.CouponType,
			PlanID:        req.PlanID,
			AppointmentID: req.AppointmentID,
			ExpiresAt:     req.ExpiresAt,
		}

		err = s.couponRepo.Create(ctx, coupon)
		if isUniqueViolation(err) {
			log.Printf("coupon code collision at insert on attempt %d/%d", attempt, maxCodeAttempts)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		return coupon, nil
	}

	return nil, ErrCodeExhaustion
}

// Redeem consumes a coupon exactly once. Success comes only from the
// repository's conditional update; when that matches nothing, a follow-up
// read decides which precondition failed.
func (s *couponService) Redeem(ctx context.Context, code string, userID uuid.UUID) (*models.Coupon, error) {
	now := time.Now().UTC()

	coupon, err := s.couponRepo.Redeem(ctx, code, userID, now)
	if err == nil {
		return coupon, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	existing, err := s.couponRepo.GetByCode(ctx, code)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: coupon %s", ErrNotFound, code)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if existing.Used {
		return nil, ErrAlreadyUsed
	}
	if existing.IsExpired(now) {
		return nil, ErrCouponExpired
	}
	// The coupon looks redeemable again, so an admin release raced in
	// between. The conditional update stays authoritative; the caller may
	// simply retry.
	return nil, ErrAlreadyUsed
}

// Release reverses a redemption so the code can be consumed again. Purely
// administrative; audit-logged best-effort.
func (s *couponService) Release(ctx context.Context, code string, performedBy *uuid.UUID) (*models.Coupon, error) {
	coupon, err := s.couponRepo.Release(ctx, code)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: coupon %s", ErrNotFound, code)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	s.auditSvc.Record(ctx, models.AuditActionRelease, "coupons", coupon.ID.String(), performedBy, models.JSONB{
		"code": coupon.Code,
	})
	return coupon, nil
}

func (s *couponService) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	coupon, err := s.couponRepo.GetByCode(ctx, code)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: coupon %s", ErrNotFound, code)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return coupon, nil
}

func (s *couponService) ListByPlan(ctx context.Context, planID uuid.UUID) ([]*models.Coupon, error) {
	coupons, err := s.couponRepo.ListByPlan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return coupons, nil
}

func (s *couponService) Delete(ctx context.Context, id uuid.UUID, performedBy *uuid.UUID) error {
	deleted, err := s.couponRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if !deleted {
		return fmt.Errorf("%w: coupon %s", ErrNotFound, id)
	}

	s.auditSvc.Record(ctx, models.AuditActionDelete, "coupons", id.String(), performedBy, nil)
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
