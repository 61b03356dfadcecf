package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"studiobook/internal/billing"
	"studiobook/internal/caching"
	"studiobook/internal/models"
	"studiobook/internal/repositories"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const planCacheTTL = 15 * time.Minute

// PerkCoupon describes the plan-bound coupon a tier grants on activation.
type PerkCoupon struct {
	DiscountType  string  `json:"discount_type"`
	DiscountValue float64 `json:"discount_value"`
}

// TierConfig describes a bookable studio tier.
type TierConfig struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Features    []string    `json:"features"`
	Perk        *PerkCoupon `json:"perk,omitempty"`
}

// Predefined studio tiers
var availableTiers = map[string]TierConfig{
	"solo": {
		ID:          "solo",
		Name:        "Solo Sessions",
		Description: "Off-peak access for individual artists",
		Features: []string{
			"Booth A access",
			"4 session hours per month",
			"Online mixdown delivery",
		},
	},
	"band": {
		ID:          "band",
		Name:        "Band Room",
		Description: "Full live room with engineer on request",
		Features: []string{
			"Live room access",
			"12 session hours per month",
			"Priority weekend slots",
			"Engineer on request",
		},
		Perk: &PerkCoupon{
			DiscountType:  models.DiscountTypePercent,
			DiscountValue: 10,
		},
	},
	"label": {
		ID:          "label",
		Name:        "Label Block",
		Description: "Block booking for labels and production houses",
		Features: []string{
			"All rooms",
			"Unlimited session hours",
			"Dedicated engineer",
			"Mastering suite access",
		},
		Perk: &PerkCoupon{
			DiscountType:  models.DiscountTypePercent,
			DiscountValue: 20,
		},
	},
}

// PlanService owns plan state: activation, the expiry sweep, and the
// read-notification flag. Plans only ever move active -> inactive; a lapsed
// subscriber re-activates into a brand new record.
type PlanService interface {
	Activate(ctx context.Context, userID uuid.UUID, tier string, amount float64, mode string) (*models.Plan, error)
	SweepExpired(ctx context.Context, now time.Time) ([]uuid.UUID, error)
	MarkRead(ctx context.Context, planID, userID uuid.UUID) (*models.Plan, error)
	GetByID(ctx context.Context, planID uuid.UUID) (*models.Plan, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Plan, error)
	AvailableTiers() map[string]TierConfig
}

type planService struct {
	planRepo  repositories.PlanRepository
	couponSvc CouponService
	cacheSvc  caching.CacheService
	auditSvc  AuditLogsService
}

func NewPlanService(planRepo repositories.PlanRepository, couponSvc CouponService, cacheSvc caching.CacheService, auditSvc AuditLogsService) PlanService {
	return &planService{
		planRepo:  planRepo,
		couponSvc: couponSvc,
		cacheSvc:  cacheSvc,
		auditSvc:  auditSvc,
	}
}

// Activate persists a new active plan for a confirmed payment. The end date
// comes from the billing calendar; tier perk coupons are issued best-effort
// afterwards and never roll the activation back.
func (s *planService) Activate(ctx context.Context, userID uuid.UUID, tier string, amount float64, mode string) (*models.Plan, error) {
	tierCfg, exists := availableTiers[tier]
	if !exists {
		return nil, fmt.Errorf("%w: unknown tier %q", ErrInvalidDiscount, tier)
	}
	if !models.ValidBillingMode(mode) {
		return nil, fmt.Errorf("%w: unknown billing mode %q", ErrInvalidDiscount, mode)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidDiscount)
	}

	startDate := time.Now().UTC()
	plan := &models.Plan{
		ID:          uuid.New(),
		UserID:      userID,
		Tier:        tier,
		BillingMode: mode,
		Amount:      amount,
		Status:      models.PlanStatusActive,
		StartDate:   startDate,
		EndDate:     billing.ComputeEndDate(startDate, mode),
	}

	if err := s.planRepo.Create(ctx, plan); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if tierCfg.Perk != nil {
		s.issuePerkCoupon(ctx, plan, tierCfg.Perk)
	}

	if err := s.cacheSvc.SetPlan(ctx, plan, planCacheTTL); err != nil {
		log.Printf("Failed to cache plan %s: %v", plan.ID, err)
	}
	return plan, nil
}

// issuePerkCoupon is best-effort: the plan's value does not depend on the
// coupon, so a failure is a warning, not a rollback.
func (s *planService) issuePerkCoupon(ctx context.Context, plan *models.Plan, perk *PerkCoupon) {
	coupon, err := s.couponSvc.Issue(ctx, &IssueCouponRequest{
		DiscountType:  perk.DiscountType,
		DiscountValue: perk.DiscountValue,
		CouponType:    models.CouponTypePlan,
		PlanID:        &plan.ID,
		ExpiresAt:     &plan.EndDate,
	})
	if err != nil {
		log.Printf("WARNING: plan %s activated but perk coupon issuance failed: %v", plan.ID, err)
		return
	}
	log.Printf("Issued perk coupon %s for plan %s", coupon.Code, plan.ID)
}

// SweepExpired transitions every active plan past its end date to inactive
// and returns the ids it flipped. Each transition is independent: one bad row
// never blocks the rest, and whatever is skipped is picked up by the next
// sweep because the selection predicate is idempotent.
func (s *planService) SweepExpired(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	due, err := s.planRepo.ListDueForExpiry(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var expired []uuid.UUID
	for _, id := range due {
		flipped, err := s.planRepo.MarkInactive(ctx, id)
		if err != nil {
			log.Printf("Failed to expire plan %s, will retry next sweep: %v", id, err)
			continue
		}
		if !flipped {
			// A concurrent sweep got there first.
			continue
		}
		if err := s.cacheSvc.DeletePlan(ctx, id); err != nil {
			log.Printf("Failed to invalidate cached plan %s: %v", id, err)
		}
		expired = append(expired, id)
	}

	if len(expired) > 0 {
		s.auditSvc.Record(ctx, models.AuditActionSweep, "plans", "sweep", nil, models.JSONB{
			"expired_count": len(expired),
			"swept_at":      now,
		})
	}
	return expired, nil
}

// MarkRead flags the plan's expiry/activation notification as seen by its
// owner.
func (s *planService) MarkRead(ctx context.Context, planID, userID uuid.UUID) (*models.Plan, error) {
	plan, err := s.planRepo.GetByID(ctx, planID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: plan %s", ErrNotFound, planID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if plan.UserID != userID {
		return nil, fmt.Errorf("%w: plan %s does not belong to user %s", ErrForbidden, planID, userID)
	}

	updated, err := s.planRepo.MarkRead(ctx, planID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if err := s.cacheSvc.SetPlan(ctx, updated, planCacheTTL); err != nil {
		log.Printf("Failed to cache plan %s: %v", updated.ID, err)
	}
	return updated, nil
}

func (s *planService) GetByID(ctx context.Context, planID uuid.UUID) (*models.Plan, error) {
	if cached, err := s.cacheSvc.GetPlan(ctx, planID); err == nil && cached != nil {
		// An active entry past its end date predates the expiry sweep;
		// fall through to the store for the swept status.
		if !(cached.Status == models.PlanStatusActive && cached.IsExpired(time.Now().UTC())) {
			return cached, nil
		}
	}

	plan, err := s.planRepo.GetByID(ctx, planID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: plan %s", ErrNotFound, planID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if err := s.cacheSvc.SetPlan(ctx, plan, planCacheTTL); err != nil {
		log.Printf("Failed to cache plan %s: %v", plan.ID, err)
	}
	return plan, nil
}

func (s *planService) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Plan, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	plans, err := s.planRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return plans, nil
}

// AvailableTiers returns a copy of the tier catalog.
func (s *planService) AvailableTiers() map[string]TierConfig {
	result := make(map[string]TierConfig, len(availableTiers))
	for k, v := range availableTiers {
		result[k] = v
	}
	return result
}
