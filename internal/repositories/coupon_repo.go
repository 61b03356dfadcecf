package repositories

import (
	"context"
	"time"

	"studiobook/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type CouponRepository interface {
	Create(ctx context.Context, coupon *models.Coupon) error
	GetByCode(ctx context.Context, code string) (*models.Coupon, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	ListByPlan(ctx context.Context, planID uuid.UUID) ([]*models.Coupon, error)
	Redeem(ctx context.Context, code string, userID uuid.UUID, now time.Time) (*models.Coupon, error)
	Release(ctx context.Context, code string) (*models.Coupon, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

type couponRepo struct {
	db Database
}

func NewCouponRepo(db Database) CouponRepository {
	return &couponRepo{db: db}
}

const couponColumns = `id, code, discount_type, discount_value, coupon_type, plan_id, appointment_id, used, used_at, used_by, expires_at, created_at, updated_at`

func scanCoupon(row pgx.Row) (*models.Coupon, error) {
	coupon := &models.Coupon{}
	err := row.Scan(&coupon.ID, &coupon.Code, &coupon.DiscountType, &coupon.DiscountValue, &coupon.CouponType, &coupon.PlanID, &coupon.AppointmentID, &coupon.Used, &coupon.UsedAt, &coupon.UsedBy, &coupon.ExpiresAt, &coupon.CreatedAt, &coupon.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return coupon, nil
}

func (r *couponRepo) Create(ctx context.Context, coupon *models.Coupon) error {
	query := `
		INSERT INTO coupons (id, code, discount_type, discount_value, coupon_type, plan_id, appointment_id, used, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, $8, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, coupon.ID, coupon.Code, coupon.DiscountType, coupon.DiscountValue, coupon.CouponType, coupon.PlanID, coupon.AppointmentID, coupon.ExpiresAt)
	return err
}

func (r *couponRepo) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	query := `
		SELECT ` + couponColumns + `
		FROM coupons
		WHERE code = $1
	`
	return scanCoupon(r.db.QueryRow(ctx, query, code))
}

func (r *couponRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM coupons WHERE code = $1)`
	if err := r.db.QueryRow(ctx, query, code).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *couponRepo) ListByPlan(ctx context.Context, planID uuid.UUID) ([]*models.Coupon, error) {
	query := `
		SELECT ` + couponColumns + `
		FROM coupons
		WHERE plan_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var coupons []*models.Coupon
	for rows.Next() {
		coupon := &models.Coupon{}
		if err := rows.Scan(&coupon.ID, &coupon.Code, &coupon.DiscountType, &coupon.DiscountValue, &coupon.CouponType, &coupon.PlanID, &coupon.AppointmentID, &coupon.Used, &coupon.UsedAt, &coupon.UsedBy, &coupon.ExpiresAt, &coupon.CreatedAt, &coupon.UpdatedAt); err != nil {
			return nil, err
		}
		coupons = append(coupons, coupon)
	}
	return coupons, rows.Err()
}

// Redeem consumes a coupon in a single conditional update: the used = FALSE
// and expiry predicates live in the same statement as the write, so two
// concurrent redemptions can never both get a row back. pgx.ErrNoRows means
// the code is absent, already used, or expired; the service classifies which
// with a follow-up read.
func (r *couponRepo) Redeem(ctx context.Context, code string, userID uuid.UUID, now time.Time) (*models.Coupon, error) {
	query := `
		UPDATE coupons
		SET used = TRUE, used_at = $2, used_by = $3, updated_at = NOW()
		WHERE code = $1 AND used = FALSE AND (expires_at IS NULL OR expires_at > $2)
		RETURNING ` + couponColumns + `
	`
	return scanCoupon(r.db.QueryRow(ctx, query, code, now, userID))
}

// Release reverses a redemption and detaches the coupon from any plan or
// appointment, allowing the code to be consumed again. All redemption fields
// reset in one statement.
func (r *couponRepo) Release(ctx context.Context, code string) (*models.Coupon, error) {
	query := `
		UPDATE coupons
		SET used = FALSE, used_at = NULL, used_by = NULL, plan_id = NULL, appointment_id = NULL, updated_at = NOW()
		WHERE code = $1
		RETURNING ` + couponColumns + `
	`
	return scanCoupon(r.db.QueryRow(ctx, query, code))
}

func (r *couponRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `DELETE FROM coupons WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
