package repositories

import (
	"context"
	"time"

	"studiobook/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Database is the subset of pgxpool.Pool the repositories need. Both
// *pgxpool.Pool and pgxmock.PgxPoolIface satisfy it.
type Database interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type PlanRepository interface {
	Create(ctx context.Context, plan *models.Plan) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Plan, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Plan, error)
	ListDueForExpiry(ctx context.Context, now time.Time) ([]uuid.UUID, error)
	MarkInactive(ctx context.Context, id uuid.UUID) (bool, error)
	MarkRead(ctx context.Context, id uuid.UUID, readAt time.Time) (*models.Plan, error)
}

type planRepo struct {
	db Database
}

func NewPlanRepo(db Database) PlanRepository {
	return &planRepo{db: db}
}

const planColumns = `id, user_id, tier, billing_mode, amount, status, start_date, end_date, read_at, created_at, updated_at`

func scanPlan(row pgx.Row) (*models.Plan, error) {
	plan := &models.Plan{}
	err := row.Scan(&plan.ID, &plan.UserID, &plan.Tier, &plan.BillingMode, &plan.Amount, &plan.Status, &plan.StartDate, &plan.EndDate, &plan.ReadAt, &plan.CreatedAt, &plan.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return plan, nil
}

func (r *planRepo) Create(ctx context.Context, plan *models.Plan) error {
	query := `
		INSERT INTO plans (id, user_id, tier, billing_mode, amount, status, start_date, end_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, plan.ID, plan.UserID, plan.Tier, plan.BillingMode, plan.Amount, plan.Status, plan.StartDate, plan.EndDate)
	return err
}

func (r *planRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Plan, error) {
	query := `
		SELECT ` + planColumns + `
		FROM plans
		WHERE id = $1
	`
	return scanPlan(r.db.QueryRow(ctx, query, id))
}

func (r *planRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Plan, error) {
	query := `
		SELECT ` + planColumns + `
		FROM plans
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []*models.Plan
	for rows.Next() {
		plan := &models.Plan{}
		if err := rows.Scan(&plan.ID, &plan.UserID, &plan.Tier, &plan.BillingMode, &plan.Amount, &plan.Status, &plan.StartDate, &plan.EndDate, &plan.ReadAt, &plan.CreatedAt, &plan.UpdatedAt); err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

// ListDueForExpiry returns ids of active plans whose period ended at or
// before now. The sweep flips each one individually with MarkInactive.
func (r *planRepo) ListDueForExpiry(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	query := `
		SELECT id
		FROM plans
		WHERE status = $1 AND end_date <= $2
		ORDER BY end_date ASC
	`
	rows, err := r.db.Query(ctx, query, models.PlanStatusActive, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MarkInactive flips an active plan to inactive. The status predicate makes
// concurrent sweeps safe: whoever loses the race affects zero rows and
// reports false.
func (r *planRepo) MarkInactive(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE plans
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`
	tag, err := r.db.Exec(ctx, query, models.PlanStatusInactive, id, models.PlanStatusActive)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *planRepo) MarkRead(ctx context.Context, id uuid.UUID, readAt time.Time) (*models.Plan, error) {
	query := `
		UPDATE plans
		SET read_at = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + planColumns + `
	`
	return scanPlan(r.db.QueryRow(ctx, query, id, readAt))
}
