package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"studiobook/internal/billing"
	"studiobook/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type MockPlanRepository struct {
	mock.Mock
}

func (m *MockPlanRepository) Create(ctx context.Context, plan *models.Plan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *MockPlanRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Plan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *MockPlanRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Plan, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Plan), args.Error(1)
}

func (m *MockPlanRepository) ListDueForExpiry(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockPlanRepository) MarkInactive(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockPlanRepository) MarkRead(ctx context.Context, id uuid.UUID, readAt time.Time) (*models.Plan, error) {
	args := m.Called(ctx, id, readAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

type MockCouponService struct {
	mock.Mock
}

func (m *MockCouponService) Issue(ctx context.Context, req *IssueCouponRequest) (*models.Coupon, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Coupon), args.Error(1)
}

func (m *MockCouponService) Redeem(ctx context.Context, code string, userID uuid.UUID) (*models.Coupon, error) {
	args := m.Called(ctx, code, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Coupon), args.Error(1)
}

func (m *MockCouponService) Release(ctx context.Context, code string, performedBy *uuid.UUID) (*models.Coupon, error) {
	args := m.Called(ctx, code, performedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Coupon), args.Error(1)
}

func (m *MockCouponService) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Coupon), args.Error(1)
}

func (m *MockCouponService) ListByPlan(ctx context.Context, planID uuid.UUID) ([]*models.Coupon, error) {
	args := m.Called(ctx, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Coupon), args.Error(1)
}

func (m *MockCouponService) Delete(ctx context.Context, id uuid.UUID, performedBy *uuid.UUID) error {
	args := m.Called(ctx, id, performedBy)
	return args.Error(0)
}

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) GetPlan(ctx context.Context, planID uuid.UUID) (*models.Plan, error) {
	args := m.Called(ctx, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *MockCacheService) SetPlan(ctx context.Context, plan *models.Plan, ttl time.Duration) error {
	args := m.Called(ctx, plan, ttl)
	return args.Error(0)
}

func (m *MockCacheService) DeletePlan(ctx context.Context, planID uuid.UUID) error {
	args := m.Called(ctx, planID)
	return args.Error(0)
}

func (m *MockCacheService) SetString(ctx context.Context, key, value string, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheService) GetString(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

type PlanServiceTestSuite struct {
	suite.Suite
	mockRepo    *MockPlanRepository
	mockCoupons *MockCouponService
	mockCache   *MockCacheService
	mockAudit   *MockAuditLogsService
	service     PlanService
	ctx         context.Context
	userID      uuid.UUID
}

func (suite *PlanServiceTestSuite) SetupTest() {
	suite.mockRepo = &MockPlanRepository{}
	suite.mockCoupons = &MockCouponService{}
	suite.mockCache = &MockCacheService{}
	suite.mockAudit = &MockAuditLogsService{}
	suite.service = NewPlanService(suite.mockRepo, suite.mockCoupons, suite.mockCache, suite.mockAudit)
	suite.ctx = context.Background()
	suite.userID = uuid.New()

	suite.mockRepo.Test(suite.T())
	suite.mockCoupons.Test(suite.T())
	suite.mockCache.Test(suite.T())
	suite.mockAudit.Test(suite.T())
}

func (suite *PlanServiceTestSuite) TearDownTest() {
	suite.mockRepo.AssertExpectations(suite.T())
	suite.mockCoupons.AssertExpectations(suite.T())
	suite.mockCache.AssertExpectations(suite.T())
	suite.mockAudit.AssertExpectations(suite.T())
}

func TestPlanServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PlanServiceTestSuite))
}

func (suite *PlanServiceTestSuite) TestActivate_UnknownTier() {
	plan, err := suite.service.Activate(suite.ctx, suite.userID, "penthouse", 99, models.BillingModeMonthly)
	assert.Nil(suite.T(), plan)
	assert.ErrorIs(suite.T(), err, ErrInvalidDiscount)
}

func (suite *PlanServiceTestSuite) TestActivate_UnknownBillingMode() {
	plan, err := suite.service.Activate(suite.ctx, suite.userID, "solo", 99, "weekly")
	assert.Nil(suite.T(), plan)
	assert.ErrorIs(suite.T(), err, ErrInvalidDiscount)
}

func (suite *PlanServiceTestSuite) TestActivate_NonPositiveAmount() {
	plan, err := suite.service.Activate(suite.ctx, suite.userID, "solo", 0, models.BillingModeMonthly)
	assert.Nil(suite.T(), plan)
	assert.ErrorIs(suite.T(), err, ErrInvalidDiscount)
}

func (suite *PlanServiceTestSuite) TestActivate_Success_NoPerkTier() {
	var created *models.Plan
	suite.mockRepo.On("Create", suite.ctx, mock.AnythingOfType("*models.Plan")).Return(nil).Once().Run(func(args mock.Arguments) {
		created = args.Get(1).(*models.Plan)
	})
	suite.mockCache.On("SetPlan", suite.ctx, mock.AnythingOfType("*models.Plan"), planCacheTTL).Return(nil).Once()

	plan, err := suite.service.Activate(suite.ctx, suite.userID, "solo", 49, models.BillingModeMonthly)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), created, plan)
	assert.Equal(suite.T(), models.PlanStatusActive, plan.Status)
	assert.Equal(suite.T(), suite.userID, plan.UserID)
	assert.True(suite.T(), plan.EndDate.After(plan.StartDate))
	assert.True(suite.T(), billing.ComputeEndDate(plan.StartDate, models.BillingModeMonthly).Equal(plan.EndDate))
}

func (suite *PlanServiceTestSuite) TestActivate_AnnualEndDate() {
	suite.mockRepo.On("Create", suite.ctx, mock.AnythingOfType("*models.Plan")).Return(nil).Once()
	suite.mockCache.On("SetPlan", suite.ctx, mock.AnythingOfType("*models.Plan"), planCacheTTL).Return(nil).Once()

	plan, err := suite.service.Activate(suite.ctx, suite.userID, "solo", 490, models.BillingModeAnnual)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), plan.StartDate.Year()+1, plan.EndDate.Year())
}

func (suite *PlanServiceTestSuite) TestActivate_IssuesPerkCoupon() {
	suite.mockRepo.On("Create", suite.ctx, mock.AnythingOfType("*models.Plan")).Return(nil).Once()
	suite.mockCoupons.On("Issue", suite.ctx, mock.MatchedBy(func(req *IssueCouponRequest) bool {
		return req.CouponType == models.CouponTypePlan &&
			req.DiscountType == models.DiscountTypePercent &&
			req.DiscountValue == 10 &&
			req.PlanID != nil && req.ExpiresAt != nil
	})).Return(&models.Coupon{Code: "PERKCODE01"}, nil).Once()
	suite.mockCache.On("SetPlan", suite.ctx, mock.AnythingOfType("*models.Plan"), planCacheTTL).Return(nil).Once()

	plan, err := suite.service.Activate(suite.ctx, suite.userID, "band", 149, models.BillingModeMonthly)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "band", plan.Tier)
}

func (suite *PlanServiceTestSuite) TestActivate_PerkFailureDoesNotRollBack() {
	suite.mockRepo.On("Create", suite.ctx, mock.AnythingOfType("*models.Plan")).Return(nil).Once()
	suite.mockCoupons.On("Issue", suite.ctx, mock.AnythingOfType("*services.IssueCouponRequest")).Return(nil, ErrCodeExhaustion).Once()
	suite.mockCache.On("SetPlan", suite.ctx, mock.AnythingOfType("*models.Plan"), planCacheTTL).Return(nil).Once()

	plan, err := suite.service.Activate(suite.ctx, suite.userID, "band", 149, models.BillingModeMonthly)
	assert.NoError(suite.T(), err)
	assert.NotNil(suite.T(), plan)
	assert.Equal(suite.T(), models.PlanStatusActive, plan.Status)
}

func (suite *PlanServiceTestSuite) TestActivate_StoreFailure() {
	suite.mockRepo.On("Create", suite.ctx, mock.AnythingOfType("*models.Plan")).Return(errors.New("connection refused")).Once()

	plan, err := suite.service.Activate(suite.ctx, suite.userID, "solo", 49, models.BillingModeMonthly)
	assert.Nil(suite.T(), plan)
	assert.ErrorIs(suite.T(), err, ErrStoreUnavailable)
}

func (suite *PlanServiceTestSuite) TestSweepExpired_PartialFailureContinues() {
	now := time.Date(2024, time.February, 16, 0, 0, 0, 0, time.UTC)
	healthy := uuid.New()
	raced := uuid.New()
	broken := uuid.New()

	suite.mockRepo.On("ListDueForExpiry", suite.ctx, now).Return([]uuid.UUID{healthy, raced, broken}, nil).Once()
	suite.mockRepo.On("MarkInactive", suite.ctx, healthy).Return(true, nil).Once()
	suite.mockRepo.On("MarkInactive", suite.ctx, raced).Return(false, nil).Once()
	suite.mockRepo.On("MarkInactive", suite.ctx, broken).Return(false, errors.New("deadlock detected")).Once()
	suite.mockCache.On("DeletePlan", suite.ctx, healthy).Return(nil).Once()
	suite.mockAudit.On("Record", suite.ctx, models.AuditActionSweep, "plans", "sweep", (*uuid.UUID)(nil), mock.Anything).Once()

	expired, err := suite.service.SweepExpired(suite.ctx, now)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), []uuid.UUID{healthy}, expired)
}

func (suite *PlanServiceTestSuite) TestSweepExpired_NothingDue() {
	now := time.Now().UTC()

	suite.mockRepo.On("ListDueForExpiry", suite.ctx, now).Return([]uuid.UUID{}, nil).Once()

	expired, err := suite.service.SweepExpired(suite.ctx, now)
	assert.NoError(suite.T(), err)
	assert.Empty(suite.T(), expired)
}

func (suite *PlanServiceTestSuite) TestSweepExpired_StoreFailure() {
	now := time.Now().UTC()

	suite.mockRepo.On("ListDueForExpiry", suite.ctx, now).Return(nil, errors.New("connection refused")).Once()

	expired, err := suite.service.SweepExpired(suite.ctx, now)
	assert.Nil(suite.T(), expired)
	assert.ErrorIs(suite.T(), err, ErrStoreUnavailable)
}

func (suite *PlanServiceTestSuite) TestMarkRead_Success() {
	plan := &models.Plan{ID: uuid.New(), UserID: suite.userID, Status: models.PlanStatusActive}
	readAt := time.Now().UTC()
	updated := &models.Plan{ID: plan.ID, UserID: suite.userID, Status: plan.Status, ReadAt: &readAt}

	suite.mockRepo.On("GetByID", suite.ctx, plan.ID).Return(plan, nil).Once()
	suite.mockRepo.On("MarkRead", suite.ctx, plan.ID, mock.AnythingOfType("time.Time")).Return(updated, nil).Once()
	suite.mockCache.On("SetPlan", suite.ctx, updated, planCacheTTL).Return(nil).Once()

	got, err := suite.service.MarkRead(suite.ctx, plan.ID, suite.userID)
	assert.NoError(suite.T(), err)
	assert.NotNil(suite.T(), got.ReadAt)
}

func (suite *PlanServiceTestSuite) TestMarkRead_NotFound() {
	planID := uuid.New()

	suite.mockRepo.On("GetByID", suite.ctx, planID).Return(nil, pgx.ErrNoRows).Once()

	got, err := suite.service.MarkRead(suite.ctx, planID, suite.userID)
	assert.Nil(suite.T(), got)
	assert.ErrorIs(suite.T(), err, ErrNotFound)
}

func (suite *PlanServiceTestSuite) TestMarkRead_Forbidden() {
	plan := &models.Plan{ID: uuid.New(), UserID: uuid.New()}

	suite.mockRepo.On("GetByID", suite.ctx, plan.ID).Return(plan, nil).Once()

	got, err := suite.service.MarkRead(suite.ctx, plan.ID, suite.userID)
	assert.Nil(suite.T(), got)
	assert.ErrorIs(suite.T(), err, ErrForbidden)
}

func (suite *PlanServiceTestSuite) TestGetByID_CacheHit() {
	plan := &models.Plan{ID: uuid.New(), UserID: suite.userID, Status: models.PlanStatusActive, EndDate: time.Now().UTC().Add(24 * time.Hour)}

	suite.mockCache.On("GetPlan", suite.ctx, plan.ID).Return(plan, nil).Once()

	got, err := suite.service.GetByID(suite.ctx, plan.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), plan, got)
	suite.mockRepo.AssertNotCalled(suite.T(), "GetByID")
}

func (suite *PlanServiceTestSuite) TestGetByID_StaleCacheEntryReadsStore() {
	endDate := time.Now().UTC().Add(-time.Hour)
	stale := &models.Plan{ID: uuid.New(), UserID: suite.userID, Status: models.PlanStatusActive, EndDate: endDate}
	swept := &models.Plan{ID: stale.ID, UserID: suite.userID, Status: models.PlanStatusInactive, EndDate: endDate}

	// A cached active plan past its end date predates the sweep; the read
	// must fall through to the store instead of serving it.
	suite.mockCache.On("GetPlan", suite.ctx, stale.ID).Return(stale, nil).Once()
	suite.mockRepo.On("GetByID", suite.ctx, stale.ID).Return(swept, nil).Once()
	suite.mockCache.On("SetPlan", suite.ctx, swept, planCacheTTL).Return(nil).Once()

	got, err := suite.service.GetByID(suite.ctx, stale.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.PlanStatusInactive, got.Status)
}

func (suite *PlanServiceTestSuite) TestGetByID_CacheMissReadsStore() {
	plan := &models.Plan{ID: uuid.New(), UserID: suite.userID}

	suite.mockCache.On("GetPlan", suite.ctx, plan.ID).Return(nil, nil).Once()
	suite.mockRepo.On("GetByID", suite.ctx, plan.ID).Return(plan, nil).Once()
	suite.mockCache.On("SetPlan", suite.ctx, plan, planCacheTTL).Return(nil).Once()

	got, err := suite.service.GetByID(suite.ctx, plan.ID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), plan, got)
}

func (suite *PlanServiceTestSuite) TestAvailableTiers_ReturnsCopy() {
	tiers := suite.service.AvailableTiers()
	assert.Contains(suite.T(), tiers, "solo")
	assert.Contains(suite.T(), tiers, "band")
	assert.Contains(suite.T(), tiers, "label")

	delete(tiers, "solo")
	assert.Contains(suite.T(), suite.service.AvailableTiers(), "solo")
}
