package service

import (
	"context"
	"time"

	"tradesense/events"
	"tradesense/models"

	"github.com/stretchr/testify/mock"
)

// MockChallengeRepository is a mock implementation of ChallengeRepository
type MockChallengeRepository struct {
	mock.Mock
}

func (m *MockChallengeRepository) Create(ctx context.Context, challenge *models.Challenge) error {
	args := m.Called(ctx, challenge)
	return args.Error(0)
}

func (m *MockChallengeRepository) GetByID(ctx context.Context, id int64) (*models.Challenge, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Challenge), args.Error(1)
}

func (m *MockChallengeRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Challenge, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Challenge), args.Error(1)
}

func (m *MockChallengeRepository) Update(ctx context.Context, challenge *models.Challenge) error {
	args := m.Called(ctx, challenge)
	return args.Error(0)
}

func (m *MockChallengeRepository) GetActiveByUser(ctx context.Context, userID int64) (*models.Challenge, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Challenge), args.Error(1)
}

func (m *MockChallengeRepository) GetLatestByUser(ctx context.Context, userID int64) (*models.Challenge, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Challenge), args.Error(1)
}

func (m *MockChallengeRepository) GetTopByProfit(ctx context.Context, since time.Time, limit int) ([]*models.LeaderboardEntry, error) {
	args := m.Called(ctx, since, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LeaderboardEntry), args.Error(1)
}

// MockDailyMetricRepository is a mock implementation of DailyMetricRepository
type MockDailyMetricRepository struct {
	mock.Mock
}

func (m *MockDailyMetricRepository) GetByDate(ctx context.Context, challengeID int64, date time.Time) (*models.DailyMetric, error) {
	args := m.Called(ctx, challengeID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DailyMetric), args.Error(1)
}

func (m *MockDailyMetricRepository) GetLatestBefore(ctx context.Context, challengeID int64, date time.Time) (*models.DailyMetric, error) {
	args := m.Called(ctx, challengeID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DailyMetric), args.Error(1)
}

func (m *MockDailyMetricRepository) Create(ctx context.Context, metric *models.DailyMetric) error {
	args := m.Called(ctx, metric)
	return args.Error(0)
}

func (m *MockDailyMetricRepository) UpdateClose(ctx context.Context, metricID int64, dayEndEquity, dayPnl float64) error {
	args := m.Called(ctx, metricID, dayEndEquity, dayPnl)
	return args.Error(0)
}

// MockTradeRepository is a mock implementation of TradeRepository
type MockTradeRepository struct {
	mock.Mock
}

func (m *MockTradeRepository) Create(ctx context.Context, trade *models.Trade) error {
	args := m.Called(ctx, trade)
	return args.Error(0)
}

func (m *MockTradeRepository) GetByChallenge(ctx context.Context, challengeID int64, limit int) ([]*models.Trade, error) {
	args := m.Called(ctx, challengeID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Trade), args.Error(1)
}

func (m *MockTradeRepository) CountByChallenge(ctx context.Context, challengeID int64) (int64, error) {
	args := m.Called(ctx, challengeID)
	return args.Get(0).(int64), args.Error(1)
}

// MockPlanRepository is a mock implementation of PlanRepository
type MockPlanRepository struct {
	mock.Mock
}

func (m *MockPlanRepository) Create(ctx context.Context, plan *models.Plan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *MockPlanRepository) GetBySlug(ctx context.Context, slug string) (*models.Plan, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *MockPlanRepository) GetAll(ctx context.Context) ([]*models.Plan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Plan), args.Error(1)
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
	Published []events.Event
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Published = append(m.Published, event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork
type MockUnitOfWork struct {
	mock.Mock
	challengeRepo   ChallengeRepository
	dailyMetricRepo DailyMetricRepository
	tradeRepo       TradeRepository
	planRepo        PlanRepository
	userRepo        UserRepository
	eventBus        EventPublisher
}

// SetRepositories wires the mock repositories returned by the getters
func (m *MockUnitOfWork) SetRepositories(
	challengeRepo ChallengeRepository,
	dailyMetricRepo DailyMetricRepository,
	tradeRepo TradeRepository,
	planRepo PlanRepository,
	userRepo UserRepository,
) {
	m.challengeRepo = challengeRepo
	m.dailyMetricRepo = dailyMetricRepo
	m.tradeRepo = tradeRepo
	m.planRepo = planRepo
	m.userRepo = userRepo
	m.eventBus = &MockEventPublisher{}
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) ChallengeRepository() ChallengeRepository {
	return m.challengeRepo
}

func (m *MockUnitOfWork) DailyMetricRepository() DailyMetricRepository {
	return m.dailyMetricRepo
}

func (m *MockUnitOfWork) TradeRepository() TradeRepository {
	return m.tradeRepo
}

func (m *MockUnitOfWork) PlanRepository() PlanRepository {
	return m.planRepo
}

func (m *MockUnitOfWork) UserRepository() UserRepository {
	return m.userRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.eventBus
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
