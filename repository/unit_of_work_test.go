package repository

import (
	"context"
	"testing"
	"time"

	"tradesense/events"
	"tradesense/models"
	"tradesense/repository/testutil"
	"tradesense/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitOfWork_CommitFlushesEvents(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	user := testutil.CreateTestUser(t, testDB.DB, "trader", "trader@example.com")
	plan := testutil.CreateTestPlan(t, testDB.DB, "starter", 5000)
	challenge := testutil.CreateTestChallenge(t, testDB.DB, user.ID, plan.ID, 5000)

	bus := events.NewBus()
	received := make(chan events.Event, 1)
	bus.Subscribe(events.EventTypeChallengePassed, func(_ context.Context, e events.Event) {
		received <- e
	})

	factory := NewUnitOfWorkFactory(testDB.DB, bus)
	ctx := context.Background()

	uow := factory.Create()
	require.NoError(t, uow.Begin(ctx))

	loaded, err := uow.ChallengeRepository().GetByIDForUpdate(ctx, challenge.ID)
	require.NoError(t, err)
	loaded.Equity = 5500
	require.NoError(t, uow.ChallengeRepository().Update(ctx, loaded))

	uow.EventBus().Publish(events.ChallengePassedEvent{
		ChallengeID: challenge.ID,
		UserID:      user.ID,
		Equity:      5500,
	})

	// Nothing reaches subscribers while the transaction is open
	select {
	case <-received:
		t.Fatal("event delivered before commit")
	case <-time.After(100 * time.Millisecond):
	}

	require.NoError(t, uow.Commit())

	select {
	case e := <-received:
		passed := e.(events.ChallengePassedEvent)
		assert.Equal(t, challenge.ID, passed.ChallengeID)
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered after commit")
	}
}

func TestUnitOfWork_RollbackDiscardsWritesAndEvents(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	user := testutil.CreateTestUser(t, testDB.DB, "trader", "trader@example.com")
	plan := testutil.CreateTestPlan(t, testDB.DB, "starter", 5000)
	challenge := testutil.CreateTestChallenge(t, testDB.DB, user.ID, plan.ID, 5000)

	bus := events.NewBus()
	received := make(chan events.Event, 1)
	bus.Subscribe(events.EventTypeChallengeFailed, func(_ context.Context, e events.Event) {
		received <- e
	})

	factory := NewUnitOfWorkFactory(testDB.DB, bus)
	ctx := context.Background()

	uow := factory.Create()
	require.NoError(t, uow.Begin(ctx))

	loaded, err := uow.ChallengeRepository().GetByIDForUpdate(ctx, challenge.ID)
	require.NoError(t, err)
	loaded.Equity = 4000
	loaded.Status = models.ChallengeStatusFailed
	require.NoError(t, uow.ChallengeRepository().Update(ctx, loaded))
	uow.EventBus().Publish(events.ChallengeFailedEvent{ChallengeID: challenge.ID})

	require.NoError(t, uow.Rollback())

	select {
	case <-received:
		t.Fatal("event delivered after rollback")
	case <-time.After(100 * time.Millisecond):
	}

	found, err := NewChallengeRepository(testDB.DB).GetByID(ctx, challenge.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, 5000.0, found.Equity)
	assert.Equal(t, models.ChallengeStatusActive, found.Status)
}

// Full evaluation flow over a real database: rollover row creation, the
// total loss transition, and the no-op on re-evaluation.
func TestEvaluationFlow_EndToEnd(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	user := testutil.CreateTestUser(t, testDB.DB, "trader", "trader@example.com")
	plan := testutil.CreateTestPlan(t, testDB.DB, "starter", 5000)
	challenge := testutil.CreateTestChallenge(t, testDB.DB, user.ID, plan.ID, 5000)

	factory := NewUnitOfWorkFactory(testDB.DB, events.NewBus())
	rules := service.NewRulesService(factory)
	ctx := context.Background()

	challengeRepo := NewChallengeRepository(testDB.DB)
	metricRepo := NewDailyMetricRepository(testDB.DB)

	// Drop equity below the total loss level out of band
	loaded, err := challengeRepo.GetByID(ctx, challenge.ID)
	require.NoError(t, err)
	loaded.Equity = 4400
	require.NoError(t, challengeRepo.Update(ctx, loaded))

	result, err := rules.Evaluate(ctx, challenge.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeFailedTotalLoss, result.Outcome)
	assert.Equal(t, models.ChallengeStatusFailed, result.Status)

	// Status, reason and timestamp were committed together
	found, err := challengeRepo.GetByID(ctx, challenge.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ChallengeStatusFailed, found.Status)
	require.NotNil(t, found.StatusReason)
	assert.Equal(t, "failed_total_loss", *found.StatusReason)
	require.NotNil(t, found.FailedAt)
	assert.Nil(t, found.PassedAt)

	// The rollover left today's metric behind
	metric, err := metricRepo.GetByDate(ctx, challenge.ID, time.Now().UTC())
	require.NoError(t, err)
	require.NotNil(t, metric)
	assert.Equal(t, 5000.0, metric.DayStartEquity)

	// Re-evaluation of a decided challenge changes nothing
	again, err := rules.Evaluate(ctx, challenge.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeFailedTotalLoss, again.Outcome)

	after, err := challengeRepo.GetByID(ctx, challenge.ID)
	require.NoError(t, err)
	assert.True(t, after.FailedAt.Equal(*found.FailedAt))
}
