package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/sirupsen/logrus"

	"tradesense/config"
	"tradesense/database"
	"tradesense/events"
	"tradesense/market"
	"tradesense/repository"
	"tradesense/service"
)

// App is the composition root: every service wired against the shared unit
// of work factory. Transports (HTTP, chat, whatever lands next) attach here.
type App struct {
	Rules       service.RulesService
	Trades      service.TradeService
	Challenges  service.ChallengeService
	Leaderboard service.LeaderboardService
}

// Run initializes and starts the application
func Run(ctx context.Context) error {
	log.Println("Starting tradesense...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	log.Println("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("Database connection established successfully")

	// Initialize event bus
	eventBus := events.NewBus()
	subscribeEventLoggers(eventBus)

	// Initialize unit of work factory
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize market data source
	prices := market.NewYahooClient(cfg.MarketDataBaseURL)

	// Initialize services
	log.Println("Initializing services...")
	rulesService := service.NewRulesService(uowFactory)
	app := &App{
		Rules:       rulesService,
		Trades:      service.NewTradeService(uowFactory, prices, rulesService),
		Challenges:  service.NewChallengeService(uowFactory),
		Leaderboard: service.NewLeaderboardService(uowFactory),
	}
	log.Println("Services initialized successfully")

	// Startup read as a connectivity check against real tables
	if entries, err := app.Leaderboard.GetMonthlyTop(ctx, 10); err != nil {
		return fmt.Errorf("startup leaderboard check failed: %w", err)
	} else {
		log.Printf("Leaderboard reachable, %d qualifying traders this month", len(entries))
	}

	// Wait for context cancellation
	log.Printf("Service is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	// Cleanup resources
	log.Println("Shutting down...")

	// Give cleanup operations time to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Close database connection
	log.Println("Closing database connection...")
	db.Close()

	select {
	case <-shutdownCtx.Done():
		log.Println("Shutdown timeout exceeded")
	case <-time.After(1 * time.Second):
		log.Println("Shutdown completed")
	}

	return nil
}

// subscribeEventLoggers attaches structured logging to challenge lifecycle
// events so terminal transitions and rollovers land in the service log
func subscribeEventLoggers(bus *events.Bus) {
	bus.Subscribe(events.EventTypeChallengePassed, func(_ context.Context, e events.Event) {
		ev := e.(events.ChallengePassedEvent)
		logrus.WithFields(logrus.Fields{
			"challengeID": ev.ChallengeID,
			"userID":      ev.UserID,
			"equity":      ev.Equity,
		}).Info("Challenge passed")
	})

	bus.Subscribe(events.EventTypeChallengeFailed, func(_ context.Context, e events.Event) {
		ev := e.(events.ChallengeFailedEvent)
		logrus.WithFields(logrus.Fields{
			"challengeID": ev.ChallengeID,
			"userID":      ev.UserID,
			"outcome":     ev.Outcome,
			"equity":      ev.Equity,
		}).Info("Challenge failed")
	})

	bus.Subscribe(events.EventTypeDailyRollover, func(_ context.Context, e events.Event) {
		ev := e.(events.DailyRolloverEvent)
		logrus.WithFields(logrus.Fields{
			"challengeID":    ev.ChallengeID,
			"date":           ev.Date.Format("2006-01-02"),
			"dayStartEquity": ev.DayStartEquity,
		}).Debug("Daily rollover")
	})
}
