package events

import (
	"context"
	"sync"
	"time"

	"tradesense/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeTradeExecuted   EventType = "trade_executed"
	EventTypeChallengeFailed EventType = "challenge_failed"
	EventTypeChallengePassed EventType = "challenge_passed"
	EventTypeDailyRollover   EventType = "daily_rollover"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// TradeExecutedEvent represents a trade that was executed against a challenge
type TradeExecutedEvent struct {
	ChallengeID int64
	TradeID     int64
	Symbol      string
	Side        models.TradeSide
	Qty         float64
	Price       float64
	Commission  float64
	Pnl         float64
	NewEquity   float64
}

func (e TradeExecutedEvent) Type() EventType {
	return EventTypeTradeExecuted
}

// ChallengeFailedEvent represents a challenge breaching a loss rule
type ChallengeFailedEvent struct {
	ChallengeID int64
	UserID      int64
	Outcome     models.EvaluationOutcome
	Equity      float64
	FailedAt    time.Time
}

func (e ChallengeFailedEvent) Type() EventType {
	return EventTypeChallengeFailed
}

// ChallengePassedEvent represents a challenge hitting its profit target
type ChallengePassedEvent struct {
	ChallengeID int64
	UserID      int64
	Equity      float64
	PassedAt    time.Time
}

func (e ChallengePassedEvent) Type() EventType {
	return EventTypeChallengePassed
}

// DailyRolloverEvent represents the first evaluation of a new UTC day
// snapshotting the day's opening equity
type DailyRolloverEvent struct {
	ChallengeID    int64
	Date           time.Time
	DayStartEquity float64
}

func (e DailyRolloverEvent) Type() EventType {
	return EventTypeDailyRollover
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	// Call handlers asynchronously to avoid blocking
	for _, handler := range handlers {
		go func(h Handler) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType": event.Type(),
						"panic":     r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler)
	}
}

// TransactionalBus holds pending events coupled to a unit of work and
// flushes them to the underlying bus only after a successful commit.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush is called after a successful DB commit
func (b *TransactionalBus) Flush(ctx context.Context) {
	// Events outlive the transaction context
	eventCtx := context.Background()

	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
}

// Discard is called after a rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
