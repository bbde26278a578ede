package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"saldo/internal/amqp"
	"saldo/internal/cache"
	"saldo/internal/core"
	"saldo/internal/store"
)

// DeletePolicy decides what happens to an account's history on deletion.
type DeletePolicy string

const (
	PolicyRestrict DeletePolicy = "restrict"
	PolicyCascade  DeletePolicy = "cascade"
)

// EventPublisher is satisfied by *amqp.Client.
type EventPublisher interface {
	Publish(ctx context.Context, ev *amqp.LedgerEvent) error
}

// LedgerOptions tunes a Ledger. Zero values pick sensible defaults.
type LedgerOptions struct {
	DeletePolicy DeletePolicy
	// CategoryCache holds category lists per household. Nil disables caching.
	CategoryCache cache.Cache[[]core.Category]
	// Now is the clock used for "today". Defaults to time.Now.
	Now func() time.Time
	// NewID generates record IDs. Defaults to random UUIDs.
	NewID func() string
}

// Ledger orchestrates the engines over a store. Every operation runs under
// an explicit scope and recomputes derived values from the store.
type Ledger struct {
	store      store.Store
	events     EventPublisher
	categories cache.Cache[[]core.Category]
	policy     DeletePolicy
	now        func() time.Time
	newID      func() string
}

func NewLedger(st store.Store, events EventPublisher, opts LedgerOptions) *Ledger {
	l := &Ledger{
		store:      st,
		events:     events,
		categories: opts.CategoryCache,
		policy:     opts.DeletePolicy,
		now:        opts.Now,
		newID:      opts.NewID,
	}
	if l.policy == "" {
		l.policy = PolicyRestrict
	}
	if l.now == nil {
		l.now = time.Now
	}
	if l.newID == nil {
		l.newID = func() string { return uuid.NewString() }
	}
	return l
}

func (l *Ledger) today() core.Date {
	return core.DateOf(l.now())
}

func (l *Ledger) publish(ctx context.Context, t amqp.EventType, scope core.Scope, entityID string, ids ...string) {
	if l.events == nil {
		slog.DebugContext(ctx, "No event publisher, skipping ledger event", "type", t, "entity_id", entityID)
		return
	}
	if err := l.events.Publish(ctx, amqp.NewLedgerEvent(t, scope.HouseholdID, entityID, ids...)); err != nil {
		// The write already succeeded; the mirror catches up on the next event.
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"type", t,
			"entity_id", entityID,
			"error", err)
	}
}

func checkScope(scope core.Scope) error {
	if err := scope.Validate(); err != nil {
		return core.Invalid("scope", err)
	}
	return nil
}

// Close releases the store and the event publisher.
func (l *Ledger) Close() error {
	var errs []error

	if l.store != nil {
		if err := l.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	if c, ok := l.events.(interface{ Close() error }); ok && c != nil {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("events: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger: %v", errs)
	}
	return nil
}
