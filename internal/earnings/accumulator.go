package earnings

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gtanker/ercot-spp-sellback/internal/models"
)

// kWhPerMWh converts the source's $/MWh price into the $/kWh rate the
// meter deltas are priced at.
var kWhPerMWh = decimal.NewFromInt(1000)

// PriceSource supplies the current price snapshot. The coordinator's
// atomic getter implements it, so a reconcile always reads one consistent
// snapshot rather than torn state.
type PriceSource interface {
	Snapshot() (*models.Snapshot, bool)
}

// Store persists the accumulator state across restarts. Load returns
// (nil, nil) when no state has ever been saved.
type Store interface {
	LoadEarningsState(ctx context.Context) (*models.EarningsState, error)
	SaveEarningsState(ctx context.Context, state *models.EarningsState) error
}

// EventPublisher publishes an earnings-updated event after each mutation.
type EventPublisher interface {
	PublishEarningsUpdated(ctx context.Context, state models.EarningsState, deltaKWh, deltaEarnings decimal.Decimal) error
}

// Accumulator converts cumulative exported-energy readings into lifetime
// sellback earnings. It is the sole writer of its EarningsState; readings
// and the current price snapshot are read-only inputs taken at reconcile
// time. The rate applied to a delta is whatever price is current when the
// reading is reconciled; there is no retroactive re-pricing.
type Accumulator struct {
	prices   PriceSource
	store    Store
	events   EventPublisher // optional
	fraction decimal.Decimal

	mu      sync.Mutex
	state   models.EarningsState
	pending []models.CounterReading

	now func() time.Time
}

// New creates an Accumulator with the given sellback fraction in (0, 1].
func New(prices PriceSource, store Store, fraction decimal.Decimal, events EventPublisher) *Accumulator {
	return &Accumulator{
		prices:   prices,
		store:    store,
		events:   events,
		fraction: fraction,
		now:      time.Now,
	}
}

// LoadState restores persisted state at startup. A missing row means a
// fresh installation: zero lifetime total and no baseline.
func (a *Accumulator) LoadState(ctx context.Context) error {
	state, err := a.store.LoadEarningsState(ctx)
	if err != nil {
		return fmt.Errorf("failed to load earnings state: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if state != nil {
		a.state = *state
	} else {
		a.state = models.EarningsState{LifetimeTotal: decimal.Zero}
	}
	return nil
}

// Ingest reconciles one counter reading against the current price.
//
// With no price published yet the reading is buffered, never priced at a
// bogus zero rate; buffered readings drain in arrival order on the first
// ingest that finds a price. The first reading ever observed only
// establishes the baseline. A reading below the baseline means the
// external counter reset, and the whole reading is treated as newly
// exported energy.
func (a *Accumulator) Ingest(ctx context.Context, reading models.CounterReading) error {
	if reading.ExportedKWh.IsNegative() {
		return fmt.Errorf("counter reading must be non-negative, got %s", reading.ExportedKWh)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	snap, ok := a.prices.Snapshot()
	if !ok {
		a.pending = append(a.pending, reading)
		log.Printf("no price available yet, buffering reading %s kWh (%d pending)",
			reading.ExportedKWh, len(a.pending))
		return nil
	}

	rate := SellbackRate(snap.Record.PriceMWh, a.fraction)

	totalDeltaKWh := decimal.Zero
	totalDeltaEarnings := decimal.Zero
	readings := append(a.pending, reading)
	a.pending = nil

	for _, r := range readings {
		deltaKWh, deltaEarnings := a.apply(r, rate)
		totalDeltaKWh = totalDeltaKWh.Add(deltaKWh)
		totalDeltaEarnings = totalDeltaEarnings.Add(deltaEarnings)
	}
	a.state.UpdatedAt = a.now()

	if err := a.store.SaveEarningsState(ctx, &a.state); err != nil {
		return fmt.Errorf("failed to save earnings state: %w", err)
	}

	if a.events != nil {
		if err := a.events.PublishEarningsUpdated(ctx, a.state, totalDeltaKWh, totalDeltaEarnings); err != nil {
			log.Printf("failed to publish earnings event: %v", err)
		}
	}
	return nil
}

// apply folds one reading into the state at the given $/kWh rate and
// returns the energy and earnings deltas it produced. Caller holds the lock.
func (a *Accumulator) apply(r models.CounterReading, rate decimal.Decimal) (deltaKWh, deltaEarnings decimal.Decimal) {
	if a.state.LastCounterValue == nil {
		// Fresh installation: nothing meaningful was exported "since the
		// last reading", so the first reading only sets the baseline.
		v := r.ExportedKWh
		a.state.LastCounterValue = &v
		return decimal.Zero, decimal.Zero
	}

	deltaKWh = r.ExportedKWh.Sub(*a.state.LastCounterValue)
	if deltaKWh.IsNegative() {
		// Counter reset: assume the counter restarted from zero and the
		// whole reading is new export. If the counter decreased for some
		// other reason (sensor glitch, manual correction) this over-counts;
		// the source gives no way to tell the cases apart.
		log.Printf("counter reset detected: %s -> %s kWh",
			a.state.LastCounterValue, r.ExportedKWh)
		deltaKWh = r.ExportedKWh
	}

	deltaEarnings = deltaKWh.Mul(rate)
	a.state.LifetimeTotal = a.state.LifetimeTotal.Add(deltaEarnings)
	v := r.ExportedKWh
	a.state.LastCounterValue = &v
	return deltaKWh, deltaEarnings
}

// State returns a copy of the current earnings state.
func (a *Accumulator) State() models.EarningsState {
	a.mu.Lock()
	defer a.mu.Unlock()
	state := a.state
	if a.state.LastCounterValue != nil {
		v := *a.state.LastCounterValue
		state.LastCounterValue = &v
	}
	return state
}

// PendingReadings reports how many readings are buffered waiting for a
// first price.
func (a *Accumulator) PendingReadings() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending)
}

// Reset zeroes the lifetime total on explicit operator command. The
// counter baseline is kept so the next reading prices only energy exported
// after the reset.
func (a *Accumulator) Reset(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.state.LifetimeTotal = decimal.Zero
	a.state.UpdatedAt = a.now()
	if err := a.store.SaveEarningsState(ctx, &a.state); err != nil {
		return fmt.Errorf("failed to save earnings state: %w", err)
	}
	log.Println("earnings total reset")
	return nil
}

// SellbackRate converts a $/MWh settlement price into the $/kWh rate paid
// for exports under the given buyback fraction.
func SellbackRate(priceMWh, fraction decimal.Decimal) decimal.Decimal {
	return priceMWh.Div(kWhPerMWh).Mul(fraction)
}
