package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CounterReading is one cumulative exported-energy reading (kWh) from the
// external meter. Readings arrive at the meter's own cadence, independent
// of the price poll cycle.
type CounterReading struct {
	ExportedKWh decimal.Decimal `json:"exported_kwh"`
	ObservedAt  time.Time       `json:"observed_at"`
}

// EarningsState is the accumulator's persisted state: the lifetime sellback
// total and the last counter value used as the delta baseline. LifetimeTotal
// only decreases through an explicit reset; LastCounterValue is nil until
// the first reading establishes a baseline.
type EarningsState struct {
	LifetimeTotal    decimal.Decimal  `json:"lifetime_total"` // dollars
	LastCounterValue *decimal.Decimal `json:"last_counter_value,omitempty"`
	UpdatedAt        time.Time        `json:"updated_at"`
}
