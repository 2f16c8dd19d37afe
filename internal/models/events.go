package models

import "time"

// Event type constants
const (
	EventPriceUpdated    = "PRICE_UPDATED"
	EventEarningsUpdated = "EARNINGS_UPDATED"
	EventMeterReading    = "METER_READING"
)

// PriceEvent is published to Kafka whenever a poll cycle succeeds.
type PriceEvent struct {
	EventType string    `json:"event_type"`
	Snapshot  *Snapshot `json:"snapshot"`
	Zone      Zone      `json:"zone"`
	Timestamp time.Time `json:"timestamp"`
}

// EarningsEvent is published to Kafka whenever the accumulator mutates
// its persisted state.
type EarningsEvent struct {
	EventType     string        `json:"event_type"`
	State         EarningsState `json:"state"`
	DeltaKWh      string        `json:"delta_kwh"`
	DeltaEarnings string        `json:"delta_earnings"`
	Timestamp     time.Time     `json:"timestamp"`
}

// MeterEvent is the inbound shape on the meter-reading topic. The exported
// counter value is carried as a string so that unknown/unavailable states
// from the upstream meter bridge pass through without being coerced to zero.
type MeterEvent struct {
	EventType string `json:"event_type"`
	Source    string `json:"source"`
	Data      struct {
		ExportedKWh string  `json:"exported_kwh"`
		ObservedAt  *string `json:"observed_at,omitempty"`
	} `json:"data"`
}
