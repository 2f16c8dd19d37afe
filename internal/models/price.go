package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceRecord is an immutable settlement point price for one zone and one
// five-minute interval, taken from exactly one cell of exactly one row of
// the source table. Prices are never interpolated or averaged across rows.
type PriceRecord struct {
	Zone         Zone            `json:"zone"`
	PriceMWh     decimal.Decimal `json:"price_mwh"`     // $/MWh, may be zero or negative
	IntervalDate string          `json:"interval_date"` // source date cell, MM/DD/YYYY
	IntervalTime string          `json:"interval_time"` // source time cell, HHMM
}

// Snapshot is the coordinator's published view of the latest price. It is
// replaced atomically on each successful poll and retained unchanged across
// failed polls, so consumers never see a hard "no data" state after the
// first success.
type Snapshot struct {
	Record        PriceRecord `json:"record"`
	SourceUpdated string      `json:"source_updated,omitempty"` // "Last Updated" banner from the page
	FetchedAt     time.Time   `json:"fetched_at"`               // wall clock of the successful fetch
}
