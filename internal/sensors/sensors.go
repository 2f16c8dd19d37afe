// Package sensors projects the published state (the current price snapshot
// and the earnings state) into the fixed set of consumer readings. Every projection is a pure function; nothing here owns state.
package sensors

import (
	"github.com/shopspring/decimal"

	"github.com/gtanker/ercot-spp-sellback/internal/earnings"
	"github.com/gtanker/ercot-spp-sellback/internal/models"
)

// Kind identifies one of the fixed sensor variants.
type Kind string

const (
	KindPriceMWh          Kind = "price_mwh"
	KindPriceCentsKWh     Kind = "price_cents_kwh"
	KindLastUpdated       Kind = "last_updated"
	KindSellbackRateUSD   Kind = "sellback_rate_usd_kwh"
	KindSellbackRateCents Kind = "sellback_rate_cents_kwh"
	KindEarnings          Kind = "earnings_usd"
)

// Reading is one formatted sensor value.
type Reading struct {
	Kind  Kind   `json:"kind"`
	Value string `json:"value"`
	Unit  string `json:"unit"`
}

var hundred = decimal.NewFromInt(100)

// PriceMWh is the raw settlement point price, $/MWh.
func PriceMWh(snap *models.Snapshot) Reading {
	return Reading{
		Kind:  KindPriceMWh,
		Value: snap.Record.PriceMWh.String(),
		Unit:  "$/MWh",
	}
}

// PriceCentsKWh converts the price to cents per kilowatt-hour:
// ($/MWh / 1000) * 100, rounded to 2 places.
func PriceCentsKWh(snap *models.Snapshot) Reading {
	cents := earnings.SellbackRate(snap.Record.PriceMWh, decimal.NewFromInt(1)).Mul(hundred)
	return Reading{
		Kind:  KindPriceCentsKWh,
		Value: cents.Round(2).String(),
		Unit:  "¢/kWh",
	}
}

// LastUpdated is the source's own update timestamp when the page carried
// one, otherwise the interval date and time of the current record.
func LastUpdated(snap *models.Snapshot) Reading {
	value := snap.SourceUpdated
	if value == "" {
		value = snap.Record.IntervalDate + " " + snap.Record.IntervalTime
	}
	return Reading{
		Kind:  KindLastUpdated,
		Value: value,
		Unit:  "",
	}
}

// SellbackRateUSD is the $/kWh rate paid for exports, rounded to 5 places.
func SellbackRateUSD(snap *models.Snapshot, fraction decimal.Decimal) Reading {
	rate := earnings.SellbackRate(snap.Record.PriceMWh, fraction)
	return Reading{
		Kind:  KindSellbackRateUSD,
		Value: rate.Round(5).String(),
		Unit:  "$/kWh",
	}
}

// SellbackRateCents is the export rate in ¢/kWh, rounded to 2 places.
func SellbackRateCents(snap *models.Snapshot, fraction decimal.Decimal) Reading {
	rate := earnings.SellbackRate(snap.Record.PriceMWh, fraction).Mul(hundred)
	return Reading{
		Kind:  KindSellbackRateCents,
		Value: rate.Round(2).String(),
		Unit:  "¢/kWh",
	}
}

// Earnings is the lifetime sellback total in dollars, rounded to 2 places.
func Earnings(state models.EarningsState) Reading {
	return Reading{
		Kind:  KindEarnings,
		Value: state.LifetimeTotal.Round(2).String(),
		Unit:  "$",
	}
}

// All evaluates every sensor variant against the published state.
func All(snap *models.Snapshot, state models.EarningsState, fraction decimal.Decimal) []Reading {
	return []Reading{
		PriceMWh(snap),
		PriceCentsKWh(snap),
		LastUpdated(snap),
		SellbackRateUSD(snap, fraction),
		SellbackRateCents(snap, fraction),
		Earnings(state),
	}
}
