package ercot

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/gtanker/ercot-spp-sellback/internal/models"
)

// Extract selects the most recent row of the table and produces the typed
// price record for the given zone. Negative and zero prices are legitimate
// market conditions and parse successfully; a non-numeric price cell yields
// ErrPriceParse, and an unrecognized zone yields models.ErrUnknownZone.
//
// No rounding or unit conversion happens here; the record carries the raw
// $/MWh value and consumers project it into whatever unit they display.
func Extract(table RawTable, zone models.Zone) (models.PriceRecord, error) {
	col, err := zone.Column()
	if err != nil {
		return models.PriceRecord{}, err
	}

	row := table.LastRow()
	price, err := decimal.NewFromString(row[col])
	if err != nil {
		return models.PriceRecord{}, fmt.Errorf("%w: zone %s cell %q",
			ErrPriceParse, zone, row[col])
	}

	return models.PriceRecord{
		Zone:         zone,
		PriceMWh:     price,
		IntervalDate: row[0],
		IntervalTime: row[1],
	}, nil
}
