package models

import (
	"errors"
	"fmt"
)

// Zone identifies one of ERCOT's fixed settlement point pricing regions.
type Zone string

// ErrUnknownZone indicates a zone identifier that is not part of ERCOT's
// published settlement point set. Because the zone is fixed at configuration
// time, this error recurring on every poll means the deployment is
// misconfigured (or ERCOT changed its column layout).
var ErrUnknownZone = errors.New("unknown ERCOT zone")

// Hub zones. Wholesale markets and large commercial contracts settle here.
const (
	ZoneHubBusAvg  Zone = "HB_BUSAVG"
	ZoneHubHouston Zone = "HB_HOUSTON"
	ZoneHubAvg     Zone = "HB_HUBAVG"
	ZoneHubNorth   Zone = "HB_NORTH"
	ZoneHubPan     Zone = "HB_PAN"
	ZoneHubSouth   Zone = "HB_SOUTH"
	ZoneHubWest    Zone = "HB_WEST"
)

// Load zones. Residential and small commercial plans typically settle here;
// LZ_NORTH is the most common residential zone.
const (
	ZoneLoadAEN     Zone = "LZ_AEN"
	ZoneLoadCPS     Zone = "LZ_CPS"
	ZoneLoadHouston Zone = "LZ_HOUSTON"
	ZoneLoadLCRA    Zone = "LZ_LCRA"
	ZoneLoadNorth   Zone = "LZ_NORTH"
	ZoneLoadRaybn   Zone = "LZ_RAYBN"
	ZoneLoadSouth   Zone = "LZ_SOUTH"
	ZoneLoadWest    Zone = "LZ_WEST"
)

// RowColumns is the fixed width of one row in ERCOT's real-time SPP table:
// a date cell, a time cell, and one price cell per zone.
const RowColumns = 2 + NumZones

// NumZones is the number of settlement point columns in the source table.
const NumZones = 15

// zoneColumns maps each zone to its 0-based column within a table row.
// Columns 0 and 1 are the interval date and time; prices start at column 2.
// The order must match ERCOT's published column layout exactly; a mismatch
// here silently prices the wrong zone.
var zoneColumns = map[Zone]int{
	ZoneHubBusAvg:   2,
	ZoneHubHouston:  3,
	ZoneHubAvg:      4,
	ZoneHubNorth:    5,
	ZoneHubPan:      6,
	ZoneHubSouth:    7,
	ZoneHubWest:     8,
	ZoneLoadAEN:     9,
	ZoneLoadCPS:     10,
	ZoneLoadHouston: 11,
	ZoneLoadLCRA:    12,
	ZoneLoadNorth:   13,
	ZoneLoadRaybn:   14,
	ZoneLoadSouth:   15,
	ZoneLoadWest:    16,
}

// AllZones returns every recognized zone in source column order.
func AllZones() []Zone {
	zones := make([]Zone, 0, NumZones)
	for _, z := range []Zone{
		ZoneHubBusAvg, ZoneHubHouston, ZoneHubAvg, ZoneHubNorth,
		ZoneHubPan, ZoneHubSouth, ZoneHubWest,
		ZoneLoadAEN, ZoneLoadCPS, ZoneLoadHouston, ZoneLoadLCRA,
		ZoneLoadNorth, ZoneLoadRaybn, ZoneLoadSouth, ZoneLoadWest,
	} {
		zones = append(zones, z)
	}
	return zones
}

// Column returns the 0-based column of this zone's price cell within a
// table row, or ErrUnknownZone if the zone is not recognized.
func (z Zone) Column() (int, error) {
	col, ok := zoneColumns[z]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownZone, string(z))
	}
	return col, nil
}

// Valid reports whether the zone is one of the 15 recognized identifiers.
func (z Zone) Valid() bool {
	_, ok := zoneColumns[z]
	return ok
}

// IsHub reports whether the zone is a hub (as opposed to a load zone).
func (z Zone) IsHub() bool {
	col, ok := zoneColumns[z]
	return ok && col < zoneColumns[ZoneLoadAEN]
}
