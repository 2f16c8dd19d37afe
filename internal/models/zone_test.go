package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZoneColumn(t *testing.T) {
	t.Run("maps every zone to its source column", func(t *testing.T) {
		expected := map[Zone]int{
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
		require.Len(t, expected, NumZones)

		for zone, col := range expected {
			got, err := zone.Column()
			require.NoError(t, err)
			assert.Equal(t, col, got, "zone %s", zone)
		}
	})

	t.Run("unknown zone fails", func(t *testing.T) {
		_, err := Zone("LZ_ATLANTIS").Column()
		assert.ErrorIs(t, err, ErrUnknownZone)

		_, err = Zone("").Column()
		assert.ErrorIs(t, err, ErrUnknownZone)
	})
}

func TestAllZones(t *testing.T) {
	zones := AllZones()
	require.Len(t, zones, NumZones)

	// Column order: consecutive starting at the first price column.
	for i, zone := range zones {
		col, err := zone.Column()
		require.NoError(t, err)
		assert.Equal(t, 2+i, col)
		assert.True(t, zone.Valid())
	}
}

func TestZoneIsHub(t *testing.T) {
	assert.True(t, ZoneHubNorth.IsHub())
	assert.True(t, ZoneHubBusAvg.IsHub())
	assert.False(t, ZoneLoadNorth.IsHub())
	assert.False(t, Zone("LZ_ATLANTIS").IsHub())
}

func TestRowColumns(t *testing.T) {
	// 2 timestamp columns + one price column per zone.
	assert.Equal(t, 17, RowColumns)
}
