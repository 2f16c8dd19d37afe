package earnings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gtanker/ercot-spp-sellback/internal/models"
)

// mockPriceSource serves a fixed snapshot, or none.
type mockPriceSource struct {
	snap *models.Snapshot
}

func (m *mockPriceSource) Snapshot() (*models.Snapshot, bool) {
	return m.snap, m.snap != nil
}

// mockStore keeps state in memory and records save calls.
type mockStore struct {
	loaded    *models.EarningsState
	saved     []models.EarningsState
	saveErr   error
	loadErr   error
	SaveCalls int
}

func (m *mockStore) LoadEarningsState(ctx context.Context) (*models.EarningsState, error) {
	return m.loaded, m.loadErr
}

func (m *mockStore) SaveEarningsState(ctx context.Context, state *models.EarningsState) error {
	m.SaveCalls++
	if m.saveErr != nil {
		return m.saveErr
	}
	saved := *state
	if state.LastCounterValue != nil {
		v := *state.LastCounterValue
		saved.LastCounterValue = &v
	}
	m.saved = append(m.saved, saved)
	return nil
}

func snapshotAt(priceMWh string) *models.Snapshot {
	return &models.Snapshot{
		Record: models.PriceRecord{
			Zone:         models.ZoneLoadNorth,
			PriceMWh:     decimal.RequireFromString(priceMWh),
			IntervalDate: "10/01/2025",
			IntervalTime: "1015",
		},
		FetchedAt: time.Now(),
	}
}

func reading(kwh string) models.CounterReading {
	return models.CounterReading{
		ExportedKWh: decimal.RequireFromString(kwh),
		ObservedAt:  time.Now(),
	}
}

func ingestAll(t *testing.T, a *Accumulator, kwhs ...string) {
	t.Helper()
	for _, kwh := range kwhs {
		require.NoError(t, a.Ingest(context.Background(), reading(kwh)))
	}
}

func TestAccumulatorIngest(t *testing.T) {
	ctx := context.Background()

	t.Run("first reading only sets baseline", func(t *testing.T) {
		a := New(&mockPriceSource{snap: snapshotAt("100.00")}, &mockStore{}, decimal.RequireFromString("1"), nil)
		require.NoError(t, a.LoadState(ctx))

		ingestAll(t, a, "100")

		state := a.State()
		assert.True(t, state.LifetimeTotal.IsZero())
		require.NotNil(t, state.LastCounterValue)
		assert.True(t, decimal.NewFromInt(100).Equal(*state.LastCounterValue))
	})

	t.Run("monotonic sequence with duplicates", func(t *testing.T) {
		// Price 100 $/MWh at full fraction: rate r = 0.1 $/kWh.
		a := New(&mockPriceSource{snap: snapshotAt("100.00")}, &mockStore{}, decimal.RequireFromString("1"), nil)
		require.NoError(t, a.LoadState(ctx))

		ingestAll(t, a, "100")
		assert.True(t, a.State().LifetimeTotal.IsZero())

		ingestAll(t, a, "150") // +50 kWh * r = 5
		assert.True(t, decimal.NewFromInt(5).Equal(a.State().LifetimeTotal))

		ingestAll(t, a, "150") // duplicate reading, no double counting
		assert.True(t, decimal.NewFromInt(5).Equal(a.State().LifetimeTotal))

		ingestAll(t, a, "200") // +50 kWh * r = 5
		assert.True(t, decimal.NewFromInt(10).Equal(a.State().LifetimeTotal))
	})

	t.Run("counter reset uses new reading as delta", func(t *testing.T) {
		a := New(&mockPriceSource{snap: snapshotAt("100.00")}, &mockStore{}, decimal.RequireFromString("1"), nil)
		require.NoError(t, a.LoadState(ctx))

		ingestAll(t, a, "500", "50")

		// Delta is 50, not -450: lifetime grows by 50 * 0.1 = 5.
		state := a.State()
		assert.True(t, decimal.NewFromInt(5).Equal(state.LifetimeTotal))
		assert.True(t, decimal.NewFromInt(50).Equal(*state.LastCounterValue))
	})

	t.Run("readings buffer until a price exists", func(t *testing.T) {
		prices := &mockPriceSource{}
		store := &mockStore{}
		a := New(prices, store, decimal.RequireFromString("1"), nil)
		require.NoError(t, a.LoadState(ctx))

		// No price yet: nothing is reconciled and nothing is priced at a
		// bogus zero rate.
		ingestAll(t, a, "100", "150")
		assert.Equal(t, 2, a.PendingReadings())
		assert.Nil(t, a.State().LastCounterValue)
		assert.Zero(t, store.SaveCalls)

		// Price appears: buffered readings drain in order, so the first
		// becomes the baseline and only the 50 kWh delta is priced.
		prices.snap = snapshotAt("100.00")
		ingestAll(t, a, "180")

		state := a.State()
		assert.Zero(t, a.PendingReadings())
		assert.True(t, decimal.NewFromInt(8).Equal(state.LifetimeTotal), "got %s", state.LifetimeTotal)
		assert.True(t, decimal.NewFromInt(180).Equal(*state.LastCounterValue))
		assert.Equal(t, 1, store.SaveCalls)
	})

	t.Run("typical buyback rate", func(t *testing.T) {
		// 14.72 $/MWh at 90% buyback; 10 kWh exported.
		a := New(&mockPriceSource{snap: snapshotAt("14.72")}, &mockStore{}, decimal.RequireFromString("0.90"), nil)
		require.NoError(t, a.LoadState(ctx))

		ingestAll(t, a, "1000", "1010")

		want := decimal.RequireFromString("0.13248")
		assert.True(t, want.Equal(a.State().LifetimeTotal), "got %s", a.State().LifetimeTotal)
	})

	t.Run("negative price produces negative delta but is accepted", func(t *testing.T) {
		// Negative pricing is a legitimate market condition; exporting
		// during it costs money.
		a := New(&mockPriceSource{snap: snapshotAt("-10.00")}, &mockStore{}, decimal.RequireFromString("1"), nil)
		require.NoError(t, a.LoadState(ctx))

		ingestAll(t, a, "0", "100")

		want := decimal.RequireFromString("-1")
		assert.True(t, want.Equal(a.State().LifetimeTotal), "got %s", a.State().LifetimeTotal)
	})

	t.Run("negative reading is rejected", func(t *testing.T) {
		a := New(&mockPriceSource{snap: snapshotAt("100.00")}, &mockStore{}, decimal.RequireFromString("1"), nil)
		require.NoError(t, a.LoadState(ctx))

		err := a.Ingest(ctx, reading("-1"))
		assert.Error(t, err)
		assert.Zero(t, a.PendingReadings())
	})

	t.Run("state persists after each reconcile", func(t *testing.T) {
		store := &mockStore{}
		a := New(&mockPriceSource{snap: snapshotAt("100.00")}, store, decimal.RequireFromString("1"), nil)
		require.NoError(t, a.LoadState(ctx))

		ingestAll(t, a, "100", "150")

		require.Equal(t, 2, store.SaveCalls)
		last := store.saved[len(store.saved)-1]
		assert.True(t, decimal.NewFromInt(5).Equal(last.LifetimeTotal))
		assert.True(t, decimal.NewFromInt(150).Equal(*last.LastCounterValue))
	})

	t.Run("save failure surfaces", func(t *testing.T) {
		store := &mockStore{saveErr: errors.New("connection lost")}
		a := New(&mockPriceSource{snap: snapshotAt("100.00")}, store, decimal.RequireFromString("1"), nil)
		require.NoError(t, a.LoadState(ctx))

		err := a.Ingest(ctx, reading("100"))
		assert.Error(t, err)
	})
}

func TestAccumulatorLoadState(t *testing.T) {
	ctx := context.Background()

	t.Run("restores persisted state", func(t *testing.T) {
		last := decimal.NewFromInt(900)
		store := &mockStore{loaded: &models.EarningsState{
			LifetimeTotal:    decimal.RequireFromString("42.50"),
			LastCounterValue: &last,
		}}
		a := New(&mockPriceSource{snap: snapshotAt("100.00")}, store, decimal.RequireFromString("1"), nil)
		require.NoError(t, a.LoadState(ctx))

		// Restart continuity: the next reading prices only the new delta.
		ingestAll(t, a, "950")
		assert.True(t, decimal.RequireFromString("47.50").Equal(a.State().LifetimeTotal))
	})

	t.Run("fresh install starts from zero", func(t *testing.T) {
		a := New(&mockPriceSource{}, &mockStore{}, decimal.RequireFromString("1"), nil)
		require.NoError(t, a.LoadState(ctx))

		state := a.State()
		assert.True(t, state.LifetimeTotal.IsZero())
		assert.Nil(t, state.LastCounterValue)
	})

	t.Run("load failure surfaces", func(t *testing.T) {
		store := &mockStore{loadErr: errors.New("connection lost")}
		a := New(&mockPriceSource{}, store, decimal.RequireFromString("1"), nil)
		assert.Error(t, a.LoadState(ctx))
	})
}

func TestAccumulatorReset(t *testing.T) {
	ctx := context.Background()

	store := &mockStore{}
	a := New(&mockPriceSource{snap: snapshotAt("100.00")}, store, decimal.RequireFromString("1"), nil)
	require.NoError(t, a.LoadState(ctx))

	ingestAll(t, a, "100", "200")
	require.True(t, decimal.NewFromInt(10).Equal(a.State().LifetimeTotal))

	require.NoError(t, a.Reset(ctx))

	// Total zeroes but the baseline survives, so the next reading does not
	// re-price energy exported before the reset.
	state := a.State()
	assert.True(t, state.LifetimeTotal.IsZero())
	require.NotNil(t, state.LastCounterValue)
	assert.True(t, decimal.NewFromInt(200).Equal(*state.LastCounterValue))

	ingestAll(t, a, "250")
	assert.True(t, decimal.NewFromInt(5).Equal(a.State().LifetimeTotal))
}

func TestSellbackRate(t *testing.T) {
	rate := SellbackRate(decimal.RequireFromString("14.72"), decimal.RequireFromString("0.90"))
	assert.True(t, decimal.RequireFromString("0.013248").Equal(rate), "got %s", rate)

	rate = SellbackRate(decimal.NewFromInt(-1000), decimal.NewFromInt(1))
	assert.True(t, decimal.NewFromInt(-1).Equal(rate))
}
