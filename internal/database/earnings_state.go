package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gtanker/ercot-spp-sellback/internal/models"
)

// The earnings state is a single row keyed by a fixed id: one accumulator,
// one lifetime total, one counter baseline. The accumulator is the only
// writer.
const earningsStateID = 1

// SaveEarningsState upserts the accumulator state
func (db *DB) SaveEarningsState(ctx context.Context, state *models.EarningsState) error {
	query := `
		INSERT INTO earnings_state (id, lifetime_total, last_counter_value, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			lifetime_total = EXCLUDED.lifetime_total,
			last_counter_value = EXCLUDED.last_counter_value,
			updated_at = EXCLUDED.updated_at
	`
	var lastCounter sql.NullString
	if state.LastCounterValue != nil {
		lastCounter = sql.NullString{String: state.LastCounterValue.String(), Valid: true}
	}

	updatedAt := state.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	_, err := db.conn.ExecContext(ctx, query,
		earningsStateID, state.LifetimeTotal, lastCounter, updatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save earnings state: %w", err)
	}
	return nil
}

// LoadEarningsState retrieves the persisted accumulator state.
// Returns (nil, nil) when no state has ever been saved.
func (db *DB) LoadEarningsState(ctx context.Context) (*models.EarningsState, error) {
	query := `
		SELECT lifetime_total, last_counter_value, updated_at
		FROM earnings_state
		WHERE id = $1
	`
	var state models.EarningsState
	var lastCounter sql.NullString

	err := db.conn.QueryRowContext(ctx, query, earningsStateID).Scan(
		&state.LifetimeTotal, &lastCounter, &state.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load earnings state: %w", err)
	}

	if lastCounter.Valid {
		v, err := decimal.NewFromString(lastCounter.String)
		if err != nil {
			return nil, fmt.Errorf("corrupt last_counter_value %q: %w", lastCounter.String, err)
		}
		state.LastCounterValue = &v
	}
	return &state, nil
}
