package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gtanker/ercot-spp-sellback/internal/models"
)

// Only the single last-known snapshot is kept; each successful poll
// replaces it. Full price history is out of scope for this service.
const snapshotID = 1

// SaveSnapshot upserts the last successfully published price snapshot so a
// restart can serve a price before the first poll completes.
func (db *DB) SaveSnapshot(ctx context.Context, snap *models.Snapshot) error {
	query := `
		INSERT INTO price_snapshot (
			id, zone, price_mwh, interval_date, interval_time, source_updated, fetched_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			zone = EXCLUDED.zone,
			price_mwh = EXCLUDED.price_mwh,
			interval_date = EXCLUDED.interval_date,
			interval_time = EXCLUDED.interval_time,
			source_updated = EXCLUDED.source_updated,
			fetched_at = EXCLUDED.fetched_at
	`
	_, err := db.conn.ExecContext(ctx, query,
		snapshotID, string(snap.Record.Zone), snap.Record.PriceMWh,
		snap.Record.IntervalDate, snap.Record.IntervalTime,
		snap.SourceUpdated, snap.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save price snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot retrieves the last persisted price snapshot.
// Returns (nil, nil) when none has ever been saved.
func (db *DB) LoadSnapshot(ctx context.Context) (*models.Snapshot, error) {
	query := `
		SELECT zone, price_mwh, interval_date, interval_time, source_updated, fetched_at
		FROM price_snapshot
		WHERE id = $1
	`
	var snap models.Snapshot
	var zone string
	var sourceUpdated sql.NullString

	err := db.conn.QueryRowContext(ctx, query, snapshotID).Scan(
		&zone, &snap.Record.PriceMWh, &snap.Record.IntervalDate,
		&snap.Record.IntervalTime, &sourceUpdated, &snap.FetchedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load price snapshot: %w", err)
	}

	snap.Record.Zone = models.Zone(zone)
	if sourceUpdated.Valid {
		snap.SourceUpdated = sourceUpdated.String
	}
	return &snap, nil
}
