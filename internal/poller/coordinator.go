package poller

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gtanker/ercot-spp-sellback/internal/ercot"
	"github.com/gtanker/ercot-spp-sellback/internal/models"
)

// Fetcher retrieves the raw source document. *ercot.Client implements it.
type Fetcher interface {
	FetchDocument(ctx context.Context) (string, error)
}

// SnapshotCache mirrors the latest snapshot into an external cache for
// out-of-process readers.
type SnapshotCache interface {
	SetSnapshot(ctx context.Context, snap *models.Snapshot) error
}

// EventPublisher publishes a price-updated event after each successful poll.
type EventPublisher interface {
	PublishPriceUpdated(ctx context.Context, snap *models.Snapshot) error
}

// Status describes the coordinator's health as seen by consumers. The worst
// observable condition in normal operation is staleness: LastSuccess ages
// past the poll interval while ConsecutiveFailures climbs.
type Status struct {
	Zone                models.Zone `json:"zone"`
	LastSuccess         time.Time   `json:"last_success"`
	ConsecutiveFailures int         `json:"consecutive_failures"`
	ZoneMismatch        bool        `json:"zone_mismatch"`
}

// Coordinator owns the fetch schedule. It fetches, parses, and extracts on
// a fixed interval, atomically replaces the published snapshot on success,
// and keeps serving the last good snapshot through any failure. There is no
// retry within a cycle; the next tick is the retry.
type Coordinator struct {
	fetcher  Fetcher
	zone     models.Zone
	interval time.Duration
	cache    SnapshotCache  // optional
	events   EventPublisher // optional

	mu           sync.RWMutex
	snapshot     *models.Snapshot
	lastSuccess  time.Time
	failures     int
	zoneMismatch bool
	subs         []chan *models.Snapshot

	now func() time.Time
}

// New creates a Coordinator. cache and events may be nil; the coordinator
// then only serves in-process readers and subscribers.
func New(fetcher Fetcher, zone models.Zone, interval time.Duration, cache SnapshotCache, events EventPublisher) *Coordinator {
	return &Coordinator{
		fetcher:  fetcher,
		zone:     zone,
		interval: interval,
		cache:    cache,
		events:   events,
		now:      time.Now,
	}
}

// Run polls once immediately, then on every tick until ctx is cancelled.
// The loop body blocks through the fetch, so a tick that fires while a
// fetch is still outstanding is dropped by the ticker rather than queued;
// at most one fetch is ever in flight.
func (c *Coordinator) Run(ctx context.Context) error {
	log.Printf("starting ERCOT poller: zone=%s interval=%s", c.zone, c.interval)

	c.pollOnce(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("ERCOT poller shutting down...")
			return ctx.Err()
		case <-ticker.C:
			c.pollOnce(ctx)
		}
	}
}

// pollOnce runs one full fetch/parse/extract/publish cycle. Every failure
// path is non-fatal: it is logged, counted, and superseded by the next
// successful cycle.
func (c *Coordinator) pollOnce(ctx context.Context) {
	doc, err := c.fetcher.FetchDocument(ctx)
	if err != nil {
		c.recordFailure(err)
		return
	}

	table, err := ercot.Parse(doc)
	if err != nil {
		c.recordFailure(err)
		return
	}

	record, err := ercot.Extract(table, c.zone)
	if err != nil {
		c.recordFailure(err)
		return
	}

	snap := &models.Snapshot{
		Record:        record,
		SourceUpdated: ercot.LastUpdated(doc),
		FetchedAt:     c.now(),
	}
	c.publish(ctx, snap)
}

// publish atomically replaces the served snapshot, resets the failure
// count, and fans the new snapshot out to the cache, the event topic, and
// in-process subscribers.
func (c *Coordinator) publish(ctx context.Context, snap *models.Snapshot) {
	c.mu.Lock()
	c.snapshot = snap
	c.lastSuccess = snap.FetchedAt
	c.failures = 0
	c.zoneMismatch = false
	subs := make([]chan *models.Snapshot, len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()

	log.Printf("published price: zone=%s price=%s $/MWh interval=%s %s",
		snap.Record.Zone, snap.Record.PriceMWh, snap.Record.IntervalDate, snap.Record.IntervalTime)

	if c.cache != nil {
		if err := c.cache.SetSnapshot(ctx, snap); err != nil {
			log.Printf("failed to cache snapshot: %v", err)
		}
	}
	if c.events != nil {
		if err := c.events.PublishPriceUpdated(ctx, snap); err != nil {
			log.Printf("failed to publish price event: %v", err)
		}
	}

	for _, ch := range subs {
		select {
		case ch <- snap:
		default: // never block publication on a slow subscriber
		}
	}
}

func (c *Coordinator) recordFailure(err error) {
	c.mu.Lock()
	c.failures++
	failures := c.failures
	// An unknown zone will fail every cycle until the configuration or the
	// zone table is corrected, so it latches a degraded-health flag instead
	// of blending into transient fetch noise.
	if errors.Is(err, models.ErrUnknownZone) {
		c.zoneMismatch = true
	}
	c.mu.Unlock()

	log.Printf("poll failed (consecutive failures: %d): %v", failures, err)
}

// Seed installs a previously persisted snapshot before Run starts, so a
// restarted process can serve its last-known price until the first poll
// completes. It does not count as a successful fetch and publishes nothing.
func (c *Coordinator) Seed(snap *models.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snapshot == nil {
		c.snapshot = snap
	}
}

// Snapshot returns the last successfully published snapshot. ok is false
// only before the first successful poll; fetch failures never clear a
// previously published snapshot.
func (c *Coordinator) Snapshot() (*models.Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot, c.snapshot != nil
}

// Status returns the coordinator's current health counters.
func (c *Coordinator) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Status{
		Zone:                c.zone,
		LastSuccess:         c.lastSuccess,
		ConsecutiveFailures: c.failures,
		ZoneMismatch:        c.zoneMismatch,
	}
}

// Subscribe returns a channel that receives newly published snapshots. The
// channel has a buffer of one and publications are dropped rather than
// queued when it is full; a subscriber that falls behind can always fall
// back to Snapshot for the current value.
func (c *Coordinator) Subscribe() <-chan *models.Snapshot {
	ch := make(chan *models.Snapshot, 1)
	c.mu.Lock()
	c.subs = append(c.subs, ch)
	c.mu.Unlock()
	return ch
}
