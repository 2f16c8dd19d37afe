// Command server runs the ERCOT settlement point price poller, the
// sellback earnings accumulator, and the read-only API over their
// published state.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gtanker/ercot-spp-sellback/internal/api"
	"github.com/gtanker/ercot-spp-sellback/internal/cache"
	"github.com/gtanker/ercot-spp-sellback/internal/config"
	"github.com/gtanker/ercot-spp-sellback/internal/database"
	"github.com/gtanker/ercot-spp-sellback/internal/earnings"
	"github.com/gtanker/ercot-spp-sellback/internal/ercot"
	"github.com/gtanker/ercot-spp-sellback/internal/kafka"
	"github.com/gtanker/ercot-spp-sellback/internal/poller"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "db/migrations"
	}
	if err := db.Migrate(migrationsPath); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// Redis snapshot cache; entries outlive a few missed polls, no more.
	snapCache := cache.NewSnapshotCache(
		cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
		3*cfg.Poller.Interval,
	)
	defer snapCache.Close()
	if err := snapCache.Ping(ctx); err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}

	// Kafka
	producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.EventsTopic)
	defer producer.Close()

	// Polling coordinator
	client := ercot.NewClient(cfg.Poller.SourceURL, cfg.Poller.FetchTimeout)
	coordinator := poller.New(client, cfg.Sellback.Zone, cfg.Poller.Interval, snapCache, producer)

	if snap, err := db.LoadSnapshot(ctx); err != nil {
		log.Printf("could not restore persisted snapshot: %v", err)
	} else if snap != nil {
		coordinator.Seed(snap)
		log.Printf("restored snapshot: zone=%s price=%s $/MWh fetched=%s",
			snap.Record.Zone, snap.Record.PriceMWh, snap.FetchedAt.Format(time.RFC3339))
	}

	// Earnings accumulator
	accumulator := earnings.New(coordinator, db, cfg.Sellback.Fraction, producer)
	if err := accumulator.LoadState(ctx); err != nil {
		log.Fatalf("failed to load earnings state: %v", err)
	}

	// Meter reading consumer
	meterConsumer := kafka.NewMeterConsumer(
		cfg.Kafka.Brokers, cfg.Kafka.MeterTopic, cfg.Kafka.MeterGroupID, accumulator,
	)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := coordinator.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("poller stopped: %v", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := meterConsumer.Start(ctx); err != nil && ctx.Err() == nil {
			log.Printf("meter consumer stopped: %v", err)
		}
	}()

	// Persist each published snapshot so a restart serves the last-known
	// price immediately.
	wg.Add(1)
	go func() {
		defer wg.Done()
		updates := coordinator.Subscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-updates:
				if err := db.SaveSnapshot(ctx, snap); err != nil {
					log.Printf("failed to persist snapshot: %v", err)
				}
			}
		}
	}()

	// HTTP API
	handler := api.NewHandler(coordinator, accumulator, cfg.Sellback.Fraction)
	server := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.Port,
		Handler: api.SetupRoutes(handler),
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("HTTP server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("shutdown complete")
}
