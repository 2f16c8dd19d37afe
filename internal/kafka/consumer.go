package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/gtanker/ercot-spp-sellback/internal/models"
)

// ReadingIngester receives meter readings for reconciliation. The earnings
// accumulator implements it.
type ReadingIngester interface {
	Ingest(ctx context.Context, reading models.CounterReading) error
}

// MeterConsumer consumes cumulative export readings from the meter topic.
// The meter pushes at its own cadence, independent of the price poll cycle.
type MeterConsumer struct {
	reader   *kafka.Reader
	ingester ReadingIngester
}

// NewMeterConsumer creates a new Kafka consumer for meter reading events
func NewMeterConsumer(brokers []string, topic, groupID string, ingester ReadingIngester) *MeterConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.LastOffset,
		CommitInterval: time.Second,
	})

	return &MeterConsumer{
		reader:   reader,
		ingester: ingester,
	}
}

// Start begins consuming messages from Kafka
func (c *MeterConsumer) Start(ctx context.Context) error {
	log.Printf("starting meter consumer for topic: %s", c.reader.Config().Topic)

	for {
		select {
		case <-ctx.Done():
			log.Println("meter consumer shutting down...")
			return c.reader.Close()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil // Context cancelled, normal shutdown
				}
				log.Printf("error reading message: %v", err)
				continue
			}

			if err := c.processMessage(ctx, msg); err != nil {
				log.Printf("error processing message: %v", err)
				// Continue processing other messages
			}
		}
	}
}

// processMessage handles a single meter event. Readings whose value is
// unknown or unavailable are treated as "no update this cycle": they are
// skipped without error so they cannot pose as a zero reading or trip the
// accumulator's reset heuristic.
func (c *MeterConsumer) processMessage(ctx context.Context, msg kafka.Message) error {
	var event models.MeterEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal meter event: %w", err)
	}

	if event.EventType != models.EventMeterReading {
		log.Printf("ignoring event type: %s", event.EventType)
		return nil
	}

	reading, ok, err := convertEventToReading(event)
	if err != nil {
		return err
	}
	if !ok {
		log.Printf("meter value unavailable from %s, skipping", event.Source)
		return nil
	}

	if err := c.ingester.Ingest(ctx, reading); err != nil {
		return fmt.Errorf("failed to ingest reading: %w", err)
	}

	log.Printf("ingested meter reading: %s kWh from %s", reading.ExportedKWh, event.Source)
	return nil
}

// convertEventToReading maps a MeterEvent to a CounterReading. ok is false
// for unavailable/unknown values.
func convertEventToReading(event models.MeterEvent) (models.CounterReading, bool, error) {
	raw := strings.TrimSpace(event.Data.ExportedKWh)
	switch strings.ToLower(raw) {
	case "", "unknown", "unavailable", "none":
		return models.CounterReading{}, false, nil
	}

	value, err := decimal.NewFromString(raw)
	if err != nil {
		return models.CounterReading{}, false, fmt.Errorf("invalid exported_kwh %q: %w", raw, err)
	}

	observedAt := time.Now()
	if event.Data.ObservedAt != nil && *event.Data.ObservedAt != "" {
		if t, err := time.Parse(time.RFC3339, *event.Data.ObservedAt); err == nil {
			observedAt = t
		}
	}

	return models.CounterReading{
		ExportedKWh: value,
		ObservedAt:  observedAt,
	}, true, nil
}

// Close closes the Kafka consumer
func (c *MeterConsumer) Close() error {
	return c.reader.Close()
}
