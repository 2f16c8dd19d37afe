package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/gtanker/ercot-spp-sellback/internal/models"
)

// Producer handles publishing price and earnings events to Kafka
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Producer{
		writer: writer,
		topic:  topic,
	}
}

// PublishPriceUpdated publishes a price updated event after a successful poll
func (p *Producer) PublishPriceUpdated(ctx context.Context, snap *models.Snapshot) error {
	event := models.PriceEvent{
		EventType: models.EventPriceUpdated,
		Snapshot:  snap,
		Zone:      snap.Record.Zone,
		Timestamp: time.Now(),
	}
	return p.publish(ctx, string(snap.Record.Zone), event)
}

// PublishEarningsUpdated publishes an earnings updated event after a reconcile
func (p *Producer) PublishEarningsUpdated(ctx context.Context, state models.EarningsState, deltaKWh, deltaEarnings decimal.Decimal) error {
	event := models.EarningsEvent{
		EventType:     models.EventEarningsUpdated,
		State:         state,
		DeltaKWh:      deltaKWh.String(),
		DeltaEarnings: deltaEarnings.String(),
		Timestamp:     time.Now(),
	}
	return p.publish(ctx, models.EventEarningsUpdated, event)
}

func (p *Producer) publish(ctx context.Context, key string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message to kafka: %w", err)
	}

	return nil
}

// Close closes the Kafka producer
func (p *Producer) Close() error {
	return p.writer.Close()
}
