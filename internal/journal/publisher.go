package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ismaiel54/fix-trading-bot/internal/msg"
)

// Publisher drains the journal outbox to Kafka. Events stay in the outbox
// until a produce succeeds, so a broker outage delays publication but never
// loses an event.
type Publisher struct {
	store     *Store
	producer  *msg.Producer
	logger    *zap.Logger
	interval  time.Duration
	batchSize int
}

// NewPublisher creates an outbox publisher.
func NewPublisher(store *Store, producer *msg.Producer, logger *zap.Logger) *Publisher {
	return &Publisher{
		store:     store,
		producer:  producer,
		logger:    logger,
		interval:  250 * time.Millisecond,
		batchSize: 100,
	}
}

// Run drives the publisher loop until ctx is canceled.
func (p *Publisher) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.publishBatch(ctx); err != nil {
				p.logger.Error("failed to publish batch", zap.Error(err))
				// Retried on the next tick.
			}
		}
	}
}

func (p *Publisher) publishBatch(ctx context.Context) error {
	events, err := p.store.ListUnpublished(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("failed to list unpublished events: %w", err)
	}
	if len(events) == 0 {
		return nil
	}

	now := time.Now().UnixMilli()
	published := 0

	for _, event := range events {
		var orderEvent msg.OrderEventMsg
		if err := json.Unmarshal([]byte(event.PayloadJSON), &orderEvent); err != nil {
			p.logger.Error("failed to unmarshal event payload",
				zap.String("event_id", event.EventID),
				zap.Error(err),
			)
			continue
		}

		if err := p.producer.ProduceJSON(ctx, event.Topic, event.Key, orderEvent); err != nil {
			p.logger.Error("failed to produce event",
				zap.String("event_id", event.EventID),
				zap.String("cl_ord_id", event.ClOrdID),
				zap.Error(err),
			)
			continue
		}

		if err := p.store.MarkPublished(ctx, event.EventID, now); err != nil {
			p.logger.Error("failed to mark event as published",
				zap.String("event_id", event.EventID),
				zap.Error(err),
			)
			// Worst case the event is republished; consumers key on
			// event_id.
			continue
		}

		published++
		p.logger.Debug("published outbox event",
			zap.String("event_id", event.EventID),
			zap.String("cl_ord_id", event.ClOrdID),
		)
	}

	if published > 0 {
		p.logger.Info("published outbox batch",
			zap.Int("published", published),
			zap.Int("total", len(events)),
		)
	}

	return nil
}
