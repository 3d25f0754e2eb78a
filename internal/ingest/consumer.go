package ingest

import (
	"context"
	"encoding/json"
	"log"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"floatchat-be/pkg/embedding"
)

// Consumer drains rebuild requests from the event bus and runs them against
// the rebuilder, one at a time.
type Consumer struct {
	pubSub   *gochannel.GoChannel
	topic    string
	rebuild  *Rebuilder
	resolver *embedding.Resolver
	logger   *log.Logger
}

func NewConsumer(
	pubSub *gochannel.GoChannel,
	topic string,
	rebuild *Rebuilder,
	resolver *embedding.Resolver,
	logger *log.Logger,
) *Consumer {
	return &Consumer{
		pubSub:   pubSub,
		topic:    topic,
		rebuild:  rebuild,
		resolver: resolver,
		logger:   logger,
	}
}

// Consume subscribes to the rebuild topic and processes messages until ctx
// is cancelled.
func (c *Consumer) Consume(ctx context.Context) error {
	messages, err := c.pubSub.Subscribe(ctx, c.topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			c.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (c *Consumer) processMessage(ctx context.Context, msg *message.Message) {
	var req RebuildRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		c.logger.Printf("[INGEST] Dropping malformed rebuild request: %v", err)
		msg.Ack() // not retriable; acking avoids an infinite redelivery loop
		return
	}

	c.logger.Printf("[INGEST] Rebuild %s started (reason: %s)", req.RequestID, req.Reason)

	if err := c.rebuild.Rebuild(ctx, c.resolver.ActiveProvider()); err != nil {
		c.logger.Printf("[INGEST] Rebuild %s failed: %v", req.RequestID, err)
		msg.Nack()
		return
	}

	c.logger.Printf("[INGEST] Rebuild %s completed", req.RequestID)
	msg.Ack()
}
