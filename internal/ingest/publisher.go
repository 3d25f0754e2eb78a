package ingest

import (
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// RebuildRequest asks the background consumer to rebuild the vector
// collection with the currently active embedding backend.
type RebuildRequest struct {
	RequestID   string    `json:"request_id"`
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requested_at"`
}

// Publisher enqueues rebuild requests onto the in-process event bus so HTTP
// handlers return immediately while the rebuild runs in the background.
type Publisher struct {
	pubSub *gochannel.GoChannel
	topic  string
}

func NewPublisher(pubSub *gochannel.GoChannel, topic string) *Publisher {
	return &Publisher{pubSub: pubSub, topic: topic}
}

func (p *Publisher) PublishRebuild(reason string) (string, error) {
	req := RebuildRequest{
		RequestID:   watermill.NewUUID(),
		Reason:      reason,
		RequestedAt: time.Now(),
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	msg := message.NewMessage(req.RequestID, payload)
	if err := p.pubSub.Publish(p.topic, msg); err != nil {
		return "", err
	}
	return req.RequestID, nil
}
