package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"
)

// ResponsePublisher emits generation outcomes onto the response topic with
// request_id and status message attributes for broker-side filtering.
type ResponsePublisher struct {
	publisher message.Publisher
	topic     string
	logger    zerolog.Logger
}

// NewResponsePublisher wires a publisher for the given topic.
func NewResponsePublisher(publisher message.Publisher, topic string, logger zerolog.Logger) *ResponsePublisher {
	return &ResponsePublisher{publisher: publisher, topic: topic, logger: logger}
}

// Publish serializes and emits one outcome event.
func (p *ResponsePublisher) Publish(ctx context.Context, response GenerationResponse) error {
	payload, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("serialize response: %w", err)
	}

	msg := message.NewMessage(NewULID(), payload)
	msg.Metadata.Set("request_id", response.RequestID)
	msg.Metadata.Set("status", response.Status)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("publish response: %w", err)
	}

	p.logger.Info().
		Str("request_id", response.RequestID).
		Str("status", response.Status).
		Str("topic", p.topic).
		Msg("broker: response published")
	return nil
}
