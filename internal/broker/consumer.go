package broker

import (
	"context"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"docgen/internal/domain"
	"docgen/internal/pipeline"
)

// Orchestrator is the slice of the pipeline the consumer needs.
type Orchestrator interface {
	Process(ctx context.Context, req pipeline.Request) (*pipeline.Result, error)
}

// Consumer pulls generation requests from one subscription and dispatches
// each to the orchestrator on its own goroutine, bounded by a weighted
// semaphore. It runs until the context is cancelled; in-flight messages
// finish processing before Run returns.
type Consumer struct {
	subscriber message.Subscriber
	publisher  *ResponsePublisher
	pipeline   Orchestrator
	topic      string
	backoff    time.Duration
	sem        *semaphore.Weighted
	logger     zerolog.Logger
}

// NewConsumer wires the consumption loop. maxConcurrent caps in-flight
// messages across the whole loop.
func NewConsumer(
	subscriber message.Subscriber,
	publisher *ResponsePublisher,
	orchestrator Orchestrator,
	topic string,
	maxConcurrent int,
	backoff time.Duration,
	logger zerolog.Logger,
) *Consumer {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Consumer{
		subscriber: subscriber,
		publisher:  publisher,
		pipeline:   orchestrator,
		topic:      topic,
		backoff:    backoff,
		sem:        semaphore.NewWeighted(int64(maxConcurrent)),
		logger:     logger,
	}
}

// Run consumes messages until ctx is cancelled. A broker-level receive error
// pauses for the configured backoff and re-opens the subscription; payload
// and job errors never abort the loop.
func (c *Consumer) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	c.logger.Info().Str("topic", c.topic).Msg("consumer: started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		messages, err := c.subscriber.Subscribe(ctx, c.topic)
		if err != nil {
			c.logger.Error().Err(err).Dur("backoff", c.backoff).Msg("consumer: subscribe failed, backing off")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff):
			}
			continue
		}

		c.consume(ctx, messages, &wg)
	}
}

// consume drains the delivery channel until the subscriber closes it (on
// ctx cancellation or broker failure).
func (c *Consumer) consume(ctx context.Context, messages <-chan *message.Message, wg *sync.WaitGroup) {
	for msg := range messages {
		if err := c.sem.Acquire(ctx, 1); err != nil {
			// Shutting down: hand the message back for redelivery.
			msg.Nack()
			continue
		}
		wg.Add(1)
		go func(m *message.Message) {
			defer wg.Done()
			defer c.sem.Release(1)
			c.handle(ctx, m)
		}(msg)
	}
}

func (c *Consumer) handle(ctx context.Context, msg *message.Message) {
	// In-flight work runs to completion on shutdown; a job must never be
	// left mid-stage with no further writer.
	procCtx := context.WithoutCancel(ctx)

	logger := c.logger.With().Str("message_id", msg.UUID).Logger()
	logger.Info().Msg("consumer: processing message")

	req, err := DecodeRequest(msg.Payload)
	if err != nil {
		// Non-retryable: publish an error outcome under a generated id and
		// acknowledge, so a poison message never loops.
		logger.Error().Err(err).Msg("consumer: invalid request payload")
		c.publish(procCtx, logger, ErrorResponse(NewULID(), "Invalid request format: "+err.Error()))
		msg.Ack()
		return
	}

	result, err := c.pipeline.Process(procCtx, req)
	if err != nil {
		// The job's state could not be durably recorded; leave the message
		// unacknowledged so the broker redelivers it.
		logger.Error().Err(err).Msg("consumer: pipeline error, message will be redelivered")
		msg.Nack()
		return
	}

	c.publish(procCtx, logger, c.response(req, result))
	msg.Ack()
	logger.Info().Msg("consumer: message processed and acknowledged")
}

func (c *Consumer) publish(ctx context.Context, logger zerolog.Logger, response GenerationResponse) {
	if err := c.publisher.Publish(ctx, response); err != nil {
		logger.Error().Err(err).Str("request_id", response.RequestID).Msg("consumer: failed to publish response")
	}
}

// response maps a terminal pipeline result onto the outbound event.
func (c *Consumer) response(req pipeline.Request, result *pipeline.Result) GenerationResponse {
	requestID := NewULID()
	if req.CorrelationID != nil {
		requestID = req.CorrelationID.String()
	}

	doc := result.Document
	if doc.Status == domain.StatusFailed {
		message := "document generation failed"
		if doc.ErrorMessage != nil {
			message = *doc.ErrorMessage
		}
		return ErrorResponse(requestID, message)
	}

	documents := make([]GeneratedDocument, 0, len(result.Artifacts))
	for _, artifact := range result.Artifacts {
		documents = append(documents, GeneratedDocument{
			Format:    artifact.Format,
			FileName:  artifact.FileName,
			Reference: artifact.StoragePath,
		})
	}
	return SuccessResponse(requestID, documents)
}
