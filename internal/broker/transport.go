package broker

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-amqp/v3/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"

	"docgen/internal/infra"
)

// Transport combines the publisher and subscriber pair for the configured
// broker.
type Transport struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
}

// NewTransport builds the broker transport selected by config.
func NewTransport(cfg *infra.Config, logger watermill.LoggerAdapter) (Transport, error) {
	switch cfg.BrokerKind {
	case "amqp":
		return amqpTransport(cfg, logger)
	case "nats":
		return natsTransport(cfg, logger)
	default:
		return Transport{}, fmt.Errorf("unsupported broker kind %q", cfg.BrokerKind)
	}
}

func amqpTransport(cfg *infra.Config, logger watermill.LoggerAdapter) (Transport, error) {
	amqpConfig := amqp.NewDurablePubSubConfig(
		cfg.AMQPURL,
		amqp.GenerateQueueNameTopicNameWithSuffix("-"+cfg.ServiceName),
	)
	conn, err := amqp.NewConnection(amqp.ConnectionConfig{
		AmqpURI:   cfg.AMQPURL,
		Reconnect: amqp.DefaultReconnectConfig(),
	}, logger)
	if err != nil {
		return Transport{}, fmt.Errorf("connect amqp: %w", err)
	}

	publisher, err := amqp.NewPublisherWithConnection(amqpConfig, logger, conn)
	if err != nil {
		return Transport{}, fmt.Errorf("create amqp publisher: %w", err)
	}
	subscriber, err := amqp.NewSubscriberWithConnection(amqpConfig, logger, conn)
	if err != nil {
		return Transport{}, fmt.Errorf("create amqp subscriber: %w", err)
	}
	return Transport{Publisher: publisher, Subscriber: subscriber}, nil
}

func natsTransport(cfg *infra.Config, logger watermill.LoggerAdapter) (Transport, error) {
	marshaler := &nats.NATSMarshaler{}

	publisher, err := nats.NewPublisher(nats.PublisherConfig{
		URL:       cfg.NATSURL,
		Marshaler: marshaler,
	}, logger)
	if err != nil {
		return Transport{}, fmt.Errorf("create nats publisher: %w", err)
	}

	subscriber, err := nats.NewSubscriber(nats.SubscriberConfig{
		URL:         cfg.NATSURL,
		Unmarshaler: marshaler,
	}, logger)
	if err != nil {
		return Transport{}, fmt.Errorf("create nats subscriber: %w", err)
	}

	return Transport{Publisher: publisher, Subscriber: subscriber}, nil
}
