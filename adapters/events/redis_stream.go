package events

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

// Sink is the publishing side plus, for in-process delivery, the subscriber the audit log reads from
type Sink struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber // nil when events leave the process
	closers    []func() error
}

// Close releases the sink resources
func (s *Sink) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// NewInProcessSink delivers events over an in-memory Go channel
func NewInProcessSink(logger watermill.LoggerAdapter) *Sink {
	pubsub := gochannel.NewGoChannel(gochannel.Config{}, logger)
	return &Sink{
		Publisher:  pubsub,
		Subscriber: pubsub,
		closers:    []func() error{pubsub.Close},
	}
}

// NewRedisStreamSink appends events to Redis streams. Events are notifications
// only; nothing in this service reads them back.
func NewRedisStreamSink(ctx context.Context, redisURL string, logger watermill.LoggerAdapter) (*Sink, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to reach Redis: %w", err)
	}

	publisher, err := redisstream.NewPublisher(
		redisstream.PublisherConfig{
			Client: client,
		},
		logger,
	)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to create Redis publisher: %w", err)
	}

	return &Sink{
		Publisher: publisher,
		closers:   []func() error{publisher.Close, client.Close},
	}, nil
}
