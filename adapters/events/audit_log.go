package events

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/sirupsen/logrus"
)

// Topics lists every topic the publisher writes to
var Topics = []string{LoginGrantedTopic, PaymentVerifiedTopic}

// RunAuditLog subscribes to all topics and writes each event to the log until ctx is done
func RunAuditLog(ctx context.Context, subscriber message.Subscriber, log logrus.FieldLogger) error {
	for _, topic := range Topics {
		messages, err := subscriber.Subscribe(ctx, topic)
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
		}
		go consume(topic, messages, log)
	}
	return nil
}

func consume(topic string, messages <-chan *message.Message, log logrus.FieldLogger) {
	for msg := range messages {
		log.WithFields(logrus.Fields{
			"topic":    topic,
			"event_id": msg.UUID,
			"payload":  string(msg.Payload),
		}).Info("audit event")
		msg.Ack()
	}
}
