package ports

import "context"

// EventPublisher publishes audit events
type EventPublisher interface {
	PublishLoginGranted(ctx context.Context, address string, totalBalance string) error
	PublishPaymentVerified(ctx context.Context, txHash string, receiver string, amount string) error
}
