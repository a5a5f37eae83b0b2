package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/layer-3/nftgate/ports"
)

const (
	// LoginGrantedTopic carries a LoginGrantedEvent per issued session
	LoginGrantedTopic = "nftgate.login_granted"

	// PaymentVerifiedTopic carries a PaymentVerifiedEvent per accepted payment
	PaymentVerifiedTopic = "nftgate.payment_verified"
)

// LoginGrantedEvent represents a successful NFT login
type LoginGrantedEvent struct {
	Address      string    `json:"address"`
	TotalBalance string    `json:"total_balance"`
	GrantedAt    time.Time `json:"granted_at"`
}

// PaymentVerifiedEvent represents a payment that unlocked a call
type PaymentVerifiedEvent struct {
	TxHash     string    `json:"tx_hash"`
	Receiver   string    `json:"receiver"`
	Amount     string    `json:"amount"`
	VerifiedAt time.Time `json:"verified_at"`
}

// WatermillPublisher implements the EventPublisher interface using Watermill
type WatermillPublisher struct {
	publisher message.Publisher
	now       func() time.Time
}

// NewWatermillPublisher creates a new Watermill publisher
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{
		publisher: publisher,
		now:       time.Now,
	}
}

// PublishLoginGranted publishes a login event
func (p *WatermillPublisher) PublishLoginGranted(ctx context.Context, address string, totalBalance string) error {
	return p.publish(ctx, LoginGrantedTopic, LoginGrantedEvent{
		Address:      address,
		TotalBalance: totalBalance,
		GrantedAt:    p.now().UTC(),
	})
}

// PublishPaymentVerified publishes a payment event
func (p *WatermillPublisher) PublishPaymentVerified(ctx context.Context, txHash string, receiver string, amount string) error {
	return p.publish(ctx, PaymentVerifiedTopic, PaymentVerifiedEvent{
		TxHash:     txHash,
		Receiver:   receiver,
		Amount:     amount,
		VerifiedAt: p.now().UTC(),
	})
}

func (p *WatermillPublisher) publish(ctx context.Context, topic string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)
	msg.SetContext(ctx)

	if err := p.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
