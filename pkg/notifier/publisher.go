package notifier

import (
	"context"
	"time"
)

// propagationGrace keeps the publishing side alive briefly after a write so
// the change notification reaches watchers before the channel disappears
// with its context.
const propagationGrace = 100 * time.Millisecond

type Publisher struct {
	channel Channel
	grace   time.Duration
}

func NewPublisher(channel Channel) *Publisher {
	return &Publisher{channel: channel, grace: propagationGrace}
}

// Announce stamps the outcome with a fresh fencing timestamp (unless the
// caller already set one) and publishes the full field set, then waits out
// the propagation grace period.
func (p *Publisher) Announce(ctx context.Context, outcome Outcome) error {
	if outcome.Timestamp == 0 {
		outcome.Timestamp = time.Now().UnixMilli()
	}
	if err := p.channel.Publish(ctx, outcome); err != nil {
		return err
	}

	select {
	case <-time.After(p.grace):
	case <-ctx.Done():
	}
	return nil
}

// AnnounceSuccess publishes a successful outcome. verifiedOrderID is
// preferred; when the verified response lacks one, the order id carried in
// the original capability token is used instead.
func (p *Publisher) AnnounceSuccess(ctx context.Context, verifiedOrderID, fallbackOrderID, gatewayOrderID, gatewayPaymentID string) error {
	orderID := verifiedOrderID
	if orderID == "" {
		orderID = fallbackOrderID
	}
	return p.Announce(ctx, Outcome{
		Success:          true,
		OrderID:          orderID,
		GatewayOrderID:   gatewayOrderID,
		GatewayPaymentID: gatewayPaymentID,
	})
}

// AnnounceFailure publishes the full field set with the success flag down.
// Called for every abnormal exit so watchers never wait forever.
func (p *Publisher) AnnounceFailure(ctx context.Context, orderID, gatewayOrderID, gatewayPaymentID string) error {
	return p.Announce(ctx, Outcome{
		Success:          false,
		OrderID:          orderID,
		GatewayOrderID:   gatewayOrderID,
		GatewayPaymentID: gatewayPaymentID,
	})
}
