// Package notifier carries the terminal payment outcome from the context
// that hosted the payment widget back to the context that initiated the
// purchase. The two may be different windows with no direct message channel;
// all they share is this broadcast channel.
package notifier

import (
	"context"
	"strconv"
)

// Field names on the shared channel. Watchers key off paymentTimestamp as a
// fencing token.
const (
	KeySuccess        = "paymentSuccess"
	KeyOrderID        = "paymentOrderId"
	KeyPaymentID      = "razorpayPaymentId"
	KeyGatewayOrderID = "razorpayOrderId"
	KeyTimestamp      = "paymentTimestamp"
)

// Outcome is one terminal result of a payment attempt. Every abnormal exit
// (dismissed widget, widget load failure, any error while handling the
// callback) still produces a full Outcome with Success false, so a watcher
// never blocks on an outcome that silently vanished.
type Outcome struct {
	Success          bool   `json:"paymentSuccess"`
	OrderID          string `json:"paymentOrderId"`
	GatewayPaymentID string `json:"razorpayPaymentId"`
	GatewayOrderID   string `json:"razorpayOrderId"`
	Timestamp        int64  `json:"paymentTimestamp"` // unix milliseconds
}

func (o Outcome) fields() map[string]string {
	return map[string]string{
		KeySuccess:        strconv.FormatBool(o.Success),
		KeyOrderID:        o.OrderID,
		KeyPaymentID:      o.GatewayPaymentID,
		KeyGatewayOrderID: o.GatewayOrderID,
		KeyTimestamp:      strconv.FormatInt(o.Timestamp, 10),
	}
}

func outcomeFromFields(fields map[string]string) (Outcome, bool) {
	raw, ok := fields[KeyTimestamp]
	if !ok {
		return Outcome{}, false
	}
	ts, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || ts == 0 {
		return Outcome{}, false
	}
	return Outcome{
		Success:          fields[KeySuccess] == "true",
		OrderID:          fields[KeyOrderID],
		GatewayPaymentID: fields[KeyPaymentID],
		GatewayOrderID:   fields[KeyGatewayOrderID],
		Timestamp:        ts,
	}, true
}

// Channel is the shared single-producer broadcast channel both browsing
// contexts can reach. Publish overwrites the full field set; Subscribe
// replays whatever is already on the channel (watchers fence it out if
// stale) and then streams new writes until ctx is done.
type Channel interface {
	Publish(ctx context.Context, outcome Outcome) error
	Subscribe(ctx context.Context) (<-chan Outcome, error)
}
