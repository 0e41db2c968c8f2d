package notifier

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_DiscardsStaleLeftover(t *testing.T) {
	channel := NewMemoryChannel()

	// Leftover from a previous, unrelated attempt.
	require.NoError(t, channel.Publish(context.Background(), Outcome{Success: true, OrderID: "old", Timestamp: 100}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	watcher, err := NewWatcher(ctx, channel, 200)
	require.NoError(t, err)

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer waitCancel()
	_, err = watcher.Next(waitCtx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWatcher_ActsOnlyOnNewestWrite(t *testing.T) {
	channel := NewMemoryChannel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	watcher, err := NewWatcher(ctx, channel, 0)
	require.NoError(t, err)

	require.NoError(t, channel.Publish(context.Background(), Outcome{Success: false, OrderID: "first", Timestamp: 100}))
	require.NoError(t, channel.Publish(context.Background(), Outcome{Success: true, OrderID: "second", Timestamp: 200}))

	outcome, err := watcher.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "second", outcome.OrderID)
	assert.Equal(t, int64(200), outcome.Timestamp)

	// A write replayed out of order is fenced off.
	require.NoError(t, channel.Publish(context.Background(), Outcome{Success: false, OrderID: "replay", Timestamp: 150}))

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer waitCancel()
	_, err = watcher.Next(waitCtx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWatcher_DeliversFreshWrite(t *testing.T) {
	channel := NewMemoryChannel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	watcher, err := NewWatcher(ctx, channel, 0)
	require.NoError(t, err)

	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = channel.Publish(context.Background(), Outcome{
			Success:          true,
			OrderID:          "db-id-1",
			GatewayOrderID:   "order_abc123",
			GatewayPaymentID: "pay_xyz789",
			Timestamp:        time.Now().UnixMilli(),
		})
	}()

	outcome, err := watcher.Next(context.Background())
	require.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.Equal(t, "db-id-1", outcome.OrderID)
	assert.Equal(t, "pay_xyz789", outcome.GatewayPaymentID)
}

func TestPublisher_FailureParity(t *testing.T) {
	channel := NewMemoryChannel()
	publisher := NewPublisher(channel)

	before := time.Now().UnixMilli()
	require.NoError(t, publisher.AnnounceFailure(context.Background(), "db-id-1", "order_abc123", ""))

	last, ok := channel.Last()
	require.True(t, ok)
	assert.False(t, last.Success)
	assert.Equal(t, "db-id-1", last.OrderID)
	assert.Equal(t, "order_abc123", last.GatewayOrderID)
	assert.GreaterOrEqual(t, last.Timestamp, before)

	// The full field set is always written, success or not.
	fields := last.fields()
	for _, key := range []string{KeySuccess, KeyOrderID, KeyPaymentID, KeyGatewayOrderID, KeyTimestamp} {
		_, present := fields[key]
		assert.True(t, present, key)
	}
	assert.Equal(t, "false", fields[KeySuccess])
}

func TestPublisher_SuccessFallsBackToCapabilityOrderID(t *testing.T) {
	channel := NewMemoryChannel()
	publisher := NewPublisher(channel)

	require.NoError(t, publisher.AnnounceSuccess(context.Background(), "", "fallback-id", "order_abc123", "pay_xyz789"))

	last, ok := channel.Last()
	require.True(t, ok)
	assert.True(t, last.Success)
	assert.Equal(t, "fallback-id", last.OrderID)
}

func TestPublisher_WaitsOutGracePeriod(t *testing.T) {
	channel := NewMemoryChannel()
	publisher := NewPublisher(channel)

	start := time.Now()
	require.NoError(t, publisher.Announce(context.Background(), Outcome{Success: true, Timestamp: 1}))
	assert.GreaterOrEqual(t, time.Since(start), propagationGrace)
}

func TestOutcomeFields_RoundTrip(t *testing.T) {
	outcome := Outcome{
		Success:          true,
		OrderID:          "db-id-1",
		GatewayPaymentID: "pay_xyz789",
		GatewayOrderID:   "order_abc123",
		Timestamp:        42,
	}

	parsed, ok := outcomeFromFields(outcome.fields())
	require.True(t, ok)
	assert.Equal(t, outcome, parsed)

	_, ok = outcomeFromFields(map[string]string{})
	assert.False(t, ok)
}
