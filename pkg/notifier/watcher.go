package notifier

import (
	"context"

	"github.com/pkg/errors"
)

var ErrChannelClosed = errors.New("notifier channel closed")

// Watcher consumes outcomes for the context that initiated the purchase. It
// treats the timestamp as a fencing token: writes at or before the last
// consumed timestamp are leftovers from an earlier, unrelated attempt and
// are discarded.
type Watcher struct {
	updates <-chan Outcome
	last    int64
}

// NewWatcher subscribes to the channel. since is the fencing floor; pass the
// moment the payment attempt started so stale values left on the channel by
// a previous attempt are ignored.
func NewWatcher(ctx context.Context, channel Channel, since int64) (*Watcher, error) {
	updates, err := channel.Subscribe(ctx)
	if err != nil {
		return nil, err
	}
	return &Watcher{updates: updates, last: since}, nil
}

// Next blocks until an outcome newer than the fencing floor arrives, or ctx
// expires. When several writes are already queued it returns only the newest
// one.
func (w *Watcher) Next(ctx context.Context) (Outcome, error) {
	for {
		select {
		case <-ctx.Done():
			return Outcome{}, ctx.Err()
		case outcome, ok := <-w.updates:
			if !ok {
				return Outcome{}, ErrChannelClosed
			}
			outcome, fresh := w.newest(outcome)
			if !fresh {
				continue
			}
			w.last = outcome.Timestamp
			return outcome, nil
		}
	}
}

// newest drains anything already queued and keeps the write with the highest
// timestamp, provided it beats the fence.
func (w *Watcher) newest(current Outcome) (Outcome, bool) {
	for {
		select {
		case next, ok := <-w.updates:
			if !ok {
				return current, current.Timestamp > w.last
			}
			if next.Timestamp > current.Timestamp {
				current = next
			}
		default:
			return current, current.Timestamp > w.last
		}
	}
}
