package notifier

import (
	"context"
	"sync"
)

// MemoryChannel is an in-process Channel for tests and single-process
// deployments. It mirrors RedisChannel's behavior: the last write is
// retained and replayed to new subscribers.
type MemoryChannel struct {
	mu          sync.Mutex
	last        Outcome
	hasLast     bool
	subscribers []chan Outcome
}

func NewMemoryChannel() *MemoryChannel {
	return &MemoryChannel{}
}

func (c *MemoryChannel) Publish(_ context.Context, outcome Outcome) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = outcome
	c.hasLast = true
	for _, sub := range c.subscribers {
		select {
		case sub <- outcome:
		default: // slow subscriber, it will catch up from a later write
		}
	}
	return nil
}

func (c *MemoryChannel) Subscribe(ctx context.Context) (<-chan Outcome, error) {
	sub := make(chan Outcome, 16)

	c.mu.Lock()
	if c.hasLast {
		sub <- c.last
	}
	c.subscribers = append(c.subscribers, sub)
	c.mu.Unlock()

	go func() {
		<-ctx.Done()
		c.mu.Lock()
		for i, s := range c.subscribers {
			if s == sub {
				c.subscribers = append(c.subscribers[:i], c.subscribers[i+1:]...)
				break
			}
		}
		c.mu.Unlock()
	}()
	return sub, nil
}

// Last returns the retained write, if any.
func (c *MemoryChannel) Last() (Outcome, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last, c.hasLast
}
