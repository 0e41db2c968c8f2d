package notifier

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const (
	outcomeHashKey = "checkout:payment:outcome"
	outcomeChannel = "checkout:payment:events"
)

// RedisChannel is the production Channel: the outcome fields live in a hash
// both contexts can read, and pub/sub carries the change notification.
type RedisChannel struct {
	client *redis.Client
}

func NewRedisChannel(client *redis.Client) *RedisChannel {
	return &RedisChannel{client: client}
}

func (c *RedisChannel) Publish(ctx context.Context, outcome Outcome) error {
	if err := c.client.HSet(ctx, outcomeHashKey, outcome.fields()).Err(); err != nil {
		return errors.Wrap(err, "write outcome fields")
	}
	payload, err := json.Marshal(outcome)
	if err != nil {
		return errors.Wrap(err, "encode outcome")
	}
	if err := c.client.Publish(ctx, outcomeChannel, payload).Err(); err != nil {
		return errors.Wrap(err, "publish outcome")
	}
	return nil
}

func (c *RedisChannel) Subscribe(ctx context.Context) (<-chan Outcome, error) {
	sub := c.client.Subscribe(ctx, outcomeChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, errors.Wrap(err, "subscribe to outcome channel")
	}

	out := make(chan Outcome, 1)
	go func() {
		defer close(out)
		defer sub.Close()

		// Replay whatever is already on the channel; the watcher's fencing
		// rule discards it if it belongs to an earlier attempt.
		if fields, err := c.client.HGetAll(ctx, outcomeHashKey).Result(); err == nil {
			if outcome, ok := outcomeFromFields(fields); ok {
				select {
				case out <- outcome:
				case <-ctx.Done():
					return
				}
			}
		}

		messages := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var outcome Outcome
				if err := json.Unmarshal([]byte(msg.Payload), &outcome); err != nil {
					continue
				}
				select {
				case out <- outcome:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
