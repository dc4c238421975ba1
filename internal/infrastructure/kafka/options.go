package kafka

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

type ConsumerOption func(*JobConsumer)

func DeadLetterTopic(topic string) ConsumerOption {
	return func(c *JobConsumer) {
		if topic != "" {
			c.deadLetterTopic = topic
		}
	}
}

func BatchSize(size int) ConsumerOption {
	return func(c *JobConsumer) {
		if size > 0 {
			c.batchSize = size
		}
	}
}

func BatchLinger(linger time.Duration) ConsumerOption {
	return func(c *JobConsumer) {
		c.batchLinger = linger
	}
}

func MaxAttempts(attempts int) ConsumerOption {
	return func(c *JobConsumer) {
		if attempts > 0 {
			c.maxAttempts = attempts
		}
	}
}

func RetryInterval(initial, maxInterval time.Duration) ConsumerOption {
	return func(c *JobConsumer) {
		c.retryInitialInterval = initial
		c.retryMaxInterval = maxInterval
	}
}

// RepublishBackoff sets the policy for writing a retried message back to
// the broker.
func RepublishBackoff(factory func() backoff.BackOff) ConsumerOption {
	return func(c *JobConsumer) {
		c.republishBackoff = factory
	}
}

func Clock(now func() time.Time) ConsumerOption {
	return func(c *JobConsumer) {
		c.now = now
	}
}
