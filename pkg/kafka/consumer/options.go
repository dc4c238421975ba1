package consumer

import "time"

type Option func(*Consumer)

func ConnAttempts(attempts int) Option {
	return func(c *Consumer) {
		c.connAttempts = attempts
	}
}

func ConnTimeout(timeout time.Duration) Option {
	return func(c *Consumer) {
		c.connTimeout = timeout
	}
}

// MaxWait bounds how long a fetch waits for MinBytes to accumulate.
func MaxWait(wait time.Duration) Option {
	return func(c *Consumer) {
		c.maxWait = wait
	}
}

func FetchBytes(minBytes, maxBytes int) Option {
	return func(c *Consumer) {
		c.minBytes = minBytes
		c.maxBytes = maxBytes
	}
}
