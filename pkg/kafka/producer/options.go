package producer

import "time"

type Option func(*Producer)

func ConnAttempts(attempts int) Option {
	return func(p *Producer) {
		p.connAttempts = attempts
	}
}

func ConnTimeout(timeout time.Duration) Option {
	return func(p *Producer) {
		p.connTimeout = timeout
	}
}

// BatchTimeout bounds how long a write waits for more messages before
// flushing. Ingest publishes one message per request, so keep it short.
func BatchTimeout(timeout time.Duration) Option {
	return func(p *Producer) {
		p.batchTimeout = timeout
	}
}

func WriteTimeout(timeout time.Duration) Option {
	return func(p *Producer) {
		p.writeTimeout = timeout
	}
}

func AllowAutoTopicCreation(allow bool) Option {
	return func(p *Producer) {
		p.autoTopics = allow
	}
}
