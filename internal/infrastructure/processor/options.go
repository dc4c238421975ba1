package processor

import (
	"time"

	"golang.org/x/time/rate"
)

type Option func(*HTTPProcessor)

func Timeout(timeout time.Duration) Option {
	return func(p *HTTPProcessor) {
		p.client.Timeout = timeout
	}
}

// RateLimit caps outbound calls per second. Zero or less disables the limit.
func RateLimit(perSecond float64, burst int) Option {
	return func(p *HTTPProcessor) {
		if perSecond <= 0 {
			return
		}
		if burst < 1 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}
