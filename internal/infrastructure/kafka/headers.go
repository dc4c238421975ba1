package kafka

import (
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	HeaderAttempt   = "attempt"
	HeaderNotBefore = "not-before"
)

// attemptOf returns the delivery attempt recorded on msg, 1 when absent.
func attemptOf(msg kafka.Message) int {
	v, ok := header(msg, HeaderAttempt)
	if !ok {
		return 1
	}

	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 1
	}

	return n
}

// notBeforeOf returns the earliest time msg may be processed, zero when
// absent.
func notBeforeOf(msg kafka.Message) time.Time {
	v, ok := header(msg, HeaderNotBefore)
	if !ok {
		return time.Time{}
	}

	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}
	}

	return time.UnixMilli(ms)
}

func header(msg kafka.Message, key string) (string, bool) {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value), true
		}
	}

	return "", false
}

func attemptHeaders(attempt int, notBefore time.Time) []kafka.Header {
	headers := []kafka.Header{
		{Key: HeaderAttempt, Value: []byte(strconv.Itoa(attempt))},
	}

	if !notBefore.IsZero() {
		headers = append(headers, kafka.Header{
			Key:   HeaderNotBefore,
			Value: []byte(strconv.FormatInt(notBefore.UnixMilli(), 10)),
		})
	}

	return headers
}
