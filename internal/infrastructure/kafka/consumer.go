package kafka

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andreyxaxa/Frame-Ingest/internal/infrastructure"
	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
)

const (
	_defaultBatchSize            = 10
	_defaultBatchLinger          = 500 * time.Millisecond
	_defaultMaxHeld              = 1000
	_defaultMaxAttempts          = 5
	_defaultRetryInitialInterval = time.Second
	_defaultRetryMaxInterval     = 5 * time.Minute
	_defaultRepublishAttempts    = 3
	_defaultDeadLetterSuffix     = ".dlq"
)

// MessageReader is satisfied by *kafka.Reader.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// JobConsumer delivers frame jobs in batches. A retried job is re-published
// to its topic with the next attempt number and a not-before time; after
// maxAttempts it goes to the dead-letter topic instead.
//
// Messages that are not yet due, and messages whose re-publish failed, are
// held in memory and handed out again by a later ReceiveBatch. The committed
// offset of a partition never moves past a held message.
type JobConsumer struct {
	reader MessageReader
	writer MessageWriter

	deadLetterTopic      string
	batchSize            int
	batchLinger          time.Duration
	maxHeld              int
	maxAttempts          int
	retryInitialInterval time.Duration
	retryMaxInterval     time.Duration
	republishBackoff     func() backoff.BackOff

	now func() time.Time

	mu        sync.Mutex
	held      []kafka.Message
	resolved  map[partitionKey]int64
	committed map[partitionKey]int64
}

func NewJobConsumer(reader MessageReader, writer MessageWriter, topic string, opts ...ConsumerOption) *JobConsumer {
	c := &JobConsumer{
		reader:               reader,
		writer:               writer,
		deadLetterTopic:      topic + _defaultDeadLetterSuffix,
		batchSize:            _defaultBatchSize,
		batchLinger:          _defaultBatchLinger,
		maxHeld:              _defaultMaxHeld,
		maxAttempts:          _defaultMaxAttempts,
		retryInitialInterval: _defaultRetryInitialInterval,
		retryMaxInterval:     _defaultRetryMaxInterval,
		now:                  time.Now,
		resolved:             make(map[partitionKey]int64),
		committed:            make(map[partitionKey]int64),
	}

	c.republishBackoff = func() backoff.BackOff {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = 100 * time.Millisecond
		return backoff.WithMaxRetries(b, _defaultRepublishAttempts)
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ReceiveBatch returns due held messages first, then fresh ones gathered for
// at most batchLinger. It blocks until at least one message is due.
func (c *JobConsumer) ReceiveBatch(ctx context.Context) (infrastructure.Batch, error) {
	var msgs []kafka.Message

	for len(msgs) == 0 {
		msgs = c.takeDue(c.batchSize)
		if len(msgs) > 0 {
			break
		}

		msg, ok, err := c.fetchDue(ctx)
		if err != nil {
			return nil, fmt.Errorf("JobConsumer - ReceiveBatch - c.fetchDue: %w", err)
		}
		if ok {
			msgs = append(msgs, msg)
		}
	}

	lingerCtx, lingerCancel := context.WithTimeout(ctx, c.batchLinger)
	for len(msgs) < c.batchSize && !c.full() {
		msg, err := c.reader.FetchMessage(lingerCtx)
		if err != nil {
			break
		}

		if c.isDue(msg) {
			msgs = append(msgs, msg)
		} else {
			c.hold(msg)
		}
	}
	lingerCancel()

	b := &jobBatch{
		consumer: c,
		messages: make([]*jobMessage, 0, len(msgs)),
	}
	for _, msg := range msgs {
		b.messages = append(b.messages, &jobMessage{consumer: c, msg: msg})
	}

	return b, nil
}

// fetchDue reads one fresh message. It reports false when the message was
// held or when a held message came due while waiting.
func (c *JobConsumer) fetchDue(ctx context.Context) (kafka.Message, bool, error) {
	wait, held := c.nextDue()

	if held && c.full() {
		timer := time.NewTimer(wait)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return kafka.Message{}, false, ctx.Err()
		case <-timer.C:
			return kafka.Message{}, false, nil
		}
	}

	fetchCtx, cancel := ctx, context.CancelFunc(func() {})
	if held {
		fetchCtx, cancel = context.WithTimeout(ctx, wait)
	}
	defer cancel()

	msg, err := c.reader.FetchMessage(fetchCtx)
	if err != nil {
		if ctx.Err() == nil && fetchCtx.Err() != nil {
			return kafka.Message{}, false, nil
		}

		return kafka.Message{}, false, fmt.Errorf("c.reader.FetchMessage: %w", err)
	}

	if !c.isDue(msg) {
		c.hold(msg)

		return kafka.Message{}, false, nil
	}

	return msg, true, nil
}

func (c *JobConsumer) isDue(msg kafka.Message) bool {
	return !notBeforeOf(msg).After(c.now())
}

func (c *JobConsumer) hold(msg kafka.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.held = append(c.held, msg)
}

func (c *JobConsumer) full() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.held) >= c.maxHeld
}

// takeDue removes up to limit due messages from the held set.
func (c *JobConsumer) takeDue(limit int) []kafka.Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	var due []kafka.Message
	rest := c.held[:0]

	for _, msg := range c.held {
		if len(due) < limit && c.isDue(msg) {
			due = append(due, msg)
			continue
		}
		rest = append(rest, msg)
	}

	clear(c.held[len(rest):])
	c.held = rest

	return due
}

// nextDue returns how long until the earliest held message is due.
func (c *JobConsumer) nextDue() (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.held) == 0 {
		return 0, false
	}

	earliest := notBeforeOf(c.held[0])
	for _, msg := range c.held[1:] {
		if nb := notBeforeOf(msg); nb.Before(earliest) {
			earliest = nb
		}
	}

	return max(earliest.Sub(c.now()), 0), true
}

// settle records the outcome of a batch and returns the offsets that may be
// committed. Unresolved messages are held for redelivery.
func (c *JobConsumer) settle(messages []*jobMessage) []kafka.Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, m := range messages {
		k := partitionKey{m.msg.Topic, m.msg.Partition}

		if !m.resolved.Load() {
			c.held = append(c.held, m.msg)
			continue
		}

		if last, ok := c.resolved[k]; !ok || m.msg.Offset > last {
			c.resolved[k] = m.msg.Offset
		}
	}

	floors := make(map[partitionKey]int64)
	for _, msg := range c.held {
		k := partitionKey{msg.Topic, msg.Partition}
		if f, ok := floors[k]; !ok || msg.Offset < f {
			floors[k] = msg.Offset
		}
	}

	var commits []kafka.Message

	for k, offset := range c.resolved {
		if f, ok := floors[k]; ok && offset >= f {
			offset = f - 1
		}

		if last, ok := c.committed[k]; ok && offset <= last {
			continue
		}

		commits = append(commits, kafka.Message{Topic: k.topic, Partition: k.partition, Offset: offset})
	}

	sort.Slice(commits, func(i, j int) bool {
		if commits[i].Topic != commits[j].Topic {
			return commits[i].Topic < commits[j].Topic
		}
		return commits[i].Partition < commits[j].Partition
	})

	return commits
}

func (c *JobConsumer) markCommitted(commits []kafka.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, msg := range commits {
		c.committed[partitionKey{msg.Topic, msg.Partition}] = msg.Offset
	}
}

// retryDelay is the wait before the given attempt is redelivered.
func (c *JobConsumer) retryDelay(attempt int) time.Duration {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInitialInterval
	b.MaxInterval = c.retryMaxInterval
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()

	delay := b.InitialInterval
	for i := 0; i < attempt; i++ {
		delay = b.NextBackOff()
	}

	return delay
}

func (c *JobConsumer) republish(ctx context.Context, msg kafka.Message) error {
	return backoff.Retry(func() error {
		return c.writer.WriteMessages(ctx, msg)
	}, backoff.WithContext(c.republishBackoff(), ctx))
}

func (c *JobConsumer) Close() error {
	var closeErrors []error

	if err := c.reader.Close(); err != nil {
		closeErrors = append(closeErrors, fmt.Errorf("JobConsumer - Close - c.reader.Close: %w", err))
	}

	if err := c.writer.Close(); err != nil {
		closeErrors = append(closeErrors, fmt.Errorf("JobConsumer - Close - c.writer.Close: %w", err))
	}

	return errors.Join(closeErrors...)
}

type jobMessage struct {
	consumer *JobConsumer
	msg      kafka.Message
	resolved atomic.Bool
}

func (m *jobMessage) Body() []byte {
	return m.msg.Value
}

func (m *jobMessage) Ack(_ context.Context) error {
	m.resolved.Store(true)

	return nil
}

// Retry schedules another delivery. The message stays unresolved when the
// re-publish fails, and Settle holds it for the next batch.
func (m *jobMessage) Retry(ctx context.Context) error {
	c := m.consumer
	attempt := attemptOf(m.msg)

	next := kafka.Message{
		Key:   m.msg.Key,
		Value: m.msg.Value,
	}

	if attempt >= c.maxAttempts {
		next.Topic = c.deadLetterTopic
		next.Headers = attemptHeaders(attempt, time.Time{})
	} else {
		next.Topic = m.msg.Topic
		next.Headers = attemptHeaders(attempt+1, c.now().Add(c.retryDelay(attempt)))
	}

	err := c.republish(ctx, next)
	if err != nil {
		return fmt.Errorf("JobConsumer - Retry - c.republish to %s: %w", next.Topic, err)
	}

	m.resolved.Store(true)

	return nil
}

type partitionKey struct {
	topic     string
	partition int
}

type jobBatch struct {
	consumer *JobConsumer
	messages []*jobMessage
}

func (b *jobBatch) Messages() []infrastructure.Message {
	res := make([]infrastructure.Message, 0, len(b.messages))
	for _, m := range b.messages {
		res = append(res, m)
	}

	return res
}

// Settle commits, per partition, the highest resolved offset below every
// held message of that partition.
func (b *jobBatch) Settle(ctx context.Context) error {
	commits := b.consumer.settle(b.messages)
	if len(commits) == 0 {
		return nil
	}

	err := b.consumer.reader.CommitMessages(ctx, commits...)
	if err != nil {
		return fmt.Errorf("JobConsumer - Settle - reader.CommitMessages: %w", err)
	}

	b.consumer.markCommitted(commits)

	return nil
}
