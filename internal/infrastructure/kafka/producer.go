package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/andreyxaxa/Frame-Ingest/internal/entity"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type JobProducer struct {
	writer MessageWriter
	topic  string
}

func NewJobProducer(writer MessageWriter, topic string) *JobProducer {
	return &JobProducer{
		writer: writer,
		topic:  topic,
	}
}

func (p *JobProducer) Publish(ctx context.Context, job entity.FrameJob) entity.PublishResult {
	value, err := json.Marshal(entity.JobEnvelope{Body: job})
	if err != nil {
		return entity.PublishResult{
			Outcome: entity.Rejected,
			Err:     fmt.Errorf("JobProducer - Publish - json.Marshal: %w", err),
		}
	}

	msg := kafka.Message{
		Topic:   p.topic,
		Key:     []byte(job.Key),
		Value:   value,
		Headers: attemptHeaders(1, time.Time{}),
	}

	err = p.writer.WriteMessages(ctx, msg)
	if err != nil {
		return entity.PublishResult{
			Outcome: classify(err),
			Err:     fmt.Errorf("JobProducer - Publish - p.writer.WriteMessages: %w", err),
		}
	}

	return entity.PublishResult{Outcome: entity.Published}
}

func (p *JobProducer) Close() error {
	err := p.writer.Close()
	if err != nil {
		return fmt.Errorf("JobProducer - Close: %w", err)
	}

	return nil
}

// classify separates errors the broker answered with from errors reaching it.
func classify(err error) entity.PublishOutcome {
	var writeErrs kafka.WriteErrors
	if errors.As(err, &writeErrs) {
		for _, e := range writeErrs {
			if e != nil {
				err = e
				break
			}
		}
	}

	var (
		kafkaErr    kafka.Error
		tooLargeErr kafka.MessageTooLargeError
	)
	if errors.As(err, &kafkaErr) || errors.As(err, &tooLargeErr) {
		return entity.Rejected
	}

	return entity.TransportError
}
