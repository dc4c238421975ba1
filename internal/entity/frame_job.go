package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

const DefaultLotID = "1"

// FrameJob asks the processing pipeline to handle one stored frame.
type FrameJob struct {
	Key         string `json:"key"`
	LotID       LotID  `json:"lot_id"`
	UploadedAt  int64  `json:"uploaded_at"`
	ContentType string `json:"content_type"`
}

// JobEnvelope is the wire form of a queued job.
type JobEnvelope struct {
	Body FrameJob `json:"body"`
}

// LotID accepts both JSON strings and numbers.
type LotID string

func (id *LotID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)

	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}

	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = LotID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("lot_id: %w", err)
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return fmt.Errorf("lot_id: %w", err)
	}
	*id = LotID(n.String())

	return nil
}

// OrDefault returns the lot id, or DefaultLotID when empty.
func (id LotID) OrDefault() LotID {
	if id == "" {
		return DefaultLotID
	}

	return id
}

// PublishOutcome classifies one attempt to enqueue a job.
type PublishOutcome int

const (
	Published PublishOutcome = iota
	TransportError
	Rejected
)

func (o PublishOutcome) String() string {
	switch o {
	case Published:
		return "published"
	case TransportError:
		return "transport_error"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

type PublishResult struct {
	Outcome PublishOutcome
	Err     error
}

func (r PublishResult) Enqueued() bool {
	return r.Outcome == Published
}
