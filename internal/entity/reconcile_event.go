package entity

import (
	"time"

	"github.com/google/uuid"
)

// ReconcileEvent keeps a frame job whose first publish failed so it can be
// re-published later.
type ReconcileEvent struct {
	ID          uuid.UUID  `json:"id"`
	FrameKey    string     `json:"frame_key"`
	Payload     []byte     `json:"payload"`
	Status      Status     `json:"status"` // pending, processing, processed, failed
	LastError   string     `json:"last_error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	RetryCount  int        `json:"retry_count"`
}

// Status tracks a reconcile event through the relay:
// pending -> processing -> processed, or pending -> failed once retries run out.
type Status string

const (
	Pending    Status = "pending"
	Processing Status = "processing"
	Processed  Status = "processed"
	Failed     Status = "failed"
)

// Settled reports whether the relay is done with an event in this status.
func (s Status) Settled() bool {
	return s == Processed || s == Failed
}

// SettledStatuses lists the statuses eligible for cleanup.
func SettledStatuses() []string {
	return []string{string(Processed), string(Failed)}
}
