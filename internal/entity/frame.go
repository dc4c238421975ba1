package entity

import (
	"io"
	"time"
)

// FrameObject is a stored frame opened for reading. Body must be closed by
// the caller.
type FrameObject struct {
	Key         string
	ContentType string
	Size        int64
	Body        io.ReadCloser
}

// FrameInfo describes a stored frame without its payload.
type FrameInfo struct {
	Key      string    `json:"key"`
	Size     int64     `json:"size"`
	Uploaded time.Time `json:"uploaded"`
}

// Upload is the outcome of a successful ingest.
type Upload struct {
	Key         string
	ContentType string
	LotID       string
	UploadedAt  time.Time
	Publish     PublishResult
}

func (u *Upload) Enqueued() bool {
	return u.Publish.Enqueued()
}
