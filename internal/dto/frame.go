package dto

import "io"

// FrameUpload is one frame received by the ingest endpoint.
type FrameUpload struct {
	Data        io.Reader
	Size        int64
	Filename    string
	ContentType string // as declared by the client, may be empty
	LotID       string
	Multipart   bool
}
