package queue

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/andreyxaxa/Frame-Ingest/internal/entity"
	"github.com/andreyxaxa/Frame-Ingest/pkg/types/errs"
)

// jobPayload matches both {"body": {...}} and the bare job.
type jobPayload struct {
	Body json.RawMessage `json:"body"`
	entity.FrameJob
}

func decodeJob(raw []byte) (entity.FrameJob, error) {
	var p jobPayload

	err := json.Unmarshal(raw, &p)
	if err != nil {
		return entity.FrameJob{}, fmt.Errorf("decodeJob - json.Unmarshal: %w", err)
	}

	job := p.FrameJob

	if len(p.Body) > 0 && !bytes.Equal(bytes.TrimSpace(p.Body), []byte("null")) {
		job = entity.FrameJob{}

		err = json.Unmarshal(p.Body, &job)
		if err != nil {
			return entity.FrameJob{}, fmt.Errorf("decodeJob - json.Unmarshal body: %w", err)
		}
	}

	if job.Key == "" {
		return entity.FrameJob{}, errs.ErrMissingKey
	}

	job.LotID = job.LotID.OrDefault()

	return job, nil
}
