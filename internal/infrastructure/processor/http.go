package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/andreyxaxa/Frame-Ingest/pkg/types/errs"
	"golang.org/x/time/rate"
)

const (
	_defaultTimeout = 30 * time.Second
	_drainLimit     = 64 << 10
)

type dispatchRequest struct {
	LotID string `json:"lot_id"`
	Key   string `json:"key"`
}

// HTTPProcessor forwards frame jobs to the external processing service.
type HTTPProcessor struct {
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
}

func New(endpoint string, opts ...Option) *HTTPProcessor {
	p := &HTTPProcessor{
		endpoint: endpoint,
		client:   &http.Client{Timeout: _defaultTimeout},
		limiter:  rate.NewLimiter(rate.Inf, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Dispatch posts {lot_id, key} to the endpoint. Any non-2xx answer is an
// error.
func (p *HTTPProcessor) Dispatch(ctx context.Context, lotID, key string) error {
	err := p.limiter.Wait(ctx)
	if err != nil {
		return fmt.Errorf("HTTPProcessor - Dispatch - p.limiter.Wait: %w", err)
	}

	body, err := json.Marshal(dispatchRequest{LotID: lotID, Key: key})
	if err != nil {
		return fmt.Errorf("HTTPProcessor - Dispatch - json.Marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("HTTPProcessor - Dispatch - http.NewRequestWithContext: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTPProcessor - Dispatch - p.client.Do: %w", err)
	}
	defer resp.Body.Close()

	// drain so the connection can be reused
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, _drainLimit))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("HTTPProcessor - Dispatch: %w: %d", errs.ErrProcessorStatus, resp.StatusCode)
	}

	return nil
}
