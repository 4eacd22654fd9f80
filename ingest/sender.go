// Package ingest delivers encoded batches to the remote ingestion endpoint
// over HTTP and interprets the response per the sync-function contract.
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/logshipio/logship"
)

const defaultUserAgent = "logship-go/1.0.0"

// DeliveryError reports a non-2xx response from the ingestion endpoint.
type DeliveryError struct {
	StatusCode int
	Status     string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("ingest: server replied %s", e.Status)
}

type Config struct {
	Endpoint    string
	SourceToken string
	UserAgent   string
	Timeout     time.Duration
	Sanitize    logship.SanitizeOptions
}

type Sender struct {
	config     Config
	httpClient *http.Client
}

func NewSender(config Config) *Sender {
	if config.UserAgent == "" {
		config.UserAgent = defaultUserAgent
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}
	return &Sender{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Sync is the delivery adapter handed to the buffering engine. It performs
// exactly one POST per invocation; a batch either fully succeeds or fully
// fails. On success the original batch comes back unmodified so the engine
// can evict those records. It never retries; that is the engine's job.
func (s *Sender) Sync(ctx context.Context, batch []logship.Record) ([]logship.Record, error) {
	if len(batch) == 0 {
		return batch, nil
	}

	body, err := EncodeBatch(batch, s.config.Sanitize)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/msgpack")
	req.Header.Set("Authorization", "Bearer "+s.config.SourceToken)
	req.Header.Set("User-Agent", s.config.UserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &DeliveryError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		}
	}

	return batch, nil
}
