// Package httpsender posts batches to the collector over HTTP.
package httpsender

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/gosight/gosight/tracker/internal/transport"
	"github.com/gosight/gosight/tracker/internal/wire"
)

// StatusError is returned for a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("collector responded %d: %s", e.StatusCode, e.Body)
}

// Sender POSTs each message as JSON.
type Sender struct {
	client *http.Client

	mu       sync.RWMutex
	endpoint string
	apiKey   string
}

// New returns a Sender. A nil client means http.DefaultClient.
func New(endpoint, apiKey string, client *http.Client) *Sender {
	if client == nil {
		client = http.DefaultClient
	}
	return &Sender{client: client, endpoint: endpoint, apiKey: apiKey}
}

func (s *Sender) Configure(endpoint, apiKey string) {
	s.mu.Lock()
	s.endpoint = endpoint
	s.apiKey = apiKey
	s.mu.Unlock()
}

func (s *Sender) Send(ctx context.Context, msg transport.Message) error {
	s.mu.RLock()
	endpoint, apiKey := s.endpoint, s.apiKey
	s.mu.RUnlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(msg.Body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(wire.ProjectKeyHeader, apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (s *Sender) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
