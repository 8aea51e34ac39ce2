// Package event announces media lifecycle events to the event gateway.
package event

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// MediaCreatedPath is the gateway topic endpoint for newly uploaded media.
const MediaCreatedPath = "/v1.0/publish/pubsub/media/media/created"

// MediaCreated is the payload published once per successful upload.
type MediaCreated struct {
	ID uuid.UUID `json:"id"`
}

// Notifier delivers creation events.
type Notifier interface {
	MediaCreated(ctx context.Context, id uuid.UUID) error
}

// HTTPNotifier publishes events with a single POST per event. It does not
// retry; the caller decides what a failed delivery means.
type HTTPNotifier struct {
	client   *http.Client
	endpoint string
}

// NewHTTPNotifier targets the gateway at baseURL, e.g. "http://localhost:3500".
// A nil client means http.DefaultClient.
func NewHTTPNotifier(baseURL string, client *http.Client) *HTTPNotifier {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPNotifier{
		client:   client,
		endpoint: strings.TrimRight(baseURL, "/") + MediaCreatedPath,
	}
}

// MediaCreated publishes {"id": id}. Transport errors and non-2xx responses
// are both failures.
func (n *HTTPNotifier) MediaCreated(ctx context.Context, id uuid.UUID) error {
	body, err := json.Marshal(MediaCreated{ID: id})
	if err != nil {
		return fmt.Errorf("encode media created event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build media created request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("publish media created: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("publish media created: gateway responded %s", resp.Status)
	}
	return nil
}
