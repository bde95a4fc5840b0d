// Package relay performs the outbound hop. Deliveries never hit the
// destination webhook directly; they POST to a fixed internal relay that
// owns destination auth and any receiver-specific translation.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mtewold/chathook/internal/envelope"
)

// Outcome classifies one delivery: terminal success or terminal failure
// after retries are exhausted. RemoteRunID is best effort; a response the
// relay sends back without a parseable id is still a success.
type Outcome struct {
	Success     bool
	StatusCode  int
	RemoteRunID string
	ErrorDetail string
}

type Client struct {
	httpClient    *http.Client
	relayURL      string
	retryAttempts int
	retryDelay    time.Duration
}

func New(relayURL string, timeout time.Duration, retryAttempts int, retryDelay time.Duration) *Client {
	if retryAttempts < 1 {
		retryAttempts = 1
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		relayURL:      relayURL,
		retryAttempts: retryAttempts,
		retryDelay:    retryDelay,
	}
}

// Send POSTs the envelope to the relay, retrying transport errors and
// non-2xx responses up to the configured attempt count with a fixed delay
// between tries. The last attempt's error becomes the outcome's detail.
func (c *Client) Send(ctx context.Context, env envelope.RelayEnvelope) Outcome {
	body, err := json.Marshal(env)
	if err != nil {
		return Outcome{ErrorDetail: fmt.Sprintf("marshal relay envelope: %v", err)}
	}

	var last Outcome
	for attempt := 0; attempt < c.retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				last.ErrorDetail = fmt.Sprintf("cancelled during retry: %v", ctx.Err())
				return last
			}
		}

		last = c.post(ctx, body)
		if last.Success {
			return last
		}
	}

	return last
}

func (c *Client) post(ctx context.Context, body []byte) Outcome {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.relayURL, bytes.NewReader(body))
	if err != nil {
		return Outcome{ErrorDetail: fmt.Sprintf("create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Outcome{ErrorDetail: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		respBody = nil
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return Outcome{
			Success:     true,
			StatusCode:  resp.StatusCode,
			RemoteRunID: extractRunID(respBody),
		}
	}

	return Outcome{
		StatusCode:  resp.StatusCode,
		ErrorDetail: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, string(respBody)),
	}
}

// extractRunID pulls the correlation id out of a relay response, preferring
// run_id over id. Unparseable responses yield an empty id, never an error.
func extractRunID(body []byte) string {
	var parsed struct {
		RunID string `json:"run_id"`
		ID    string `json:"id"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	if parsed.RunID != "" {
		return parsed.RunID
	}
	return parsed.ID
}
