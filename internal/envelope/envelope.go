// Package envelope wraps Cards into the wire shape a given webhook endpoint
// expects. Deployed workflow endpoints disagree on structure: newer ones read
// the attachments list at the top level, older ones only look under a "body"
// key. The split is a static property of the endpoint URL, not a negotiated
// protocol version.
package envelope

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mtewold/chathook/internal/card"
)

const attachmentContentType = "application/vnd.microsoft.card.adaptive"

// Shape identifies the envelope structure an endpoint expects.
type Shape int

const (
	ShapeModern Shape = iota
	ShapeLegacyBody
)

func (s Shape) String() string {
	if s == ShapeLegacyBody {
		return "legacy_body"
	}
	return "modern"
}

// RelayEnvelope is the body POSTed to the relay. The relay owns the final
// hop to the destination webhook.
type RelayEnvelope struct {
	WebhookURL string          `json:"webhook_url"`
	Payload    json.RawMessage `json:"payload"`
}

type attachment struct {
	ContentType string         `json:"contentType"`
	Content     map[string]any `json:"content"`
}

// Adapter classifies endpoints and produces relay envelopes.
type Adapter struct {
	legacyHosts []string
}

func NewAdapter(legacyHosts []string) *Adapter {
	return &Adapter{legacyHosts: legacyHosts}
}

// Profile classifies an endpoint URL by substring match against the known
// legacy-shape host fragments.
func (a *Adapter) Profile(webhookURL string) Shape {
	for _, host := range a.legacyHosts {
		if host != "" && strings.Contains(webhookURL, host) {
			return ShapeLegacyBody
		}
	}
	return ShapeModern
}

// Wrap builds the complete relay envelope for a card destined to webhookURL.
func (a *Adapter) Wrap(c card.Card, webhookURL string) (RelayEnvelope, error) {
	attachments := []attachment{{
		ContentType: attachmentContentType,
		Content:     MarshalAdaptiveCard(c),
	}}

	var payload any
	if a.Profile(webhookURL) == ShapeLegacyBody {
		payload = map[string]any{
			"body": map[string]any{"attachments": attachments},
		}
	} else {
		payload = map[string]any{"attachments": attachments}
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return RelayEnvelope{}, fmt.Errorf("marshal payload: %w", err)
	}

	return RelayEnvelope{WebhookURL: webhookURL, Payload: raw}, nil
}
