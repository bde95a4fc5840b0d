package envelope

import (
	"encoding/json"
	"testing"

	"github.com/mtewold/chathook/internal/card"
)

var legacyHosts = []string{"prod-84.southeastasia.logic.azure.com"}

func sampleCard() card.Card {
	return card.Card{
		Title:   "New Task Created by Dana",
		Heading: "Fix login flow",
		Style:   card.StyleEmphasis,
		Facts: []card.Fact{
			{Title: "Project", Value: "Website"},
			{Title: "Status", Value: "In Progress"},
		},
		Actions: []card.Action{
			{Title: "View Task", URL: "https://app.example.com/admin/tasks/task-1"},
		},
	}
}

func TestProfile(t *testing.T) {
	a := NewAdapter(legacyHosts)

	tests := []struct {
		url  string
		want Shape
	}{
		{"https://prod-84.southeastasia.logic.azure.com/workflows/abc", ShapeLegacyBody},
		{"https://prod-12.westeurope.logic.azure.com/workflows/def", ShapeModern},
		{"https://example.webhook.office.com/workflow", ShapeModern},
	}

	for _, tt := range tests {
		if got := a.Profile(tt.url); got != tt.want {
			t.Errorf("Profile(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestWrapModernShape(t *testing.T) {
	a := NewAdapter(legacyHosts)

	env, err := a.Wrap(sampleCard(), "https://prod-12.westeurope.logic.azure.com/workflows/def")
	if err != nil {
		t.Fatalf("Wrap failed: %v", err)
	}

	if env.WebhookURL != "https://prod-12.westeurope.logic.azure.com/workflows/def" {
		t.Errorf("unexpected webhook url: %q", env.WebhookURL)
	}

	var payload map[string]any
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}

	if _, ok := payload["body"]; ok {
		t.Error("modern shape must not nest attachments under body")
	}

	attachments, ok := payload["attachments"].([]any)
	if !ok || len(attachments) != 1 {
		t.Fatalf("expected one top-level attachment, got %v", payload["attachments"])
	}

	first := attachments[0].(map[string]any)
	if first["contentType"] != "application/vnd.microsoft.card.adaptive" {
		t.Errorf("unexpected content type: %v", first["contentType"])
	}

	content := first["content"].(map[string]any)
	if content["type"] != "AdaptiveCard" || content["version"] != "1.3" {
		t.Errorf("unexpected card document header: %v %v", content["type"], content["version"])
	}
}

func TestWrapLegacyShape(t *testing.T) {
	a := NewAdapter(legacyHosts)

	env, err := a.Wrap(sampleCard(), "https://prod-84.southeastasia.logic.azure.com/workflows/abc")
	if err != nil {
		t.Fatalf("Wrap failed: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}

	if _, ok := payload["attachments"]; ok {
		t.Error("legacy shape must not expose attachments at the top level")
	}

	body, ok := payload["body"].(map[string]any)
	if !ok {
		t.Fatalf("expected body wrapper, got %v", payload)
	}
	attachments, ok := body["attachments"].([]any)
	if !ok || len(attachments) != 1 {
		t.Fatalf("expected one attachment under body, got %v", body["attachments"])
	}
}

func TestRelayEnvelopeWireKeys(t *testing.T) {
	a := NewAdapter(nil)

	env, err := a.Wrap(sampleCard(), "https://example.webhook.office.com/workflow")
	if err != nil {
		t.Fatalf("Wrap failed: %v", err)
	}

	data, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}

	var wire map[string]json.RawMessage
	if err := json.Unmarshal(data, &wire); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if _, ok := wire["webhook_url"]; !ok {
		t.Error("envelope missing webhook_url key")
	}
	if _, ok := wire["payload"]; !ok {
		t.Error("envelope missing payload key")
	}
}

func TestMarshalAdaptiveCardOptionalBlocks(t *testing.T) {
	c := sampleCard()

	doc := MarshalAdaptiveCard(c)
	body := doc["body"].([]any)
	if len(body) != 3 {
		t.Fatalf("expected 3 body blocks without extras, got %d", len(body))
	}

	c.UpdatedBy = "Updated by: Dana"
	c.Body = "details"
	doc = MarshalAdaptiveCard(c)
	body = doc["body"].([]any)
	if len(body) != 5 {
		t.Fatalf("expected 5 body blocks with extras, got %d", len(body))
	}

	updatedBy := body[3].(map[string]any)
	if updatedBy["text"] != "Updated by: Dana" {
		t.Errorf("unexpected updated-by block: %v", updatedBy["text"])
	}
	description := body[4].(map[string]any)
	if description["text"] != "details" {
		t.Errorf("unexpected description block: %v", description["text"])
	}
}
