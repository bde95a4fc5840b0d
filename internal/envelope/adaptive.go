package envelope

import "github.com/mtewold/chathook/internal/card"

// MarshalAdaptiveCard renders a Card into the adaptive-card JSON document the
// chat receiver understands. Element order matters to some renderers: title
// container, heading, fact set, updated-by line, then the description.
func MarshalAdaptiveCard(c card.Card) map[string]any {
	facts := make([]map[string]any, 0, len(c.Facts))
	for _, f := range c.Facts {
		facts = append(facts, map[string]any{
			"title": f.Title,
			"value": f.Value,
		})
	}

	body := []any{
		map[string]any{
			"type":  "Container",
			"style": string(c.Style),
			"items": []any{
				map[string]any{
					"type":   "TextBlock",
					"text":   c.Title,
					"weight": "Bolder",
					"size":   "Medium",
					"color":  "Light",
				},
			},
		},
		map[string]any{
			"type":    "TextBlock",
			"text":    c.Heading,
			"weight":  "Bolder",
			"size":    "Large",
			"wrap":    true,
			"spacing": "Medium",
		},
		map[string]any{
			"type":    "FactSet",
			"facts":   facts,
			"spacing": "Medium",
		},
	}

	if c.UpdatedBy != "" {
		body = append(body, map[string]any{
			"type":    "TextBlock",
			"text":    c.UpdatedBy,
			"size":    "Small",
			"color":   "Accent",
			"spacing": "Small",
		})
	}

	if c.Body != "" {
		body = append(body, map[string]any{
			"type":    "TextBlock",
			"text":    c.Body,
			"wrap":    true,
			"size":    "Small",
			"color":   "Default",
			"spacing": "Small",
		})
	}

	doc := map[string]any{
		"type":    "AdaptiveCard",
		"version": "1.3",
		"body":    body,
	}

	if len(c.Actions) > 0 {
		actions := make([]any, 0, len(c.Actions))
		for _, a := range c.Actions {
			actions = append(actions, map[string]any{
				"type":  "Action.OpenUrl",
				"title": a.Title,
				"url":   a.URL,
				"style": "positive",
			})
		}
		doc["actions"] = actions
	}

	return doc
}
