package insight

import "github.com/abhisek/persona/internal/llm"

// NarrativeSchema defines the JSON schema for personality narratives.
var NarrativeSchema = &llm.Schema{
	Name:        "personality-insight",
	Description: "A short personalized explanation of a personality quiz result",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"headline": map[string]any{
				"type":        "string",
				"minLength":   1,
				"maxLength":   80,
				"description": "One short line summarizing the result",
			},
			"narrative": map[string]any{
				"type":        "string",
				"minLength":   1,
				"maxLength":   600,
				"description": "Two or three sentences tying the answers to the result",
			},
		},
		"required":             []any{"headline", "narrative"},
		"additionalProperties": false,
	},
}
