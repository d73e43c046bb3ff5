package model

import (
	"bytes"
	"fmt"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// modelSchema describes the classifier artifact envelope.
var modelSchema = map[string]any{
	"type":     "object",
	"required": []any{"format_version", "kind", "pair_id", "num_features", "num_classes", "body"},
	"properties": map[string]any{
		"format_version": map[string]any{"const": FormatVersion},
		"kind":           map[string]any{"type": "string", "minLength": 1},
		"pair_id":        map[string]any{"type": "string", "pattern": "^[0-9a-f]{16}$"},
		"num_features":   map[string]any{"type": "integer", "minimum": 1},
		"num_classes":    map[string]any{"type": "integer", "minimum": 1},
		"body":           map[string]any{"type": "object"},
	},
}

// codecSchema describes the label codec artifact.
var codecSchema = map[string]any{
	"type":     "object",
	"required": []any{"format_version", "pair_id", "classes", "dataset_fingerprint", "trained_at"},
	"properties": map[string]any{
		"format_version": map[string]any{"const": FormatVersion},
		"pair_id":        map[string]any{"type": "string", "pattern": "^[0-9a-f]{16}$"},
		"classes": map[string]any{
			"type":        "array",
			"minItems":    1,
			"uniqueItems": true,
			"items":       map[string]any{"type": "string", "minLength": 1},
		},
		"dataset_fingerprint": map[string]any{"type": "string"},
		"trained_at":          map[string]any{"type": "string", "format": "date-time"},
	},
}

var (
	compileOnce    sync.Once
	compiledModel  *jsonschema.Schema
	compiledCodec  *jsonschema.Schema
	compileFailure error
)

func compileSchemas() {
	c := jsonschema.NewCompiler()
	for url, def := range map[string]map[string]any{
		"schema://persona/model.json": modelSchema,
		"schema://persona/codec.json": codecSchema,
	} {
		// The compiler wants decoded JSON values, not Go literals.
		raw, err := json.Marshal(def)
		if err != nil {
			compileFailure = fmt.Errorf("marshal %s: %w", url, err)
			return
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			compileFailure = fmt.Errorf("parse %s: %w", url, err)
			return
		}
		if err := c.AddResource(url, doc); err != nil {
			compileFailure = fmt.Errorf("add %s: %w", url, err)
			return
		}
	}
	var err error
	if compiledModel, err = c.Compile("schema://persona/model.json"); err != nil {
		compileFailure = fmt.Errorf("compile model schema: %w", err)
		return
	}
	if compiledCodec, err = c.Compile("schema://persona/codec.json"); err != nil {
		compileFailure = fmt.Errorf("compile codec schema: %w", err)
	}
}

// validateDocument checks raw artifact JSON against the model or codec schema.
func validateDocument(raw []byte, codec bool) error {
	compileOnce.Do(compileSchemas)
	if compileFailure != nil {
		return compileFailure
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	schema := compiledModel
	if codec {
		schema = compiledCodec
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
