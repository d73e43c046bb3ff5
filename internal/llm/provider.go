package llm

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Provider turns one prompt into one structured completion.
type Provider interface {
	Complete(ctx context.Context, p Prompt) (*Completion, error)

	// Model returns the model identifier requests are sent to.
	Model() string
}

// Prompt is a single-turn request. When Schema is set the provider asks the
// model for JSON matching it and rejects anything that does not.
type Prompt struct {
	System      string
	User        string
	Schema      *Schema
	MaxTokens   int
	Temperature float64
}

// Completion is what the model returned.
type Completion struct {
	// JSON is the schema-checked object, or the raw text when the prompt
	// carried no schema.
	JSON  json.RawMessage
	Usage Usage
	Model string
}

// Usage counts tokens for one request.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Total returns input plus output tokens.
func (u Usage) Total() int { return u.InputTokens + u.OutputTokens }

// Schema is a JSON Schema a completion must satisfy. Name doubles as the
// tool or schema name some vendors require, so keep it kebab-case.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any

	once     sync.Once
	compiled *jsonschema.Schema
	err      error
}

// Check validates raw against the schema. A nil schema accepts anything.
// Failures are *ErrInvalidResponse.
func (s *Schema) Check(raw json.RawMessage) error {
	if s == nil {
		return nil
	}
	s.once.Do(s.compile)
	if s.err != nil {
		return &ErrInvalidResponse{Content: raw, Err: s.err}
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return &ErrInvalidResponse{Content: raw, Err: err}
	}
	if err := s.compiled.Validate(doc); err != nil {
		return &ErrInvalidResponse{Content: raw, Err: err}
	}
	return nil
}

func (s *Schema) compile() {
	// Round-trip through JSON so the compiler sees float64 numbers and
	// []any arrays rather than Go literals.
	b, err := json.Marshal(s.Definition)
	if err != nil {
		s.err = err
		return
	}
	var def any
	if err := json.Unmarshal(b, &def); err != nil {
		s.err = err
		return
	}
	url := "schema://" + s.Name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, def); err != nil {
		s.err = err
		return
	}
	s.compiled, s.err = c.Compile(url)
}
