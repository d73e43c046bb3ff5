package insight

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/abhisek/persona/internal/inference"
	"github.com/abhisek/persona/internal/llm"
	"github.com/abhisek/persona/internal/quiz"
)

// Purpose labels insight requests in the LLM event log.
const Purpose = "insight"

// Config holds generation settings for narratives.
type Config struct {
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   300,
		Temperature: 0.7,
	}
}

// Narrative is the text shown under a result.
type Narrative struct {
	Headline  string `json:"headline"`
	Text      string `json:"narrative"`
	Generated bool   `json:"generated"`
}

// Static returns the built-in narrative for a result.
func Static(res *inference.Result) Narrative {
	return Narrative{
		Headline: fmt.Sprintf("Your Personality: %s", res.Label),
		Text:     Describe(res.Label),
	}
}

// Service produces narratives, asking an LLM when one is configured.
type Service struct {
	provider  llm.Provider
	questions quiz.QuestionSet
	cfg       Config
	logger    *zap.Logger
}

// NewService creates a Service. provider and logger may be nil.
func NewService(provider llm.Provider, questions quiz.QuestionSet, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		provider:  provider,
		questions: questions,
		cfg:       cfg,
		logger:    logger.Named("insight"),
	}
}

// Enabled reports whether narratives come from an LLM.
func (s *Service) Enabled() bool {
	return s != nil && s.provider != nil
}

// Narrate returns a personalized narrative for res. It never fails: without a
// provider, or when the provider errors, it returns the static narrative.
func (s *Service) Narrate(ctx context.Context, res *inference.Result) Narrative {
	if !s.Enabled() {
		return Static(res)
	}
	n, err := s.generate(ctx, res)
	if err != nil {
		s.logger.Warn("narrative generation failed, using static text",
			zap.String("label", res.Label), zap.Error(err))
		return Static(res)
	}
	return n
}

func (s *Service) generate(ctx context.Context, res *inference.Result) (Narrative, error) {
	ctx = llm.WithPurpose(ctx, Purpose)

	userMsg, err := s.buildMessage(res)
	if err != nil {
		return Narrative{}, fmt.Errorf("build insight prompt: %w", err)
	}

	c, err := s.provider.Complete(ctx, llm.Prompt{
		System:      systemPrompt,
		User:        userMsg,
		Schema:      NarrativeSchema,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return Narrative{}, fmt.Errorf("LLM insight failed: %w", err)
	}
	// Providers check the schema, but a custom one may not.
	if err := NarrativeSchema.Check(c.JSON); err != nil {
		return Narrative{}, err
	}

	var out Narrative
	if err := json.Unmarshal(c.JSON, &out); err != nil {
		return Narrative{}, fmt.Errorf("parse insight response: %w", err)
	}
	out.Generated = true
	return out, nil
}

const systemPrompt = `You write short, warm explanations of personality quiz results. The quiz has five questions with three options each and a classifier picks a label.

Instructions:
- Refer to the person's actual answers.
- Mention the top label and, when it is close, the runner-up.
- Do not diagnose or give medical or psychological advice.
- Keep the headline under 80 characters and the narrative to two or three sentences.`

var userTemplate = template.Must(template.New("insight").Parse(`Answers:
{{range .Answers}}- {{.Prompt}} → {{.Choice}}
{{end}}
Predicted personality: {{.Label}}

Probabilities:
{{range .Ranked}}- {{.Label}}: {{printf "%.2f" .Probability}}
{{end}}`))

type promptAnswer struct {
	Prompt string
	Choice string
}

type promptData struct {
	Answers []promptAnswer
	Label   string
	Ranked  []inference.LabelProbability
}

func (s *Service) buildMessage(res *inference.Result) (string, error) {
	data := promptData{Label: res.Label, Ranked: res.Ranked()}
	for i, a := range res.Answers {
		if i >= s.questions.Len() || a < 0 || a >= quiz.OptionCount {
			return "", fmt.Errorf("answer %d out of range", i)
		}
		q := s.questions.At(i)
		data.Answers = append(data.Answers, promptAnswer{Prompt: q.Prompt, Choice: q.Options[a]})
	}

	var buf bytes.Buffer
	if err := userTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
