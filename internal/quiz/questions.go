package quiz

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/persona/internal/model"
)

// OptionCount is the number of options every question offers.
const OptionCount = model.FeatureDomain

//go:embed questions.yaml
var defaultQuestionsYAML []byte

// Question is one quiz prompt with its options in canonical order.
type Question struct {
	Index   int
	Prompt  string
	Options [OptionCount]string
}

// QuestionSet is the ordered, immutable list of quiz questions.
type QuestionSet struct {
	questions []Question
}

// Len returns the number of questions.
func (s QuestionSet) Len() int { return len(s.questions) }

// At returns question i.
func (s QuestionSet) At(i int) Question { return s.questions[i] }

// All returns a copy of the questions.
func (s QuestionSet) All() []Question {
	return append([]Question(nil), s.questions...)
}

type questionFile struct {
	Questions []questionEntry `yaml:"questions"`
}

type questionEntry struct {
	Prompt  string   `yaml:"prompt"`
	Options []string `yaml:"options"`
}

// DefaultQuestions returns the built-in question set.
func DefaultQuestions() QuestionSet {
	set, err := ParseQuestions(defaultQuestionsYAML)
	if err != nil {
		panic(fmt.Sprintf("quiz: embedded questions are invalid: %v", err))
	}
	return set
}

// LoadQuestions reads a question set from a YAML file.
func LoadQuestions(path string) (QuestionSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return QuestionSet{}, fmt.Errorf("read questions: %w", err)
	}
	return ParseQuestions(data)
}

// ParseQuestions decodes and validates a YAML question set. It must hold
// exactly model.FeatureCount questions with OptionCount non-empty options
// each.
func ParseQuestions(data []byte) (QuestionSet, error) {
	var file questionFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return QuestionSet{}, fmt.Errorf("parse questions: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return QuestionSet{}, fmt.Errorf("parse questions: multiple documents are not supported")
		}
		return QuestionSet{}, fmt.Errorf("parse questions: %w", err)
	}

	if len(file.Questions) != model.FeatureCount {
		return QuestionSet{}, fmt.Errorf("questions: got %d, want %d", len(file.Questions), model.FeatureCount)
	}
	set := QuestionSet{questions: make([]Question, len(file.Questions))}
	for i, q := range file.Questions {
		prompt := strings.TrimSpace(q.Prompt)
		if prompt == "" {
			return QuestionSet{}, fmt.Errorf("question %d: empty prompt", i+1)
		}
		if len(q.Options) != OptionCount {
			return QuestionSet{}, fmt.Errorf("question %d: got %d options, want %d", i+1, len(q.Options), OptionCount)
		}
		set.questions[i] = Question{Index: i, Prompt: prompt}
		for j, opt := range q.Options {
			opt = strings.TrimSpace(opt)
			if opt == "" {
				return QuestionSet{}, fmt.Errorf("question %d: option %d is empty", i+1, j+1)
			}
			set.questions[i].Options[j] = opt
		}
	}
	return set, nil
}
