package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// FakeReply is one scripted answer for Fake. Err wins over JSON.
type FakeReply struct {
	JSON  string
	Usage Usage
	Err   error
}

// Fake replays scripted replies in order and records every prompt. Once
// the script runs out it reports ErrProviderUnavailable.
type Fake struct {
	mu      sync.Mutex
	replies []FakeReply
	prompts []Prompt
}

var _ Provider = (*Fake)(nil)

// NewFake returns a Fake that will answer with replies.
func NewFake(replies ...FakeReply) *Fake {
	return &Fake{replies: replies}
}

func (f *Fake) Model() string { return "fake" }

func (f *Fake) Complete(_ context.Context, pr Prompt) (*Completion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.prompts = append(f.prompts, pr)
	if len(f.replies) == 0 {
		return nil, &ErrProviderUnavailable{}
	}
	next := f.replies[0]
	f.replies = f.replies[1:]
	if next.Err != nil {
		return nil, next.Err
	}
	return &Completion{JSON: json.RawMessage(next.JSON), Usage: next.Usage, Model: "fake"}, nil
}

// Script appends replies.
func (f *Fake) Script(replies ...FakeReply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, replies...)
}

// Prompts returns the prompts seen so far.
func (f *Fake) Prompts() []Prompt {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Prompt(nil), f.prompts...)
}
