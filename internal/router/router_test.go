package router

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/persona/internal/screen"
)

// fakeScreen records Init calls and the keys it receives.
type fakeScreen struct {
	name  string
	inits int
	keys  []string
}

func (s *fakeScreen) Init() tea.Cmd {
	s.inits++
	return nil
}

func (s *fakeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if k, ok := msg.(tea.KeyPressMsg); ok {
		s.keys = append(s.keys, k.String())
	}
	return s, nil
}

func (s *fakeScreen) View(int, int) string { return s.name }
func (s *fakeScreen) Title() string        { return s.name }

// names lists the stack bottom to top.
func names(r *Router) string {
	out := make([]string, len(r.stack))
	for i, s := range r.stack {
		out[i] = s.Title()
	}
	return strings.Join(out, ">")
}

func TestNavigation(t *testing.T) {
	home := &fakeScreen{name: "home"}
	quiz := &fakeScreen{name: "quiz"}
	result := &fakeScreen{name: "result"}
	history := &fakeScreen{name: "history"}

	tests := []struct {
		name string
		msgs []tea.Msg
		want string
	}{
		{"root only", nil, "home"},
		{"push", []tea.Msg{PushScreenMsg{Screen: quiz}}, "home>quiz"},
		{"pop", []tea.Msg{PushScreenMsg{Screen: history}, PopScreenMsg{}}, "home"},
		{"pop keeps root", []tea.Msg{PopScreenMsg{}, PopScreenMsg{}}, "home"},
		{
			"quiz hands over to result",
			[]tea.Msg{PushScreenMsg{Screen: quiz}, ReplaceScreenMsg{Screen: result}},
			"home>result",
		},
		{
			"retake swaps back",
			[]tea.Msg{PushScreenMsg{Screen: quiz}, ReplaceScreenMsg{Screen: result}, ReplaceScreenMsg{Screen: quiz}},
			"home>quiz",
		},
		{
			"pop to root",
			[]tea.Msg{PushScreenMsg{Screen: history}, PushScreenMsg{Screen: quiz}, PopToRootMsg{}},
			"home",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(home)
			for _, msg := range tt.msgs {
				r.Update(msg)
			}
			if got := names(r); got != tt.want {
				t.Errorf("stack = %s, want %s", got, tt.want)
			}
			if r.Depth() != strings.Count(tt.want, ">")+1 {
				t.Errorf("depth = %d for stack %s", r.Depth(), tt.want)
			}
			if got := r.View(80, 24); !strings.HasSuffix(tt.want, got) {
				t.Errorf("view = %q, want the top of %s", got, tt.want)
			}
		})
	}
}

func TestOpenedScreensAreInitialised(t *testing.T) {
	r := New(&fakeScreen{name: "home"})
	quiz := &fakeScreen{name: "quiz"}
	result := &fakeScreen{name: "result"}

	r.Update(PushScreenMsg{Screen: quiz})
	r.Update(ReplaceScreenMsg{Screen: result})
	r.Update(ReplaceScreenMsg{Screen: quiz})

	if quiz.inits != 2 {
		t.Errorf("quiz Init ran %d times, want 2", quiz.inits)
	}
	if result.inits != 1 {
		t.Errorf("result Init ran %d times, want 1", result.inits)
	}
}

func TestKeysReachOnlyActiveScreen(t *testing.T) {
	home := &fakeScreen{name: "home"}
	quiz := &fakeScreen{name: "quiz"}
	r := New(home)
	r.Update(PushScreenMsg{Screen: quiz})

	r.Update(tea.KeyPressMsg{Code: '2', Text: "2"})

	if len(quiz.keys) != 1 || quiz.keys[0] != "2" {
		t.Errorf("quiz keys = %v, want [2]", quiz.keys)
	}
	if len(home.keys) != 0 {
		t.Errorf("home received keys %v", home.keys)
	}
}
