package home

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/persona/internal/inference"
	engine "github.com/abhisek/persona/internal/quiz"
	"github.com/abhisek/persona/internal/router"
	"github.com/abhisek/persona/internal/screen"
	"github.com/abhisek/persona/internal/screens/history"
	quizscreen "github.com/abhisek/persona/internal/screens/quiz"
	"github.com/abhisek/persona/internal/store"
)

type nopPredictor struct{}

func (nopPredictor) Predict(answers []int) (*inference.Result, error) {
	return &inference.Result{Label: "Introvert", Answers: answers}, nil
}

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func testDeps() quizscreen.Deps {
	return quizscreen.Deps{
		Questions: engine.DefaultQuestions(),
		Predictor: nopPredictor{},
	}
}

func testInfo() Info {
	return Info{Labels: []string{"Introvert", "Extrovert", "Ambivert", "Omnivert"}, Questions: 5}
}

// fakeResults satisfies store.ResultRepo; the home screen never calls it.
type fakeResults struct{ store.ResultRepo }

func TestTakeQuizPushesQuiz(t *testing.T) {
	h := New(testDeps(), nil, testInfo())

	var scr screen.Screen = h
	_, cmd := scr.Update(specialKey(tea.KeyEnter))
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg, ok := cmd().(router.PushScreenMsg)
	if !ok {
		t.Fatalf("expected PushScreenMsg, got %T", cmd())
	}
	if _, ok := msg.Screen.(*quizscreen.QuizScreen); !ok {
		t.Errorf("expected quiz screen, got %T", msg.Screen)
	}
}

func TestHistoryDisabledWithoutStore(t *testing.T) {
	h := New(testDeps(), nil, testInfo())

	var scr screen.Screen = h
	scr.Update(keyPress('j'))
	if h.menu.Selected != 2 {
		t.Errorf("expected HISTORY to be skipped, selected %d", h.menu.Selected)
	}
}

func TestHistoryPushesHistory(t *testing.T) {
	h := New(testDeps(), fakeResults{}, testInfo())

	var scr screen.Screen = h
	scr.Update(specialKey(tea.KeyDown))
	_, cmd := scr.Update(specialKey(tea.KeyEnter))
	if cmd == nil {
		t.Fatal("expected a command")
	}
	msg, ok := cmd().(router.PushScreenMsg)
	if !ok {
		t.Fatalf("expected PushScreenMsg, got %T", cmd())
	}
	if _, ok := msg.Screen.(*history.HistoryScreen); !ok {
		t.Errorf("expected history screen, got %T", msg.Screen)
	}
}

func TestViewShowsMenuAndModel(t *testing.T) {
	h := New(testDeps(), nil, testInfo())
	v := h.View(120, 40)

	for _, want := range []string{"TAKE QUIZ", "HISTORY", "EXIT", "Introvert", "Omnivert", "5 questions"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
