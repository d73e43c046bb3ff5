package history

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/persona/internal/router"
	"github.com/abhisek/persona/internal/screen"
	"github.com/abhisek/persona/internal/store"
)

type fakeRepo struct {
	results []store.ResultRecord
	counts  []store.LabelCount
	err     error
	limit   int
}

func (f *fakeRepo) AppendResult(context.Context, *store.ResultRecord) error { return nil }

func (f *fakeRepo) QueryResults(_ context.Context, opts store.QueryOpts) ([]store.ResultRecord, error) {
	f.limit = opts.Limit
	return f.results, f.err
}

func (f *fakeRepo) LabelCounts(context.Context) ([]store.LabelCount, error) {
	return f.counts, nil
}

func (f *fakeRepo) Clear(context.Context) (int64, error) { return 0, nil }

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func sampleRepo() *fakeRepo {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &fakeRepo{
		results: []store.ResultRecord{
			{
				SessionID:  "b",
				Answers:    []int{2, 2, 2, 2, 2},
				Label:      "Extrovert",
				Confidence: 1,
				Source:     store.SourceHTTP,
				CreatedAt:  at.Add(time.Hour),
				Distribution: []store.LabelScore{
					{Label: "Extrovert", Probability: 1},
				},
			},
			{
				SessionID:  "a",
				Answers:    []int{0, 0, 1, 2, 0},
				Label:      "Introvert",
				Confidence: 0.7,
				Source:     store.SourceTUI,
				CreatedAt:  at,
				Distribution: []store.LabelScore{
					{Label: "Introvert", Probability: 0.7},
					{Label: "Ambivert", Probability: 0.3},
				},
			},
		},
		counts: []store.LabelCount{
			{Label: "Extrovert", Count: 1},
			{Label: "Introvert", Count: 1},
		},
	}
}

func load(t *testing.T, s *HistoryScreen) {
	t.Helper()
	cmd := s.Init()
	if cmd == nil {
		t.Fatal("expected a load command")
	}
	var scr screen.Screen = s
	scr.Update(cmd())
}

func TestLoadingView(t *testing.T) {
	s := New(sampleRepo())
	if !strings.Contains(s.View(100, 30), "Loading history") {
		t.Error("expected loading message before data arrives")
	}
}

func TestShowsResultsAndCounts(t *testing.T) {
	repo := sampleRepo()
	s := New(repo)
	load(t, s)

	if repo.limit != pageSize {
		t.Errorf("expected limit %d, got %d", pageSize, repo.limit)
	}
	v := s.View(120, 30)
	for _, want := range []string{"Extrovert ×1", "Introvert ×1", "0.70", "via tui", "via http"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestExpandDetails(t *testing.T) {
	s := New(sampleRepo())
	load(t, s)

	var scr screen.Screen = s
	scr.Update(keyPress('j'))
	scr.Update(specialKey(tea.KeyEnter))

	if !s.expanded[1] {
		t.Fatal("expected second row expanded")
	}
	if !strings.Contains(s.View(120, 30), "answers [0,0,1,2,0]") {
		t.Error("expected answer details")
	}

	scr.Update(keyPress('j'))
	if s.selected != 1 {
		t.Errorf("cursor should stop at the last row, got %d", s.selected)
	}
}

func TestEmptyHistory(t *testing.T) {
	s := New(&fakeRepo{})
	load(t, s)
	if !strings.Contains(s.View(100, 30), "No results yet") {
		t.Error("expected empty message")
	}
}

func TestLoadError(t *testing.T) {
	s := New(&fakeRepo{err: errors.New("database is locked")})
	load(t, s)
	if !strings.Contains(s.View(100, 30), "database is locked") {
		t.Error("expected the error in the view")
	}

	noRepo := New(nil)
	load(t, noRepo)
	if noRepo.errMsg == "" {
		t.Error("expected an error without a repo")
	}
}

func TestEscPops(t *testing.T) {
	s := New(sampleRepo())
	var scr screen.Screen = s
	_, cmd := scr.Update(specialKey(tea.KeyEscape))
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Errorf("expected PopScreenMsg, got %T", cmd())
	}
}
