package result

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/persona/internal/history"
	"github.com/abhisek/persona/internal/inference"
	"github.com/abhisek/persona/internal/insight"
	"github.com/abhisek/persona/internal/llm"
	"github.com/abhisek/persona/internal/quiz"
	"github.com/abhisek/persona/internal/router"
	"github.com/abhisek/persona/internal/screen"
	"github.com/abhisek/persona/internal/store"
)

type fakeRepo struct {
	records []*store.ResultRecord
	err     error
}

func (f *fakeRepo) AppendResult(_ context.Context, rec *store.ResultRecord) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeRepo) QueryResults(context.Context, store.QueryOpts) ([]store.ResultRecord, error) {
	return nil, nil
}

func (f *fakeRepo) LabelCounts(context.Context) ([]store.LabelCount, error) { return nil, nil }

func (f *fakeRepo) Clear(context.Context) (int64, error) { return 0, nil }

func sampleResult() *inference.Result {
	return &inference.Result{
		Label:      "Introvert",
		Confidence: 0.7,
		Answers:    []int{0, 0, 1, 2, 0},
		Distribution: []inference.LabelProbability{
			{Label: "Introvert", Probability: 0.7},
			{Label: "Extrovert", Probability: 0.1},
			{Label: "Ambivert", Probability: 0.2},
			{Label: "Omnivert", Probability: 0},
		},
	}
}

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func TestViewShowsLabelAndDistribution(t *testing.T) {
	s := New(sampleResult(), "s1", Options{})
	v := s.View(100, 30)

	for _, want := range []string{"Your Personality:", "Introvert", insight.Describe("Introvert"), "0.70", "0.10", "0.20", "0.00"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q", want)
		}
	}

	// Bars keep display order.
	if strings.Index(v, "Extrovert") > strings.Index(v, "Ambivert") {
		t.Error("expected Extrovert before Ambivert")
	}
}

func TestRecordsResult(t *testing.T) {
	repo := &fakeRepo{}
	s := New(sampleResult(), "s1", Options{
		Recorder: history.NewRecorder(repo, store.SourceTUI, "00000000000000ab", nil),
	})

	msg := s.recordCmd()()
	var scr screen.Screen = s
	scr.Update(msg)

	if len(repo.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(repo.records))
	}
	rec := repo.records[0]
	if rec.SessionID != "s1" || rec.Source != store.SourceTUI || rec.Label != "Introvert" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if s.notice != "" {
		t.Errorf("expected no notice, got %q", s.notice)
	}
}

func TestRecordFailureShowsNotice(t *testing.T) {
	repo := &fakeRepo{err: errors.New("disk full")}
	s := New(sampleResult(), "s1", Options{
		Recorder: history.NewRecorder(repo, store.SourceTUI, "", nil),
	})

	var scr screen.Screen = s
	scr.Update(s.recordCmd()())

	if !s.failed || !strings.Contains(s.View(100, 30), "not saved") {
		t.Errorf("expected a failure notice, got %q", s.notice)
	}
}

func TestNarrative(t *testing.T) {
	fake := llm.NewFake(llm.FakeReply{
		JSON: `{"headline":"The quiet strategist","narrative":"You recharge alone."}`,
	})
	svc := insight.NewService(fake, quiz.DefaultQuestions(), insight.DefaultConfig(), nil)
	s := New(sampleResult(), "s1", Options{Insight: svc})

	if s.Init() == nil {
		t.Fatal("expected init commands")
	}
	if !s.narrating {
		t.Fatal("expected narrative to be loading")
	}
	if !strings.Contains(s.View(100, 30), "Writing your insight") {
		t.Error("expected the loading line")
	}

	var scr screen.Screen = s
	scr.Update(s.narrateCmd()())

	if s.narrating {
		t.Error("expected narrative loaded")
	}
	v := s.View(100, 30)
	if !strings.Contains(v, "The quiet strategist") || !strings.Contains(v, "You recharge alone.") {
		t.Error("expected the generated narrative in the view")
	}
	if len(fake.Prompts()) != 1 {
		t.Errorf("expected 1 provider call, got %d", len(fake.Prompts()))
	}
}

func TestNoNarrativeWithoutProvider(t *testing.T) {
	s := New(sampleResult(), "s1", Options{})
	s.Init()
	if s.narrating {
		t.Error("expected no narrative request without a provider")
	}
}

func TestExportChart(t *testing.T) {
	dir := t.TempDir()
	fixed := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	s := New(sampleResult(), "s1", Options{
		ChartDir: dir,
		Now:      func() time.Time { return fixed },
	})

	var scr screen.Screen = s
	_, cmd := scr.Update(keyPress('c'))
	if cmd == nil {
		t.Fatal("expected an export command")
	}
	msg, ok := cmd().(chartExportedMsg)
	if !ok {
		t.Fatalf("expected chartExportedMsg, got %T", cmd())
	}
	if msg.Err != nil {
		t.Fatalf("export failed: %v", msg.Err)
	}
	if filepath.Dir(filepath.Dir(msg.Path)) != dir {
		t.Errorf("expected chart under %s, got %s", dir, msg.Path)
	}
	if _, err := os.Stat(msg.Path); err != nil {
		t.Errorf("expected chart file: %v", err)
	}

	scr.Update(msg)
	if !strings.Contains(s.notice, "Chart saved") {
		t.Errorf("unexpected notice %q", s.notice)
	}
}

func TestExportDisabledWithoutDir(t *testing.T) {
	s := New(sampleResult(), "s1", Options{})
	var scr screen.Screen = s
	if _, cmd := scr.Update(keyPress('c')); cmd != nil {
		t.Error("expected no export without a chart dir")
	}
}

func TestEnterReturnsHome(t *testing.T) {
	s := New(sampleResult(), "s1", Options{})
	var scr screen.Screen = s
	_, cmd := scr.Update(specialKey(tea.KeyEnter))
	if cmd == nil {
		t.Fatal("expected a command")
	}
	if _, ok := cmd().(router.PopToRootMsg); !ok {
		t.Errorf("expected PopToRootMsg, got %T", cmd())
	}
}
