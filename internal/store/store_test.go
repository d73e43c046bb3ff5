package store

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"entgo.io/ent"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "persona.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)

	for _, table := range []string{"results", "llm_requests", "global_sequence"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Fatalf("table %s: %v", table, err)
		}
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persona.db")
	for i := 0; i < 2; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		if err := s.Close(); err != nil {
			t.Fatalf("close %d: %v", i, err)
		}
	}
}

func TestSequenceCounter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var seqs []int64
	for i := 0; i < 5; i++ {
		seq, err := s.seq.Next(ctx)
		if err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		seqs = append(seqs, seq)
	}

	// Should be monotonically increasing starting from 1.
	for i, seq := range seqs {
		expected := int64(i + 1)
		if seq != expected {
			t.Errorf("seq[%d] = %d, want %d", i, seq, expected)
		}
	}
}

func sampleResult(label string, createdAt time.Time) *ResultRecord {
	return &ResultRecord{
		SessionID:  "session-" + label,
		Answers:    []int{0, 0, 1, 2, 0},
		Label:      label,
		Confidence: 0.7,
		Distribution: []LabelScore{
			{Label: "Introvert", Probability: 0.7},
			{Label: "Extrovert", Probability: 0.1},
			{Label: "Ambivert", Probability: 0.1},
			{Label: "Omnivert", Probability: 0.1},
		},
		PairID:    "0123456789abcdef",
		Source:    SourceTUI,
		CreatedAt: createdAt,
	}
}

func TestAppendAndQueryResults(t *testing.T) {
	s := openTestStore(t)
	repo := s.ResultRepo()
	ctx := context.Background()

	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	labels := []string{"Introvert", "Extrovert", "Introvert"}
	for i, l := range labels {
		rec := sampleResult(l, base.Add(time.Duration(i)*time.Hour))
		if err := repo.AppendResult(ctx, rec); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if rec.ID == 0 || rec.Sequence == 0 {
			t.Fatalf("append %d: ID/Sequence not set: %+v", i, rec)
		}
	}

	all, err := repo.QueryResults(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d results, want 3", len(all))
	}
	// Newest first.
	if !all[0].CreatedAt.Equal(base.Add(2 * time.Hour)) {
		t.Errorf("first result created_at = %v", all[0].CreatedAt)
	}
	got := all[2]
	if got.Label != "Introvert" || got.Confidence != 0.7 || got.PairID != "0123456789abcdef" {
		t.Errorf("unexpected record: %+v", got)
	}
	if len(got.Answers) != 5 || got.Answers[3] != 2 {
		t.Errorf("answers = %v", got.Answers)
	}
	if len(got.Distribution) != 4 || got.Distribution[0].Label != "Introvert" {
		t.Errorf("distribution = %v", got.Distribution)
	}

	limited, err := repo.QueryResults(ctx, QueryOpts{Limit: 2})
	if err != nil {
		t.Fatalf("query limit: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limit: got %d, want 2", len(limited))
	}

	intro, err := repo.QueryResults(ctx, QueryOpts{Label: "Introvert"})
	if err != nil {
		t.Fatalf("query label: %v", err)
	}
	if len(intro) != 2 {
		t.Errorf("label filter: got %d, want 2", len(intro))
	}

	window, err := repo.QueryResults(ctx, QueryOpts{
		From: base.Add(30 * time.Minute),
		To:   base.Add(90 * time.Minute),
	})
	if err != nil {
		t.Fatalf("query window: %v", err)
	}
	if len(window) != 1 || window[0].Label != "Extrovert" {
		t.Errorf("time window: got %+v", window)
	}

	http, err := repo.QueryResults(ctx, QueryOpts{Source: SourceHTTP})
	if err != nil {
		t.Fatalf("query source: %v", err)
	}
	if len(http) != 0 {
		t.Errorf("source filter: got %d, want 0", len(http))
	}
}

func TestLabelCountsAndClear(t *testing.T) {
	s := openTestStore(t)
	repo := s.ResultRepo()
	ctx := context.Background()

	for _, l := range []string{"Ambivert", "Introvert", "Introvert", "Extrovert", "Introvert", "Ambivert"} {
		if err := repo.AppendResult(ctx, sampleResult(l, time.Time{})); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	counts, err := repo.LabelCounts(ctx)
	if err != nil {
		t.Fatalf("label counts: %v", err)
	}
	want := []LabelCount{{"Introvert", 3}, {"Ambivert", 2}, {"Extrovert", 1}}
	if len(counts) != len(want) {
		t.Fatalf("counts = %v, want %v", counts, want)
	}
	for i := range want {
		if counts[i] != want[i] {
			t.Errorf("counts[%d] = %v, want %v", i, counts[i], want[i])
		}
	}

	n, err := repo.Clear(ctx)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if n != 6 {
		t.Errorf("cleared %d, want 6", n)
	}
	rest, err := repo.QueryResults(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query after clear: %v", err)
	}
	if len(rest) != 0 {
		t.Errorf("got %d results after clear", len(rest))
	}
}

func TestAppendLLMRequest(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	events := []LLMRequestEventData{
		{Provider: "mock", Model: "mock", Purpose: "insight", InputTokens: 10, OutputTokens: 5, LatencyMs: 12, Success: true},
		{Provider: "mock", Model: "mock", Purpose: "insight", Success: false, ErrorMessage: "boom"},
		{Provider: "mock", Model: "mock", Purpose: "other", Success: true},
	}
	for _, e := range events {
		if err := repo.AppendLLMRequest(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	n, err := repo.CountLLMRequests(ctx, "insight")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Errorf("insight requests = %d, want 2", n)
	}
	n, err = repo.CountLLMRequests(ctx, "")
	if err != nil {
		t.Fatalf("count all: %v", err)
	}
	if n != 3 {
		t.Errorf("all requests = %d, want 3", n)
	}
}

func TestResultsAndEventsShareSequence(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := sampleResult("Introvert", time.Time{})
	if err := s.ResultRepo().AppendResult(ctx, rec); err != nil {
		t.Fatalf("append result: %v", err)
	}
	if err := s.EventRepo().AppendLLMRequest(ctx, LLMRequestEventData{Provider: "mock", Model: "mock", Purpose: "insight"}); err != nil {
		t.Fatalf("append event: %v", err)
	}
	rec2 := sampleResult("Extrovert", time.Time{})
	if err := s.ResultRepo().AppendResult(ctx, rec2); err != nil {
		t.Fatalf("append result: %v", err)
	}

	if rec.Sequence != 1 || rec2.Sequence != 3 {
		t.Errorf("sequences = %d, %d, want 1, 3", rec.Sequence, rec2.Sequence)
	}
}

func TestMigrationFollowsEntSchema(t *testing.T) {
	s := openTestStore(t)

	tests := []struct {
		table   string
		columns []string
		indexes []string
	}{
		{
			table: "results",
			columns: []string{"id", "sequence", "created_at", "session_id", "answers",
				"label", "confidence", "distribution", "pair_id", "source"},
			indexes: []string{"results_created_at", "results_label"},
		},
		{
			table: "llm_requests",
			columns: []string{"id", "sequence", "created_at", "provider", "model", "purpose",
				"input_tokens", "output_tokens", "latency_ms", "success", "error_message"},
			indexes: []string{"llm_requests_created_at", "llm_requests_purpose"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			rows, err := s.DB().Query("SELECT name FROM pragma_table_info(?)", tt.table)
			if err != nil {
				t.Fatalf("table_info: %v", err)
			}
			var got []string
			for rows.Next() {
				var name string
				if err := rows.Scan(&name); err != nil {
					t.Fatalf("scan: %v", err)
				}
				got = append(got, name)
			}
			rows.Close()
			if strings.Join(got, ",") != strings.Join(tt.columns, ",") {
				t.Errorf("columns = %v, want %v", got, tt.columns)
			}

			for _, idx := range tt.indexes {
				var name string
				err := s.DB().QueryRow(
					"SELECT name FROM sqlite_master WHERE type='index' AND tbl_name=? AND name=?",
					tt.table, idx,
				).Scan(&name)
				if err != nil {
					t.Errorf("index %s: %v", idx, err)
				}
			}
		})
	}
}

type unannotated struct {
	ent.Schema
}

func TestTableForRequiresTableName(t *testing.T) {
	if _, err := tableFor(unannotated{}); err == nil {
		t.Fatal("expected error for schema without table annotation")
	}
}
