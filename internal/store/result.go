package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	json "github.com/goccy/go-json"
)

var resultColumns = []string{
	"id", "sequence", "session_id", "answers", "label", "confidence",
	"distribution", "pair_id", "source", "created_at",
}

// resultRepo implements ResultRepo with SQL built by ent's dialect builder.
type resultRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

func (r *resultRepo) AppendResult(ctx context.Context, rec *ResultRecord) error {
	answers, err := json.Marshal(rec.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	dist, err := json.Marshal(rec.Distribution)
	if err != nil {
		return fmt.Errorf("marshal distribution: %w", err)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return err
	}

	query, args := builder().Insert("results").
		Columns("sequence", "session_id", "answers", "label", "confidence",
			"distribution", "pair_id", "source", "created_at").
		Values(seqNum, rec.SessionID, string(answers), rec.Label, rec.Confidence,
			string(dist), rec.PairID, rec.Source, formatTime(rec.CreatedAt)).
		Query()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("result id: %w", err)
	}

	rec.ID = id
	rec.Sequence = seqNum
	return nil
}

func (r *resultRepo) QueryResults(ctx context.Context, opts QueryOpts) ([]ResultRecord, error) {
	sel := builder().Select(resultColumns...).From(entsql.Table("results"))
	if opts.Label != "" {
		sel.Where(entsql.EQ("label", opts.Label))
	}
	if opts.Source != "" {
		sel.Where(entsql.EQ("source", opts.Source))
	}
	if !opts.From.IsZero() {
		sel.Where(entsql.GTE("created_at", formatTime(opts.From)))
	}
	if !opts.To.IsZero() {
		sel.Where(entsql.LTE("created_at", formatTime(opts.To)))
	}
	sel.OrderBy(entsql.Desc("sequence"))
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}

	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	var out []ResultRecord
	for rows.Next() {
		rec, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return out, nil
}

func (r *resultRepo) LabelCounts(ctx context.Context) ([]LabelCount, error) {
	query, args := builder().
		Select("label", entsql.As(entsql.Count("*"), "n")).
		From(entsql.Table("results")).
		GroupBy("label").
		OrderBy(entsql.Desc("n"), "label").
		Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count labels: %w", err)
	}
	defer rows.Close()

	var out []LabelCount
	for rows.Next() {
		var lc LabelCount
		if err := rows.Scan(&lc.Label, &lc.Count); err != nil {
			return nil, fmt.Errorf("scan label count: %w", err)
		}
		out = append(out, lc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate label counts: %w", err)
	}
	return out, nil
}

func (r *resultRepo) Clear(ctx context.Context) (int64, error) {
	query, args := builder().Delete("results").Query()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("clear results: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear results: %w", err)
	}
	return n, nil
}

func scanResult(rows *sql.Rows) (ResultRecord, error) {
	var (
		rec       ResultRecord
		answers   string
		dist      string
		createdAt string
	)
	err := rows.Scan(&rec.ID, &rec.Sequence, &rec.SessionID, &answers, &rec.Label,
		&rec.Confidence, &dist, &rec.PairID, &rec.Source, &createdAt)
	if err != nil {
		return ResultRecord{}, fmt.Errorf("scan result: %w", err)
	}
	if err := json.Unmarshal([]byte(answers), &rec.Answers); err != nil {
		return ResultRecord{}, fmt.Errorf("decode answers of result %d: %w", rec.ID, err)
	}
	if err := json.Unmarshal([]byte(dist), &rec.Distribution); err != nil {
		return ResultRecord{}, fmt.Errorf("decode distribution of result %d: %w", rec.ID, err)
	}
	if rec.CreatedAt, err = parseTime(createdAt); err != nil {
		return ResultRecord{}, fmt.Errorf("decode created_at of result %d: %w", rec.ID, err)
	}
	return rec, nil
}
