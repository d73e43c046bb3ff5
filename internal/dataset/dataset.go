// Package dataset reads the labeled quiz dataset the trainer fits on.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/zeebo/xxh3"

	"github.com/abhisek/persona/internal/model"
)

// LabelColumn is the header of the personality label column.
const LabelColumn = "Personality"

// FeatureColumns are the answer columns, in feature order.
var FeatureColumns = []string{"Q1", "Q2", "Q3", "Q4", "Q5"}

// maxReportedRows caps how many bad rows a single DataLoadError lists.
const maxReportedRows = 20

// ErrEmpty is returned when the dataset has a header but no rows.
var ErrEmpty = errors.New("dataset has no rows")

// Row is one labeled sample.
type Row struct {
	Features []int
	Label    string
}

// Dataset is a validated, in-memory training set.
type Dataset struct {
	Path string
	Rows []Row
}

// Load reads and validates the CSV dataset at path.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &DataLoadError{Path: path, Err: err}
	}
	defer f.Close()

	ds, err := Read(f)
	if err != nil {
		return nil, &DataLoadError{Path: path, Err: err}
	}
	ds.Path = path
	return ds, nil
}

// Read parses a dataset from r. Columns are matched by header name; extra
// columns are ignored. All invalid rows are reported together.
func Read(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{}
	var errs *multierror.Error
	bad := 0
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		if blank(record) {
			continue
		}
		row, rowErrs := parseRow(record, cols, line)
		if len(rowErrs) > 0 {
			bad++
			if bad <= maxReportedRows {
				errs = multierror.Append(errs, rowErrs...)
			}
			continue
		}
		ds.Rows = append(ds.Rows, row)
	}
	if bad > maxReportedRows {
		errs = multierror.Append(errs, fmt.Errorf("%d more invalid rows not shown", bad-maxReportedRows))
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	if len(ds.Rows) == 0 {
		return nil, ErrEmpty
	}
	return ds, nil
}

type columns struct {
	features []int
	label    int
}

func columnIndex(header []string) (columns, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := pos[h]; !dup {
			pos[h] = i
		}
	}

	var missing []string
	cols := columns{features: make([]int, len(FeatureColumns))}
	for i, name := range FeatureColumns {
		p, ok := pos[name]
		if !ok {
			missing = append(missing, name)
		}
		cols.features[i] = p
	}
	p, ok := pos[LabelColumn]
	if !ok {
		missing = append(missing, LabelColumn)
	}
	cols.label = p

	if len(missing) > 0 {
		return columns{}, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

func parseRow(record []string, cols columns, line int) (Row, []error) {
	var errs []error
	field := func(i int) (string, bool) {
		if i >= len(record) {
			return "", false
		}
		return strings.TrimSpace(record[i]), true
	}

	row := Row{Features: make([]int, len(cols.features))}
	for f, idx := range cols.features {
		raw, ok := field(idx)
		if !ok {
			errs = append(errs, &RowError{Line: line, Column: FeatureColumns[f], Reason: "missing value"})
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 || v >= model.FeatureDomain {
			errs = append(errs, &RowError{
				Line:   line,
				Column: FeatureColumns[f],
				Reason: fmt.Sprintf("%q is not an integer in [0,%d)", raw, model.FeatureDomain),
			})
			continue
		}
		row.Features[f] = v
	}

	label, ok := field(cols.label)
	switch {
	case !ok:
		errs = append(errs, &RowError{Line: line, Column: LabelColumn, Reason: "missing value"})
	case label == "":
		errs = append(errs, &RowError{Line: line, Column: LabelColumn, Reason: "empty label"})
	}
	row.Label = label
	return row, errs
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.Rows) }

// Features returns the feature matrix, one row per sample.
func (d *Dataset) Features() [][]int {
	X := make([][]int, len(d.Rows))
	for i, r := range d.Rows {
		X[i] = append([]int(nil), r.Features...)
	}
	return X
}

// Labels returns the label column.
func (d *Dataset) Labels() []string {
	out := make([]string, len(d.Rows))
	for i, r := range d.Rows {
		out[i] = r.Label
	}
	return out
}

// Fingerprint hashes the normalized rows in order. Formatting differences in
// the source file (whitespace, column order, extra columns) do not change it.
func (d *Dataset) Fingerprint() string {
	h := xxh3.New()
	var buf []byte
	for _, r := range d.Rows {
		buf = buf[:0]
		for _, v := range r.Features {
			buf = strconv.AppendInt(buf, int64(v), 10)
			buf = append(buf, ',')
		}
		buf = append(buf, r.Label...)
		buf = append(buf, '\n')
		_, _ = h.Write(buf)
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
