package chart

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/abhisek/persona/internal/inference"
)

// DefaultTitle is used when Render is given an empty title.
const DefaultTitle = "Personality Prediction Confidence"

// NewBar builds a bar chart of the result's distribution, one bar per label
// in display order. The headline label is highlighted.
func NewBar(result *inference.Result, title string) (*charts.Bar, error) {
	if result == nil || len(result.Distribution) == 0 {
		return nil, errors.New("chart: result has no distribution")
	}
	if title == "" {
		title = DefaultTitle
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("Your Personality: %s (%.2f)", result.Label, result.Confidence),
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type: "value",
			Name: "Probability",
			Min:  0,
			Max:  1,
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(false)}),
	)

	labels := make([]string, 0, len(result.Distribution))
	items := make([]opts.BarData, 0, len(result.Distribution))
	for _, lp := range result.Distribution {
		labels = append(labels, lp.Label)
		item := opts.BarData{Name: lp.Label, Value: round2(lp.Probability)}
		if lp.Label == result.Label {
			item.ItemStyle = &opts.ItemStyle{Color: "#7C3AED"}
		}
		items = append(items, item)
	}

	bar.SetXAxis(labels).
		AddSeries("Confidence", items).
		SetSeriesOptions(charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))
	return bar, nil
}

// Render writes the distribution of result as a self-contained HTML page.
func Render(w io.Writer, result *inference.Result, title string) error {
	bar, err := NewBar(result, title)
	if err != nil {
		return err
	}
	if err := bar.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

// WriteFile renders result to path, creating parent directories.
func WriteFile(path string, result *inference.Result, title string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create chart dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	if err := Render(f, result, title); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ExportPath names a timestamped chart file inside dir.
func ExportPath(dir string, now time.Time) string {
	return filepath.Join(dir, "charts", fmt.Sprintf("persona-%s.html", now.UTC().Format("20060102-150405")))
}

func round2(p float64) float64 {
	return math.Round(p*100) / 100
}
