// Package charts renders the histogram, scatter and bar charts shown on the
// upload result page.
package charts

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"path"
	"path/filepath"
	"strings"
	"time"

	"csvinsight/internal/analysis"
	"csvinsight/internal/models"
	"csvinsight/pkg/logger"

	"github.com/spf13/afero"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// File names, one per chart kind, inside a request's chart directory.
const (
	HistogramFile = "hist.png"
	ScatterFile   = "scatter.png"
	BarFile       = "bar.png"
)

// TopCategories is the number of values shown on the bar chart.
const TopCategories = 10

const (
	defaultWidth  = 500
	defaultHeight = 400
)

var (
	colorSkyBlue = drawing.ColorFromHex("87ceeb")
	colorTomato  = drawing.ColorFromHex("ff6347")
	colorOrange  = drawing.ColorFromHex("ffa500")
)

// Renderer writes chart images below <dir>/charts/<request id>/ on fs.
type Renderer struct {
	fs        afero.Fs
	dir       string
	urlPrefix string
	Width     int
	Height    int
	// MaxAge is how long a request's charts are kept. Older request
	// directories are removed on the next Render. Zero keeps them forever.
	MaxAge time.Duration
	now    func() time.Time
}

// NewRenderer creates a Renderer writing under dir on fs. Generated images are
// reachable below urlPrefix.
func NewRenderer(fs afero.Fs, dir, urlPrefix string) *Renderer {
	return &Renderer{
		fs:        fs,
		dir:       dir,
		urlPrefix: urlPrefix,
		Width:     defaultWidth,
		Height:    defaultHeight,
		now:       time.Now,
	}
}

// Render applies the chart selection policy to t:
//
//  1. a histogram of the first numeric column,
//  2. a scatter plot of the first against the second numeric column,
//  3. a bar chart of the most frequent values of the first categorical column.
//
// Steps whose precondition is unmet are skipped; the rest are returned in that
// order.
func (r *Renderer) Render(requestID string, t *analysis.Table) ([]models.Chart, error) {
	if requestID == "" || strings.ContainsAny(requestID, `/\.`) {
		return nil, fmt.Errorf("invalid chart request id %q", requestID)
	}
	r.prune()

	dir := filepath.Join(r.dir, "charts", requestID)
	if err := r.fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create chart directory: %w", err)
	}

	var out []models.Chart
	add := func(label, title, file string, body []byte) error {
		p := filepath.Join(dir, file)
		if err := afero.WriteFile(r.fs, p, body, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", file, err)
		}
		out = append(out, models.Chart{
			Label: label,
			Title: title,
			Path:  p,
			URL:   path.Join(r.urlPrefix, "charts", requestID, file),
		})
		return nil
	}

	numeric := t.NumericColumns()
	if len(numeric) >= 1 {
		col := numeric[0]
		title := "Histogram: " + col.Name
		body, err := r.histogram(title, col)
		switch {
		case errors.Is(err, errNothingToPlot):
		case err != nil:
			return nil, err
		default:
			if err := add(models.ChartHistogram, title, HistogramFile, body); err != nil {
				return nil, err
			}
		}
	}

	if len(numeric) >= 2 {
		x, y := numeric[0], numeric[1]
		title := fmt.Sprintf("Scatter: %s vs %s", x.Name, y.Name)
		body, err := r.scatter(title, x, y)
		switch {
		case errors.Is(err, errNothingToPlot):
		case err != nil:
			return nil, err
		default:
			if err := add(models.ChartScatter, title, ScatterFile, body); err != nil {
				return nil, err
			}
		}
	}

	if categorical := t.CategoricalColumns(); len(categorical) >= 1 {
		col := categorical[0]
		title := "Top categories: " + col.Name
		body, err := r.bar(title, col)
		switch {
		case errors.Is(err, errNothingToPlot):
		case err != nil:
			return nil, err
		default:
			if err := add(models.ChartBar, title, BarFile, body); err != nil {
				return nil, err
			}
		}
	}

	return out, nil
}

// prune removes request directories older than MaxAge. Failures are logged
// and skipped.
func (r *Renderer) prune() {
	if r.MaxAge <= 0 {
		return
	}
	root := filepath.Join(r.dir, "charts")
	entries, err := afero.ReadDir(r.fs, root)
	if err != nil {
		return
	}

	log := logger.Get()
	cutoff := r.now().Add(-r.MaxAge)
	for _, e := range entries {
		if !e.IsDir() || !e.ModTime().Before(cutoff) {
			continue
		}
		if err := r.fs.RemoveAll(filepath.Join(root, e.Name())); err != nil {
			log.Warn().Err(err).Str("request_id", e.Name()).Msg("failed to remove old charts")
			continue
		}
		log.Debug().Str("request_id", e.Name()).Msg("removed old charts")
	}
}

// errNothingToPlot marks a chart step that is skipped: no values, or a value
// range too wide to draw.
var errNothingToPlot = errors.New("no values to plot")

func (r *Renderer) histogram(title string, col *analysis.Column) ([]byte, error) {
	bins := analysis.Histogram(col.Floats(), analysis.DefaultBins)
	if len(bins) == 0 {
		return nil, errNothingToPlot
	}
	bars := make([]chart.Value, len(bins))
	maxCount := 0
	for i, b := range bins {
		bars[i] = chart.Value{
			Label: analysis.FormatNumber(b.Lower),
			Value: float64(b.Count),
			Style: chart.Style{FillColor: colorSkyBlue, StrokeColor: drawing.ColorBlack, StrokeWidth: 1},
		}
		maxCount = max(maxCount, b.Count)
	}
	return r.renderBars(title, bars, maxCount)
}

func (r *Renderer) bar(title string, col *analysis.Column) ([]byte, error) {
	top := analysis.TopValues(col, TopCategories)
	if len(top) == 0 {
		return nil, errNothingToPlot
	}
	bars := make([]chart.Value, len(top))
	for i, vc := range top {
		bars[i] = chart.Value{
			Label: vc.Value,
			Value: float64(vc.Count),
			Style: chart.Style{FillColor: colorOrange, StrokeColor: drawing.ColorBlack, StrokeWidth: 1},
		}
	}
	return r.renderBars(title, bars, top[0].Count)
}

func (r *Renderer) renderBars(title string, bars []chart.Value, maxCount int) ([]byte, error) {
	barWidth := min(max(300/len(bars), 6), 50)
	bc := chart.BarChart{
		Title:      title,
		Width:      r.Width,
		Height:     r.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 10, Right: 10, Bottom: 10}},
		BarWidth:   barWidth,
		BarSpacing: max(barWidth/3, 2),
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: float64(max(maxCount, 1))},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := bc.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render %q: %w", title, err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) scatter(title string, xcol, ycol *analysis.Column) ([]byte, error) {
	var xs, ys []float64
	for i := range xcol.Numbers {
		if xcol.Missing[i] || ycol.Missing[i] {
			continue
		}
		xs = append(xs, xcol.Numbers[i])
		ys = append(ys, ycol.Numbers[i])
	}
	if len(xs) == 0 {
		return nil, errNothingToPlot
	}
	xr, ok := paddedRange(xs)
	if !ok {
		return nil, errNothingToPlot
	}
	yr, ok := paddedRange(ys)
	if !ok {
		return nil, errNothingToPlot
	}

	ch := chart.Chart{
		Title:      title,
		Width:      r.Width,
		Height:     r.Height,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 10}},
		XAxis:      chart.XAxis{Name: xcol.Name, Range: xr},
		YAxis:      chart.YAxis{Name: ycol.Name, Range: yr},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name: title,
				Style: chart.Style{
					StrokeWidth: chart.Disabled,
					DotWidth:    4,
					DotColor:    colorTomato.WithAlpha(178),
				},
				XValues: xs,
				YValues: ys,
			},
		},
	}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render %q: %w", title, err)
	}
	return buf.Bytes(), nil
}

// paddedRange returns an axis range around xs with a 5% margin, so that a
// single point or a constant series still has a non-zero extent. ok is false
// when the range cannot be represented as a finite float64 extent.
func paddedRange(xs []float64) (rng *chart.ContinuousRange, ok bool) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, x := range xs {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = math.Max(math.Abs(lo)*0.05, 0.5)
	}
	lo, hi = lo-pad, hi+pad
	if math.IsInf(lo, 0) || math.IsInf(hi, 0) || math.IsInf(hi-lo, 0) {
		return nil, false
	}
	return &chart.ContinuousRange{Min: lo, Max: hi}, true
}
