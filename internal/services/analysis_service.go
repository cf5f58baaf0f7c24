package services

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"csvinsight/internal/analysis"
	"csvinsight/internal/metrics"
	"csvinsight/internal/models"
	"csvinsight/pkg/logger"

	"github.com/spf13/afero"
)

// ChartRenderer draws the charts of an analyzed table.
type ChartRenderer interface {
	Render(requestID string, t *analysis.Table) ([]models.Chart, error)
}

// EventPublisher publishes domain events. Implemented by rabbitmq.Client.
type EventPublisher interface {
	PublishJSON(v any) error
}

// AnalysisService turns a stored CSV file into statistics and charts.
type AnalysisService struct {
	fs     afero.Fs
	charts ChartRenderer
	events EventPublisher
	now    func() time.Time
}

// NewAnalysisService creates an AnalysisService. events may be nil.
func NewAnalysisService(fs afero.Fs, charts ChartRenderer, events EventPublisher) *AnalysisService {
	return &AnalysisService{
		fs:     fs,
		charts: charts,
		events: events,
		now:    time.Now,
	}
}

// Analyze parses the file at path, describes every column and renders the
// charts for requestID. A malformed file fails with *analysis.ParseError.
func (s *AnalysisService) Analyze(ctx context.Context, requestID, user, path string) (*models.AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := s.now()

	table, err := analysis.ReadFile(s.fs, path)
	if err != nil {
		return nil, err
	}

	statsHTML, err := analysis.Describe(table).HTML()
	if err != nil {
		return nil, err
	}

	charts, err := s.charts.Render(requestID, table)
	if err != nil {
		return nil, fmt.Errorf("failed to render charts: %w", err)
	}

	result := &models.AnalysisResult{
		RequestID:          requestID,
		Filename:           filepath.Base(path),
		Rows:               table.Rows,
		Columns:            table.ColumnNames(),
		NumericColumns:     names(table.NumericColumns()),
		CategoricalColumns: names(table.CategoricalColumns()),
		StatsHTML:          statsHTML,
		Charts:             charts,
	}

	metrics.AnalysisDuration.Observe(s.now().Sub(start).Seconds())
	chartLabels := make([]string, len(charts))
	for i, c := range charts {
		metrics.ChartsRenderedTotal.WithLabelValues(c.Label).Inc()
		chartLabels[i] = c.Label
	}

	log := logger.Get()
	log.Info().
		Str("request_id", requestID).
		Str("user", user).
		Str("file", result.Filename).
		Int("rows", result.Rows).
		Int("columns", len(result.Columns)).
		Strs("charts", chartLabels).
		Msg("upload analyzed")

	s.publish(models.AnalysisEvent{
		RequestID:  requestID,
		User:       user,
		Filename:   result.Filename,
		Rows:       result.Rows,
		Columns:    len(result.Columns),
		Charts:     chartLabels,
		AnalyzedAt: s.now().UTC(),
	})
	return result, nil
}

// publish never fails the request; a broken broker only costs the event.
func (s *AnalysisService) publish(event models.AnalysisEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishJSON(event); err != nil {
		log := logger.Get()
		log.Warn().Err(err).Str("request_id", event.RequestID).Msg("failed to publish analysis event")
	}
}

func names(cols []*analysis.Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name
	}
	return out
}
