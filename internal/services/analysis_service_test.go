package services_test

import (
	"context"
	"errors"
	"testing"

	"csvinsight/internal/analysis"
	"csvinsight/internal/charts"
	"csvinsight/internal/models"
	"csvinsight/internal/services"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockEventPublisher is a mock implementation of services.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishJSON(v any) error {
	args := m.Called(v)
	return args.Error(0)
}

func writeCSV(t *testing.T, fs afero.Fs, path, body string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(body), 0o644))
}

func TestAnalysisService_Analyze(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeCSV(t, fs, "uploads/people.csv", "name,age,score\nann,30,1.5\nbob,40,2.5\nann,50,3.5\n")

	publisher := new(MockEventPublisher)
	publisher.On("PublishJSON", mock.MatchedBy(func(e models.AnalysisEvent) bool {
		return e.RequestID == "req1" && e.User == "ann@example.com" && e.Rows == 3 && e.Columns == 3
	})).Return(nil).Once()

	svc := services.NewAnalysisService(fs, charts.NewRenderer(fs, "static", "/static"), publisher)
	result, err := svc.Analyze(context.Background(), "req1", "ann@example.com", "uploads/people.csv")
	require.NoError(t, err)

	assert.Equal(t, "people.csv", result.Filename)
	assert.Equal(t, 3, result.Rows)
	assert.Equal(t, []string{"name", "age", "score"}, result.Columns)
	assert.Equal(t, []string{"age", "score"}, result.NumericColumns)
	assert.Equal(t, []string{"name"}, result.CategoricalColumns)
	assert.Contains(t, string(result.StatsHTML), "table table-striped table-bordered")

	require.Len(t, result.Charts, 3)
	assert.Equal(t, models.ChartHistogram, result.Charts[0].Label)
	assert.Equal(t, models.ChartScatter, result.Charts[1].Label)
	assert.Equal(t, models.ChartBar, result.Charts[2].Label)
	assert.Equal(t, "/static/charts/req1/hist.png", result.Charts[0].URL)
	publisher.AssertExpectations(t)
}

func TestAnalysisService_Analyze_PublishFailureIgnored(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeCSV(t, fs, "uploads/a.csv", "x\n1\n")

	publisher := new(MockEventPublisher)
	publisher.On("PublishJSON", mock.Anything).Return(errors.New("broker down")).Once()

	svc := services.NewAnalysisService(fs, charts.NewRenderer(fs, "static", "/static"), publisher)
	result, err := svc.Analyze(context.Background(), "req2", "", "uploads/a.csv")
	require.NoError(t, err)
	assert.Len(t, result.Charts, 1)
	publisher.AssertExpectations(t)
}

func TestAnalysisService_Analyze_NoPublisher(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeCSV(t, fs, "uploads/a.csv", "city\nParis\nRome\n")

	svc := services.NewAnalysisService(fs, charts.NewRenderer(fs, "static", "/static"), nil)
	result, err := svc.Analyze(context.Background(), "req3", "", "uploads/a.csv")
	require.NoError(t, err)
	require.Len(t, result.Charts, 1)
	assert.Equal(t, models.ChartBar, result.Charts[0].Label)
	assert.Empty(t, result.NumericColumns)
}

func TestAnalysisService_Analyze_ParseError(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeCSV(t, fs, "uploads/bad.csv", "a,b\n1,2,3\n")

	svc := services.NewAnalysisService(fs, charts.NewRenderer(fs, "static", "/static"), nil)
	_, err := svc.Analyze(context.Background(), "req4", "", "uploads/bad.csv")

	var parseErr *analysis.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 2, parseErr.Line)

	exists, _ := afero.DirExists(fs, "static/charts/req4")
	assert.False(t, exists)
}

func TestAnalysisService_Analyze_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := services.NewAnalysisService(afero.NewMemMapFs(), charts.NewRenderer(afero.NewMemMapFs(), "static", "/static"), nil)
	_, err := svc.Analyze(ctx, "req5", "", "uploads/a.csv")
	assert.ErrorIs(t, err, context.Canceled)
}
