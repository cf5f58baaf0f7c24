package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"csvinsight/internal/config"
	"csvinsight/internal/database"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testConfig() *config.Config {
	return &config.Config{
		DBDriver:       config.DriverSQLite,
		UploadDir:      "uploads",
		StaticDir:      "static",
		MaxUploadBytes: 1 << 20,
		SessionSecret:  "test_session_secret",
		SessionTTL:     time.Hour,
		BcryptCost:     bcrypt.MinCost,
	}
}

func newTestApp(t *testing.T) (*fiber.App, afero.Fs) {
	t.Helper()
	db, err := database.Open(config.DriverSQLite, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	fs := afero.NewMemMapFs()
	app, err := New(testConfig(), Dependencies{DB: db, Fs: fs})
	require.NoError(t, err)
	return app, fs
}

func TestNew_RequiresDatabase(t *testing.T) {
	_, err := New(testConfig(), Dependencies{})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "connected", body["database"])
}

func TestMetrics(t *testing.T) {
	app, _ := newTestApp(t)

	// Produce at least one sample of a labelled counter.
	_, err := app.Test(httptest.NewRequest(http.MethodGet, "/upload", nil), -1)
	require.NoError(t, err)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(b), "csvinsight_analysis_duration_seconds")
}

func TestStaticFiles(t *testing.T) {
	app, fs := newTestApp(t)
	require.NoError(t, afero.WriteFile(fs, "static/charts/r1/hist.png", []byte("\x89PNGdata"), 0o644))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/static/charts/r1/hist.png", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get(fiber.HeaderContentType))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/static/charts/r1/missing.png", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/static/../uploads/secret.csv", nil), -1)
	require.NoError(t, err)
	assert.NotEqual(t, fiber.StatusOK, resp.StatusCode)
}

func TestRequestIDHeader(t *testing.T) {
	app, _ := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	require.NoError(t, err)
	_, err = uuid.Parse(resp.Header.Get(fiber.HeaderXRequestID))
	assert.NoError(t, err)
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: errorHandler})
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("database exploded") })
	app.Get("/teapot", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusTeapot, "short and stout") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	b, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "Internal Server Error", string(b))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/teapot", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTeapot, resp.StatusCode)
	b, _ = io.ReadAll(resp.Body)
	assert.Equal(t, "short and stout", string(b))
}

func TestBootstrap(t *testing.T) {
	cfg := testConfig()
	cfg.DatabaseDSN = filepath.Join(t.TempDir(), "database.db")

	srv, err := Bootstrap(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, srv.App)

	resp, err := srv.App.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.NoError(t, srv.Close())
	assert.NoError(t, srv.Close())
}

func TestBootstrap_UnreachableRedis(t *testing.T) {
	cfg := testConfig()
	cfg.DatabaseDSN = filepath.Join(t.TempDir(), "database.db")
	cfg.RedisAddr = "127.0.0.1:1"

	_, err := Bootstrap(context.Background(), cfg)
	assert.Error(t, err)
}

func TestLogAnalysisEvent(t *testing.T) {
	assert.NoError(t, logAnalysisEvent(amqp.Delivery{Body: []byte(`{"request_id":"r1","rows":2}`)}))
	assert.NoError(t, logAnalysisEvent(amqp.Delivery{Body: []byte(`garbage`)}))
}
