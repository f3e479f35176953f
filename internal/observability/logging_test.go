package observability

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

func newLoggedApp(t *testing.T) (*fiber.App, *observer.ObservedLogs, *Metrics) {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	metrics := NewMetrics()

	app := fiber.New()
	app.Use(recover.New())
	app.Use(RequestLogger(zap.New(core), metrics))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/missing", func(c *fiber.Ctx) error { return errorutil.NewNotFound() })
	app.Get("/boom", func(c *fiber.Ctx) error { panic("kaboom") })
	return app, logs, metrics
}

func TestRequestLogger_OneLinePerRequest(t *testing.T) {
	app, logs, metrics := newLoggedApp(t)

	for _, path := range []string{"/ok", "/missing"} {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, path, nil), -1)
		require.NoError(t, err)
		resp.Body.Close()
	}

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 2)
	assert.Equal(t, int64(200), entries[0].ContextMap()["status"])
	assert.Equal(t, int64(404), entries[1].ContextMap()["status"])
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requestCount.WithLabelValues("/missing", "GET", "404")))
}

func TestRequestLogger_PanicIsLoggedAndReraised(t *testing.T) {
	app, logs, metrics := newLoggedApp(t)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/boom", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(500), entries[0].ContextMap()["status"])
	assert.Equal(t, "/boom", entries[0].ContextMap()["route"])
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requestCount.WithLabelValues("/boom", "GET", "500")))
}
