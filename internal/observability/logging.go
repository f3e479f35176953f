package observability

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// NewLogger creates a structured zap.Logger configured via env settings.
func NewLogger(cfg config.LoggerConfig) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if err := level.Set(strings.ToLower(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	zapCfg := zap.Config{
		Level:       zap.NewAtomicLevelAt(level),
		Development: false,
		Encoding:    "json",
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey: "message",
			LevelKey:   "level",
			TimeKey:    "ts",
			CallerKey:  "caller",
			EncodeLevel: func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
				enc.AppendString(l.String())
			},
			EncodeTime:   zapcore.ISO8601TimeEncoder,
			EncodeCaller: zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return zapCfg.Build()
}

// RequestLogger logs one line per request and feeds request metrics.
// It sits inside the error middleware, so a returned error decides the status.
// A panic is logged as a 500 and then re-raised for the recovering middleware.
func RequestLogger(logger *zap.Logger, metrics *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				logRequest(c, logger, metrics, fiber.StatusInternalServerError, time.Since(start))
				panic(r)
			}
		}()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = statusOf(err)
		}
		logRequest(c, logger, metrics, status, time.Since(start))
		return err
	}
}

func logRequest(c *fiber.Ctx, logger *zap.Logger, metrics *Metrics, status int, elapsed time.Duration) {
	route := c.Route().Path
	metrics.RecordRequest(route, c.Method(), status, elapsed)

	fields := []zap.Field{
		zap.String("method", c.Method()),
		zap.String("route", route),
		zap.String("path", c.Path()),
		zap.Int("status", status),
		zap.Duration("latency", elapsed),
	}
	if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
		fields = append(fields, zap.String("request_id", rid))
	}
	logger.Info("request", fields...)
}

func statusOf(err error) int {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}
	return errorutil.ToDomainError(err).HTTPStatus
}
