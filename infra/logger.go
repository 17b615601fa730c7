package infra

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/trace"

	"github.com/tnqbao/gau-marine-service/config"
)

type LoggerClient struct {
	logger  *slog.Logger
	console *slog.Logger
}

// InitLoggerClient writes to stdout and, when a LoggerProvider is installed by
// InitTelemetry, to the OTLP log pipeline.
func InitLoggerClient(cfg *config.EnvConfig, provider otellog.LoggerProvider) *LoggerClient {
	level := slog.LevelInfo
	if cfg.Environment.Mode == "development" {
		level = slog.LevelDebug
	}
	console := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})).
		With("service", cfg.Grafana.ServiceName, "group", cfg.Environment.Group)

	var otelLogger *slog.Logger
	if provider != nil {
		otelLogger = otelslog.NewLogger(cfg.Grafana.ServiceName, otelslog.WithLoggerProvider(provider))
	}

	return &LoggerClient{logger: otelLogger, console: console}
}

// NewNopLogger discards everything. Used by tests and tools.
func NewNopLogger() *LoggerClient {
	return &LoggerClient{console: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func (l *LoggerClient) log(ctx context.Context, level slog.Level, msg string, attrs ...any) {
	if l == nil {
		return
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		attrs = append(attrs, "trace_id", sc.TraceID().String(), "span_id", sc.SpanID().String())
	}
	l.console.Log(ctx, level, msg, attrs...)
	if l.logger != nil {
		l.logger.Log(ctx, level, msg, attrs...)
	}
}

func (l *LoggerClient) DebugWithContextf(ctx context.Context, format string, args ...any) {
	l.log(ctx, slog.LevelDebug, fmt.Sprintf(format, args...))
}

func (l *LoggerClient) InfoWithContextf(ctx context.Context, format string, args ...any) {
	l.log(ctx, slog.LevelInfo, fmt.Sprintf(format, args...))
}

func (l *LoggerClient) WarningWithContextf(ctx context.Context, format string, args ...any) {
	l.log(ctx, slog.LevelWarn, fmt.Sprintf(format, args...))
}

func (l *LoggerClient) ErrorWithContextf(ctx context.Context, err error, format string, args ...any) {
	if err != nil {
		l.log(ctx, slog.LevelError, fmt.Sprintf(format, args...), "error", err.Error())
		return
	}
	l.log(ctx, slog.LevelError, fmt.Sprintf(format, args...))
}
