package jobs

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/tnqbao/gau-marine-service/service/jobs"

var (
	tracer = otel.Tracer(instrumentationName)
	meter  = otel.Meter(instrumentationName)

	reconciliations, _ = meter.Int64Counter("jobs.reconciliations",
		metric.WithDescription("Reloads triggered by a failed remote write"))
	rollbacks, _ = meter.Int64Counter("jobs.rollbacks",
		metric.WithDescription("Placeholders or uploads undone after a failed remote write"))
	orphans, _ = meter.Int64Counter("storage.orphans",
		metric.WithDescription("Objects left in storage without a referencing row"))
)

func startSpan(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, "jobs."+op, trace.WithAttributes(attrs...))
}

func opAttr(op string) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("operation", op))
}
