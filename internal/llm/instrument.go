package llm

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/capitalize-ai/medassist/pkg/metrics"
)

const tracerName = "github.com/capitalize-ai/medassist/internal/llm"

type instrumented struct {
	next   Completer
	tracer trace.Tracer
}

// Instrument wraps c with a span and Prometheus metrics per call. A nil tp
// uses the global tracer provider.
func Instrument(c Completer, tp trace.TracerProvider) Completer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &instrumented{
		next:   c,
		tracer: tp.Tracer(tracerName),
	}
}

func (i *instrumented) Name() string {
	return i.next.Name()
}

func (i *instrumented) Complete(ctx context.Context, req *CompletionRequest) Result {
	ctx, span := i.tracer.Start(ctx, "llm.complete",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("llm.provider", i.next.Name()),
			attribute.Int("llm.messages", len(req.Messages)),
		),
	)
	defer span.End()

	start := time.Now()
	res := i.next.Complete(ctx, req)
	elapsed := time.Since(start)

	span.SetAttributes(attribute.String("llm.outcome", res.Outcome()))
	if res.Failure != nil {
		if res.Failure.StatusCode != 0 {
			span.SetAttributes(attribute.Int("http.status_code", res.Failure.StatusCode))
		}
		span.SetStatus(codes.Error, string(res.Failure.Class))
	} else {
		span.SetStatus(codes.Ok, "")
	}

	metrics.RecordCompletion(i.next.Name(), res.Outcome(), elapsed.Seconds())

	return res
}
