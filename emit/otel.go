package emit

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTelEmitter turns events into OpenTelemetry spans, one per event,
// started and ended immediately since an Event represents a point in
// time rather than a duration.
type OTelEmitter struct {
	tracer trace.Tracer
}

// NewOTelEmitter returns an OTelEmitter using tracer (e.g.
// otel.Tracer("ingestrt")).
func NewOTelEmitter(tracer trace.Tracer) *OTelEmitter {
	return &OTelEmitter{tracer: tracer}
}

func (o *OTelEmitter) Emit(event Event) {
	ctx := context.Background()
	_, span := o.tracer.Start(ctx, string(event.Kind))
	defer span.End()
	o.annotate(span, event)
}

func (o *OTelEmitter) EmitBatch(ctx context.Context, events []Event) error {
	for _, event := range events {
		_, span := o.tracer.Start(ctx, string(event.Kind))
		o.annotate(span, event)
		span.End()
	}
	return nil
}

func (o *OTelEmitter) annotate(span trace.Span, event Event) {
	span.SetAttributes(
		attribute.String("pipeline_id", event.PipelineID),
		attribute.String("resource_name", event.ResourceName),
		attribute.String("detail", event.Detail),
	)
	if event.Kind == EventError {
		span.SetStatus(codes.Error, event.Detail)
		span.RecordError(fmt.Errorf("%s", event.Detail))
	}
}

// Flush calls ForceFlush on the tracer value, if the tracer itself has
// that method; it does not reach the tracer provider, so with a tracer that
// lacks ForceFlush it returns nil without flushing anything.
// OTelEmitter itself buffers nothing; the underlying span processor does.
func (o *OTelEmitter) Flush(ctx context.Context) error {
	type flusher interface {
		ForceFlush(context.Context) error
	}
	if f, ok := o.tracer.(flusher); ok {
		return f.ForceFlush(ctx)
	}
	return nil
}
