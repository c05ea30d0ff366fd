package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "parlance/chat-api"
)

// GetTracer returns the tracer for the chat-api service.
func GetTracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// SendAttributes returns common attributes for send spans.
func SendAttributes(conversationID, model string, turnCount int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("chat.conversation_id", conversationID),
		attribute.String("chat.model", model),
		attribute.Int("chat.turn_count", turnCount),
	}
}

// StartSendSpan starts a new span covering one send operation.
func StartSendSpan(ctx context.Context, conversationID, model string, turnCount int) (context.Context, trace.Span) {
	ctx, span := GetTracer().Start(ctx, "chat.send",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(SendAttributes(conversationID, model, turnCount)...),
	)
	return ctx, span
}

// StartProviderSpan starts a new span covering one provider round trip.
func StartProviderSpan(ctx context.Context, providerName, modelVariant string) (context.Context, trace.Span) {
	ctx, span := GetTracer().Start(ctx, "provider.invoke",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("provider.name", providerName),
			attribute.String("provider.model", modelVariant),
		),
	)
	return ctx, span
}

// StartTransformSpan starts a new span covering one research transform.
func StartTransformSpan(ctx context.Context, transform string) (context.Context, trace.Span) {
	ctx, span := GetTracer().Start(ctx, "research."+transform,
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	return ctx, span
}

// RecordError records an error on a span.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
