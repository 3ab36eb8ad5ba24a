package pubsub

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const payloadPreviewLen = 100

func payloadPreview(payload []byte) string {
	if len(payload) > payloadPreviewLen {
		return string(payload[:payloadPreviewLen]) + "..."
	}
	return string(payload)
}

func messageAttributes(operation, topic string, msg *message.Message) trace.SpanStartOption {
	return trace.WithAttributes(
		attribute.String("messaging.system", "watermill"),
		attribute.String("messaging.operation", operation),
		attribute.String("messaging.destination", topic),
		attribute.String("messaging.message_id", msg.UUID),
		attribute.String("huddle.conn_id", msg.Metadata.Get(metaKeyConnID)),
		attribute.String("huddle.scope", msg.Metadata.Get(MetaKeyScope)),
		attribute.Int("messaging.message_payload_size_bytes", len(msg.Payload)),
	)
}

// TracingMiddleware creates a watermill middleware that records a span around
// each handled message.
func TracingMiddleware(tracer trace.Tracer) func(message.HandlerFunc) message.HandlerFunc {
	return func(h message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) ([]*message.Message, error) {
			topic := msg.Metadata.Get(metaKeyTopic)

			spanCtx, span := tracer.Start(msg.Context(), fmt.Sprintf("pubsub.process.%s", topic),
				messageAttributes("process", topic, msg))
			defer span.End()

			msg.SetContext(spanCtx)
			span.SetAttributes(attribute.String("messaging.message_payload_preview", payloadPreview(msg.Payload)))

			producedMessages, err := h(msg)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return nil, err
			}

			span.SetAttributes(attribute.Int("messaging.messages_produced", len(producedMessages)))
			return producedMessages, nil
		}
	}
}

// PublisherTracingMiddleware wraps a publisher with tracing capabilities
type PublisherTracingMiddleware struct {
	publisher message.Publisher
	tracer    trace.Tracer
}

// NewPublisherTracingMiddleware creates a new publisher with tracing middleware
func NewPublisherTracingMiddleware(publisher message.Publisher, tracer trace.Tracer) *PublisherTracingMiddleware {
	return &PublisherTracingMiddleware{
		publisher: publisher,
		tracer:    tracer,
	}
}

// Publish wraps the publish operation with tracing
func (p *PublisherTracingMiddleware) Publish(topic string, messages ...*message.Message) error {
	spans := make([]trace.Span, 0, len(messages))
	for _, msg := range messages {
		spanCtx, span := p.tracer.Start(msg.Context(), fmt.Sprintf("pubsub.publish.%s", topic),
			messageAttributes("publish", topic, msg))
		span.SetAttributes(attribute.String("messaging.message_payload_preview", payloadPreview(msg.Payload)))
		msg.SetContext(spanCtx)
		spans = append(spans, span)
	}

	err := p.publisher.Publish(topic, messages...)
	for _, span := range spans {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
	return err
}

// Close closes the underlying publisher
func (p *PublisherTracingMiddleware) Close() error {
	return p.publisher.Close()
}
