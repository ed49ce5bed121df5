// Package kafka carries the event bus over Kafka topics. Envelopes travel
// as JSON keyed by order id, so every event of one order lands on one
// partition and consumers see them in order. Trace context propagates
// through message headers.
package kafka

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"coordinator/internal/core/domain/events"
)

var publisherTracer = otel.Tracer("kafka/publisher")

// Publisher implements events.Publisher on kafka writers, one per topic.
type Publisher struct {
	brokers []string

	mu      sync.Mutex
	writers map[events.Topic]*kafka.Writer
}

// NewPublisher creates a publisher for the given brokers. Writers are
// opened lazily per topic.
func NewPublisher(brokers []string) *Publisher {
	return &Publisher{
		brokers: brokers,
		writers: make(map[events.Topic]*kafka.Writer),
	}
}

// Publish sends one envelope, keyed so a topic's events for the same order
// stay ordered.
func (p *Publisher) Publish(ctx context.Context, topic events.Topic, partitionKey string, envelope events.Envelope) error {
	if err := envelope.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(partitionKey),
		Value: data,
	}

	ctx, span := publisherTracer.Start(ctx, "send "+string(topic),
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			semconv.MessagingSystemKafka,
			semconv.MessagingOperationName("send"),
			semconv.MessagingOperationTypePublish,
			semconv.MessagingDestinationName(string(topic)),
			semconv.MessagingKafkaMessageKey(partitionKey),
		),
	)
	defer span.End()

	otel.GetTextMapPropagator().Inject(ctx, NewMessageCarrier(&msg))

	if err := p.writer(topic).WriteMessages(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func (p *Publisher) writer(topic events.Topic) *kafka.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()

	w, ok := p.writers[topic]
	if !ok {
		w = &kafka.Writer{
			Addr:                   kafka.TCP(p.brokers...),
			Topic:                  string(topic),
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
			BatchTimeout:           100 * time.Millisecond,
		}
		p.writers[topic] = w
	}
	return w
}

// Close closes all writers.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for _, w := range p.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
