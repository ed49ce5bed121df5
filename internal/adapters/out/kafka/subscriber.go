package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"coordinator/internal/core/domain/events"
)

var subscriberTracer = otel.Tracer("kafka/subscriber")

// Subscriber implements events.Subscriber on kafka readers, one reader
// and consumer loop per topic. All handlers of a topic share that reader:
// a second reader in the same group would split the partitions between
// them. Offsets commit only after every handler returns nil, which is
// what makes delivery at-least-once.
type Subscriber struct {
	brokers []string
	groupID string
	logger  *slog.Logger

	mu       sync.Mutex
	readers  []*kafka.Reader
	handlers map[events.Topic]*topicHandlers
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
}

type topicHandlers struct {
	mu       sync.RWMutex
	handlers []events.Handler
}

func (t *topicHandlers) add(handler events.Handler) {
	t.mu.Lock()
	t.handlers = append(t.handlers, handler)
	t.mu.Unlock()
}

func (t *topicHandlers) snapshot() []events.Handler {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.handlers
}

// NewSubscriber creates a subscriber joining the given consumer group.
func NewSubscriber(brokers []string, groupID string, logger *slog.Logger) *Subscriber {
	ctx, cancel := context.WithCancel(context.Background())
	return &Subscriber{
		brokers:  brokers,
		groupID:  groupID,
		logger:   logger.With("component", "kafka-subscriber"),
		handlers: make(map[events.Topic]*topicHandlers),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Subscribe registers a handler for a topic. The first handler of a topic
// starts its consumer loop; later handlers join the existing one.
func (s *Subscriber) Subscribe(topic events.Topic, handler events.Handler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.handlers[topic]; ok {
		existing.add(handler)
		return nil
	}

	registered := &topicHandlers{handlers: []events.Handler{handler}}
	s.handlers[topic] = registered

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: s.brokers,
		Topic:   string(topic),
		GroupID: s.groupID,
	})
	s.readers = append(s.readers, reader)

	s.wg.Add(1)
	go s.consume(reader, topic, registered)
	return nil
}

func (s *Subscriber) consume(reader *kafka.Reader, topic events.Topic, registered *topicHandlers) {
	defer s.wg.Done()

	for {
		msg, err := reader.FetchMessage(s.ctx)
		if err != nil {
			if s.ctx.Err() != nil {
				return
			}
			s.logger.Error("fetch failed", "topic", string(topic), "error", err)
			return
		}

		if err := s.process(msg, topic, registered.snapshot()); err != nil {
			// The handler wants a redelivery: do not commit, re-fetch from
			// the uncommitted offset.
			s.logger.Warn("handler failed, message will be redelivered",
				"topic", string(topic), "offset", msg.Offset, "error", err)
			continue
		}

		if err := reader.CommitMessages(s.ctx, msg); err != nil {
			if s.ctx.Err() != nil {
				return
			}
			s.logger.Error("commit failed", "topic", string(topic), "error", err)
		}
	}
}

func (s *Subscriber) process(msg kafka.Message, topic events.Topic, handlers []events.Handler) error {
	parentCtx := otel.GetTextMapPropagator().Extract(s.ctx, NewMessageCarrier(&msg))

	spanCtx, span := subscriberTracer.Start(parentCtx, "process "+string(topic),
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			semconv.MessagingSystemKafka,
			semconv.MessagingOperationName("process"),
			semconv.MessagingOperationTypeDeliver,
			semconv.MessagingDestinationName(string(topic)),
			semconv.MessagingKafkaConsumerGroup(s.groupID),
			semconv.MessagingKafkaMessageOffset(int(msg.Offset)),
			semconv.MessagingDestinationPartitionID(strconv.Itoa(msg.Partition)),
			semconv.MessagingKafkaMessageKey(string(msg.Key)),
		),
	)
	defer span.End()

	var envelope events.Envelope
	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		// A payload that is not an envelope can never succeed; log and
		// acknowledge.
		s.logger.Error("dropping undecodable message",
			"topic", string(topic), "offset", msg.Offset, "error", err)
		span.RecordError(err)
		return nil
	}

	// A redelivery re-runs every handler; they de-duplicate on event id.
	for _, handler := range handlers {
		if err := handler.Handle(spanCtx, envelope); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}

	return nil
}

// Close stops all consumer loops and closes the readers.
func (s *Subscriber) Close() error {
	s.cancel()

	s.mu.Lock()
	readers := s.readers
	s.mu.Unlock()

	var firstErr error
	for _, r := range readers {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	s.wg.Wait()
	return firstErr
}
