package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"blog-editor-be/internal/pkg/logger"
	"blog-editor-be/pkg/events"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

type EventHandler func(ctx context.Context, event events.BaseEvent) error

type Subscriber struct {
	nc       *nats.Conn
	js       jetstream.JetStream
	logger   logger.ILogger
	consumes []jetstream.ConsumeContext
}

func NewSubscriber(url string, log logger.ILogger) (*Subscriber, error) {
	nc, js, err := connect(url)
	if err != nil {
		return nil, err
	}
	if err := ensureStream(context.Background(), js); err != nil {
		log.Warn("NATS", "Failed to ensure stream", map[string]interface{}{
			"stream": StreamName,
			"error":  err.Error(),
		})
	}
	return &Subscriber{nc: nc, js: js, logger: log}, nil
}

// decode restores an event from a message published by Publisher.
func decode(subject string, data []byte) (events.BaseEvent, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal(data, &payload); err != nil {
		return events.BaseEvent{}, err
	}

	occurredAt := time.Now()
	if raw, ok := payload[occurredAtKey].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			occurredAt = t
		}
		delete(payload, occurredAtKey)
	}

	return events.BaseEvent{
		Type:       EventType(subject),
		Data:       payload,
		OccurredAt: occurredAt,
	}, nil
}

// Subscribe consumes eventType through a durable consumer. Failed handlers
// get the message redelivered.
func (s *Subscriber) Subscribe(eventType, durableName string, handler EventHandler) error {
	ctx := context.Background()
	subject := Subject(eventType)

	consumer, err := s.js.CreateOrUpdateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		Durable:       durableName,
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    5,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		event, err := decode(msg.Subject(), msg.Data())
		if err != nil {
			s.logger.Error("NATS", "Malformed event dropped", map[string]interface{}{
				"subject": msg.Subject(),
				"error":   err.Error(),
			})
			msg.Term()
			return
		}

		if err := handler(context.Background(), event); err != nil {
			s.logger.Warn("NATS", "Event handler failed", map[string]interface{}{
				"subject": msg.Subject(),
				"error":   err.Error(),
			})
			msg.Nak()
			return
		}
		msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	s.consumes = append(s.consumes, cc)

	s.logger.Info("NATS", "Subscribed", map[string]interface{}{
		"subject": subject,
		"durable": durableName,
	})
	return nil
}

func (s *Subscriber) Close() {
	for _, cc := range s.consumes {
		cc.Stop()
	}
	if s.nc != nil {
		s.nc.Close()
	}
}
