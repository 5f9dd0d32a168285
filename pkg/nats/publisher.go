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

// Publisher sends domain events to the BLOG_EVENTS stream.
type Publisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	logger logger.ILogger
}

func NewPublisher(url string, log logger.ILogger) (*Publisher, error) {
	nc, js, err := connect(url)
	if err != nil {
		return nil, err
	}

	if err := ensureStream(context.Background(), js); err != nil {
		// The stream may already exist with another config, publishing still works.
		log.Warn("NATS", "Failed to ensure stream", map[string]interface{}{
			"stream": StreamName,
			"error":  err.Error(),
		})
	}

	return &Publisher{nc: nc, js: js, logger: log}, nil
}

// encode adds the event time to the payload so subscribers can restore it.
func encode(event events.Event) ([]byte, error) {
	payload := make(map[string]interface{}, len(event.Payload())+1)
	for k, v := range event.Payload() {
		payload[k] = v
	}
	payload[occurredAtKey] = event.Timestamp().UTC().Format(time.RFC3339Nano)
	return json.Marshal(payload)
}

func (p *Publisher) Publish(ctx context.Context, event events.Event) error {
	data, err := encode(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	subject := Subject(event.EventType())
	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish event to subject %s: %w", subject, err)
	}
	return nil
}

func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}
