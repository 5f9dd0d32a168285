package service

import (
	"context"
	"time"

	"blog-editor-be/internal/pkg/logger"
	"blog-editor-be/pkg/events"
	pkgnats "blog-editor-be/pkg/nats"
)

const MessageTypeBlogSaved = "blog_saved"

type EventSubscriber interface {
	Subscribe(eventType, durableName string, handler pkgnats.EventHandler) error
}

type IBlogEventService interface {
	Start() error
	HandleBlogSaved(ctx context.Context, event events.BaseEvent) error
}

type BlogSavedMessage struct {
	BlogId    string    `json:"blog_id"`
	SessionId string    `json:"session_id"`
	SavedAt   time.Time `json:"saved_at"`
}

type blogEventService struct {
	subscriber EventSubscriber
	sessions   SessionStore
	notifier   SessionNotifier
	logger     logger.ILogger
}

// NewBlogEventService tells other open sessions of a blog that it was saved
// elsewhere.
func NewBlogEventService(subscriber EventSubscriber, sessions SessionStore, notifier SessionNotifier, logger logger.ILogger) IBlogEventService {
	return &blogEventService{
		subscriber: subscriber,
		sessions:   sessions,
		notifier:   notifier,
		logger:     logger,
	}
}

func (s *blogEventService) Start() error {
	return s.subscriber.Subscribe(events.BlogContentSaved, "blog-editor-saved", s.HandleBlogSaved)
}

func (s *blogEventService) HandleBlogSaved(ctx context.Context, event events.BaseEvent) error {
	blogID := event.String("blog_id")
	if blogID == "" {
		s.logger.Warn("BLOG", "Save event without blog id", map[string]interface{}{"type": event.EventType()})
		return nil
	}
	origin := event.String("session_id")

	msg := BlogSavedMessage{
		BlogId:    blogID,
		SessionId: origin,
		SavedAt:   event.Timestamp(),
	}
	notified := 0
	for _, sess := range s.sessions.FindByBlog(blogID) {
		if sess.ID == origin {
			continue
		}
		s.notifier.SendToSession(sess.ID, MessageTypeBlogSaved, msg)
		notified++
	}

	s.logger.Debug("BLOG", "Save event dispatched", map[string]interface{}{
		"blog_id":  blogID,
		"notified": notified,
	})
	return nil
}
