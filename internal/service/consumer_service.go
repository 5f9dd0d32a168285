package service

import (
	"context"
	"encoding/json"
	"time"

	"blog-editor-be/internal/dto"
	"blog-editor-be/internal/pkg/logger"
	"blog-editor-be/internal/repository/unitofwork"
	"blog-editor-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	storage    IMediaStorage
	events     EventPublisher
	logger     logger.ILogger
}

// NewConsumerService handles media cleanup requests published after a
// submit removed images from a blog.
func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	storage IMediaStorage,
	events EventPublisher,
	logger logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		uowFactory: uowFactory,
		storage:    storage,
		events:     events,
		logger:     logger,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.MediaCleanupMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("MEDIA", "Failed to unmarshal cleanup message", map[string]interface{}{"error": err.Error()})
		msg.Ack() // never retry a payload that cannot be read
		return
	}

	projectID, blogID := payload.ProjectId.String(), payload.BlogId.String()
	details := map[string]interface{}{
		"blog_id": blogID,
		"paths":   payload.Paths,
	}

	var failed []string
	for _, p := range payload.Paths {
		if err := cs.storage.Remove(projectID, blogID, p); err != nil {
			cs.logger.Warn("MEDIA", "Failed to remove media file", map[string]interface{}{
				"blog_id": blogID,
				"path":    p,
				"error":   err.Error(),
			})
			failed = append(failed, p)
		}
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	deleted, err := uow.BlogMediaRepository().DeleteByPaths(ctx, payload.BlogId, payload.Paths)
	if err != nil {
		details["error"] = err.Error()
		cs.logger.Error("MEDIA", "Failed to soft delete media rows", details)
		msg.Nack()
		return
	}

	details["rows"] = deleted
	details["failed_files"] = len(failed)
	cs.logger.Info("MEDIA", "Media cleanup processed", details)

	if cs.events != nil {
		event := events.NewBlogMediaRemoved(projectID, blogID, payload.Paths, time.Now())
		if err := cs.events.Publish(ctx, event); err != nil {
			cs.logger.Warn("MEDIA", "Failed to publish media removed event", map[string]interface{}{
				"blog_id": blogID,
				"error":   err.Error(),
			})
		}
	}
	msg.Ack()
}
