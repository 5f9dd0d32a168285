package service

import (
	"context"
	"encoding/json"

	"blog-editor-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

type IPublisherService interface {
	SendMediaCleanup(ctx context.Context, msg dto.MediaCleanupMessage) error
}

type publisherService struct {
	topicName string
	publisher message.Publisher
}

func NewPublisherService(topicName string, publisher message.Publisher) IPublisherService {
	return &publisherService{
		topicName: topicName,
		publisher: publisher,
	}
}

func (ps *publisherService) SendMediaCleanup(ctx context.Context, msg dto.MediaCleanupMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	m := message.NewMessage(watermill.NewUUID(), payload)
	m.SetContext(ctx)
	return ps.publisher.Publish(ps.topicName, m)
}
