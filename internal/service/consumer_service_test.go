package service

import (
	"context"
	"testing"
	"time"

	"blog-editor-be/internal/dto"
	"blog-editor-be/internal/entity"
	"blog-editor-be/internal/pkg/logger"
	"blog-editor-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsumerServiceRemovesMedia(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	db := newMemDB()
	storage := newMemStorage()
	published := &recordingEvents{}

	project, blog := uuid.New(), uuid.New()
	for _, p := range []string{"a.png", "b.png", "keep.png"} {
		require.NoError(t, storage.Save(project.String(), blog.String(), p, []byte("x")))
		db.media = append(db.media, &entity.BlogMedia{Id: uuid.New(), BlogId: blog, ProjectId: project, Path: p})
	}

	consumer := NewConsumerService(pubSub, "cleanup", db, storage, published, logger.NewNopLogger())
	require.NoError(t, consumer.Consume(ctx))

	publisher := NewPublisherService("cleanup", pubSub)
	require.NoError(t, publisher.SendMediaCleanup(ctx, dto.MediaCleanupMessage{
		ProjectId: project,
		BlogId:    blog,
		Paths:     []string{"a.png", "b.png"},
	}))

	require.Eventually(t, func() bool {
		return len(published.all()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.False(t, storage.Exists(project.String(), blog.String(), "a.png"))
	assert.False(t, storage.Exists(project.String(), blog.String(), "b.png"))
	assert.True(t, storage.Exists(project.String(), blog.String(), "keep.png"))

	live := db.liveMedia(blog)
	require.Len(t, live, 1)
	assert.Equal(t, "keep.png", live[0].Path)

	event := published.all()[0]
	assert.Equal(t, events.BlogMediaRemoved, event.EventType())
	assert.Equal(t, []string{"a.png", "b.png"}, event.Payload()["paths"])
}
