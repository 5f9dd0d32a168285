package bootstrap

import (
	"context"
	"log"
	"time"

	"blog-editor-be/internal/config"
	"blog-editor-be/internal/controller"
	"blog-editor-be/internal/handler"
	"blog-editor-be/internal/pkg/logger"
	"blog-editor-be/internal/repository/cache"
	"blog-editor-be/internal/repository/memory"
	"blog-editor-be/internal/repository/unitofwork"
	"blog-editor-be/internal/service"
	"blog-editor-be/internal/websocket"

	pktNats "blog-editor-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const blogContentTTL = 30 * time.Minute

type Container struct {
	// Controllers
	EditorController controller.IEditorController
	BlogController   controller.IBlogController
	LogController    controller.ILogController

	// Background Services (Exposed for main.go to run)
	ConsumerService  service.IConsumerService
	BlogEventService service.IBlogEventService

	// WebSockets
	EditorWsHandler *handler.EditorWsHandler
	WebSocketHub    *websocket.Hub

	Logger logger.ILogger

	sessions *memory.SessionRepository
	pubSub   *gochannel.GoChannel
	rdb      *redis.Client
	natsPub  *pktNats.Publisher
	natsSub  *pktNats.Subscriber
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Infrastructure
	// NATS is optional; without it saves are not fanned out to other sessions.
	var (
		natsPub *pktNats.Publisher
		natsSub *pktNats.Subscriber
		events  service.EventPublisher
	)
	if cfg.Nats.Enabled {
		var err error
		natsPub, err = pktNats.NewPublisher(cfg.Nats.URL, sysLogger)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			events = natsPub
		}
		natsSub, err = pktNats.NewSubscriber(cfg.Nats.URL, sysLogger)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
			natsSub = nil
		}
	}

	// Redis backs the blog content cache and the cross-instance hub.
	var rdb *redis.Client
	if cfg.Redis.URL != "" {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.Redis.URL,
			}
		}
		rdb = redis.NewClient(opt)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
			_ = rdb.Close()
			rdb = nil
		}
		cancel()
	}

	contentCache := cache.NewBlogContentCache(rdb, blogContentTTL)
	storage := service.NewDiskMediaStorage(cfg.App.UploadDir, cfg.App.BaseURL+cfg.Editor.PreviewRoute)
	sessionRepo := memory.NewSessionRepository(cfg.Editor.SessionTTL, cfg.Editor.CleanupInterval)

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger(cfg.App.WsLogFilePath)
	wsHub := websocket.NewHub(rdb, wsLogger)

	// 4. Services
	publisherService := service.NewPublisherService(cfg.Editor.MediaCleanupTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Editor.MediaCleanupTopic,
		uowFactory,
		storage,
		events,
		sysLogger,
	)

	editorService := service.NewEditorService(service.EditorServiceDeps{
		Config:     cfg.Editor,
		MaxImage:   cfg.App.MaxImageSize,
		Sessions:   sessionRepo,
		UowFactory: uowFactory,
		Cache:      contentCache,
		Storage:    storage,
		Publisher:  publisherService,
		Events:     events,
		Notifier:   wsHub,
		Logger:     sysLogger,
	})
	blogService := service.NewBlogService(uowFactory, contentCache, storage, sysLogger)

	var blogEventService service.IBlogEventService
	if natsSub != nil {
		blogEventService = service.NewBlogEventService(natsSub, sessionRepo, wsHub, sysLogger)
	}

	// 5. Controllers
	return &Container{
		EditorController: controller.NewEditorController(editorService),
		BlogController:   controller.NewBlogController(blogService),
		LogController:    controller.NewLogController(sysLogger),

		ConsumerService:  consumerService,
		BlogEventService: blogEventService,

		EditorWsHandler: handler.NewEditorWsHandler(editorService, wsHub, wsLogger),
		WebSocketHub:    wsHub,

		Logger: sysLogger,

		sessions: sessionRepo,
		pubSub:   pubSub,
		rdb:      rdb,
		natsPub:  natsPub,
		natsSub:  natsSub,
	}
}

// Start runs the background workers until ctx is done.
func (c *Container) Start(ctx context.Context) {
	go c.WebSocketHub.Run(ctx)

	go func() {
		log.Println("Background: Starting Consumer Service...")
		if err := c.ConsumerService.Consume(ctx); err != nil {
			log.Printf("Background Consumer Error: %v", err)
		}
	}()

	if c.BlogEventService != nil {
		if err := c.BlogEventService.Start(); err != nil {
			log.Printf("[WARN] Failed to subscribe to blog events: %v", err)
		}
	}
}

// Close releases open sessions and connections.
func (c *Container) Close() {
	c.sessions.Flush()
	if c.natsSub != nil {
		c.natsSub.Close()
	}
	if c.natsPub != nil {
		c.natsPub.Close()
	}
	if err := c.pubSub.Close(); err != nil {
		log.Printf("[WARN] Failed to close event bus: %v", err)
	}
	if c.rdb != nil {
		_ = c.rdb.Close()
	}
	_ = c.Logger.Sync()
}
