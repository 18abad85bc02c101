package bootstrap

import (
	"context"
	"log"

	"docqa-be/internal/config"
	"docqa-be/internal/controller"
	"docqa-be/internal/handler"
	"docqa-be/internal/pkg/logger"
	"docqa-be/internal/pkg/mailer"
	"docqa-be/internal/repository/contract"
	"docqa-be/internal/repository/memory"
	"docqa-be/internal/repository/redisstore"
	"docqa-be/internal/service"
	"docqa-be/internal/websocket"
	"docqa-be/pkg/events"
	"docqa-be/pkg/index"
	"docqa-be/pkg/notify"

	pktNats "docqa-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	// Controllers
	HealthController controller.IHealthController
	UploadController controller.IUploadController
	QAController     controller.IQAController

	// Background Services (Exposed for main.go to run). Nil when pre-warming
	// is off.
	ConsumerService service.IConsumerService

	// WebSockets & Progress
	ProgressHandler *handler.ProgressHandler
	WebSocketHub    *websocket.Hub

	Logger logger.ILogger

	closers []func()
}

func NewContainer(ctx context.Context, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(cfg.SMTP, sysLogger)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	embedders, err := NewEmbedders(ctx, cfg)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize Embedding Provider: %v", err)
	}
	llmProvider, err := NewLLM(ctx, cfg)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}

	indexCache, err := index.NewCache(cfg.Storage.CacheRoot, embedders)
	if err != nil {
		log.Fatalf("[FATAL] Failed to open index cache at %s: %v", cfg.Storage.CacheRoot, err)
	}
	indexBuilder := index.NewBuilder(embedders, cfg.Orchestrator.ChunkSize, cfg.Orchestrator.ChunkOverlap)

	c := &Container{Logger: sysLogger}

	// 4. Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	var eventBus notify.EventPublisher
	if natsPub != nil {
		eventBus = natsPub
		c.closers = append(c.closers, natsPub.Close)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	var records contract.RequestRecordRepository
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v. Request records stay in memory", err)
		rdb.Close()
		rdb = nil
		records = memory.NewRequestRecordRepository(cfg.Storage.RecordTTL)
	} else {
		records = redisstore.NewRequestRecordRepository(rdb, cfg.Storage.RecordTTL)
		c.closers = append(c.closers, func() { rdb.Close() })
	}

	// WebSocket Hub
	wsHub := websocket.NewHub(rdb, sysLogger)
	go wsHub.Run(ctx)

	// 5. Services
	indexService := service.NewIndexService(indexCache, indexBuilder, sysLogger)

	var publisherService service.IPublisherService
	var consumerService service.IConsumerService
	if cfg.Storage.PrewarmOnUpload {
		publisherService = service.NewPublisherService(events.TypeDocumentUploaded, pubSub)
		consumerService = service.NewConsumerService(pubSub, events.TypeDocumentUploaded, indexService, sysLogger)
	}
	uploadService := service.NewUploadService(cfg.Storage.UploadDir, indexService, publisherService, sysLogger)

	notifier := notify.NewMulti(sysLogger, BuildNotifiers(cfg.Notifier, sysLogger, emailService, eventBus)...)
	progressService := service.NewProgressService(wsHub, eventBus, sysLogger)

	qaService := service.NewQAService(
		indexService,
		llmProvider,
		notifier,
		records,
		progressService,
		cfg.Orchestrator,
		cfg.Notifier.DefaultUserID,
		sysLogger,
	)

	// 6. Controllers
	c.HealthController = controller.NewHealthController()
	c.UploadController = controller.NewUploadController(uploadService, sysLogger)
	c.QAController = controller.NewQAController(qaService)
	c.ConsumerService = consumerService
	c.ProgressHandler = handler.NewProgressHandler(wsHub, cfg.Auth.JWTSecret, sysLogger)
	c.WebSocketHub = wsHub
	c.closers = append(c.closers, func() { pubSub.Close() })
	return c
}

// Close releases the connections opened by NewContainer.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.Logger.Sync()
}
