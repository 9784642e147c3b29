package bootstrap

import (
	"context"
	"fmt"

	"ai-devguide-be/internal/config"
	"ai-devguide-be/internal/controller"
	"ai-devguide-be/internal/handler"
	"ai-devguide-be/internal/pkg/logger"
	"ai-devguide-be/internal/repository/contract"
	"ai-devguide-be/internal/repository/memory"
	"ai-devguide-be/internal/repository/redisstore"
	"ai-devguide-be/internal/repository/store"
	"ai-devguide-be/internal/repository/unitofwork"
	"ai-devguide-be/internal/service"
	"ai-devguide-be/internal/websocket"
	"ai-devguide-be/pkg/content"
	"ai-devguide-be/pkg/contextproto"
	"ai-devguide-be/pkg/llm/factory"

	pktNats "ai-devguide-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	Logger logger.ILogger

	// Controllers
	ChatController    controller.IChatController
	ContentController controller.IContentController
	ReportController  controller.IReportController
	ContextController controller.IContextController
	ChatEventsHandler *handler.ChatEventsHandler

	// Exposed for main.go
	ChatService     service.IChatService
	ReportGenerator service.IReportGenerator
	WebSocketHub    *websocket.Hub
	ContentIndex    *content.Index
	Dispatcher      *contextproto.Dispatcher

	pubSub  *gochannel.GoChannel
	natsPub *pktNats.Publisher
	rdb     *redis.Client
}

// NewContainer wires every component. db may be nil, in which case chat
// sessions and documents live only in the local cache.
func NewContainer(db *gorm.DB, cfg *config.Config) (*Container, error) {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	c := &Container{Logger: sysLogger}

	// 1. Content corpus
	stack, err := NewContentStack(cfg, sysLogger)
	if err != nil {
		return nil, err
	}
	c.ContentIndex = stack.Index
	c.Dispatcher = stack.Dispatcher

	llmBaseURL := cfg.Ai.LLMBaseURL
	if cfg.Ai.LLMProvider == "ollama" {
		llmBaseURL = cfg.Ai.OllamaBaseURL
	}
	llmProvider, err := factory.NewLLMProvider(cfg.Ai.LLMProvider, cfg.Ai.LLMModel, llmBaseURL, cfg.Ai.LLMAPIKey)
	if err != nil {
		return nil, err
	}
	sysLogger.Info("Bootstrap", "LLM provider ready", map[string]interface{}{
		"provider": cfg.Ai.LLMProvider,
		"model":    cfg.Ai.LLMModel,
	})

	// 2. Infrastructure
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			sysLogger.Warn("Bootstrap", "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb := redis.NewClient(opt)
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			sysLogger.Warn("Bootstrap", "Failed to connect to Redis, using memory caches", map[string]interface{}{"error": err.Error()})
			rdb.Close()
		} else {
			c.rdb = rdb
		}
	}

	var eventPub service.EventPublisher
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			sysLogger.Warn("Bootstrap", "Failed to connect to NATS, events disabled", map[string]interface{}{"error": err.Error()})
		} else {
			c.natsPub = natsPub
			eventPub = natsPub
		}
	}

	c.pubSub = gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))

	// 3. Repositories
	var (
		sessionCache contract.SessionCache
		reportStates contract.ReportStateRepository
	)
	if c.rdb != nil {
		sessionCache = redisstore.NewSessionCache(c.rdb)
		reportStates = redisstore.NewReportStateRepository(c.rdb, cfg.Report.Retention)
	} else {
		sessionCache = memory.NewSessionCache()
		reportStates = memory.NewReportStateRepository(cfg.Report.Retention)
	}

	var (
		chatStore contract.ChatStore
		docStore  contract.DocumentStore = memory.NewDocumentStore()
	)
	if db != nil {
		uowFactory := unitofwork.NewRepositoryFactory(db)
		chatStore = store.NewGormChatStore(uowFactory)
		docStore = store.NewGormDocumentStore(uowFactory)
	}

	// 4. Services
	c.WebSocketHub = websocket.NewHub(c.rdb, logger.NewIsolatedLogger("logs/chat_events.log"))

	c.ChatService = service.NewChatService(sessionCache, chatStore, llmProvider, stack.Recommender, stack.Topics, service.ChatServiceOptions{
		SyncDebounce:    cfg.Chat.SyncDebounce,
		Recommendations: cfg.Chat.Recommendations,
	}, sysLogger)
	c.ChatService.AddListener(c.WebSocketHub)
	if eventPub != nil {
		c.ChatService.AddListener(service.NewChatEventListener(eventPub, sysLogger))
	}

	documentService := service.NewDocumentService(docStore, sysLogger)
	reportService := service.NewReportService(reportStates, documentService, c.pubSub, cfg.Report.Topic, sysLogger)
	c.ReportGenerator = service.NewReportGenerator(c.pubSub, cfg.Report.Topic, reportStates, llmProvider, eventPub, sysLogger)

	// 5. Controllers
	c.ChatController = controller.NewChatController(c.ChatService)
	c.ContentController = controller.NewContentController(c.ContentIndex, stack.Searcher)
	c.ReportController = controller.NewReportController(reportService, documentService)
	c.ContextController = controller.NewContextController(c.Dispatcher)
	c.ChatEventsHandler = handler.NewChatEventsHandler(c.ChatService, c.WebSocketHub, sysLogger)

	return c, nil
}

// Start embeds the corpus, loads chat sessions and starts the report consumer.
func (c *Container) Start(ctx context.Context) error {
	if err := c.ContentIndex.Init(ctx); err != nil {
		return fmt.Errorf("index content: %w", err)
	}
	if err := c.ChatService.Init(ctx); err != nil {
		return fmt.Errorf("init chat: %w", err)
	}
	if err := c.ReportGenerator.Consume(ctx); err != nil {
		return fmt.Errorf("start report consumer: %w", err)
	}
	go c.WebSocketHub.Run(ctx)
	return nil
}

// Close flushes pending chat syncs and releases connections.
func (c *Container) Close(ctx context.Context) error {
	err := c.ChatService.Close(ctx)
	if cerr := c.pubSub.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if c.natsPub != nil {
		c.natsPub.Close()
	}
	if c.rdb != nil {
		c.rdb.Close()
	}
	c.Logger.Sync()
	return err
}
