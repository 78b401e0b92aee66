package bootstrap

import (
	"log"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"lumir-agentic-be/internal/config"
	"lumir-agentic-be/internal/controller"
	"lumir-agentic-be/internal/pkg/logger"
	repo "lumir-agentic-be/internal/repository/memory"
	"lumir-agentic-be/internal/service"
	"lumir-agentic-be/pkg/agent"
	"lumir-agentic-be/pkg/httpx"
	"lumir-agentic-be/pkg/ingest"
	"lumir-agentic-be/pkg/llm/factory"
	"lumir-agentic-be/pkg/memory"
	pkgNats "lumir-agentic-be/pkg/nats"
	"lumir-agentic-be/pkg/retrieval"
	"lumir-agentic-be/pkg/tools"
)

type Container struct {
	// Controllers
	ChatController    controller.IChatController
	HistoryController controller.IHistoryController
	IngestController  controller.IIngestController

	// Background Services (Exposed for main.go to run)
	IngestService service.IIngestService

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	shortHTTP := httpx.New(httpx.ShortTimeouts())
	longHTTP := httpx.New(httpx.LongTimeouts())

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermillLogger)

	publisher, err := pkgNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("Warn: NATS unavailable, events disabled: %v", err)
		publisher = nil
	}

	// 3. Retrieval stack
	retrievalClient := retrieval.NewClient(retrieval.Config{
		EmbeddingURL:  cfg.Services.EmbeddingURL,
		SearchURL:     cfg.Services.SearchURL,
		RerankURL:     cfg.Services.RerankURL,
		ModelName:     cfg.Agent.EmbeddingModel,
		Collection:    cfg.Agent.Collection,
		RerankEnabled: cfg.Agent.RerankEnabled,
	}, shortHTTP, sysLogger)

	assembler := retrieval.NewAssembler()
	assembler.ScoreThreshold = cfg.Agent.ScoreThreshold

	// 4. LLM provider
	provider, err := factory.NewLLMProvider(cfg.Agent.LLMProvider, cfg.Agent.LLMModel, cfg.Agent.LLMBaseURL)
	if err != nil {
		log.Panicf("Unable to create LLM provider: %v", err)
	}

	// 5. Conversation memory
	store := newMemoryStore(db, cfg, shortHTTP)

	// 6. Tool registry
	registry := tools.NewRegistry(
		tools.NewKnowledgeBaseSearch(retrievalClient, assembler),
		tools.NewKeywordMapping(),
		tools.NewBehavioralIndex(),
		tools.NewTradingAnalysis(cfg.Services.TradingAPIURL, shortHTTP),
	)

	// 7. Orchestrators
	chatOrch := agent.NewOrchestrator(agent.VariantChat, provider, store, registry, sysLogger)
	agentOrch := agent.NewOrchestrator(agent.VariantAgent, provider, store, registry, sysLogger)

	// 8. Ingestion pipeline. Stage traces are high volume and go to their
	// own file.
	pipelineLogger := logger.NewIsolatedLogger("logs/ingest_trace.log")
	docAPI := ingest.NewDocumentAPI(cfg.Services.DocumentAPIURL, longHTTP, cfg.Ingest.DownloadRetry)
	uploader := ingest.NewUploader(cfg.Services.ChunkAPIURL, longHTTP)
	pipeline, err := ingest.NewPipeline(ingest.Config{
		DocumentAPIBase: cfg.Services.DocumentAPIURL,
		ChunkAPIBase:    cfg.Services.ChunkAPIURL,
		Collection:      cfg.Agent.Collection,
		ChunkSize:       cfg.Ingest.ChunkSize,
		ChunkOverlap:    cfg.Ingest.ChunkOverlap,
		BatchSize:       cfg.Ingest.UploadBatch,
		EmbedWorkers:    cfg.Ingest.EmbedWorkers,
	}, docAPI, uploader, retrievalClient, pipelineLogger)
	if err != nil {
		log.Panicf("Unable to build ingestion pipeline: %v", err)
	}

	jobRepository := repo.NewJobRepository(time.Duration(cfg.Ingest.JobTTLMinutes) * time.Minute)

	// 9. Services
	chatService := service.NewChatService(chatOrch, agentOrch, store, publisher, sysLogger)
	ingestService := service.NewIngestService(pubSub, cfg.Ingest.IngestTopic, pipeline, jobRepository, publisher, sysLogger)

	// 10. Controllers
	return &Container{
		ChatController:    controller.NewChatController(chatService, sysLogger),
		HistoryController: controller.NewHistoryController(chatService),
		IngestController:  controller.NewIngestController(ingestService),
		IngestService:     ingestService,
		Logger:            sysLogger,
	}
}

// newMemoryStore picks the configured history backend and fronts it with
// a short lived read cache.
func newMemoryStore(db *gorm.DB, cfg *config.Config, client *httpx.Client) memory.Store {
	var backend memory.Store

	switch cfg.Agent.MemoryBackend {
	case "http":
		backend = memory.NewHTTPStore(
			cfg.Services.MemoryAPIURL+"/history/get",
			cfg.Services.MemoryAPIURL+"/history/save",
			client,
		)
	case "redis":
		opts, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Panicf("Invalid REDIS_URL: %v", err)
		}
		backend = memory.NewRedisStore(redis.NewClient(opts), 24*time.Hour)
	default:
		store, err := memory.NewGormStore(db)
		if err != nil {
			log.Panicf("Unable to init conversation store: %v", err)
		}
		backend = store
	}

	return memory.NewCachedStore(backend, 5*time.Minute)
}
