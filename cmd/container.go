// container.go
package main

import (
	"context"
	"time"

	"github.com/Abraxas-365/shohayok/pkg/agent"
	"github.com/Abraxas-365/shohayok/pkg/agent/agentgraph"
	"github.com/Abraxas-365/shohayok/pkg/agent/agenttest"
	"github.com/Abraxas-365/shohayok/pkg/agent/checkpoint"
	"github.com/Abraxas-365/shohayok/pkg/ai/llm"
	aianthropic "github.com/Abraxas-365/shohayok/pkg/ai/providers/anthropic"
	aiopenai "github.com/Abraxas-365/shohayok/pkg/ai/providers/openai"
	"github.com/Abraxas-365/shohayok/pkg/chat/chatapi"
	"github.com/Abraxas-365/shohayok/pkg/chat/chatsrv"
	"github.com/Abraxas-365/shohayok/pkg/config"
	"github.com/Abraxas-365/shohayok/pkg/identity"
	"github.com/Abraxas-365/shohayok/pkg/logx"
	"github.com/Abraxas-365/shohayok/pkg/memory"
	"github.com/Abraxas-365/shohayok/pkg/memory/memoryinfra"
	"github.com/Abraxas-365/shohayok/pkg/memory/memorysrv"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	openaioption "github.com/openai/openai-go/v3/option"
	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies
type Container struct {
	// Config
	Config *config.Config

	// Infrastructure
	DB    *sqlx.DB
	Redis *redis.Client

	// Memory
	MemoryRepo    memory.Repository
	MemoryCache   *memoryinfra.CachedRepository
	MemoryBroker  *memorysrv.Broker
	MemoryService *memorysrv.MemoryService

	// Agent
	Checkpoints checkpoint.Checkpointer
	Graph       agent.Graph
	ChatService *chatsrv.ChatService

	// Identity
	TokenService *identity.TokenService

	// API Handlers
	ChatHandlers *chatapi.ChatHandlers

	// Background Services
	Janitor *checkpoint.Janitor
}

// NewContainer initializes the dependency injection container
func NewContainer(cfg *config.Config) *Container {
	logx.Info("🔧 Initializing dependency container...")

	c := &Container{
		Config: cfg,
	}

	c.initInfrastructure()
	c.initMemory()
	c.initAgent()
	c.initHandlers()

	logx.Info("✅ Container initialized successfully")
	return c
}

func (c *Container) initInfrastructure() {
	logx.Info("🏗️ Initializing infrastructure...")

	// 1. Database Connection (solo si algún backend lo usa)
	if c.Config.NeedsPostgres() {
		db, err := sqlx.Connect("postgres", c.Config.Database.DSN())
		if err != nil {
			logx.Fatalf("Failed to connect to database: %v", err)
		}
		db.SetMaxOpenConns(c.Config.Database.MaxOpenConns)
		db.SetMaxIdleConns(c.Config.Database.MaxIdleConns)
		db.SetConnMaxLifetime(c.Config.Database.ConnMaxLifetime)
		c.DB = db
		logx.Info("✅ Database connected")
	}

	// 2. Redis Connection
	if c.Config.NeedsRedis() {
		c.Redis = redis.NewClient(&redis.Options{
			Addr:     c.Config.Redis.Address(),
			Password: c.Config.Redis.Password,
			DB:       c.Config.Redis.DB,
		})
		if _, err := c.Redis.Ping(context.Background()).Result(); err != nil {
			logx.Fatalf("Failed to connect to Redis: %v", err)
		}
		logx.Info("✅ Redis connected")
	}

	logx.Info("✅ Infrastructure initialized")
}

func (c *Container) initMemory() {
	logx.Info("🗄️  Initializing memory store...")
	mc := c.Config.Memory

	// --- Store ---
	var store memory.Repository
	switch mc.Backend {
	case config.BackendRedis:
		store = memoryinfra.NewRedisRepository(c.Redis, mc.KeyPrefix)
		logx.Info("✅ Using Redis memory store")
	case config.BackendPostgres:
		store = memoryinfra.NewPostgresRepository(c.DB)
		logx.Info("✅ Using PostgreSQL memory store")
	default:
		store = memoryinfra.NewInMemoryRepository()
		logx.Warn("⚠️  Using in-memory memory store (data is lost on restart)")
	}

	// --- Read cache ---
	if mc.CacheEnabled {
		cached, err := memoryinfra.NewCachedRepository(store, mc.CacheMaxCost, mc.CacheTTL)
		if err != nil {
			logx.Fatalf("Failed to create memory cache: %v", err)
		}
		c.MemoryCache = cached
		store = cached
		logx.Infof("✅ Memory cache enabled (ttl: %s)", mc.CacheTTL)
	}

	// --- Observers ---
	c.MemoryBroker = memorysrv.NewBroker()
	c.MemoryRepo = memorysrv.NewPublishingRepository(store, c.MemoryBroker)
	c.MemoryService = memorysrv.NewMemoryService(c.MemoryRepo, c.MemoryBroker)

	// --- Checkpoints ---
	switch mc.CheckpointBackend {
	case config.BackendRedis:
		c.Checkpoints = checkpoint.NewRedisCheckpointer(c.Redis, mc.KeyPrefix, mc.CheckpointTTL)
		logx.Info("✅ Using Redis checkpoints")
	default:
		inMemory := checkpoint.NewInMemoryCheckpointer(mc.CheckpointTTL)
		c.Checkpoints = inMemory
		c.Janitor = checkpoint.NewJanitor(inMemory, mc.CleanupInterval)
		logx.Info("✅ Using in-memory checkpoints")
	}
}

func (c *Container) initAgent() {
	ac := c.Config.Agent

	var model llm.LLM
	switch ac.Provider {
	case config.ProviderOpenAI:
		var opts []openaioption.RequestOption
		if ac.OpenAIBaseURL != "" {
			opts = append(opts, openaioption.WithBaseURL(ac.OpenAIBaseURL))
		}
		model = aiopenai.NewOpenAIProvider(ac.OpenAIAPIKey, opts...)
	case config.ProviderAnthropic:
		model = aianthropic.NewAnthropicProvider(ac.AnthropicAPIKey, anthropicoption.WithMaxRetries(1))
	}

	if model == nil {
		c.Graph = agenttest.NewGraph(c.MemoryRepo, c.Checkpoints)
		logx.Warn("⚠️  Using scripted agent (AGENT_PROVIDER=scripted)")
	} else {
		client := llm.NewClient(model,
			llm.WithModel(ac.ModelOrDefault()),
			llm.WithTemperature(float32(ac.Temperature)),
			llm.WithMaxTokens(ac.MaxTokens),
		)
		c.Graph = agentgraph.New(client, c.Checkpoints, c.MemoryRepo,
			agentgraph.WithSystemPrompt(ac.SystemPrompt),
			agentgraph.WithHistoryLimit(ac.HistoryLimit),
			agentgraph.WithProfileExtraction(ac.ExtractProfile),
			agentgraph.WithRateLimit(ac.RateLimit),
		)
		logx.Infof("✅ Agent graph ready (provider: %s, model: %s)", ac.Provider, ac.ModelOrDefault())
	}

	c.ChatService = chatsrv.NewChatService(c.Graph, ac.Timeout)
}

func (c *Container) initHandlers() {
	c.TokenService = identity.NewTokenServiceFromConfig(&c.Config.Session)
	if c.TokenService != nil {
		logx.Info("✅ Session tokens required")
	} else {
		logx.Warn("⚠️  Session tokens disabled (SESSION_SIGNING_KEY not set)")
	}

	c.ChatHandlers = chatapi.NewChatHandlers(c.ChatService, c.MemoryService, c.TokenService)
}

// StartBackgroundServices starts background workers
func (c *Container) StartBackgroundServices(ctx context.Context) {
	logx.Info("🔄 Starting background services...")

	if c.Janitor != nil {
		go c.Janitor.Start(ctx)
		logx.Info("✅ Checkpoint janitor started")
	}
}

// Ping checks every configured backend
func (c *Container) Ping(ctx context.Context) map[string]error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	results := map[string]error{}
	if c.DB != nil {
		results["db"] = c.DB.PingContext(ctx)
	}
	if c.Redis != nil {
		results["redis"] = c.Redis.Ping(ctx).Err()
	}
	results["memory"] = c.MemoryService.Ping(ctx)
	return results
}

// Cleanup closes all connections and stops workers
func (c *Container) Cleanup() {
	logx.Info("🧹 Cleaning up resources...")

	if c.MemoryBroker != nil {
		c.MemoryBroker.Close()
	}
	if c.MemoryCache != nil {
		c.MemoryCache.Close()
	}

	// Close database connection
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logx.Errorf("Error closing database: %v", err)
		} else {
			logx.Info("✅ Database connection closed")
		}
	}

	// Close Redis connection
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logx.Errorf("Error closing Redis: %v", err)
		} else {
			logx.Info("✅ Redis connection closed")
		}
	}

	logx.Info("✅ Cleanup completed")
}
