package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/compat_oai/openai"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/planit-dev/planit/db"
	httpapi "github.com/planit-dev/planit/internal/api"
	"github.com/planit-dev/planit/internal/chat"
	"github.com/planit-dev/planit/internal/config"
	"github.com/planit-dev/planit/internal/genai"
	"github.com/planit-dev/planit/internal/knowledge"
	"github.com/planit-dev/planit/internal/log"
	"github.com/planit-dev/planit/internal/planner"
	"github.com/planit-dev/planit/internal/session"
	"github.com/planit-dev/planit/internal/tools"
)

// sweepInterval is how often the session eviction sweeper runs.
const sweepInterval = time.Hour

// Setup creates and initializes the application. On error everything
// already initialized is released before returning.
func Setup(ctx context.Context, cfg *config.Config, logger log.Logger) (_ *App, retErr error) {
	if logger == nil {
		logger = log.NewNop()
	}
	a := &App{Config: cfg, Logger: logger}

	defer func() {
		if retErr != nil {
			if err := a.Close(); err != nil {
				logger.Warn("cleanup during setup failure", "error", err)
			}
		}
	}()

	// The pool is only needed when sessions (and with them the knowledge
	// corpus) live in PostgreSQL. The memory and redis backends run
	// database-free.
	if cfg.SessionBackend == config.SessionBackendPostgres {
		pool, err := providePool(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		a.DBPool = pool
	}

	g, err := provideGenkit(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.Genkit = g

	a.Embedder = provideEmbedder(g, cfg)
	if a.Embedder == nil {
		return nil, fmt.Errorf("embedder %q not found for provider %q", cfg.EmbedderModel, cfg.Provider)
	}

	a.Knowledge = provideKnowledgeStore(a.DBPool, a.Embedder, logger)
	if err := knowledge.Seed(ctx, a.Knowledge); err != nil {
		return nil, fmt.Errorf("seeding knowledge corpus: %w", err)
	}

	store, err := provideSessionStore(cfg, a.DBPool, logger)
	if err != nil {
		return nil, err
	}
	a.Sessions = session.NewManager(store, cfg.SessionTTL, logger)
	a.Sessions.StartSweeper(sweepInterval)

	a.GenClient, err = genai.New(g, genai.Config{
		Models:  cfg.ModelChain(),
		Timeout: cfg.GenerateTimeout,
		Retry: genai.RetryConfig{
			MaxRetries:      cfg.MaxRetries,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     10 * time.Second,
		},
		RPS: cfg.GenerateRPS,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("creating generation client: %w", err)
	}

	a.Planner = planner.New(a.GenClient, a.Knowledge, cfg.KnowledgeTopK, logger)
	a.Chat = chat.New(a.GenClient, tools.NewHandler(a.Knowledge, cfg.KnowledgeTopK), cfg.MaxChatCycles, logger)

	a.Server, err = httpapi.NewServer(httpapi.ServerConfig{
		Logger:   logger,
		Planner:  a.Planner,
		Chat:     a.Chat,
		Sessions: a.Sessions,
		RateRPS:  cfg.RequestRPS,
	})
	if err != nil {
		return nil, fmt.Errorf("creating API server: %w", err)
	}

	return a, nil
}

// providePool runs migrations and creates the PostgreSQL connection pool.
func providePool(ctx context.Context, cfg *config.Config, logger log.Logger) (*pgxpool.Pool, error) {
	if err := db.Migrate(cfg.PostgresURL(), logger); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection config: %w", err)
	}
	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return pool, nil
}

// provideGenkit initializes Genkit with the configured AI provider
// plugin. Supports gemini (default), googleai, ollama and openai.
func provideGenkit(ctx context.Context, cfg *config.Config, logger log.Logger) (*genkit.Genkit, error) {
	var g *genkit.Genkit

	switch cfg.Provider {
	case config.ProviderOllama:
		ollamaPlugin := &ollama.Ollama{ServerAddress: cfg.OllamaHost}
		g = genkit.Init(ctx, genkit.WithPlugins(ollamaPlugin))
		if g == nil {
			return nil, errors.New("initializing genkit with ollama provider")
		}
		// Ollama requires explicit model registration (no auto-discovery).
		for _, model := range append([]string{cfg.ModelName}, cfg.FallbackModels...) {
			ollamaPlugin.DefineModel(g, ollama.ModelDefinition{Name: model, Type: "chat"}, nil)
		}
		ollamaPlugin.DefineEmbedder(g, cfg.OllamaHost, cfg.EmbedderModel, nil)
		logger.Info("initialized genkit with ollama provider",
			"model", cfg.ModelName, "host", cfg.OllamaHost)

	case config.ProviderOpenAI:
		g = genkit.Init(ctx, genkit.WithPlugins(&openai.OpenAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with openai provider")
		}
		logger.Info("initialized genkit with openai provider", "model", cfg.ModelName)

	default: // gemini / googleai
		g = genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		if g == nil {
			return nil, errors.New("initializing genkit with gemini provider")
		}
		logger.Info("initialized genkit with gemini provider", "model", cfg.ModelName)
	}

	return g, nil
}

// provideEmbedder looks up the embedder registered by the provider
// plugin. Each provider registers embedders differently.
func provideEmbedder(g *genkit.Genkit, cfg *config.Config) ai.Embedder {
	switch cfg.Provider {
	case config.ProviderOllama:
		return ollama.Embedder(g, cfg.OllamaHost)
	case config.ProviderOpenAI:
		return genkit.LookupEmbedder(g, api.NewName("openai", cfg.EmbedderModel))
	default:
		return googlegenai.GoogleAIEmbedder(g, cfg.EmbedderModel)
	}
}

// provideKnowledgeStore picks PostgreSQL when a pool exists, otherwise
// the in-memory scan store.
func provideKnowledgeStore(pool *pgxpool.Pool, embedder ai.Embedder, logger log.Logger) knowledge.Store {
	if pool != nil {
		return knowledge.NewPGStore(pool, embedder, logger)
	}
	return knowledge.NewMemoryStore(embedder)
}

// provideSessionStore builds the configured session store backend.
func provideSessionStore(cfg *config.Config, pool *pgxpool.Pool, logger log.Logger) (session.Store, error) {
	switch cfg.SessionBackend {
	case config.SessionBackendPostgres:
		if pool == nil {
			return nil, errors.New("postgres session backend requires a database pool")
		}
		return session.NewPGStore(pool, logger), nil
	case config.SessionBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return session.NewRedisStore(client, cfg.SessionTTL, logger), nil
	default:
		return session.NewMemoryStore(), nil
	}
}
