package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"studyassist/internal/ai"
	"studyassist/internal/cache"
	"studyassist/internal/config"
	"studyassist/internal/logger"
	"studyassist/internal/model"
	postgresClient "studyassist/internal/platform/postgres"
	rabbitmqClient "studyassist/internal/platform/rabbitmq"
	redisClient "studyassist/internal/platform/redis"
	"studyassist/internal/repository"
	"studyassist/internal/vectorstore"
	"studyassist/internal/worker"
)

type App struct {
	Config *config.Config
	DB     *gorm.DB

	// Redis and MQConn stay nil when the service is unreachable; the
	// app then runs without caching and async persistence.
	Redis  *redis.Client
	MQConn *amqp.Connection

	VectorStore vectorstore.Store
	Embedder    ai.Embedder
	Completer   ai.Completer

	HistoryCache  *cache.HistoryCache
	Publisher     *rabbitmqClient.MessagePublisher
	MessageWorker *worker.MessagePersistWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	db, err := postgresClient.New(ctx, cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(
		&model.User{},
		&model.Document{},
		&model.DocumentChunk{},
		&model.ChatSession{},
		&model.ChatMessage{},
		&model.Summary{},
		&model.FlashcardSet{},
		&model.Flashcard{},
		&model.Quiz{},
		&model.QuizQuestion{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	app := &App{
		Config:    cfg,
		DB:        db,
		StartedAt: time.Now(),
	}

	if redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
		logger.Warnf("redis unavailable, running without history cache: %v", err)
	} else {
		app.Redis = redisCli
		app.HistoryCache = cache.NewHistoryCache(
			redisCli,
			time.Duration(cfg.Redis.HistoryTTLSeconds)*time.Second,
			time.Duration(cfg.Redis.HistoryDirtyTTLSeconds)*time.Second,
		)
	}

	if mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL); err != nil {
		logger.Warnf("rabbitmq unavailable, persisting chat messages synchronously: %v", err)
	} else {
		app.MQConn = mqConn
		app.Publisher = rabbitmqClient.NewMessagePublisher(mqConn, cfg.RabbitMQ.MessagePersistQueue)

		messageRepo := repository.NewChatMessageRepository(db)
		app.MessageWorker = worker.NewMessagePersistWorker(mqConn, messageRepo, cfg.RabbitMQ.MessagePersistQueue)
		if err := app.MessageWorker.Start(ctx); err != nil {
			return nil, fmt.Errorf("start message worker failed: %w", err)
		}
	}

	store, err := buildVectorStore(cfg, app.Redis)
	if err != nil {
		return nil, err
	}
	app.VectorStore = store

	app.Embedder, app.Completer = buildAI(cfg)

	return app, nil
}

func buildVectorStore(cfg *config.Config, redisCli *redis.Client) (vectorstore.Store, error) {
	if strings.EqualFold(cfg.VectorStore.Type, "redis") {
		if redisCli == nil {
			logger.Warnf("redis vector store requested but redis is unavailable, using memory store")
		} else {
			return vectorstore.NewRedisStore(redisCli), nil
		}
	}
	store, err := vectorstore.NewMemoryStore(cfg.VectorStore.SnapshotDir)
	if err != nil {
		return nil, fmt.Errorf("open vector store failed: %w", err)
	}
	return store, nil
}

// buildAI picks the embedder and completer by provider. The completer is
// nil for the local provider; chat then answers extractively.
func buildAI(cfg *config.Config) (ai.Embedder, ai.Completer) {
	var client *ai.OpenAICompatibleClient
	needsClient := strings.EqualFold(cfg.LLM.Provider, "openai") ||
		strings.EqualFold(cfg.Embedding.Provider, "openai")
	if needsClient && cfg.LLM.APIKey != "" {
		client = ai.NewOpenAICompatibleClient(ai.Options{
			BaseURL:        cfg.LLM.BaseURL,
			APIKey:         cfg.LLM.APIKey,
			ChatModel:      cfg.LLM.Model,
			EmbeddingModel: cfg.Embedding.Model,
			Dimension:      cfg.Embedding.Dimension,
		})
	}

	var embedder ai.Embedder
	if strings.EqualFold(cfg.Embedding.Provider, "openai") && client != nil {
		embedder = ai.NewFallbackEmbedder(client, ai.NewLocalEmbedder(cfg.Embedding.Dimension))
	} else {
		embedder = ai.NewLocalEmbedder(cfg.Embedding.Dimension)
	}

	var completer ai.Completer
	if strings.EqualFold(cfg.LLM.Provider, "openai") && client != nil {
		completer = client
	}
	return embedder, completer
}

func (a *App) Close() error {
	var closeErr error
	if a.MessageWorker != nil {
		a.MessageWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
