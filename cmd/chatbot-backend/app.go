package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/DilipGoud03/langchain-chatbot-backend/internal/adapters/driven/ai"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/adapters/driven/auth"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/adapters/driven/channels"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/adapters/driven/postgres"
	postgresqueue "github.com/DilipGoud03/langchain-chatbot-backend/internal/adapters/driven/queue/postgres"
	redisqueue "github.com/DilipGoud03/langchain-chatbot-backend/internal/adapters/driven/queue/redis"
	redisadapter "github.com/DilipGoud03/langchain-chatbot-backend/internal/adapters/driven/redis"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/adapters/driving/http"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/config"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/domain"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driven"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/ports/driving"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/core/services"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/postprocessors"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/readers"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/runtime"
	"github.com/DilipGoud03/langchain-chatbot-backend/internal/worker"
)

// app holds every long-lived component of the process
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	db          *postgres.DB
	redisClient *redis.Client
	runtime     *runtime.Services

	taskQueue driven.TaskQueue
	lock      driven.DistributedLock
	sessions  driven.SessionStore

	index     *services.VectorIndex
	pipeline  *services.IngestionPipeline
	scanner   services.Scanner // pipeline guarded by the scan lock
	scheduler *services.Scheduler
	responder *services.ChannelResponder
	worker    *worker.Worker // Set once newWorker runs

	authService     driving.AuthService
	chatService     driving.ChatService
	documentService driving.DocumentService
	employeeService driving.EmployeeService
}

// newApp connects to the backing stores and builds the service graph
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	// ===== PostgreSQL =====
	db, err := postgres.Connect(ctx, postgres.Config{
		URL:             cfg.DatabaseURL,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		ConnMaxIdleTime: cfg.DBConnIdleTime,
		ConnectAttempts: 10,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	a.db = db

	if cfg.MigrateOnStart {
		if err := db.Migrate(); err != nil {
			a.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
	}
	logger.Info("postgres connected", "migrated", cfg.MigrateOnStart)

	// ===== Redis (optional) =====
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		a.redisClient = redis.NewClient(opts)
		if err := a.redisClient.Ping(ctx).Err(); err != nil {
			a.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("redis connected")
	}

	if err := a.buildCoordination(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.buildRuntime(); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.buildServices(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// buildCoordination picks Redis or Postgres for sessions, the task queue and the scan lock
func (a *app) buildCoordination(ctx context.Context) error {
	if a.redisClient != nil {
		a.sessions = redisadapter.NewSessionStore(a.redisClient)
		a.lock = redisadapter.NewLock(a.redisClient)

		name := a.cfg.WorkerName
		if name == "" {
			name = fmt.Sprintf("worker-%d", os.Getpid())
		}
		queue, err := redisqueue.NewQueue(ctx, a.redisClient, name)
		if err != nil {
			return fmt.Errorf("create task queue: %w", err)
		}
		a.taskQueue = queue
		a.logger.Info("coordination backend", "backend", "redis", "consumer", name)
		return nil
	}

	a.sessions = postgres.NewSessionStore(a.db)
	a.lock = postgres.NewAdvisoryLock(a.db)
	a.taskQueue = postgresqueue.NewQueue(a.db.DB)
	a.logger.Info("coordination backend", "backend", "postgres")
	return nil
}

// buildRuntime creates the model clients. Missing credentials leave the
// corresponding capability unavailable rather than failing startup.
func (a *app) buildRuntime() error {
	backend := "postgres"
	if a.redisClient != nil {
		backend = "redis"
	}
	a.runtime = runtime.NewServices(backend)

	prompts, err := a.cfg.LoadPrompts()
	if err != nil {
		return err
	}
	a.runtime.SetPrompts(prompts)

	factory := ai.NewFactory()
	embeddingSettings := a.cfg.EmbeddingSettings()
	embedder, err := factory.CreateEmbeddingService(&embeddingSettings)
	if err != nil {
		return fmt.Errorf("create embedding service: %w", err)
	}
	if embedder != nil {
		if err := a.runtime.SetEmbedding(embedder); err != nil {
			return err
		}
	}

	llmSettings := a.cfg.LLMSettings()
	llm, err := factory.CreateLLMService(&llmSettings)
	if err != nil {
		return fmt.Errorf("create llm service: %w", err)
	}
	if llm != nil {
		if err := a.runtime.SetLLM(llm); err != nil {
			return err
		}
	}

	caps := a.runtime.Capabilities()
	a.logger.Info("model backends",
		"provider", a.cfg.AI.Provider,
		"coordination", caps.Backend,
		"can_ingest", caps.CanIngest(),
		"can_answer", caps.CanAnswer(),
	)
	if missing := caps.Missing(); len(missing) > 0 {
		a.logger.Warn("model backends not configured", "missing", missing)
	}
	return nil
}

func (a *app) buildServices() error {
	cfg := a.cfg

	employeeStore := postgres.NewEmployeeStore(a.db)
	addressStore := postgres.NewAddressStore(a.db)
	documentStore := postgres.NewDocumentStore(a.db)
	authAdapter := auth.NewAdapter(cfg.JWTSecret)

	index, err := services.NewVectorIndex(services.VectorIndexConfig{
		Stores:   postgres.NewVectorStores(a.db),
		Services: a.runtime,
		Logger:   a.logger,
		Timeout:  cfg.AI.Timeout,
	})
	if err != nil {
		return fmt.Errorf("create vector index: %w", err)
	}
	a.index = index

	a.pipeline = services.NewIngestionPipeline(services.IngestionConfig{
		Reader:      readers.DefaultRegistry(readers.Config{}),
		Chunker:     postprocessors.NewChunker(postprocessors.DefaultChunkConfig()),
		Index:       index,
		Documents:   documentStore,
		Logger:      a.logger,
		Dir:         cfg.Ingestion.DocumentsDir,
		FileTimeout: cfg.Ingestion.FileTimeout,
		ScanTimeout: cfg.Ingestion.ScanTimeout,
		MaxFiles:    cfg.Ingestion.MaxFiles,
	})

	var structured *services.StructuredQuery
	if cfg.StructuredQuery.Enabled {
		structured = services.NewStructuredQuery(services.StructuredQueryConfig{
			Store: postgres.NewStructuredStore(a.db, postgres.StructuredStoreConfig{
				Tables:           cfg.StructuredQuery.Tables,
				StatementTimeout: cfg.StructuredQuery.Statement,
				MaxRows:          cfg.StructuredQuery.MaxRows,
			}),
			Services: a.runtime,
			Logger:   a.logger,
			TopK:     cfg.StructuredQuery.TopK,
			Timeout:  cfg.AI.Timeout,
			MaxRows:  cfg.StructuredQuery.MaxRows,
		})
	}

	a.chatService = services.NewChatService(services.ChatServiceConfig{
		Index:      index,
		Structured: structured,
		Services:   a.runtime,
		Logger:     a.logger,
		Timeout:    cfg.AI.Timeout,
	})
	a.documentService = services.NewDocumentService(services.DocumentServiceConfig{
		Documents:      documentStore,
		Pipeline:       a.pipeline,
		Index:          index,
		UploadsDir:     cfg.Ingestion.UploadsDir,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Logger:         a.logger,
	})
	a.authService = services.NewAuthService(employeeStore, a.sessions, authAdapter, cfg.TokenTTL)
	a.employeeService = services.NewEmployeeService(employeeStore, addressStore, a.sessions, authAdapter)

	a.scanner = services.NewExclusiveScanner(services.ExclusiveScannerConfig{
		Scanner:      a.pipeline,
		Lock:         a.lock,
		TTL:          cfg.Ingestion.ScanTimeout,
		LockRequired: cfg.Scheduler.LockRequired,
		Logger:       a.logger,
	})
	if cfg.Scheduler.Enabled {
		a.scheduler = services.NewScheduler(services.SchedulerConfig{
			Scanner:   a.scanner,
			TaskQueue: a.taskQueue,
			Logger:    a.logger,
			Interval:  cfg.Scheduler.Interval,
		})
	}

	senders, err := a.channelSenders()
	if err != nil {
		return err
	}
	if len(senders) > 0 || cfg.WhatsApp.VerifyToken != "" {
		a.responder = services.NewChannelResponder(services.ChannelResponderConfig{
			Chat:        a.chatService,
			Senders:     senders,
			TaskQueue:   a.taskQueue,
			VerifyToken: cfg.WhatsApp.VerifyToken,
			Logger:      a.logger,
		})
	}
	return nil
}

func (a *app) channelSenders() ([]driven.ChannelSender, error) {
	var senders []driven.ChannelSender
	if a.cfg.WhatsApp.Enabled() {
		wa, err := channels.NewWhatsApp(channels.WhatsAppConfig{
			GraphAPIURL:   a.cfg.WhatsApp.GraphAPIURL,
			PhoneNumberID: a.cfg.WhatsApp.PhoneNumberID,
			AccessToken:   a.cfg.WhatsApp.AccessToken,
		})
		if err != nil {
			return nil, fmt.Errorf("whatsapp channel: %w", err)
		}
		senders = append(senders, wa)
	}
	if a.cfg.Telegram.Enabled() {
		tg, err := channels.NewTelegram(channels.TelegramConfig{
			APIURL:   a.cfg.Telegram.APIURL,
			BotToken: a.cfg.Telegram.BotToken,
		})
		if err != nil {
			return nil, fmt.Errorf("telegram channel: %w", err)
		}
		senders = append(senders, tg)
	}
	return senders, nil
}

// newServer builds the HTTP server with readiness checks for each backing store
func (a *app) newServer() *http.Server {
	checks := map[string]http.Pinger{
		"database": a.db,
		"queue":    a.taskQueue,
		"vector_public": http.PingFunc(func(ctx context.Context) error {
			_, err := a.index.Count(ctx, domain.ScopePublic)
			return err
		}),
		"vector_private": http.PingFunc(func(ctx context.Context) error {
			_, err := a.index.Count(ctx, domain.ScopePrivate)
			return err
		}),
	}
	if a.redisClient != nil {
		checks["redis"] = http.PingFunc(func(ctx context.Context) error {
			return a.redisClient.Ping(ctx).Err()
		})
	}
	if a.worker != nil {
		checks["worker"] = a.worker
	}

	svc := http.Services{
		Auth:     a.authService,
		Chat:     a.chatService,
		Document: a.documentService,
		Employee: a.employeeService,
	}
	if a.responder != nil {
		svc.Channel = a.responder
	}

	return http.NewServer(http.Config{
		Host:              a.cfg.Host,
		Port:              a.cfg.Port,
		Version:           version,
		MaxUploadBytes:    a.cfg.MaxUploadBytes,
		ChatRatePerMinute: a.cfg.ChatRatePerMin,
		CORSOrigins:       a.cfg.CORSOrigins,
		Logger:            a.logger,
	}, svc, checks)
}

// newWorker builds the task worker. The scheduler and directory watcher
// start and stop with it.
func (a *app) newWorker() *worker.Worker {
	var watcher *worker.Watcher
	if a.cfg.Ingestion.Watch {
		watcher = worker.NewWatcher(worker.WatcherConfig{
			Dir:     a.pipeline.Dir(),
			Trigger: a.triggerScan,
			Logger:  a.logger,
		})
	}

	var replies worker.TaskProcessor
	if a.responder != nil {
		replies = a.responder
	}

	a.worker = worker.NewWorker(worker.WorkerConfig{
		TaskQueue:      a.taskQueue,
		Scanner:        a.scanner,
		Replies:        replies,
		Scheduler:      a.scheduler,
		Watcher:        watcher,
		Logger:         a.logger,
		Concurrency:    a.cfg.Worker.Concurrency,
		DequeueTimeout: a.cfg.Worker.DequeueTimeout,
	})
	return a.worker
}

// triggerScan runs an out-of-band scan, through the scheduler when one
// exists so the scan lock is honoured.
func (a *app) triggerScan(ctx context.Context) error {
	if a.scheduler != nil {
		_, err := a.scheduler.TriggerNow(ctx)
		return err
	}
	_, err := a.scanner.ScanAndIngestPending(ctx)
	return err
}

// Close releases every connection the app opened
func (a *app) Close() {
	var errs []error
	if a.runtime != nil {
		errs = append(errs, a.runtime.Close())
	}
	if a.taskQueue != nil {
		errs = append(errs, a.taskQueue.Close())
	}
	if a.redisClient != nil {
		errs = append(errs, a.redisClient.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	if err := errors.Join(errs...); err != nil {
		a.logger.Warn("shutdown cleanup", "error", err)
	}
}
