package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"legal-case-intelligence/internal/ai"
	"legal-case-intelligence/internal/analysis"
	"legal-case-intelligence/internal/config"
	"legal-case-intelligence/internal/extraction"
	"legal-case-intelligence/internal/logger"
	"legal-case-intelligence/internal/queue"
	"legal-case-intelligence/internal/repository"
	"legal-case-intelligence/internal/similarity"
	"legal-case-intelligence/internal/telemetry"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.InitLogger(cfg)

	ctx := context.Background()

	if cfg.OTLPEndpoint != "" {
		shutdown, err := telemetry.InitTracer("legal-case-intelligence", cfg.OTLPEndpoint)
		if err != nil {
			log.Fatal("Failed to initialize tracer:", err)
		}
		defer shutdown()
	}

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Fatal("Failed to initialize metrics:", err)
	}

	pool, err := config.ConnectPostgres(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to connect to Postgres:", err)
	}
	defer pool.Close()

	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(ctx)
	mongoDB := mongoClient.Database(cfg.DBName)

	redisClient, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer redisClient.Close()

	geminiClient, err := ai.NewGeminiClient(cfg.GeminiAPIKey)
	if err != nil {
		log.Fatal("Failed to initialize Gemini client:", err)
	}
	defer geminiClient.Close()

	// Stores
	analyses := repository.NewAnalysisRepository(pool)
	cases := repository.NewCaseRepository(pool)
	documents := repository.NewDocumentRepository(pool)
	matches := repository.NewMatchRepository(pool)
	caseDocs := repository.NewCaseDocumentRepository(mongoDB)

	// Pipeline services
	invoker := ai.NewInvoker(cfg, geminiClient)
	service := analysis.NewService(analyses, cases, documents, caseDocs, invoker)
	extractor := extraction.NewOrchestrator(cfg)

	cacheTTL := time.Duration(cfg.SimilarityCacheTTL) * time.Minute
	matchCache := similarity.NewLayeredCache(cacheTTL, redisClient, cacheTTL)
	scorer := similarity.NewEmbeddingSimilarity(geminiClient, cfg.EmbeddingsModel)
	searcher := similarity.NewPrecedentSearcher(cfg)
	matcher := similarity.NewEngine(cases, documents, matches, searcher, scorer, matchCache,
		cacheTTL, cfg.DefaultMinSimilarity)

	redisOpt := redisOptFromConfig(cfg)
	enqueuer := queue.NewEnqueuer(redisOpt, cfg)
	defer enqueuer.Close()

	reconciler := queue.NewReconciler(analyses, service, enqueuer, cfg).WithMetrics(metrics)
	if err := reconciler.Start(); err != nil {
		log.Fatal("Failed to start reconciler:", err)
	}
	defer reconciler.Stop()

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.WorkerConcurrency,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			StrictPriority: true,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task failed", "type", task.Type(), "error", err)
			}),
		},
	)

	processor := queue.NewTaskProcessor(extractor, documents, service, matcher, enqueuer).
		WithMetrics(metrics)

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskExtractDocument, processor.ProcessExtraction)
	mux.HandleFunc(queue.TaskAnalyzeCase, processor.ProcessAnalysis)

	logger.Info("starting analysis worker",
		"concurrency", cfg.WorkerConcurrency, "redis", cfg.RedisURL)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info("shutting down worker")
		server.Shutdown()
	}()

	if err := server.Run(mux); err != nil {
		log.Fatal("Failed to start worker:", err)
	}
}

func redisOptFromConfig(cfg *config.Config) asynq.RedisClientOpt {
	if strings.HasPrefix(cfg.RedisURL, "redis://") || strings.HasPrefix(cfg.RedisURL, "rediss://") {
		if opt, err := asynq.ParseRedisURI(cfg.RedisURL); err == nil {
			if clientOpt, ok := opt.(asynq.RedisClientOpt); ok {
				return clientOpt
			}
		}
	}
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
}
