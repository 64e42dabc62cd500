package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mismelpoulout/nota/internal/config"
	"github.com/mismelpoulout/nota/internal/core/ports"
	"github.com/mismelpoulout/nota/internal/core/usecase"
	"github.com/mismelpoulout/nota/internal/infrastructure/cache/pagecache"
	"github.com/mismelpoulout/nota/internal/infrastructure/chunking"
	"github.com/mismelpoulout/nota/internal/infrastructure/extractor"
	"github.com/mismelpoulout/nota/internal/infrastructure/fetch"
	boltindex "github.com/mismelpoulout/nota/internal/infrastructure/index/bolt"
	"github.com/mismelpoulout/nota/internal/infrastructure/llm/ollama"
	natsqueue "github.com/mismelpoulout/nota/internal/infrastructure/queue/nats"
	"github.com/mismelpoulout/nota/internal/infrastructure/repository/postgres"
	"github.com/mismelpoulout/nota/internal/infrastructure/resilience"
	"github.com/mismelpoulout/nota/internal/infrastructure/storage/localfs"
	"github.com/mismelpoulout/nota/internal/infrastructure/websearch"
	"github.com/mismelpoulout/nota/internal/observability/metrics"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue ports.MessageQueue
	Repo  ports.DocumentRepository

	AskUC     *usecase.AskUseCase
	IngestUC  *usecase.IngestUseCase
	ProcessUC *usecase.ProcessUseCase

	APIMetrics    *metrics.APIMetrics
	WorkerMetrics *metrics.WorkerMetrics

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	scoring, err := config.LoadScoring(cfg.ScoringConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load scoring config: %w", err)
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	index, err := boltindex.Open(cfg.IndexPath)
	if err != nil {
		return nil, fmt.Errorf("open full-text index: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig(), logger)

	queue, err := natsqueue.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, natsqueue.Options{
		ResilienceExecutor: executor,
		Logger:             logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	apiMetrics := metrics.NewAPIMetrics("nota-api")
	workerMetrics := metrics.NewWorkerMetrics("nota-worker")

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel)

	var embedder ports.Embedder
	if cfg.EmbeddingEnabled {
		embedder = ollama.NewResilientEmbedder(ollama.NewEmbedder(ollamaClient), executor)
	}
	var generator ports.AnswerGenerator
	if cfg.SummaryEnabled {
		generator = ollama.NewResilientGenerator(ollama.NewGenerator(ollamaClient), executor)
	}

	classifier, err := buildClassifier(ctx, cfg.ClassifierMode, embedder, logger)
	if err != nil {
		return nil, err
	}

	scorer := usecase.NewEvidenceScorer(scoring)
	engine := usecase.NewEngine(scoring, classifier, embedder, logger)

	var searcher ports.WebSearcher = websearch.Nop{}
	if cfg.SearchAPIKey != "" {
		searcher = websearch.New(cfg.SearchAPIKey, websearch.Options{
			Endpoint: cfg.SearchEndpoint,
			Market:   cfg.SearchMarket,
			Executor: executor,
		})
	} else {
		logger.Warn("web search disabled, no api key configured")
	}

	pageFetcher := fetch.New(fetch.Options{
		RequestsPerSecond: float64(cfg.FetchRatePerSecond),
	})
	cache := pagecache.New(time.Duration(cfg.PageCacheTTLMinutes)*time.Minute, 30*time.Minute)
	fetcher := pagecache.NewCachingFetcher(pageFetcher, cache, apiMetrics.ObserveCacheLookup)

	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	textExtractor := extractor.New(storage)

	askUC := usecase.NewAskUseCase(engine, repo, index, searcher, fetcher, generator, scoring, logger)
	ingestUC := usecase.NewIngestUseCase(repo, storage, queue, logger)
	processUC := usecase.NewProcessUseCase(repo, textExtractor, chunker, index, scorer, logger)

	return &App{
		Config: cfg,
		Logger: logger,

		Queue: queue,
		Repo:  repo,

		AskUC:     askUC,
		IngestUC:  ingestUC,
		ProcessUC: processUC,

		APIMetrics:    apiMetrics,
		WorkerMetrics: workerMetrics,

		closeFn: func() {
			queue.Close()
			_ = index.Close()
			_ = db.Close()
		},
	}, nil
}

// buildClassifier picks the sentence classifier. Prototype mode needs a
// working embedder at startup; anything else falls back to keyword rules.
func buildClassifier(ctx context.Context, mode string, embedder ports.Embedder, logger *slog.Logger) (ports.SectionClassifier, error) {
	if mode == "prototype" {
		if embedder == nil {
			logger.Warn("prototype classifier requires embeddings, using keyword rules")
			return usecase.NewKeywordClassifier(), nil
		}
		classifier, err := usecase.NewPrototypeClassifier(ctx, embedder)
		if err != nil {
			return nil, fmt.Errorf("build prototype classifier: %w", err)
		}
		return classifier, nil
	}
	return usecase.NewKeywordClassifier(), nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
