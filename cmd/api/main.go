package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/vijay-kartik/iphonetoagent/internal/agent"
	"github.com/vijay-kartik/iphonetoagent/internal/api/handlers"
	"github.com/vijay-kartik/iphonetoagent/internal/api/middleware"
	"github.com/vijay-kartik/iphonetoagent/internal/config"
	infraBQ "github.com/vijay-kartik/iphonetoagent/internal/infra/bigquery"
	"github.com/vijay-kartik/iphonetoagent/internal/jobs"
	"github.com/vijay-kartik/iphonetoagent/internal/jobs/inmemory"
	"github.com/vijay-kartik/iphonetoagent/internal/llm"
	"github.com/vijay-kartik/iphonetoagent/internal/logger"
	"github.com/vijay-kartik/iphonetoagent/internal/notion"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info")
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(cfg.Server.LogLevel)
	ctx := context.Background()

	// LLM client and agent factory
	llmClient, err := llm.NewGeminiClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.CallTimeout, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}

	factory := agent.NewFactory(llmClient, agent.FactoryConfig{
		Model:         cfg.Gemini.Model,
		FixModel:      cfg.Gemini.FixModel,
		MaxIterations: cfg.Gemini.MaxIterations,
	}, log)

	// Transaction store
	repo, err := infraBQ.NewBigQueryTransactionRepository(ctx, cfg.Store.ProjectID, cfg.Store.DatasetID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create transaction repository")
	}
	defer repo.Close()

	// Notion services
	notionClient := notion.NewClient(cfg.Notion.Token)
	ingestor := notion.NewIngestor(notionClient, cfg.Notion.DatabaseID, log)
	txnWriter := notion.NewTransactionWriter(notionClient, cfg.Notion.TxnDatabaseID)

	// Job infrastructure: workspace sync runs off the request path
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(cfg.Jobs.QueueSize, cfg.Jobs.Workers, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	syncHandler := jobs.NewSyncHandler(txnWriter, log)
	go func() {
		log.Info().Msg("Starting sync worker")
		if err := jobQueue.Start(workerCtx, syncHandler); err != nil {
			log.Error().Err(err).Msg("Sync worker stopped with error")
		}
	}()

	// Handlers and routes
	txnsHandler := handlers.NewTransactionsHandler(factory, repo, jobQueue, log)
	ingestHandler := handlers.NewIngestHandler(ingestor, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	router := handlers.NewRouter(txnsHandler, ingestHandler, jobsHandler)

	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(
					middleware.APIKey(cfg.Auth.APIKey, log, "/api/health")(router),
				),
			),
		),
	)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight syncs
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	log.Info().Msg("Server exited")
}
