package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"venturelens/backend/features/crawl"
	"venturelens/backend/features/deal"
	"venturelens/backend/features/document"
	"venturelens/backend/features/query"
	"venturelens/backend/internal/adapter/firecrawl"
	"venturelens/backend/internal/adapter/gemini"
	"venturelens/backend/internal/adapter/websearch"
	"venturelens/backend/internal/config"
	"venturelens/backend/internal/funding"
	"venturelens/backend/internal/middleware"
	"venturelens/backend/internal/retrieval"
	"venturelens/backend/internal/settings"
	"venturelens/backend/internal/worker"
)

// TaskPublisher is satisfied by *nsq.Producer.
type TaskPublisher interface {
	Publish(topic string, body []byte) error
}

type App struct {
	Handler   http.Handler
	Processor *worker.Processor
	port      int
}

func New(cfg *config.Config, db *sql.DB, taskPub TaskPublisher) (*App, error) {
	// Feature: Settings
	settingsRepo := settings.NewPostgresRepo(db)
	settingsService := settings.NewService(settingsRepo)
	seedSettings(cfg, settingsService)
	settingsHandler := settings.NewHandler(settingsService)

	geminiKey := cfg.GeminiAPIKey
	firecrawlKey := cfg.FirecrawlAPIKey
	topK := cfg.RetrievalTopK
	crawlWindow := cfg.CrawlWindowHours
	if set, err := settingsService.Get(context.Background()); err == nil {
		if set.GeminiAPIKey != "" {
			geminiKey = set.GeminiAPIKey
		}
		if set.FirecrawlAPIKey != "" {
			firecrawlKey = set.FirecrawlAPIKey
		}
		if set.SearchTopK > 0 {
			topK = set.SearchTopK
		}
		if set.CrawlWindowHours > 0 {
			crawlWindow = set.CrawlWindowHours
		}
	}

	// Adapters
	var tagger worker.KeywordTagger
	var expander retrieval.KeywordExpander
	if geminiKey != "" {
		extractor, err := gemini.NewKeywordExtractor(context.Background(), geminiKey)
		if err != nil {
			slog.Warn("keyword extractor unavailable, continuing without keyword enrichment", "error", err)
		} else {
			tagger = extractor
			expander = extractor
		}
	}
	chatClient := gemini.NewChatClient(geminiKey)
	webClient := websearch.NewClient(cfg.PerplexityAPIKey)
	scraper := firecrawl.NewClient(firecrawlKey)

	// Feature: Document
	docRepo := document.NewPostgresRepo(db)
	chunkRepo := document.NewChunkRepo(db)
	docService := document.NewService(docRepo, chunkRepo, taskPub)
	docHandler := document.NewHandler(docService, cfg.UploadDir, cfg.MaxUploadSizeMB)

	// Feature: Deal
	dealRepo := deal.NewPostgresRepo(db)
	dealService := deal.NewService(dealRepo)
	dealHandler := deal.NewHandler(dealService)

	// Feature: Retrieval & Query
	queryLogger, err := retrieval.NewFileQueryLogger(cfg.QueryLogPath)
	if err != nil {
		slog.Warn("failed to create query logger, falling back to stdout", "error", err)
		queryLogger = retrieval.NewQueryLogger(os.Stdout)
	}
	retrievalService := retrieval.NewService(chunkRepo, expander, queryLogger, cfg.RetrievalPoolSize, topK)
	queryService := query.NewService(retrievalService, chatClient, webClient)
	queryHandler := query.NewHandler(queryService)

	// Ingestion pipeline shared by the upload worker and the crawler.
	ingestor := worker.NewIngestor(docRepo, chunkRepo, tagger, dealRepo, worker.IngestConfig{
		ChunkSize:          cfg.UploadChunkSize,
		ChunkOverlap:       cfg.UploadChunkOverlap,
		ChunkMinLength:     cfg.ChunkMinLength,
		ParagraphChunkSize: cfg.ParagraphChunkSize,
		KeywordMaxChunks:   cfg.KeywordMaxChunks,
		Conversion: funding.Conversion{
			CroreToUSDMillions: cfg.CroreToUSDMillions,
			LakhToUSDMillions:  cfg.LakhToUSDMillions,
		},
	})
	processor := worker.NewProcessor(ingestor, docRepo)

	// Feature: Crawl
	coordinator := crawl.NewCoordinator(
		scraper, docRepo, ingestor, nil,
		crawlWindow,
		cfg.CrawlMinContentChars,
		time.Duration(cfg.CrawlDelaySeconds)*time.Second,
	)
	crawlHandler := crawl.NewHandler(coordinator)

	enableCORS := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next(w, r)
		}
	}

	mux := http.NewServeMux()

	mux.Handle("POST /documents", middleware.CorrelationID(enableCORS(docHandler.Upload)))
	mux.Handle("GET /documents", middleware.CorrelationID(enableCORS(docHandler.List)))
	mux.Handle("GET /documents/{id}", middleware.CorrelationID(enableCORS(docHandler.Get)))
	mux.Handle("DELETE /documents/{id}", middleware.CorrelationID(enableCORS(docHandler.Delete)))

	mux.Handle("POST /query", middleware.CorrelationID(enableCORS(queryHandler.Query)))
	mux.Handle("POST /crawl", middleware.CorrelationID(enableCORS(crawlHandler.Trigger)))

	mux.Handle("GET /deals", middleware.CorrelationID(enableCORS(dealHandler.List)))
	mux.Handle("GET /stats", middleware.CorrelationID(enableCORS(dealHandler.Stats)))

	mux.Handle("GET /settings", middleware.CorrelationID(enableCORS(settingsHandler.GetSettings)))
	mux.Handle("PUT /settings", middleware.CorrelationID(enableCORS(settingsHandler.UpdateSettings)))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	return &App{
		Handler:   mux,
		Processor: processor,
		port:      cfg.ServerPort,
	}, nil
}

// seedSettings copies API keys from the environment into the settings
// row when it is still empty, so a fresh deployment works without a
// manual settings call.
func seedSettings(cfg *config.Config, svc *settings.Service) {
	if cfg.GeminiAPIKey == "" && cfg.FirecrawlAPIKey == "" {
		return
	}

	ctx := context.Background()
	set, err := svc.Get(ctx)
	if err != nil {
		slog.Warn("failed to fetch settings for seeding", "error", err)
		return
	}

	changed := false
	if set.GeminiAPIKey == "" && cfg.GeminiAPIKey != "" {
		set.GeminiAPIKey = cfg.GeminiAPIKey
		changed = true
	}
	if set.FirecrawlAPIKey == "" && cfg.FirecrawlAPIKey != "" {
		set.FirecrawlAPIKey = cfg.FirecrawlAPIKey
		changed = true
	}
	if !changed {
		return
	}

	if err := svc.Update(ctx, set); err != nil {
		slog.Warn("failed to seed api keys", "error", err)
	} else {
		slog.Info("seeded api keys from environment")
	}
}

func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.port),
		Handler: a.Handler,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", a.port)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
