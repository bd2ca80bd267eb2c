package main

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"edureview/internal/util"
	"edureview/pkg/ai"
	"edureview/pkg/events"
	"edureview/pkg/storage"
	"edureview/services/review/internal/app"
	"edureview/services/review/internal/checker"
	"edureview/services/review/internal/config"
	"edureview/services/review/internal/server"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	generator, err := newGenerator(cfg)
	if err != nil {
		log.Fatalf("failed to init model backend: %v", err)
	}

	checkers := []checker.Checker{
		checker.NewLexicalChecker(),
		checker.NewReadabilityChecker(generator),
		checker.NewCitationChecker(generator),
		checker.NewStalenessChecker(),
	}

	var publisher events.Publisher
	if cfg.AMQPURL != "" {
		p, err := events.NewAMQPPublisher(cfg.AMQPURL)
		if err != nil {
			log.Fatalf("failed to connect to broker: %v", err)
		}
		defer p.Close()
		publisher = p
	}

	var archiver storage.ReviewArchiver
	if cfg.MinioEndpoint != "" {
		objectStore, err := storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			log.Fatalf("failed to init object store: %v", err)
		}
		archiver = storage.NewObjectArchive(objectStore)
	}

	appCore, err := app.New(app.Config{
		DatabaseURL: cfg.DatabaseURL,
		Checkers:    checkers,
		Publisher:   publisher,
		Archiver:    archiver,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	httpServer := server.New(server.Config{
		App: appCore,
	})

	handler := util.WithRequestID(util.WithRequestLog("review", util.WithCORS(util.WithSecurityHeaders(httpServer.Router()))))

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("review server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}

func newGenerator(cfg config.FileConfig) (ai.StructuredGenerator, error) {
	if cfg.GeminiAPIKey != "" {
		client, err := ai.NewGeminiClient(cfg.GeminiAPIKey)
		if err != nil {
			return nil, err
		}
		return ai.NewGeminiGenerator(client, cfg.GeminiModel), nil
	}
	return ai.NewOpenAICompatGenerator(cfg.ModelBaseURL, cfg.ModelAPIKey, cfg.ModelName), nil
}
