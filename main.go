package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Harshith24/rag-video/config"
	"github.com/Harshith24/rag-video/logger"
	"github.com/Harshith24/rag-video/processors"
	"github.com/Harshith24/rag-video/providers"
	"github.com/Harshith24/rag-video/rag"
	"github.com/Harshith24/rag-video/server"
	"github.com/Harshith24/rag-video/storage"
)

func main() {
	configPath := flag.String("config", "config.json", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "rag-video: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store, err)
	}
	defer store.Close(context.Background())
	log.Info("chunk store ready", "backend", cfg.Store)

	client := providers.NewOpenAIClient(cfg)
	embedder := providers.NewOpenAIEmbedder(client, cfg)
	asr := providers.NewWhisperASR(client, cfg)
	ocr := providers.NewVisionOCR(client, cfg)
	chat := providers.NewOpenAIChat(client, cfg)

	pipeline := processors.NewPipeline(processors.PipelineParams{
		Preprocessor: processors.ToolPreprocessor{},
		ASR:          asr,
		OCR:          ocr,
		Embedder:     embedder,
		Store:        store,
		Log:          log,
		DataRoot:     cfg.DataRoot,
		Interval:     cfg.FrameInterval,
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
	})
	composer := rag.NewComposer(embedder, store, chat, log)

	handlers := server.NewHandlers(pipeline, composer, store, log)
	router := server.NewRouter(cfg, handlers)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}
