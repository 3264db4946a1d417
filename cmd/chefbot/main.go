package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/matheusdonha/cheftesteagente/internal/assembler"
	"github.com/matheusdonha/cheftesteagente/internal/completion"
	"github.com/matheusdonha/cheftesteagente/internal/config"
	"github.com/matheusdonha/cheftesteagente/internal/history"
	"github.com/matheusdonha/cheftesteagente/internal/httpapi"
	"github.com/matheusdonha/cheftesteagente/internal/media"
	"github.com/matheusdonha/cheftesteagente/internal/observability"
	"github.com/matheusdonha/cheftesteagente/internal/relay"
	"github.com/matheusdonha/cheftesteagente/internal/storage"
	"github.com/matheusdonha/cheftesteagente/internal/telegram"
	"github.com/matheusdonha/cheftesteagente/internal/transcribe"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	store, err := history.NewPostgresStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("history store init failed: %v", err)
	}
	defer store.Close()

	if cfg.OpenAIAPIKey == "" {
		log.Printf("OPENAI_API_KEY is not set; every reply will be the fallback")
	}
	completer := completion.NewClient(completion.Config{
		APIKey:     cfg.OpenAIAPIKey,
		Model:      cfg.OpenAIModel,
		Timeout:    cfg.OpenAITimeout,
		MaxRetries: cfg.OpenAIMaxRetries,
	})

	orchestrator := relay.New(store, completer, cfg.HistoryWindow, metrics)

	var (
		asm    httpapi.Assembler
		sender httpapi.Sender
	)
	if cfg.TelegramEnabled() {
		bot, err := telegram.NewClient(cfg.TelegramBotToken)
		if err != nil {
			log.Fatalf("telegram client init failed: %v", err)
		}
		sender = bot

		var uploader assembler.Uploader
		if cfg.MediaEnabled() {
			uploader = storage.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.SupabaseBucket)
			log.Printf("image uploads enabled (bucket %s)", cfg.SupabaseBucket)
		} else {
			log.Printf("supabase credentials not set; image messages will be declined")
		}

		var transcriber assembler.Transcriber
		if cfg.OpenAIAPIKey != "" {
			transcriber = transcribe.NewClient(cfg.OpenAIAPIKey, cfg.OpenAITimeout)
		} else {
			log.Printf("no transcription key; voice messages will be declined")
		}

		asm = assembler.New(bot, media.NewStager(""), uploader, transcriber, bot, metrics)
		log.Printf("telegram webhook enabled")
	} else {
		log.Printf("TELEGRAM_BOT_TOKEN not set; webhook events will be ignored")
	}

	api := httpapi.New(store, orchestrator, asm, sender, cfg.HistoryWindow, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
