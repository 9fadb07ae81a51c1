package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	httpadapter "github.com/avillegas/chatrelay/internal/adapters/http"
	"github.com/avillegas/chatrelay/internal/adapters/llm"
	"github.com/avillegas/chatrelay/internal/adapters/storage/files"
	firestorearchive "github.com/avillegas/chatrelay/internal/adapters/storage/firestore"
	"github.com/avillegas/chatrelay/internal/adapters/storage/memory"
	"github.com/avillegas/chatrelay/internal/app/chat"
	"github.com/avillegas/chatrelay/internal/config"
	"github.com/avillegas/chatrelay/internal/domain"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Generation client: mock or Gemini by config.
	var gen domain.GenerationClient
	if cfg.UseMockLLM {
		slog.Info("Using mock generation client")
		gen = llm.NewMockClient()
	} else {
		gen, err = llm.NewGeminiClient(ctx, cfg)
		if err != nil {
			slog.Error("Failed to initialize Gemini client", "error", err)
			os.Exit(1)
		}
		slog.Info("Gemini client initialized", "text_model", cfg.TextModel, "vision_model", cfg.VisionModel)
	}

	uploads, err := files.NewUploadStore(cfg.UploadDir)
	if err != nil {
		slog.Error("Failed to initialize upload store", "error", err)
		os.Exit(1)
	}

	// Conversation archive: local JSON files or Firestore.
	var archive domain.ConversationArchive
	switch cfg.ArchiveBackend {
	case "firestore":
		slog.Info("Using Firestore conversation archive", "project", cfg.GCPProjectID)
		archive, err = firestorearchive.NewArchive(ctx, cfg.GCPProjectID)
		if err != nil {
			slog.Error("Failed to initialize Firestore archive", "error", err)
			os.Exit(1)
		}
	default:
		slog.Info("Using file conversation archive", "dir", cfg.ConversationsDir)
		archive, err = files.NewArchive(cfg.ConversationsDir)
		if err != nil {
			slog.Error("Failed to initialize file archive", "error", err)
			os.Exit(1)
		}
	}

	svc := chat.NewService(gen, memory.NewTranscriptStore(), archive, uploads)
	handler := httpadapter.NewServer(svc, cfg.MaxUploadBytes)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-runCtx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped")
}
