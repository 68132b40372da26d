// cmd/main.go
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lmittmann/tint"
	"github.com/rs/cors"

	"lecteuraide/internal/config"
	"lecteuraide/internal/handlers"
	"lecteuraide/internal/llm"
	"lecteuraide/internal/middleware"
	"lecteuraide/internal/model"
	"lecteuraide/internal/pipeline"
	"lecteuraide/internal/repository"
	"lecteuraide/internal/service"
	"lecteuraide/internal/translate"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

func main() {
	// 設定ファイル読み込み用の一時的なロガー設定
	tempLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(tempLogger)
	log.Println("Log Config Loading...")

	if err := config.LoadConfig("../configs"); err != nil {
		slog.Error("Error loading configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// === 設定に基づいて slog ロガーを初期化 ===
	logLevel := new(slog.LevelVar)
	switch strings.ToLower(config.Cfg.Log.Level) {
	case "debug":
		logLevel.Set(slog.LevelDebug)
	case "info":
		logLevel.Set(slog.LevelInfo)
	case "warn", "warning":
		logLevel.Set(slog.LevelWarn)
	case "error":
		logLevel.Set(slog.LevelError)
	default:
		logLevel.Set(slog.LevelInfo)
		slog.Warn("Unknown log level specified in config, defaulting to INFO", slog.String("level", config.Cfg.Log.Level))
	}

	var handler slog.Handler
	appEnv := os.Getenv("APP_ENV")
	if strings.ToLower(appEnv) == "dev" {
		tintOpts := &tint.Options{
			Level:      logLevel,
			TimeFormat: time.RFC3339,
		}
		handler = tint.NewHandler(os.Stderr, tintOpts)
		tempLogger.Info("Using TINT log handler", slog.String("APP_ENV", appEnv))
	} else {
		jsonOpts := &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}
		handler = slog.NewJSONHandler(os.Stderr, jsonOpts)
		tempLogger.Info("Using JSON log handler", slog.String("APP_ENV", appEnv))
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	slog.Info("Application starting...")

	// 2. Initialize Database Connection (GORM)
	db, err := repository.NewDB(config.Cfg.Database.URL, logger)
	if err != nil {
		slog.Error("Error initializing database", slog.Any("error", err))
		os.Exit(1)
	}
	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("Error getting underlying sql.DB from GORM", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			slog.Error("Error closing database connection", slog.Any("error", err))
		} else {
			slog.Info("Database connection closed.")
		}
	}()

	if err := db.AutoMigrate(
		&model.Book{},
		&model.Scene{},
		&model.Sentence{},
		&model.SceneExercise{},
		&model.IngestionJob{},
		&model.ReadingProgress{},
	); err != nil {
		slog.Error("Error migrating database schema", slog.Any("error", err))
		os.Exit(1)
	}

	// 3. Dependency Injection
	bookRepo := repository.NewGormBookRepository()
	sceneRepo := repository.NewGormSceneRepository()
	jobRepo := repository.NewGormJobRepository()
	progressRepo := repository.NewGormProgressRepository()

	generator := llm.NewClient(
		config.Cfg.Generator.APIURL,
		config.Cfg.Generator.APIKey,
		config.Cfg.Generator.Model,
		logger,
	)
	translator, err := translate.NewAWSTranslator(&config.Cfg, logger)
	if err != nil {
		slog.Error("Error initializing translator", slog.Any("error", err))
		os.Exit(1)
	}

	stages := pipeline.Stages{
		Segmenter:  generator,
		Translator: translator,
		Vocabulary: generator,
		Questions:  generator,
	}
	runnerCfg := pipeline.Config{
		ChunkMaxChars: config.Cfg.Pipeline.ChunkMaxChars,
		Retry: pipeline.RetryPolicy{
			MaxAttempts:  config.Cfg.Pipeline.MaxAttempts,
			BackoffBase:  time.Duration(config.Cfg.Pipeline.BackoffBaseMillis) * time.Millisecond,
			StageTimeout: time.Duration(config.Cfg.Pipeline.StageTimeoutSeconds) * time.Second,
		},
		SceneConcurrency: config.Cfg.Pipeline.SceneConcurrency,
		QuestionLimit:    config.Cfg.Pipeline.QuestionLimit,
		TargetLanguage:   config.Cfg.Translator.TargetLanguage,
	}

	store := service.NewPipelineStore(db, sceneRepo, jobRepo)
	runner := pipeline.NewRunner(store, stages, runnerCfg, logger)
	registry := pipeline.NewRegistry()

	ingestionService := service.NewIngestionService(db, bookRepo, jobRepo, runner, registry, logger)
	bookService := service.NewBookService(db, bookRepo)
	progressService := service.NewProgressService(db, bookRepo, progressRepo)

	ingestionHandler := handlers.NewIngestionHandler(ingestionService, logger)
	bookHandler := handlers.NewBookHandler(bookService, logger)
	progressHandler := handlers.NewProgressHandler(progressService, logger)

	// 4. Setup Router
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.LoggingMiddleware(logger))

	corsOptions := cors.Options{
		AllowedOrigins:   config.Cfg.CORS.AllowedOrigins,
		AllowedMethods:   config.Cfg.CORS.AllowedMethods,
		AllowedHeaders:   config.Cfg.CORS.AllowedHeaders,
		ExposedHeaders:   config.Cfg.CORS.ExposedHeaders,
		AllowCredentials: config.Cfg.CORS.AllowCredentials,
		MaxAge:           config.Cfg.CORS.MaxAge,
		Debug:            false,
	}
	corsHandler := cors.New(corsOptions)
	r.Use(corsHandler.Handler)

	r.Use(chimiddleware.Recoverer)

	// API Routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/books", func(r chi.Router) {
			// 取り込みは進捗をストリーミングするため、Timeoutミドルウェアを掛けない
			r.Post("/ingest", ingestionHandler.PostIngest)

			r.Group(func(r chi.Router) {
				r.Use(chimiddleware.Timeout(60 * time.Second))
				r.Get("/", bookHandler.GetBooks)
				r.Get("/{book_id}", bookHandler.GetBook)
				r.Delete("/{book_id}", bookHandler.DeleteBook)

				// 読書進捗は X-User-ID ヘッダーで利用者を識別する
				r.Group(func(r chi.Router) {
					r.Use(middleware.UserIdentifier)
					r.Put("/{book_id}/progress", progressHandler.PutProgress)
					r.Get("/{book_id}/progress", progressHandler.GetProgress)
				})
			})
		})
	})

	// Health Check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if err := sqlDB.PingContext(ctx); err != nil {
			slog.ErrorContext(ctx, "Health check failed: could not ping DB", slog.Any("error", err))
			http.Error(w, "Health check failed", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// 5. Start Server
	server := &http.Server{
		Addr:        config.Cfg.Server.Port,
		Handler:     r,
		ReadTimeout: 30 * time.Second,
		// 取り込みストリームは文書サイズに比例して長くなるため WriteTimeout は設けない
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("Server listening", slog.String("port", config.Cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Could not listen on port", slog.String("port", config.Cfg.Server.Port), slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", slog.Any("error", err))
	}

	log.Println("Server exiting")
}
