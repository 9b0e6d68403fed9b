package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recipe-assistant/internal/api"
	"recipe-assistant/internal/api/handlers/health"
	"recipe-assistant/internal/core/ai/cache"
	"recipe-assistant/internal/core/ai/completion"
	"recipe-assistant/internal/core/ai/provider"
	"recipe-assistant/internal/core/ai/queue"
	aiservice "recipe-assistant/internal/core/ai/service"
	"recipe-assistant/internal/core/auth"
	"recipe-assistant/internal/core/image"
	"recipe-assistant/internal/core/recipe"
	"recipe-assistant/internal/infrastructure/config"
	"recipe-assistant/internal/infrastructure/database"
	"recipe-assistant/internal/pkg/common"
	"recipe-assistant/internal/repository"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// logger 需在載入 config 後初始化
	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("vision_api_key", cfg.Vision.MaskedKey()),
		zap.String("vision_model", cfg.Vision.Model),
		zap.String("generation_api_key", cfg.Generation.MaskedKey()),
		zap.String("generation_model", cfg.Generation.Model),
		zap.String("database_driver", cfg.Database.Driver),
	)

	store, err := cache.New(cfg)
	if err != nil {
		common.LogFatal("Failed to initialize cache", zap.Error(err))
	}
	if store != nil {
		defer store.Close()
	}

	queueManager := queue.NewManager(cfg.Queue)

	// 辨識結果依圖片內容快取；生成使用高溫取樣，不快取
	vision := aiservice.NewService("vision", newClient("vision", cfg.Vision), store, queueManager)
	generation := aiservice.NewService("generation", newClient("generation", cfg.Generation), nil, queueManager)
	defer vision.Close()
	defer generation.Close()

	db, err := database.InitDB(cfg.Database, cfg.App.Debug, repository.Models()...)
	if err != nil {
		common.LogFatal("Failed to initialize database", zap.Error(err))
	}
	defer database.Close(db)

	accounts := auth.NewService(repository.NewUserRepository(db), cfg.Auth)
	if cfg.Auth.SeedDemoUser {
		if err := accounts.EnsureDemoUser(context.Background()); err != nil {
			common.LogError("Failed to seed demo user", zap.Error(err))
		}
	}

	router := api.SetupRouter(cfg, api.Dependencies{
		Recipes:  recipe.NewService(vision, generation, cfg),
		Images:   image.NewService(cfg.Image.MaxSizeBytes),
		Saved:    repository.NewRecipeRepository(db),
		Accounts: accounts,
		Queue:    queueManager,
		Upstream: []health.CredentialChecker{vision, generation},
		Ready: map[string]health.Pinger{
			"database": func(ctx context.Context) error { return database.Ping(ctx, db) },
		},
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Int("port", cfg.Server.Port),
			zap.Bool("debug", cfg.App.Debug),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			common.LogFatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
	}

	common.LogInfo("Server exited")
}

func newClient(name string, p config.ProviderConfig) *completion.Client {
	return completion.NewClient(provider.Config{
		Name:       name,
		APIKey:     p.APIKey,
		Model:      p.Model,
		Timeout:    p.Timeout,
		MaxRetries: p.MaxRetries,
		BaseURL:    p.BaseURL,
	})
}
