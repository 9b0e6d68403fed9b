package api

import (
	"time"

	"recipe-assistant/internal/api/handlers/account"
	"recipe-assistant/internal/api/handlers/health"
	recipeHandler "recipe-assistant/internal/api/handlers/recipe"
	"recipe-assistant/internal/api/handlers/saved"
	"recipe-assistant/internal/api/middleware"
	"recipe-assistant/internal/infrastructure/config"
	"recipe-assistant/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Dependencies 路由需要的服務
type Dependencies struct {
	Recipes  recipeHandler.RecipeService
	Images   recipeHandler.ImageDecoder
	Saved    saved.Store
	Accounts interface {
		account.Accounts
		middleware.TokenParser
	}
	Queue    health.QueueStatus
	Upstream []health.CredentialChecker
	Ready    map[string]health.Pinger
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, deps Dependencies) *gin.Engine {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(requestid.New())
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	router.Use(middleware.Deduplication(cfg.DedupWindow))
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	healthHandler := health.NewHandler(cfg.App.Version, deps.Queue, deps.Ready, deps.Upstream...)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	requireAuth := middleware.RequireAuth(deps.Accounts)

	api := router.Group("/api/v1")
	{
		accountHandler := account.NewHandler(deps.Accounts)
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", accountHandler.HandleRegister)
			authGroup.POST("/login", accountHandler.HandleLogin)
			authGroup.PUT("/language", requireAuth, accountHandler.HandleUpdateLanguage)
		}

		recipes := recipeHandler.NewHandler(deps.Recipes, deps.Images, cfg.Image.MaxImages)
		recipeGroup := api.Group("/recipe")
		{
			recipeGroup.POST("/recognize", recipes.HandleRecognize)
			recipeGroup.POST("/generate", recipes.HandleGenerate)
			recipeGroup.POST("/nutrition", recipes.HandleNutrition)
			recipeGroup.POST("/suggest", recipes.HandleSuggest)
			recipeGroup.GET("/lucky", recipes.HandleLucky)
		}

		savedHandler := saved.NewHandler(deps.Saved)
		savedGroup := api.Group("/recipes", requireAuth)
		{
			savedGroup.POST("", savedHandler.HandleSave)
			savedGroup.GET("", savedHandler.HandleList)
			savedGroup.GET("/search", savedHandler.HandleSearch)
			savedGroup.GET("/stats", savedHandler.HandleStats)
			savedGroup.GET("/:id", savedHandler.HandleGet)
			savedGroup.PATCH("/:id", savedHandler.HandleAnnotate)
			savedGroup.DELETE("/:id", savedHandler.HandleDelete)
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
		zap.Duration("request_timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
	)

	return router
}
