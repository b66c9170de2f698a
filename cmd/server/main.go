package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"gloveiq-backend/internal/appraisal"
	"gloveiq-backend/internal/cache"
	"gloveiq-backend/internal/catalog"
	"gloveiq-backend/internal/config"
	"gloveiq-backend/internal/handlers"
	"gloveiq-backend/internal/ledger"
	"gloveiq-backend/internal/logger"
	"gloveiq-backend/internal/matcher"
	"gloveiq-backend/internal/middleware"
	"gloveiq-backend/internal/models"
	"gloveiq-backend/internal/photostore"
	"gloveiq-backend/internal/vision"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Load the read-only catalog: the library workbook when configured,
	// the embedded seed otherwise.
	var cat *catalog.Catalog
	if cfg.CatalogXLSXPath != "" {
		cat, err = catalog.LoadXLSX(cfg.CatalogXLSXPath)
		if err != nil {
			appLogger.Fatal("failed to load catalog workbook", "path", cfg.CatalogXLSXPath, "error", err)
		}
		appLogger.Info("catalog loaded from workbook", "path", cfg.CatalogXLSXPath, "variants", len(cat.Variants))
	} else {
		cat, err = catalog.LoadSeed()
		if err != nil {
			appLogger.Fatal("failed to load embedded catalog seed", "error", err)
		}
		appLogger.Info("catalog loaded from embedded seed", "variants", len(cat.Variants))
	}

	// Caches are constructed here and injected, never package globals.
	hashCache := cache.New[string](24 * time.Hour)
	idCache := cache.New[*vision.IdentificationResult](10 * time.Minute)
	respCache := cache.New[*models.AnalyzeResponse](20 * time.Minute)

	// Optional Supabase mirror for photo bytes
	var remote *photostore.RemoteMirror
	if cfg.SupabaseURL != "" && cfg.SupabasePublishableKey != "" {
		remote = photostore.NewRemoteMirror(cfg.SupabaseURL, cfg.SupabasePublishableKey, cfg.SupabaseStorageBucket)
		appLogger.Info("photo mirror enabled", "bucket", cfg.SupabaseStorageBucket)
	}

	store, err := photostore.New(cfg.UploadDir, cfg.BaseURL, hashCache, remote, appLogger)
	if err != nil {
		appLogger.Fatal("failed to initialize photo store", "error", err)
	}

	led, err := ledger.New(cfg.LedgerPath)
	if err != nil {
		appLogger.Fatal("failed to initialize run ledger", "error", err)
	}

	visionClient := vision.NewClient(cfg.VisionAPIBaseURL, cfg.VisionAPIKey)
	match := matcher.New(cat)

	service := appraisal.NewService(store, cat, match, visionClient, led, idCache, respCache, appLogger)

	photosHandler := handlers.NewPhotosHandler(store, led, appLogger)
	appraisalHandler := handlers.NewAppraisalHandler(service, led, appLogger)

	// Setup router
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	// Health check (no auth)
	router.GET("/health", handlers.HealthHandler)

	// Stored photos are served straight from the upload directory.
	router.Static("/uploads", store.Dir())

	api := router.Group("/")
	api.Use(middleware.AuthMiddleware(cfg))
	api.POST("/photos/upload", photosHandler.Upload)
	api.POST("/appraisal/analyze", appraisalHandler.Analyze)
	api.GET("/appraisal/runs", appraisalHandler.Runs)

	appLogger.Info("server starting", "port", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		appLogger.Fatal("server exited", "error", err)
	}
}
