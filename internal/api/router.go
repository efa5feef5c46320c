package api

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/filmatlas/filmatlas/internal/app"
	"github.com/filmatlas/filmatlas/internal/app/maintenance"
	"github.com/filmatlas/filmatlas/internal/cache"
	"github.com/filmatlas/filmatlas/internal/handlers"
	"github.com/filmatlas/filmatlas/internal/middleware"
	"github.com/filmatlas/filmatlas/internal/services"
	"github.com/filmatlas/filmatlas/internal/spotify"
	"github.com/filmatlas/filmatlas/internal/tmdb"
)

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(db *gorm.DB, cfg *app.Config, cleaner *maintenance.Cleaner) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if cleaner == nil {
		return nil, fmt.Errorf("cleaner must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS())
	if cfg.Server.RateLimit.Enabled {
		rateStore := middleware.NewDatabaseRateStore(cache.NewCounterStore(db))
		r.Use(middleware.RateLimit(rateStore, cfg.Server.RateLimit.MaxRequests, cfg.Server.RateLimit.Window))
	}

	// Health endpoint (public)
	if cfg.Monitoring.Health.Enabled {
		r.GET("/health", handlers.Health())
	}

	// Upstream clients
	tmdbClient, err := tmdb.NewClient(tmdb.Config{
		BaseURL:  cfg.TMDB.BaseURL,
		APIKey:   cfg.TMDB.APIKey,
		Language: cfg.TMDB.Language,
	})
	if err != nil {
		return nil, err
	}

	tokenStore, err := cache.NewTokenStore(db)
	if err != nil {
		return nil, err
	}
	tokenProvider, err := spotify.NewTokenProvider(tokenStore, spotify.TokenConfig{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		TokenURL:     cfg.Spotify.TokenURL,
	})
	if err != nil {
		return nil, err
	}

	searchClient := spotify.NewClient(spotify.ClientConfig{
		SearchURL: strings.TrimRight(cfg.Spotify.BaseURL, "/") + "/search",
	})

	// Cache stores
	metadataStore, err := cache.NewMetadataStore(db)
	if err != nil {
		return nil, err
	}
	soundtrackStore, err := cache.NewSoundtrackStore(db)
	if err != nil {
		return nil, err
	}

	// Services
	metadataSvc, err := services.NewMetadataService(metadataStore, tmdbClient)
	if err != nil {
		return nil, err
	}
	soundtrackSvc, err := services.NewSoundtrackService(soundtrackStore, tokenProvider, searchClient, metadataSvc)
	if err != nil {
		return nil, err
	}
	discoverSvc, err := services.NewDiscoverService(tmdbClient)
	if err != nil {
		return nil, err
	}
	favoriteSvc, err := services.NewFavoriteService(db)
	if err != nil {
		return nil, err
	}

	movieHandler := handlers.NewMovieHandler(metadataSvc)
	soundtrackHandler := handlers.NewSoundtrackHandler(soundtrackSvc)
	discoverHandler := handlers.NewDiscoverHandler(discoverSvc)
	favoriteHandler := handlers.NewFavoriteHandler(favoriteSvc)
	maintenanceHandler := handlers.NewMaintenanceHandler(cleaner)

	api := r.Group("/api")

	movies := api.Group("/movies")
	{
		movies.POST("/save", favoriteHandler.Save)
		movies.DELETE("/save", favoriteHandler.Remove)
		movies.GET("/saved", favoriteHandler.List)

		movies.GET("/:type/:id", movieHandler.Details)
		movies.GET("/:type/:id/videos", movieHandler.Videos)
		movies.GET("/:type/:id/credits", movieHandler.Credits)
		movies.GET("/:type/:id/providers", movieHandler.Providers)
		movies.GET("/:type/:id/soundtrack", soundtrackHandler.Resolve)
		movies.GET("/:type/:id/saved", favoriteHandler.IsSaved)
	}

	discover := api.Group("/discover")
	{
		discover.GET("/trending", discoverHandler.Trending)
		discover.GET("/genre/:id", discoverHandler.ByGenre)
	}
	api.GET("/search", discoverHandler.Search)

	cacheRoutes := api.Group("/cache")
	{
		cacheRoutes.POST("/cleanup", maintenanceHandler.Cleanup)
		cacheRoutes.GET("/stats", maintenanceHandler.Stats)
	}

	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
