package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/delivery/http/middleware"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/observability"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// RouterDeps carries everything the HTTP surface talks to. Storage may be nil
// when object storage is unavailable.
type RouterDeps struct {
	Auth        service.AuthService
	Reports     service.ReportService
	Events      service.EventService
	Areas       service.AreaService
	Locations   service.LocationService
	Historical  service.HistoricalService
	Storage     service.StorageService
	RateLimiter *middleware.RateLimiter
	Metrics     *observability.Metrics
	Log         logrus.FieldLogger
	// Ready reports whether the backing stores answer.
	Ready          func(ctx context.Context) error
	AllowedOrigins []string
}

func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(d.Log), middleware.Metrics(d.Metrics))

	allowAll := len(d.AllowedOrigins) == 0 || (len(d.AllowedOrigins) == 1 && d.AllowedOrigins[0] == "*")
	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  allowAll,
		AllowOrigins:     originsOrNil(allowAll, d.AllowedOrigins),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: !allowAll,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if d.Ready != nil {
			if err := d.Ready(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authRequired := middleware.AuthMiddleware(d.Auth)
	authOptional := middleware.OptionalAuth(d.Auth)
	officials := middleware.OfficialsOnly()

	authHandler := NewAuthHandler(d.Auth)
	reportHandler := NewReportHandler(d.Reports, d.Storage)
	statsHandler := NewStatsHandler(d.Reports)
	eventHandler := NewEventHandler(d.Events)
	areaHandler := NewAreaHandler(d.Areas)
	locationHandler := NewLocationHandler(d.Locations)
	historicalHandler := NewHistoricalHandler(d.Historical)

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/google", authHandler.Google)
		}
		api.GET("/users/me", authRequired, authHandler.Me)

		reports := api.Group("/reports")
		{
			create := []gin.HandlerFunc{authOptional}
			if d.RateLimiter != nil {
				create = append(create, d.RateLimiter.Middleware())
			}
			reports.POST("", append(create, reportHandler.Create)...)
			reports.GET("", reportHandler.List)
			reports.GET("/nearby", reportHandler.Nearby)
			reports.GET("/in-bounds", reportHandler.InBounds)
			reports.GET("/area/:areaId", reportHandler.ByArea)
			reports.GET("/cell/:h3", reportHandler.ByCell)
			reports.GET("/unverified", authRequired, officials, reportHandler.Unverified)
			reports.GET("/upload-url", authOptional, reportHandler.GetUploadURL)
			reports.GET("/statistics/by-event-type", statsHandler.ByEventType)
			reports.GET("/statistics/by-status", statsHandler.ByStatus)
			reports.GET("/statistics/total-loss/:eventId", statsHandler.TotalLoss)
			reports.GET("/statistics/assets-by-type", statsHandler.AssetSummary)
			reports.DELETE("/assets/:assetId", authRequired, reportHandler.DeleteAsset)
			reports.GET("/:id", reportHandler.GetDetails)
			reports.PUT("/:id", authRequired, reportHandler.Update)
			reports.PATCH("/:id/verify", authRequired, officials, reportHandler.Verify)
			reports.DELETE("/:id", authRequired, officials, reportHandler.Delete)
			reports.POST("/:id/assets", authRequired, reportHandler.AddAsset)
			reports.GET("/:id/assets", reportHandler.ListAssets)
		}

		events := api.Group("/events")
		{
			events.GET("", eventHandler.List)
			events.GET("/:id", eventHandler.Get)
			events.POST("", authRequired, officials, eventHandler.Create)
			events.PUT("/:id", authRequired, officials, eventHandler.Update)
			events.DELETE("/:id", authRequired, officials, eventHandler.Delete)
		}

		areas := api.Group("/areas")
		{
			areas.GET("", areaHandler.List)
			areas.GET("/event/:eventId", areaHandler.ByEvent)
			areas.GET("/containing", areaHandler.Containing)
			areas.GET("/in-bounds", areaHandler.InBounds)
			areas.GET("/:id", areaHandler.Get)
			areas.POST("", authRequired, officials, areaHandler.Create)
			areas.PUT("/:id", authRequired, officials, areaHandler.Update)
			areas.DELETE("/:id", authRequired, officials, areaHandler.Delete)
		}

		locations := api.Group("/locations")
		{
			locations.GET("", locationHandler.List)
			locations.GET("/nearby", locationHandler.Nearby)
			locations.GET("/nearest", locationHandler.Nearest)
			locations.GET("/in-bounds", locationHandler.InBounds)
			locations.GET("/:id", locationHandler.Get)
			locations.POST("", authRequired, officials, locationHandler.Create)
			locations.PUT("/:id", authRequired, officials, locationHandler.Update)
			locations.DELETE("/:id", authRequired, officials, locationHandler.Delete)
		}

		historical := api.Group("/historical-data")
		{
			historical.GET("", historicalHandler.List)
			historical.GET("/containing", historicalHandler.Containing)
			historical.GET("/in-bounds", historicalHandler.InBounds)
			historical.GET("/:id", historicalHandler.Get)
			historical.POST("", authRequired, officials, historicalHandler.Create)
			historical.PUT("/:id", authRequired, officials, historicalHandler.Update)
			historical.DELETE("/:id", authRequired, officials, historicalHandler.Delete)
		}
	}

	return r
}

func originsOrNil(allowAll bool, origins []string) []string {
	if allowAll {
		return nil
	}
	return origins
}
