package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	apperrors "github.com/ZanzyTHEbar/value-compass/internal/errors"
	"github.com/ZanzyTHEbar/value-compass/internal/monitoring"
	"github.com/ZanzyTHEbar/value-compass/internal/security"
)

// Responses of these routes depend only on the request body.
var cachedRoutes = []string{
	"/api/v1/normalize",
	"/api/v1/portraits/preview",
}

func (a *application) router() *gin.Engine {
	r := gin.New()

	r.Use(apperrors.RecoveryHandler())
	r.Use(monitoring.MonitoringMiddleware(a.metrics, a.logger))
	r.Use(monitoring.SecurityMonitoringMiddleware(a.logger))
	r.Use(security.SecurityHeadersMiddleware(a.cfg.EnableHSTS))
	r.Use(a.guard.ValidateContentType)
	r.Use(a.guard.LimitBody)
	r.Use(a.guard.RequestTimeout)

	r.Use(cors.New(corsConfig(a.cfg.AllowedOrigins)))
	r.Use(a.compression.Handler())

	r.Use(apperrors.ErrorHandler())

	r.GET("/health", a.health)
	r.GET("/metrics", gin.WrapH(a.metrics.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")
	api.Use(a.limiter.IPRateLimitMiddleware())
	api.Use(a.cache.Middleware(a.metrics, cachedRoutes...))
	{
		api.GET("/dimensions", a.listDimensions)
		api.GET("/dimensions/stats", a.dimensionStats)
		api.GET("/questions", a.guard.ValidateCountryQuery, a.listQuestions)
		api.GET("/questions/:key/stats", a.guard.ValidateParams("key"), a.questionStats)
		api.GET("/actors", a.guard.ValidateCountryQuery, a.listActors)
		api.GET("/actors/:actor", a.guard.ValidateParams("actor"), a.actorDetail)

		api.POST("/normalize", a.normalize)
		api.POST("/alignment/dimension", a.dimensionAlignment)
		api.POST("/portraits/preview", a.previewPortrait)

		subjects := api.Group("/subjects/:id", a.guard.ValidateParams("id"))
		subjects.POST("/answers", a.limiter.SubmissionRateLimitMiddleware(), a.submitAnswers)
		subjects.GET("/portrait", a.getPortrait)
		subjects.DELETE("", a.deleteSubject)
		subjects.GET("/actors/:actor/alignment", a.guard.ValidateParams("actor"), a.actorAlignment)
		subjects.GET("/rankings", a.guard.ValidateCountryQuery, a.rankings)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", monitoring.RequestIDHeader}
	cfg.ExposeHeaders = []string{monitoring.RequestIDHeader, "Retry-After", "X-RateLimit-Remaining"}

	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
