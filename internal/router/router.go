package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/opencommune/mairie-api/internal/config"
	"github.com/opencommune/mairie-api/internal/database"
	"github.com/opencommune/mairie-api/internal/handlers"
	"github.com/opencommune/mairie-api/internal/metrics"
	"github.com/opencommune/mairie-api/internal/middleware"
	"github.com/opencommune/mairie-api/internal/service"
)

// SetupRouter configures all API routes
func SetupRouter(
	cfg *config.Config,
	db *database.DB,
	doleanceService *service.DoleanceService,
	interventionService *service.InterventionService,
	commissionService *service.CommissionService,
	deliberationService *service.DeliberationService,
	logger *logrus.Logger,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(metrics.Middleware())
	if cfg.CORS.Enabled {
		router.Use(middleware.CORS(&cfg.CORS))
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		if err := db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(503, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(200, gin.H{"status": "healthy"})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Create handlers
	doleanceHandler := handlers.NewDoleanceHandler(doleanceService, logger)
	interventionHandler := handlers.NewInterventionHandler(interventionService, logger)
	commissionHandler := handlers.NewCommissionHandler(commissionService, logger)
	deliberationHandler := handlers.NewDeliberationHandler(deliberationService, logger)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Public citizen-facing routes
		v1.POST("/doleances", doleanceHandler.CreateDoleance)
		v1.GET("/doleances/public/:referenceCode", doleanceHandler.GetPublicStatus)
		v1.GET("/deliberations", deliberationHandler.SearchDeliberations)
		v1.GET("/deliberations/:id", deliberationHandler.GetDeliberation)
		v1.GET("/commissions", commissionHandler.ListCommissions)
		v1.GET("/commissions/:id", commissionHandler.GetCommission)

		// Back-office doleance routes
		doleances := v1.Group("/doleances")
		{
			doleances.GET("", doleanceHandler.ListDoleances)
			doleances.GET("/:id", doleanceHandler.GetDoleance)
			doleances.PUT("/:id", doleanceHandler.UpdateDoleance)
			doleances.DELETE("/:id", doleanceHandler.DeleteDoleance)
		}

		// Technical-service intervention routes
		interventions := v1.Group("/services-techniques")
		{
			interventions.POST("", interventionHandler.CreateIntervention)
			interventions.GET("", interventionHandler.ListInterventions)
			interventions.GET("/:id", interventionHandler.GetIntervention)
			interventions.PUT("/:id", interventionHandler.UpdateIntervention)
			interventions.DELETE("/:id", interventionHandler.DeleteIntervention)
			interventions.GET("/:id/anchors", interventionHandler.GetInterventionAnchors)
		}

		// Administration routes
		v1.POST("/commissions", commissionHandler.CreateCommission)
		v1.PUT("/commissions/:id", commissionHandler.UpdateCommission)
		v1.DELETE("/commissions/:id", commissionHandler.DeleteCommission)
		v1.POST("/deliberations", deliberationHandler.CreateDeliberation)
	}

	return router
}
