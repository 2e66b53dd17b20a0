package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/opencatalog/metadata-service/internal/service"
)

// Register mounts all public routes on the given engine.
// Accepts service layer dependencies for API endpoints.
func Register(r *gin.Engine, repo Pinger, chartSvc service.ChartService, registry service.ServiceRegistry) {
	h := NewHealthHandler(repo)

	// Health probes
	r.GET("/live", h.Liveness)
	r.GET("/ready", h.Readiness)

	// Docs endpoints (root-level)
	RegisterDocs(r)

	api := r.Group(APIV1Prefix) // Versioning via single source of truth
	{
		health := api.Group("/health")
		{
			health.GET("/live", h.Liveness)
			health.GET("/ready", h.Readiness)
		}
		NewChartHandler(chartSvc).Register(api)
		NewServiceHandler(registry).Register(api)
	}
}
