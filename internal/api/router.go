package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/fleetguard/fleetguard/config"
	"github.com/fleetguard/fleetguard/internal/auth"
	"github.com/fleetguard/fleetguard/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.ServerConfig, h *Handler, authSvc *auth.Service) *gin.Engine {
	r := gin.Default()

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.POST("/login", h.Login)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)

		authed := api.Group("")
		authed.Use(mw.Auth(authSvc))
		{
			// Dashboard
			authed.GET("/dashboard-metrics", h.GetDashboardMetrics)
			authed.GET("/vencimento-multas", h.GetExpiringInfractions)

			admin := authed.Group("")
			admin.Use(mw.RequireAdmin())
			{
				admin.GET("/dashboard-metrics-colaborador-maior-aumento", caching, h.GetBiggestIncrease)
				admin.GET("/top-offenders", caching, h.GetTopOffenders)
				admin.GET("/infracoes-chart-data", caching, h.GetInfractionChartData)

				// Registry CRUD
				admin.POST("/colaboradores", h.CreateWorker)
				admin.PUT("/colaboradores/:id", h.UpdateWorker)
				admin.DELETE("/colaboradores/:id", h.DeactivateWorker)
				admin.POST("/veiculos", h.CreateVehicle)
				admin.PUT("/veiculos/:id", h.UpdateVehicle)
				admin.POST("/infracoes", h.CreateInfraction)
				admin.PUT("/infracoes/:id", h.UpdateInfraction)

				// CSV bulk import
				admin.POST("/colaboradores/import", h.ImportWorkers)
				admin.POST("/historico-utilizacao/import", h.ImportUsage)
			}

			authed.GET("/colaboradores", h.ListWorkers)
			authed.GET("/veiculos", h.ListVehicles)
			authed.GET("/infracoes", h.ListInfractions)
			authed.GET("/historico-utilizacao", h.ListUsage)

			// Usage lifecycle
			authed.POST("/historico-utilizacao/iniciar", h.StartUsage)
			authed.POST("/historico-utilizacao/finalizar", h.FinishUsage)
			authed.GET("/colaborador/uid/:uid", h.GetWorkerByUID)

			// Push subscriptions for deadline alerts
			authed.PUT("/subscriptions", h.PutSubscription)
			authed.DELETE("/subscriptions", h.DeleteSubscription)
		}
	}

	return r
}
