package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fleetguard/fleetguard/internal/mw"
)

// GetDashboardMetrics handles GET /api/dashboard-metrics. Admins see
// fleet-wide figures; a standard worker sees only their own spend.
func (h *Handler) GetDashboardMetrics(c *gin.Context) {
	actor, ok := mw.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	snap, err := h.agg.Snapshot(c.Request.Context(), actorFor(actor))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// GetBiggestIncrease handles
// GET /api/dashboard-metrics-colaborador-maior-aumento. An optional
// ?limit= caps the ranking; the default is unbounded.
func (h *Handler) GetBiggestIncrease(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	ranking, err := h.agg.BiggestIncrease(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ranking)
}

// GetTopOffenders handles GET /api/top-offenders.
func (h *Handler) GetTopOffenders(c *gin.Context) {
	offenders, err := h.agg.TopOffenders(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, offenders)
}

// GetInfractionChartData handles GET /api/infracoes-chart-data. An
// optional ?months= selects the trailing window, default 12.
func (h *Handler) GetInfractionChartData(c *gin.Context) {
	months := 12
	if raw := c.Query("months"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid months"})
			return
		}
		months = n
	}

	points, err := h.agg.ChartData(c.Request.Context(), months)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, points)
}

// GetExpiringInfractions handles GET /api/vencimento-multas: unanswered
// infractions whose response deadline falls within ?days= (default 7).
func (h *Handler) GetExpiringInfractions(c *gin.Context) {
	days := 7
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid days"})
			return
		}
		days = n
	}

	infractions, err := h.agg.ExpiringInfractions(c.Request.Context(), time.Duration(days)*24*time.Hour)
	if err != nil {
		respondError(c, err)
		return
	}

	// Standard workers only see their own deadlines.
	if actor, ok := mw.ActorFrom(c); ok && !actor.IsAdmin() {
		scoped := infractions[:0]
		for _, inf := range infractions {
			if inf.WorkerID != nil && *inf.WorkerID == actor.WorkerID {
				scoped = append(scoped, inf)
			}
		}
		infractions = scoped
	}

	c.JSON(http.StatusOK, infractions)
}
