package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fleetguard/fleetguard/internal/model"
)

type usageRequest struct {
	Plate     string `json:"placa" binding:"required"`
	WorkerUID string `json:"colaboradorUid" binding:"required"`
}

// StartUsage handles POST /api/historico-utilizacao/iniciar. 201 on
// success; 409 with an optional action hint when the vehicle already has
// an open interval.
func (h *Handler) StartUsage(c *gin.Context) {
	var req usageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.usage.Start(c.Request.Context(), req.Plate, req.WorkerUID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

// FinishUsage handles POST /api/historico-utilizacao/finalizar.
func (h *Handler) FinishUsage(c *gin.Context) {
	var req usageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.usage.Finish(c.Request.Context(), req.Plate, req.WorkerUID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// GetWorkerByUID handles GET /api/colaborador/uid/:uid, the existence
// pre-check used after scanning a worker's QR badge.
func (h *Handler) GetWorkerByUID(c *gin.Context) {
	worker, err := h.store.WorkerByUID(c.Request.Context(), c.Param("uid"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, worker)
}

// ListUsage handles GET /api/historico-utilizacao.
func (h *Handler) ListUsage(c *gin.Context) {
	q := h.store.DB().WithContext(c.Request.Context()).Order("started_at DESC")
	if c.Query("open") == "true" {
		q = q.Where("ended_at IS NULL")
	}

	var records []model.UsageHistory
	if err := q.Find(&records).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve usage history"})
		return
	}
	c.JSON(http.StatusOK, records)
}
