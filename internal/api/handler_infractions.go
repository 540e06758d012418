package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/fleetguard/fleetguard/internal/model"
	"github.com/fleetguard/fleetguard/internal/mw"
	"github.com/fleetguard/fleetguard/internal/store"
	"github.com/fleetguard/fleetguard/internal/validate"
)

type infractionRequest struct {
	WorkerUID        string `json:"colaboradorUid"`
	Plate            string `json:"placa"`
	Kind             string `json:"kind"`
	ValueCents       int64  `json:"valor"`
	OccurredAt       string `json:"dataInfracao"`
	SubmittedAt      string `json:"dataEnvio"`
	ResponseDeadline string `json:"prazoResposta"`
	ResponseStatus   string `json:"statusResposta"`
	Recognized       bool   `json:"recognized"`
	ForwardedToHR    bool   `json:"forwardedToHR"`
}

// infractionFromRequest validates the payload and resolves its worker and
// vehicle references.
func (h *Handler) infractionFromRequest(c *gin.Context, req infractionRequest) (*model.Infraction, error) {
	var v validate.Validator
	v.Check(validate.NotBlank(req.Kind), "kind", "is required")
	v.Check(req.ValueCents >= 0, "valor", "must not be negative")
	if req.WorkerUID != "" {
		v.Check(validate.ValidUID(req.WorkerUID), "colaboradorUid", "must be 3 letters followed by 3 digits")
	}
	if req.Plate != "" {
		v.Check(validate.ValidPlate(req.Plate), "placa", "must be 4 letters followed by 3 digits")
	}

	occurredAt, ok := validate.ParseDate(req.OccurredAt)
	v.Check(ok && !occurredAt.IsZero(), "dataInfracao", "is required")
	submittedAt, ok := validate.ParseDate(req.SubmittedAt)
	v.Check(ok, "dataEnvio", "unparseable date")
	deadline, ok := validate.ParseDate(req.ResponseDeadline)
	v.Check(ok, "prazoResposta", "unparseable date")

	if errs := v.Errors(); errs != nil {
		return nil, errs
	}

	infraction := &model.Infraction{
		Kind:           req.Kind,
		ValueCents:     req.ValueCents,
		OccurredAt:     occurredAt,
		SubmittedAt:    submittedAt,
		ResponseStatus: req.ResponseStatus,
		Recognized:     req.Recognized,
		ForwardedToHR:  req.ForwardedToHR,
	}
	if infraction.ResponseStatus == "" {
		infraction.ResponseStatus = model.ResponseNone
	}
	if !deadline.IsZero() {
		infraction.ResponseDeadline = &deadline
	}

	ctx := c.Request.Context()
	if req.WorkerUID != "" {
		worker, err := h.store.WorkerByUID(ctx, req.WorkerUID)
		if err != nil {
			return nil, err
		}
		infraction.WorkerID = &worker.ID
	}
	if req.Plate != "" {
		vehicle, err := h.store.VehicleByPlate(ctx, req.Plate)
		if err != nil {
			return nil, err
		}
		infraction.VehicleID = &vehicle.ID
	}
	return infraction, nil
}

// CreateInfraction handles POST /api/infracoes.
func (h *Handler) CreateInfraction(c *gin.Context) {
	var req infractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	infraction, err := h.infractionFromRequest(c, req)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.store.DB().WithContext(c.Request.Context()).Create(infraction).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, infraction)
}

// ListInfractions handles GET /api/infracoes. Standard workers only see
// their own infractions; admins can filter with ?uid=.
func (h *Handler) ListInfractions(c *gin.Context) {
	q := h.store.DB().WithContext(c.Request.Context()).Order("occurred_at DESC")

	if actor, ok := mw.ActorFrom(c); ok && !actor.IsAdmin() {
		q = q.Where("worker_id = ?", actor.WorkerID)
	} else if uid := c.Query("uid"); uid != "" {
		worker, err := h.store.WorkerByUID(c.Request.Context(), uid)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusOK, []model.Infraction{})
				return
			}
			respondError(c, err)
			return
		}
		q = q.Where("worker_id = ?", worker.ID)
	}

	var infractions []model.Infraction
	if err := q.Find(&infractions).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve infractions"})
		return
	}
	c.JSON(http.StatusOK, infractions)
}

// UpdateInfraction handles PUT /api/infracoes/:id.
func (h *Handler) UpdateInfraction(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid infraction ID"})
		return
	}

	var req infractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.infractionFromRequest(c, req)
	if err != nil {
		respondError(c, err)
		return
	}

	var infraction model.Infraction
	if err := h.store.DB().WithContext(c.Request.Context()).First(&infraction, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "infraction not found"})
			return
		}
		respondError(c, err)
		return
	}

	updated.ID = infraction.ID
	updated.CreatedAt = infraction.CreatedAt
	if err := h.store.DB().WithContext(c.Request.Context()).Save(updated).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
