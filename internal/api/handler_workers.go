package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/fleetguard/fleetguard/internal/auth"
	"github.com/fleetguard/fleetguard/internal/model"
	"github.com/fleetguard/fleetguard/internal/validate"
)

type workerRequest struct {
	UID         string `json:"uid"`
	FullName    string `json:"fullName"`
	CPF         string `json:"cpf"`
	Email       string `json:"email"`
	Locality    string `json:"locality"`
	Brand       string `json:"brand"`
	JobTitle    string `json:"jobTitle"`
	CNH         string `json:"cnh"`
	CNHType     string `json:"cnhType"`
	UsesParking bool   `json:"usaEstacionamento"`
	ParkingCity string `json:"cidadeEstacionamento"`
	Role        string `json:"role"`
	Password    string `json:"password"`
	Active      *bool  `json:"active"`
}

func (r workerRequest) validationInput() validate.WorkerInput {
	return validate.WorkerInput{
		UID:         r.UID,
		FullName:    r.FullName,
		CPF:         r.CPF,
		CNH:         r.CNH,
		UsesParking: r.UsesParking,
		ParkingCity: r.ParkingCity,
	}
}

// CreateWorker handles POST /api/colaboradores.
func (h *Handler) CreateWorker(c *gin.Context) {
	var req workerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if errs := validate.Worker(req.validationInput()); errs != nil {
		respondError(c, errs)
		return
	}

	role := model.RoleStandard
	if req.Role == model.RoleAdmin {
		role = model.RoleAdmin
	}

	worker := model.Worker{
		UID:         strings.ToUpper(req.UID),
		FullName:    req.FullName,
		CPF:         req.CPF,
		Email:       req.Email,
		Locality:    req.Locality,
		Brand:       req.Brand,
		JobTitle:    req.JobTitle,
		CNH:         req.CNH,
		CNHType:     req.CNHType,
		UsesParking: req.UsesParking,
		ParkingCity: req.ParkingCity,
		Active:      true,
		Role:        role,
	}
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		worker.PasswordHash = hash
	}

	if err := h.store.DB().WithContext(c.Request.Context()).Create(&worker).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "a worker with this UID or CPF already exists"})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, worker)
}

// ListWorkers handles GET /api/colaboradores. ?active=true filters out
// deactivated workers.
func (h *Handler) ListWorkers(c *gin.Context) {
	q := h.store.DB().WithContext(c.Request.Context()).Order("uid ASC")
	if c.Query("active") == "true" {
		q = q.Where("active = ?", true)
	}

	var workers []model.Worker
	if err := q.Find(&workers).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve workers"})
		return
	}
	c.JSON(http.StatusOK, workers)
}

// UpdateWorker handles PUT /api/colaboradores/:id.
func (h *Handler) UpdateWorker(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid worker ID"})
		return
	}

	var req workerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if errs := validate.Worker(req.validationInput()); errs != nil {
		respondError(c, errs)
		return
	}

	var worker model.Worker
	if err := h.store.DB().WithContext(c.Request.Context()).First(&worker, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "worker not found"})
			return
		}
		respondError(c, err)
		return
	}

	worker.UID = strings.ToUpper(req.UID)
	worker.FullName = req.FullName
	worker.CPF = req.CPF
	worker.Email = req.Email
	worker.Locality = req.Locality
	worker.Brand = req.Brand
	worker.JobTitle = req.JobTitle
	worker.CNH = req.CNH
	worker.CNHType = req.CNHType
	worker.UsesParking = req.UsesParking
	worker.ParkingCity = req.ParkingCity
	if req.Role == model.RoleAdmin || req.Role == model.RoleStandard {
		worker.Role = req.Role
	}
	if req.Active != nil {
		worker.Active = *req.Active
	}
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		worker.PasswordHash = hash
	}

	if err := h.store.DB().WithContext(c.Request.Context()).Save(&worker).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "a worker with this UID or CPF already exists"})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, worker)
}

// DeactivateWorker handles DELETE /api/colaboradores/:id. Workers are
// never hard-deleted; the status flag deactivates them.
func (h *Handler) DeactivateWorker(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid worker ID"})
		return
	}

	result := h.store.DB().WithContext(c.Request.Context()).
		Model(&model.Worker{}).
		Where("id = ?", id).
		Update("active", false)
	if result.Error != nil {
		respondError(c, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "worker not found"})
		return
	}
	c.Status(http.StatusNoContent)
}
