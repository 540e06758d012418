package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/fleetguard/fleetguard/internal/model"
	"github.com/fleetguard/fleetguard/internal/validate"
)

type vehicleRequest struct {
	Plate           string `json:"placa"`
	Model           string `json:"model"`
	Color           string `json:"color"`
	Supplier        string `json:"supplier"`
	Contract        string `json:"contract"`
	MonthlyFeeCents int64  `json:"monthlyFeeCents"`
	AvailableFrom   string `json:"dataDisponibilizacao"`
	ExpectedReturn  string `json:"previsaoDevolucao"`
	MaintenanceDue  string `json:"maintenanceDue"`
	Status          string `json:"status"`
}

// vehicleFromRequest validates and converts the request payload.
func vehicleFromRequest(req vehicleRequest) (*model.Vehicle, validate.Errors) {
	var v validate.Validator
	v.Check(validate.ValidPlate(req.Plate), "placa", "must be 4 letters followed by 3 digits")
	v.Check(validate.NotBlank(req.Model), "model", "is required")
	v.Check(req.MonthlyFeeCents >= 0, "monthlyFeeCents", "must not be negative")

	availableFrom, ok := validate.ParseDate(req.AvailableFrom)
	v.Check(ok, "dataDisponibilizacao", "unparseable date")
	expectedReturn, ok := validate.ParseDate(req.ExpectedReturn)
	v.Check(ok, "previsaoDevolucao", "unparseable date")
	maintenanceDue, ok := validate.ParseDate(req.MaintenanceDue)
	v.Check(ok, "maintenanceDue", "unparseable date")

	status := req.Status
	if status == "" {
		status = model.VehicleAvailable
	}
	switch status {
	case model.VehicleAvailable, model.VehicleInUse, model.VehicleMaintenance:
	default:
		v.Check(false, "status", "must be available, in_use or maintenance")
	}

	if errs := v.Errors(); errs != nil {
		return nil, errs
	}

	vehicle := &model.Vehicle{
		Plate:           strings.ToUpper(req.Plate),
		Model:           req.Model,
		Color:           req.Color,
		Supplier:        req.Supplier,
		Contract:        req.Contract,
		MonthlyFeeCents: req.MonthlyFeeCents,
		AvailableFrom:   availableFrom,
		Status:          status,
	}
	if !expectedReturn.IsZero() {
		vehicle.ExpectedReturn = &expectedReturn
	}
	if !maintenanceDue.IsZero() {
		vehicle.MaintenanceDue = &maintenanceDue
	}
	if vehicle.AvailableFrom.IsZero() {
		vehicle.AvailableFrom = time.Now().UTC()
	}
	return vehicle, nil
}

// CreateVehicle handles POST /api/veiculos.
func (h *Handler) CreateVehicle(c *gin.Context) {
	var req vehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	vehicle, errs := vehicleFromRequest(req)
	if errs != nil {
		respondError(c, errs)
		return
	}

	if err := h.store.DB().WithContext(c.Request.Context()).Create(vehicle).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "a vehicle with this plate already exists"})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, vehicle)
}

// ListVehicles handles GET /api/veiculos. ?status= filters by vehicle
// status.
func (h *Handler) ListVehicles(c *gin.Context) {
	q := h.store.DB().WithContext(c.Request.Context()).Order("plate ASC")
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var vehicles []model.Vehicle
	if err := q.Find(&vehicles).Error; err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve vehicles"})
		return
	}
	c.JSON(http.StatusOK, vehicles)
}

// UpdateVehicle handles PUT /api/veiculos/:id.
func (h *Handler) UpdateVehicle(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vehicle ID"})
		return
	}

	var req vehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, errs := vehicleFromRequest(req)
	if errs != nil {
		respondError(c, errs)
		return
	}

	var vehicle model.Vehicle
	if err := h.store.DB().WithContext(c.Request.Context()).First(&vehicle, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "vehicle not found"})
			return
		}
		respondError(c, err)
		return
	}

	updated.ID = vehicle.ID
	updated.CreatedAt = vehicle.CreatedAt
	if err := h.store.DB().WithContext(c.Request.Context()).Save(updated).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "a vehicle with this plate already exists"})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
