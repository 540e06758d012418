package model

import "time"

// Vehicle statuses.
const (
	VehicleAvailable   = "available"
	VehicleInUse       = "in_use"
	VehicleMaintenance = "maintenance"
)

// Vehicle represents a fleet asset identified by its plate.
type Vehicle struct {
	ID              int64      `gorm:"primaryKey" json:"id"`
	Plate           string     `gorm:"uniqueIndex;size:7;not null" json:"placa"`
	Model           string     `gorm:"size:128;not null" json:"model"`
	Color           string     `gorm:"size:64" json:"color"`
	Supplier        string     `gorm:"size:128" json:"supplier"`
	Contract        string     `gorm:"size:128" json:"contract"`
	MonthlyFeeCents int64      `json:"monthlyFeeCents"`
	AvailableFrom   time.Time  `json:"dataDisponibilizacao"`
	ExpectedReturn  *time.Time `json:"previsaoDevolucao,omitempty"`
	MaintenanceDue  *time.Time `json:"maintenanceDue,omitempty"`
	Status          string     `gorm:"size:16;not null;default:available" json:"status"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`

	// Associations
	UsageHistories []UsageHistory `gorm:"foreignKey:VehicleID" json:"-"`
}
