package model

import "time"

// Usage types for a vehicle assignment.
const (
	UsageFixed     = "Fixo"
	UsageTemporary = "Temporário"
	UsageReserve   = "Veículo Reserva"
)

// UsageHistory records an interval during which a worker used a vehicle.
// A nil EndedAt marks an open interval: the vehicle is currently in use.
// At most one open interval may exist per vehicle; a partial unique index
// on (vehicle_id) WHERE ended_at IS NULL enforces this in the database.
type UsageHistory struct {
	ID        int64      `gorm:"primaryKey" json:"id"`
	VehicleID int64      `gorm:"index;not null" json:"vehicleId"`
	WorkerID  int64      `gorm:"index;not null" json:"workerId"`
	StartedAt time.Time  `gorm:"not null" json:"dataInicio"`
	EndedAt   *time.Time `json:"dataFim,omitempty"`
	UsageType string     `gorm:"size:32;not null" json:"tipoUso"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`

	// Associations
	Vehicle Vehicle `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Worker  Worker  `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// Open reports whether the interval is still running.
func (u UsageHistory) Open() bool { return u.EndedAt == nil }
