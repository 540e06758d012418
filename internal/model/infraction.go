package model

import "time"

// Infraction kinds. "multa" is a traffic fine, "semParar" an automatic
// toll-tag charge.
const (
	KindMulta    = "multa"
	KindSemParar = "semParar"
)

// Infraction response statuses.
const (
	ResponseNone     = "Não"
	ResponseAnswered = "Respondida"
)

// Infraction is a fine or toll charge attributed to a worker and/or vehicle.
// Monetary values are integer cents.
type Infraction struct {
	ID               int64      `gorm:"primaryKey" json:"id"`
	WorkerID         *int64     `gorm:"index" json:"workerId,omitempty"`
	VehicleID        *int64     `gorm:"index" json:"vehicleId,omitempty"`
	Kind             string     `gorm:"size:32;not null;index" json:"kind"`
	ValueCents       int64      `gorm:"not null" json:"valor"`
	OccurredAt       time.Time  `gorm:"not null;index" json:"dataInfracao"`
	SubmittedAt      time.Time  `json:"dataEnvio"`
	ResponseDeadline *time.Time `gorm:"index" json:"prazoResposta,omitempty"`
	ResponseStatus   string     `gorm:"size:32;not null;default:Não" json:"statusResposta"`
	Recognized       bool       `json:"recognized"`
	ForwardedToHR    bool       `json:"forwardedToHR"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`

	// Associations
	Worker  *Worker  `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	Vehicle *Vehicle `gorm:"constraint:OnDelete:SET NULL" json:"-"`
}
