package model

import "time"

// Worker roles.
const (
	RoleAdmin    = "admin"
	RoleStandard = "standard"
)

// Worker represents an employee (colaborador) in the fleet registry.
type Worker struct {
	ID           int64  `gorm:"primaryKey" json:"id"`
	UID          string `gorm:"uniqueIndex;size:6;not null" json:"uid"`
	FullName     string `gorm:"size:256;not null" json:"fullName"`
	CPF          string `gorm:"uniqueIndex;size:11;not null" json:"cpf"`
	Email        string `gorm:"size:256" json:"email"`
	Locality     string `gorm:"size:128" json:"locality"`
	Brand        string `gorm:"size:128" json:"brand"`
	JobTitle     string `gorm:"size:128" json:"jobTitle"`
	CNH          string `gorm:"size:9" json:"cnh"`
	CNHType      string `gorm:"size:8" json:"cnhType"`
	UsesParking  bool   `json:"usaEstacionamento"`
	ParkingCity  string `gorm:"size:128" json:"cidadeEstacionamento"`
	Active       bool   `gorm:"not null;default:true" json:"active"`
	Role         string `gorm:"size:16;not null;default:standard" json:"role"`
	PasswordHash string `gorm:"size:128" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	// Associations
	Infractions    []Infraction   `gorm:"foreignKey:WorkerID" json:"-"`
	UsageHistories []UsageHistory `gorm:"foreignKey:WorkerID" json:"-"`
}

// IsAdmin reports whether the worker holds the admin role.
func (w Worker) IsAdmin() bool { return w.Role == RoleAdmin }
