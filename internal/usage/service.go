// Package usage implements the vehicle-usage lifecycle: a vehicle is
// available until a worker starts a temporary use, and available again
// once that worker finishes it.
package usage

import (
	"context"
	"time"

	"github.com/fleetguard/fleetguard/internal/model"
	"github.com/fleetguard/fleetguard/internal/store"
	"github.com/fleetguard/fleetguard/internal/validate"
)

// Service drives start/finish transitions against the store.
type Service struct {
	store store.Store
	now   func() time.Time
}

// NewService creates a usage service.
func NewService(s store.Store) *Service {
	return &Service{store: s, now: time.Now}
}

// NewServiceAt creates a usage service with a fixed clock, for tests.
func NewServiceAt(s store.Store, now func() time.Time) *Service {
	return &Service{store: s, now: now}
}

func checkIdentifiers(plate, workerUID string) validate.Errors {
	var v validate.Validator
	v.Check(validate.ValidPlate(plate), "placa", "must be 4 letters followed by 3 digits")
	v.Check(validate.ValidUID(workerUID), "colaboradorUid", "must be 3 letters followed by 3 digits")
	return v.Errors()
}

// Start opens a temporary usage interval for the worker on the vehicle.
// NotFound when plate or UID resolve to nothing; a ConflictError when the
// vehicle already has an open interval — with action "finish" when the
// caller holds it themselves.
func (s *Service) Start(ctx context.Context, plate, workerUID string) (*model.UsageHistory, error) {
	if errs := checkIdentifiers(plate, workerUID); errs != nil {
		return nil, errs
	}

	vehicle, err := s.store.VehicleByPlate(ctx, plate)
	if err != nil {
		return nil, err
	}
	worker, err := s.store.WorkerByUID(ctx, workerUID)
	if err != nil {
		return nil, err
	}

	return s.store.StartUsage(ctx, s.now(), vehicle, worker.ID)
}

// Finish closes the worker's open interval on the vehicle. NotFound when
// plate or UID resolve to nothing or the vehicle has no open interval;
// Conflict when the open interval belongs to another worker.
func (s *Service) Finish(ctx context.Context, plate, workerUID string) (*model.UsageHistory, error) {
	if errs := checkIdentifiers(plate, workerUID); errs != nil {
		return nil, errs
	}

	vehicle, err := s.store.VehicleByPlate(ctx, plate)
	if err != nil {
		return nil, err
	}
	worker, err := s.store.WorkerByUID(ctx, workerUID)
	if err != nil {
		return nil, err
	}

	return s.store.FinishUsage(ctx, s.now(), vehicle, worker.ID)
}
