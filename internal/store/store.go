package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/fleetguard/fleetguard/internal/model"
)

// Store defines the database operations the service layers depend on.
// Plain CRUD pass-throughs go straight to DB() in the handlers, the way
// everything that has no invariant attached does.
type Store interface {
	DB() *gorm.DB

	WorkerByUID(ctx context.Context, uid string) (*model.Worker, error)
	VehicleByPlate(ctx context.Context, plate string) (*model.Vehicle, error)

	StartUsage(ctx context.Context, now time.Time, vehicle *model.Vehicle, workerID int64) (*model.UsageHistory, error)
	FinishUsage(ctx context.Context, now time.Time, vehicle *model.Vehicle, workerID int64) (*model.UsageHistory, error)
	OpenUsage(ctx context.Context, vehicleID int64) (*model.UsageHistory, error)

	UpsertWorkers(ctx context.Context, workers []model.Worker) error
	CreateUsageRecords(ctx context.Context, records []model.UsageHistory) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB { return s.db }

// WorkerByUID looks a worker up by its MSK UID. The UID is matched
// case-insensitively since workers are stored upper-case.
func (s *gormStore) WorkerByUID(ctx context.Context, uid string) (*model.Worker, error) {
	var worker model.Worker
	err := s.db.WithContext(ctx).First(&worker, "uid = ?", strings.ToUpper(uid)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("worker %q: %w", uid, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch worker by uid: %w", err)
	}
	return &worker, nil
}

// VehicleByPlate looks a vehicle up by its plate.
func (s *gormStore) VehicleByPlate(ctx context.Context, plate string) (*model.Vehicle, error) {
	var vehicle model.Vehicle
	err := s.db.WithContext(ctx).First(&vehicle, "plate = ?", strings.ToUpper(plate)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("vehicle %q: %w", plate, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch vehicle by plate: %w", err)
	}
	return &vehicle, nil
}

// OpenUsage returns the open interval for a vehicle, or ErrNotFound when
// the vehicle is available.
func (s *gormStore) OpenUsage(ctx context.Context, vehicleID int64) (*model.UsageHistory, error) {
	var open model.UsageHistory
	err := s.db.WithContext(ctx).
		Where("vehicle_id = ? AND ended_at IS NULL", vehicleID).
		First(&open).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch open usage: %w", err)
	}
	return &open, nil
}

// StartUsage opens a temporary usage interval for the vehicle, enforcing
// the one-open-interval-per-vehicle invariant. The check-then-insert runs
// in a transaction and the partial unique index on
// (vehicle_id) WHERE ended_at IS NULL backstops concurrent starts: a
// duplicate-key failure is reported as the same occupied conflict.
func (s *gormStore) StartUsage(ctx context.Context, now time.Time, vehicle *model.Vehicle, workerID int64) (*model.UsageHistory, error) {
	record := model.UsageHistory{
		VehicleID: vehicle.ID,
		WorkerID:  workerID,
		StartedAt: now,
		UsageType: model.UsageTemporary,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var open model.UsageHistory
		err := tx.Where("vehicle_id = ? AND ended_at IS NULL", vehicle.ID).First(&open).Error
		switch {
		case err == nil:
			if open.WorkerID == workerID {
				return &ConflictError{
					Message: fmt.Sprintf("vehicle %s is already in use by you", vehicle.Plate),
					Action:  "finish",
				}
			}
			return &ConflictError{
				Message: fmt.Sprintf("vehicle %s is currently in use by another worker", vehicle.Plate),
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("check open usage: %w", err)
		}

		if err := tx.Create(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return &ConflictError{
					Message: fmt.Sprintf("vehicle %s is currently in use by another worker", vehicle.Plate),
				}
			}
			return fmt.Errorf("create usage record: %w", err)
		}

		return tx.Model(&model.Vehicle{}).
			Where("id = ?", vehicle.ID).
			Update("status", model.VehicleInUse).Error
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FinishUsage closes the open interval held by the given worker and
// returns the vehicle to available. No open interval at all is NotFound;
// an open interval held by someone else is a plain conflict with no
// recovery hint.
func (s *gormStore) FinishUsage(ctx context.Context, now time.Time, vehicle *model.Vehicle, workerID int64) (*model.UsageHistory, error) {
	var closed model.UsageHistory

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var open model.UsageHistory
		err := tx.Where("vehicle_id = ? AND ended_at IS NULL", vehicle.ID).First(&open).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("no open usage for vehicle %s: %w", vehicle.Plate, ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("check open usage: %w", err)
		}
		if open.WorkerID != workerID {
			return &ConflictError{
				Message: fmt.Sprintf("vehicle %s is in use by another worker", vehicle.Plate),
			}
		}

		open.EndedAt = &now
		if err := tx.Save(&open).Error; err != nil {
			return fmt.Errorf("close usage record: %w", err)
		}
		closed = open

		return tx.Model(&model.Vehicle{}).
			Where("id = ?", vehicle.ID).
			Update("status", model.VehicleAvailable).Error
	})
	if err != nil {
		return nil, err
	}
	return &closed, nil
}
