package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fleetguard/fleetguard/internal/model"
)

// UpsertWorkers batch-upserts workers keyed on their UID. Used by the CSV
// importer; all rows land in one transaction.
func (s *gormStore) UpsertWorkers(ctx context.Context, workers []model.Worker) error {
	if len(workers) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "uid"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"full_name", "cpf", "email", "locality", "brand", "job_title",
				"cnh", "cnh_type", "uses_parking", "parking_city", "active",
				"updated_at",
			}),
		}).Create(&workers).Error
		if err != nil {
			return fmt.Errorf("batch upsert workers: %w", err)
		}
		return nil
	})
}

// CreateUsageRecords inserts imported usage-history rows in one
// transaction. A row that would open a second interval for a vehicle
// trips the partial unique index and aborts the batch as a conflict.
func (s *gormStore) CreateUsageRecords(ctx context.Context, records []model.UsageHistory) error {
	if len(records) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range records {
			if records[i].EndedAt == nil {
				var count int64
				err := tx.Model(&model.UsageHistory{}).
					Where("vehicle_id = ? AND ended_at IS NULL", records[i].VehicleID).
					Count(&count).Error
				if err != nil {
					return fmt.Errorf("check open usage: %w", err)
				}
				if count > 0 {
					return &ConflictError{
						Message: fmt.Sprintf("vehicle %d already has an open usage interval", records[i].VehicleID),
					}
				}
			}
			if err := tx.Create(&records[i]).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return &ConflictError{
						Message: fmt.Sprintf("vehicle %d already has an open usage interval", records[i].VehicleID),
					}
				}
				return fmt.Errorf("create usage record: %w", err)
			}
		}
		return nil
	})
}
