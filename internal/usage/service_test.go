package usage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fleetguard/fleetguard/internal/db"
	"github.com/fleetguard/fleetguard/internal/model"
	"github.com/fleetguard/fleetguard/internal/store"
	"github.com/fleetguard/fleetguard/internal/validate"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	svc := NewServiceAt(store.NewGormStore(gdb), func() time.Time { return now })
	return svc, gdb
}

func seed(t *testing.T, gdb *gorm.DB) {
	t.Helper()
	require.NoError(t, gdb.Create(&model.Worker{
		UID: "ABC123", FullName: "Ana Souza", CPF: "12345678901",
		Active: true, Role: model.RoleStandard,
	}).Error)
	require.NoError(t, gdb.Create(&model.Worker{
		UID: "XYZ789", FullName: "Bruno Lima", CPF: "12345678902",
		Active: true, Role: model.RoleStandard,
	}).Error)
	require.NoError(t, gdb.Create(&model.Vehicle{
		Plate: "ABCD123", Model: "Onix", Status: model.VehicleAvailable,
		AvailableFrom: time.Now(),
	}).Error)
}

func TestStart_UnknownPlateAndWorker(t *testing.T) {
	svc, gdb := newTestService(t)
	seed(t, gdb)

	_, err := svc.Start(context.Background(), "ZZZZ999", "ABC123")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.Start(context.Background(), "ABCD123", "ZZZ999")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStart_RejectsMalformedIdentifiers(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Start(context.Background(), "ABC1234", "AB123")
	var verrs validate.Errors
	require.ErrorAs(t, err, &verrs)
	require.Len(t, verrs, 2)
	assert.Equal(t, "placa", verrs[0].Field)
	assert.Equal(t, "colaboradorUid", verrs[1].Field)
}

func TestStartFinish_RoundTrip(t *testing.T) {
	svc, gdb := newTestService(t)
	seed(t, gdb)
	ctx := context.Background()

	record, err := svc.Start(ctx, "abcd123", "abc123")
	require.NoError(t, err)
	assert.Nil(t, record.EndedAt)

	// Same worker again: conflict with the finish affordance.
	_, err = svc.Start(ctx, "ABCD123", "ABC123")
	var conflict *store.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "finish", conflict.Action)

	// Different worker: plain conflict.
	_, err = svc.Start(ctx, "ABCD123", "XYZ789")
	require.ErrorAs(t, err, &conflict)
	assert.Empty(t, conflict.Action)

	closed, err := svc.Finish(ctx, "ABCD123", "ABC123")
	require.NoError(t, err)
	require.NotNil(t, closed.EndedAt)

	// Vehicle is available again for the next worker.
	_, err = svc.Start(ctx, "ABCD123", "XYZ789")
	assert.NoError(t, err)
}
