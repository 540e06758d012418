package deadline

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

	"github.com/fleetguard/fleetguard/config"
	"github.com/fleetguard/fleetguard/internal/db"
	"github.com/fleetguard/fleetguard/internal/model"
)

var testNow = time.Date(2026, 8, 29, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	cfg := &config.Config{}
	cfg.Deadline.Enabled = true
	cfg.Deadline.LeadDays = 7
	cfg.WorkerPool.Size = 8
	cfg.Push.PublicKey = "pub"
	cfg.Push.PrivateKey = "priv"

	svc := NewService(cfg, gdb)
	svc.now = func() time.Time { return testNow }
	return svc, gdb
}

func seedInfraction(t *testing.T, gdb *gorm.DB, deadline *time.Time, status string) model.Infraction {
	t.Helper()
	infraction := model.Infraction{
		Kind:             model.KindMulta,
		ValueCents:       10000,
		OccurredAt:       testNow.AddDate(0, 0, -10),
		ResponseDeadline: deadline,
		ResponseStatus:   status,
	}
	require.NoError(t, gdb.Create(&infraction).Error)
	return infraction
}

func drainJobs(svc *Service) []int64 {
	var ids []int64
	for {
		select {
		case id := <-svc.pool.Jobs():
			ids = append(ids, id)
		default:
			return ids
		}
	}
}

func TestScanOnce(t *testing.T) {
	svc, gdb := newTestService(t)

	soon := testNow.AddDate(0, 0, 3)
	far := testNow.AddDate(0, 0, 30)
	past := testNow.AddDate(0, 0, -1)

	expiring := seedInfraction(t, gdb, &soon, model.ResponseNone)
	seedInfraction(t, gdb, &far, model.ResponseNone)
	seedInfraction(t, gdb, &past, model.ResponseNone)
	seedInfraction(t, gdb, &soon, model.ResponseAnswered)
	seedInfraction(t, gdb, nil, model.ResponseNone)

	svc.ScanOnce(context.Background())

	jobs := drainJobs(svc)
	require.Len(t, jobs, 1)
	assert.Equal(t, expiring.ID, jobs[0])

	var alerts []model.DeadlineAlert
	require.NoError(t, gdb.Find(&alerts).Error)
	require.Len(t, alerts, 1)
	assert.Equal(t, expiring.ID, alerts[0].InfractionID)
	assert.Equal(t, "2026-08-29", alerts[0].SentOn)
}

func TestScanOnce_AlertsAtMostOncePerDay(t *testing.T) {
	svc, gdb := newTestService(t)

	soon := testNow.AddDate(0, 0, 2)
	seedInfraction(t, gdb, &soon, model.ResponseNone)

	svc.ScanOnce(context.Background())
	require.Len(t, drainJobs(svc), 1)

	// Same day: nothing new.
	svc.ScanOnce(context.Background())
	assert.Empty(t, drainJobs(svc))

	// The next day the alert goes out again.
	svc.now = func() time.Time { return testNow.AddDate(0, 0, 1) }
	svc.ScanOnce(context.Background())
	assert.Len(t, drainJobs(svc), 1)
}

func TestRun_RefusesWithoutVAPIDKeys(t *testing.T) {
	svc, _ := newTestService(t)
	svc.cfg.Push.PublicKey = ""

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run should return immediately when VAPID keys are missing")
	}
}
