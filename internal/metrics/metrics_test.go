package metrics

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
)

// testNow pins the reporting window: current month is August 2026.
var testNow = time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	return gdb
}

func newAggregator(t *testing.T) (*Aggregator, *gorm.DB) {
	gdb := newTestDB(t)
	return NewAt(gdb, func() time.Time { return testNow }), gdb
}

var cpfSeq int64

func seedWorker(t *testing.T, gdb *gorm.DB, uid string) *model.Worker {
	t.Helper()
	cpfSeq++
	worker := &model.Worker{
		UID:      uid,
		FullName: "Worker " + uid,
		CPF:      fmt.Sprintf("%011d", cpfSeq),
		Active:   true,
		Role:     model.RoleStandard,
	}
	require.NoError(t, gdb.Create(worker).Error)
	return worker
}

func seedInfraction(t *testing.T, gdb *gorm.DB, workerID int64, kind string, cents int64, at time.Time) {
	t.Helper()
	require.NoError(t, gdb.Create(&model.Infraction{
		WorkerID:       &workerID,
		Kind:           kind,
		ValueCents:     cents,
		OccurredAt:     at,
		ResponseStatus: model.ResponseNone,
	}).Error)
}

func TestGrowthPercent(t *testing.T) {
	assert.Equal(t, float64(0), GrowthPercent(0, 0))
	assert.Equal(t, float64(100), GrowthPercent(5, 0))
	assert.Equal(t, float64(100), GrowthPercent(10, 5))
	assert.Equal(t, float64(-50), GrowthPercent(5, 10))
	assert.Equal(t, float64(200), GrowthPercent(300, 100))
}

func TestSnapshot_GrowthAndScoping(t *testing.T) {
	agg, gdb := newAggregator(t)
	ctx := context.Background()

	worker := seedWorker(t, gdb, "ABC123")
	other := seedWorker(t, gdb, "XYZ789")

	current := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	previous := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)

	seedInfraction(t, gdb, worker.ID, model.KindMulta, 300, current)
	seedInfraction(t, gdb, worker.ID, model.KindMulta, 100, previous)
	// Noise from another worker, current month only.
	seedInfraction(t, gdb, other.ID, model.KindSemParar, 500, current)

	// Admin sees fleet-wide figures.
	require.NoError(t, gdb.Create(&model.Vehicle{Plate: "ABCD123", Model: "Onix", Status: model.VehicleInUse, AvailableFrom: current}).Error)
	require.NoError(t, gdb.Create(&model.Vehicle{Plate: "EFGH456", Model: "Gol", Status: model.VehicleAvailable, AvailableFrom: current}).Error)

	adminSnap, err := agg.Snapshot(ctx, Actor{Role: model.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, int64(800), adminSnap.TotalValueCents)
	assert.Equal(t, int64(200), adminSnap.GrowthMultas)
	assert.Equal(t, float64(200), adminSnap.GrowthMultasPercent)
	assert.Equal(t, int64(500), adminSnap.GrowthSemParar)
	assert.Equal(t, float64(100), adminSnap.GrowthSemPararPercent)
	require.NotNil(t, adminSnap.Fleet)
	assert.Equal(t, int64(1), adminSnap.Fleet.InUse)
	assert.Equal(t, int64(1), adminSnap.Fleet.Available)
	assert.Equal(t, int64(0), adminSnap.Fleet.Maintenance)

	// A standard worker only sees their own spend and no fleet counts.
	workerSnap, err := agg.Snapshot(ctx, Actor{WorkerID: worker.ID, UID: worker.UID, Role: model.RoleStandard})
	require.NoError(t, err)
	assert.Equal(t, int64(300), workerSnap.TotalValueCents)
	assert.Equal(t, int64(200), workerSnap.GrowthMultas)
	assert.Equal(t, float64(200), workerSnap.GrowthMultasPercent)
	assert.Equal(t, int64(0), workerSnap.GrowthSemParar)
	assert.Nil(t, workerSnap.Fleet)
}

func TestTopOffenders(t *testing.T) {
	agg, gdb := newAggregator(t)

	a := seedWorker(t, gdb, "AAA111")
	b := seedWorker(t, gdb, "BBB222")
	c := seedWorker(t, gdb, "CCC333")

	previous := time.Date(2026, 7, 5, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		seedInfraction(t, gdb, b.ID, model.KindMulta, 100, previous)
	}
	seedInfraction(t, gdb, a.ID, model.KindMulta, 100, previous)
	seedInfraction(t, gdb, c.ID, model.KindSemParar, 100, previous)
	// Current-month infractions must not count.
	seedInfraction(t, gdb, a.ID, model.KindMulta, 100, time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC))

	offenders, err := agg.TopOffenders(context.Background())
	require.NoError(t, err)
	require.Len(t, offenders, 3)

	assert.Equal(t, "BBB222", offenders[0].UID)
	assert.Equal(t, int64(3), offenders[0].Count)
	assert.InDelta(t, 60.0, offenders[0].Percent, 0.001)

	// Tie on count 1 breaks by UID ascending.
	assert.Equal(t, "AAA111", offenders[1].UID)
	assert.Equal(t, "CCC333", offenders[2].UID)

	var totalShare float64
	for _, o := range offenders {
		totalShare += o.Percent
	}
	assert.InDelta(t, 100.0, totalShare, 0.001)
}

func TestBiggestIncrease(t *testing.T) {
	agg, gdb := newAggregator(t)

	riser := seedWorker(t, gdb, "AAA111")
	faller := seedWorker(t, gdb, "BBB222")
	newcomer := seedWorker(t, gdb, "CCC333")

	previous := time.Date(2026, 7, 5, 0, 0, 0, 0, time.UTC)
	current := time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC)

	seedInfraction(t, gdb, riser.ID, model.KindMulta, 100, previous)
	for i := 0; i < 3; i++ {
		seedInfraction(t, gdb, riser.ID, model.KindMulta, 100, current)
	}
	for i := 0; i < 2; i++ {
		seedInfraction(t, gdb, faller.ID, model.KindMulta, 100, previous)
	}
	seedInfraction(t, gdb, faller.ID, model.KindMulta, 100, current)
	// No prior-month infractions: excluded from the ranking.
	seedInfraction(t, gdb, newcomer.ID, model.KindMulta, 100, current)

	ranking, err := agg.BiggestIncrease(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, ranking, 2)

	assert.Equal(t, "AAA111", ranking[0].UID)
	assert.Equal(t, float64(200), ranking[0].GrowthPercent)
	assert.Equal(t, "BBB222", ranking[1].UID)
	assert.Equal(t, float64(-50), ranking[1].GrowthPercent)

	capped, err := agg.BiggestIncrease(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, capped, 1)
	assert.Equal(t, "AAA111", capped[0].UID)
}

func TestChartData(t *testing.T) {
	agg, gdb := newAggregator(t)

	worker := seedWorker(t, gdb, "ABC123")
	seedInfraction(t, gdb, worker.ID, model.KindMulta, 250, time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC))
	seedInfraction(t, gdb, worker.ID, model.KindSemParar, 125, time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC))
	// Outside the 3-month window.
	seedInfraction(t, gdb, worker.ID, model.KindMulta, 999, time.Date(2026, 4, 3, 0, 0, 0, 0, time.UTC))

	points, err := agg.ChartData(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, points, 3)

	assert.Equal(t, "2026-06", points[0].Month)
	assert.Equal(t, int64(0), points[0].MultaCents)

	assert.Equal(t, "2026-07", points[1].Month)
	assert.Equal(t, int64(125), points[1].SemPararCents)

	assert.Equal(t, "2026-08", points[2].Month)
	assert.Equal(t, int64(250), points[2].MultaCents)
}

func TestExpiringInfractions(t *testing.T) {
	agg, gdb := newAggregator(t)
	worker := seedWorker(t, gdb, "ABC123")

	soon := testNow.Add(48 * time.Hour)
	far := testNow.Add(30 * 24 * time.Hour)
	answeredDeadline := testNow.Add(24 * time.Hour)

	require.NoError(t, gdb.Create(&model.Infraction{
		WorkerID: &worker.ID, Kind: model.KindMulta, ValueCents: 100,
		OccurredAt: testNow.AddDate(0, 0, -10), ResponseDeadline: &soon,
		ResponseStatus: model.ResponseNone,
	}).Error)
	require.NoError(t, gdb.Create(&model.Infraction{
		WorkerID: &worker.ID, Kind: model.KindMulta, ValueCents: 100,
		OccurredAt: testNow.AddDate(0, 0, -10), ResponseDeadline: &far,
		ResponseStatus: model.ResponseNone,
	}).Error)
	require.NoError(t, gdb.Create(&model.Infraction{
		WorkerID: &worker.ID, Kind: model.KindMulta, ValueCents: 100,
		OccurredAt: testNow.AddDate(0, 0, -10), ResponseDeadline: &answeredDeadline,
		ResponseStatus: model.ResponseAnswered,
	}).Error)

	expiring, err := agg.ExpiringInfractions(context.Background(), 7*24*time.Hour)
	require.NoError(t, err)
	require.Len(t, expiring, 1)
	assert.Equal(t, model.ResponseNone, expiring[0].ResponseStatus)
}
