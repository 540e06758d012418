package csvimport

import (
	"context"
	"fmt"
	"strings"
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
)

func newTestImporter(t *testing.T) (*Importer, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	return New(store.NewGormStore(gdb)), gdb
}

func TestImportWorkers(t *testing.T) {
	imp, gdb := newTestImporter(t)

	csv := strings.Join([]string{
		"uid,nome,cpf,email,usaEstacionamento,cidadeEstacionamento",
		"ABC123,Ana Souza,12345678901,ana@example.com,sim,Campinas",
		"XYZ789,Bruno Lima,12345678902,bruno@example.com,,",
		"BAD1,Short,123,short@example.com,,", // invalid uid, name, cpf
	}, "\n")

	result, err := imp.Workers(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	assert.NotEmpty(t, result.BatchID)
	assert.Equal(t, 2, result.Imported)
	require.Len(t, result.Errors, 3)
	for _, re := range result.Errors {
		assert.Equal(t, 4, re.Row)
	}

	var workers []model.Worker
	require.NoError(t, gdb.Order("uid").Find(&workers).Error)
	require.Len(t, workers, 2)
	assert.Equal(t, "ABC123", workers[0].UID)
	assert.True(t, workers[0].UsesParking)
	assert.Equal(t, "Campinas", workers[0].ParkingCity)
	assert.Equal(t, model.RoleStandard, workers[0].Role)
}

func TestImportWorkers_UpsertsOnUID(t *testing.T) {
	imp, gdb := newTestImporter(t)

	first := "uid,nome,cpf\nABC123,Ana Souza,12345678901\n"
	_, err := imp.Workers(context.Background(), strings.NewReader(first))
	require.NoError(t, err)

	second := "uid,nome,cpf\nABC123,Ana Souza Lima,12345678901\n"
	result, err := imp.Workers(context.Background(), strings.NewReader(second))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)

	var workers []model.Worker
	require.NoError(t, gdb.Find(&workers).Error)
	require.Len(t, workers, 1)
	assert.Equal(t, "Ana Souza Lima", workers[0].FullName)
}

func TestImportUsage(t *testing.T) {
	imp, gdb := newTestImporter(t)

	require.NoError(t, gdb.Create(&model.Worker{
		UID: "ABC123", FullName: "Ana Souza", CPF: "12345678901",
		Active: true, Role: model.RoleStandard,
	}).Error)
	require.NoError(t, gdb.Create(&model.Vehicle{
		Plate: "ABCD123", Model: "Onix", Status: model.VehicleAvailable,
		AvailableFrom: time.Now(),
	}).Error)

	csv := strings.Join([]string{
		"placa,colaboradorUid,dataInicio,dataFim,tipoUso",
		"ABCD123,ABC123,2026-07-01,2026-07-10,Fixo",
		"ABCD123,ABC123,2026-08-01,,Temporário",
		"ZZZZ999,ABC123,2026-08-01,,Temporário", // unknown vehicle
	}, "\n")

	result, err := imp.Usage(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 4, result.Errors[0].Row)
	assert.Equal(t, "placa", result.Errors[0].Field)

	var open []model.UsageHistory
	require.NoError(t, gdb.Where("ended_at IS NULL").Find(&open).Error)
	assert.Len(t, open, 1)
}

func TestImportUsage_RejectsSecondOpenInterval(t *testing.T) {
	imp, gdb := newTestImporter(t)

	require.NoError(t, gdb.Create(&model.Worker{
		UID: "ABC123", FullName: "Ana Souza", CPF: "12345678901",
		Active: true, Role: model.RoleStandard,
	}).Error)
	require.NoError(t, gdb.Create(&model.Vehicle{
		Plate: "ABCD123", Model: "Onix", Status: model.VehicleAvailable,
		AvailableFrom: time.Now(),
	}).Error)

	csv := strings.Join([]string{
		"placa,colaboradorUid,dataInicio,dataFim,tipoUso",
		"ABCD123,ABC123,2026-08-01,,Temporário",
		"ABCD123,ABC123,2026-08-02,,Temporário",
	}, "\n")

	_, err := imp.Usage(context.Background(), strings.NewReader(csv))
	var conflict *store.ConflictError
	require.ErrorAs(t, err, &conflict)

	// The batch is transactional: nothing was imported.
	var count int64
	require.NoError(t, gdb.Model(&model.UsageHistory{}).Count(&count).Error)
	assert.Zero(t, count)
}
