package csvimport

import (
	"context"
	"errors"
	"io"

	"github.com/fleetguard/fleetguard/internal/model"
	"github.com/fleetguard/fleetguard/internal/store"
	"github.com/fleetguard/fleetguard/internal/validate"
)

// Usage imports a usage-history CSV. Expected columns: placa,
// colaboradorUid, dataInicio, dataFim, tipoUso. Plates and UIDs must
// resolve to known records; an open row (empty dataFim) that would give a
// vehicle a second open interval aborts the batch with a conflict.
func (imp *Importer) Usage(ctx context.Context, src io.Reader) (*Result, error) {
	r, err := readAll(src)
	if err != nil {
		return nil, err
	}
	h, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	result := newResult()
	var records []model.UsageHistory

	for row := 2; ; row++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			result.Errors = append(result.Errors, RowError{Row: row, Field: "", Message: "malformed csv row"})
			continue
		}

		started, okStart := validate.ParseDate(h.get(record, "datainicio"))
		ended, okEnd := validate.ParseDate(h.get(record, "datafim"))
		if !okStart {
			result.Errors = append(result.Errors, RowError{Row: row, Field: "dataInicio", Message: "unparseable date"})
			continue
		}
		if !okEnd {
			result.Errors = append(result.Errors, RowError{Row: row, Field: "dataFim", Message: "unparseable date"})
			continue
		}

		in := validate.UsageInput{
			Plate:     h.get(record, "placa"),
			WorkerUID: h.get(record, "colaboradoruid"),
			StartedAt: started,
			UsageType: h.get(record, "tipouso"),
		}
		if !ended.IsZero() {
			e := ended
			in.EndedAt = &e
		}
		if errs := validate.Usage(in); errs != nil {
			for _, fe := range errs {
				result.Errors = append(result.Errors, RowError{Row: row, Field: fe.Field, Message: fe.Message})
			}
			continue
		}

		vehicle, err := imp.store.VehicleByPlate(ctx, in.Plate)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				result.Errors = append(result.Errors, RowError{Row: row, Field: "placa", Message: "unknown vehicle"})
				continue
			}
			return nil, err
		}
		worker, err := imp.store.WorkerByUID(ctx, in.WorkerUID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				result.Errors = append(result.Errors, RowError{Row: row, Field: "colaboradorUid", Message: "unknown worker"})
				continue
			}
			return nil, err
		}

		records = append(records, model.UsageHistory{
			VehicleID: vehicle.ID,
			WorkerID:  worker.ID,
			StartedAt: in.StartedAt,
			EndedAt:   in.EndedAt,
			UsageType: in.UsageType,
		})
	}

	if err := imp.store.CreateUsageRecords(ctx, records); err != nil {
		return nil, err
	}
	result.Imported = len(records)
	return result, nil
}
