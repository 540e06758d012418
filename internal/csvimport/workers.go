package csvimport

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/fleetguard/fleetguard/internal/model"
	"github.com/fleetguard/fleetguard/internal/store"
	"github.com/fleetguard/fleetguard/internal/validate"
)

// Importer parses CSV uploads and persists the valid rows.
type Importer struct {
	store store.Store
}

// New creates an importer backed by the store.
func New(s store.Store) *Importer {
	return &Importer{store: s}
}

// Workers imports a worker CSV. Expected columns (header-addressed, order
// free): uid, nome, cpf, email, localidade, marca, cargo, cnh, tipoCnh,
// usaEstacionamento, cidadeEstacionamento, ativo, role. Rows failing
// validation are skipped and reported; the rest are upserted keyed on UID.
func (imp *Importer) Workers(ctx context.Context, src io.Reader) (*Result, error) {
	r, err := readAll(src)
	if err != nil {
		return nil, err
	}
	h, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	result := newResult()
	var workers []model.Worker

	for row := 2; ; row++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			result.Errors = append(result.Errors, RowError{Row: row, Field: "", Message: "malformed csv row"})
			continue
		}

		in := validate.WorkerInput{
			UID:         h.get(record, "uid"),
			FullName:    h.get(record, "nome"),
			CPF:         h.get(record, "cpf"),
			CNH:         h.get(record, "cnh"),
			UsesParking: parseBool(h.get(record, "usaestacionamento")),
			ParkingCity: h.get(record, "cidadeestacionamento"),
		}
		if errs := validate.Worker(in); errs != nil {
			for _, fe := range errs {
				result.Errors = append(result.Errors, RowError{Row: row, Field: fe.Field, Message: fe.Message})
			}
			continue
		}

		active := true
		if v := h.get(record, "ativo"); v != "" {
			active = parseBool(v)
		}
		role := model.RoleStandard
		if h.get(record, "role") == model.RoleAdmin {
			role = model.RoleAdmin
		}

		workers = append(workers, model.Worker{
			UID:         strings.ToUpper(in.UID),
			FullName:    in.FullName,
			CPF:         in.CPF,
			Email:       h.get(record, "email"),
			Locality:    h.get(record, "localidade"),
			Brand:       h.get(record, "marca"),
			JobTitle:    h.get(record, "cargo"),
			CNH:         in.CNH,
			CNHType:     h.get(record, "tipocnh"),
			UsesParking: in.UsesParking,
			ParkingCity: in.ParkingCity,
			Active:      active,
			Role:        role,
		})
	}

	if err := imp.store.UpsertWorkers(ctx, workers); err != nil {
		return nil, err
	}
	result.Imported = len(workers)
	return result, nil
}
