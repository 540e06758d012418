package validate

import "time"

// WorkerInput carries the fields of a worker registration or update that
// are subject to structural validation.
type WorkerInput struct {
	UID         string
	FullName    string
	CPF         string
	CNH         string
	UsesParking bool
	ParkingCity string
}

// Worker runs all worker-form rules and returns the collected failures.
// The parking-city rule is cross-field: it only applies once UsesParking
// has been resolved.
func Worker(in WorkerInput) Errors {
	var v Validator
	v.Check(ValidUID(in.UID), "uid", "must be 3 letters followed by 3 digits")
	v.Check(ValidFullName(in.FullName), "fullName", "must include first and last name")
	v.Check(ValidCPF(in.CPF), "cpf", "must be exactly 11 digits")
	if in.CNH != "" {
		v.Check(ValidCNH(in.CNH), "cnh", "must be exactly 9 characters")
	}
	if in.UsesParking {
		v.Check(NotBlank(in.ParkingCity), "cidadeEstacionamento", "required when usaEstacionamento is true")
	}
	return v.Errors()
}

// UsageInput carries the fields of a usage-history record subject to
// validation. Dates are pre-normalized by the caller via ParseDate.
type UsageInput struct {
	Plate     string
	WorkerUID string
	StartedAt time.Time
	EndedAt   *time.Time
	UsageType string
}

// Usage runs all usage-history rules.
func Usage(in UsageInput) Errors {
	var v Validator
	v.Check(ValidPlate(in.Plate), "placa", "must be 4 letters followed by 3 digits")
	v.Check(ValidUID(in.WorkerUID), "colaboradorUid", "must be 3 letters followed by 3 digits")
	v.Check(!in.StartedAt.IsZero(), "dataInicio", "is required")
	if in.EndedAt != nil && !in.StartedAt.IsZero() {
		v.Check(!in.EndedAt.Before(in.StartedAt), "dataFim", "must not precede dataInicio")
	}
	v.Check(NotBlank(in.UsageType), "tipoUso", "is required")
	return v.Errors()
}
