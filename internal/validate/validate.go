// Package validate enforces the structural constraints on fleet records
// before they reach persistence. Failures are collected field by field;
// no rule short-circuits the others.
package validate

import (
	"regexp"
	"strings"
	"time"
)

var (
	uidRe   = regexp.MustCompile(`^[A-Za-z]{3}[0-9]{3}$`)
	plateRe = regexp.MustCompile(`^[A-Za-z]{4}[0-9]{3}$`)
	cpfRe   = regexp.MustCompile(`^[0-9]{11}$`)
)

// FieldError describes a single validation failure on a named field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is a field-indexed list of validation failures. It implements
// error so it can travel through the usual error paths and be mapped to
// a 422 by the API layer.
type Errors []FieldError

func (e Errors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validator accumulates field errors across rules.
type Validator struct {
	errs Errors
}

// Check appends a field error when ok is false.
func (v *Validator) Check(ok bool, field, message string) {
	if !ok {
		v.errs = append(v.errs, FieldError{Field: field, Message: message})
	}
}

// HasErrors reports whether any rule failed.
func (v *Validator) HasErrors() bool { return len(v.errs) > 0 }

// Errors returns the collected failures, or nil when everything passed.
func (v *Validator) Errors() Errors {
	if len(v.errs) == 0 {
		return nil
	}
	return v.errs
}

// ValidUID reports whether uid is exactly 3 ASCII letters followed by
// 3 digits.
func ValidUID(uid string) bool { return uidRe.MatchString(uid) }

// ValidPlate reports whether plate is exactly 4 letters followed by
// 3 digits.
func ValidPlate(plate string) bool { return plateRe.MatchString(plate) }

// ValidCPF checks length and digit content only; checksum validity is
// deliberately not enforced.
func ValidCPF(cpf string) bool { return cpfRe.MatchString(cpf) }

// ValidCNH reports whether the driver-license number is exactly 9 chars.
func ValidCNH(cnh string) bool { return len(cnh) == 9 }

// ValidFullName requires at least a first and a last name.
func ValidFullName(name string) bool {
	return len(strings.Fields(name)) >= 2
}

// NotBlank reports whether s contains any non-whitespace character.
func NotBlank(s string) bool { return strings.TrimSpace(s) != "" }

// dateLayouts accepted for date fields arriving as strings.
var dateLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

// ParseDate normalizes a date that may arrive as a string in one of the
// accepted layouts. An empty string yields a zero time and ok=true so
// that optional fields pass through.
func ParseDate(s string) (time.Time, bool) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, true
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
