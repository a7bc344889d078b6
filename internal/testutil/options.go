package testutil

import "github.com/intakehq/intake/internal/api"

// PatientOption configures a patient added through the builder.
type PatientOption func(*api.Patient)

// FullName sets the patient's display name.
func FullName(name string) PatientOption {
	return func(p *api.Patient) { p.FullName = name }
}

// YearOfBirth sets the patient's year of birth.
func YearOfBirth(year int) PatientOption {
	return func(p *api.Patient) { p.YearOfBirth = year }
}

// PatientHospitalID sets the id the hospital knows the patient by.
func PatientHospitalID(id string) PatientOption {
	return func(p *api.Patient) { p.PatientHospitalID = id }
}

// Phone sets the primary phone.
func Phone(phone string) PatientOption {
	return func(p *api.Patient) { p.Phone1 = phone }
}

// CreatedAt sets the creation timestamp used by -created_at ordering.
func CreatedAt(ts string) PatientOption {
	return func(p *api.Patient) { p.CreatedAt = &ts }
}
