// Package testutil provides an in-process registration backend for tests.
package testutil

import (
	"testing"

	"github.com/intakehq/intake/internal/api"
)

// Builder accumulates backend data before the server starts.
type Builder struct {
	t         *testing.T
	hospitals []api.Hospital
	patients  []api.Patient
	failures  map[string]int
}

// NewBuilder creates a builder for a test backend.
func NewBuilder(t *testing.T) *Builder {
	t.Helper()
	return &Builder{t: t, failures: make(map[string]int)}
}

// WithHospital adds a hospital.
func (b *Builder) WithHospital(id, name string) *Builder {
	b.hospitals = append(b.hospitals, api.Hospital{ID: id, Name: name})
	return b
}

// WithPatient adds a patient registered at hospitalID.
func (b *Builder) WithPatient(id, hospitalID string, opts ...PatientOption) *Builder {
	p := api.Patient{ID: id, HospitalID: hospitalID, FullName: id}
	for _, opt := range opts {
		opt(&p)
	}
	b.patients = append(b.patients, p)
	return b
}

// WithFailure makes route answer with status until cleared.
func (b *Builder) WithFailure(route string, status int) *Builder {
	b.failures[route] = status
	return b
}

// Build starts the backend. It is shut down when the test ends.
func (b *Builder) Build() *Backend {
	b.t.Helper()
	return start(b.t, b.hospitals, b.patients, b.failures)
}
