package nav

import (
	"net/url"
	"strings"
)

const patientsPrefix = "/patients/"

// Patients is the patients list.
func Patients() string { return "/patients" }

// RegisterPatient is the registration form.
func RegisterPatient() string { return "/patients/new" }

// Patient is one patient's detail page.
func Patient(id string) string { return patientsPrefix + url.PathEscape(id) }

// ParsePatient extracts the id from a detail page path.
func ParsePatient(path string) (string, bool) {
	rest, ok := strings.CutPrefix(path, patientsPrefix)
	if !ok || rest == "" || strings.Contains(rest, "/") || path == RegisterPatient() {
		return "", false
	}
	id, err := url.PathUnescape(rest)
	if err != nil {
		return "", false
	}
	return id, true
}
