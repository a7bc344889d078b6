package api

// PaginationParams bounds a list request. Nil fields are omitted.
type PaginationParams struct {
	Offset *int
	Limit  *int
}

// PatientsParams filters the patients list.
type PatientsParams struct {
	HospitalID *string
	Offset     *int
	Limit      *int
	SearchTerm *string
	Ordering   *string
}

// Hospital is one hospital record.
type Hospital struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

// HospitalsResponse is a page of hospitals.
type HospitalsResponse struct {
	Count    int        `json:"count"`
	Next     *string    `json:"next"`
	Previous *string    `json:"previous"`
	Results  []Hospital `json:"results"`
}

// Patient is one registered patient.
type Patient struct {
	ID                string  `json:"id"`
	HospitalID        string  `json:"hospital_id"`
	FullName          string  `json:"full_name"`
	YearOfBirth       int     `json:"year_of_birth"`
	Age               *int    `json:"age,omitempty"`
	NationalID        string  `json:"national_id,omitempty"`
	PatientHospitalID string  `json:"patient_hospital_id"`
	Gender            string  `json:"gender,omitempty"`
	Address           string  `json:"address,omitempty"`
	Phone1            string  `json:"phone_1,omitempty"`
	Phone2            string  `json:"phone_2,omitempty"`
	CreatedAt         *string `json:"created_at,omitempty"`
}

// PatientsResponse is a page of patients.
type PatientsResponse struct {
	Count    int       `json:"count"`
	Next     *string   `json:"next"`
	Previous *string   `json:"previous"`
	Results  []Patient `json:"results"`
}

// RegisterPatientPayload is the body of a registration write.
type RegisterPatientPayload struct {
	HospitalID        string `json:"hospital_id"`
	FullName          string `json:"full_name"`
	YearOfBirth       int    `json:"year_of_birth"`
	Age               *int   `json:"age,omitempty"`
	NationalID        string `json:"national_id,omitempty"`
	PatientHospitalID string `json:"patient_hospital_id"`
	Gender            string `json:"gender,omitempty"`
	Address           string `json:"address,omitempty"`
	Phone1            string `json:"phone_1,omitempty"`
	Phone2            string `json:"phone_2,omitempty"`
}

// Ptr returns a pointer to v, for building params literals.
func Ptr[T any](v T) *T {
	return &v
}
