package testutil

// WithStandardTestData adds two hospitals and five patients.
// St. Mary (h1) has four patients, General (h2) has one.
func (b *Builder) WithStandardTestData() *Builder {
	return b.
		WithHospital("h1", "St. Mary").
		WithHospital("h2", "General").
		WithPatient("p1", "h1",
			FullName("Ada Lovelace"), YearOfBirth(1980), PatientHospitalID("MRN-001"),
			Phone("555-0101"), CreatedAt("2024-01-01T09:00:00Z")).
		WithPatient("p2", "h1",
			FullName("Grace Hopper"), YearOfBirth(1975), PatientHospitalID("MRN-002"),
			CreatedAt("2024-02-01T09:00:00Z")).
		WithPatient("p3", "h1",
			FullName("Alan Turing"), YearOfBirth(1990), PatientHospitalID("MRN-003"),
			CreatedAt("2024-03-01T09:00:00Z")).
		WithPatient("p4", "h1",
			FullName("Barbara Liskov"), YearOfBirth(1985), PatientHospitalID("MRN-004"),
			CreatedAt("2024-04-01T09:00:00Z")).
		WithPatient("p5", "h2",
			FullName("Edsger Dijkstra"), YearOfBirth(1970), PatientHospitalID("GEN-001"),
			CreatedAt("2024-05-01T09:00:00Z"))
}
