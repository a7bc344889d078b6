package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/intakehq/intake/internal/api"
	"github.com/intakehq/intake/internal/patients"
	"github.com/intakehq/intake/internal/registration"
)

var registerForm struct {
	hospital          string
	firstName         string
	lastName          string
	yearOfBirth       int
	age               int
	nationalID        string
	patientHospitalID string
	gender            string
	address           string
	phone1            string
	phone2            string
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a patient without the TUI",
	Long: `Register a new patient from flags. The same required fields as the
registration screen apply.

Example:
  intake register --hospital 3 --first-name Ada --last-name Lovelace \
    --year-of-birth 1980 --patient-hospital-id MRN-001`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		form := registrationFormFromFlags()
		if errs := registration.Validate(form); !errs.Valid() {
			return fmt.Errorf("invalid registration: %s", describeFieldErrors(errs))
		}

		return withService(func(svc *patients.Service) error {
			exec := svc.RegisterPatient()
			defer exec.Close()

			p, err := exec.Mutate(cmd.Context(), form)
			if err != nil {
				return fmt.Errorf("registering patient: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), p)
		})
	},
}

func init() {
	f := registerCmd.Flags()
	f.StringVar(&registerForm.hospital, "hospital", "", "hospital id (required)")
	f.StringVar(&registerForm.firstName, "first-name", "", "first name (required)")
	f.StringVar(&registerForm.lastName, "last-name", "", "last name (required)")
	f.IntVar(&registerForm.yearOfBirth, "year-of-birth", 0, "year of birth (required)")
	f.IntVar(&registerForm.age, "age", 0, "age in years")
	f.StringVar(&registerForm.nationalID, "national-id", "", "national id")
	f.StringVar(&registerForm.patientHospitalID, "patient-hospital-id", "", "id within the hospital (required)")
	f.StringVar(&registerForm.gender, "gender", "", "gender")
	f.StringVar(&registerForm.address, "address", "", "address")
	f.StringVar(&registerForm.phone1, "phone1", "", "primary phone")
	f.StringVar(&registerForm.phone2, "phone2", "", "secondary phone")
	rootCmd.AddCommand(registerCmd)
}

func registrationFormFromFlags() registration.Form {
	form := registration.Form{
		FirstName:         registerForm.firstName,
		LastName:          registerForm.lastName,
		YearOfBirth:       registerForm.yearOfBirth,
		NationalID:        registerForm.nationalID,
		PatientHospitalID: registerForm.patientHospitalID,
		Gender:            registerForm.gender,
		Address:           registerForm.address,
		Phone1:            registerForm.phone1,
		Phone2:            registerForm.phone2,
	}
	if registerForm.hospital != "" {
		form.Hospital = &registration.Option{Label: registerForm.hospital, Value: registerForm.hospital}
	}
	if registerForm.age > 0 {
		form.Age = api.Ptr(registerForm.age)
	}
	return form
}

func describeFieldErrors(errs registration.FieldErrors) string {
	parts := make([]string, 0, len(errs))
	for field, msg := range errs {
		parts = append(parts, field+": "+msg)
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}
