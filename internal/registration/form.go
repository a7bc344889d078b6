// Package registration holds the register-patient form: its values,
// client-side validation, the projection onto the write payload, and the
// unsaved-changes exit guard.
package registration

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/intakehq/intake/internal/api"
	"github.com/intakehq/intake/internal/log"
)

// RequiredFieldMsg is shown under every missing required field.
const RequiredFieldMsg = "This field is required"

// Option is one entry of a select field.
type Option struct {
	Label string
	Value string
}

// Form is the register-patient form. Field names in the form tags are the
// keys used by FieldErrors.
type Form struct {
	Hospital          *Option `form:"hospital" validate:"required"`
	FirstName         string  `form:"firstName" validate:"notblank"`
	LastName          string  `form:"lastName" validate:"notblank"`
	YearOfBirth       int     `form:"yearOfBirth" validate:"required"`
	Age               *int    `form:"age"`
	NationalID        string  `form:"nationalId"`
	PatientHospitalID string  `form:"patientHospitalId" validate:"notblank"`
	Gender            string  `form:"gender"`
	Address           string  `form:"address"`
	Phone1            string  `form:"phone1"`
	Phone2            string  `form:"phone2"`
}

// Equal compares forms by value.
func (f Form) Equal(other Form) bool {
	return reflect.DeepEqual(f, other)
}

// FieldErrors maps form field names to messages.
type FieldErrors map[string]string

// Valid reports whether there are no errors.
func (fe FieldErrors) Valid() bool {
	return len(fe) == 0
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func formValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := fld.Tag.Get("form")
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
		_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	})
	return validate
}

// Validate checks the required fields. Whitespace-only text counts as empty.
func Validate(f Form) FieldErrors {
	errs := FieldErrors{}

	err := formValidator().Struct(f)
	if err == nil {
		return errs
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		log.ErrorErr(log.CatForm, "validator rejected form", err)
		errs["form"] = err.Error()
		return errs
	}
	for _, fe := range verrs {
		errs[fe.Field()] = RequiredFieldMsg
	}
	return errs
}

// ToRegisterPayload maps form fields onto the write payload. It renames and
// joins the name parts; it never validates.
func ToRegisterPayload(f Form) api.RegisterPatientPayload {
	payload := api.RegisterPatientPayload{
		FullName:          f.FirstName + " " + f.LastName,
		YearOfBirth:       f.YearOfBirth,
		Age:               f.Age,
		NationalID:        f.NationalID,
		PatientHospitalID: f.PatientHospitalID,
		Gender:            f.Gender,
		Address:           f.Address,
		Phone1:            f.Phone1,
		Phone2:            f.Phone2,
	}
	if f.Hospital != nil {
		payload.HospitalID = f.Hospital.Value
	}
	return payload
}

// CanSubmit reports whether the submit trigger is enabled.
func CanSubmit(errs FieldErrors, isLoading, submitting bool) bool {
	return errs.Valid() && !isLoading && !submitting
}
