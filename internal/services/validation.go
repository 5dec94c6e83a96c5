package services

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		_, err := time.Parse("15:04", fl.Field().String())
		return err == nil
	})
	return v
}

// fieldMessages maps "Struct.Field" (and "Struct.Field.tag" for tag-specific
// wording) to the message shown to the user.
var fieldMessages = map[string]string{
	"RouteInput.Name":                  "Route name is required",
	"RouteInput.BusNumber":             "Bus number is required",
	"RouteInput.DriverName":            "Driver's name is required",
	"RouteInput.DriverMobile":          "Mobile number must be 10 digits.",
	"RouteInput.DriverMobile.required": "Driver's mobile number is required",

	"StopInput.RollNumber":    "Please select a student.",
	"StopInput.Location":      "Location is missing",
	"StopInput.Time":          "Time must be in HH:MM format",
	"StopInput.Time.required": "Time is missing",

	"EditStopInput.Location":      "Location is missing",
	"EditStopInput.Time":          "Time must be in HH:MM format",
	"EditStopInput.Time.required": "Time is missing",

	"StudentInput.FullName":            "Full name is required",
	"StudentInput.RollNumber":          "Roll number must be exactly 10 characters long.",
	"StudentInput.RollNumber.required": "Roll number is required",
	"StudentInput.Email":               "A valid email address is required",
	"StudentInput.PhoneNumber":         "Phone number must be exactly 10 digits.",

	"ProfileInput.FullName":    "Full name is required",
	"ProfileInput.Email":       "A valid email address is required",
	"ProfileInput.PhoneNumber": "Phone number must be exactly 10 digits.",
}

// validateStruct runs the struct's validate tags and converts the first
// failure into a *ValidationError.
func validateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	fe := fieldErrs[0]
	key := fe.StructNamespace()
	msg, ok := fieldMessages[key+"."+fe.Tag()]
	if !ok {
		msg, ok = fieldMessages[key]
	}
	if !ok {
		msg = fe.Field() + " is invalid"
	}
	return &ValidationError{Field: fe.Field(), Message: msg}
}

func trimAll(values ...*string) {
	for _, v := range values {
		*v = strings.TrimSpace(*v)
	}
}
