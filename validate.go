package cs4teachers

import (
	"errors"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func entityValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		_ = v.RegisterValidation("geolocation", isGeolocation)
		validate = v
	})
	return validate
}

// Validate checks an entity's struct tags and converts failures into a
// ValidationError keyed by form field name.
func Validate(entity any) error {
	err := entityValidator().Struct(entity)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := formFieldName(fe.Field())
		if _, seen := fields[name]; seen {
			continue
		}
		fields[name] = validationMessage(fe)
	}
	return ValidationError{Fields: fields}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "max":
		return "Ensure this value has at most " + fe.Param() + " characters."
	case "http_url":
		return "Enter a valid URL."
	case "geolocation":
		return "Enter coordinates as latitude,longitude."
	case "gtefield":
		return "Must not be before " + strings.ReplaceAll(formFieldName(fe.Param()), "_", " ") + "."
	default:
		return "Invalid value."
	}
}

// isGeolocation accepts "lat,lng" pairs within valid coordinate ranges.
func isGeolocation(fl validator.FieldLevel) bool {
	parts := strings.Split(fl.Field().String(), ",")
	if len(parts) != 2 {
		return false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil || lat < -90 || lat > 90 {
		return false
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || lng < -180 || lng > 180 {
		return false
	}
	return true
}

// formFieldName converts a Go field name such as StartDatetime or EventID
// to the snake_case name used in forms (start_datetime, event_id).
func formFieldName(goName string) string {
	switch goName {
	case "URL":
		return "url"
	case "IsPublished":
		return "is_published"
	}
	rs := []rune(goName)
	var b strings.Builder
	for i, r := range rs {
		if unicode.IsUpper(r) {
			startsWord := i > 0 && (unicode.IsLower(rs[i-1]) || (i+1 < len(rs) && unicode.IsLower(rs[i+1])))
			if startsWord {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
