// ABOUTME: Declarative form schemas shared by client forms and the reference backend
// ABOUTME: Field rules are validator tags evaluated against string form values
package validate

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

// Field describes one form input.
type Field struct {
	Name        string
	Label       string
	Placeholder string
	// Rules is a validator tag such as "required,email,max=255".
	Rules  string
	Secret bool
}

// Required reports whether the field must be filled in.
func (f Field) Required() bool {
	for _, r := range strings.Split(f.Rules, ",") {
		if r == "required" {
			return true
		}
	}
	return false
}

// Schema is an ordered list of fields for one form.
type Schema struct {
	Name   string
	Fields []Field
}

// Field looks up a field by name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Validate checks every field against its rules. Missing keys are treated as
// empty strings. The result is nil when all fields pass.
func (s Schema) Validate(values map[string]string) Errors {
	v := engine()
	var errs Errors
	for _, f := range s.Fields {
		if f.Rules == "" {
			continue
		}
		value := strings.TrimSpace(values[f.Name])
		err := v.Var(value, f.Rules)
		if err == nil {
			continue
		}
		if errs == nil {
			errs = Errors{}
		}
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			errs[f.Name] = message(f, verrs[0])
		} else {
			errs[f.Name] = fmt.Sprintf("%s is invalid", f.Label)
		}
	}
	return errs
}

// ValidatePartial checks only the fields present in values, for partial
// updates where absent fields keep their stored value.
func (s Schema) ValidatePartial(values map[string]string) Errors {
	present := Schema{Name: s.Name}
	for _, f := range s.Fields {
		if _, ok := values[f.Name]; ok {
			present.Fields = append(present.Fields, f)
		}
	}
	return present.Validate(values)
}

// Errors maps field names to a human readable message.
type Errors map[string]string

func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Err returns e as an error, or nil when there are no failures.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func engine() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("urlprefix", func(fl validator.FieldLevel) bool {
			s := strings.ToLower(fl.Field().String())
			return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
		})
		_ = validate.RegisterValidation("intrange", func(fl validator.FieldLevel) bool {
			lo, hi, ok := rangeParam(fl.Param())
			n, err := strconv.Atoi(fl.Field().String())
			return ok && err == nil && float64(n) >= lo && float64(n) <= hi
		})
		_ = validate.RegisterValidation("floatrange", func(fl validator.FieldLevel) bool {
			lo, hi, ok := rangeParam(fl.Param())
			f, err := strconv.ParseFloat(fl.Field().String(), 64)
			return ok && err == nil && f >= lo && f <= hi
		})
		_ = validate.RegisterValidation("date", func(fl validator.FieldLevel) bool {
			_, err := time.Parse("2006-01-02", fl.Field().String())
			return err == nil
		})
		_ = validate.RegisterValidation("datetime_or_date", func(fl validator.FieldLevel) bool {
			_, ok := ParseDateTime(fl.Field().String())
			return ok
		})
	})
	return validate
}

// rangeParam parses "lo:hi".
func rangeParam(p string) (float64, float64, bool) {
	lo, hi, found := strings.Cut(p, ":")
	if !found {
		return 0, 0, false
	}
	l, err1 := strconv.ParseFloat(lo, 64)
	h, err2 := strconv.ParseFloat(hi, 64)
	return l, h, err1 == nil && err2 == nil
}

// ParseDateTime accepts "YYYY-MM-DD", "YYYY-MM-DD HH:MM" and RFC 3339.
func ParseDateTime(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func message(f Field, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", f.Label)
	case "email":
		return "Please enter a valid email address"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", f.Label, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", f.Label, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", f.Label, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "urlprefix":
		return fmt.Sprintf("%s must start with http:// or https://", f.Label)
	case "intrange", "floatrange":
		lo, hi, _ := strings.Cut(fe.Param(), ":")
		return fmt.Sprintf("%s must be a number between %s and %s", f.Label, lo, hi)
	case "date":
		return fmt.Sprintf("%s must be a date (YYYY-MM-DD)", f.Label)
	case "datetime_or_date":
		return fmt.Sprintf("%s must be a date (YYYY-MM-DD) or date and time (YYYY-MM-DD HH:MM)", f.Label)
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", f.Label, fe.Param())
	case "alpha", "uppercase":
		return fmt.Sprintf("%s must be upper-case letters", f.Label)
	}
	return fmt.Sprintf("%s is invalid", f.Label)
}
