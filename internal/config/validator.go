// internal/config/validator.go
//
// Struct-tag validation for Config.
//
// Context
// -------
// Load calls validateStruct once the merged tree is decoded and defaulted.
// Any failure aborts startup, so neither binary runs on a half-valid
// configuration.  Problems are reported by their dotted koanf path
// ("database.dsn"), the same spelling used in global.yaml and, upper-cased
// with `__`, in JYE_ variables.
//
// Notes
// -----
//   • Oxford commas, two spaces after periods.

package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return val
}

// validateStruct returns every rule violation in one error, or nil.
func validateStruct(c *Config) error {
	err := v.Struct(c)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		// Namespace is "Config.database.dsn"; drop the type name.
		_, path, _ := strings.Cut(fe.Namespace(), ".")
		msgs = append(msgs, path+" "+rule(fe))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

func rule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_if":
		field, val, _ := strings.Cut(fe.Param(), " ")
		return fmt.Sprintf("is required when %s is %s", strings.ToLower(field), val)
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fmt.Sprint(fe.Value()))
	case "hostname_port":
		return "must be host:port"
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	}
	return "fails " + fe.Tag()
}
