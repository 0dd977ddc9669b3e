package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

func registerCustomValidations() {
	// Dispute resolution grammar: buyer_full, seller_full, burn, split_<b>_<s>.
	// Percent arithmetic is checked by the escrow package; this only gates shape.
	validate.RegisterValidation("resolution", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		switch s {
		case "buyer_full", "seller_full", "burn":
			return true
		}
		return strings.HasPrefix(s, "split_")
	})

	// Evidence type validation
	validate.RegisterValidation("evidence_type", func(fl validator.FieldLevel) bool {
		t := fl.Field().String()
		return t == "text" || t == "image"
	})

	// Seller category validation
	validate.RegisterValidation("seller_category", func(fl validator.FieldLevel) bool {
		c := fl.Field().String()
		for _, valid := range []string{"digital", "physical", "services", "all"} {
			if c == valid {
				return true
			}
		}
		return false
	})
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	errors := make(map[string]string)
	for _, err := range err.(validator.ValidationErrors) {
		field := err.Field()
		switch err.Tag() {
		case "required":
			errors[field] = "This field is required"
		case "min":
			errors[field] = "Value is too short (min: " + err.Param() + ")"
		case "max":
			errors[field] = "Value is too long (max: " + err.Param() + ")"
		case "gt":
			errors[field] = "Value must be greater than " + err.Param()
		case "resolution":
			errors[field] = "Invalid resolution. Must be: buyer_full, seller_full, burn, or split_<b>_<s>"
		case "evidence_type":
			errors[field] = "Invalid evidence type. Must be: text or image"
		case "seller_category":
			errors[field] = "Invalid category. Must be: digital, physical, services, or all"
		default:
			errors[field] = "Invalid value"
		}
	}

	return errors
}

// ValidateVar validates a single variable
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}
