package utils

import (
	"errors"
	"html"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/truemail-rb/truemail-go"

	"graveyard-manager/internal/schemas"
)

type Validator struct {
	Validate    *validator.Validate
	VerifyEmail func(email string) bool
	policy      *bluemonday.Policy
}

var (
	instance      *Validator
	once          sync.Once
	configuration *truemail.Configuration
	zipCodeRegex  = regexp.MustCompile(`^[0-9A-Za-z][0-9A-Za-z\- ]{1,8}[0-9A-Za-z]$`)
)

func GetValidator() *Validator {
	once.Do(func() {
		configuration, _ = truemail.NewConfiguration(truemail.ConfigurationAttr{
			VerifierEmail:         "graveyard_manager@o2.pl",
			ValidationTypeDefault: "mx",
			SmtpFailFast:          true,
		})

		instance = &Validator{
			Validate:    validator.New(validator.WithRequiredStructEnabled()),
			VerifyEmail: validateEmail,
			policy:      bluemonday.StrictPolicy(),
		}

		instance.Validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
			if name == "" || name == "-" {
				return field.Name
			}
			return name
		})
		registerCustomValidators(instance.Validate)
	})

	return instance
}

func validateEmail(email string) bool {
	if configuration == nil {
		return false
	}
	return truemail.IsValid(email, configuration)
}

func registerCustomValidators(v *validator.Validate) {
	err := v.RegisterValidation("password_validation", passwordValidation)
	if err != nil {
		return
	}

	err = v.RegisterValidation("zip_code_validation", zipCodeValidation)
	if err != nil {
		return
	}
}

func passwordValidation(fl validator.FieldLevel) bool {
	return IsStrongPassword(fl.Field().String())
}

func zipCodeValidation(fl validator.FieldLevel) bool {
	return zipCodeRegex.MatchString(fl.Field().String())
}

// IsStrongPassword reports whether the password mixes upper and lower case letters, digits and special characters.
func IsStrongPassword(value string) bool {
	var upperLetter, lowerLetter, number, specialChar bool

	for _, r := range value {
		if r > unicode.MaxASCII {
			return false
		}

		switch {
		case unicode.IsUpper(r):
			upperLetter = true
		case unicode.IsLower(r):
			lowerLetter = true
		case unicode.IsNumber(r):
			number = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			specialChar = true
		}
	}

	return upperLetter && lowerLetter && number && specialChar
}

// SanitizeData strips markup from every string field of the struct obj points to.
// Entities are decoded before sanitizing so encoded tags are stripped as well.
// The result stays HTML escaped. Fields tagged sanitize:"-" are left untouched.
func (v *Validator) SanitizeData(obj interface{}) error {
	value := reflect.ValueOf(obj)
	if value.Kind() != reflect.Ptr || value.Elem().Kind() != reflect.Struct {
		return errors.New("sanitize: expected a pointer to a struct")
	}
	v.sanitizeStruct(value.Elem())
	return nil
}

func (v *Validator) sanitizeStruct(value reflect.Value) {
	for i := 0; i < value.NumField(); i++ {
		field := value.Field(i)
		structField := value.Type().Field(i)
		if !field.CanSet() || structField.Tag.Get("sanitize") == "-" {
			continue
		}

		switch field.Kind() {
		case reflect.Struct:
			v.sanitizeStruct(field)
		case reflect.String:
			cleaned := v.policy.Sanitize(html.UnescapeString(field.String()))
			field.SetString(strings.TrimSpace(cleaned))
		}
	}
}

// BindAndValidate binds the submitted form into obj, sanitizes and validates it.
// It returns the failed fields, or nil if the form is valid.
func (v *Validator) BindAndValidate(c *gin.Context, obj interface{}) []schemas.FieldErrorDTO {
	if err := c.ShouldBindWith(obj, binding.Form); err != nil {
		LogMessageWithFieldsAndError(c, "debug", "Could not bind form", err)
		return []schemas.FieldErrorDTO{{Field: "form", Rule: "binding"}}
	}

	if err := v.SanitizeData(obj); err != nil {
		LogMessageWithFieldsAndError(c, "debug", "Could not sanitize form", err)
		return []schemas.FieldErrorDTO{{Field: "form", Rule: "sanitize"}}
	}

	if err := v.Validate.Struct(obj); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return []schemas.FieldErrorDTO{{Field: "form", Rule: "invalid"}}
		}

		fieldErrors := make([]schemas.FieldErrorDTO, 0, len(validationErrors))
		for _, fe := range validationErrors {
			fieldErrors = append(fieldErrors, schemas.FieldErrorDTO{Field: fe.Field(), Rule: fe.Tag()})
		}
		return fieldErrors
	}

	return nil
}
