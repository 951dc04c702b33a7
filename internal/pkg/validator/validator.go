package validator

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"therapyspace/internal/domain"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

// looseEmail accepts anything shaped like a@b.c, which is all the booking
// form asks of an address.
var looseEmail = regexp.MustCompile(`\S+@\S+\.\S+`)

// messages maps "<field>.<tag>" to the text shown next to the field.
var messages = map[string]string{
	"clientName.notblank":     "Name is required",
	"clientEmail.notblank":    "Email is required",
	"clientEmail.looseemail":  "Email is invalid",
	"clientPhone.notblank":    "Phone is required",
	"serviceType.servicetype": "Service type is invalid",
}

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = validate.RegisterValidation("looseemail", func(fl validator.FieldLevel) bool {
		return looseEmail.MatchString(fl.Field().String())
	})
	_ = validate.RegisterValidation("servicetype", func(fl validator.FieldLevel) bool {
		return domain.IsKnownServiceType(fl.Field().String())
	})
}

// Validate checks v and returns one message per failing field, keyed by the
// field's JSON name. Only the first failing rule of a field is reported.
func Validate(v any) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}

	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	if m, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
		return m
	}
	return fe.Field() + " is invalid"
}
