package httpapi

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/reactivities/identity/internal/common"
)

var registerOnce sync.Once

// registerValidators teaches gin's validator the password rule and makes it
// report JSON field names.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
		_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
			return complexPassword(fl.Field().String())
		})
	})
}

// complexPassword requires at least 4 characters with a digit, a lower case
// and an upper case letter.
func complexPassword(p string) bool {
	if len([]rune(p)) < 4 {
		return false
	}
	var digit, lower, upper bool
	for _, r := range p {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		}
	}
	return digit && lower && upper
}

// bindingError converts a gin binding failure into field errors.
func bindingError(err error) *common.ValidationError {
	verr := &common.ValidationError{}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		verr.Add("body", "The request body is invalid.")
		return verr
	}
	for _, fe := range ves {
		verr.Add(fe.Field(), fieldMessage(fe))
	}
	return verr
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "The " + fe.Field() + " field is required."
	case "email":
		return "The " + fe.Field() + " field is not a valid e-mail address."
	case "password":
		return "Password must be complex"
	default:
		return "The " + fe.Field() + " field is invalid."
	}
}
