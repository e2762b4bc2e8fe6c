// internal/validation/validation.go
package validation

import (
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate
var tierIDRegex = regexp.MustCompile(`^[1-9][0-9]*$`)

func init() {
	validate = validator.New()
	validate.RegisterValidation("tier_id", validateTierID)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"yaml", "json"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
}

// ValidateStruct возвращает ошибки по полям или nil.
func ValidateStruct(data interface{}) url.Values {
	err := validate.Struct(data)
	if err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

// Summary сворачивает ошибки в одну строку для логов и ошибок запуска.
func Summary(errs url.Values) string {
	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(errs[field], "; ")))
	}
	return strings.Join(parts, ", ")
}

func formatValidationErrors(err error) url.Values {
	errorsMap := url.Values{}
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, fieldErr := range validationErrs {
			errorsMap.Add(fieldPath(fieldErr), getErrorMessage(fieldErr))
		}
	} else {
		errorsMap.Add("general", "Ошибка валидации: "+err.Error())
	}
	return errorsMap
}

// fieldPath отбрасывает имя корневой структуры: "Config.aeon.app_id" -> "aeon.app_id".
func fieldPath(fieldErr validator.FieldError) string {
	ns := fieldErr.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fieldErr.Field()
}

func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "обязательное поле"
	case "url":
		return "ожидается корректный URL"
	case "gt":
		return fmt.Sprintf("значение должно быть больше %s", err.Param())
	case "lt":
		return fmt.Sprintf("значение должно быть меньше %s", err.Param())
	case "oneof":
		return fmt.Sprintf("допустимые значения: %s", err.Param())
	case "startswith":
		return fmt.Sprintf("значение должно начинаться с %q", err.Param())
	case "unique":
		return "значения должны быть уникальными"
	case "tier_id":
		return "идентификатор пакета должен быть положительным числом без ведущих нулей"
	default:
		return fmt.Sprintf("некорректное значение (тег: %s)", err.Tag())
	}
}

func validateTierID(fl validator.FieldLevel) bool {
	return tierIDRegex.MatchString(fl.Field().String())
}
