// Package validator wraps go-playground/validator with the catalog enum
// rules and converts failures into VALIDATION_FAILED domain errors.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/spec-kit/learning-platform/internal/domain"
	apperrors "github.com/spec-kit/learning-platform/pkg/util"
)

// Validator validates request payloads.
type Validator struct {
	validate *validator.Validate
}

// New builds a validator with the domain rules registered.
func New() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	v := &Validator{validate: validate}
	v.registerDomainRules()
	return v
}

func (v *Validator) registerDomainRules() {
	enum := func(valid func(string) bool) validator.Func {
		return func(fl validator.FieldLevel) bool {
			return valid(fl.Field().String())
		}
	}

	_ = v.validate.RegisterValidation("course_category", enum(func(s string) bool { return domain.Category(s).Valid() }))
	_ = v.validate.RegisterValidation("course_level", enum(func(s string) bool { return domain.Level(s).Valid() }))
	_ = v.validate.RegisterValidation("course_status", enum(func(s string) bool { return domain.CourseStatus(s).Valid() }))
	_ = v.validate.RegisterValidation("user_role", enum(func(s string) bool { return domain.Role(s).Valid() }))
	_ = v.validate.RegisterValidation("lesson_type", enum(func(s string) bool { return domain.LessonType(s).Valid() }))
}

// Struct validates s and returns a DomainError listing each failing field.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.NewValidationError("Invalid request payload", nil)
	}

	fields := make(map[string]string, len(verrs))
	first := ""
	for _, fe := range verrs {
		field := fieldPath(fe)
		msg := describe(fe)
		if _, seen := fields[field]; !seen {
			fields[field] = msg
		}
		if first == "" {
			first = msg
		}
	}
	return apperrors.NewValidationError(first, map[string]any{"fields": fields})
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", name)
	case "email":
		return "Please include a valid email"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", name, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", name, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s cannot be more than %s characters", name, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", name, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", name, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", name, fe.Param())
	case "course_category", "course_level", "course_status", "user_role", "lesson_type", "oneof":
		return fmt.Sprintf("%s has an unsupported value", name)
	case "uuid", "uuid4":
		return fmt.Sprintf("%s must be a valid id", name)
	}
	return fmt.Sprintf("%s is invalid", name)
}
