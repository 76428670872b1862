package validation

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/dukerupert/propinspect"
	"github.com/go-playground/validator/v10"
)

// Validator provides input validation using go-playground/validator.
//
// Struct fields are reported by their JSON names, and failures are
// returned as an EINVALID *propinspect.Error whose Fields are keyed by a
// JSON pointer relative to the request attributes, e.g.
// "/items/item-1/mainInputSelection".
//
// Library: github.com/go-playground/validator/v10
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new validator instance.
//
// Usage in main.go:
//
//	e.Validator = validation.NewValidator()
func NewValidator() *Validator {
	v := validator.New()

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	return &Validator{validate: v}
}

// Validate validates a struct using its validation tags. It implements
// echo.Validator.
func (v *Validator) Validate(i any) error {
	return v.validateAt("", i)
}

// ValidateInspectionTemplatePatch validates every upserted item and
// section of an inspection patch. Deletions carry no fields to validate.
func (v *Validator) ValidateInspectionTemplatePatch(p *propinspect.InspectionTemplatePatch) error {
	if p == nil {
		return nil
	}
	fields := make(map[string]string)
	v.collectChanges(fields, "/items", p.Items)
	v.collectChanges(fields, "/sections", p.Sections)
	if len(fields) > 0 {
		return propinspect.ErrorWithFields(fields)
	}
	return nil
}

// ValidateTemplatePatch validates the scalar fields of a template patch
// along with every upserted item and section.
func (v *Validator) ValidateTemplatePatch(p *propinspect.TemplatePatch) error {
	if p == nil {
		return nil
	}
	fields := make(map[string]string)
	if err := v.validateAt("", p); err != nil {
		collectFields(fields, err)
	}
	v.collectChanges(fields, "/items", p.Items)
	v.collectChanges(fields, "/sections", p.Sections)
	if len(fields) > 0 {
		return propinspect.ErrorWithFields(fields)
	}
	return nil
}

// collectChanges validates each upserted value of a patch map under
// prefix/<id>.
func (v *Validator) collectChanges(fields map[string]string, prefix string, changes any) {
	switch c := changes.(type) {
	case map[string]propinspect.Change[propinspect.ItemPatch]:
		for _, id := range slices.Sorted(maps.Keys(c)) {
			if patch, ok := c[id].Value(); ok {
				collectFields(fields, v.validateAt(prefix+"/"+escapePointer(id), &patch))
			}
		}
	case map[string]propinspect.Change[propinspect.SectionPatch]:
		for _, id := range slices.Sorted(maps.Keys(c)) {
			if patch, ok := c[id].Value(); ok {
				collectFields(fields, v.validateAt(prefix+"/"+escapePointer(id), &patch))
			}
		}
	}
}

func (v *Validator) validateAt(prefix string, i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return propinspect.Invalid("%s", err.Error())
	}

	fields := make(map[string]string, len(validationErrors))
	for _, fieldErr := range validationErrors {
		fields[prefix+namespacePointer(fieldErr.Namespace())] = formatFieldError(fieldErr)
	}
	return propinspect.ErrorWithFields(fields)
}

// collectFields merges the field messages of err into fields.
func collectFields(fields map[string]string, err error) {
	for k, msg := range propinspect.ErrorFields(err) {
		fields[k] = msg
	}
}

// namespacePointer turns a validator namespace such as
// "ItemPatch.mainInputSelection" into "/mainInputSelection".
func namespacePointer(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		parts[i] = escapePointer(p)
	}
	return "/" + strings.Join(parts, "/")
}

// escapePointer escapes a single JSON pointer reference token (RFC 6901).
func escapePointer(token string) string {
	token = strings.ReplaceAll(token, "~", "~0")
	return strings.ReplaceAll(token, "/", "~1")
}

// FormatValidationErrors converts validator errors to a map of field name
// to user-friendly message.
func FormatValidationErrors(err error) map[string]string {
	out := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		out["_error"] = err.Error()
		return out
	}

	for _, fieldErr := range validationErrors {
		out[fieldErr.Field()] = formatFieldError(fieldErr)
	}
	return out
}

func formatFieldError(fieldErr validator.FieldError) string {
	isString := fieldErr.Kind() == reflect.String

	switch fieldErr.Tag() {
	case "required":
		return "is required"
	case "min":
		if isString {
			return fmt.Sprintf("must be at least %s characters", fieldErr.Param())
		}
		return fmt.Sprintf("must be at least %s", fieldErr.Param())
	case "max":
		if isString {
			return fmt.Sprintf("must be no more than %s characters", fieldErr.Param())
		}
		return fmt.Sprintf("must be no more than %s", fieldErr.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fieldErr.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fieldErr.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fieldErr.Param())
	default:
		return fmt.Sprintf("failed validation: %s", fieldErr.Tag())
	}
}
