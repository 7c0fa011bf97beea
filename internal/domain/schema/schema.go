// Package schema turns raw JSON payloads into validated records.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/mamadbah2/briquette/internal/domain/models"
)

// FieldError describes why a single input field was rejected.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when a payload does not satisfy its record schema.
type ValidationError struct {
	Entity string
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return fmt.Sprintf("invalid %s: %s", e.Entity, strings.Join(parts, "; "))
}

const msgRequired = "field required"

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			return jsonName(field)
		})
	})
	return validate
}

// Validate decodes raw into a T and checks it against T's field rules.
// Any failure is reported as a *ValidationError; nothing else is returned.
func Validate[T any](raw []byte) (T, error) {
	var record T
	entity := entityName(reflect.TypeOf(record))

	fields, err := decodeObject(raw)
	if err != nil {
		return record, &ValidationError{Entity: entity, Fields: []FieldError{{Field: "body", Message: err.Error()}}}
	}

	var problems []FieldError
	rv := reflect.ValueOf(&record).Elem()
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		name := jsonName(sf)
		if name == "" {
			continue
		}
		rule := parseRule(sf.Tag.Get("schema"))

		value, ok := fields[name]
		if !ok {
			switch {
			case rule.required:
				problems = append(problems, FieldError{Field: name, Message: msgRequired})
			case rule.hasDefault:
				rv.Field(i).SetString(rule.defaultValue)
			}
			continue
		}
		// required and defaulted fields are not optional: an explicit null is missing.
		if (rule.required || rule.hasDefault) && isNull(value) {
			problems = append(problems, FieldError{Field: name, Message: msgRequired})
			continue
		}
		if err := decodeField(value, rv.Field(i)); err != nil {
			problems = append(problems, FieldError{Field: name, Message: err.Error()})
		}
	}

	if err := instance().Struct(&record); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return record, fmt.Errorf("validate %s: %w", entity, err)
		}
		for _, fe := range verrs {
			if hasField(problems, fe.Field()) {
				continue
			}
			problems = append(problems, FieldError{Field: fe.Field(), Message: describe(fe)})
		}
	}

	if len(problems) > 0 {
		return record, &ValidationError{Entity: entity, Fields: problems}
	}
	return record, nil
}

// ValidateRawMaterial and the wrappers below bind Validate to each record type.
func ValidateRawMaterial(raw []byte) (models.RawMaterial, error) {
	return Validate[models.RawMaterial](raw)
}

func ValidateInward(raw []byte) (models.Inward, error) { return Validate[models.Inward](raw) }

func ValidateProduction(raw []byte) (models.Production, error) {
	return Validate[models.Production](raw)
}

func ValidateSale(raw []byte) (models.Sale, error) { return Validate[models.Sale](raw) }

func ValidateExpense(raw []byte) (models.Expense, error) { return Validate[models.Expense](raw) }

func decodeObject(raw []byte) (map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.New("request body is required")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil || fields == nil {
		return nil, errors.New("request body must be a JSON object")
	}
	return fields, nil
}

// decodeField unmarshals one JSON value into target, additionally accepting
// numeric strings for float fields.
func decodeField(value json.RawMessage, target reflect.Value) error {
	ptr := target.Addr().Interface()
	err := json.Unmarshal(value, ptr)
	if err == nil {
		return nil
	}

	if isFloat(target.Type()) {
		var s string
		if json.Unmarshal(value, &s) == nil {
			f, perr := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if perr == nil {
				if math.IsNaN(f) || math.IsInf(f, 0) {
					return errors.New("must be a finite number")
				}
				setFloat(target, f)
				return nil
			}
		}
		return errors.New("must be a number")
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Errorf("must be a %s", kindName(target.Type()))
	}
	return err
}

func isFloat(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Float64
}

func setFloat(target reflect.Value, f float64) {
	if target.Kind() == reflect.Pointer {
		target.Set(reflect.New(target.Type().Elem()))
		target.Elem().SetFloat(f)
		return
	}
	target.SetFloat(f)
}

func kindName(t reflect.Type) string {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Float32, reflect.Float64, reflect.Int, reflect.Int64:
		return "number"
	default:
		return strings.ToLower(t.Name())
	}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return msgRequired
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	default:
		return "failed " + fe.Tag() + " check"
	}
}

// fieldRule is the parsed `schema` struct tag: "required" means the key must be
// present and non-null, "default=x" fills a string field when the key is absent.
type fieldRule struct {
	required     bool
	hasDefault   bool
	defaultValue string
}

func parseRule(tag string) fieldRule {
	var rule fieldRule
	for _, opt := range strings.Split(tag, ",") {
		switch {
		case opt == "required":
			rule.required = true
		case strings.HasPrefix(opt, "default="):
			rule.hasDefault = true
			rule.defaultValue = strings.TrimPrefix(opt, "default=")
		}
	}
	return rule
}

func isNull(value json.RawMessage) bool {
	return string(bytes.TrimSpace(value)) == "null"
}

func hasField(problems []FieldError, field string) bool {
	for _, p := range problems {
		if p.Field == field {
			return true
		}
	}
	return false
}

func jsonName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}

func entityName(t reflect.Type) string {
	return strings.ToLower(t.Name())
}
