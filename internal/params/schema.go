package params

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"

	"github.com/conduit-lang/marvelous/internal/endpoint"
)

var (
	validate      = validator.New()
	schemaDecoder = schema.NewDecoder()
)

func init() {
	// Unknown keys are reported by structSchema before decoding.
	schemaDecoder.IgnoreUnknownKeys(true)
	schemaDecoder.RegisterConverter(time.Time{}, convertTime)

	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("schema"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if err := validate.RegisterValidation("comicformat", validComicFormat); err != nil {
		panic(err)
	}
}

// Schema validates the parameters accepted by one resource type.
type Schema interface {
	// Parse returns the validated parameters or an error naming every
	// offending field.
	Parse(v Values) (Values, error)
}

// Canonicalizer is implemented by schemas that can map a parameter name of
// any case to its canonical spelling.
type Canonicalizer interface {
	Canonical(name string) (string, bool)
}

// Lister is implemented by schemas that can enumerate the parameters they
// accept.
type Lister interface {
	Names() []string
}

// Registry maps each resource type to its parameter schema.
type Registry map[endpoint.Type]Schema

// DefaultRegistry returns the schemas of the six catalog resource types.
func DefaultRegistry() Registry {
	return Registry{
		endpoint.Comics:     NewStructSchema[ComicParams](endpoint.Comics),
		endpoint.Characters: NewStructSchema[CharacterParams](endpoint.Characters),
		endpoint.Creators:   NewStructSchema[CreatorParams](endpoint.Creators),
		endpoint.Events:     NewStructSchema[EventParams](endpoint.Events),
		endpoint.Series:     NewStructSchema[SeriesParams](endpoint.Series),
		endpoint.Stories:    NewStructSchema[StoryParams](endpoint.Stories),
	}
}

// StructSchema validates Values by decoding them into T with gorilla/schema
// and checking T's validate tags.
type StructSchema[T any] struct {
	typ    endpoint.Type
	fields map[string]string // lower-case name -> canonical name
}

// NewStructSchema builds a schema from the schema tags of T.
func NewStructSchema[T any](t endpoint.Type) *StructSchema[T] {
	var zero T
	fields := make(map[string]string)
	collectFields(reflect.TypeOf(zero), fields)
	return &StructSchema[T]{typ: t, fields: fields}
}

// Canonical maps name to the spelling used by T.
func (s *StructSchema[T]) Canonical(name string) (string, bool) {
	canonical, ok := s.fields[strings.ToLower(name)]
	return canonical, ok
}

// Names returns the canonical parameter names of T, sorted.
func (s *StructSchema[T]) Names() []string {
	names := make([]string, 0, len(s.fields))
	for _, name := range s.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Parse implements Schema.
func (s *StructSchema[T]) Parse(v Values) (Values, error) {
	verr := NewValidationError(s.typ)
	out := make(Values, len(v))
	form := url.Values{}

	for key, val := range v {
		name, ok := s.Canonical(key)
		if !ok {
			verr.Add(key, "unknown parameter")
			continue
		}
		out[name] = val
		if val != nil {
			form[name] = formValues(val)
		}
	}

	var target T
	if err := schemaDecoder.Decode(&target, form); err != nil {
		var multi schema.MultiError
		if errors.As(err, &multi) {
			for key, e := range multi {
				verr.Add(key, conversionMessage(e))
			}
		} else {
			verr.Add("*", err.Error())
		}
	}

	if err := validate.Struct(target); err != nil {
		var valErrs validator.ValidationErrors
		if errors.As(err, &valErrs) {
			for _, ve := range valErrs {
				field, _, _ := strings.Cut(ve.Field(), "[")
				// conversion failures already explain the field
				if _, seen := verr.Fields[field]; !seen {
					verr.Add(field, formatValidationError(ve))
				}
			}
		} else {
			verr.Add("*", err.Error())
		}
	}

	if verr.HasErrors() {
		return nil, verr
	}
	return out, nil
}

func collectFields(t reflect.Type, fields map[string]string) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			collectFields(f.Type, fields)
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("schema"), ",")
		if name == "" || name == "-" {
			continue
		}
		fields[strings.ToLower(name)] = name
	}
}

func convertTime(s string) reflect.Value {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return reflect.ValueOf(t)
		}
	}
	return reflect.Value{}
}

func conversionMessage(err error) string {
	var conv schema.ConversionError
	if errors.As(err, &conv) && conv.Type != nil {
		return fmt.Sprintf("must be a valid %s", conv.Type)
	}
	return err.Error()
}

// formatValidationError converts a validator.FieldError to a human-readable message.
func formatValidationError(ve validator.FieldError) string {
	switch ve.Tag() {
	case "min":
		return fmt.Sprintf("must be at least %s", ve.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", ve.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", ve.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", ve.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", ve.Param())
	case "comicformat":
		return fmt.Sprintf("must be one of: %s", strings.Join(comicFormats, ", "))
	default:
		if ve.Param() != "" {
			return fmt.Sprintf("failed %s=%s validation", ve.Tag(), ve.Param())
		}
		return fmt.Sprintf("failed %s validation", ve.Tag())
	}
}

var comicFormats = []string{
	"comic", "magazine", "trade paperback", "hardcover", "digest",
	"graphic novel", "digital comic", "infinite comic",
}

func validComicFormat(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	for _, f := range comicFormats {
		if value == f {
			return true
		}
	}
	return false
}
