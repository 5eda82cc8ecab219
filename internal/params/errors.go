package params

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/conduit-lang/marvelous/internal/endpoint"
)

// ErrParameterValidation is matched by every *ValidationError
var ErrParameterValidation = errors.New("parameter validation failed")

// ValidationError lists the offending parameters of one validation pass
type ValidationError struct {
	Type   endpoint.Type
	Fields map[string][]string
}

// NewValidationError creates an empty ValidationError for t
func NewValidationError(t endpoint.Type) *ValidationError {
	return &ValidationError{
		Type:   t,
		Fields: make(map[string][]string),
	}
}

// Add records a message for field
func (ve *ValidationError) Add(field, message string) {
	if ve.Fields == nil {
		ve.Fields = make(map[string][]string)
	}
	ve.Fields[field] = append(ve.Fields[field], message)
}

// HasErrors returns true if any field failed
func (ve *ValidationError) HasErrors() bool {
	return len(ve.Fields) > 0
}

// FieldNames returns the offending parameter names, sorted
func (ve *ValidationError) FieldNames() []string {
	names := make([]string, 0, len(ve.Fields))
	for name := range ve.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Error implements the error interface
func (ve *ValidationError) Error() string {
	var messages []string
	for _, field := range ve.FieldNames() {
		for _, msg := range ve.Fields[field] {
			messages = append(messages, fmt.Sprintf("%s: %s", field, msg))
		}
	}
	if len(messages) == 0 {
		return fmt.Sprintf("invalid %s parameters", ve.Type)
	}
	return fmt.Sprintf("invalid %s parameters: %s", ve.Type, strings.Join(messages, "; "))
}

// Is makes errors.Is(err, ErrParameterValidation) hold
func (ve *ValidationError) Is(target error) bool {
	return target == ErrParameterValidation
}
