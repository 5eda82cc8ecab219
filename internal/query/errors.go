package query

import (
	"errors"
	"fmt"

	"github.com/conduit-lang/marvelous/internal/endpoint"
)

var (
	// ErrRequestFailed wraps every transport failure surfaced by Fetch
	ErrRequestFailed = errors.New("request failed")

	// ErrEmptyResult is returned by FetchSingle when the page has no items
	ErrEmptyResult = errors.New("empty result")

	// ErrEndpointMismatch is matched by every *MismatchError
	ErrEndpointMismatch = errors.New("endpoint mismatch")

	// ErrNotExtended is returned by navigation methods of results that were
	// not routed through discovery
	ErrNotExtended = errors.New("result was not extended by discovery")
)

// MismatchError reports a node whose URI addresses a different resource
// type than the one implied by its key
type MismatchError struct {
	Field    string
	Expected endpoint.Type
	Actual   endpoint.Endpoint
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("endpoint mismatch at %s: expected %s, uri addresses %s", e.Field, e.Expected, e.Actual)
}

// Is makes errors.Is(err, ErrEndpointMismatch) hold
func (e *MismatchError) Is(target error) bool {
	return target == ErrEndpointMismatch
}
