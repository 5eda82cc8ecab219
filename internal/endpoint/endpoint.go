// Package endpoint models the canonical (type, id, subtype) address of a
// resource or collection in the comics-catalog API.
package endpoint

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

var (
	// ErrInvalidEndpoint is returned when a candidate is not a well-formed endpoint
	ErrInvalidEndpoint = errors.New("invalid endpoint")

	// ErrInvalidURI is returned when a resource or collection URI cannot be parsed
	ErrInvalidURI = errors.New("invalid uri")
)

// publicPrefix marks the start of the endpoint path inside every API URI.
const publicPrefix = "/public/"

// Type is a resource category of the API.
type Type string

const (
	Comics     Type = "comics"
	Characters Type = "characters"
	Creators   Type = "creators"
	Events     Type = "events"
	Series     Type = "series"
	Stories    Type = "stories"
)

// Types lists every recognized resource category in a stable order.
var Types = []Type{Comics, Characters, Creators, Events, Series, Stories}

// Valid reports whether t is a recognized resource category.
func (t Type) Valid() bool {
	switch t {
	case Comics, Characters, Creators, Events, Series, Stories:
		return true
	}
	return false
}

// ParseType converts s to a Type.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown type %q", ErrInvalidEndpoint, s)
	}
	return t, nil
}

// Endpoint is an immutable (type, id?, subtype?) triple. The zero value is
// not a valid endpoint; use the constructors.
type Endpoint struct {
	typ   Type
	id    int
	hasID bool
	sub   Type
}

// New returns the collection endpoint for t.
func New(t Type) (Endpoint, error) {
	return Parse([]any{t})
}

// Resource returns the endpoint of one item of type t.
func Resource(t Type, id int) (Endpoint, error) {
	return Parse([]any{t, id})
}

// Related returns the endpoint of the sub collection related to one item.
func Related(t Type, id int, sub Type) (Endpoint, error) {
	return Parse([]any{t, id, sub})
}

// Validate checks that candidate is a 1 to 3 element endpoint: a known
// type, an optional non-negative integer id, and an optional known subtype
// different from the type.
func Validate(candidate []any) error {
	_, err := Parse(candidate)
	return err
}

// Parse validates candidate and builds the Endpoint it describes.
func Parse(candidate []any) (Endpoint, error) {
	if len(candidate) < 1 || len(candidate) > 3 {
		return Endpoint{}, fmt.Errorf("%w: expected 1 to 3 elements, got %d", ErrInvalidEndpoint, len(candidate))
	}

	var ep Endpoint
	typ, ok := asType(candidate[0])
	if !ok {
		return Endpoint{}, fmt.Errorf("%w: element 1 (%v) is not a recognized type", ErrInvalidEndpoint, candidate[0])
	}
	ep.typ = typ

	if len(candidate) >= 2 {
		id, ok := asID(candidate[1])
		if !ok {
			return Endpoint{}, fmt.Errorf("%w: element 2 (%v) is not a non-negative integer", ErrInvalidEndpoint, candidate[1])
		}
		ep.id = id
		ep.hasID = true
	}

	if len(candidate) == 3 {
		sub, ok := asType(candidate[2])
		if !ok {
			return Endpoint{}, fmt.Errorf("%w: element 3 (%v) is not a recognized type", ErrInvalidEndpoint, candidate[2])
		}
		if sub == typ {
			return Endpoint{}, fmt.Errorf("%w: %s cannot be related to itself", ErrInvalidEndpoint, typ)
		}
		ep.sub = sub
	}

	return ep, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level fixtures.
func MustParse(candidate ...any) Endpoint {
	ep, err := Parse(candidate)
	if err != nil {
		panic(err)
	}
	return ep
}

// ParsePath parses the slash separated form "comics/5/characters".
func ParsePath(path string) (Endpoint, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return Endpoint{}, fmt.Errorf("%w: empty path", ErrInvalidEndpoint)
	}
	return Parse(coerce(strings.Split(path, "/")))
}

// FromURI extracts the endpoint from an absolute API URI such as
// "http://gateway.example.com/v1/public/comics/5/characters".
func FromURI(uri string) (Endpoint, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return Endpoint{}, fmt.Errorf("%w: %q: %v", ErrInvalidURI, uri, err)
	}

	idx := strings.Index(u.Path, publicPrefix)
	if idx < 0 {
		return Endpoint{}, fmt.Errorf("%w: %q has no %s prefix", ErrInvalidURI, uri, publicPrefix)
	}

	rest := strings.Trim(u.Path[idx+len(publicPrefix):], "/")
	if rest == "" {
		return Endpoint{}, fmt.Errorf("%w: %q has an empty path", ErrInvalidURI, uri)
	}

	ep, err := Parse(coerce(strings.Split(rest, "/")))
	if err != nil {
		return Endpoint{}, fmt.Errorf("%w: %q: %w", ErrInvalidURI, uri, err)
	}
	return ep, nil
}

// coerce converts the id segment of a split path to an int when it is numeric.
func coerce(segments []string) []any {
	parts := make([]any, len(segments))
	for i, s := range segments {
		parts[i] = s
	}
	if len(parts) >= 2 {
		if id, err := strconv.Atoi(segments[1]); err == nil {
			parts[1] = id
		}
	}
	return parts
}

func asType(v any) (Type, bool) {
	var t Type
	switch x := v.(type) {
	case Type:
		t = x
	case string:
		t = Type(x)
	default:
		return "", false
	}
	return t, t.Valid()
}

func asID(v any) (int, bool) {
	var id int
	switch x := v.(type) {
	case int:
		id = x
	case int32:
		id = int(x)
	case int64:
		id = int(x)
	case uint:
		id = int(x)
	case float64:
		if x != float64(int(x)) {
			return 0, false
		}
		id = int(x)
	default:
		return 0, false
	}
	return id, id >= 0
}

// Type returns the primary type of the endpoint.
func (e Endpoint) Type() Type { return e.typ }

// ID returns the item id and whether the endpoint carries one.
func (e Endpoint) ID() (int, bool) { return e.id, e.hasID }

// Subtype returns the related type and whether the endpoint carries one.
func (e Endpoint) Subtype() (Type, bool) { return e.sub, e.sub != "" }

// Len returns the number of elements (1, 2 or 3), or 0 for the zero value.
func (e Endpoint) Len() int {
	switch {
	case e.typ == "":
		return 0
	case e.sub != "":
		return 3
	case e.hasID:
		return 2
	default:
		return 1
	}
}

// IsZero reports whether e is the zero Endpoint.
func (e Endpoint) IsZero() bool { return e.typ == "" }

// TypeOf returns the kind of thing the endpoint yields: the subtype when
// present, otherwise the type.
func (e Endpoint) TypeOf() Type {
	if e.sub != "" {
		return e.sub
	}
	return e.typ
}

// Extend turns a single-item endpoint into the endpoint of its related sub
// collection.
func (e Endpoint) Extend(sub Type) (Endpoint, error) {
	if e.Len() != 2 {
		return Endpoint{}, fmt.Errorf("%w: cannot extend %q, only single resource endpoints can be extended", ErrInvalidEndpoint, e.Path())
	}
	return Related(e.typ, e.id, sub)
}

// Parts returns the endpoint as its path segments.
func (e Endpoint) Parts() []string {
	parts := make([]string, 0, 3)
	if e.typ == "" {
		return parts
	}
	parts = append(parts, string(e.typ))
	if e.hasID {
		parts = append(parts, strconv.Itoa(e.id))
	}
	if e.sub != "" {
		parts = append(parts, string(e.sub))
	}
	return parts
}

// Path joins the segments with "/".
func (e Endpoint) Path() string {
	return strings.Join(e.Parts(), "/")
}

// String implements fmt.Stringer.
func (e Endpoint) String() string {
	return e.Path()
}

// Compare orders endpoints by type, then id, then subtype. Endpoints without
// an id sort before those with one.
func Compare(a, b Endpoint) int {
	if c := strings.Compare(string(a.typ), string(b.typ)); c != 0 {
		return c
	}
	if a.hasID != b.hasID {
		if !a.hasID {
			return -1
		}
		return 1
	}
	if a.id != b.id {
		if a.id < b.id {
			return -1
		}
		return 1
	}
	return strings.Compare(string(a.sub), string(b.sub))
}
