package commands

import (
	"errors"
	"strconv"
	"strings"

	"github.com/conduit-lang/marvelous/internal/cli/ui"
	"github.com/conduit-lang/marvelous/internal/endpoint"
	"github.com/conduit-lang/marvelous/internal/params"
	"github.com/conduit-lang/marvelous/internal/query"
)

// configError marks failures to build the configuration, logger or client
type configError struct {
	err error
}

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

// pathError keeps the path argument that failed to parse
type pathError struct {
	path string
	err  error
}

func (e *pathError) Error() string { return e.err.Error() }
func (e *pathError) Unwrap() error { return e.err }

func parseEndpoint(path string) (endpoint.Endpoint, error) {
	ep, err := endpoint.ParsePath(path)
	if err != nil {
		return endpoint.Endpoint{}, &pathError{path: path, err: err}
	}
	return ep, nil
}

// describeError renders err for the terminal
func describeError(err error, noColor bool) string {
	var (
		cfgErr  *configError
		pathErr *pathError
		verr    *params.ValidationError
	)

	switch {
	case errors.As(err, &cfgErr):
		return ui.ConfigError(cfgErr.Error(), noColor)
	case errors.As(err, &verr):
		return ui.ParameterError(string(verr.Type), verr.Fields, verr.FieldNames(), parameterSuggestions(verr), noColor)
	case errors.As(err, &pathErr):
		return ui.EndpointError(pathErr.path, pathErr.Error(), typeSuggestions(pathErr.path), noColor)
	case errors.Is(err, endpoint.ErrInvalidEndpoint), errors.Is(err, endpoint.ErrInvalidURI):
		return ui.EndpointError("", err.Error(), nil, noColor)
	case errors.Is(err, query.ErrRequestFailed):
		return ui.RequestError(err.Error(), noColor)
	case errors.Is(err, query.ErrEmptyResult):
		return ui.FormatError(ui.ErrorOptions{
			Context: "NOT FOUND",
			Problem: err.Error(),
			NoColor: noColor,
		})
	default:
		return ui.FormatError(ui.ErrorOptions{Problem: err.Error(), NoColor: noColor})
	}
}

// typeSuggestions proposes type names for the first path segment that is
// neither an id nor a known type.
func typeSuggestions(path string) []string {
	names := make([]string, len(endpoint.Types))
	for i, t := range endpoint.Types {
		names[i] = string(t)
	}

	for _, seg := range strings.Split(strings.Trim(path, "/"), "/") {
		if _, err := strconv.Atoi(seg); err == nil {
			continue
		}
		if endpoint.Type(seg).Valid() {
			continue
		}
		return ui.FindSimilar(seg, names, 3)
	}
	return nil
}

// parameterSuggestions proposes canonical names for unknown parameters
func parameterSuggestions(verr *params.ValidationError) []string {
	lister, ok := params.DefaultRegistry()[verr.Type].(params.Lister)
	if !ok {
		return nil
	}

	var out []string
	seen := make(map[string]bool)
	for _, field := range verr.FieldNames() {
		unknown := false
		for _, msg := range verr.Fields[field] {
			if msg == "unknown parameter" {
				unknown = true
			}
		}
		if !unknown {
			continue
		}
		for _, s := range ui.FindSimilar(field, lister.Names(), 2) {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}
