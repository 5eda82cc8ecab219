package commands

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/conduit-lang/marvelous/internal/endpoint"
	"github.com/conduit-lang/marvelous/internal/params"
	"github.com/conduit-lang/marvelous/internal/query"
)

func TestDescribeError(t *testing.T) {
	verr := params.NewValidationError(endpoint.Comics)
	verr.Add("titleStartWith", "unknown parameter")

	tests := []struct {
		name string
		err  error
		want []string
	}{
		{
			name: "config",
			err:  &configError{err: errors.New("api.base_url must be an absolute URL")},
			want: []string{"CONFIGURATION ERROR", "marvelous init"},
		},
		{
			name: "validation",
			err:  fmt.Errorf("resolve: %w", verr),
			want: []string{"INVALID PARAMETERS", "titleStartWith: unknown parameter", "Did you mean: titleStartsWith?", "marvelous params comics"},
		},
		{
			name: "path",
			err:  &pathError{path: "charcters", err: endpoint.ErrInvalidEndpoint},
			want: []string{"INVALID ENDPOINT: CHARCTERS", "Did you mean: characters?"},
		},
		{
			name: "bare endpoint error",
			err:  fmt.Errorf("%w: zero endpoint", endpoint.ErrInvalidEndpoint),
			want: []string{"INVALID ENDPOINT", "zero endpoint"},
		},
		{
			name: "request",
			err:  fmt.Errorf("%w: comics: timeout", query.ErrRequestFailed),
			want: []string{"REQUEST FAILED", "marvelous init --force"},
		},
		{
			name: "other",
			err:  errors.New("boom"),
			want: []string{"❌ boom"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := describeError(tt.err, true)
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
		})
	}
}

func TestTypeSuggestions(t *testing.T) {
	tests := []struct {
		path string
		want []string
	}{
		{"comic", []string{"comics"}},
		{"comics/5/charcters", []string{"characters"}},
		{"comics/5/characters", nil},
		{"zzzzzzzz", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, typeSuggestions(tt.path))
		})
	}
}

func TestParseParams(t *testing.T) {
	p, err := parseParams([]string{"limit=5", "titleStartsWith=Amazing", "limit=10"})
	assert.NoError(t, err)
	assert.Equal(t, 10, p["limit"])
	assert.Equal(t, "Amazing", p["titleStartsWith"])
}
