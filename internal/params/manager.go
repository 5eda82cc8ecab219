package params

import (
	"fmt"

	"github.com/conduit-lang/marvelous/internal/config"
	"github.com/conduit-lang/marvelous/internal/endpoint"
)

// Built-in defaults, lowest precedence.
const (
	DefaultOffset = 0
	DefaultLimit  = 50
)

// Defaults returns the built-in parameters applied to every query.
func Defaults() Values {
	return Values{"offset": DefaultOffset, "limit": DefaultLimit}
}

// Manager merges default, global and call-specific parameters and validates
// them against the schema of the endpoint's resolved type.
type Manager struct {
	omitNil  bool
	validate bool
	schemas  Registry
	all      Values
	perType  map[endpoint.Type]Values
}

// NewManager builds a Manager from cfg.Params. The global parameter blocks
// are validated here, once, so a misconfiguration surfaces at startup rather
// than on the first query. A nil registry selects DefaultRegistry.
func NewManager(cfg *config.Config, schemas Registry) (*Manager, error) {
	if schemas == nil {
		schemas = DefaultRegistry()
	}
	m := &Manager{
		omitNil:  cfg.Params.OmitNil,
		validate: cfg.Params.Validate,
		schemas:  schemas,
		all:      Values{},
		perType:  make(map[endpoint.Type]Values),
	}

	for name, raw := range cfg.Params.Global {
		block := Values(raw)
		if m.omitNil {
			block = dropNil(block)
		}

		if name == config.AllTypes {
			for _, t := range endpoint.Types {
				checked, err := m.check(t, block)
				if err != nil {
					return nil, fmt.Errorf("params.global.%s: %w", name, err)
				}
				m.all = checked
			}
			continue
		}

		t, err := endpoint.ParseType(name)
		if err != nil {
			return nil, fmt.Errorf("params.global.%s: %w", name, err)
		}
		checked, err := m.check(t, block)
		if err != nil {
			return nil, fmt.Errorf("params.global.%s: %w", name, err)
		}
		m.perType[t] = checked
	}

	return m, nil
}

// Resolve returns the parameters for a query against ep: call params are
// cleaned and validated, then merged over defaults, global all-types and
// global per-type params. Later layers win on key collision.
func (m *Manager) Resolve(ep endpoint.Endpoint, call Values) (Values, error) {
	cleaned := call.Clone()
	if m.omitNil {
		cleaned = dropNil(cleaned)
	}

	t := ep.TypeOf()
	checked, err := m.check(t, cleaned)
	if err != nil {
		return nil, err
	}

	merged := Defaults()
	merged.Merge(m.all)
	merged.Merge(m.perType[t])
	merged.Merge(checked)
	return merged, nil
}

// Global returns a copy of the validated global parameters for t, all-types
// block first.
func (m *Manager) Global(t endpoint.Type) Values {
	return m.all.Clone().Merge(m.perType[t])
}

// check canonicalizes key spelling and, when validation is enabled, runs the
// schema registered for t.
func (m *Manager) check(t endpoint.Type, v Values) (Values, error) {
	s, ok := m.schemas[t]
	if !ok {
		return v.Clone(), nil
	}

	out := v
	if c, ok := s.(Canonicalizer); ok {
		out = make(Values, len(v))
		for k, val := range v {
			if canonical, found := c.Canonical(k); found {
				k = canonical
			}
			out[k] = val
		}
	}

	if !m.validate {
		return out, nil
	}
	return s.Parse(out)
}

func dropNil(v Values) Values {
	out := make(Values, len(v))
	for k, val := range v {
		if val != nil {
			out[k] = val
		}
	}
	return out
}
