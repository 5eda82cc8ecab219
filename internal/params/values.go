// Package params resolves, validates and encodes query parameters.
package params

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Values is a flat parameter record. A nil value marks a parameter that was
// named but left unset.
type Values map[string]any

// Clone returns a shallow copy of v.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// Merge copies every entry of src into v, overwriting existing keys.
func (v Values) Merge(src Values) Values {
	for k, val := range src {
		v[k] = val
	}
	return v
}

// Int returns the value of key as an int.
func (v Values) Int(key string) (int, bool) {
	val, ok := v[key]
	if !ok {
		return 0, false
	}
	switch n := val.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), n == float64(int(n))
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	}
	return 0, false
}

// Keys returns the parameter names in sorted order.
func (v Values) Keys() []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Encode renders v as a query string in sorted key order. Lists are joined
// with commas, the form the API expects for multi-valued filters.
func (v Values) Encode() string {
	form := url.Values{}
	for k, val := range v {
		form.Set(k, strings.Join(formValues(val), ","))
	}
	return form.Encode()
}

// formValues renders a single parameter value as one or more strings.
func formValues(val any) []string {
	switch x := val.(type) {
	case nil:
		return []string{""}
	case string:
		return []string{x}
	case []string:
		return x
	case []int:
		out := make([]string, len(x))
		for i, n := range x {
			out[i] = strconv.Itoa(n)
		}
		return out
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			out = append(out, formValues(item)...)
		}
		return out
	}
	return []string{formatScalar(val)}
}

func formatScalar(val any) string {
	switch x := val.(type) {
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		if x == float64(int64(x)) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format(time.RFC3339)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(val)
}

// ParseAssignment parses a "key=value" pair from the command line. Values
// that are canonical integers or booleans keep that type; "0123" stays a
// string.
func ParseAssignment(s string) (string, any, error) {
	key, raw, ok := strings.Cut(s, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return "", nil, fmt.Errorf("expected key=value, got %q", s)
	}
	return key, parseValue(raw), nil
}

// FromQuery converts a request query string to Values using the same typing
// rules as ParseAssignment. Repeated keys are joined into a list.
func FromQuery(q url.Values) Values {
	out := make(Values, len(q))
	for key, raw := range q {
		if len(raw) == 0 {
			continue
		}
		out[key] = parseValue(strings.Join(raw, ","))
	}
	return out
}

func parseValue(raw string) any {
	if i, err := strconv.Atoi(raw); err == nil && strconv.Itoa(i) == raw {
		return i
	}
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	if strings.Contains(raw, ",") {
		return strings.Split(raw, ",")
	}
	return raw
}
