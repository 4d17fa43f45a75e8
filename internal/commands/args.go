package commands

import (
	"encoding/json"
	"fmt"
	"math"
)

// Args is the decoded "args" object of a request.
type Args map[string]any

// ArgError reports an argument with the wrong type or value.
type ArgError struct {
	Name   string
	Reason string
}

func (e *ArgError) Error() string {
	return fmt.Sprintf("invalid argument %q: %s", e.Name, e.Reason)
}

// String returns the string argument key, or def when it is absent or null.
func (a Args) String(key, def string) (string, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", &ArgError{Name: key, Reason: "must be a string"}
	}
	return s, nil
}

// RequireString returns a non-empty string argument. missing is returned
// verbatim when the argument is absent or empty.
func (a Args) RequireString(key, missing string) (string, error) {
	s, err := a.String(key, "")
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", fmt.Errorf("%s", missing)
	}
	return s, nil
}

// Int returns the integral argument key, or def when it is absent or null.
func (a Args) Int(key string, def int) (int, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || n > math.MaxInt32 || n < math.MinInt32 {
			return 0, &ArgError{Name: key, Reason: "must be an integer"}
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil || i > math.MaxInt32 || i < math.MinInt32 {
			return 0, &ArgError{Name: key, Reason: "must be an integer"}
		}
		return int(i), nil
	default:
		return 0, &ArgError{Name: key, Reason: "must be an integer"}
	}
}
