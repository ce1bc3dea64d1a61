/*
PURPOSE:
  Form decoder: turns raw submitted strings into typed parameter values and
  overlays them on a ParameterSet.

REQUIREMENTS:
  User-specified:
  - "True"/"False" become booleans.
  - Numeric-looking values become float (with '.' or exponent) or int.
  - Empty or missing fields keep their default.

  Implementation-discovered:
  - The numeric shape test is permissive: one '.', one '-', one '+', one 'e'
    and one 'E' are stripped before the digit check, so "1-2" or "5e" pass the
    shape test and then fall back to String when parsing fails.
  - Only ASCII digits count as digits.

ARCHITECTURE INTEGRATION:
  - Called by: internal/web, internal/cli (compute --set)

ERROR HANDLING:
  - Decoding never fails: every coercion failure yields a String value.
  - DecodeAssignments rejects malformed pairs and unknown keys.

RELATED FILES:
  - internal/model/value.go
*/

package params

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/daryltucker/wst-etc/internal/model"
)

var (
	// ErrMalformedAssignment is returned for a --set value without '='.
	ErrMalformedAssignment = errors.New("malformed parameter assignment")
	// ErrUnknownParameter is returned for a --set key outside the registry.
	ErrUnknownParameter = errors.New("unknown parameter")
)

// ParseValue coerces one submitted string into a tagged value.
func ParseValue(raw string) model.Value {
	switch raw {
	case "True":
		return model.BoolValue(true)
	case "False":
		return model.BoolValue(false)
	}
	if !looksNumeric(raw) {
		return model.StringValue(raw)
	}
	if strings.Contains(raw, ".") || strings.ContainsAny(raw, "eE") {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return model.FloatValue(v)
		}
		return model.StringValue(raw)
	}
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return model.IntValue(v)
	}
	return model.StringValue(raw)
}

func looksNumeric(raw string) bool {
	stripped := raw
	for _, mark := range []string{".", "-", "e", "E", "+"} {
		stripped = strings.Replace(stripped, mark, "", 1)
	}
	if stripped == "" {
		return false
	}
	for _, r := range stripped {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Decode overlays every recognized, non-empty form field onto a copy of base.
// Only the first submitted value of a key is used.
func Decode(form map[string][]string, base model.ParameterSet) model.ParameterSet {
	out := base.Clone()
	for _, key := range Keys() {
		vals := form[key]
		if len(vals) == 0 || vals[0] == "" {
			continue
		}
		out[key] = ParseValue(vals[0])
	}
	return out
}

// DecodeAssignments parses KEY=VALUE pairs (as given to `compute --set`) into
// a form-shaped map. Pairs without '=' and unknown keys are reported together.
func DecodeAssignments(pairs []string) (map[string][]string, error) {
	form := make(map[string][]string, len(pairs))
	var errs []error
	for _, p := range pairs {
		key, val, ok := strings.Cut(p, "=")
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %q (expected KEY=VALUE)", ErrMalformedAssignment, p))
			continue
		}
		key = strings.TrimSpace(key)
		if !IsKey(key) {
			errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownParameter, key))
			continue
		}
		form[key] = []string{strings.TrimSpace(val)}
	}
	return form, errors.Join(errs...)
}
