/*
PURPOSE:
  Tagged parameter value used by every ParameterSet.
  A value is exactly one of Null, Bool, Int, Float or String.

REQUIREMENTS:
  User-specified:
  - Form fields become typed values (bool/int/float/string) or stay null.

  Implementation-discovered:
  - Values must round-trip through the HTML form (String() is the re-display form).
  - Values must (un)marshal as plain JSON/YAML scalars for the remote backend and presets.

ARCHITECTURE INTEGRATION:
  - Used by: internal/params, internal/etc, internal/engine, internal/output, internal/web

ERROR HANDLING:
  - Non-finite floats marshal as JSON null.

IMPLEMENTATION RULES:
  - Keep Value immutable; constructors only.

RELATED FILES:
  - internal/params/decode.go
*/

package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// Value is a closed variant over the scalar types a parameter can take.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
}

func NullValue() Value             { return Value{} }
func BoolValue(b bool) Value       { return Value{kind: KindBool, b: b} }
func IntValue(i int64) Value       { return Value{kind: KindInt, i: i} }
func FloatValue(f float64) Value   { return Value{kind: KindFloat, f: f} }
func StringValue(s string) Value   { return Value{kind: KindString, s: s} }
func (v Value) Kind() Kind         { return v.kind }
func (v Value) IsNull() bool       { return v.kind == KindNull }
func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

// Int returns the integer payload. Floats are not truncated.
func (v Value) Int() (int64, bool) { return v.i, v.kind == KindInt }

// Float returns the numeric payload of an Int or Float value.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	}
	return 0, false
}

// Str returns the payload of a String value.
func (v Value) Str() (string, bool) { return v.s, v.kind == KindString }

// Equal reports whether both values hold the same variant and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f || (math.IsNaN(v.f) && math.IsNaN(o.f))
	case KindString:
		return v.s == o.s
	}
	return true
}

// String renders the value the way it is re-displayed in the form, so that
// decoding the output yields the same variant again.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		if v.b {
			return "True"
		}
		return "False"
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		s := strconv.FormatFloat(v.f, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEIN") {
			s += ".0"
		}
		return s
	case KindString:
		return v.s
	}
	return ""
}

// FromAny converts a decoded JSON/YAML scalar into a Value.
func FromAny(x any) Value {
	switch t := x.(type) {
	case nil:
		return NullValue()
	case Value:
		return t
	case bool:
		return BoolValue(t)
	case int:
		return IntValue(int64(t))
	case int32:
		return IntValue(int64(t))
	case int64:
		return IntValue(t)
	case uint64:
		return IntValue(int64(t))
	case float32:
		return FloatValue(float64(t))
	case float64:
		return FloatValue(t)
	case json.Number:
		s := t.String()
		if !strings.ContainsAny(s, ".eE") {
			if i, err := t.Int64(); err == nil {
				return IntValue(i)
			}
		}
		if f, err := t.Float64(); err == nil {
			return FloatValue(f)
		}
		return StringValue(s)
	case string:
		return StringValue(t)
	default:
		return StringValue(fmt.Sprint(t))
	}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindBool:
		return json.Marshal(v.b)
	case KindInt:
		return json.Marshal(v.i)
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return []byte("null"), nil
		}
		return json.Marshal(v.f)
	case KindString:
		return json.Marshal(v.s)
	}
	return []byte("null"), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var x any
	if err := dec.Decode(&x); err != nil {
		return err
	}
	switch x.(type) {
	case nil, bool, json.Number, string:
	default:
		return fmt.Errorf("parameter value must be a scalar, got %s", string(data))
	}
	*v = FromAny(x)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: parameter value must be a scalar", node.Line)
	}
	var x any
	if err := node.Decode(&x); err != nil {
		return err
	}
	*v = FromAny(x)
	return nil
}
