package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// PropertyKind tags which alternative of PropertyValue is populated.
type PropertyKind int

const (
	KindNull PropertyKind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindArray
)

// PropertyValue is the recursive sum type backing every node and edge
// property: a string, a 64-bit integer, a 64-bit float, a boolean, an
// ordered array of property values, or null.
//
// JSON round-trips int vs float by inspecting the literal: a JSON number
// with no fractional part or exponent decodes as KindInt, otherwise
// KindFloat. This preserves the distinction spec round-trip tests rely on
// without a custom wire format.
type PropertyValue struct {
	kind PropertyKind
	str  string
	i    int64
	f    float64
	b    bool
	arr  []PropertyValue
}

func NullValue() PropertyValue  { return PropertyValue{kind: KindNull} }
func StringValue(s string) PropertyValue { return PropertyValue{kind: KindString, str: s} }
func IntValue(i int64) PropertyValue     { return PropertyValue{kind: KindInt, i: i} }
func FloatValue(f float64) PropertyValue { return PropertyValue{kind: KindFloat, f: f} }
func BoolValue(b bool) PropertyValue     { return PropertyValue{kind: KindBool, b: b} }
func ArrayValue(vs ...PropertyValue) PropertyValue {
	return PropertyValue{kind: KindArray, arr: vs}
}

func (v PropertyValue) Kind() PropertyKind { return v.kind }
func (v PropertyValue) IsNull() bool       { return v.kind == KindNull }

// String returns the string alternative and whether v held one.
func (v PropertyValue) String() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

func (v PropertyValue) Int() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.i, true
}

func (v PropertyValue) Float() (float64, bool) {
	if v.kind != KindFloat {
		return 0, false
	}
	return v.f, true
}

func (v PropertyValue) Bool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

func (v PropertyValue) Array() ([]PropertyValue, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return v.arr, true
}

// Equal compares two property values by value, recursing into arrays.
func (v PropertyValue) Equal(o PropertyValue) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.str == o.str
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindBool:
		return v.b == o.b
	case KindArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func (v PropertyValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(v.str)
	case KindInt:
		return []byte(strconv.FormatInt(v.i, 10)), nil
	case KindFloat:
		return json.Marshal(v.f)
	case KindBool:
		return json.Marshal(v.b)
	case KindArray:
		return json.Marshal(v.arr)
	default:
		return nil, fmt.Errorf("graph: unknown property kind %d", v.kind)
	}
}

func (v *PropertyValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = NullValue()
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	pv, err := fromAny(raw)
	if err != nil {
		return err
	}
	*v = pv
	return nil
}

func fromAny(raw any) (PropertyValue, error) {
	switch t := raw.(type) {
	case nil:
		return NullValue(), nil
	case string:
		return StringValue(t), nil
	case bool:
		return BoolValue(t), nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return IntValue(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return PropertyValue{}, err
		}
		return FloatValue(f), nil
	case []any:
		out := make([]PropertyValue, len(t))
		for i, e := range t {
			pv, err := fromAny(e)
			if err != nil {
				return PropertyValue{}, err
			}
			out[i] = pv
		}
		return ArrayValue(out...), nil
	default:
		return PropertyValue{}, fmt.Errorf("graph: unsupported property literal %T", raw)
	}
}

// Properties is an ordered-insertion-courtesy map of property values.
// Iteration order of a Go map is not guaranteed; callers must not rely on
// it, per spec.
type Properties map[string]PropertyValue

// Clone returns a shallow copy sufficient for upsert semantics (arrays are
// themselves immutable value types once constructed).
func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Merge overlays src onto a clone of p, src winning on key collision.
func (p Properties) Merge(src Properties) Properties {
	out := p.Clone()
	if out == nil {
		out = make(Properties, len(src))
	}
	for k, v := range src {
		out[k] = v
	}
	return out
}
