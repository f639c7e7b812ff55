package core

import (
	"fmt"
	"math"
	"strconv"
)

// Epsilon is the tolerance used when comparing floats in predicates and
// sort keys. Value equality itself is exact.
const Epsilon = 1e-6

// Value is a tagged union over the three column types. Only the payload
// matching Type is meaningful; the others stay zero so that Value is
// usable as a map key with exact equality.
type Value struct {
	Type  FieldType
	Int   int64
	Float float64
	Str   string
}

// IntValue returns an INT value.
func IntValue(v int64) Value { return Value{Type: TypeInt, Int: v} }

// FloatValue returns a FLOAT value.
func FloatValue(v float64) Value { return Value{Type: TypeFloat, Float: v} }

// StringValue returns a STRING value.
func StringValue(v string) Value { return Value{Type: TypeString, Str: v} }

// Equal reports exact payload equality.
func (v Value) Equal(o Value) bool { return v == o }

// AsFloat returns the numeric payload as float64. ok is false for strings.
func (v Value) AsFloat() (float64, bool) {
	switch v.Type {
	case TypeInt:
		return float64(v.Int), true
	case TypeFloat:
		return v.Float, true
	default:
		return 0, false
	}
}

// Any returns the payload as an untyped Go value.
func (v Value) Any() any {
	switch v.Type {
	case TypeInt:
		return v.Int
	case TypeFloat:
		return v.Float
	default:
		return v.Str
	}
}

// String formats the payload without quoting.
func (v Value) String() string {
	switch v.Type {
	case TypeInt:
		return strconv.FormatInt(v.Int, 10)
	case TypeFloat:
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	case TypeString:
		return v.Str
	default:
		return fmt.Sprintf("<%s>", v.Type)
	}
}

// Literal formats the value as it would be written in SQL.
func (v Value) Literal() string {
	if v.Type == TypeString {
		return strconv.Quote(v.Str)
	}
	if v.Type == TypeFloat && v.Float == math.Trunc(v.Float) && !math.IsInf(v.Float, 0) {
		return strconv.FormatFloat(v.Float, 'f', 1, 64)
	}
	return v.String()
}

// Coerce converts v to the column type t following the INSERT rule:
// INT widens to FLOAT, FLOAT truncates to INT, anything else must match.
func Coerce(v Value, t FieldType) (Value, bool) {
	switch {
	case v.Type == t:
		return v, true
	case v.Type == TypeInt && t == TypeFloat:
		return FloatValue(float64(v.Int)), true
	case v.Type == TypeFloat && t == TypeInt:
		return IntValue(int64(v.Float)), true
	default:
		return Value{}, false
	}
}

// Compare orders two values of compatible types. Numbers compare as
// float64 with Epsilon equality, strings lexicographically. ok is false
// when one side is a string and the other is not.
func Compare(a, b Value) (int, bool) {
	if a.Type == TypeString || b.Type == TypeString {
		if a.Type != b.Type {
			return 0, false
		}
		switch {
		case a.Str < b.Str:
			return -1, true
		case a.Str > b.Str:
			return 1, true
		default:
			return 0, true
		}
	}
	x, _ := a.AsFloat()
	y, _ := b.AsFloat()
	switch {
	case math.Abs(x-y) < Epsilon:
		return 0, true
	case x < y:
		return -1, true
	default:
		return 1, true
	}
}
