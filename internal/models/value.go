package models

import (
	"fmt"
	"time"
)

// BaseType enumerates the QTI primitive base types supported by the
// runtime.
type BaseType string

const (
	BTIdentifier   BaseType = "identifier"
	BTBoolean      BaseType = "boolean"
	BTInteger      BaseType = "integer"
	BTFloat        BaseType = "float"
	BTString       BaseType = "string"
	BTPoint        BaseType = "point"
	BTPair         BaseType = "pair"
	BTDirectedPair BaseType = "directedPair"
	BTDuration     BaseType = "duration"
	BTURI          BaseType = "uri"
)

// Cardinality enumerates the QTI container shapes.
type Cardinality string

const (
	CardinalitySingle   Cardinality = "single"
	CardinalityMultiple Cardinality = "multiple"
	CardinalityOrdered  Cardinality = "ordered"
	CardinalityRecord   Cardinality = "record"
)

// Scalar is one typed primitive value. Exactly the fields relevant to
// BaseType are meaningful; the rest stay zero.
type Scalar struct {
	BaseType BaseType

	Boolean  bool
	Integer  int64
	Float    float64
	String   string // identifier, string and uri payloads
	PairA    string
	PairB    string
	X, Y     int32
	Duration time.Duration
}

func NewIdentifier(v string) Scalar { return Scalar{BaseType: BTIdentifier, String: v} }
func NewBoolean(v bool) Scalar      { return Scalar{BaseType: BTBoolean, Boolean: v} }
func NewInteger(v int64) Scalar     { return Scalar{BaseType: BTInteger, Integer: v} }
func NewFloat(v float64) Scalar     { return Scalar{BaseType: BTFloat, Float: v} }
func NewString(v string) Scalar     { return Scalar{BaseType: BTString, String: v} }
func NewURI(v string) Scalar        { return Scalar{BaseType: BTURI, String: v} }
func NewPoint(x, y int32) Scalar    { return Scalar{BaseType: BTPoint, X: x, Y: y} }
func NewPair(a, b string) Scalar    { return Scalar{BaseType: BTPair, PairA: a, PairB: b} }
func NewDirectedPair(a, b string) Scalar {
	return Scalar{BaseType: BTDirectedPair, PairA: a, PairB: b}
}
func NewDuration(v time.Duration) Scalar { return Scalar{BaseType: BTDuration, Duration: v} }

// Equal compares two scalars by base type and payload. Unordered pairs
// compare symmetrically.
func (s Scalar) Equal(o Scalar) bool {
	if s.BaseType != o.BaseType {
		return false
	}
	switch s.BaseType {
	case BTBoolean:
		return s.Boolean == o.Boolean
	case BTInteger:
		return s.Integer == o.Integer
	case BTFloat:
		return s.Float == o.Float
	case BTIdentifier, BTString, BTURI:
		return s.String == o.String
	case BTPoint:
		return s.X == o.X && s.Y == o.Y
	case BTPair:
		return (s.PairA == o.PairA && s.PairB == o.PairB) ||
			(s.PairA == o.PairB && s.PairB == o.PairA)
	case BTDirectedPair:
		return s.PairA == o.PairA && s.PairB == o.PairB
	case BTDuration:
		return s.Duration == o.Duration
	}
	return false
}

// Value is a variable value: a single scalar, a container of scalars, a
// record of named scalars, or NULL.
type Value struct {
	Cardinality Cardinality
	BaseType    BaseType // unused for record cardinality
	Null        bool

	Scalar Scalar             // single
	Values []*Scalar          // multiple / ordered; nil entries encode null slots
	Record map[string]*Scalar // record fields
}

// NullValue builds the NULL value for a declaration shape.
func NullValue(c Cardinality, bt BaseType) Value {
	return Value{Cardinality: c, BaseType: bt, Null: true}
}

// NewSingle wraps one scalar as a single-cardinality value.
func NewSingle(s Scalar) Value {
	return Value{Cardinality: CardinalitySingle, BaseType: s.BaseType, Scalar: s}
}

// NewMultiple builds a multiple-cardinality container.
func NewMultiple(bt BaseType, scalars ...Scalar) Value {
	return newContainer(CardinalityMultiple, bt, scalars)
}

// NewOrdered builds an ordered-cardinality container.
func NewOrdered(bt BaseType, scalars ...Scalar) Value {
	return newContainer(CardinalityOrdered, bt, scalars)
}

func newContainer(c Cardinality, bt BaseType, scalars []Scalar) Value {
	vs := make([]*Scalar, len(scalars))
	for i := range scalars {
		s := scalars[i]
		vs[i] = &s
	}
	return Value{Cardinality: c, BaseType: bt, Values: vs}
}

// NewRecord builds a record-cardinality value from named scalars.
func NewRecord(fields map[string]*Scalar) Value {
	return Value{Cardinality: CardinalityRecord, Record: fields}
}

// IsNull reports whether the value is NULL. Empty containers count as
// NULL, matching QTI semantics.
func (v Value) IsNull() bool {
	if v.Null {
		return true
	}
	switch v.Cardinality {
	case CardinalityMultiple, CardinalityOrdered:
		return len(v.Values) == 0
	case CardinalityRecord:
		return len(v.Record) == 0
	}
	return false
}

// Equal compares two values structurally. Multiple-cardinality containers
// compare as multisets, ordered containers element by element.
func (v Value) Equal(o Value) bool {
	if v.IsNull() || o.IsNull() {
		return v.IsNull() && o.IsNull()
	}
	if v.Cardinality != o.Cardinality {
		return false
	}
	switch v.Cardinality {
	case CardinalitySingle:
		return v.Scalar.Equal(o.Scalar)
	case CardinalityOrdered:
		if len(v.Values) != len(o.Values) {
			return false
		}
		for i := range v.Values {
			if !scalarPtrEqual(v.Values[i], o.Values[i]) {
				return false
			}
		}
		return true
	case CardinalityMultiple:
		if len(v.Values) != len(o.Values) {
			return false
		}
		matched := make([]bool, len(o.Values))
		for _, a := range v.Values {
			found := false
			for j, b := range o.Values {
				if !matched[j] && scalarPtrEqual(a, b) {
					matched[j] = true
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	case CardinalityRecord:
		if len(v.Record) != len(o.Record) {
			return false
		}
		for k, a := range v.Record {
			b, ok := o.Record[k]
			if !ok || !scalarPtrEqual(a, b) {
				return false
			}
		}
		return true
	}
	return false
}

func scalarPtrEqual(a, b *Scalar) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// Contains reports whether a container value holds the given scalar.
func (v Value) Contains(s Scalar) bool {
	if v.IsNull() {
		return false
	}
	switch v.Cardinality {
	case CardinalitySingle:
		return v.Scalar.Equal(s)
	case CardinalityMultiple, CardinalityOrdered:
		for _, e := range v.Values {
			if e != nil && e.Equal(s) {
				return true
			}
		}
	}
	return false
}

// ZeroValue is the begin-session starting value for a declaration without
// a default: zero for single numeric types, NULL otherwise.
func ZeroValue(c Cardinality, bt BaseType) Value {
	if c == CardinalitySingle {
		switch bt {
		case BTInteger:
			return NewSingle(NewInteger(0))
		case BTFloat:
			return NewSingle(NewFloat(0))
		}
	}
	return NullValue(c, bt)
}

// ParseBaseType validates a raw base type string.
func ParseBaseType(s string) (BaseType, error) {
	switch BaseType(s) {
	case BTIdentifier, BTBoolean, BTInteger, BTFloat, BTString,
		BTPoint, BTPair, BTDirectedPair, BTDuration, BTURI:
		return BaseType(s), nil
	}
	return "", fmt.Errorf("invalid base type %q", s)
}

// ParseCardinality validates a raw cardinality string.
func ParseCardinality(s string) (Cardinality, error) {
	switch Cardinality(s) {
	case CardinalitySingle, CardinalityMultiple, CardinalityOrdered, CardinalityRecord:
		return Cardinality(s), nil
	}
	return "", fmt.Errorf("invalid cardinality %q", s)
}
