package models

import (
	"testing"
	"time"
)

func TestScalarEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Scalar
		want bool
	}{
		{"equal integers", NewInteger(3), NewInteger(3), true},
		{"different integers", NewInteger(3), NewInteger(4), false},
		{"different base types", NewInteger(3), NewFloat(3), false},
		{"equal identifiers", NewIdentifier("A"), NewIdentifier("A"), true},
		{"identifier vs string", NewIdentifier("A"), NewString("A"), false},
		{"pair is symmetric", NewPair("A", "B"), NewPair("B", "A"), true},
		{"directed pair is not", NewDirectedPair("A", "B"), NewDirectedPair("B", "A"), false},
		{"equal points", NewPoint(1, 2), NewPoint(1, 2), true},
		{"different points", NewPoint(1, 2), NewPoint(2, 1), false},
		{"equal durations", NewDuration(3 * time.Second), NewDuration(3 * time.Second), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
			if got := tt.b.Equal(tt.a); got != tt.want {
				t.Errorf("Equal() reversed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValueIsNull(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want bool
	}{
		{"explicit null", NullValue(CardinalitySingle, BTInteger), true},
		{"single scalar", NewSingle(NewInteger(1)), false},
		{"empty multiple", NewMultiple(BTIdentifier), true},
		{"populated multiple", NewMultiple(BTIdentifier, NewIdentifier("A")), false},
		{"empty ordered", NewOrdered(BTInteger), true},
		{"empty record", NewRecord(map[string]*Scalar{}), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.IsNull(); got != tt.want {
				t.Errorf("IsNull() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValueEqual(t *testing.T) {
	a := NewIdentifier("A")
	b := NewIdentifier("B")
	c := NewIdentifier("C")

	tests := []struct {
		name string
		x, y Value
		want bool
	}{
		{"nulls are equal across shapes",
			NullValue(CardinalitySingle, BTInteger), NullValue(CardinalityMultiple, BTFloat), true},
		{"null vs value", NullValue(CardinalitySingle, BTIdentifier), NewSingle(a), false},
		{"singles equal", NewSingle(a), NewSingle(a), true},
		{"multiple compares as multiset",
			NewMultiple(BTIdentifier, a, b, c), NewMultiple(BTIdentifier, c, a, b), true},
		{"multiset respects repetition",
			NewMultiple(BTIdentifier, a, a, b), NewMultiple(BTIdentifier, a, b, b), false},
		{"ordered compares element-wise",
			NewOrdered(BTIdentifier, a, b), NewOrdered(BTIdentifier, b, a), false},
		{"ordered equal", NewOrdered(BTIdentifier, a, b), NewOrdered(BTIdentifier, a, b), true},
		{"cardinality mismatch",
			NewMultiple(BTIdentifier, a), NewOrdered(BTIdentifier, a), false},
		{"records compare by key",
			NewRecord(map[string]*Scalar{"x": &a, "y": &b}),
			NewRecord(map[string]*Scalar{"y": &b, "x": &a}), true},
		{"record key mismatch",
			NewRecord(map[string]*Scalar{"x": &a}),
			NewRecord(map[string]*Scalar{"z": &a}), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.x.Equal(tt.y); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValueContains(t *testing.T) {
	v := NewMultiple(BTIdentifier, NewIdentifier("A"), NewIdentifier("B"))
	if !v.Contains(NewIdentifier("A")) {
		t.Error("Contains(A) = false, want true")
	}
	if v.Contains(NewIdentifier("C")) {
		t.Error("Contains(C) = true, want false")
	}
	if NullValue(CardinalityMultiple, BTIdentifier).Contains(NewIdentifier("A")) {
		t.Error("null value should contain nothing")
	}
}

func TestZeroValue(t *testing.T) {
	tests := []struct {
		name string
		card Cardinality
		bt   BaseType
		want Value
	}{
		{"single integer", CardinalitySingle, BTInteger, NewSingle(NewInteger(0))},
		{"single float", CardinalitySingle, BTFloat, NewSingle(NewFloat(0))},
		{"single identifier", CardinalitySingle, BTIdentifier, NullValue(CardinalitySingle, BTIdentifier)},
		{"multiple integer", CardinalityMultiple, BTInteger, NullValue(CardinalityMultiple, BTInteger)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ZeroValue(tt.card, tt.bt)
			if !got.Equal(tt.want) {
				t.Errorf("ZeroValue(%s, %s) = %+v, want %+v", tt.card, tt.bt, got, tt.want)
			}
		})
	}
}

func TestMappingApply(t *testing.T) {
	lower := -1.0
	upper := 2.0
	m := &Mapping{
		LowerBound:   &lower,
		UpperBound:   &upper,
		DefaultValue: -0.5,
		Entries: []MapEntry{
			{MapKey: NewIdentifier("A"), MappedValue: 1},
			{MapKey: NewIdentifier("B"), MappedValue: 1.5},
		},
	}

	tests := []struct {
		name     string
		response Value
		want     float64
	}{
		{"single match", NewSingle(NewIdentifier("A")), 1},
		{"single miss uses default", NewSingle(NewIdentifier("X")), -0.5},
		{"multiple sums and clamps to upper",
			NewMultiple(BTIdentifier, NewIdentifier("A"), NewIdentifier("B")), 2},
		{"misses clamp to lower",
			NewMultiple(BTIdentifier, NewIdentifier("X"), NewIdentifier("Y"), NewIdentifier("Z")), -1},
		{"null contributes nothing", NullValue(CardinalitySingle, BTIdentifier), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Apply(tt.response); got != tt.want {
				t.Errorf("Apply() = %v, want %v", got, tt.want)
			}
		})
	}
}
