package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseScalar parses the canonical string form of a scalar for the
// given base type. Point coordinates and pair members are separated by
// a single space; durations are decimal seconds.
func ParseScalar(bt BaseType, s string) (Scalar, error) {
	switch bt {
	case BTIdentifier:
		return NewIdentifier(s), nil
	case BTString:
		return NewString(s), nil
	case BTURI:
		return NewURI(s), nil
	case BTBoolean:
		v, err := strconv.ParseBool(s)
		if err != nil {
			return Scalar{}, fmt.Errorf("parsing boolean %q: %w", s, err)
		}
		return NewBoolean(v), nil
	case BTInteger:
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Scalar{}, fmt.Errorf("parsing integer %q: %w", s, err)
		}
		return NewInteger(v), nil
	case BTFloat:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Scalar{}, fmt.Errorf("parsing float %q: %w", s, err)
		}
		return NewFloat(v), nil
	case BTPoint:
		a, b, err := splitPair(s)
		if err != nil {
			return Scalar{}, fmt.Errorf("parsing point %q: %w", s, err)
		}
		x, err := strconv.ParseInt(a, 10, 32)
		if err != nil {
			return Scalar{}, fmt.Errorf("parsing point %q: %w", s, err)
		}
		y, err := strconv.ParseInt(b, 10, 32)
		if err != nil {
			return Scalar{}, fmt.Errorf("parsing point %q: %w", s, err)
		}
		return NewPoint(int32(x), int32(y)), nil
	case BTPair:
		a, b, err := splitPair(s)
		if err != nil {
			return Scalar{}, fmt.Errorf("parsing pair %q: %w", s, err)
		}
		return NewPair(a, b), nil
	case BTDirectedPair:
		a, b, err := splitPair(s)
		if err != nil {
			return Scalar{}, fmt.Errorf("parsing directed pair %q: %w", s, err)
		}
		return NewDirectedPair(a, b), nil
	case BTDuration:
		seconds, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Scalar{}, fmt.Errorf("parsing duration %q: %w", s, err)
		}
		return NewDuration(time.Duration(seconds * float64(time.Second))), nil
	}
	return Scalar{}, fmt.Errorf("base type %q not parseable", bt)
}

// Text renders the canonical form ParseScalar accepts.
func (s Scalar) Text() string {
	switch s.BaseType {
	case BTBoolean:
		return strconv.FormatBool(s.Boolean)
	case BTInteger:
		return strconv.FormatInt(s.Integer, 10)
	case BTFloat:
		return strconv.FormatFloat(s.Float, 'g', -1, 64)
	case BTPoint:
		return fmt.Sprintf("%d %d", s.X, s.Y)
	case BTPair, BTDirectedPair:
		return s.PairA + " " + s.PairB
	case BTDuration:
		return strconv.FormatFloat(s.Duration.Seconds(), 'g', -1, 64)
	}
	return s.String
}

// Strings renders a value's scalars in canonical form, one entry per
// container element. NULL values and records yield nil.
func (v Value) Strings() []string {
	if v.IsNull() || v.Cardinality == CardinalityRecord {
		return nil
	}
	if v.Cardinality == CardinalitySingle {
		return []string{v.Scalar.Text()}
	}
	out := make([]string, 0, len(v.Values))
	for _, s := range v.Values {
		if s != nil {
			out = append(out, s.Text())
		}
	}
	return out
}

func splitPair(s string) (string, string, error) {
	parts := strings.Fields(s)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("expected two space-separated tokens, got %d", len(parts))
	}
	return parts[0], parts[1], nil
}
