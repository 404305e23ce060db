package codec

import (
	"fmt"
	"sort"

	"github.com/SAP-F-2025/qti-delivery-service/internal/models"
)

// Base type and cardinality wire tags. Part of the format contract; never
// renumber.
const (
	tagIdentifier uint8 = iota
	tagBoolean
	tagInteger
	tagFloat
	tagString
	tagPoint
	tagPair
	tagDirectedPair
	tagDuration
	tagURI
)

const (
	cardSingle uint8 = iota
	cardMultiple
	cardOrdered
	cardRecord
)

func baseTypeTag(bt models.BaseType) (uint8, error) {
	switch bt {
	case models.BTIdentifier:
		return tagIdentifier, nil
	case models.BTBoolean:
		return tagBoolean, nil
	case models.BTInteger:
		return tagInteger, nil
	case models.BTFloat:
		return tagFloat, nil
	case models.BTString:
		return tagString, nil
	case models.BTPoint:
		return tagPoint, nil
	case models.BTPair:
		return tagPair, nil
	case models.BTDirectedPair:
		return tagDirectedPair, nil
	case models.BTDuration:
		return tagDuration, nil
	case models.BTURI:
		return tagURI, nil
	}
	return 0, fmt.Errorf("base type %q has no wire tag", bt)
}

func baseTypeFromTag(tag uint8) (models.BaseType, error) {
	switch tag {
	case tagIdentifier:
		return models.BTIdentifier, nil
	case tagBoolean:
		return models.BTBoolean, nil
	case tagInteger:
		return models.BTInteger, nil
	case tagFloat:
		return models.BTFloat, nil
	case tagString:
		return models.BTString, nil
	case tagPoint:
		return models.BTPoint, nil
	case tagPair:
		return models.BTPair, nil
	case tagDirectedPair:
		return models.BTDirectedPair, nil
	case tagDuration:
		return models.BTDuration, nil
	case tagURI:
		return models.BTURI, nil
	}
	return "", fmt.Errorf("unknown base type tag %d", tag)
}

// writeScalarPayload writes a scalar's payload without its type tag; the
// base type is known from context.
func writeScalarPayload(w *Writer, s models.Scalar) {
	switch s.BaseType {
	case models.BTBoolean:
		w.WriteBool(s.Boolean)
	case models.BTInteger:
		w.WriteInt64(s.Integer)
	case models.BTFloat:
		w.WriteFloat64(s.Float)
	case models.BTIdentifier, models.BTString, models.BTURI:
		w.WriteString(s.String)
	case models.BTPoint:
		w.WriteInt32(s.X)
		w.WriteInt32(s.Y)
	case models.BTPair, models.BTDirectedPair:
		w.WriteString(s.PairA)
		w.WriteString(s.PairB)
	case models.BTDuration:
		w.WriteDuration(s.Duration)
	}
}

func readScalarPayload(r *Reader, bt models.BaseType) (models.Scalar, error) {
	s := models.Scalar{BaseType: bt}
	var err error
	switch bt {
	case models.BTBoolean:
		s.Boolean, err = r.ReadBool()
	case models.BTInteger:
		s.Integer, err = r.ReadInt64()
	case models.BTFloat:
		s.Float, err = r.ReadFloat64()
	case models.BTIdentifier, models.BTString, models.BTURI:
		s.String, err = r.ReadString()
	case models.BTPoint:
		if s.X, err = r.ReadInt32(); err == nil {
			s.Y, err = r.ReadInt32()
		}
	case models.BTPair, models.BTDirectedPair:
		if s.PairA, err = r.ReadString(); err == nil {
			s.PairB, err = r.ReadString()
		}
	case models.BTDuration:
		s.Duration, err = r.ReadDuration()
	default:
		err = fmt.Errorf("base type %q not decodable", bt)
	}
	return s, err
}

// WriteValue encodes a value with the uniform grammar shared by variable
// values, defaults, correct responses and record fields: a null flag,
// then a scalar-or-container flag, then either one type-tagged primitive
// or a counted container of null-flagged elements.
func WriteValue(w *Writer, v models.Value) error {
	w.WriteBool(v.IsNull())
	if v.IsNull() {
		return nil
	}

	scalar := v.Cardinality == models.CardinalitySingle
	w.WriteBool(scalar)
	if scalar {
		tag, err := baseTypeTag(v.Scalar.BaseType)
		if err != nil {
			return err
		}
		w.WriteUint8(tag)
		writeScalarPayload(w, v.Scalar)
		return nil
	}

	if v.Cardinality == models.CardinalityRecord {
		w.WriteUint8(cardRecord)
		w.WriteUint32(uint32(len(v.Record)))
		keys := make([]string, 0, len(v.Record))
		for k := range v.Record {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			e := v.Record[k]
			w.WriteBool(e == nil)
			w.WriteString(k)
			if e == nil {
				continue
			}
			tag, err := baseTypeTag(e.BaseType)
			if err != nil {
				return err
			}
			w.WriteUint8(tag)
			writeScalarPayload(w, *e)
		}
		return nil
	}

	card := cardMultiple
	if v.Cardinality == models.CardinalityOrdered {
		card = cardOrdered
	}
	w.WriteUint8(card)
	tag, err := baseTypeTag(v.BaseType)
	if err != nil {
		return err
	}
	w.WriteUint8(tag)
	w.WriteUint32(uint32(len(v.Values)))
	for _, e := range v.Values {
		w.WriteBool(e == nil)
		if e != nil {
			writeScalarPayload(w, *e)
		}
	}
	return nil
}

// ReadValue decodes a value. The declared cardinality and base type
// restore the shape of NULL values, which carry no payload on the wire.
func ReadValue(r *Reader, declCard models.Cardinality, declBT models.BaseType) (models.Value, error) {
	null, err := r.ReadBool()
	if err != nil {
		return models.Value{}, err
	}
	if null {
		return models.NullValue(declCard, declBT), nil
	}

	scalar, err := r.ReadBool()
	if err != nil {
		return models.Value{}, err
	}
	if scalar {
		tag, err := r.ReadUint8()
		if err != nil {
			return models.Value{}, err
		}
		bt, err := baseTypeFromTag(tag)
		if err != nil {
			return models.Value{}, err
		}
		s, err := readScalarPayload(r, bt)
		if err != nil {
			return models.Value{}, err
		}
		return models.NewSingle(s), nil
	}

	card, err := r.ReadUint8()
	if err != nil {
		return models.Value{}, err
	}
	if card == cardRecord {
		count, err := r.ReadUint32()
		if err != nil {
			return models.Value{}, err
		}
		fields := make(map[string]*models.Scalar, count)
		for i := uint32(0); i < count; i++ {
			null, err := r.ReadBool()
			if err != nil {
				return models.Value{}, err
			}
			key, err := r.ReadString()
			if err != nil {
				return models.Value{}, err
			}
			if null {
				fields[key] = nil
				continue
			}
			tag, err := r.ReadUint8()
			if err != nil {
				return models.Value{}, err
			}
			bt, err := baseTypeFromTag(tag)
			if err != nil {
				return models.Value{}, err
			}
			s, err := readScalarPayload(r, bt)
			if err != nil {
				return models.Value{}, err
			}
			fields[key] = &s
		}
		return models.NewRecord(fields), nil
	}

	var cardinality models.Cardinality
	switch card {
	case cardMultiple:
		cardinality = models.CardinalityMultiple
	case cardOrdered:
		cardinality = models.CardinalityOrdered
	default:
		return models.Value{}, fmt.Errorf("unknown cardinality tag %d", card)
	}
	tag, err := r.ReadUint8()
	if err != nil {
		return models.Value{}, err
	}
	bt, err := baseTypeFromTag(tag)
	if err != nil {
		return models.Value{}, err
	}
	count, err := r.ReadUint32()
	if err != nil {
		return models.Value{}, err
	}
	values := make([]*models.Scalar, count)
	for i := uint32(0); i < count; i++ {
		null, err := r.ReadBool()
		if err != nil {
			return models.Value{}, err
		}
		if null {
			continue
		}
		s, err := readScalarPayload(r, bt)
		if err != nil {
			return models.Value{}, err
		}
		values[i] = &s
	}
	return models.Value{Cardinality: cardinality, BaseType: bt, Values: values}, nil
}
