package codec

import (
	"errors"
	"io"
	"testing"
	"time"
)

func TestPrimitiveRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteBool(true)
	w.WriteUint8(0xAB)
	w.WriteUint16(65000)
	w.WriteUint32(4000000000)
	w.WriteInt32(-12345)
	w.WriteInt64(-9000000000)
	w.WriteFloat64(3.25)
	w.WriteString("hello")
	w.WriteString("")
	w.WriteDuration(90 * time.Second)

	r := NewReader(w.Bytes())
	if v, err := r.ReadBool(); err != nil || !v {
		t.Errorf("ReadBool() = %v, %v", v, err)
	}
	if v, err := r.ReadUint8(); err != nil || v != 0xAB {
		t.Errorf("ReadUint8() = %v, %v", v, err)
	}
	if v, err := r.ReadUint16(); err != nil || v != 65000 {
		t.Errorf("ReadUint16() = %v, %v", v, err)
	}
	if v, err := r.ReadUint32(); err != nil || v != 4000000000 {
		t.Errorf("ReadUint32() = %v, %v", v, err)
	}
	if v, err := r.ReadInt32(); err != nil || v != -12345 {
		t.Errorf("ReadInt32() = %v, %v", v, err)
	}
	if v, err := r.ReadInt64(); err != nil || v != -9000000000 {
		t.Errorf("ReadInt64() = %v, %v", v, err)
	}
	if v, err := r.ReadFloat64(); err != nil || v != 3.25 {
		t.Errorf("ReadFloat64() = %v, %v", v, err)
	}
	if v, err := r.ReadString(); err != nil || v != "hello" {
		t.Errorf("ReadString() = %q, %v", v, err)
	}
	if v, err := r.ReadString(); err != nil || v != "" {
		t.Errorf("ReadString() empty = %q, %v", v, err)
	}
	if v, err := r.ReadDuration(); err != nil || v != 90*time.Second {
		t.Errorf("ReadDuration() = %v, %v", v, err)
	}
}

func TestTimeRoundTrip(t *testing.T) {
	want := time.Date(2025, 3, 14, 9, 26, 53, 589793000, time.UTC)
	w := NewWriter()
	w.WriteTime(want)

	r := NewReader(w.Bytes())
	got, err := r.ReadTime()
	if err != nil {
		t.Fatalf("ReadTime() error = %v", err)
	}
	if !got.Equal(want) {
		t.Errorf("ReadTime() = %v, want %v", got, want)
	}
}

func TestTruncatedStream(t *testing.T) {
	w := NewWriter()
	w.WriteUint32(42)
	data := w.Bytes()

	r := NewReader(data[:2])
	if _, err := r.ReadUint32(); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("ReadUint32() on truncated stream error = %v, want io.ErrUnexpectedEOF", err)
	}

	// A truncated string payload, not just a truncated length prefix.
	w2 := NewWriter()
	w2.WriteString("hello")
	r2 := NewReader(w2.Bytes()[:4])
	if _, err := r2.ReadString(); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("ReadString() on truncated stream error = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestInvalidBooleanByte(t *testing.T) {
	r := NewReader([]byte{7})
	if _, err := r.ReadBool(); err == nil {
		t.Error("ReadBool() accepted an invalid byte")
	}
}
