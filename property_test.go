package jcr

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

func TestNewPropertyInfersType(t *testing.T) {
	tests := []struct {
		name      string
		value     any
		wantType  PropertyType
		wantValue any
		multiple  bool
	}{
		{"string", "hello", TypeString, "hello", false},
		{"bool", true, TypeBoolean, true, false},
		{"int", 3, TypeLong, int64(3), false},
		{"uint8", uint8(7), TypeLong, int64(7), false},
		{"integral float", 2.0, TypeLong, int64(2), false},
		{"fraction", 1.5, TypeDouble, 1.5, false},
		{"ints", []int{3, 4}, TypeLong, []int64{3, 4}, true},
		{"strings", []string{"a", "b"}, TypeString, []string{"a", "b"}, true},
		{"mixed floats", []float64{1, 2.5}, TypeDouble, []float64{1, 2.5}, true},
		{"bytes", []byte("hi"), TypeBinary, "aGk=", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProperty("p", tt.value)
			assert.Equal(t, err, nil)
			assert.Equal(t, p.Type, tt.wantType)
			assert.Equal(t, p.Value, tt.wantValue)
			assert.Equal(t, p.Multiple(), tt.multiple)
		})
	}
}

func TestNewPropertyRejectsUnsupportedValues(t *testing.T) {
	for _, v := range []any{nil, struct{}{}, map[string]int{"a": 1}, []struct{}{{}}, uint64(1 << 63), []uint64{1, math.MaxUint64}} {
		_, err := NewProperty("p", v)
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("NewProperty(%T): expected ErrInvalidArgument, got %v", v, err)
		}
	}
}

func TestNewPropertyUnsignedWithinLong(t *testing.T) {
	p, err := NewProperty("u", uint64(math.MaxInt64))
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, p.Type, TypeLong)
	assert.Equal(t, p.Value, int64(math.MaxInt64))

	if _, err := NewTypedProperty("u", TypeLong, uint64(1<<63)); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestNewTypedPropertyUnknownType(t *testing.T) {
	_, err := NewTypedProperty("p", PropertyType("Blob"), "x")
	if !errors.Is(err, ErrUnsupportedPropertyType) {
		t.Fatalf("expected ErrUnsupportedPropertyType, got %v", err)
	}
}

func TestParsePropertyTypeIsCaseInsensitive(t *testing.T) {
	for _, tag := range []string{"long", "LONG", "Long"} {
		typ, ok := ParsePropertyType(tag)
		assert.Equal(t, ok, true)
		assert.Equal(t, typ, TypeLong)
	}
	_, ok := ParsePropertyType("Blob")
	assert.Equal(t, ok, false)
}

func TestEncodeProperty(t *testing.T) {
	p, _ := NewProperty("n", []int{3, 4})
	wp := EncodeProperty(p)
	assert.Equal(t, wp.Type, "Long")
	assert.Equal(t, wp.Multiple, true)
	assert.Equal(t, wp.Values, []string{"3", "4"})

	p, _ = NewProperty("s", "x")
	wp = EncodeProperty(p)
	assert.Equal(t, wp.Multiple, false)
	assert.Equal(t, wp.Values, []string{"x"})

	p, _ = NewProperty("d", 0.25)
	assert.Equal(t, EncodeProperty(p).Values, []string{"0.25"})

	p, _ = NewProperty("when", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	assert.Equal(t, EncodeProperty(p).Values, []string{"2024-01-02T03:04:05.000Z"})
}

func TestDecodeProperty(t *testing.T) {
	tests := []struct {
		name string
		in   WireProperty
		want any
	}{
		{"string", WireProperty{Name: "p", Type: "String", Values: []string{"x"}}, "x"},
		{"true", WireProperty{Name: "p", Type: "Boolean", Values: []string{"true"}}, true},
		{"not true", WireProperty{Name: "p", Type: "Boolean", Values: []string{"yes"}}, false},
		{"longs", WireProperty{Name: "p", Type: "LONG", Values: []string{"3", "4"}}, []int64{3, 4}},
		{"double", WireProperty{Name: "p", Type: "Double", Values: []string{"1.5"}}, 1.5},
		{"binary", WireProperty{Name: "p", Type: "Binary", Values: []string{"aGk="}}, BinaryUnsupported},
		{"multiple flag ignored", WireProperty{Name: "p", Type: "String", Multiple: true, Values: []string{"x"}}, "x"},
		{"no values", WireProperty{Name: "p", Type: "String", Values: nil}, []string{}},
		{"path", WireProperty{Name: "p", Type: "Path", Values: []string{"/a/b"}}, "/a/b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := DecodeProperty(tt.in)
			assert.Equal(t, err, nil)
			assert.Equal(t, p.Value, tt.want)
		})
	}
}

func TestDecodePropertyDate(t *testing.T) {
	want := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	for _, raw := range []string{"2024-01-02T03:04:05.000Z", "2024-01-02T03:04:05Z", "2024-01-02T05:04:05.000+02:00"} {
		p, err := DecodeProperty(WireProperty{Name: "d", Type: "Date", Values: []string{raw}})
		if err != nil {
			t.Fatalf("decode %q: %v", raw, err)
		}
		got, ok := p.Value.(time.Time)
		if !ok || !got.Equal(want) {
			t.Errorf("decode %q: got %v, want %v", raw, p.Value, want)
		}
	}
}

func TestDecodePropertyErrors(t *testing.T) {
	_, err := DecodeProperty(WireProperty{Name: "p", Type: "Blob", Values: []string{"x"}})
	if !errors.Is(err, ErrUnsupportedPropertyType) {
		t.Errorf("unknown type: expected ErrUnsupportedPropertyType, got %v", err)
	}
	var ute *UnsupportedTypeError
	if !errors.As(err, &ute) || ute.Type != "Blob" {
		t.Errorf("expected UnsupportedTypeError for Blob, got %v", err)
	}

	_, err = DecodeProperty(WireProperty{Name: "p", Type: "Long", Values: []string{"three"}})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("bad long: expected ErrInvalidArgument, got %v", err)
	}
}

func TestPropertyRoundTrip(t *testing.T) {
	values := []any{"text", true, false, int64(42), 0.5, []string{"a", "b"}, []int64{1, 2, 3}}
	for _, v := range values {
		p, err := NewProperty("p", v)
		if err != nil {
			t.Fatalf("NewProperty(%v): %v", v, err)
		}
		got, err := DecodeProperty(EncodeProperty(p))
		if err != nil {
			t.Fatalf("decode %v: %v", v, err)
		}
		assert.Equal(t, got, p)
	}
}

func TestTypedRoundTrip(t *testing.T) {
	when := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	tests := []struct {
		typ    PropertyType
		scalar any
		multi  any
	}{
		{TypeString, "a", []string{"a", "b"}},
		{TypeName, "mgnl:page", []string{"mgnl:page", "mgnl:area"}},
		{TypePath, "/website/a", []string{"/website/a", "/website/b"}},
		{TypeReference, "0b5c-11", []string{"0b5c-11", "0b5c-12"}},
		{TypeWeakReference, "0b5c-11", []string{"0b5c-11", "0b5c-12"}},
		{TypeBoolean, true, []bool{true, false}},
		{TypeLong, int64(-7), []int64{3, 4}},
		{TypeDouble, 3.25, []float64{0.5, 1e-3}},
		{TypeDecimal, 19.99, []float64{1.5, 2.5}},
		{TypeDate, when, []time.Time{when, when.Add(time.Hour)}},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			for _, v := range []any{tt.scalar, tt.multi} {
				p, err := NewTypedProperty("p", tt.typ, v)
				if err != nil {
					t.Fatalf("NewTypedProperty: %v", err)
				}
				got, err := DecodeProperty(EncodeProperty(p))
				if err != nil {
					t.Fatalf("decode: %v", err)
				}
				assert.Equal(t, got.Type, tt.typ)
				assert.Equal(t, got.Value, p.Value)
				assert.Equal(t, got.Multiple(), p.Multiple())
			}
		})
	}
}
