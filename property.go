package jcr

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"
)

// PropertyType is the JCR type tag of a property.
type PropertyType string

const (
	TypeString        PropertyType = "String"
	TypeBoolean       PropertyType = "Boolean"
	TypeLong          PropertyType = "Long"
	TypeDouble        PropertyType = "Double"
	TypeDecimal       PropertyType = "Decimal"
	TypeDate          PropertyType = "Date"
	TypeBinary        PropertyType = "Binary"
	TypeName          PropertyType = "Name"
	TypePath          PropertyType = "Path"
	TypeReference     PropertyType = "Reference"
	TypeWeakReference PropertyType = "WeakReference"
)

var propertyTypes = map[string]PropertyType{
	"STRING":        TypeString,
	"BOOLEAN":       TypeBoolean,
	"LONG":          TypeLong,
	"DOUBLE":        TypeDouble,
	"DECIMAL":       TypeDecimal,
	"DATE":          TypeDate,
	"BINARY":        TypeBinary,
	"NAME":          TypeName,
	"PATH":          TypePath,
	"REFERENCE":     TypeReference,
	"WEAKREFERENCE": TypeWeakReference,
}

// ParsePropertyType resolves a type tag case-insensitively.
func ParsePropertyType(tag string) (PropertyType, bool) {
	t, ok := propertyTypes[strings.ToUpper(tag)]
	return t, ok
}

// Property is a named, typed value. Value holds one of string, bool, int64,
// float64 or time.Time, or a slice of them.
type Property struct {
	Name  string
	Type  PropertyType
	Value any
}

// Multiple reports whether the property holds a sequence of values.
func (p Property) Multiple() bool {
	return isSequence(p.Value)
}

// NewProperty builds a property, inferring its type from value.
func NewProperty(name string, value any) (Property, error) {
	if b, ok := value.([]byte); ok {
		return Property{Name: name, Type: TypeBinary, Value: base64.StdEncoding.EncodeToString(b)}, nil
	}
	v, err := normalize(value)
	if errors.Is(err, errOverflow) {
		return Property{}, invalidArgf("property %q: %v", name, err)
	}
	if err != nil {
		return Property{}, invalidArgf("property %q: unsupported value type %T", name, value)
	}
	t, v, err := inferType(v)
	if err != nil {
		return Property{}, invalidArgf("property %q: cannot infer type of %T", name, value)
	}
	return Property{Name: name, Type: t, Value: v}, nil
}

// NewTypedProperty builds a property with an explicit type.
func NewTypedProperty(name string, typ PropertyType, value any) (Property, error) {
	t, ok := ParsePropertyType(string(typ))
	if !ok {
		return Property{}, &UnsupportedTypeError{Property: name, Type: string(typ)}
	}
	if b, ok := value.([]byte); ok {
		value = base64.StdEncoding.EncodeToString(b)
	}
	v, err := normalize(value)
	if errors.Is(err, errOverflow) {
		return Property{}, invalidArgf("property %q: %v", name, err)
	}
	if err != nil {
		return Property{}, invalidArgf("property %q: unsupported value type %T", name, value)
	}
	return Property{Name: name, Type: t, Value: v}, nil
}

// inferType maps a normalized value to a type. Integral floats are stored as Long.
func inferType(v any) (PropertyType, any, error) {
	switch x := v.(type) {
	case string:
		return TypeString, x, nil
	case bool:
		return TypeBoolean, x, nil
	case int64:
		return TypeLong, x, nil
	case float64:
		if isIntegral(x) {
			return TypeLong, int64(x), nil
		}
		return TypeDouble, x, nil
	case time.Time:
		return TypeDate, x, nil
	case []string:
		return TypeString, x, nil
	case []bool:
		return TypeBoolean, x, nil
	case []int64:
		return TypeLong, x, nil
	case []float64:
		for _, f := range x {
			if !isIntegral(f) {
				return TypeDouble, x, nil
			}
		}
		if len(x) == 0 {
			return TypeDouble, x, nil
		}
		longs := make([]int64, len(x))
		for i, f := range x {
			longs[i] = int64(f)
		}
		return TypeLong, longs, nil
	case []time.Time:
		return TypeDate, x, nil
	case []any:
		if len(x) == 0 {
			return TypeString, x, nil
		}
		t, _, err := inferType(x[0])
		return t, x, err
	}
	return "", nil, ErrInvalidArgument
}

func isIntegral(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f) && f == math.Trunc(f) && math.Abs(f) < 1<<53
}

// normalize converts scalars to their canonical Go form and slices to typed
// slices of those forms, or []any when the elements are mixed.
func normalize(value any) (any, error) {
	if value == nil {
		return nil, ErrInvalidArgument
	}
	s, err := normalizeScalar(value)
	if err == nil {
		return s, nil
	}
	if errors.Is(err, errOverflow) {
		return nil, err
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, ErrInvalidArgument
	}
	elems := make([]any, rv.Len())
	for i := range elems {
		e, err := normalizeScalar(rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		elems[i] = e
	}
	return typedSlice(elems, rv.Type().Elem()), nil
}

var errOverflow = errors.New("value out of range")

func normalizeScalar(value any) (any, error) {
	switch x := value.(type) {
	case string, bool, int64, float64, time.Time:
		return x, nil
	case *time.Time:
		if x == nil {
			return nil, ErrInvalidArgument
		}
		return *x, nil
	case float32:
		return float64(x), nil
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return nil, fmt.Errorf("%w: %d overflows a Long", errOverflow, u)
		}
		return int64(u), nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	}
	return nil, ErrInvalidArgument
}

func typedSlice(elems []any, elemType reflect.Type) any {
	if len(elems) == 0 {
		switch elemType.Kind() {
		case reflect.String:
			return []string{}
		case reflect.Bool:
			return []bool{}
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return []int64{}
		case reflect.Float32, reflect.Float64:
			return []float64{}
		}
		if elemType == reflect.TypeOf(time.Time{}) {
			return []time.Time{}
		}
		return []any{}
	}
	switch elems[0].(type) {
	case string:
		if out, ok := collect[string](elems); ok {
			return out
		}
	case bool:
		if out, ok := collect[bool](elems); ok {
			return out
		}
	case int64:
		if out, ok := collect[int64](elems); ok {
			return out
		}
	case float64:
		if out, ok := collect[float64](elems); ok {
			return out
		}
	case time.Time:
		if out, ok := collect[time.Time](elems); ok {
			return out
		}
	}
	return elems
}

func collect[T any](elems []any) ([]T, bool) {
	out := make([]T, len(elems))
	for i, e := range elems {
		v, ok := e.(T)
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func isSequence(v any) bool {
	switch v.(type) {
	case []string, []bool, []int64, []float64, []time.Time, []any:
		return true
	}
	return false
}
