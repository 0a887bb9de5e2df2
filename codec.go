package jcr

import (
	"fmt"
	"strconv"
	"time"

	"github.com/aweris/jcr/internal/wire"
)

// WireProperty and WireNode are the server's JSON documents.
type (
	WireProperty = wire.Property
	WireNode     = wire.Node
)

// BinaryUnsupported is the decoded value of every Binary property. Binary
// payloads are only ever sent, never read back.
const BinaryUnsupported = "binary property types are not supported at this time"

// DateLayout is the textual form used for Date values on the wire.
const DateLayout = "2006-01-02T15:04:05.000Z07:00"

var dateLayouts = []string{time.RFC3339Nano, DateLayout, "2006-01-02T15:04:05.000Z0700", "2006-01-02"}

// DecodeProperty converts a wire property into a typed Property. The result
// holds a single value when the wire carries exactly one, a slice otherwise;
// the wire multiple flag is not consulted.
func DecodeProperty(wp WireProperty) (Property, error) {
	t, ok := ParsePropertyType(wp.Type)
	if !ok {
		return Property{}, &UnsupportedTypeError{Property: wp.Name, Type: wp.Type}
	}

	var (
		value any
		err   error
	)
	switch t {
	case TypeString, TypeName, TypePath, TypeReference, TypeWeakReference:
		value, err = decodeValues(wp, func(s string) (string, error) { return s, nil })
	case TypeBoolean:
		value, err = decodeValues(wp, func(s string) (bool, error) { return s == "true", nil })
	case TypeLong:
		value, err = decodeValues(wp, func(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) })
	case TypeDouble, TypeDecimal:
		value, err = decodeValues(wp, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
	case TypeDate:
		value, err = decodeValues(wp, parseDate)
	case TypeBinary:
		value, err = decodeValues(wp, func(string) (string, error) { return BinaryUnsupported, nil })
	}
	if err != nil {
		return Property{}, err
	}
	return Property{Name: wp.Name, Type: t, Value: value}, nil
}

func decodeValues[T any](wp WireProperty, conv func(string) (T, error)) (any, error) {
	out := make([]T, len(wp.Values))
	for i, raw := range wp.Values {
		v, err := conv(raw)
		if err != nil {
			return nil, fmt.Errorf("property %q: parse %s value %q: %w", wp.Name, wp.Type, raw, ErrInvalidArgument)
		}
		out[i] = v
	}
	if len(out) == 1 {
		return out[0], nil
	}
	return out, nil
}

func parseDate(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// EncodeProperty converts a Property into its wire form.
func EncodeProperty(p Property) WireProperty {
	wp := WireProperty{
		Name:     p.Name,
		Type:     string(p.Type),
		Multiple: p.Multiple(),
	}
	switch v := p.Value.(type) {
	case []string:
		wp.Values = encodeValues(v)
	case []bool:
		wp.Values = encodeValues(v)
	case []int64:
		wp.Values = encodeValues(v)
	case []float64:
		wp.Values = encodeValues(v)
	case []time.Time:
		wp.Values = encodeValues(v)
	case []any:
		wp.Values = encodeValues(v)
	default:
		wp.Values = []string{stringify(v)}
	}
	return wp
}

func encodeValues[T any](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = stringify(v)
	}
	return out
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format(DateLayout)
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}
