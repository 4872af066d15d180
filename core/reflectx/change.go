package reflectx

import (
	"encoding"
	"errors"
	"fmt"
	"reflect"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// ErrNotConvertible is returned when no conversion strategy applies.
var ErrNotConvertible = errors.New("value is not convertible")

var (
	bytesType        = reflect.TypeFor[[]byte]()
	stringerType     = reflect.TypeFor[fmt.Stringer]()
	textMarshalType  = reflect.TypeFor[encoding.TextMarshaler]()
	bytesEncoderType = reflect.TypeFor[BytesEncoder]()
	protoMessageType = reflect.TypeFor[proto.Message]()
)

// Plausible reports whether ChangeType may succeed for a value of type from.
// It is a static check: ChangeType can still fail on the actual value.
func Plausible(from, to reflect.Type) bool {
	switch {
	case from.AssignableTo(to):
		return true
	case convertible(from, to):
		return true
	case from.Kind() == reflect.String || from == bytesType:
		return true
	case to.Kind() == reflect.String:
		return true
	default:
		return false
	}
}

// convertible allows Go conversions except integer to string, which yields a
// rune rather than the number text.
func convertible(from, to reflect.Type) bool {
	if !from.ConvertibleTo(to) {
		return false
	}
	if to.Kind() == reflect.String && from.Kind() != reflect.String && from != bytesType {
		return false
	}
	return true
}

// ChangeType converts v to type t. It tries, in order, assignment, a Go
// conversion, parsing when v is a string or a byte slice (see ParseValue) and
// formatting when t is a string kind (proto.Message via protojson,
// BytesEncoder, encoding.TextMarshaler, fmt.Stringer, then fmt.Sprint).
func ChangeType(v reflect.Value, t reflect.Type) (reflect.Value, error) {
	if !v.IsValid() {
		return reflect.Value{}, fmt.Errorf("%w: nil to %s", ErrNotConvertible, t)
	}

	from := v.Type()
	switch {
	case from.AssignableTo(t):
		out := reflect.New(t).Elem()
		out.Set(v)
		return out, nil
	case convertible(from, t):
		if out, ok := tryConvert(v, t); ok {
			return out, nil
		}
	}

	switch {
	case from.Kind() == reflect.String:
		return ParseValue(v.String(), t)
	case from == bytesType:
		return ParseValue(string(v.Bytes()), t)
	}

	if t.Kind() == reflect.String {
		s, err := format(v)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(s).Convert(t), nil
	}

	return reflect.Value{}, fmt.Errorf("%w: %s to %s", ErrNotConvertible, from, t)
}

func tryConvert(v reflect.Value, t reflect.Type) (out reflect.Value, ok bool) {
	// slice to array conversions panic on length mismatch
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return v.Convert(t), true
}

func format(v reflect.Value) (string, error) {
	from := v.Type()
	i := Interface(v)
	switch {
	case from.Implements(protoMessageType):
		b, err := protojson.Marshal(i.(proto.Message)) //nolint:forcetypeassert
		return string(b), err
	case from.Implements(bytesEncoderType):
		b, err := i.(BytesEncoder).EncodeToBytes() //nolint:forcetypeassert
		return string(b), err
	case from.Implements(textMarshalType):
		b, err := i.(encoding.TextMarshaler).MarshalText() //nolint:forcetypeassert
		return string(b), err
	case from.Implements(stringerType):
		return i.(fmt.Stringer).String(), nil //nolint:forcetypeassert
	default:
		return fmt.Sprint(i), nil
	}
}
