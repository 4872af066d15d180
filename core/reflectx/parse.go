package reflectx

import (
	"encoding"
	"encoding/json"
	"fmt"
	"reflect"
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// BytesEncoder is implemented by values with their own byte encoding. It is
// used when such a value is formatted to a string.
type BytesEncoder interface {
	EncodeToBytes() ([]byte, error)
}

// BytesDecoder is implemented by values with their own byte decoding. It
// takes precedence over every other way of parsing text into the value.
type BytesDecoder interface {
	DecodeFromBytes([]byte) error
}

// decoder reads raw into the value ptr points to. It reports whether it
// applied; an error stops parsing.
type decoder func(raw []byte, ptr any) (bool, error)

var decoders = []decoder{
	decodeBytes,
	decodeJSON,
	decodeText,
	decodeProto,
	decodeBinary,
}

// ParseValue reads s into a new value of type t. Strings are taken as they
// are. Anything else goes to the first decoder that applies: BytesDecoder,
// JSON when s is valid JSON (protojson for proto.Message, so numbers, booleans
// and quoted strings parse too), encoding.TextUnmarshaler, the proto wire
// format, then encoding.BinaryUnmarshaler. A pointer t gets a freshly
// allocated element.
func ParseValue(s string, t reflect.Type) (reflect.Value, error) {
	elem := t
	if t.Kind() == reflect.Pointer {
		elem = t.Elem()
	}
	ptr := reflect.New(elem)
	out := ptr.Elem()
	if t.Kind() == reflect.Pointer {
		out = ptr
	}

	if elem.Kind() == reflect.String {
		ptr.Elem().SetString(s)
		return out, nil
	}

	raw, target := []byte(s), ptr.Interface()
	for _, decode := range decoders {
		ok, err := decode(raw, target)
		if err != nil {
			return out, NewValueError(s, t, err)
		}
		if ok {
			return out, nil
		}
	}

	return out, NewValueError(s, t, nil)
}

func decodeBytes(raw []byte, ptr any) (bool, error) {
	d, ok := ptr.(BytesDecoder)
	if !ok {
		return false, nil
	}
	return true, d.DecodeFromBytes(raw)
}

func decodeJSON(raw []byte, ptr any) (bool, error) {
	if !json.Valid(raw) {
		return false, nil
	}
	if m, ok := ptr.(proto.Message); ok {
		return protojson.Unmarshal(raw, m) == nil, nil
	}
	return json.Unmarshal(raw, ptr) == nil, nil
}

func decodeText(raw []byte, ptr any) (bool, error) {
	u, ok := ptr.(encoding.TextUnmarshaler)
	if !ok || !utf8.Valid(raw) {
		return false, nil
	}
	return u.UnmarshalText(raw) == nil, nil
}

func decodeProto(raw []byte, ptr any) (bool, error) {
	m, ok := ptr.(proto.Message)
	return ok && proto.Unmarshal(raw, m) == nil, nil
}

func decodeBinary(raw []byte, ptr any) (bool, error) {
	u, ok := ptr.(encoding.BinaryUnmarshaler)
	return ok && u.UnmarshalBinary(raw) == nil, nil
}

// ValueError reports text that could not be read into a type. It matches
// ErrInvalidArgumentValue and unwraps to the decoder error, if any.
type ValueError struct {
	cause error
	text  string
	t     reflect.Type
}

// NewValueError returns the error for text that does not parse as t.
func NewValueError(text string, t reflect.Type, cause error) error {
	return ValueError{cause: cause, text: text, t: t}
}

func (e ValueError) Error() string {
	msg := fmt.Sprintf("%v: '%s': for type '%s'", ErrInvalidArgumentValue, e.text, e.t)
	if e.cause != nil {
		msg += fmt.Sprintf(": '%v'", e.cause)
	}
	return msg
}

// Is reports whether target is ErrInvalidArgumentValue.
func (e ValueError) Is(target error) bool {
	return target == ErrInvalidArgumentValue
}

// Unwrap returns the decoder error, if any.
func (e ValueError) Unwrap() error {
	return e.cause
}
