package reflectx

import (
	"reflect"
	"time"
)

var (
	timeType        = reflect.TypeFor[time.Time]()
	reflectTypeType = reflect.TypeFor[reflect.Type]()
)

// IsPrimitive reports whether values of t are handed out as they are rather
// than behind a proxy: basic kinds, time.Time, errors and reflect.Type.
func IsPrimitive(t reflect.Type) bool {
	if t == nil {
		return true
	}

	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128,
		reflect.UnsafePointer:
		return true
	}

	return t == timeType || t.Implements(errorType) || t.Implements(reflectTypeType)
}

// IsBuiltinNumeric reports whether t is one of the predeclared numeric types
// or bool. Defined types with a numeric underlying type are excluded.
func IsBuiltinNumeric(t reflect.Type) bool {
	if t.PkgPath() != "" || t.Name() == "" {
		return false
	}

	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
