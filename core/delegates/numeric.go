package delegates

import (
	"reflect"

	"github.com/anoideaopen/limitless/core/stringsx"
	"golang.org/x/exp/constraints"
)

type number interface {
	constraints.Integer | constraints.Float
}

// numeric is one entry of the builtin conversion table: the conversion into
// a predeclared numeric type (or bool) from any other one.
type numeric struct {
	Name string
	to   func(v reflect.Value) reflect.Value
}

func toNumber[D number](v reflect.Value) D {
	switch {
	case v.CanInt():
		return D(v.Int())
	case v.CanUint():
		return D(v.Uint())
	case v.CanFloat():
		return D(v.Float())
	case v.Kind() == reflect.Bool && v.Bool():
		return 1
	default:
		return 0
	}
}

func toBool(v reflect.Value) bool {
	switch {
	case v.CanInt():
		return v.Int() != 0
	case v.CanUint():
		return v.Uint() != 0
	case v.CanFloat():
		return v.Float() != 0
	default:
		return v.Bool()
	}
}

func entry[D number]() numeric {
	t := reflect.TypeFor[D]()
	return numeric{
		Name: "To" + stringsx.UpperFirstChar(t.Kind().String()),
		to: func(v reflect.Value) reflect.Value {
			return reflect.ValueOf(toNumber[D](v))
		},
	}
}

var numerics = map[reflect.Kind]numeric{
	reflect.Int:     entry[int](),
	reflect.Int8:    entry[int8](),
	reflect.Int16:   entry[int16](),
	reflect.Int32:   entry[int32](),
	reflect.Int64:   entry[int64](),
	reflect.Uint:    entry[uint](),
	reflect.Uint8:   entry[uint8](),
	reflect.Uint16:  entry[uint16](),
	reflect.Uint32:  entry[uint32](),
	reflect.Uint64:  entry[uint64](),
	reflect.Uintptr: entry[uintptr](),
	reflect.Float32: entry[float32](),
	reflect.Float64: entry[float64](),
	reflect.Bool: {
		Name: "ToBool",
		to: func(v reflect.Value) reflect.Value {
			return reflect.ValueOf(toBool(v))
		},
	},
}

// Numeric returns the name of the builtin conversion into dst, such as
// "ToInt32", and whether one exists.
func Numeric(dst reflect.Type) (string, bool) {
	n, ok := numerics[dst.Kind()]
	return n.Name, ok
}
