package binder

import "reflect"

// rank orders how well an argument fits a parameter. Higher is better.
type rank int

const (
	rankNone rank = iota
	rankAssignable
	rankWidening
	rankExact
)

// arg is an unwrapped argument. A nil argument has an invalid v and either no
// type or the declared type of the proxy it came from.
type arg struct {
	v    reflect.Value
	t    reflect.Type
	null bool
}

func compat(param reflect.Type, a arg) rank {
	if a.null {
		if !IsNillable(param) {
			return rankNone
		}
		switch {
		case a.t == nil:
			return rankAssignable
		case a.t == param:
			return rankExact
		case a.t.AssignableTo(param):
			return rankAssignable
		default:
			return rankNone
		}
	}

	switch t := a.t; {
	case t == nil:
		return rankNone
	case t == param:
		return rankExact
	case Widens(t, param):
		return rankWidening
	case t.AssignableTo(param):
		return rankAssignable
	default:
		return rankNone
	}
}

func coerce(param reflect.Type, a arg, r rank) reflect.Value {
	switch {
	case a.null:
		return reflect.Zero(param)
	case !a.v.IsValid():
		return reflect.Value{}
	case r == rankWidening:
		return a.v.Convert(param)
	case a.v.Type() != param:
		out := reflect.New(param).Elem()
		out.Set(a.v)
		return out
	default:
		return a.v
	}
}

// Compatible reports whether a value of type from can be passed where a
// parameter of type to is declared. A nil from stands for an untyped nil.
func Compatible(from, to reflect.Type) bool {
	if from == nil {
		return IsNillable(to)
	}
	return compat(to, arg{t: from}) != rankNone
}

// IsNillable reports whether nil is a valid value of t.
func IsNillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice,
		reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return true
	default:
		return false
	}
}

type numClass int

const (
	numNone numClass = iota
	numSigned
	numUnsigned
	numFloat
	numComplex
)

func classify(k reflect.Kind) (numClass, int) {
	switch k {
	case reflect.Int8:
		return numSigned, 8
	case reflect.Int16:
		return numSigned, 16
	case reflect.Int32:
		return numSigned, 32
	case reflect.Int, reflect.Int64:
		return numSigned, 64
	case reflect.Uint8:
		return numUnsigned, 8
	case reflect.Uint16:
		return numUnsigned, 16
	case reflect.Uint32:
		return numUnsigned, 32
	case reflect.Uint, reflect.Uint64, reflect.Uintptr:
		return numUnsigned, 64
	case reflect.Float32:
		return numFloat, 32
	case reflect.Float64:
		return numFloat, 64
	case reflect.Complex64:
		return numComplex, 64
	case reflect.Complex128:
		return numComplex, 128
	default:
		return numNone, 0
	}
}

// Widens reports whether converting from to to is an implicit numeric
// widening: integers to wider integers of the same signedness, unsigned
// integers to strictly wider signed ones, any integer to a float, floats to
// wider floats, integers to any complex type and floats to complex types
// whose parts are at least as wide.
func Widens(from, to reflect.Type) bool {
	if from == to {
		return false
	}

	fc, fb := classify(from.Kind())
	tc, tb := classify(to.Kind())
	if fc == numNone || tc == numNone {
		return false
	}

	switch tc {
	case numSigned:
		return (fc == numSigned && tb >= fb) || (fc == numUnsigned && tb > fb)
	case numUnsigned:
		return fc == numUnsigned && tb >= fb
	case numFloat:
		return fc == numSigned || fc == numUnsigned || (fc == numFloat && tb >= fb)
	case numComplex:
		if fc == numFloat {
			return tb >= 2*fb
		}
		return fc != numComplex || tb >= fb
	default:
		return false
	}
}
