package delegates

import (
	"reflect"

	"github.com/anoideaopen/limitless/core/reflectx"
)

var errorType = reflect.TypeFor[error]()

// makeFunc builds a func of type func(in...) (out...) around call. When the
// last result type is error the call error is returned through it; otherwise
// the delegate panics with it.
func makeFunc(in, out []reflect.Type, call func(args []reflect.Value) ([]reflect.Value, error)) reflect.Value {
	ft := reflect.FuncOf(in, out, false)
	withErr := len(out) > 0 && out[len(out)-1] == errorType

	return reflect.MakeFunc(ft, func(args []reflect.Value) []reflect.Value {
		res, err := call(args)
		if err != nil && !withErr {
			panic(err)
		}

		results := make([]reflect.Value, len(out))
		for i, t := range out {
			switch {
			case withErr && i == len(out)-1:
				results[i] = reflect.Zero(errorType)
				if err != nil {
					results[i] = reflect.ValueOf(&err).Elem()
				}
			case err == nil && i < len(res) && res[i].IsValid():
				results[i] = fit(res[i], t)
			default:
				results[i] = reflect.Zero(t)
			}
		}
		return results
	})
}

// sameShape reports whether the func types a and b have identical parameter
// and result lists. Their names may differ.
func sameShape(a, b reflect.Type) bool {
	if a.Kind() != reflect.Func || b.Kind() != reflect.Func {
		return false
	}
	if a.NumIn() != b.NumIn() || a.NumOut() != b.NumOut() || a.IsVariadic() != b.IsVariadic() {
		return false
	}
	for i := range a.NumIn() {
		if a.In(i) != b.In(i) {
			return false
		}
	}
	for i := range a.NumOut() {
		if a.Out(i) != b.Out(i) {
			return false
		}
	}
	return true
}

// asShape converts fn to shape when one is given.
func asShape(fn reflect.Value, shape reflect.Type) reflect.Value {
	if !fn.IsValid() || shape == nil || fn.Type() == shape {
		return fn
	}
	return fn.Convert(shape)
}

// fit adapts v to t, dereferencing or boxing one pointer level when needed.
func fit(v reflect.Value, t reflect.Type) reflect.Value {
	v = reflectx.Expose(v)
	switch vt := v.Type(); {
	case vt == t:
		return v
	case vt.AssignableTo(t):
		out := reflect.New(t).Elem()
		out.Set(v)
		return out
	case vt.Kind() == reflect.Pointer && vt.Elem() == t && !v.IsNil():
		return v.Elem()
	case t.Kind() == reflect.Pointer && t.Elem() == vt:
		box := reflect.New(vt)
		box.Elem().Set(v)
		return box
	default:
		return v
	}
}

// fits reports whether fit can adapt values of type from to t.
func fits(from, t reflect.Type) bool {
	return from.AssignableTo(t) ||
		(from.Kind() == reflect.Pointer && from.Elem() == t) ||
		(t.Kind() == reflect.Pointer && t.Elem() == from)
}

func types(fn reflect.Type) (in, out []reflect.Type) {
	in = make([]reflect.Type, fn.NumIn())
	for i := range in {
		in[i] = fn.In(i)
	}
	out = make([]reflect.Type, fn.NumOut())
	for i := range out {
		out[i] = fn.Out(i)
	}
	return in, out
}
