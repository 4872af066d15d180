package delegates

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/anoideaopen/limitless/core/binder"
	"github.com/anoideaopen/limitless/core/reflectx"
	"github.com/anoideaopen/limitless/core/telemetry"
)

// ErrInvalidCast is returned by a narrowing converter when the value does not
// hold the destination type.
var ErrInvalidCast = errors.New("invalid cast")

type conversion func(v reflect.Value) (reflect.Value, error)

// Converter returns a func converting values of type src to dst. Without a
// shape the func is func(src) (dst, error); a shape must be a func type with
// the single parameter src and the result dst, optionally followed by error.
//
// The strategies are tried in order: identity when src is assignable to dst,
// a checked narrowing when dst is assignable to src, a declared conversion
// (on dst, then on src), the builtin numeric table when both types are
// predeclared numbers, and a runtime change of type when it is plausible.
func (r *Resolver) Converter(src, dst, shape reflect.Type) (reflect.Value, bool) {
	if src == nil || dst == nil {
		return reflect.Value{}, false
	}

	in, out := []reflect.Type{src}, []reflect.Type{dst, errorType}
	if shape != nil {
		if shape.Kind() != reflect.Func || shape.NumIn() != 1 || shape.In(0) != src ||
			shape.NumOut() == 0 || shape.NumOut() > 2 || shape.Out(0) != dst ||
			(shape.NumOut() == 2 && shape.Out(1) != errorType) {
			return reflect.Value{}, false
		}
		in, out = types(shape)
	}

	return r.lookup(key{kind: telemetry.ResolveConverter, a: src, b: dst, shape: shape}, func() reflect.Value {
		conv := r.conversion(src, dst)
		if conv == nil {
			return reflect.Value{}
		}
		fn := makeFunc(in, out, func(args []reflect.Value) ([]reflect.Value, error) {
			v, err := conv(args[0])
			if err != nil {
				return nil, err
			}
			return []reflect.Value{v}, nil
		})
		return asShape(fn, shape)
	})
}

// Convert converts v to dst with the converter resolved for its type.
func (r *Resolver) Convert(v reflect.Value, dst reflect.Type) (reflect.Value, error) {
	if !v.IsValid() {
		if binder.IsNillable(dst) {
			return reflect.Zero(dst), nil
		}
		return reflect.Value{}, fmt.Errorf("%w: nil to %s", ErrInvalidCast, dst)
	}
	v = reflectx.Expose(v)

	fn, ok := r.Converter(v.Type(), dst, nil)
	if !ok {
		return reflect.Value{}, fmt.Errorf("%w: %s to %s", reflectx.ErrNotConvertible, v.Type(), dst)
	}
	out, err := reflectx.Call(fn, []reflect.Value{v})
	if err != nil {
		return reflect.Value{}, err
	}
	return out[0], nil
}

func (r *Resolver) conversion(src, dst reflect.Type) conversion {
	switch {
	case src.AssignableTo(dst):
		return func(v reflect.Value) (reflect.Value, error) {
			return fit(v, dst), nil
		}
	case dst.AssignableTo(src):
		return narrowing(dst)
	}

	if conv := r.declared(src, dst); conv != nil {
		return conv
	}

	if reflectx.IsBuiltinNumeric(src) && reflectx.IsBuiltinNumeric(dst) {
		n := numerics[dst.Kind()]
		return func(v reflect.Value) (reflect.Value, error) {
			return n.to(v), nil
		}
	}

	if reflectx.Plausible(src, dst) {
		return func(v reflect.Value) (reflect.Value, error) {
			return reflectx.ChangeType(v, dst)
		}
	}

	return nil
}

// narrowing asserts that a value of a wider type holds a dst.
func narrowing(dst reflect.Type) conversion {
	return func(v reflect.Value) (reflect.Value, error) {
		inner := v
		if inner.Kind() == reflect.Interface {
			if inner.IsNil() {
				if binder.IsNillable(dst) {
					return reflect.Zero(dst), nil
				}
				return reflect.Value{}, fmt.Errorf("%w: nil to %s", ErrInvalidCast, dst)
			}
			inner = inner.Elem()
		}
		if !inner.Type().AssignableTo(dst) {
			return reflect.Value{}, fmt.Errorf("%w: %s to %s", ErrInvalidCast, inner.Type(), dst)
		}
		return fit(inner, dst), nil
	}
}

// declared finds a registered conversion, looking at dst first.
func (r *Resolver) declared(src, dst reflect.Type) conversion {
	if c, ok := r.cache.Get(dst).ConverterFrom(src); ok && fits(c.To, dst) {
		return r.apply(c.Func(), c.From, dst)
	}
	if c, ok := r.cache.Get(src).ConverterTo(dst); ok && fits(src, c.From) && fits(c.To, dst) {
		return r.apply(c.Func(), c.From, dst)
	}

	// A pointer source may match a conversion declared on its element.
	if src.Kind() == reflect.Pointer {
		if c, ok := r.cache.Get(dst).ConverterFrom(src.Elem()); ok && fits(c.To, dst) {
			return r.apply(c.Func(), c.From, dst)
		}
	}

	return nil
}

func (r *Resolver) apply(fn reflect.Value, from, dst reflect.Type) conversion {
	return func(v reflect.Value) (reflect.Value, error) {
		out, err := reflectx.Call(fn, []reflect.Value{fit(v, from)})
		if err != nil {
			return reflect.Value{}, err
		}
		return fit(out[0], dst), nil
	}
}
