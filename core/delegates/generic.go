package delegates

import (
	"reflect"

	"github.com/anoideaopen/limitless/core/operator"
)

// Converter returns the typed converter from S to D.
func Converter[S, D any](r *Resolver) (func(S) (D, error), bool) {
	fn, ok := r.Converter(reflect.TypeFor[S](), reflect.TypeFor[D](), reflect.TypeFor[func(S) (D, error)]())
	if !ok {
		return nil, false
	}
	return fn.Interface().(func(S) (D, error)), true //nolint:forcetypeassert
}

// Binary returns the typed binary operator kind over L and R producing Res.
func Binary[L, R, Res any](r *Resolver, kind operator.Kind) (func(L, R) Res, bool) {
	shape := reflect.TypeFor[func(L, R) Res]()
	fn, ok := r.Operator(kind, reflect.TypeFor[L](), reflect.TypeFor[R](), reflect.TypeFor[Res](), shape)
	if !ok {
		return nil, false
	}
	return fn.Interface().(func(L, R) Res), true //nolint:forcetypeassert
}

// Unary returns the typed unary operator kind over T producing Res.
func Unary[T, Res any](r *Resolver, kind operator.Kind) (func(T) Res, bool) {
	shape := reflect.TypeFor[func(T) Res]()
	fn, ok := r.Operator(kind, reflect.TypeFor[T](), nil, reflect.TypeFor[Res](), shape)
	if !ok {
		return nil, false
	}
	return fn.Interface().(func(T) Res), true //nolint:forcetypeassert
}

// Method returns the method name of t as a func of type F, bound to target
// unless target is nil.
func Method[F any](r *Resolver, t reflect.Type, name string, target any) (F, bool) {
	var zero F
	fn, ok := r.Method(t, name, reflect.TypeFor[F](), reflect.ValueOf(target))
	if !ok {
		return zero, false
	}
	return fn.Interface().(F), true //nolint:forcetypeassert
}

// Property returns an accessor of the property name of t as a func of type
// F, bound to target unless target is nil.
func Property[F any](r *Resolver, t reflect.Type, name string, target any) (F, bool) {
	var zero F
	fn, ok := r.Property(t, name, reflect.TypeFor[F](), reflect.ValueOf(target))
	if !ok {
		return zero, false
	}
	return fn.Interface().(F), true //nolint:forcetypeassert
}
