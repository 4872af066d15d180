package delegates

import (
	"reflect"

	"github.com/anoideaopen/limitless/core/telemetry"
	"github.com/anoideaopen/limitless/core/typeinfo"
)

// Method returns a func of type shape calling the method name of t. Static
// methods are matched first. Instance methods are bound to target, or take
// the receiver as their first parameter when target is invalid. The match
// is structural: parameter and result types must be identical.
func (r *Resolver) Method(t reflect.Type, name string, shape reflect.Type, target reflect.Value) (reflect.Value, bool) {
	if t == nil || shape == nil || shape.Kind() != reflect.Func {
		return reflect.Value{}, false
	}

	bound := target.IsValid()
	k := key{kind: telemetry.ResolveMethod, name: name, a: t, shape: shape, instance: bound}
	m, ok := r.member(k, func() *typeinfo.MethodInfo {
		return match(r.cache.Get(t).Methods(name), shape, bound)
	})
	if !ok {
		return reflect.Value{}, false
	}

	return bind(m, shape, target)
}

// Property returns a func of type shape calling an accessor of the property
// name of t: the setter when shape returns nothing, the getter otherwise.
func (r *Resolver) Property(t reflect.Type, name string, shape reflect.Type, target reflect.Value) (reflect.Value, bool) {
	if t == nil || shape == nil || shape.Kind() != reflect.Func {
		return reflect.Value{}, false
	}

	bound := target.IsValid()
	k := key{kind: telemetry.ResolveProperty, name: name, a: t, shape: shape, instance: bound}
	m, ok := r.member(k, func() *typeinfo.MethodInfo {
		p, ok := r.cache.Get(t).Property(name)
		if !ok {
			return nil
		}
		accessor := p.Getter
		if shape.NumOut() == 0 {
			accessor = p.Setter
		}
		if accessor == nil {
			return nil
		}
		return match([]*typeinfo.MethodInfo{accessor}, shape, bound)
	})
	if !ok {
		return reflect.Value{}, false
	}

	return bind(m, shape, target)
}

// Bind returns the first method of group matching shape as a func of that
// type, with the same rules as Method. The group may hold instantiations.
func Bind(group []*typeinfo.MethodInfo, shape reflect.Type, target reflect.Value) (reflect.Value, bool) {
	if shape == nil || shape.Kind() != reflect.Func {
		return reflect.Value{}, false
	}
	m := match(group, shape, target.IsValid())
	if m == nil {
		return reflect.Value{}, false
	}
	return bind(m, shape, target)
}

func match(group []*typeinfo.MethodInfo, shape reflect.Type, bound bool) *typeinfo.MethodInfo {
	for _, m := range group {
		if m.Static && m.GenericArity() == 0 && sameShape(m.Type(), shape) {
			return m
		}
	}
	for _, m := range group {
		if !m.Static && m.GenericArity() == 0 && sameShape(delegateType(m, bound), shape) {
			return m
		}
	}
	return nil
}

// delegateType is the type of m as a delegate, bound to a receiver or taking
// it first.
func delegateType(m *typeinfo.MethodInfo, bound bool) reflect.Type {
	sig := m.Signature()
	_, out := types(m.Type())
	in := sig.In
	if !bound {
		in = append([]reflect.Type{m.Receiver()}, in...)
	}
	return reflect.FuncOf(in, out, sig.Variadic)
}

func bind(m *typeinfo.MethodInfo, shape reflect.Type, target reflect.Value) (reflect.Value, bool) {
	switch {
	case m.Static:
		return asShape(m.Func(), shape), true
	case target.IsValid():
		fn, ok := m.Bound(target)
		if !ok {
			return reflect.Value{}, false
		}
		return asShape(fn, shape), true
	case m.Func().IsValid():
		return asShape(m.Func(), shape), true
	}

	in, out := types(shape)
	fn := makeFunc(in, out, func(args []reflect.Value) ([]reflect.Value, error) {
		return m.Invoke(args[0], args[1:])
	})
	return asShape(fn, shape), true
}
