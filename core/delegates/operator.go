package delegates

import (
	"reflect"
	"slices"

	"github.com/anoideaopen/limitless/core/operator"
	"github.com/anoideaopen/limitless/core/telemetry"
	"github.com/anoideaopen/limitless/core/typeinfo"
)

var (
	boolType = reflect.TypeFor[bool]()
	intType  = reflect.TypeFor[int]()
)

// Operator returns a func performing kind on operands of type lhs (and rhs
// for binary kinds). The func takes the operands in order and returns the
// results of the declaring method, a trailing error included. A nil result
// leaves the result type open; a shape must match the delegate exactly.
//
// The lhs type is searched first, then the rhs type. Past the named method
// the resolver synthesizes math/big style accumulators (z.Add(x, y)),
// comparisons derived from Cmp or Compare, and NotEqual from Equal.
func (r *Resolver) Operator(kind operator.Kind, lhs, rhs, result, shape reflect.Type) (reflect.Value, bool) {
	arity := r.table.Arity(kind)
	if lhs == nil || arity == 0 || (arity == 2 && rhs == nil) {
		return reflect.Value{}, false
	}
	if arity == 1 {
		rhs = nil
	}

	k := key{
		kind:  telemetry.ResolveOperator,
		op:    kind.Base(),
		name:  r.table.Name(kind),
		a:     lhs,
		b:     rhs,
		c:     result,
		shape: shape,
	}
	return r.lookup(k, func() reflect.Value {
		return r.operator(kind.Base(), operands(lhs, rhs), result, shape)
	})
}

func operands(lhs, rhs reflect.Type) []reflect.Type {
	if rhs == nil {
		return []reflect.Type{lhs}
	}
	return []reflect.Type{lhs, rhs}
}

func (r *Resolver) operator(kind operator.Kind, in []reflect.Type, result, shape reflect.Type) reflect.Value {
	name := r.table.Name(kind)

	owners := []reflect.Type{in[0]}
	if len(in) == 2 && in[1] != in[0] {
		owners = append(owners, in[1])
	}

	for _, t := range owners {
		if fn := r.named(t, name, in, result, shape); fn.IsValid() {
			return fn
		}
	}
	for _, t := range owners {
		if fn := r.accumulator(t, name, in, result, shape); fn.IsValid() {
			return fn
		}
	}
	if kind.IsComparison() {
		if fn := r.comparison(kind, owners, in, result, shape); fn.IsValid() {
			return fn
		}
	}

	return reflect.Value{}
}

// operatorType returns the operand list of m seen as a static func, the
// receiver first for instance methods.
func operatorType(m *typeinfo.MethodInfo) []reflect.Type {
	in := m.Signature().In
	if m.Static {
		return in
	}
	return append([]reflect.Type{m.Receiver()}, in...)
}

func receives(param, operand reflect.Type) bool {
	return param == operand || fits(operand, param) && param.Kind() != reflect.Interface
}

// named looks for a method called name taking exactly the operands.
func (r *Resolver) named(owner reflect.Type, name string, in []reflect.Type, result, shape reflect.Type) reflect.Value {
	for _, m := range r.cache.Get(owner).Methods(name) {
		if m.GenericArity() > 0 || m.Signature().Variadic {
			continue
		}
		params := operatorType(m)
		if len(params) != len(in) {
			continue
		}
		if m.Static && !slices.Equal(params, in) {
			continue
		}
		if !m.Static && (!receives(params[0], in[0]) || !slices.Equal(params[1:], in[1:])) {
			continue
		}

		_, out := types(m.Type())
		if !resultFits(out, result) {
			continue
		}
		if fn := r.invoker(m, in, out, shape); fn.IsValid() {
			return fn
		}
	}
	return reflect.Value{}
}

// accumulator looks for a math/big style method z.Op(x[, y]) T whose
// receiver is a fresh destination of the operand type.
func (r *Resolver) accumulator(owner reflect.Type, name string, in []reflect.Type, result, shape reflect.Type) reflect.Value {
	if owner.Kind() != reflect.Pointer || in[0] != owner {
		return reflect.Value{}
	}
	for _, m := range r.cache.Get(owner).Methods(name) {
		if m.Static || m.GenericArity() > 0 || m.Receiver() != owner {
			continue
		}
		if !slices.Equal(m.Signature().In, in) {
			continue
		}
		_, out := types(m.Type())
		if len(out) == 0 || out[0] != owner || !resultFits(out, result) {
			continue
		}

		dt := reflect.FuncOf(in, out, false)
		if shape != nil && !sameShape(dt, shape) {
			continue
		}
		elem := owner.Elem()
		fn := makeFunc(in, out, func(args []reflect.Value) ([]reflect.Value, error) {
			return m.Invoke(reflect.New(elem), args)
		})
		return asShape(fn, shape)
	}
	return reflect.Value{}
}

// comparison derives a relational operator from Cmp or Compare returning an
// int, and NotEqual from Equal.
func (r *Resolver) comparison(kind operator.Kind, owners, in []reflect.Type, result, shape reflect.Type) reflect.Value {
	if len(in) != 2 || (result != nil && result != boolType) {
		return reflect.Value{}
	}
	dt := reflect.FuncOf(in, []reflect.Type{boolType}, false)
	if shape != nil && !sameShape(dt, shape) {
		return reflect.Value{}
	}

	if kind == operator.NotEqual {
		eq, ok := r.Operator(operator.Equal, in[0], in[1], boolType, nil)
		if ok && eq.Type().NumOut() == 1 {
			fn := reflect.MakeFunc(dt, func(args []reflect.Value) []reflect.Value {
				return []reflect.Value{reflect.ValueOf(!eq.Call(args)[0].Bool())}
			})
			return asShape(fn, shape)
		}
	}

	for _, t := range owners {
		for _, name := range []string{"Cmp", "Compare"} {
			cmp := r.named(t, name, in, intType, nil)
			if !cmp.IsValid() || cmp.Type().NumOut() != 1 {
				continue
			}
			test := relation(kind)
			fn := reflect.MakeFunc(dt, func(args []reflect.Value) []reflect.Value {
				return []reflect.Value{reflect.ValueOf(test(int(cmp.Call(args)[0].Int())))}
			})
			return asShape(fn, shape)
		}
	}
	return reflect.Value{}
}

func relation(kind operator.Kind) func(c int) bool {
	switch kind {
	case operator.Equal:
		return func(c int) bool { return c == 0 }
	case operator.NotEqual:
		return func(c int) bool { return c != 0 }
	case operator.Greater:
		return func(c int) bool { return c > 0 }
	case operator.Less:
		return func(c int) bool { return c < 0 }
	case operator.GreaterOrEqual:
		return func(c int) bool { return c >= 0 }
	default:
		return func(c int) bool { return c <= 0 }
	}
}

// resultFits reports whether the first result of out is result. A nil result
// accepts anything but a func returning nothing.
func resultFits(out []reflect.Type, result reflect.Type) bool {
	if len(out) == 0 || (len(out) == 1 && out[0] == errorType) {
		return false
	}
	return result == nil || out[0] == result
}

// invoker wraps m into a static func over the operands.
func (r *Resolver) invoker(m *typeinfo.MethodInfo, in, out []reflect.Type, shape reflect.Type) reflect.Value {
	dt := reflect.FuncOf(in, out, false)
	if shape != nil && !sameShape(dt, shape) {
		return reflect.Value{}
	}

	var call func(args []reflect.Value) ([]reflect.Value, error)
	if m.Static {
		call = func(args []reflect.Value) ([]reflect.Value, error) {
			return m.Invoke(reflect.Value{}, args)
		}
	} else {
		call = func(args []reflect.Value) ([]reflect.Value, error) {
			return m.Invoke(args[0], args[1:])
		}
	}
	return asShape(makeFunc(in, out, call), shape)
}
