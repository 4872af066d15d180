// Package core gives dynamic access to the members of Go values and types.
//
// A Limitless proxy wraps either a value or, for static access, a bare type.
// Members are looked up by name at run time whatever their visibility:
// fields (exported, unexported and promoted), properties inferred from
// accessor methods, indexers, methods with their registered overloads and
// generic instantiations, constructors, operators, conversions and events.
// Values handed out by a proxy are wrapped in turn, so nested unexported
// members stay reachable, and proxies passed as arguments are unwrapped
// before the call.
//
// Members Go cannot reflect (package-level functions, unexported methods,
// constructors, conversions) are registered on a typeinfo.Cache before the
// type is first used:
//
//	typeinfo.Default().MustRegister(reflect.TypeFor[account](),
//		typeinfo.Constructor(newAccount, typeinfo.Params("owner")),
//		typeinfo.Method("audit", (*account).audit),
//	)
//
//	acc, err := core.Construct(reflect.TypeFor[account](), "alice")
//	balance, err := acc.GetMember("balance")
//	_, err = acc.InvokeMember("audit")
package core

import (
	"errors"
	"fmt"
	"reflect"
	"slices"

	"github.com/anoideaopen/limitless/core/binder"
	"github.com/anoideaopen/limitless/core/operator"
	"github.com/anoideaopen/limitless/core/reflectx"
	"github.com/anoideaopen/limitless/core/typeinfo"
)

// Dynamic is implemented by values resolving member access themselves. A
// proxy over a Dynamic target forwards the operations it cannot resolve.
//
// Every method reports whether the operation was handled; the error is the
// one raised by the member itself.
type Dynamic interface {
	TryGetMember(name string) (any, bool, error)
	TrySetMember(name string, value any) (bool, error)
	TryGetIndex(keys []any) (any, bool, error)
	TrySetIndex(keys []any, value any) (bool, error)
	TryInvokeMember(name string, args []any, info binder.CallInfo) (any, bool, error)
	TryInvoke(args []any, info binder.CallInfo) (any, bool, error)
	TryBinaryOp(kind operator.Kind, arg any) (any, bool, error)
	TryUnaryOp(kind operator.Kind) (any, bool, error)
	TryConvert(t reflect.Type) (any, bool, error)
}

// Limitless is the dynamic proxy over a value or a type.
type Limitless struct {
	engine *Engine
	target reflect.Value
	typ    reflect.Type
	info   *typeinfo.TypeInfo
}

var (
	_ Dynamic        = (*Limitless)(nil)
	_ binder.Wrapped = (*Limitless)(nil)
)

// Target returns the wrapped value, nil for a static proxy.
func (l *Limitless) Target() any {
	return reflectx.Interface(l.target)
}

// Type returns the type the proxy sees its target as.
func (l *Limitless) Type() reflect.Type {
	return l.typ
}

// IsStatic reports whether the proxy has no target.
func (l *Limitless) IsStatic() bool {
	return !l.target.IsValid()
}

// UnwrapTarget returns the target and the type of the proxy.
func (l *Limitless) UnwrapTarget() (reflect.Value, reflect.Type) {
	return l.target, l.typ
}

// Inventory summarizes the members reachable through the proxy.
func (l *Limitless) Inventory() typeinfo.Inventory {
	return l.info.Inventory()
}

func (l *Limitless) String() string {
	if !l.target.IsValid() {
		return l.typ.String()
	}
	return fmt.Sprint(reflectx.Interface(l.target))
}

// indexRoot is the target seen by native indexers, which need the map,
// slice, array or string itself.
func (l *Limitless) indexRoot() reflect.Value {
	if l.target.Kind() != reflect.Pointer {
		return l.target
	}
	switch l.info.Type.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.String:
		return reflectx.Indirect(l.target)
	}
	return l.target
}

func (l *Limitless) inner() (Dynamic, bool) {
	if !l.target.IsValid() {
		return nil, false
	}
	if d, ok := reflectx.Interface(l.target).(Dynamic); ok {
		return d, true
	}
	if l.target.CanAddr() {
		if d, ok := reflectx.Interface(l.target.Addr()).(Dynamic); ok {
			return d, true
		}
	}
	return nil, false
}

func (l *Limitless) missing(sentinel error, member string) error {
	return newMemberError(sentinel, l.typ, member, nil)
}

// TryGetMember resolves name as an event, a property or field, a method
// group, a nested type, then a single-key index, before asking a Dynamic
// target.
func (l *Limitless) TryGetMember(name string) (any, bool, error) {
	if ev, ok := l.info.Event(name); ok && (ev.Static || l.target.IsValid()) {
		return &Event{engine: l.engine, root: l.target, owner: l.typ, info: ev}, true, nil
	}
	if v, ok, err := l.info.TryGetValue(l.target, name); ok {
		if err != nil {
			return nil, true, err
		}
		return l.engine.wrap(v), true, nil
	}
	if group := l.info.Methods(name); len(group) > 0 {
		return &Invokable{engine: l.engine, target: l.target, owner: l.typ, name: name, group: group}, true, nil
	}
	if t, ok := l.info.Nested(name); ok {
		return l.engine.proxy(reflect.Value{}, t), true, nil
	}
	if v, ok, err := l.info.TryGetIndex(l.indexRoot(), []any{name}); ok {
		if err != nil {
			return nil, true, err
		}
		return l.engine.wrap(v), true, nil
	}
	if d, ok := l.inner(); ok {
		return d.TryGetMember(name)
	}
	return nil, false, nil
}

// TrySetMember writes a property or field, then a single-key index, before
// asking a Dynamic target.
func (l *Limitless) TrySetMember(name string, value any) (bool, error) {
	if ok, err := l.info.TrySetValue(l.target, name, value); ok {
		return true, err
	}
	if ok, err := l.info.TrySetIndex(l.indexRoot(), []any{name}, value); ok {
		return true, err
	}
	if d, ok := l.inner(); ok {
		return d.TrySetMember(name, value)
	}
	return false, nil
}

// TryGetIndex reads through the best matching indexer.
func (l *Limitless) TryGetIndex(keys []any) (any, bool, error) {
	if v, ok, err := l.info.TryGetIndex(l.indexRoot(), keys); ok {
		if err != nil {
			return nil, true, err
		}
		return l.engine.wrap(v), true, nil
	}
	if d, ok := l.inner(); ok {
		return d.TryGetIndex(keys)
	}
	return nil, false, nil
}

// TrySetIndex writes through the best matching indexer.
func (l *Limitless) TrySetIndex(keys []any, value any) (bool, error) {
	if ok, err := l.info.TrySetIndex(l.indexRoot(), keys, value); ok {
		return true, err
	}
	if d, ok := l.inner(); ok {
		return d.TrySetIndex(keys, value)
	}
	return false, nil
}

// TryInvokeMember calls the best matching method named name, or the func
// held by the member name.
func (l *Limitless) TryInvokeMember(name string, args []any, info binder.CallInfo) (any, bool, error) {
	if group := l.info.Methods(name); len(group) > 0 {
		inv, ok := group.TryInvoke(l.target, args, info)
		if !ok {
			return nil, false, nil
		}
		l.engine.invoked(l.typ, name, inv)
		l.engine.writeBack(args, inv.Values)
		if inv.Err != nil {
			return nil, true, inv.Err
		}
		return l.engine.results(inv.Results), true, nil
	}

	if v, ok, err := l.info.TryGetValue(l.target, name); ok {
		if err != nil {
			return nil, true, err
		}
		v = reflectx.Indirect(reflectx.Expose(v))
		if v.Kind() == reflect.Interface && !v.IsNil() {
			v = v.Elem()
		}
		if v.Kind() == reflect.Func && !v.IsNil() {
			return l.engine.call(v, args, info)
		}
		return nil, false, nil
	}

	if d, ok := l.inner(); ok {
		return d.TryInvokeMember(name, args, info)
	}
	return nil, false, nil
}

// TryInvoke calls the target when it is a func.
func (l *Limitless) TryInvoke(args []any, info binder.CallInfo) (any, bool, error) {
	if l.target.Kind() == reflect.Func && !l.target.IsNil() {
		return l.engine.call(l.target, args, info)
	}
	if d, ok := l.inner(); ok {
		return d.TryInvoke(args, info)
	}
	return nil, false, nil
}

// TryBinaryOp applies the operator kind with the target as the left operand.
func (l *Limitless) TryBinaryOp(kind operator.Kind, arg any) (any, bool, error) {
	if l.engine.resolver.Table().Arity(kind) == 2 && l.target.IsValid() {
		rv, rt := binder.Underlying(arg)
		if rt != nil {
			if !rv.IsValid() {
				rv = reflect.Zero(rt)
			}
			if fn, operands, ok := l.operator(kind, []reflect.Value{l.target, rv}, []reflect.Type{l.target.Type(), rt}); ok {
				out, err := reflectx.Call(fn, operands)
				if err != nil {
					return nil, true, err
				}
				return l.engine.results(out), true, nil
			}
		}
	}
	if d, ok := l.inner(); ok {
		return d.TryBinaryOp(kind, arg)
	}
	return nil, false, nil
}

// TryUnaryOp applies the operator kind to the target.
func (l *Limitless) TryUnaryOp(kind operator.Kind) (any, bool, error) {
	if l.engine.resolver.Table().Arity(kind) == 1 && !kind.IsConversion() && l.target.IsValid() {
		if fn, operands, ok := l.operator(kind, []reflect.Value{l.target}, []reflect.Type{l.target.Type()}); ok {
			out, err := reflectx.Call(fn, operands)
			if err != nil {
				return nil, true, err
			}
			return l.engine.results(out), true, nil
		}
	}
	if d, ok := l.inner(); ok {
		return d.TryUnaryOp(kind)
	}
	return nil, false, nil
}

// operator resolves kind for the operand types, then for the operands with
// non-nil pointers dereferenced, and returns the operands to call it with.
func (l *Limitless) operator(kind operator.Kind, operands []reflect.Value, types []reflect.Type) (reflect.Value, []reflect.Value, bool) {
	resolve := func(types []reflect.Type) (reflect.Value, bool) {
		var rhs reflect.Type
		if len(types) == 2 {
			rhs = types[1]
		}
		return l.engine.resolver.Operator(kind, types[0], rhs, nil, nil)
	}

	if fn, ok := resolve(types); ok {
		return fn, operands, true
	}

	var deref bool
	elems := slices.Clone(operands)
	elemTypes := slices.Clone(types)
	for i, v := range operands {
		if v.Kind() == reflect.Pointer && !v.IsNil() {
			elems[i], elemTypes[i], deref = v.Elem(), v.Type().Elem(), true
		}
	}
	if !deref {
		return reflect.Value{}, nil, false
	}
	fn, ok := resolve(elemTypes)
	return fn, elems, ok
}

// TryConvert converts the target to t. The converted value is returned as
// it is, without a proxy.
func (l *Limitless) TryConvert(t reflect.Type) (any, bool, error) {
	if !l.target.IsValid() || t == nil {
		return nil, false, nil
	}

	v := l.target
	if t.Kind() == reflect.Pointer && t.Elem() == v.Type() && v.CanAddr() {
		return reflectx.Interface(v.Addr()), true, nil
	}

	if out, ok, err := l.engine.cache.TryCast(v, t); ok {
		if err != nil {
			return nil, true, err
		}
		return reflectx.Interface(out), true, nil
	}

	out, err := l.engine.resolver.Convert(v, t)
	switch {
	case err == nil:
		return reflectx.Interface(out), true, nil
	case !errors.Is(err, reflectx.ErrNotConvertible):
		return nil, true, err
	}

	if d, ok := l.inner(); ok {
		return d.TryConvert(t)
	}
	return nil, false, nil
}

// GetMember returns the member name: a wrapped value, an *Invokable for a
// method group, an *Event, or a static proxy for a nested type.
func (l *Limitless) GetMember(name string) (any, error) {
	v, ok, err := l.TryGetMember(name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, l.missing(ErrMemberNotFound, name)
	}
	return v, nil
}

// SetMember writes value to the member name.
func (l *Limitless) SetMember(name string, value any) error {
	ok, err := l.TrySetMember(name, value)
	if err != nil {
		return err
	}
	if !ok {
		return l.missing(ErrMemberNotFound, name)
	}
	return nil
}

// GetIndex reads the element at keys.
func (l *Limitless) GetIndex(keys ...any) (any, error) {
	v, ok, err := l.TryGetIndex(keys)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, l.missing(ErrMemberNotFound, fmt.Sprintf("%v", keys))
	}
	return v, nil
}

// SetIndex writes value at keys.
func (l *Limitless) SetIndex(value any, keys ...any) error {
	ok, err := l.TrySetIndex(keys, value)
	if err != nil {
		return err
	}
	if !ok {
		return l.missing(ErrMemberNotFound, fmt.Sprintf("%v", keys))
	}
	return nil
}

// InvokeMember calls the method name with args. Coerced arguments are
// written back into args.
func (l *Limitless) InvokeMember(name string, args ...any) (any, error) {
	return l.InvokeMemberNamed(name, nil, args...)
}

// InvokeMemberNamed calls the method name. The last len(names) arguments are
// passed by parameter name.
func (l *Limitless) InvokeMemberNamed(name string, names []string, args ...any) (any, error) {
	v, ok, err := l.TryInvokeMember(name, args, binder.CallInfo{Names: names})
	if err != nil {
		return nil, err
	}
	if !ok {
		if len(l.info.Methods(name)) > 0 {
			return nil, l.missing(ErrNoMatchingMethod, name)
		}
		return nil, l.missing(ErrMemberNotFound, name)
	}
	return v, nil
}

// Invoke calls the target with args.
func (l *Limitless) Invoke(args ...any) (any, error) {
	v, ok, err := l.TryInvoke(args, binder.CallInfo{})
	if err != nil {
		return nil, err
	}
	if !ok {
		if l.target.Kind() == reflect.Func {
			return nil, l.missing(ErrNoMatchingMethod, "")
		}
		return nil, l.missing(ErrNotInvocable, "")
	}
	return v, nil
}

// BinaryOp applies the operator kind with the target on the left and arg on
// the right.
func (l *Limitless) BinaryOp(kind operator.Kind, arg any) (any, error) {
	v, ok, err := l.TryBinaryOp(kind, arg)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, l.missing(ErrOperatorNotFound, kind.String())
	}
	return v, nil
}

// UnaryOp applies the operator kind to the target.
func (l *Limitless) UnaryOp(kind operator.Kind) (any, error) {
	v, ok, err := l.TryUnaryOp(kind)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, l.missing(ErrOperatorNotFound, kind.String())
	}
	return v, nil
}

// Convert converts the target to t.
func (l *Limitless) Convert(t reflect.Type) (any, error) {
	v, ok, err := l.TryConvert(t)
	if err != nil {
		return nil, newMemberError(ErrConversionFailed, l.typ, fmt.Sprint(t), err)
	}
	if !ok {
		return nil, newMemberError(ErrConversionFailed, l.typ, fmt.Sprint(t), nil)
	}
	return v, nil
}

// ConvertTo converts the target of l to T.
func ConvertTo[T any](l *Limitless) (T, error) {
	var zero T
	v, err := l.Convert(reflect.TypeFor[T]())
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	out, ok := v.(T)
	if !ok {
		return zero, newMemberError(ErrConversionFailed, l.typ, reflect.TypeFor[T]().String(), nil)
	}
	return out, nil
}
