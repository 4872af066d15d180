package core

import (
	"fmt"
	"reflect"

	"github.com/anoideaopen/limitless/core/binder"
	"github.com/anoideaopen/limitless/core/delegates"
	"github.com/anoideaopen/limitless/core/reflectx"
	"github.com/anoideaopen/limitless/core/typeinfo"
)

// Invokable is a method group bound to the target it was read from.
type Invokable struct {
	engine *Engine
	target reflect.Value
	owner  reflect.Type
	name   string
	group  typeinfo.OverloadGroup
}

// Name returns the name of the method group.
func (inv *Invokable) Name() string {
	return inv.name
}

// Group returns the methods of the group.
func (inv *Invokable) Group() typeinfo.OverloadGroup {
	return inv.group
}

// Of instantiates the generic methods of the group taking exactly
// len(typeArgs) type arguments. A type argument is a reflect.Type, a
// registered type name or a static proxy.
func (inv *Invokable) Of(typeArgs ...any) (*Invokable, error) {
	types := make([]reflect.Type, len(typeArgs))
	for i, typeLike := range typeArgs {
		t, err := inv.engine.typeOf(typeLike)
		if err != nil {
			return nil, err
		}
		types[i] = t
	}

	group := inv.group.Of(types...)
	if len(group) == 0 {
		return nil, newMemberError(ErrNoMatchingMethod, inv.owner, fmt.Sprintf("%s%v", inv.name, types), nil)
	}

	inv.engine.log.WithField("member", inv.name).
		WithField("types", fmt.Sprint(types)).
		Debug("generic methods instantiated")

	return &Invokable{
		engine: inv.engine,
		target: inv.target,
		owner:  inv.owner,
		name:   inv.name,
		group:  group,
	}, nil
}

// TryInvoke calls the best matching method of the group.
func (inv *Invokable) TryInvoke(args []any, info binder.CallInfo) (any, bool, error) {
	res, ok := inv.group.TryInvoke(inv.target, args, info)
	if !ok {
		return nil, false, nil
	}
	inv.engine.invoked(inv.owner, inv.name, res)
	inv.engine.writeBack(args, res.Values)
	if res.Err != nil {
		return nil, true, res.Err
	}
	return inv.engine.results(res.Results), true, nil
}

// Invoke calls the best matching method of the group with args. Coerced
// arguments are written back into args.
func (inv *Invokable) Invoke(args ...any) (any, error) {
	return inv.InvokeNamed(nil, args...)
}

// InvokeNamed calls the best matching method of the group. The last
// len(names) arguments are passed by parameter name.
func (inv *Invokable) InvokeNamed(names []string, args ...any) (any, error) {
	v, ok, err := inv.TryInvoke(args, binder.CallInfo{Names: names})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, newMemberError(ErrNoMatchingMethod, inv.owner, inv.name, nil)
	}
	return v, nil
}

// TryConvert returns a func of type t calling a method of the group.
func (inv *Invokable) TryConvert(t reflect.Type) (any, bool, error) {
	fn, ok := delegates.Bind(inv.group, t, inv.target)
	if !ok {
		return nil, false, nil
	}
	return reflectx.Interface(fn), true, nil
}

// CreateDelegate returns a func of type funcType calling the method of the
// group with exactly its parameters and results. Static methods are tried
// first, then instance methods bound to the target of the group.
func (inv *Invokable) CreateDelegate(funcType reflect.Type) (any, error) {
	fn, ok, _ := inv.TryConvert(funcType)
	if !ok {
		return nil, newMemberError(ErrNoMatchingMethod, inv.owner, fmt.Sprintf("%s as %v", inv.name, funcType), nil)
	}
	return fn, nil
}

// Delegate is CreateDelegate returning the typed func.
func Delegate[F any](inv *Invokable) (F, error) {
	var zero F
	fn, err := inv.CreateDelegate(reflect.TypeFor[F]())
	if err != nil {
		return zero, err
	}
	return fn.(F), nil //nolint:forcetypeassert
}
