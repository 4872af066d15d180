package core

import (
	"fmt"
	"reflect"

	"github.com/anoideaopen/limitless/core/binder"
	"github.com/anoideaopen/limitless/core/reflectx"
	"github.com/anoideaopen/limitless/core/typeinfo"
	"github.com/sirupsen/logrus"
)

// proxy builds a proxy over v seen as t. A nil t takes the dynamic type of
// v. Struct and array values are boxed so their fields stay writable.
func (e *Engine) proxy(v reflect.Value, t reflect.Type) *Limitless {
	if v.IsValid() {
		v = reflectx.Expose(v)
		if v.Kind() == reflect.Interface && !v.IsNil() {
			v = v.Elem()
		}
		if t == nil {
			t = v.Type()
		}
		if k := v.Kind(); k == reflect.Struct || k == reflect.Array {
			v = reflectx.Addressable(v)
		}
	}

	return &Limitless{
		engine: e,
		target: v,
		typ:    t,
		info:   e.cache.Get(t),
	}
}

// wrap hands a value out to the caller: nil for nil values, primitives and
// proxies as they are, anything else behind a new proxy.
func (e *Engine) wrap(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}

	v = reflectx.Expose(v)
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if v.IsNil() {
			return nil
		}
	}

	if reflectx.IsPrimitive(v.Type()) {
		return reflectx.Interface(v)
	}
	if v.CanInterface() {
		switch x := v.Interface().(type) {
		case *Limitless, *Invokable, *Event, *Awaiter, *Enumerator, KeyValue:
			return x
		}
	}

	return e.proxy(v, nil)
}

// results collapses call results: nil for none, the wrapped value for one
// and a []any of wrapped values for more.
func (e *Engine) results(out []reflect.Value) any {
	return reflectx.Outputs(out, e.wrap)
}

// writeBack stores the coerced arguments of a call in the caller's slice.
// Proxies whose target already has the coerced type are kept.
func (e *Engine) writeBack(args []any, values []reflect.Value) {
	for i := 0; i < len(args) && i < len(values); i++ {
		if !values[i].IsValid() {
			continue
		}
		if w, ok := args[i].(binder.Wrapped); ok {
			if v, _ := w.UnwrapTarget(); !v.IsValid() || v.Type() == values[i].Type() {
				continue
			}
		}
		args[i] = e.wrap(values[i])
	}
}

// invoked records the outcome of a method call worth a diagnostic.
func (e *Engine) invoked(owner reflect.Type, name string, inv typeinfo.Invocation) {
	if !inv.Ambiguous {
		return
	}
	e.log.WithFields(logrus.Fields{
		"type":   fmt.Sprint(owner),
		"member": name,
		"method": inv.Method.Name,
	}).Debug("ambiguous call bound to the first compatible overload")
}

type funcCandidate struct {
	fn reflect.Value
}

func (c funcCandidate) Signature() binder.Signature {
	return binder.SignatureOf(c.fn.Type(), 0)
}

// call binds args against a func value and calls it.
func (e *Engine) call(fn reflect.Value, args []any, info binder.CallInfo) (any, bool, error) {
	res, ok := binder.Bind([]binder.Candidate{funcCandidate{fn}}, args, info)
	if !ok {
		return nil, false, nil
	}

	out, err := reflectx.Call(fn, res.Args)
	e.writeBack(args, res.Values)
	if err != nil {
		return nil, true, err
	}
	return e.results(out), true, nil
}

// typeOf resolves a type-like value: a reflect.Type, a registered type name,
// or a static proxy.
func (e *Engine) typeOf(typeLike any) (reflect.Type, error) {
	switch x := typeLike.(type) {
	case reflect.Type:
		return x, nil
	case string:
		return e.cache.TypeByName(x)
	case *Limitless:
		if !x.target.IsValid() {
			return x.typ, nil
		}
		if t, ok := reflectx.Interface(x.target).(reflect.Type); ok {
			return t, nil
		}
	}
	return nil, newMemberError(ErrTypeNotFound, reflect.TypeOf(typeLike), "", nil)
}
