package core

import (
	"fmt"
	"reflect"

	"github.com/anoideaopen/limitless/core/binder"
	"github.com/anoideaopen/limitless/core/operator"
	"github.com/anoideaopen/limitless/core/typeinfo"
)

// Event is a subscription point of a target. Handlers are converted to the
// handler type of the event before they are attached or detached.
type Event struct {
	engine *Engine
	root   reflect.Value
	owner  reflect.Type
	info   *typeinfo.EventInfo
}

// Name returns the name of the event.
func (e *Event) Name() string {
	return e.info.Name
}

// HandlerType returns the func type handlers are converted to.
func (e *Event) HandlerType() reflect.Type {
	return e.info.Handler
}

// Add attaches handler. It may be a func convertible to the handler type, an
// *Invokable, a proxy over a func, or a slice of such funcs. A nil handler is
// ignored.
func (e *Event) Add(handler any) error {
	return e.apply(handler, true, e.info.Add)
}

// Remove detaches handler, identified by closure identity. An *Invokable
// detaches the delegate it was attached as on the same receiver.
func (e *Event) Remove(handler any) error {
	return e.apply(handler, false, e.info.Remove)
}

// BinaryOp attaches the handler for AddAssign and detaches it for
// SubAssign, returning the event itself.
func (e *Event) BinaryOp(kind operator.Kind, handler any) (any, error) {
	var err error
	switch kind {
	case operator.AddAssign:
		err = e.Add(handler)
	case operator.SubAssign:
		err = e.Remove(handler)
	default:
		return nil, newMemberError(ErrOperatorNotFound, e.owner, kind.String(), nil)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Raise calls the attached handlers with args and returns the results of
// the last one.
func (e *Event) Raise(args ...any) (any, error) {
	if !e.info.CanRaise() {
		return nil, newMemberError(ErrEventUnavailable, e.owner, e.info.Name, nil)
	}

	res, ok := binder.Bind([]binder.Candidate{funcCandidate{reflect.Zero(e.info.Handler)}}, args, binder.CallInfo{})
	if !ok {
		return nil, newMemberError(ErrNoMatchingMethod, e.owner, e.info.Name, nil)
	}

	out, err := e.info.Raise(e.root, res.Args)
	if err != nil {
		return nil, err
	}
	return e.engine.results(out), nil
}

func (e *Event) apply(handler any, attach bool, op func(root, h reflect.Value) error) error {
	handlers, err := e.handlers(handler, attach)
	if err != nil {
		return err
	}
	for _, h := range handlers {
		if err := op(e.root, h); err != nil {
			return newMemberError(ErrEventUnavailable, e.owner, e.info.Name, err)
		}
	}
	return nil
}

// handlers converts handler to values of the exact handler type.
func (e *Event) handlers(handler any, attach bool) ([]reflect.Value, error) {
	if inv, ok := handler.(*Invokable); ok {
		delegate := e.engine.handlers.detach
		if attach {
			delegate = e.engine.handlers.attach
		}
		fn, err := delegate(inv, e.info.Handler)
		if err != nil {
			return nil, err
		}
		handler = fn
	}

	v, _ := binder.Underlying(handler)
	if !v.IsValid() {
		return nil, nil
	}

	ht := e.info.Handler
	switch {
	case v.Type() == ht:
		return []reflect.Value{v}, nil
	case v.Kind() == reflect.Func && v.Type().ConvertibleTo(ht):
		if v.IsNil() {
			return nil, nil
		}
		return []reflect.Value{v.Convert(ht)}, nil
	case v.Kind() == reflect.Slice || v.Kind() == reflect.Array:
		out := make([]reflect.Value, 0, v.Len())
		for i := range v.Len() {
			hs, err := e.handlers(v.Index(i).Interface(), attach)
			if err != nil {
				return nil, err
			}
			out = append(out, hs...)
		}
		return out, nil
	}

	return nil, newMemberError(ErrTypeMismatch, e.owner, fmt.Sprintf("%s handler %s", e.info.Name, v.Type()), nil)
}
