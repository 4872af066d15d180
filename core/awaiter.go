package core

import (
	"reflect"

	"github.com/anoideaopen/limitless/core/binder"
	"github.com/anoideaopen/limitless/core/reflectx"
	"github.com/anoideaopen/limitless/core/typeinfo"
)

// Awaiter waits for the result of a value. Values with OnCompleted and
// GetResult members are driven through them, channels deliver their next
// element, and anything else is ready at once with itself as the result.
type Awaiter struct {
	engine *Engine
	target reflect.Value
	info   *typeinfo.TypeInfo

	received bool
	result   reflect.Value
}

// GetAwaiter returns an awaiter for the target. A GetAwaiter member taking
// no arguments is called first and the awaiter waits on its result.
func (l *Limitless) GetAwaiter() (*Awaiter, error) {
	target := l.target
	if inv, ok := l.info.TryInvoke(l.target, "GetAwaiter", nil, binder.CallInfo{}); ok {
		if inv.Err != nil {
			return nil, inv.Err
		}
		if len(inv.Results) > 0 {
			target = inv.Results[0]
		}
	}

	if target.Kind() == reflect.Interface && !target.IsNil() {
		target = target.Elem()
	}
	if a, ok := reflectx.Interface(target).(*Awaiter); ok {
		return a, nil
	}

	a := &Awaiter{engine: l.engine, target: target}
	if target.IsValid() {
		a.info = l.engine.cache.Get(target.Type())
	}
	return a, nil
}

// GetAwaiter returns a itself.
func (a *Awaiter) GetAwaiter() *Awaiter {
	return a
}

// OnCompleted registers fn to run once the result is available. Without an
// OnCompleted member on the target fn runs immediately.
func (a *Awaiter) OnCompleted(fn func()) {
	if a.info != nil {
		if inv, ok := a.info.TryInvoke(a.target, "OnCompleted", []any{fn}, binder.CallInfo{}); ok && inv.Err == nil {
			return
		}
	}
	fn()
}

// IsCompleted reports whether GetResult would return without waiting.
func (a *Awaiter) IsCompleted() bool {
	if a.info == nil || a.received {
		return true
	}
	if v, ok, err := a.info.TryGetValue(a.target, "IsCompleted"); ok && err == nil && v.Kind() == reflect.Bool {
		return v.Bool()
	}
	if inv, ok := a.info.TryInvoke(a.target, "IsCompleted", nil, binder.CallInfo{}); ok && inv.Err == nil &&
		len(inv.Results) == 1 && inv.Results[0].Kind() == reflect.Bool {
		return inv.Results[0].Bool()
	}
	if a.receivable() {
		return a.poll()
	}
	return true
}

func (a *Awaiter) receivable() bool {
	return a.target.Kind() == reflect.Chan && a.target.Type().ChanDir()&reflect.RecvDir != 0
}

// poll receives from the target channel without blocking.
func (a *Awaiter) poll() bool {
	chosen, v, ok := reflect.Select([]reflect.SelectCase{
		{Dir: reflect.SelectRecv, Chan: a.target},
		{Dir: reflect.SelectDefault},
	})
	if chosen != 0 {
		return false
	}
	a.received = true
	if ok {
		a.result = v
	}
	return true
}

// GetResult returns the result of the target: the results of its GetResult
// member, the next element of a channel (nil once it is closed), or the
// target itself.
func (a *Awaiter) GetResult() (any, error) {
	if a.info == nil {
		return nil, nil
	}

	if inv, ok := a.info.TryInvoke(a.target, "GetResult", nil, binder.CallInfo{}); ok {
		if inv.Err != nil {
			return nil, inv.Err
		}
		return a.engine.results(inv.Results), nil
	}

	if a.receivable() {
		if !a.received {
			a.received = true
			if v, ok := a.target.Recv(); ok {
				a.result = v
			}
		}
		return a.engine.wrap(a.result), nil
	}

	return a.engine.wrap(a.target), nil
}
