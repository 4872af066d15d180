package core

import (
	"iter"
	"reflect"

	"github.com/anoideaopen/limitless/core/binder"
	"github.com/anoideaopen/limitless/core/reflectx"
	"github.com/anoideaopen/limitless/core/typeinfo"
)

// KeyValue is an element of a map or of an iter.Seq2. Key and Value are
// wrapped like any other value handed out by a proxy.
type KeyValue struct {
	Key   any
	Value any
}

// Enumerator walks the elements of a target. Elements are wrapped when they
// are read through Current.
type Enumerator struct {
	engine *Engine

	open    func() (next func() (reflect.Value, bool), stop func())
	next    func() (reflect.Value, bool)
	stop    func()
	reset   func() error
	current reflect.Value
}

// GetEnumerator returns an enumerator over the target. Slices, arrays,
// strings, maps, channels, iter.Seq and iter.Seq2 funcs are enumerable, and so
// are values with a Next() bool method and a Current or Value method.
func (l *Limitless) GetEnumerator() (*Enumerator, error) {
	en, ok := l.engine.enumerator(l.target, l.info)
	if !ok {
		return nil, l.missing(ErrNotEnumerable, "")
	}
	return en, nil
}

// All returns the elements of the target as a sequence. A target that is not
// enumerable yields nothing.
func (l *Limitless) All() iter.Seq[any] {
	return func(yield func(any) bool) {
		en, err := l.GetEnumerator()
		if err != nil {
			return
		}
		defer en.Close()

		for en.MoveNext() {
			if !yield(en.Current()) {
				return
			}
		}
	}
}

func (e *Engine) enumerator(v reflect.Value, info *typeinfo.TypeInfo) (*Enumerator, bool) {
	if !v.IsValid() {
		return nil, false
	}

	en := &Enumerator{engine: e}
	switch seq := reflectx.Indirect(v); seq.Kind() {
	case reflect.Slice, reflect.Array:
		en.open = func() (func() (reflect.Value, bool), func()) {
			return indexed(seq), nil
		}
	case reflect.String:
		runes := reflect.ValueOf([]rune(seq.String()))
		en.open = func() (func() (reflect.Value, bool), func()) {
			return indexed(runes), nil
		}
	case reflect.Map:
		en.open = func() (func() (reflect.Value, bool), func()) {
			it := seq.MapRange()
			return func() (reflect.Value, bool) {
				if !it.Next() {
					return reflect.Value{}, false
				}
				return reflect.ValueOf(KeyValue{Key: e.wrap(it.Key()), Value: e.wrap(it.Value())}), true
			}, nil
		}
	case reflect.Chan:
		if seq.Type().ChanDir()&reflect.RecvDir == 0 {
			return nil, false
		}
		en.next = seq.Recv
		return en, true
	case reflect.Func:
		if !isSeq(seq.Type()) || seq.IsNil() {
			return nil, false
		}
		en.open = func() (func() (reflect.Value, bool), func()) {
			return iter.Pull(e.pull(seq))
		}
	default:
		if !en.protocol(v, info) {
			return nil, false
		}
		return en, true
	}

	en.reset = func() error {
		en.Close()
		en.next, en.stop = en.open()
		return nil
	}
	en.next, en.stop = en.open()
	return en, true
}

func indexed(seq reflect.Value) func() (reflect.Value, bool) {
	i := -1
	return func() (reflect.Value, bool) {
		i++
		if i >= seq.Len() {
			return reflect.Value{}, false
		}
		return seq.Index(i), true
	}
}

// isSeq reports whether t has the shape of iter.Seq or iter.Seq2.
func isSeq(t reflect.Type) bool {
	if t.NumIn() != 1 || t.NumOut() != 0 {
		return false
	}
	yield := t.In(0)
	return yield.Kind() == reflect.Func &&
		(yield.NumIn() == 1 || yield.NumIn() == 2) &&
		yield.NumOut() == 1 && yield.Out(0).Kind() == reflect.Bool
}

// pull adapts a reflected iter.Seq or iter.Seq2 so it can be pulled.
func (e *Engine) pull(seq reflect.Value) iter.Seq[reflect.Value] {
	yt := seq.Type().In(0)
	return func(yield func(reflect.Value) bool) {
		y := reflect.MakeFunc(yt, func(args []reflect.Value) []reflect.Value {
			v := args[0]
			if len(args) == 2 {
				v = reflect.ValueOf(KeyValue{Key: e.wrap(args[0]), Value: e.wrap(args[1])})
			}
			return []reflect.Value{reflect.ValueOf(yield(v)).Convert(yt.Out(0))}
		})
		seq.Call([]reflect.Value{y})
	}
}

// protocol enumerates a value through its Next, Current or Value, and Reset
// methods.
func (en *Enumerator) protocol(v reflect.Value, info *typeinfo.TypeInfo) bool {
	if info == nil || len(info.Methods("Next")) == 0 {
		return false
	}

	current := "Current"
	if len(info.Methods(current)) == 0 {
		if _, ok := info.Property(current); !ok {
			current = "Value"
		}
	}

	en.next = func() (reflect.Value, bool) {
		inv, ok := info.TryInvoke(v, "Next", nil, binder.CallInfo{})
		if !ok || inv.Err != nil || len(inv.Results) == 0 || inv.Results[0].Kind() != reflect.Bool || !inv.Results[0].Bool() {
			return reflect.Value{}, false
		}
		if out, ok, err := info.TryGetValue(v, current); ok && err == nil {
			return out, true
		}
		inv, ok = info.TryInvoke(v, current, nil, binder.CallInfo{})
		if !ok || inv.Err != nil || len(inv.Results) == 0 {
			return reflect.Value{}, true
		}
		return inv.Results[0], true
	}

	if len(info.Methods("Reset")) > 0 {
		en.reset = func() error {
			inv, ok := info.TryInvoke(v, "Reset", nil, binder.CallInfo{})
			if !ok {
				return ErrResetUnsupported
			}
			return inv.Err
		}
	}
	return true
}

// MoveNext advances to the next element and reports whether there is one.
func (en *Enumerator) MoveNext() bool {
	v, ok := en.next()
	if !ok {
		en.current = reflect.Value{}
		return false
	}
	en.current = v
	return true
}

// Current returns the element MoveNext advanced to, wrapped.
func (en *Enumerator) Current() any {
	return en.engine.wrap(en.current)
}

// Reset rewinds the enumerator to before the first element.
func (en *Enumerator) Reset() error {
	if en.reset == nil {
		return ErrResetUnsupported
	}
	en.current = reflect.Value{}
	return en.reset()
}

// Close releases the resources held by a pulled sequence.
func (en *Enumerator) Close() {
	if en.stop != nil {
		en.stop()
		en.stop = nil
	}
}
