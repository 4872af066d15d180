package core

import (
	"reflect"
	"sync"

	"github.com/anoideaopen/limitless/core/typeinfo"
)

// handlerKey identifies the delegate built from a method group for one
// receiver and one event handler type.
type handlerKey struct {
	handler reflect.Type
	owner   reflect.Type
	name    string
	first   *typeinfo.MethodInfo
	recv    any
}

type pointerIdentity struct {
	t reflect.Type
	p uintptr
}

type boundHandler struct {
	fn   reflect.Value
	refs int
}

// handlerTable keeps the delegates attached to events so that the same
// method group on the same receiver converts to the same func every time.
// Entries live while at least one attachment made through them remains.
type handlerTable struct {
	mu      sync.Mutex
	entries map[handlerKey]*boundHandler
}

func newHandlerKey(inv *Invokable, handler reflect.Type) (handlerKey, bool) {
	if len(inv.group) == 0 {
		return handlerKey{}, false
	}
	recv, ok := receiverIdentity(inv.target)
	if !ok {
		return handlerKey{}, false
	}
	return handlerKey{handler: handler, owner: inv.owner, name: inv.name, first: inv.group[0], recv: recv}, true
}

// receiverIdentity returns a comparable key for v. Pointer-like values are
// keyed by address, addressable values by their location and other values
// by themselves when they are comparable.
func receiverIdentity(v reflect.Value) (any, bool) {
	if !v.IsValid() {
		return nil, true
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return pointerIdentity{t: v.Type(), p: v.Pointer()}, true
	case reflect.Slice:
		if v.Len() > 0 || v.Cap() > 0 {
			return pointerIdentity{t: v.Type(), p: v.Pointer()}, true
		}
	}
	if v.CanAddr() {
		return pointerIdentity{t: v.Type(), p: v.UnsafeAddr()}, true
	}
	if v.CanInterface() && v.Comparable() {
		return v.Interface(), true
	}
	return nil, false
}

// attach returns the delegate for inv as handler, building it on first use,
// and counts one more attachment.
func (h *handlerTable) attach(inv *Invokable, handler reflect.Type) (any, error) {
	key, ok := newHandlerKey(inv, handler)
	if !ok {
		return inv.CreateDelegate(handler)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if b, ok := h.entries[key]; ok {
		b.refs++
		return b.fn.Interface(), nil
	}

	fn, err := inv.CreateDelegate(handler)
	if err != nil {
		return nil, err
	}
	if h.entries == nil {
		h.entries = make(map[handlerKey]*boundHandler)
	}
	h.entries[key] = &boundHandler{fn: reflect.ValueOf(fn), refs: 1}
	return fn, nil
}

// detach returns the delegate previously attached for inv as handler and
// counts one attachment less. Without a live entry a fresh delegate is
// returned, which matches no attached func.
func (h *handlerTable) detach(inv *Invokable, handler reflect.Type) (any, error) {
	key, ok := newHandlerKey(inv, handler)
	if !ok {
		return inv.CreateDelegate(handler)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	b, ok := h.entries[key]
	if !ok {
		return inv.CreateDelegate(handler)
	}
	if b.refs--; b.refs <= 0 {
		delete(h.entries, key)
	}
	return b.fn.Interface(), nil
}

// size reports the number of live entries.
func (h *handlerTable) size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
