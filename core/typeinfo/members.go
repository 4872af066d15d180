package typeinfo

import (
	"errors"
	"fmt"
	"reflect"
	"slices"

	"github.com/anoideaopen/limitless/core/binder"
	"github.com/anoideaopen/limitless/core/reflectx"
)

// ErrNoReceiver is returned when an instance member is used without a target.
var ErrNoReceiver = errors.New("instance member needs a target")

type receiverKind int

const (
	recvStatic receiverKind = iota
	recvExpr                // Func takes the receiver as its first parameter
	recvIface               // interface method called through the method table
)

// MethodInfo describes a static or instance method, a constructor or one
// accessor of a property, indexer or event.
type MethodInfo struct {
	Name   string
	Static bool

	fn    reflect.Value
	kind  receiverKind
	iface reflect.Type
	index int
	path  []int
	sig   binder.Signature

	arity       int
	instantiate func([]reflect.Type) (any, error)
}

// Signature returns the parameters of the method excluding the receiver.
func (m *MethodInfo) Signature() binder.Signature {
	return m.sig
}

// GenericArity is the number of type arguments the method needs, 0 for a
// non-generic one.
func (m *MethodInfo) GenericArity() int {
	return m.arity
}

// Instantiate returns the concrete method for the type arguments.
func (m *MethodInfo) Instantiate(typeArgs []reflect.Type) (binder.Candidate, error) {
	inst, err := m.Instance(typeArgs)
	if err != nil {
		return nil, err
	}
	return inst, nil
}

// Instance is Instantiate returning the concrete descriptor.
func (m *MethodInfo) Instance(typeArgs []reflect.Type) (*MethodInfo, error) {
	if m.arity == 0 || m.instantiate == nil {
		return nil, fmt.Errorf("%s is not generic", m.Name)
	}
	if len(typeArgs) != m.arity {
		return nil, fmt.Errorf("%s needs %d type arguments, got %d", m.Name, m.arity, len(typeArgs))
	}

	fn, err := m.instantiate(typeArgs)
	if err != nil {
		return nil, err
	}

	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func {
		return nil, fmt.Errorf("instantiation of %s returned %T", m.Name, fn)
	}

	inst := &MethodInfo{
		Name:   m.Name,
		Static: m.Static,
		fn:     fv,
		kind:   m.kind,
		path:   m.path,
	}
	skip := 0
	if m.kind == recvExpr {
		skip = 1
		if fv.Type().NumIn() == 0 {
			return nil, fmt.Errorf("instantiation of %s has no receiver", m.Name)
		}
	}
	inst.sig = binder.SignatureOf(fv.Type(), skip)
	inst.sig.Names = m.sig.Names
	inst.sig.Defaults = m.sig.Defaults

	return inst, nil
}

// Func returns the underlying func value. Instance methods take the receiver
// as their first parameter. Interface methods have no func value.
func (m *MethodInfo) Func() reflect.Value {
	return m.fn
}

// Type returns the type of Func, or the method type without receiver for
// interface methods.
func (m *MethodInfo) Type() reflect.Type {
	if m.kind == recvIface {
		return m.iface.Method(m.index).Type
	}
	return m.fn.Type()
}

// Receiver returns the type of the receiver parameter, nil for static methods.
func (m *MethodInfo) Receiver() reflect.Type {
	switch m.kind {
	case recvExpr:
		return m.fn.Type().In(0)
	case recvIface:
		return m.iface
	default:
		return nil
	}
}

// Bound returns the method bound to the target root, ready to be called with
// the remaining arguments.
func (m *MethodInfo) Bound(root reflect.Value) (reflect.Value, bool) {
	switch m.kind {
	case recvStatic:
		return m.fn, true
	case recvIface:
		recv, ok := m.receiver(root)
		if !ok {
			return reflect.Value{}, false
		}
		return recv.Method(m.index), true
	}

	recv, ok := m.receiver(root)
	if !ok {
		return reflect.Value{}, false
	}

	fn := m.fn
	ft := fn.Type()
	in := make([]reflect.Type, ft.NumIn()-1)
	for i := range in {
		in[i] = ft.In(i + 1)
	}
	out := make([]reflect.Type, ft.NumOut())
	for i := range out {
		out[i] = ft.Out(i)
	}

	bound := reflect.MakeFunc(reflect.FuncOf(in, out, ft.IsVariadic()), func(args []reflect.Value) []reflect.Value {
		full := append([]reflect.Value{recv}, args...)
		if ft.IsVariadic() {
			return fn.CallSlice(full)
		}
		return fn.Call(full)
	})

	return bound, true
}

// Invoke calls the method on the target root with coerced arguments.
func (m *MethodInfo) Invoke(root reflect.Value, args []reflect.Value) ([]reflect.Value, error) {
	switch m.kind {
	case recvStatic:
		return reflectx.Call(m.fn, args)
	case recvIface:
		recv, ok := m.receiver(root)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNoReceiver, m.Name)
		}
		return reflectx.Call(recv.Method(m.index), args)
	}

	recv, ok := m.receiver(root)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoReceiver, m.Name)
	}

	return reflectx.Call(m.fn, append([]reflect.Value{recv}, args...))
}

func (m *MethodInfo) receiver(root reflect.Value) (reflect.Value, bool) {
	v, ok := navigate(root, m.path)
	if !ok {
		return reflect.Value{}, false
	}

	if m.kind == recvIface {
		v = reflectx.Expose(v)
		if !v.Type().Implements(m.iface) {
			if !v.CanAddr() || !reflect.PointerTo(v.Type()).Implements(m.iface) {
				return reflect.Value{}, false
			}
			v = v.Addr()
		}
		iv := reflect.New(m.iface).Elem()
		iv.Set(v)
		return iv, true
	}

	return adaptReceiver(v, m.fn.Type().In(0))
}

// expression views an instance method as a static func taking the receiver
// as its first argument.
type expression struct {
	*MethodInfo
}

func (e expression) Signature() binder.Signature {
	sig := e.MethodInfo.sig
	in := append([]reflect.Type{e.Receiver()}, sig.In...)
	var names []string
	if len(sig.Names) > 0 {
		names = append([]string{"receiver"}, sig.Names...)
	}
	return binder.Signature{In: in, Variadic: sig.Variadic, Names: names, Defaults: sig.Defaults}
}

func (e expression) Instantiate(typeArgs []reflect.Type) (binder.Candidate, error) {
	inst, err := e.MethodInfo.Instance(typeArgs)
	if err != nil {
		return nil, err
	}
	return expression{inst}, nil
}

func (e expression) invoke(args []reflect.Value) ([]reflect.Value, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoReceiver, e.Name)
	}
	if e.kind == recvIface {
		recv := args[0]
		if !recv.IsValid() || (recv.Kind() == reflect.Interface && recv.IsNil()) {
			return nil, fmt.Errorf("%w: %s", ErrNoReceiver, e.Name)
		}
		return reflectx.Call(recv.Method(e.index), args[1:])
	}
	return reflectx.Call(e.fn, args)
}

// adaptReceiver turns v into a value of type r, taking its address or
// dereferencing it when needed.
func adaptReceiver(v reflect.Value, r reflect.Type) (reflect.Value, bool) {
	if !v.IsValid() {
		return reflect.Value{}, false
	}
	v = reflectx.Expose(v)

	switch t := v.Type(); {
	case t == r:
		return v, true
	case r.Kind() == reflect.Pointer && r.Elem() == t:
		if v.CanAddr() {
			return v.Addr(), true
		}
		box := reflect.New(t)
		box.Elem().Set(v)
		return box, true
	case t.Kind() == reflect.Pointer && t.Elem() == r:
		if v.IsNil() {
			return reflect.Value{}, false
		}
		return v.Elem(), true
	case r.Kind() == reflect.Interface && t.Implements(r):
		return v, true
	case r.Kind() == reflect.Interface && reflect.PointerTo(t).Implements(r) && v.CanAddr():
		return v.Addr(), true
	default:
		return reflect.Value{}, false
	}
}

// navigate follows an embedded field path from root.
func navigate(root reflect.Value, path []int) (reflect.Value, bool) {
	v := root
	if !v.IsValid() {
		return reflect.Value{}, false
	}
	for _, i := range path {
		if v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return reflect.Value{}, false
			}
			v = v.Elem()
		}
		if v.Kind() != reflect.Struct {
			return reflect.Value{}, false
		}
		v = reflectx.Expose(v.Field(i))
	}
	return v, true
}

// PropertyInfo describes a value member backed by accessor methods.
type PropertyInfo struct {
	Name   string
	Static bool
	Type   reflect.Type
	Getter *MethodInfo
	Setter *MethodInfo
}

// CanRead reports whether the property has a getter.
func (p *PropertyInfo) CanRead() bool { return p.Getter != nil }

// CanWrite reports whether the property has a setter.
func (p *PropertyInfo) CanWrite() bool { return p.Setter != nil }

// Get reads the property.
func (p *PropertyInfo) Get(root reflect.Value) (reflect.Value, error) {
	if p.Getter == nil {
		return reflect.Value{}, fmt.Errorf("property %s is write-only", p.Name)
	}
	out, err := p.Getter.Invoke(root, nil)
	if err != nil {
		return reflect.Value{}, err
	}
	if len(out) == 0 {
		return reflect.Value{}, nil
	}
	return out[0], nil
}

// Set writes the property with a value already coerced to Type.
func (p *PropertyInfo) Set(root reflect.Value, v reflect.Value) error {
	if p.Setter == nil {
		return fmt.Errorf("property %s is read-only", p.Name)
	}
	_, err := p.Setter.Invoke(root, []reflect.Value{v})
	return err
}

// FieldInfo describes a struct field or a registered package-level variable.
type FieldInfo struct {
	Name     string
	Static   bool
	ReadOnly bool
	Type     reflect.Type

	index []int
	ptr   reflect.Value
}

// Value returns an exposed, writable view of the field. The view is invalid
// when an embedded pointer on the way is nil.
func (f *FieldInfo) Value(root reflect.Value) (reflect.Value, bool) {
	if f.Static {
		return f.ptr.Elem(), true
	}
	if len(f.index) == 0 {
		return reflect.Value{}, false
	}

	owner, ok := navigate(root, f.index[:len(f.index)-1])
	if !ok {
		return reflect.Value{}, false
	}
	if owner.Kind() == reflect.Pointer {
		if owner.IsNil() {
			return reflect.Value{}, false
		}
		owner = owner.Elem()
	}
	if owner.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}

	return reflectx.Expose(owner.Field(f.index[len(f.index)-1])), true
}

// Set writes v into the field.
func (f *FieldInfo) Set(root reflect.Value, v reflect.Value) bool {
	if f.ReadOnly {
		return false
	}
	fv, ok := f.Value(root)
	if !ok || !fv.CanSet() {
		return false
	}
	fv.Set(v)
	return true
}

type indexerKind int

const (
	indexRegistered indexerKind = iota
	indexMap
	indexSequence
	indexString
)

// IndexerInfo describes a keyed accessor: a native map, slice, array or string
// index, or a registered getter/setter pair.
type IndexerInfo struct {
	Keys  []reflect.Type
	Value reflect.Type

	kind   indexerKind
	getter *MethodInfo
	setter *MethodInfo
}

// Signature exposes the key types to the binder.
func (ix *IndexerInfo) Signature() binder.Signature {
	return binder.Signature{In: ix.Keys}
}

// CanRead reports whether the indexer has a getter.
func (ix *IndexerInfo) CanRead() bool {
	return ix.kind != indexRegistered || ix.getter != nil
}

// CanWrite reports whether the indexer has a setter.
func (ix *IndexerInfo) CanWrite() bool {
	switch ix.kind {
	case indexString:
		return false
	case indexRegistered:
		return ix.setter != nil
	default:
		return true
	}
}

func (ix *IndexerInfo) get(root reflect.Value, keys []reflect.Value) (reflect.Value, bool, error) {
	switch ix.kind {
	case indexMap:
		if root.IsNil() {
			return reflect.Value{}, false, nil
		}
		v := root.MapIndex(keys[0])
		return v, v.IsValid(), nil
	case indexSequence, indexString:
		i := int(keys[0].Int())
		if i < 0 || i >= root.Len() {
			return reflect.Value{}, false, nil
		}
		return root.Index(i), true, nil
	}

	out, err := ix.getter.Invoke(root, keys)
	if err != nil {
		return reflect.Value{}, true, err
	}
	if len(out) == 0 {
		return reflect.Value{}, true, nil
	}
	return out[0], true, nil
}

func (ix *IndexerInfo) set(root reflect.Value, keys []reflect.Value, v reflect.Value) (bool, error) {
	switch ix.kind {
	case indexMap:
		if root.IsNil() {
			return false, nil
		}
		root.SetMapIndex(keys[0], v)
		return true, nil
	case indexSequence:
		i := int(keys[0].Int())
		if i < 0 || i >= root.Len() {
			return false, nil
		}
		elem := root.Index(i)
		if !elem.CanSet() {
			return false, nil
		}
		elem.Set(v)
		return true, nil
	case indexString:
		return false, nil
	}

	_, err := ix.setter.Invoke(root, append(slices.Clone(keys), v))
	return true, err
}

// EventInfo describes a subscription point. Handlers are attached either through
// registered add/remove accessors or directly to a backing []func slot.
type EventInfo struct {
	Name    string
	Static  bool
	Handler reflect.Type

	add     *MethodInfo
	remove  *MethodInfo
	raise   *MethodInfo
	backing *FieldInfo
}

// HasAccessors reports whether the event uses registered add/remove methods.
func (e *EventInfo) HasAccessors() bool {
	return e.add != nil
}

// CanRaise reports whether the event can be raised.
func (e *EventInfo) CanRaise() bool {
	return e.raise != nil || e.backing != nil
}

// Add attaches a handler of the exact Handler type.
func (e *EventInfo) Add(root reflect.Value, h reflect.Value) error {
	if e.add != nil {
		_, err := e.add.Invoke(root, []reflect.Value{h})
		return err
	}
	slot, ok := e.slot(root)
	if !ok {
		return fmt.Errorf("event %s has no storage", e.Name)
	}
	slot.Set(reflect.Append(slot, h))
	return nil
}

// Remove detaches the last attached handler that is the same closure as h.
func (e *EventInfo) Remove(root reflect.Value, h reflect.Value) error {
	if e.remove != nil {
		_, err := e.remove.Invoke(root, []reflect.Value{h})
		return err
	}
	if e.add != nil {
		return fmt.Errorf("event %s cannot remove handlers", e.Name)
	}
	slot, ok := e.slot(root)
	if !ok {
		return fmt.Errorf("event %s has no storage", e.Name)
	}

	id := reflectx.FuncIdentity(h)
	for i := slot.Len() - 1; i >= 0; i-- {
		if reflectx.FuncIdentity(slot.Index(i)) != id {
			continue
		}
		out := reflect.MakeSlice(slot.Type(), 0, slot.Len()-1)
		out = reflect.AppendSlice(out, slot.Slice(0, i))
		out = reflect.AppendSlice(out, slot.Slice(i+1, slot.Len()))
		slot.Set(out)
		break
	}
	return nil
}

// Handlers returns a snapshot of the attached handlers when the event has
// backing storage.
func (e *EventInfo) Handlers(root reflect.Value) []reflect.Value {
	slot, ok := e.slot(root)
	if !ok {
		return nil
	}
	out := make([]reflect.Value, slot.Len())
	for i := range out {
		out[i] = slot.Index(i)
	}
	return out
}

// Raise calls every attached handler with args and returns the results of
// the last one.
func (e *EventInfo) Raise(root reflect.Value, args []reflect.Value) ([]reflect.Value, error) {
	if e.raise != nil {
		return e.raise.Invoke(root, args)
	}

	var (
		out []reflect.Value
		err error
	)
	for _, h := range e.Handlers(root) {
		if h.IsNil() {
			continue
		}
		if out, err = reflectx.Call(h, slices.Clone(args)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (e *EventInfo) slot(root reflect.Value) (reflect.Value, bool) {
	if e.backing == nil {
		return reflect.Value{}, false
	}
	v, ok := e.backing.Value(root)
	if !ok || !v.CanSet() {
		return reflect.Value{}, false
	}
	return v, true
}

// ConverterInfo describes a declared conversion between two types.
type ConverterInfo struct {
	From     reflect.Type
	To       reflect.Type
	Explicit bool

	fn reflect.Value
}

// Func returns the conversion func, shaped func(From) To or func(From) (To, error).
func (c *ConverterInfo) Func() reflect.Value {
	return c.fn
}

// Convert applies the conversion.
func (c *ConverterInfo) Convert(v reflect.Value) (reflect.Value, error) {
	out, err := reflectx.Call(c.fn, []reflect.Value{v})
	if err != nil {
		return reflect.Value{}, err
	}
	return out[0], nil
}
