package typeinfo

import (
	"errors"
	"fmt"
	"reflect"
	"slices"

	"github.com/anoideaopen/limitless/core/binder"
	"github.com/anoideaopen/limitless/core/reflectx"
)

// Error types.
var (
	ErrNoMatchingConstructor = errors.New("no constructor matched")
	ErrValueType             = errors.New("value does not fit the member type")
)

// TypeInfo is the member inventory of one type. It is built once by a Cache
// and never changes afterwards.
type TypeInfo struct {
	Type reflect.Type

	constructors []*MethodInfo
	methods      map[string]OverloadGroup
	properties   map[string]*PropertyInfo
	fields       map[string]*FieldInfo
	indexers     []*IndexerInfo
	events       map[string]*EventInfo
	nested       map[string]reflect.Type
	convertsFrom map[reflect.Type]*ConverterInfo
	convertsInto map[reflect.Type]*ConverterInfo
}

func newTypeInfo(t reflect.Type) *TypeInfo {
	return &TypeInfo{
		Type:         t,
		methods:      make(map[string]OverloadGroup),
		properties:   make(map[string]*PropertyInfo),
		fields:       make(map[string]*FieldInfo),
		events:       make(map[string]*EventInfo),
		nested:       make(map[string]reflect.Type),
		convertsFrom: make(map[reflect.Type]*ConverterInfo),
		convertsInto: make(map[reflect.Type]*ConverterInfo),
	}
}

// OverloadGroup holds the methods sharing a name.
type OverloadGroup []*MethodInfo

// Of returns a new group holding the instantiations of the generic methods
// taking exactly len(typeArgs) type arguments. Failed instantiations are
// left out.
func (g OverloadGroup) Of(typeArgs ...reflect.Type) OverloadGroup {
	var out OverloadGroup
	for _, m := range g {
		if m.arity != len(typeArgs) || m.arity == 0 {
			continue
		}
		if inst, err := m.Instance(typeArgs); err == nil {
			out = append(out, inst)
		}
	}
	return out
}

// HasGeneric reports whether the group holds a generic method.
func (g OverloadGroup) HasGeneric() bool {
	return slices.ContainsFunc(g, func(m *MethodInfo) bool { return m.arity > 0 })
}

// Invocation is the outcome of TryInvoke.
type Invocation struct {
	Method *MethodInfo
	// Results exclude a trailing error, which is reported in Err.
	Results []reflect.Value
	// Values are the coerced arguments in the caller layout.
	Values []reflect.Value
	Err    error
	// Ambiguous is set when no candidate ranked best and the first
	// compatible one was called.
	Ambiguous bool
}

// TryGetValue reads a readable property, then a field, named name. An
// invalid root restricts the lookup to static members.
func (ti *TypeInfo) TryGetValue(root reflect.Value, name string) (reflect.Value, bool, error) {
	if p, ok := ti.properties[name]; ok && p.CanRead() && usable(root, p.Static) {
		v, err := p.Get(root)
		return v, true, err
	}
	if f, ok := ti.fields[name]; ok && usable(root, f.Static) {
		if v, ok := f.Value(root); ok {
			return v, true, nil
		}
	}
	return reflect.Value{}, false, nil
}

// TrySetValue writes a writable property, then a non read-only field, named
// name. value is coerced with the binder rules, then with a runtime change
// of type.
func (ti *TypeInfo) TrySetValue(root reflect.Value, name string, value any) (bool, error) {
	if p, ok := ti.properties[name]; ok && p.CanWrite() && usable(root, p.Static) {
		v, err := Coerce(p.Type, value)
		if err != nil {
			return true, err
		}
		return true, p.Set(root, v)
	}
	if f, ok := ti.fields[name]; ok && !f.ReadOnly && usable(root, f.Static) {
		v, err := Coerce(f.Type, value)
		if err != nil {
			return true, err
		}
		return f.Set(root, v), nil
	}
	return false, nil
}

// TryGetIndex reads through the best readable indexer for keys.
func (ti *TypeInfo) TryGetIndex(root reflect.Value, keys []any) (reflect.Value, bool, error) {
	if !root.IsValid() {
		return reflect.Value{}, false, nil
	}
	ix, res, ok := ti.selectIndexer(keys, (*IndexerInfo).CanRead)
	if !ok {
		return reflect.Value{}, false, nil
	}
	return ix.get(root, res.Args)
}

// TrySetIndex writes through the best writable indexer for keys.
func (ti *TypeInfo) TrySetIndex(root reflect.Value, keys []any, value any) (bool, error) {
	if !root.IsValid() {
		return false, nil
	}
	ix, res, ok := ti.selectIndexer(keys, (*IndexerInfo).CanWrite)
	if !ok {
		return false, nil
	}
	v, err := Coerce(ix.Value, value)
	if err != nil {
		return true, err
	}
	return ix.set(root, res.Args, v)
}

func (ti *TypeInfo) selectIndexer(keys []any, mode func(*IndexerInfo) bool) (*IndexerInfo, binder.Result, bool) {
	var (
		candidates []binder.Candidate
		indexers   []*IndexerInfo
	)
	for _, ix := range ti.indexers {
		if mode(ix) {
			candidates = append(candidates, ix)
			indexers = append(indexers, ix)
		}
	}
	res, ok := binder.Bind(candidates, keys, binder.CallInfo{})
	if !ok {
		return nil, res, false
	}
	return indexers[res.Index], res, true
}

// Methods returns the overload group named name, nil when absent.
func (ti *TypeInfo) Methods(name string) OverloadGroup {
	return ti.methods[name]
}

// Property returns the property named name.
func (ti *TypeInfo) Property(name string) (*PropertyInfo, bool) {
	p, ok := ti.properties[name]
	return p, ok
}

// Field returns the field named name.
func (ti *TypeInfo) Field(name string) (*FieldInfo, bool) {
	f, ok := ti.fields[name]
	return f, ok
}

// Event returns the event named name.
func (ti *TypeInfo) Event(name string) (*EventInfo, bool) {
	e, ok := ti.events[name]
	return e, ok
}

// Nested returns the nested type named name.
func (ti *TypeInfo) Nested(name string) (reflect.Type, bool) {
	t, ok := ti.nested[name]
	return t, ok
}

// Indexers returns the indexers of the type.
func (ti *TypeInfo) Indexers() []*IndexerInfo {
	return slices.Clone(ti.indexers)
}

// ConverterTo returns the declared conversion from this type to dst.
func (ti *TypeInfo) ConverterTo(dst reflect.Type) (*ConverterInfo, bool) {
	c, ok := ti.convertsFrom[dst]
	return c, ok
}

// ConverterFrom returns the declared conversion from src to this type.
func (ti *TypeInfo) ConverterFrom(src reflect.Type) (*ConverterInfo, bool) {
	c, ok := ti.convertsInto[src]
	return c, ok
}

// Converter returns the declared conversion between the type and
// counterpart: into the type when into is set, out of it otherwise.
func (ti *TypeInfo) Converter(counterpart reflect.Type, into bool) (*ConverterInfo, bool) {
	if into {
		return ti.ConverterFrom(counterpart)
	}
	return ti.ConverterTo(counterpart)
}

// TryInvoke binds args against the overload group named name and calls the
// chosen method. With an invalid root, instance methods take their receiver
// as the first argument.
func (ti *TypeInfo) TryInvoke(root reflect.Value, name string, args []any, info binder.CallInfo) (Invocation, bool) {
	group, ok := ti.methods[name]
	if !ok {
		return Invocation{}, false
	}
	return group.TryInvoke(root, args, info)
}

// TryInvoke binds args against the group and calls the chosen method.
func (g OverloadGroup) TryInvoke(root reflect.Value, args []any, info binder.CallInfo) (Invocation, bool) {
	candidates := make([]binder.Candidate, len(g))
	for i, m := range g {
		if m.Static || root.IsValid() {
			candidates[i] = m
		} else {
			candidates[i] = expression{m}
		}
	}

	res, ok := binder.Bind(candidates, args, info)
	if !ok {
		return Invocation{}, false
	}

	inv := Invocation{Values: res.Values, Ambiguous: res.Ambiguous}
	switch c := res.Candidate.(type) {
	case *MethodInfo:
		inv.Method = c
		inv.Results, inv.Err = c.Invoke(root, res.Args)
	case expression:
		inv.Method = c.MethodInfo
		inv.Results, inv.Err = c.invoke(res.Args)
	}
	return inv, true
}

// Construct builds a new instance with the best matching constructor. When
// no constructor takes zero arguments, a call without arguments yields the
// zero value. The result is addressable or a pointer.
func (ti *TypeInfo) Construct(args []any, info binder.CallInfo) (reflect.Value, []reflect.Value, error) {
	candidates := make([]binder.Candidate, len(ti.constructors))
	for i, m := range ti.constructors {
		candidates[i] = m
	}

	res, ok := binder.Bind(candidates, args, info)
	if !ok {
		if len(args) == 0 {
			return reflect.New(ti.Type).Elem(), nil, nil
		}
		return reflect.Value{}, nil, fmt.Errorf("%w: %s", ErrNoMatchingConstructor, ti.Type)
	}

	out, err := ti.constructors[res.Index].Invoke(reflect.Value{}, res.Args)
	if err != nil {
		return reflect.Value{}, res.Values, err
	}
	return reflectx.Addressable(out[0]), res.Values, nil
}

// Constructors returns the registered constructors.
func (ti *TypeInfo) Constructors() []*MethodInfo {
	return slices.Clone(ti.constructors)
}

func usable(root reflect.Value, static bool) bool {
	return static || root.IsValid()
}

type param struct{ t reflect.Type }

func (p param) Signature() binder.Signature {
	return binder.Signature{In: []reflect.Type{p.t}}
}

// Coerce converts value to t with the binder rules, falling back to a
// runtime change of type.
func Coerce(t reflect.Type, value any) (reflect.Value, error) {
	if res, ok := binder.Bind([]binder.Candidate{param{t}}, []any{value}, binder.CallInfo{}); ok {
		return res.Args[0], nil
	}

	v, _ := binder.Underlying(value)
	if !v.IsValid() {
		return reflect.Value{}, fmt.Errorf("%w: nil for %s", ErrValueType, t)
	}
	out, err := reflectx.ChangeType(v, t)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%w: %w", ErrValueType, err)
	}
	return out, nil
}
