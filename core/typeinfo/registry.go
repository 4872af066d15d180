package typeinfo

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/anoideaopen/limitless/core/binder"
	"github.com/anoideaopen/limitless/core/reflectx"
)

// ErrInvalidMember is returned by Register for a malformed member definition.
var ErrInvalidMember = errors.New("invalid member definition")

// Member is a definition passed to Cache.Register. It covers what reflection
// cannot enumerate: static members, constructors, unexported methods given
// as method expressions, extra overloads, generic methods, registered
// indexers and events, nested types, conversions and parameter metadata.
type Member interface {
	validate(t reflect.Type) error
	apply(b *builder)
}

// Option adjusts a member definition.
type Option func(s *settings)

type settings struct {
	names    []string
	defaults []any
	readOnly bool
	explicit bool
	backing  string
	raise    any
}

func newSettings(opts []Option) settings {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Params names the parameters of a method or constructor, receiver excluded.
func Params(names ...string) Option {
	return func(s *settings) { s.names = names }
}

// Defaults gives values for the trailing parameters of a method or
// constructor. A nil entry stands for the zero value.
func Defaults(values ...any) Option {
	return func(s *settings) { s.defaults = values }
}

// ReadOnly marks a static field as not writable.
func ReadOnly() Option {
	return func(s *settings) { s.readOnly = true }
}

// Explicit marks a conversion as explicit. Conversions are implicit by default.
func Explicit() Option {
	return func(s *settings) { s.explicit = true }
}

// Backing names the []func field holding the handlers of an event.
func Backing(field string) Option {
	return func(s *settings) { s.backing = field }
}

// Raise sets the method raising an event, shaped like an instance method.
func Raise(fn any) Option {
	return func(s *settings) { s.raise = fn }
}

func funcOf(what string, fn any) (reflect.Value, error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return reflect.Value{}, fmt.Errorf("%w: %s must be a func, got %T", ErrInvalidMember, what, fn)
	}
	return v, nil
}

// receiverFits reports whether r can receive values of type t.
func receiverFits(t, r reflect.Type) bool {
	switch {
	case r == t, r == reflect.PointerTo(t):
		return true
	case r.Kind() == reflect.Interface:
		return t.Implements(r) || reflect.PointerTo(t).Implements(r)
	case t.Kind() == reflect.Interface:
		return r.Implements(t)
	default:
		return false
	}
}

func (s settings) signature(ft reflect.Type, skip int) (binder.Signature, error) {
	sig := binder.SignatureOf(ft, skip)
	if len(s.names) > 0 {
		if len(s.names) != len(sig.In) {
			return sig, fmt.Errorf("%w: %d names for %d parameters", ErrInvalidMember, len(s.names), len(sig.In))
		}
		sig.Names = s.names
	}
	if len(s.defaults) > len(sig.In) {
		return sig, fmt.Errorf("%w: %d defaults for %d parameters", ErrInvalidMember, len(s.defaults), len(sig.In))
	}

	first := len(sig.In) - len(s.defaults)
	for i, d := range s.defaults {
		pt := sig.In[first+i]
		if d == nil {
			sig.Defaults = append(sig.Defaults, reflect.Value{})
			continue
		}
		dv := reflect.ValueOf(d)
		switch {
		case dv.Type().AssignableTo(pt):
		case dv.Type().ConvertibleTo(pt):
			dv = dv.Convert(pt)
		default:
			return sig, fmt.Errorf("%w: default %v does not fit %s", ErrInvalidMember, d, pt)
		}
		sig.Defaults = append(sig.Defaults, dv)
	}

	return sig, nil
}

type methodDef struct {
	name     string
	static   bool
	fn       any
	arity    int
	inst     func([]reflect.Type) (any, error)
	settings settings
}

// Method registers an instance method given as a func whose first parameter
// is the receiver, such as the method expression (*T).name.
func Method(name string, fn any, opts ...Option) Member {
	return &methodDef{name: name, fn: fn, settings: newSettings(opts)}
}

// Static registers a static method.
func Static(name string, fn any, opts ...Option) Member {
	return &methodDef{name: name, static: true, fn: fn, settings: newSettings(opts)}
}

// Generic registers an instance method with arity type parameters. inst
// returns the instantiation for concrete type arguments, shaped like the
// funcs accepted by Method.
func Generic(name string, arity int, inst func(typeArgs []reflect.Type) (any, error), opts ...Option) Member {
	return &methodDef{name: name, arity: arity, inst: inst, settings: newSettings(opts)}
}

// StaticGeneric registers a static method with arity type parameters.
func StaticGeneric(name string, arity int, inst func(typeArgs []reflect.Type) (any, error), opts ...Option) Member {
	return &methodDef{name: name, static: true, arity: arity, inst: inst, settings: newSettings(opts)}
}

func (d *methodDef) validate(t reflect.Type) error {
	if d.name == "" {
		return fmt.Errorf("%w: empty method name", ErrInvalidMember)
	}
	if d.arity > 0 {
		if d.inst == nil {
			return fmt.Errorf("%w: generic %s has no instantiator", ErrInvalidMember, d.name)
		}
		return nil
	}

	fv, err := funcOf(d.name, d.fn)
	if err != nil {
		return err
	}
	skip := 0
	if !d.static {
		if fv.Type().NumIn() == 0 || !receiverFits(t, fv.Type().In(0)) {
			return fmt.Errorf("%w: %s needs a %s receiver", ErrInvalidMember, d.name, t)
		}
		skip = 1
	}
	_, err = d.settings.signature(fv.Type(), skip)
	return err
}

func (d *methodDef) method() *MethodInfo {
	m := &MethodInfo{Name: d.name, Static: d.static, kind: recvExpr}
	if d.static {
		m.kind = recvStatic
	}
	if d.arity > 0 {
		m.arity, m.instantiate = d.arity, d.inst
		sig := binder.Signature{Names: d.settings.names}
		for _, v := range d.settings.defaults {
			if v == nil {
				sig.Defaults = append(sig.Defaults, reflect.Value{})
				continue
			}
			sig.Defaults = append(sig.Defaults, reflect.ValueOf(v))
		}
		m.sig = sig
		return m
	}

	m.fn = reflect.ValueOf(d.fn)
	skip := 1
	if d.static {
		skip = 0
	}
	m.sig, _ = d.settings.signature(m.fn.Type(), skip)
	return m
}

func (d *methodDef) apply(b *builder) {
	if d.static && b.embedded() {
		return
	}
	b.addMethod(d.method())
}

type ctorDef struct {
	fn       any
	settings settings
}

// Constructor registers a func returning a T or *T, optionally followed by
// an error.
func Constructor(fn any, opts ...Option) Member {
	return &ctorDef{fn: fn, settings: newSettings(opts)}
}

func (d *ctorDef) validate(t reflect.Type) error {
	fv, err := funcOf("constructor", d.fn)
	if err != nil {
		return err
	}
	ft := fv.Type()
	n := ft.NumOut()
	if reflectx.ReturnsError(ft) {
		n--
	}
	if n != 1 || (ft.Out(0) != t && ft.Out(0) != reflect.PointerTo(t)) {
		return fmt.Errorf("%w: constructor must return %s or *%s", ErrInvalidMember, t, t)
	}
	_, err = d.settings.signature(ft, 0)
	return err
}

func (d *ctorDef) apply(b *builder) {
	if b.embedded() {
		return
	}
	fv := reflect.ValueOf(d.fn)
	sig, _ := d.settings.signature(fv.Type(), 0)
	b.info.constructors = append(b.info.constructors, &MethodInfo{
		Name:   "New" + b.info.Type.Name(),
		Static: true,
		fn:     fv,
		kind:   recvStatic,
		sig:    sig,
	})
}

type propertyDef struct {
	name           string
	static         bool
	getter, setter any
}

// Property registers an instance property. getter is shaped func(R) V and
// setter func(R, V), R being the receiver; either may be nil.
func Property(name string, getter, setter any) Member {
	return &propertyDef{name: name, getter: getter, setter: setter}
}

// StaticProperty registers a static property with func() V and func(V)
// accessors; either may be nil.
func StaticProperty(name string, getter, setter any) Member {
	return &propertyDef{name: name, static: true, getter: getter, setter: setter}
}

func (d *propertyDef) validate(t reflect.Type) error {
	if d.getter == nil && d.setter == nil {
		return fmt.Errorf("%w: property %s has no accessors", ErrInvalidMember, d.name)
	}
	skip := 1
	if d.static {
		skip = 0
	}

	var vt reflect.Type
	if d.getter != nil {
		fv, err := funcOf(d.name+" getter", d.getter)
		if err != nil {
			return err
		}
		ft := fv.Type()
		if ft.NumIn() != skip || ft.NumOut() == 0 || (skip == 1 && !receiverFits(t, ft.In(0))) {
			return fmt.Errorf("%w: bad getter for %s", ErrInvalidMember, d.name)
		}
		vt = ft.Out(0)
	}
	if d.setter != nil {
		fv, err := funcOf(d.name+" setter", d.setter)
		if err != nil {
			return err
		}
		ft := fv.Type()
		if ft.NumIn() != skip+1 || (skip == 1 && !receiverFits(t, ft.In(0))) {
			return fmt.Errorf("%w: bad setter for %s", ErrInvalidMember, d.name)
		}
		if vt != nil && ft.In(skip) != vt {
			return fmt.Errorf("%w: accessors of %s disagree on type", ErrInvalidMember, d.name)
		}
	}
	return nil
}

func (d *propertyDef) apply(b *builder) {
	if d.static && b.embedded() {
		return
	}
	kind, skip := recvExpr, 1
	if d.static {
		kind, skip = recvStatic, 0
	}

	p := &PropertyInfo{Name: d.name, Static: d.static}
	if d.getter != nil {
		fv := reflect.ValueOf(d.getter)
		p.Getter = &MethodInfo{Name: d.name, Static: d.static, fn: fv, kind: kind, sig: binder.SignatureOf(fv.Type(), skip)}
		p.Type = fv.Type().Out(0)
	}
	if d.setter != nil {
		fv := reflect.ValueOf(d.setter)
		p.Setter = &MethodInfo{Name: d.name, Static: d.static, fn: fv, kind: kind, sig: binder.SignatureOf(fv.Type(), skip)}
		p.Type = fv.Type().In(skip)
	}
	b.addProperty(p)
}

type staticFieldDef struct {
	name     string
	ptr      any
	settings settings
}

// StaticField registers a package-level variable, given by pointer, as a
// static field.
func StaticField(name string, ptr any, opts ...Option) Member {
	return &staticFieldDef{name: name, ptr: ptr, settings: newSettings(opts)}
}

func (d *staticFieldDef) validate(reflect.Type) error {
	v := reflect.ValueOf(d.ptr)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return fmt.Errorf("%w: static field %s must be a non-nil pointer", ErrInvalidMember, d.name)
	}
	return nil
}

func (d *staticFieldDef) apply(b *builder) {
	if b.embedded() {
		return
	}
	v := reflect.ValueOf(d.ptr)
	b.info.fields[d.name] = &FieldInfo{
		Name:     d.name,
		Static:   true,
		ReadOnly: d.settings.readOnly,
		Type:     v.Type().Elem(),
		ptr:      v,
	}
}

type indexerDef struct {
	getter, setter any
}

// Indexer registers a keyed accessor: getter shaped func(R, K...) V and
// setter func(R, K..., V); either may be nil.
func Indexer(getter, setter any) Member {
	return &indexerDef{getter: getter, setter: setter}
}

func (d *indexerDef) validate(t reflect.Type) error {
	if d.getter == nil && d.setter == nil {
		return fmt.Errorf("%w: indexer has no accessors", ErrInvalidMember)
	}
	var keys []reflect.Type
	if d.getter != nil {
		fv, err := funcOf("indexer getter", d.getter)
		if err != nil {
			return err
		}
		ft := fv.Type()
		if ft.NumIn() < 2 || ft.NumOut() == 0 || !receiverFits(t, ft.In(0)) {
			return fmt.Errorf("%w: bad indexer getter", ErrInvalidMember)
		}
		keys = binder.SignatureOf(ft, 1).In
	}
	if d.setter != nil {
		fv, err := funcOf("indexer setter", d.setter)
		if err != nil {
			return err
		}
		ft := fv.Type()
		if ft.NumIn() < 3 || !receiverFits(t, ft.In(0)) {
			return fmt.Errorf("%w: bad indexer setter", ErrInvalidMember)
		}
		if keys != nil && len(keys) != ft.NumIn()-2 {
			return fmt.Errorf("%w: indexer accessors disagree on keys", ErrInvalidMember)
		}
	}
	return nil
}

func (d *indexerDef) apply(b *builder) {
	ix := &IndexerInfo{kind: indexRegistered}
	if d.getter != nil {
		fv := reflect.ValueOf(d.getter)
		ix.getter = &MethodInfo{Name: "get", fn: fv, kind: recvExpr, path: b.path, sig: binder.SignatureOf(fv.Type(), 1)}
		ix.Keys = ix.getter.sig.In
		ix.Value = fv.Type().Out(0)
	}
	if d.setter != nil {
		fv := reflect.ValueOf(d.setter)
		ft := fv.Type()
		ix.setter = &MethodInfo{Name: "set", fn: fv, kind: recvExpr, path: b.path, sig: binder.SignatureOf(ft, 1)}
		if ix.Keys == nil {
			in := ix.setter.sig.In
			ix.Keys = in[:len(in)-1]
			ix.Value = in[len(in)-1]
		}
	}
	b.info.indexers = append(b.info.indexers, ix)
}

type eventDef struct {
	name        string
	add, remove any
	settings    settings
}

// Event registers an event. add and remove are shaped func(R, H); remove may
// be nil. With nil add and remove the Backing option must name the []H field
// holding the handlers.
func Event(name string, add, remove any, opts ...Option) Member {
	return &eventDef{name: name, add: add, remove: remove, settings: newSettings(opts)}
}

func (d *eventDef) validate(t reflect.Type) error {
	if d.add == nil {
		if d.settings.backing == "" {
			return fmt.Errorf("%w: event %s needs an add accessor or a backing field", ErrInvalidMember, d.name)
		}
		st := t
		if st.Kind() != reflect.Struct {
			return fmt.Errorf("%w: backing field on non-struct %s", ErrInvalidMember, t)
		}
		f, ok := st.FieldByName(d.settings.backing)
		if !ok || f.Type.Kind() != reflect.Slice || f.Type.Elem().Kind() != reflect.Func {
			return fmt.Errorf("%w: backing field %s must be a []func", ErrInvalidMember, d.settings.backing)
		}
	}
	for _, acc := range []any{d.add, d.remove, d.settings.raise} {
		if acc == nil {
			continue
		}
		fv, err := funcOf(d.name+" accessor", acc)
		if err != nil {
			return err
		}
		if fv.Type().NumIn() == 0 || !receiverFits(t, fv.Type().In(0)) {
			return fmt.Errorf("%w: accessor of %s needs a %s receiver", ErrInvalidMember, d.name, t)
		}
	}
	return nil
}

func (d *eventDef) apply(b *builder) {
	e := &EventInfo{Name: d.name}
	accessor := func(fn any) *MethodInfo {
		if fn == nil {
			return nil
		}
		fv := reflect.ValueOf(fn)
		return &MethodInfo{Name: d.name, fn: fv, kind: recvExpr, path: b.path, sig: binder.SignatureOf(fv.Type(), 1)}
	}
	e.add, e.remove, e.raise = accessor(d.add), accessor(d.remove), accessor(d.settings.raise)
	if e.add != nil && len(e.add.sig.In) > 0 {
		e.Handler = e.add.sig.In[0]
	}

	if d.settings.backing != "" {
		if f, ok := b.field(d.settings.backing); ok {
			e.backing = f
			if e.Handler == nil {
				e.Handler = f.Type.Elem()
			}
		}
	}
	b.addEvent(e)
}

type nestedDef struct {
	name string
	t    reflect.Type
}

// Nested registers t as a nested type reachable by name.
func Nested(name string, t reflect.Type) Member {
	return &nestedDef{name: name, t: t}
}

func (d *nestedDef) validate(reflect.Type) error {
	if d.t == nil {
		return fmt.Errorf("%w: nested type %s is nil", ErrInvalidMember, d.name)
	}
	return nil
}

func (d *nestedDef) apply(b *builder) {
	if b.embedded() {
		return
	}
	b.info.nested[d.name] = d.t
}

type converterDef struct {
	fn       any
	settings settings
}

// Converter registers a conversion operator shaped func(A) B or
// func(A) (B, error), where A or B is the registered type.
func Converter(fn any, opts ...Option) Member {
	return &converterDef{fn: fn, settings: newSettings(opts)}
}

func (d *converterDef) validate(t reflect.Type) error {
	fv, err := funcOf("converter", d.fn)
	if err != nil {
		return err
	}
	ft := fv.Type()
	n := ft.NumOut()
	if reflectx.ReturnsError(ft) {
		n--
	}
	if ft.NumIn() != 1 || n != 1 {
		return fmt.Errorf("%w: converter must take one value and return one", ErrInvalidMember)
	}
	from, to := Dispatch(ft.In(0)), Dispatch(ft.Out(0))
	if from == to || (from != t && to != t) {
		return fmt.Errorf("%w: converter %s must convert from or into %s", ErrInvalidMember, ft, t)
	}
	return nil
}

func (d *converterDef) apply(b *builder) {
	if b.embedded() {
		return
	}
	fv := reflect.ValueOf(d.fn)
	c := &ConverterInfo{From: fv.Type().In(0), To: fv.Type().Out(0), Explicit: d.settings.explicit, fn: fv}
	if Dispatch(c.From) == b.info.Type {
		b.info.convertsFrom[c.To] = c
	} else {
		b.info.convertsInto[c.From] = c
	}
}
