package typeinfo

import (
	"reflect"

	"github.com/anoideaopen/limitless/core/binder"
	"github.com/anoideaopen/limitless/core/reflectx"
	"github.com/anoideaopen/limitless/core/stringsx"
)

// Dispatch returns the type whose descriptor serves values of type t: the
// element type for pointers to concrete types, t itself otherwise.
func Dispatch(t reflect.Type) reflect.Type {
	if t != nil && t.Kind() == reflect.Pointer {
		if e := t.Elem(); e.Kind() != reflect.Pointer && e.Kind() != reflect.Interface {
			return e
		}
	}
	return t
}

type builder struct {
	info *TypeInfo
	path []int
}

func (b *builder) embedded() bool {
	return b.path != nil
}

func (b *builder) addMethod(m *MethodInfo) {
	if b.embedded() && m.kind != recvStatic {
		m.path = b.path
	}
	b.info.methods[m.Name] = append(b.info.methods[m.Name], m)
}

func (b *builder) addProperty(p *PropertyInfo) {
	if b.embedded() {
		if _, ok := b.info.properties[p.Name]; ok {
			return
		}
		for _, acc := range []*MethodInfo{p.Getter, p.Setter} {
			if acc != nil {
				acc.path = b.path
			}
		}
	}
	b.info.properties[p.Name] = p
}

func (b *builder) addEvent(e *EventInfo) {
	if _, ok := b.info.events[e.Name]; ok && b.embedded() {
		return
	}
	b.info.events[e.Name] = e
}

func (b *builder) field(name string) (*FieldInfo, bool) {
	f, ok := b.info.fields[name]
	return f, ok && !f.Static
}

func (c *Cache) build(t reflect.Type) *TypeInfo {
	ti := newTypeInfo(t)
	b := &builder{info: ti}

	b.reflectFields()
	b.reflectMethods()
	b.inferProperties()
	b.nativeIndexer()

	for _, m := range c.registry[t] {
		m.apply(b)
	}

	if t.Kind() == reflect.Struct {
		for _, f := range reflect.VisibleFields(t) {
			if !f.Anonymous {
				continue
			}
			members := c.registry[Dispatch(f.Type)]
			if len(members) == 0 {
				continue
			}
			eb := &builder{info: ti, path: f.Index}
			for _, m := range members {
				m.apply(eb)
			}
		}
	}

	return ti
}

func (b *builder) reflectFields() {
	t := b.info.Type
	if t.Kind() != reflect.Struct {
		return
	}

	for _, f := range reflect.VisibleFields(t) {
		if f.Name == "_" {
			continue
		}
		field := &FieldInfo{Name: f.Name, Type: f.Type, index: f.Index}
		b.info.fields[f.Name] = field

		if f.Type.Kind() == reflect.Slice && f.Type.Elem().Kind() == reflect.Func {
			b.info.events[f.Name] = &EventInfo{Name: f.Name, Handler: f.Type.Elem(), backing: field}
		}
	}
}

func (b *builder) reflectMethods() {
	t := b.info.Type
	if t.Kind() == reflect.Interface {
		for i := 0; i < t.NumMethod(); i++ {
			m := t.Method(i)
			b.addMethod(&MethodInfo{
				Name:  m.Name,
				kind:  recvIface,
				iface: t,
				index: i,
				sig:   binder.SignatureOf(m.Type, 0),
			})
		}
		return
	}

	pt := t
	if t.Kind() != reflect.Pointer {
		pt = reflect.PointerTo(t)
	}
	for i := 0; i < pt.NumMethod(); i++ {
		m := pt.Method(i)
		b.addMethod(&MethodInfo{
			Name: m.Name,
			fn:   m.Func,
			kind: recvExpr,
			sig:  binder.SignatureOf(m.Type, 1),
		})
	}
}

// inferProperties derives properties from accessor naming: GetX() V is a
// getter, SetX(V) a setter, and X() V a getter when SetX exists.
func (b *builder) inferProperties() {
	getters := make(map[string]*MethodInfo)
	setters := make(map[string]*MethodInfo)
	bare := make(map[string]*MethodInfo)

	for name, group := range b.info.methods {
		if len(group) != 1 {
			continue
		}
		m := group[0]
		ft := m.Type()
		in := len(m.sig.In)
		out := ft.NumOut()
		if reflectx.ReturnsError(ft) {
			out--
		}

		if prop, ok := stringsx.TrimAccessorPrefix(name, "Get"); ok && in == 0 && out == 1 {
			getters[prop] = m
			continue
		}
		if prop, ok := stringsx.TrimAccessorPrefix(name, "Set"); ok && in == 1 && out == 0 && !m.sig.Variadic {
			setters[prop] = m
			continue
		}
		if in == 0 && out == 1 {
			bare[name] = m
		}
	}

	for prop := range setters {
		if _, ok := getters[prop]; !ok {
			if g, ok := bare[prop]; ok {
				getters[prop] = g
			}
		}
	}

	for prop, g := range getters {
		p := &PropertyInfo{Name: prop, Type: g.Type().Out(0), Getter: g}
		if s, ok := setters[prop]; ok && s.sig.In[0] == p.Type {
			p.Setter = s
		}
		b.info.properties[prop] = p
	}
	for prop, s := range setters {
		if _, ok := b.info.properties[prop]; !ok {
			b.info.properties[prop] = &PropertyInfo{Name: prop, Type: s.sig.In[0], Setter: s}
		}
	}
}

func (b *builder) nativeIndexer() {
	t := b.info.Type
	intType := reflect.TypeFor[int]()

	switch t.Kind() {
	case reflect.Map:
		b.info.indexers = append(b.info.indexers, &IndexerInfo{Keys: []reflect.Type{t.Key()}, Value: t.Elem(), kind: indexMap})
	case reflect.Slice, reflect.Array:
		b.info.indexers = append(b.info.indexers, &IndexerInfo{Keys: []reflect.Type{intType}, Value: t.Elem(), kind: indexSequence})
	case reflect.String:
		b.info.indexers = append(b.info.indexers, &IndexerInfo{Keys: []reflect.Type{intType}, Value: reflect.TypeFor[byte](), kind: indexString})
	}
}
