package typeinfo

import (
	"fmt"
	"reflect"
	"strings"
)

var lastCalled string

type shape interface {
	Area() float64
}

type base struct {
	id    int
	Notes []func(string) string
}

func (b *base) ID() int { return b.id }

func (b *base) secret() string {
	lastCalled = "secret"
	return fmt.Sprintf("base-%d", b.id)
}

type entry struct {
	key string
}

type subject struct {
	base

	name    string
	store   map[string]string
	Labels  map[string]int
	Changed []func(string)
}

var (
	counter = 7
	version = "v1"
)

func newSubject(name string) *subject {
	lastCalled = "ctor1"
	return &subject{name: name, store: make(map[string]string)}
}

func (s *subject) Name() string     { return s.name }
func (s *subject) SetName(v string) { s.name = v }
func (s *subject) GetSize() int     { return len(s.name) }
func (s *subject) Area() float64    { return float64(len(s.name)) }

func (s *subject) pickBool(v bool) bool {
	lastCalled = "pickBool"
	return v
}

func (s *subject) pickInt(v int) int {
	lastCalled = "pickInt"
	return v
}

func (s *subject) pickAny(any) any {
	lastCalled = "pickAny"
	return nil
}

func (s *subject) get(key string) string {
	lastCalled = "get"
	return s.store[key]
}

func (s *subject) set(key, value string) {
	lastCalled = "set"
	s.store[key] = value
}

func scale(v, factor float64) float64 {
	lastCalled = "scale"
	return v * factor
}

func identity[T any](v T) T {
	lastCalled = "identity" + reflect.TypeFor[T]().String()
	return v
}

func identityOf(typeArgs []reflect.Type) (any, error) {
	switch typeArgs[0] {
	case reflect.TypeFor[bool]():
		return identity[bool], nil
	case reflect.TypeFor[string]():
		return identity[string], nil
	default:
		return nil, fmt.Errorf("identity is not instantiated for %s", typeArgs[0])
	}
}

func (s *subject) echo(v string) string { return strings.Repeat(v, 2) }

func echoOf(typeArgs []reflect.Type) (any, error) {
	if typeArgs[0] != reflect.TypeFor[string]() {
		return nil, fmt.Errorf("echo is not instantiated for %s", typeArgs[0])
	}
	return (*subject).echo, nil
}

func fromInt(v int) *subject {
	lastCalled = "fromInt"
	return &subject{name: fmt.Sprint(v), store: make(map[string]string)}
}

func toString(s *subject) string {
	lastCalled = "toString"
	return s.name
}

func newFixtureCache() *Cache {
	c := NewCache()
	c.MustRegister(reflect.TypeFor[base](),
		Method("secret", (*base).secret),
	)
	c.MustRegister(reflect.TypeFor[subject](),
		Constructor(newSubject, Params("name")),
		Method("Pick", (*subject).pickBool),
		Method("Pick", (*subject).pickInt),
		Method("Pick", (*subject).pickAny),
		Static("Scale", scale, Params("v", "factor"), Defaults(2.0)),
		StaticGeneric("Identity", 1, identityOf),
		Generic("Echo", 1, echoOf),
		StaticField("counter", &counter),
		StaticField("version", &version, ReadOnly()),
		Indexer((*subject).get, (*subject).set),
		Nested("Entry", reflect.TypeFor[entry]()),
		Converter(fromInt),
		Converter(toString, Explicit()),
	)
	return c
}
