package core

import (
	"errors"
	"fmt"
	"iter"
	"reflect"
	"testing"

	"github.com/anoideaopen/limitless/core/binder"
	"github.com/anoideaopen/limitless/core/operator"
	"github.com/anoideaopen/limitless/core/typeinfo"
	"github.com/stretchr/testify/require"
)

var errNotReady = errors.New("not ready")

type hider interface {
	HiddenInterfaceMethod(v bool) bool
	Secret() string
	SetSecret(v string)
}

type child struct {
	id    int
	label string
}

var childrenCreated = 2

type subject struct {
	Name string

	privateField string
	secret       string
	hidden       bool
	lastType     reflect.Type
	store        map[string]string
	children     []child
	Changed      []func(string)
}

var (
	subjectCount int
	subjectTag   = "tagged"
	subjectLabel = "label"
)

func newSubject(field string) *subject {
	subjectCount++
	return &subject{
		privateField: field,
		store:        make(map[string]string),
		children:     []child{{id: 1, label: "a"}, {id: 2, label: "b"}},
	}
}

func fromCount(n int) *subject {
	return &subject{privateField: fmt.Sprint("from ", n), store: make(map[string]string)}
}

func describe(s *subject) string {
	return "subject:" + s.privateField
}

func staticSum(a, b int) int { return a + b }

func getLabel() string  { return subjectLabel }
func setLabel(v string) { subjectLabel = v }

func (s *subject) privateMethod(n int) int { return n * 2 }

func (s *subject) pickInt(int) string       { return "int" }
func (s *subject) pickString(string) string { return "string" }
func (s *subject) pickBool(bool) string     { return "bool" }

func (s *subject) greet(name, greeting string) string {
	return greeting + ", " + name
}

func (s *subject) hiddenFlag() bool     { return s.hidden }
func (s *subject) setHiddenFlag(v bool) { s.hidden = v }

func (s *subject) HiddenInterfaceMethod(v bool) bool { return !v }
func (s *subject) Secret() string                    { return s.secret }
func (s *subject) SetSecret(v string)                { s.secret = v }

func (s *subject) get(key string) string { return s.store[key] }
func (s *subject) set(key, value string) { s.store[key] = value }
func (s *subject) Children() []child     { return s.children }
func (s *subject) Later(v int) *future   { return &future{done: true, value: v} }
func (s *subject) Failing() *future      { return &future{done: true, err: errNotReady} }
func (s *subject) Task(v int) task       { return task{f: &future{done: true, value: v}} }
func (s *subject) Each() iter.Seq[child] { return s.each }
func (s *subject) Pairs() iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		for _, c := range s.children {
			if !yield(c.id, c.label) {
				return
			}
		}
	}
}

func (s *subject) Async(v int) chan int {
	ch := make(chan int, 1)
	ch <- v
	return ch
}

func (s *subject) each(yield func(child) bool) {
	for _, c := range s.children {
		if !yield(c) {
			return
		}
	}
}

func genericMethod[T any](s *subject, v T) T {
	s.lastType = reflect.TypeFor[T]()
	return v
}

func instantiateGeneric(typeArgs []reflect.Type) (any, error) {
	switch typeArgs[0] {
	case reflect.TypeFor[bool]():
		return genericMethod[bool], nil
	case reflect.TypeFor[string]():
		return genericMethod[string], nil
	}
	return nil, fmt.Errorf("unsupported type argument %s", typeArgs[0])
}

// future completes through callbacks like a task awaiter.
type future struct {
	done      bool
	value     int
	err       error
	callbacks []func()
}

func (f *future) OnCompleted(fn func()) {
	if f.done {
		fn()
		return
	}
	f.callbacks = append(f.callbacks, fn)
}

func (f *future) IsCompleted() bool { return f.done }

func (f *future) GetResult() (int, error) {
	if !f.done {
		return 0, errNotReady
	}
	return f.value, f.err
}

func (f *future) complete(v int) {
	f.done, f.value = true, v
	for _, fn := range f.callbacks {
		fn()
	}
}

type task struct {
	f *future
}

func (t task) GetAwaiter() *future { return t.f }

type money struct {
	cents int64
}

func (m money) Add(o money) money { return money{m.cents + o.cents} }
func (m money) Sub(o money) money { return money{m.cents - o.cents} }
func (m money) Mul(k int64) money { return money{m.cents * k} }
func (m money) Lsh(n int) money   { return money{m.cents << n} }
func (m money) Neg() money        { return money{-m.cents} }
func (m money) Cmp(o money) int   { return int(m.cents - o.cents) }
func (m money) Div(k int64) (money, error) {
	if k == 0 {
		return money{}, errors.New("division by zero")
	}
	return money{m.cents / k}, nil
}

func scaleMoney(k int64, m money) money { return money{k * m.cents} }

// echo resolves whatever the proxy does not know.
type echo struct{}

func (echo) TryGetMember(name string) (any, bool, error) { return name + "!", true, nil }
func (echo) TrySetMember(string, any) (bool, error)      { return false, nil }
func (echo) TryGetIndex([]any) (any, bool, error)        { return nil, false, nil }
func (echo) TrySetIndex([]any, any) (bool, error)        { return false, nil }
func (echo) TryInvoke([]any, binder.CallInfo) (any, bool, error) {
	return nil, false, nil
}

func (echo) TryInvokeMember(name string, args []any, _ binder.CallInfo) (any, bool, error) {
	return len(args), true, nil
}

func (echo) TryBinaryOp(operator.Kind, any) (any, bool, error) { return nil, false, nil }
func (echo) TryUnaryOp(operator.Kind) (any, bool, error)       { return nil, false, nil }
func (echo) TryConvert(reflect.Type) (any, bool, error)        { return nil, false, nil }

func newFixtureCache(t *testing.T) *typeinfo.Cache {
	t.Helper()

	cache := typeinfo.NewCache()
	require.NoError(t, cache.Register(reflect.TypeFor[subject](),
		typeinfo.Constructor(newSubject, typeinfo.Params("field")),
		typeinfo.Method("privateMethod", (*subject).privateMethod),
		typeinfo.Method("pick", (*subject).pickInt),
		typeinfo.Method("pick", (*subject).pickString),
		typeinfo.Method("pick", (*subject).pickBool),
		typeinfo.Method("greet", (*subject).greet, typeinfo.Params("name", "greeting"), typeinfo.Defaults("hello")),
		typeinfo.Generic("genericMethod", 1, instantiateGeneric),
		typeinfo.Static("staticSum", staticSum),
		typeinfo.StaticField("count", &subjectCount),
		typeinfo.StaticField("tag", &subjectTag, typeinfo.ReadOnly()),
		typeinfo.StaticProperty("label", getLabel, setLabel),
		typeinfo.Property("hiddenProperty", (*subject).hiddenFlag, (*subject).setHiddenFlag),
		typeinfo.Indexer((*subject).get, (*subject).set),
		typeinfo.Nested("child", reflect.TypeFor[child]()),
		typeinfo.Converter(fromCount),
		typeinfo.Converter(describe, typeinfo.Explicit()),
	))
	require.NoError(t, cache.Register(reflect.TypeFor[child](),
		typeinfo.StaticField("created", &childrenCreated),
	))
	require.NoError(t, cache.Register(reflect.TypeFor[money](),
		typeinfo.Static("Mul", scaleMoney),
	))
	cache.RegisterName("subject", reflect.TypeFor[subject]())
	cache.RegisterName("hider", reflect.TypeFor[hider]())

	return cache
}

func newFixtureEngine(t *testing.T) *Engine {
	t.Helper()

	e, err := NewEngine(WithCache(newFixtureCache(t)))
	require.NoError(t, err)
	return e
}

func newFixture(t *testing.T) (*Engine, *Limitless, *subject) {
	t.Helper()

	e := newFixtureEngine(t)
	l, err := e.Construct(reflect.TypeFor[subject](), "test")
	require.NoError(t, err)

	s, ok := l.Target().(*subject)
	require.True(t, ok)
	return e, l, s
}
