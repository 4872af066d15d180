package core

import (
	"reflect"
	"testing"

	"github.com/anoideaopen/limitless/core/operator"
	"github.com/stretchr/testify/require"
)

func invokable(t *testing.T, l *Limitless, name string) *Invokable {
	t.Helper()

	v, err := l.GetMember(name)
	require.NoError(t, err)
	inv, ok := v.(*Invokable)
	require.True(t, ok, "%s is a method group", name)
	return inv
}

func TestInvokable(t *testing.T) {
	_, l, _ := newFixture(t)

	pick := invokable(t, l, "pick")
	require.Equal(t, "pick", pick.Name())
	require.Len(t, pick.Group(), 3)

	got, err := pick.Invoke("s")
	require.NoError(t, err)
	require.Equal(t, "string", got)

	_, err = pick.Invoke(struct{}{})
	require.ErrorIs(t, err, ErrNoMatchingMethod)

	got, err = invokable(t, l, "greet").InvokeNamed([]string{"greeting", "name"}, "hey", "max")
	require.NoError(t, err)
	require.Equal(t, "hey, max", got)
}

func TestGenericInvokable(t *testing.T) {
	e, l, s := newFixture(t)
	generic := invokable(t, l, "genericMethod")

	_, err := generic.Invoke(true)
	require.ErrorIs(t, err, ErrNoMatchingMethod, "generic methods need type arguments")

	for _, tc := range []struct {
		name    string
		typeArg any
		arg     any
		want    reflect.Type
	}{
		{name: "reflect type", typeArg: reflect.TypeFor[bool](), arg: true, want: reflect.TypeFor[bool]()},
		{name: "type name", typeArg: "string", arg: "x", want: reflect.TypeFor[string]()},
	} {
		t.Run(tc.name, func(t *testing.T) {
			inst, err := generic.Of(tc.typeArg)
			require.NoError(t, err)

			got, err := inst.Invoke(tc.arg)
			require.NoError(t, err)
			require.Equal(t, tc.arg, got)
			require.Equal(t, tc.want, s.lastType)
		})
	}

	st, err := e.Static(reflect.TypeFor[bool]())
	require.NoError(t, err)
	_, err = generic.Of(st)
	require.NoError(t, err, "a static proxy stands for its type")

	_, err = generic.Of("int")
	require.ErrorIs(t, err, ErrNoMatchingMethod)
	_, err = generic.Of(42)
	require.ErrorIs(t, err, ErrTypeNotFound)
	_, err = generic.Of("missing")
	require.ErrorIs(t, err, ErrTypeNotFound)
}

func TestDelegates(t *testing.T) {
	e, l, s := newFixture(t)

	double, err := Delegate[func(int) int](invokable(t, l, "privateMethod"))
	require.NoError(t, err)
	require.Equal(t, 42, double(21))

	st, err := e.Static(reflect.TypeFor[subject]())
	require.NoError(t, err)

	expr, err := Delegate[func(*subject, int) int](invokable(t, st, "privateMethod"))
	require.NoError(t, err)
	require.Equal(t, 10, expr(s, 5))

	sum, err := Delegate[func(int, int) int](invokable(t, st, "staticSum"))
	require.NoError(t, err)
	require.Equal(t, 7, sum(3, 4))

	_, err = Delegate[func(string) int](invokable(t, l, "privateMethod"))
	require.ErrorIs(t, err, ErrNoMatchingMethod)
}

func TestEvents(t *testing.T) {
	_, l, s := newFixture(t)

	v, err := l.GetMember("Changed")
	require.NoError(t, err)
	ev, ok := v.(*Event)
	require.True(t, ok)
	require.Equal(t, "Changed", ev.Name())
	require.Equal(t, reflect.TypeFor[func(string)](), ev.HandlerType())

	var seen []string
	first := func(v string) { seen = append(seen, "first:"+v) }
	second := func(v string) { seen = append(seen, "second:"+v) }

	require.NoError(t, ev.Add(first))
	res, err := ev.BinaryOp(operator.AddAssign, second)
	require.NoError(t, err)
	require.Same(t, ev, res)
	require.Len(t, s.Changed, 2)

	_, err = ev.Raise("a")
	require.NoError(t, err)
	require.Equal(t, []string{"first:a", "second:a"}, seen)

	_, err = ev.BinaryOp(operator.SubAssign, first)
	require.NoError(t, err)
	seen = nil
	_, err = ev.Raise("b")
	require.NoError(t, err)
	require.Equal(t, []string{"second:b"}, seen)

	require.NoError(t, ev.Remove(second))
	require.Empty(t, s.Changed)

	require.NoError(t, ev.Add(nil))
	require.Empty(t, s.Changed, "nil handlers are ignored")

	require.NoError(t, ev.Add([]func(string){first, second}))
	require.Len(t, s.Changed, 2, "slices of handlers are flattened")

	_, err = ev.BinaryOp(operator.Mul, first)
	require.ErrorIs(t, err, ErrOperatorNotFound)
	require.ErrorIs(t, ev.Add(42), ErrTypeMismatch)

	_, err = ev.Raise(1, 2)
	require.ErrorIs(t, err, ErrNoMatchingMethod)
}

func TestEventMethodHandler(t *testing.T) {
	_, l, s := newFixture(t)

	v, err := l.GetMember("Changed")
	require.NoError(t, err)
	ev := v.(*Event)

	require.NoError(t, ev.Add(invokable(t, l, "SetSecret")))
	_, err = ev.Raise("from event")
	require.NoError(t, err)
	require.Equal(t, "from event", s.secret)
}

func TestEventMethodHandlerRemove(t *testing.T) {
	e, l, s := newFixture(t)

	v, err := l.GetMember("Changed")
	require.NoError(t, err)
	ev := v.(*Event)

	_, err = ev.BinaryOp(operator.AddAssign, invokable(t, l, "SetSecret"))
	require.NoError(t, err)
	_, err = ev.BinaryOp(operator.AddAssign, invokable(t, l, "SetSecret"))
	require.NoError(t, err)
	require.Len(t, s.Changed, 2)
	require.Equal(t, 1, e.handlers.size())

	_, err = ev.BinaryOp(operator.SubAssign, invokable(t, l, "SetSecret"))
	require.NoError(t, err)
	require.Len(t, s.Changed, 1)

	require.NoError(t, ev.Remove(invokable(t, l, "SetSecret")))
	require.Empty(t, s.Changed)
	require.Zero(t, e.handlers.size())

	s.secret = "untouched"
	_, err = ev.Raise("after remove")
	require.NoError(t, err)
	require.Equal(t, "untouched", s.secret)

	other, err := e.Construct(reflect.TypeFor[subject](), "other")
	require.NoError(t, err)
	require.NoError(t, ev.Add(invokable(t, l, "SetSecret")))
	require.NoError(t, ev.Remove(invokable(t, other, "SetSecret")))
	require.Len(t, s.Changed, 1, "a method of another receiver is a different handler")
}

func TestAwaiter(t *testing.T) {
	e, l, _ := newFixture(t)

	await := func(t *testing.T, v any) (any, error) {
		t.Helper()

		p, ok := v.(*Limitless)
		require.True(t, ok)
		a, err := p.GetAwaiter()
		require.NoError(t, err)
		require.Same(t, a, a.GetAwaiter())
		require.True(t, a.IsCompleted())
		return a.GetResult()
	}

	for _, tc := range []struct {
		name    string
		member  string
		args    []any
		want    any
		wantErr error
	}{
		{name: "channel", member: "Async", args: []any{1}, want: 1},
		{name: "future", member: "Later", args: []any{2}, want: 2},
		{name: "failing future", member: "Failing", wantErr: errNotReady},
		{name: "get awaiter member", member: "Task", args: []any{3}, want: 3},
	} {
		t.Run(tc.name, func(t *testing.T) {
			v, err := l.InvokeMember(tc.member, tc.args...)
			require.NoError(t, err)

			got, err := await(t, v)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}

	t.Run("plain value", func(t *testing.T) {
		got, err := await(t, e.Wrap(money{5}))
		require.NoError(t, err)
		require.Equal(t, money{5}, got.(*Limitless).Target())
	})

	t.Run("static", func(t *testing.T) {
		st, err := e.Static(reflect.TypeFor[subject]())
		require.NoError(t, err)
		got, err := await(t, st)
		require.NoError(t, err)
		require.Nil(t, got)
	})
}

func TestAwaiterPending(t *testing.T) {
	e := newFixtureEngine(t)
	f := &future{}

	a, err := e.Wrap(f).GetAwaiter()
	require.NoError(t, err)
	require.False(t, a.IsCompleted())

	var done bool
	a.OnCompleted(func() { done = true })
	require.False(t, done)

	f.complete(7)
	require.True(t, done)
	require.True(t, a.IsCompleted())

	got, err := a.GetResult()
	require.NoError(t, err)
	require.Equal(t, 7, got)

	ch := make(chan int)
	a, err = e.Wrap(ch).GetAwaiter()
	require.NoError(t, err)
	require.False(t, a.IsCompleted(), "an empty channel is pending")

	close(ch)
	require.True(t, a.IsCompleted())
	got, err = a.GetResult()
	require.NoError(t, err)
	require.Nil(t, got)

	var ran bool
	a.OnCompleted(func() { ran = true })
	require.True(t, ran, "without an OnCompleted member the continuation runs at once")
}

// cursor enumerates through Next and Current.
type cursor struct {
	items []int
	pos   int
}

func (c *cursor) Next() bool {
	c.pos++
	return c.pos < len(c.items)
}

func (c *cursor) Current() int { return c.items[c.pos] }
func (c *cursor) Reset()       { c.pos = -1 }

func collect(t *testing.T, l *Limitless) []any {
	t.Helper()

	var out []any
	for v := range l.All() {
		if p, ok := v.(*Limitless); ok {
			id, err := p.GetMember("id")
			require.NoError(t, err)
			v = id
		}
		out = append(out, v)
	}
	return out
}

func TestEnumeration(t *testing.T) {
	e, l, _ := newFixture(t)

	member := func(name string) *Limitless {
		v, err := l.InvokeMember(name)
		require.NoError(t, err)
		p, ok := v.(*Limitless)
		require.True(t, ok)
		return p
	}

	ch := make(chan int, 2)
	ch <- 1
	ch <- 2
	close(ch)

	for _, tc := range []struct {
		name string
		l    *Limitless
		want []any
	}{
		{name: "slice", l: member("Children"), want: []any{1, 2}},
		{name: "seq", l: member("Each"), want: []any{1, 2}},
		{name: "seq2", l: member("Pairs"), want: []any{KeyValue{Key: 1, Value: "a"}, KeyValue{Key: 2, Value: "b"}}},
		{name: "map", l: e.Wrap(map[string]int{"k": 1}), want: []any{KeyValue{Key: "k", Value: 1}}},
		{name: "string", l: e.Wrap("hé"), want: []any{'h', 'é'}},
		{name: "channel", l: e.Wrap(ch), want: []any{1, 2}},
		{name: "protocol", l: e.Wrap(&cursor{items: []int{3, 4}, pos: -1}), want: []any{3, 4}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, collect(t, tc.l))
		})
	}

	_, err := e.Wrap(money{}).GetEnumerator()
	require.ErrorIs(t, err, ErrNotEnumerable)
	require.Empty(t, collect(t, e.Wrap(money{})))
}

func TestEnumeratorReset(t *testing.T) {
	e, l, _ := newFixture(t)

	v, err := l.InvokeMember("Each")
	require.NoError(t, err)
	en, err := v.(*Limitless).GetEnumerator()
	require.NoError(t, err)
	defer en.Close()

	require.True(t, en.MoveNext())
	require.True(t, en.MoveNext())
	require.NoError(t, en.Reset())
	require.True(t, en.MoveNext())
	id, err := en.Current().(*Limitless).GetMember("id")
	require.NoError(t, err)
	require.Equal(t, 1, id)

	c := &cursor{items: []int{5}, pos: -1}
	en, err = e.Wrap(c).GetEnumerator()
	require.NoError(t, err)
	require.True(t, en.MoveNext())
	require.False(t, en.MoveNext())
	require.NoError(t, en.Reset())
	require.True(t, en.MoveNext())
	require.Equal(t, 5, en.Current())

	en, err = e.Wrap(make(chan int)).GetEnumerator()
	require.NoError(t, err)
	require.ErrorIs(t, en.Reset(), ErrResetUnsupported)
}
