package core

import (
	"reflect"
	"testing"

	"github.com/anoideaopen/limitless/core/operator"
	"github.com/stretchr/testify/require"
)

func TestMemberValues(t *testing.T) {
	_, l, s := newFixture(t)

	v, err := l.GetMember("privateField")
	require.NoError(t, err)
	require.Equal(t, "test", v)

	require.NoError(t, l.SetMember("privateField", "changed"))
	require.Equal(t, "changed", s.privateField)

	v, err = l.GetMember("hiddenProperty")
	require.NoError(t, err)
	require.Equal(t, false, v)
	require.NoError(t, l.SetMember("hiddenProperty", true))
	require.True(t, s.hidden)

	require.NoError(t, l.SetMember("Secret", "psst"))
	v, err = l.GetMember("Secret")
	require.NoError(t, err)
	require.Equal(t, "psst", v)

	require.NoError(t, l.SetMember("Name", "exported"))
	require.Equal(t, "exported", s.Name)

	err = l.SetMember("hiddenProperty", "not a bool")
	require.Error(t, err)
}

func TestMemberWrapping(t *testing.T) {
	_, l, s := newFixture(t)

	v, err := l.GetMember("children")
	require.NoError(t, err)
	children, ok := v.(*Limitless)
	require.True(t, ok, "slices are handed out behind a proxy")

	first, err := children.GetIndex(0)
	require.NoError(t, err)
	p, ok := first.(*Limitless)
	require.True(t, ok)

	require.NoError(t, p.SetMember("label", "changed"))
	require.Equal(t, "changed", s.children[0].label, "elements are reached in place")

	v, err = l.GetMember("lastType")
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestIndexer(t *testing.T) {
	_, l, s := newFixture(t)

	require.NoError(t, l.SetIndex("value", "test"))
	require.Equal(t, "value", s.store["test"])

	v, err := l.GetIndex("test")
	require.NoError(t, err)
	require.Equal(t, "value", v)

	v, err = l.GetMember("test")
	require.NoError(t, err)
	require.Equal(t, "value", v, "unknown members fall back to a single-key index")

	m := Wrap(&map[string]int{"a": 1})
	require.NoError(t, m.SetIndex(2, "b"))
	v, err = m.GetIndex("b")
	require.NoError(t, err)
	require.Equal(t, 2, v)

	_, err = m.GetIndex("a", "b")
	require.ErrorIs(t, err, ErrMemberNotFound)
	require.ErrorContains(t, err, "'[a b]'")
	require.ErrorContains(t, m.SetIndex(3, "a", "b"), "'[a b]'")
}

func TestInvokeMember(t *testing.T) {
	_, l, _ := newFixture(t)

	for _, tc := range []struct {
		name  string
		args  []any
		names []string
		want  any
	}{
		{name: "privateMethod", args: []any{21}, want: 42},
		{name: "pick", args: []any{1}, want: "int"},
		{name: "pick", args: []any{"x"}, want: "string"},
		{name: "pick", args: []any{true}, want: "bool"},
		{name: "greet", args: []any{"bob"}, want: "hello, bob"},
		{name: "greet", args: []any{"bob"}, names: []string{"name"}, want: "hello, bob"},
		{name: "greet", args: []any{"hi", "ann"}, names: []string{"greeting", "name"}, want: "hi, ann"},
		{name: "HiddenInterfaceMethod", args: []any{true}, want: false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := l.InvokeMemberNamed(tc.name, tc.names, tc.args...)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}

	_, err := l.InvokeMember("pick", 1.5)
	require.ErrorIs(t, err, ErrNoMatchingMethod)

	narrowed, err := l.engine.WrapAs(l, reflect.TypeFor[hider]())
	require.NoError(t, err)
	_, err = narrowed.InvokeMember("missing")
	require.ErrorIs(t, err, ErrMemberNotFound)
}

func TestInvokeWritesBack(t *testing.T) {
	_, l, _ := newFixture(t)

	args := []any{int8(21)}
	got, err := l.InvokeMember("privateMethod", args...)
	require.NoError(t, err)
	require.Equal(t, 42, got)
	require.Equal(t, 21, args[0], "the coerced argument replaces the caller's one")
}

func TestInvokeFuncs(t *testing.T) {
	e := newFixtureEngine(t)

	fn := e.Wrap(func(a, b int) int { return a * b })
	got, err := fn.Invoke(6, 7)
	require.NoError(t, err)
	require.Equal(t, 42, got)

	_, err = fn.Invoke("x")
	require.ErrorIs(t, err, ErrNoMatchingMethod)

	_, err = e.Wrap(&subject{}).Invoke()
	require.ErrorIs(t, err, ErrNotInvocable)

	holder := e.Wrap(&struct{ Fn func(string) string }{Fn: func(s string) string { return s + s }})
	got, err = holder.InvokeMember("Fn", "ab")
	require.NoError(t, err)
	require.Equal(t, "abab", got)
}

func TestStatic(t *testing.T) {
	e := newFixtureEngine(t)
	count, label := subjectCount, subjectLabel
	t.Cleanup(func() { subjectCount, subjectLabel = count, label })

	st, err := e.Static(reflect.TypeFor[subject]())
	require.NoError(t, err)
	require.True(t, st.IsStatic())

	byName, err := e.StaticByName("subject")
	require.NoError(t, err)
	require.Equal(t, st.Type(), byName.Type())

	got, err := st.InvokeMember("staticSum", 1, 2)
	require.NoError(t, err)
	require.Equal(t, 3, got)

	require.NoError(t, st.SetMember("count", 10))
	v, err := st.GetMember("count")
	require.NoError(t, err)
	require.Equal(t, 10, v)

	v, err = st.GetMember("tag")
	require.NoError(t, err)
	require.Equal(t, "tagged", v)
	require.ErrorIs(t, st.SetMember("tag", "x"), ErrMemberNotFound)

	require.NoError(t, st.SetMember("label", "renamed"))
	require.Equal(t, "renamed", subjectLabel)

	_, err = st.GetMember("privateField")
	require.ErrorIs(t, err, ErrMemberNotFound)

	instance, err := e.Construct(reflect.TypeFor[subject](), "x")
	require.NoError(t, err)
	again, err := e.StaticOf(instance)
	require.NoError(t, err)
	got, err = again.InvokeMember("staticSum", 2, 2)
	require.NoError(t, err)
	require.Equal(t, 4, got)

	got, err = st.InvokeMember("privateMethod", instance, 4)
	require.NoError(t, err)
	require.Equal(t, 8, got, "instance methods of a static proxy take the receiver first")

	_, err = e.StaticByName("nope")
	require.ErrorIs(t, err, ErrTypeNotFound)
	_, err = e.Static(nil)
	require.ErrorIs(t, err, ErrNilType)
}

func TestNestedType(t *testing.T) {
	e := newFixtureEngine(t)

	st, err := e.Static(reflect.TypeFor[subject]())
	require.NoError(t, err)

	v, err := st.GetMember("child")
	require.NoError(t, err)
	nested, ok := v.(*Limitless)
	require.True(t, ok)
	require.Equal(t, reflect.TypeFor[child](), nested.Type())

	v, err = nested.GetMember("created")
	require.NoError(t, err)
	require.Equal(t, 2, v)
}

func TestConstruct(t *testing.T) {
	e := newFixtureEngine(t)

	for _, tc := range []struct {
		name    string
		args    []any
		want    string
		wantErr error
	}{
		{name: "private ctor", args: []any{"test"}, want: "test"},
		{name: "zero value", args: nil, want: ""},
		{name: "no match", args: []any{1}, wantErr: ErrNoMatchingConstructor},
	} {
		t.Run(tc.name, func(t *testing.T) {
			l, err := e.Construct(reflect.TypeFor[subject](), tc.args...)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			v, err := l.GetMember("privateField")
			require.NoError(t, err)
			require.Equal(t, tc.want, v)
		})
	}

	l, err := e.ConstructByName("subject", "named")
	require.NoError(t, err)
	v, err := l.GetMember("privateField")
	require.NoError(t, err)
	require.Equal(t, "named", v)

	_, err = e.Construct(nil)
	require.ErrorIs(t, err, ErrNilType)
}

func TestWrapAs(t *testing.T) {
	e, l, s := newFixture(t)

	narrowed, err := e.WrapAs(s, reflect.TypeFor[hider]())
	require.NoError(t, err)
	require.Equal(t, reflect.TypeFor[hider](), narrowed.Type())

	require.NoError(t, narrowed.SetMember("Secret", "hidden"))
	v, err := narrowed.GetMember("Secret")
	require.NoError(t, err)
	require.Equal(t, "hidden", v)

	_, err = narrowed.GetMember("privateField")
	require.ErrorIs(t, err, ErrMemberNotFound, "a narrowed proxy hides other members")

	rewrapped, err := e.WrapAsName(narrowed, "hider")
	require.NoError(t, err)
	require.Same(t, s, rewrapped.Target())

	converted, err := e.WrapAs(1, reflect.TypeFor[*subject]())
	require.NoError(t, err)
	v, err = converted.GetMember("privateField")
	require.NoError(t, err)
	require.Equal(t, "from 1", v)

	_, err = e.WrapAs(l, reflect.TypeFor[money]())
	require.ErrorIs(t, err, ErrTypeMismatch)

	require.Same(t, l, e.Wrap(l))
	require.Nil(t, e.Wrap(nil))
}

func TestConvert(t *testing.T) {
	e, l, s := newFixture(t)

	str, err := ConvertTo[string](l)
	require.NoError(t, err)
	require.Equal(t, "subject:test", str)

	back, err := ConvertTo[*subject](l)
	require.NoError(t, err)
	require.Same(t, s, back)

	f, err := ConvertTo[float32](e.Wrap(int64(42)))
	require.NoError(t, err)
	require.Equal(t, float32(42), f)

	n, err := ConvertTo[int](e.Wrap("17"))
	require.NoError(t, err)
	require.Equal(t, 17, n)

	ptr, err := ConvertTo[*money](e.Wrap(money{5}))
	require.NoError(t, err)
	require.Equal(t, int64(5), ptr.cents)

	_, err = ConvertTo[money](l)
	require.ErrorIs(t, err, ErrConversionFailed)
}

func TestOperators(t *testing.T) {
	e := newFixtureEngine(t)
	m := e.Wrap(money{500})

	for _, tc := range []struct {
		name string
		kind operator.Kind
		arg  any
		want any
	}{
		{name: "add", kind: operator.Add, arg: money{250}, want: money{750}},
		{name: "sub", kind: operator.Sub, arg: money{100}, want: money{400}},
		{name: "compound", kind: operator.AddAssign, arg: money{1}, want: money{501}},
		{name: "proxy operand", kind: operator.Add, arg: e.Wrap(money{1}), want: money{501}},
		{name: "mul", kind: operator.Mul, arg: int64(3), want: money{1500}},
		{name: "shift", kind: operator.Lsh, arg: 1, want: money{1000}},
		{name: "div", kind: operator.Div, arg: int64(5), want: money{100}},
		{name: "greater", kind: operator.Greater, arg: money{1}, want: true},
		{name: "less", kind: operator.LessOrEqual, arg: money{1}, want: false},
		{name: "not equal", kind: operator.NotEqual, arg: money{500}, want: false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := m.BinaryOp(tc.kind, tc.arg)
			require.NoError(t, err)
			if p, ok := got.(*Limitless); ok {
				got = p.Target()
			}
			require.Equal(t, tc.want, got)
		})
	}

	got, err := e.Wrap(int64(3)).BinaryOp(operator.Mul, money{5})
	require.NoError(t, err)
	require.Equal(t, money{15}, got.(*Limitless).Target(), "the right operand type is searched too")

	neg, err := m.UnaryOp(operator.Neg)
	require.NoError(t, err)
	require.Equal(t, money{-500}, neg.(*Limitless).Target())

	got, err = e.Wrap(int64(3)).BinaryOp(operator.Mul, &money{5})
	require.NoError(t, err)
	require.Equal(t, money{15}, got.(*Limitless).Target(), "pointer operands match operators over the element type")

	got, err = e.Wrap(&money{500}).BinaryOp(operator.Add, &money{1})
	require.NoError(t, err)
	require.Equal(t, money{501}, got.(*Limitless).Target())

	neg, err = e.Wrap(&money{5}).UnaryOp(operator.Neg)
	require.NoError(t, err)
	require.Equal(t, money{-5}, neg.(*Limitless).Target())

	_, err = m.BinaryOp(operator.Div, int64(0))
	require.ErrorContains(t, err, "division by zero")

	_, err = m.BinaryOp(operator.Pow, money{2})
	require.ErrorIs(t, err, ErrOperatorNotFound)
	_, err = m.UnaryOp(operator.Not)
	require.ErrorIs(t, err, ErrOperatorNotFound)
}

func TestDynamicTarget(t *testing.T) {
	e := newFixtureEngine(t)
	l := e.Wrap(echo{})

	v, err := l.GetMember("anything")
	require.NoError(t, err)
	require.Equal(t, "anything!", v)

	v, err = l.InvokeMember("whatever", 1, 2, 3)
	require.NoError(t, err)
	require.Equal(t, 3, v)

	_, err = l.GetIndex("x")
	require.ErrorIs(t, err, ErrMemberNotFound)
}
