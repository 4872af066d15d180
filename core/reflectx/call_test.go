package reflectx

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/timestamppb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type TestStructForCall struct {
	visible string
	hidden  int
}

func (t *TestStructForCall) Method1(in string) string {
	t.visible = in
	return "updated: " + in
}

func (t *TestStructForCall) Method2(parts ...string) string {
	return strings.Join(parts, ",")
}

func (t *TestStructForCall) Method3(n int) (int, error) {
	if n < 0 {
		return 0, errors.New("negative")
	}
	return n * 2, nil
}

func (t *TestStructForCall) Method4() {
	panic("boom")
}

func TestCall(t *testing.T) {
	input := &TestStructForCall{}
	v := reflect.ValueOf(input)

	tests := []struct {
		name      string
		method    string
		args      []reflect.Value
		wantErr   error
		wantValue any
	}{
		{
			name:      "Method1 plain call",
			method:    "Method1",
			args:      []reflect.Value{reflect.ValueOf("data")},
			wantValue: "updated: data",
		},
		{
			name:      "Method2 packed variadic",
			method:    "Method2",
			args:      []reflect.Value{reflect.ValueOf([]string{"a", "b"})},
			wantValue: "a,b",
		},
		{
			name:      "Method3 split error result",
			method:    "Method3",
			args:      []reflect.Value{reflect.ValueOf(21)},
			wantValue: 42,
		},
		{
			name:    "Method3 returned error",
			method:  "Method3",
			args:    []reflect.Value{reflect.ValueOf(-1)},
			wantErr: errors.New("negative"),
		},
		{
			name:    "Method4 recovered panic",
			method:  "Method4",
			wantErr: ErrInvocationPanic,
		},
		{
			name:    "Method1 wrong argument count",
			method:  "Method1",
			wantErr: ErrIncorrectArgumentCount,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			out, err := Call(v.MethodByName(test.method), test.args)
			if test.wantErr != nil {
				require.Error(t, err)
				if errors.Is(test.wantErr, ErrInvocationPanic) || errors.Is(test.wantErr, ErrIncorrectArgumentCount) {
					require.ErrorIs(t, err, test.wantErr)
				} else {
					require.EqualError(t, err, test.wantErr.Error())
				}
				return
			}

			require.NoError(t, err)
			require.Equal(t, test.wantValue, Outputs(out, Interface))
		})
	}

	require.Equal(t, "data", input.visible)

	_, err := Call(reflect.ValueOf(42), nil)
	require.ErrorIs(t, err, ErrNotFunc)
}

func TestOutputs(t *testing.T) {
	require.Nil(t, Outputs(nil, Interface))
	require.Equal(t, 1, Outputs([]reflect.Value{reflect.ValueOf(1)}, Interface))
	require.Equal(t, []any{1, "a"}, Outputs([]reflect.Value{reflect.ValueOf(1), reflect.ValueOf("a")}, Interface))
	require.Nil(t, Outputs([]reflect.Value{{}}, Interface))

	kinds := func(v reflect.Value) any { return v.Kind() }
	require.Equal(t, []any{reflect.Int, reflect.String}, Outputs([]reflect.Value{reflect.ValueOf(1), reflect.ValueOf("a")}, kinds))
}

func TestParseValue(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name    string
		s       string
		t       reflect.Type
		want    any
		wantErr bool
	}{
		{"string", "plain", reflect.TypeFor[string](), "plain", false},
		{"int json", "42", reflect.TypeFor[int](), 42, false},
		{"float slice", "[1.5, 2]", reflect.TypeFor[[]float64](), []float64{1.5, 2}, false},
		{"bool", "true", reflect.TypeFor[bool](), true, false},
		{"time text", ts.Format(time.RFC3339), reflect.TypeFor[time.Time](), ts, false},
		{"bad int", "one", reflect.TypeFor[int](), nil, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			v, err := ParseValue(test.s, test.t)
			if test.wantErr {
				require.ErrorIs(t, err, ErrInvalidArgumentValue)
				return
			}
			require.NoError(t, err)
			require.Equal(t, test.want, v.Interface())
		})
	}
}

func TestParseValueProto(t *testing.T) {
	v, err := ParseValue(`"hello"`, reflect.TypeFor[*wrapperspb.StringValue]())
	require.NoError(t, err)
	require.Equal(t, "hello", v.Interface().(*wrapperspb.StringValue).GetValue())

	v, err = ParseValue(`"2024-01-02T03:04:05Z"`, reflect.TypeFor[*timestamppb.Timestamp]())
	require.NoError(t, err)
	require.Equal(t, int64(1704164645), v.Interface().(*timestamppb.Timestamp).GetSeconds())
}

type celsius float64

type point struct{ X, Y int }

func TestChangeType(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name    string
		in      any
		t       reflect.Type
		want    any
		wantErr bool
	}{
		{"assignable", 3, reflect.TypeFor[any](), 3, false},
		{"convert numeric", 5, reflect.TypeFor[float64](), 5.0, false},
		{"convert defined", 36.6, reflect.TypeFor[celsius](), celsius(36.6), false},
		{"int formats as text", 5, reflect.TypeFor[string](), "5", false},
		{"parse string", "42", reflect.TypeFor[int](), 42, false},
		{"parse bytes", []byte("true"), reflect.TypeFor[bool](), true, false},
		{"text marshaler", ts, reflect.TypeFor[string](), "2024-01-02T03:04:05Z", false},
		{"struct to int", point{1, 2}, reflect.TypeFor[int](), nil, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			out, err := ChangeType(reflect.ValueOf(test.in), test.t)
			if test.wantErr {
				require.ErrorIs(t, err, ErrNotConvertible)
				return
			}
			require.NoError(t, err)
			require.Equal(t, test.want, out.Interface())
		})
	}

	require.True(t, Plausible(reflect.TypeFor[string](), reflect.TypeFor[point]()))
	require.True(t, Plausible(reflect.TypeFor[point](), reflect.TypeFor[string]()))
	require.False(t, Plausible(reflect.TypeFor[point](), reflect.TypeFor[int]()))
}

func TestExpose(t *testing.T) {
	s := &TestStructForCall{hidden: 7}
	field := reflect.ValueOf(s).Elem().FieldByName("hidden")
	require.False(t, field.CanInterface())

	exposed := Expose(field)
	require.Equal(t, 7, exposed.Interface())
	exposed.SetInt(9)
	require.Equal(t, 9, s.hidden)
	require.Equal(t, 9, Interface(field))

	boxed := Addressable(reflect.ValueOf(point{1, 2}))
	require.True(t, boxed.CanAddr())
	boxed.Field(0).SetInt(5)
	require.Equal(t, point{5, 2}, boxed.Interface())
}

func TestFuncIdentity(t *testing.T) {
	mk := func(n int) func() int { return func() int { return n } }
	a, b := mk(1), mk(2)
	c := a

	require.NotZero(t, FuncIdentity(reflect.ValueOf(a)))
	require.Equal(t, FuncIdentity(reflect.ValueOf(a)), FuncIdentity(reflect.ValueOf(c)))
	require.NotEqual(t, FuncIdentity(reflect.ValueOf(a)), FuncIdentity(reflect.ValueOf(b)))
	require.Zero(t, FuncIdentity(reflect.ValueOf((func())(nil))))
	require.NotZero(t, FuncIdentity(reflect.ValueOf(strconv.Itoa)))
}

func TestIsPrimitive(t *testing.T) {
	require.True(t, IsPrimitive(reflect.TypeFor[int]()))
	require.True(t, IsPrimitive(reflect.TypeFor[celsius]()))
	require.True(t, IsPrimitive(reflect.TypeFor[time.Time]()))
	require.True(t, IsPrimitive(reflect.TypeFor[error]()))
	require.True(t, IsPrimitive(reflect.TypeOf(reflect.TypeFor[int]())))
	require.False(t, IsPrimitive(reflect.TypeFor[point]()))
	require.False(t, IsPrimitive(reflect.TypeFor[[]int]()))

	require.True(t, IsBuiltinNumeric(reflect.TypeFor[uint16]()))
	require.True(t, IsBuiltinNumeric(reflect.TypeFor[bool]()))
	require.False(t, IsBuiltinNumeric(reflect.TypeFor[celsius]()))
	require.False(t, IsBuiltinNumeric(reflect.TypeFor[string]()))
}

func TestMethods(t *testing.T) {
	names := Methods(reflect.TypeFor[TestStructForCall]())
	require.Equal(t, []string{"Method1", "Method2", "Method3", "Method4"}, names)
}
