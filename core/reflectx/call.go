package reflectx

import (
	"errors"
	"fmt"
	"reflect"
)

// Error types.
var (
	ErrIncorrectArgumentCount = errors.New("incorrect number of arguments")
	ErrInvalidArgumentValue   = errors.New("invalid argument value")
	ErrInvocationPanic        = errors.New("invocation panicked")
	ErrNotFunc                = errors.New("value is not a func")
)

var errorType = reflect.TypeFor[error]()

// Call invokes fn with arguments already coerced to its parameter types. For a
// variadic fn the last argument must be the packed slice. A panic raised by fn
// is recovered and returned as an error wrapping ErrInvocationPanic (and the
// panic value itself when it is an error).
//
// When the last result of fn is an error it is split off and returned as the
// error of Call; the remaining results are returned as is.
//
// Example:
//
//	fn := reflect.ValueOf(strconv.Atoi)
//	out, err := Call(fn, []reflect.Value{reflect.ValueOf("12")})
//	// out[0].Int() == 12, err == nil
func Call(fn reflect.Value, args []reflect.Value) (results []reflect.Value, err error) {
	if fn.Kind() != reflect.Func || fn.IsNil() {
		return nil, ErrNotFunc
	}

	ft := fn.Type()
	if len(args) != ft.NumIn() {
		return nil, fmt.Errorf(
			"%w: found %d but expected %d: call %s",
			ErrIncorrectArgumentCount,
			len(args),
			ft.NumIn(),
			ft,
		)
	}

	for i, a := range args {
		if !a.IsValid() {
			args[i] = reflect.Zero(ft.In(i))
		}
	}

	defer func() {
		if r := recover(); r != nil {
			if perr, ok := r.(error); ok {
				err = fmt.Errorf("%w: %w", ErrInvocationPanic, perr)
				return
			}
			err = fmt.Errorf("%w: %v", ErrInvocationPanic, r)
		}
	}()

	var out []reflect.Value
	if ft.IsVariadic() {
		out = fn.CallSlice(args)
	} else {
		out = fn.Call(args)
	}

	return SplitError(ft, out)
}

// ReturnsError reports whether the last result of the func type ft is an error.
func ReturnsError(ft reflect.Type) bool {
	return ft.NumOut() > 0 && ft.Out(ft.NumOut()-1) == errorType
}

// SplitError separates the trailing error result of a call from the others.
func SplitError(ft reflect.Type, out []reflect.Value) ([]reflect.Value, error) {
	if !ReturnsError(ft) {
		return out, nil
	}

	last := out[len(out)-1]
	out = out[:len(out)-1]
	if last.IsNil() {
		return out, nil
	}

	return out, last.Interface().(error) //nolint:forcetypeassert
}

// Outputs collapses call results into a single value: nil for none, the
// converted value for one and a []any for more. Each value goes through conv.
func Outputs(out []reflect.Value, conv func(reflect.Value) any) any {
	switch len(out) {
	case 0:
		return nil
	case 1:
		return conv(out[0])
	}

	res := make([]any, len(out))
	for i, v := range out {
		res[i] = conv(v)
	}
	return res
}

// Interface returns v as an any, nil for an invalid value. Values read from
// unexported fields are exposed first.
func Interface(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}
	if !v.CanInterface() {
		v = Expose(v)
		if !v.CanInterface() {
			return nil
		}
	}
	return v.Interface()
}
