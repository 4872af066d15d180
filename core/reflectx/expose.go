package reflectx

import (
	"reflect"
	"unsafe"
)

// Expose returns a view of v that can be read with Interface and written
// with Set even when v was reached through unexported struct fields.
// Only addressable values can be exposed; anything else is returned as is.
func Expose(v reflect.Value) reflect.Value {
	if !v.IsValid() || (v.CanInterface() && (v.CanSet() || !v.CanAddr())) {
		return v
	}
	if !v.CanAddr() {
		return v
	}

	return reflect.NewAt(v.Type(), unsafe.Pointer(v.UnsafeAddr())).Elem()
}

// Addressable returns an addressable copy of v. Values that are already
// addressable are returned unchanged.
func Addressable(v reflect.Value) reflect.Value {
	if !v.IsValid() || v.CanAddr() {
		return v
	}

	box := reflect.New(v.Type()).Elem()
	box.Set(v)
	return box
}

// Indirect follows pointers down to the first non-pointer value. A nil
// pointer on the way yields an invalid value.
func Indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

// FuncIdentity returns a number identifying the closure held by a func
// value. Two func values share an identity only when they are the same
// closure, which makes it suitable for unsubscribing handlers.
func FuncIdentity(v reflect.Value) uintptr {
	if !v.IsValid() || v.Kind() != reflect.Func || v.IsNil() {
		return 0
	}

	i := Interface(v)
	return uintptr((*[2]unsafe.Pointer)(unsafe.Pointer(&i))[1])
}
