package reflectx

import (
	"reflect"
	"sort"
)

// Methods inspects the type t using reflection and returns a sorted slice of strings
// containing the names of all methods in its method set. Only exported methods are
// listed due to Go's visibility rules in reflection. For a non-interface, non-pointer
// type the method set of the pointer type is used, so pointer receivers are included.
//
// Parameters:
//   - t: The type whose methods are to be listed.
//
// Returns:
//   - []string: A slice containing the names of all methods associated with t.
func Methods(t reflect.Type) []string {
	if t.Kind() != reflect.Interface && t.Kind() != reflect.Pointer {
		t = reflect.PointerTo(t)
	}

	methodNames := make([]string, 0, t.NumMethod())
	for i := 0; i < t.NumMethod(); i++ {
		methodNames = append(methodNames, t.Method(i).Name)
	}

	sort.Strings(methodNames)

	return methodNames
}
