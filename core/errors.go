package core

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/anoideaopen/limitless/core/typeinfo"
)

// Error types.
var (
	ErrMemberNotFound        = errors.New("member not found")
	ErrNoMatchingMethod      = errors.New("no matching method found")
	ErrNoMatchingConstructor = typeinfo.ErrNoMatchingConstructor
	ErrTypeMismatch          = errors.New("type mismatch")
	ErrTypeNotFound          = typeinfo.ErrTypeNotFound
	ErrNotInvocable          = errors.New("target is not invocable")
	ErrNotEnumerable         = errors.New("target is not enumerable")
	ErrConversionFailed      = errors.New("conversion failed")
	ErrOperatorNotFound      = errors.New("operator not found")
	ErrEventUnavailable      = errors.New("event unavailable")
	ErrNilType               = errors.New("type is nil")
	ErrResetUnsupported      = errors.New("enumerator cannot be reset")
)

// MemberError reports a failed access to a member of a type. It matches its
// sentinel with errors.Is and unwraps to the underlying cause, if any.
type MemberError struct {
	external error
	internal error
	member   string
	t        reflect.Type
}

func newMemberError(sentinel error, t reflect.Type, member string, errOrNil error) error {
	return MemberError{
		external: errOrNil,
		internal: sentinel,
		member:   member,
		t:        t,
	}
}

// Member returns the name of the member.
func (e MemberError) Member() string {
	return e.member
}

// Type returns the type the member was looked up on.
func (e MemberError) Type() reflect.Type {
	return e.t
}

// Error returns a formatted error message naming the member and the type.
func (e MemberError) Error() string {
	t := "<nil>"
	if e.t != nil {
		t = e.t.String()
	}

	if e.external == nil {
		return fmt.Sprintf("%v: '%s': for type '%s'", e.internal, e.member, t)
	}

	return fmt.Sprintf("%v: '%s': for type '%s': '%v'", e.internal, e.member, t, e.external)
}

// Is checks if the target error matches the internal error.
func (e MemberError) Is(target error) bool {
	return e.internal == target
}

// Unwrap returns the external error, if any.
func (e MemberError) Unwrap() error {
	return e.external
}
