// Package binder selects the best overload of a member for a list of
// arguments and coerces the arguments to the declared parameter types.
//
// Candidates are ranked per argument on an exactness ladder: an identical
// type beats an implicit numeric widening, which beats plain assignability
// (interfaces, unnamed/named type pairs, nil for nillable kinds). The first
// candidate matching every argument exactly wins. Otherwise the candidate
// that is at least as good as every other one on each argument wins. When no
// such candidate exists the call is ambiguous and, if no named arguments were
// used, the first compatible candidate is taken.
package binder

import (
	"reflect"
)

// Signature describes the parameters of a callable.
type Signature struct {
	In       []reflect.Type
	Variadic bool
	// Names are the declared parameter names, used to align named arguments.
	Names []string
	// Defaults fill the trailing parameters when the caller omits them.
	// An invalid value stands for the zero value of the parameter.
	Defaults []reflect.Value
}

// Candidate is a callable member taking part in overload resolution.
type Candidate interface {
	Signature() Signature
}

// Generic is a candidate with type parameters. It takes part in resolution
// only when the caller supplies exactly GenericArity type arguments.
type Generic interface {
	Candidate
	GenericArity() int
	Instantiate(typeArgs []reflect.Type) (Candidate, error)
}

// Wrapped is implemented by proxies passed as arguments. UnwrapTarget returns
// the wrapped value, and an invalid value plus the declared type when the
// proxy holds no target.
type Wrapped interface {
	UnwrapTarget() (reflect.Value, reflect.Type)
}

// CallInfo carries the call-site details beyond the argument values.
type CallInfo struct {
	// Names of the trailing named arguments.
	Names []string
	// TypeArgs are the explicit type arguments for generic candidates.
	TypeArgs []reflect.Type
}

// Result is the outcome of a successful Bind.
type Result struct {
	// Index of the chosen candidate in the list given to Bind.
	Index int
	// Candidate is the chosen candidate, or its instantiation.
	Candidate Candidate
	// Args are the coerced arguments in declared parameter order. For a
	// variadic candidate the last one is the packed slice.
	Args []reflect.Value
	// Values are the coerced arguments in the caller's layout.
	Values []reflect.Value
	// Padded is the number of parameters filled from defaults.
	Padded int
	// Ambiguous is set when the fallback selector picked the candidate.
	Ambiguous bool
}

type matched struct {
	index     int
	candidate Candidate
	ranks     []rank
	args      []reflect.Value
	values    []reflect.Value
	padded    int
}

func (m *matched) exact() bool {
	if m.padded > 0 {
		return false
	}
	for _, r := range m.ranks {
		if r != rankExact {
			return false
		}
	}
	return true
}

// dominates reports whether m is at least as good as o on every argument and
// strictly better on one.
func (m *matched) dominates(o *matched) bool {
	better := false
	for i := range m.ranks {
		switch {
		case m.ranks[i] < o.ranks[i]:
			return false
		case m.ranks[i] > o.ranks[i]:
			better = true
		}
	}
	switch {
	case m.padded > o.padded:
		return false
	case m.padded < o.padded:
		better = true
	}
	return better
}

// Bind picks one of the candidates for args and coerces them.
func Bind(candidates []Candidate, args []any, info CallInfo) (Result, bool) {
	unwrapped := unwrap(args)

	var applicable []*matched
	for i, c := range candidates {
		c, ok := instantiate(c, info.TypeArgs)
		if !ok {
			continue
		}
		m, ok := match(c.Signature(), unwrapped, info.Names)
		if !ok {
			continue
		}
		m.index, m.candidate = i, c
		if m.exact() {
			return m.result(false), true
		}
		applicable = append(applicable, m)
	}

	switch len(applicable) {
	case 0:
		return Result{}, false
	case 1:
		return applicable[0].result(false), true
	}

	if best := unique(applicable); best != nil {
		return best.result(false), true
	}

	if len(info.Names) > 0 {
		return Result{}, false
	}

	types := make([]reflect.Type, len(unwrapped))
	for i, a := range unwrapped {
		if !a.null {
			types[i] = a.t
		}
	}
	sigs := make([]Candidate, len(applicable))
	for i, m := range applicable {
		sigs[i] = m.candidate
	}
	at, ok := Select(sigs, types)
	if !ok {
		return Result{}, false
	}

	return applicable[at].result(true), true
}

func unique(ms []*matched) *matched {
	var best *matched
	for i, m := range ms {
		maximal := true
		for j, o := range ms {
			if i != j && !m.dominates(o) {
				maximal = false
				break
			}
		}
		if maximal {
			if best != nil {
				return nil
			}
			best = m
		}
	}
	return best
}

func (m *matched) result(ambiguous bool) Result {
	return Result{
		Index:     m.index,
		Candidate: m.candidate,
		Args:      m.args,
		Values:    m.values,
		Padded:    m.padded,
		Ambiguous: ambiguous,
	}
}

func instantiate(c Candidate, typeArgs []reflect.Type) (Candidate, bool) {
	g, generic := c.(Generic)
	arity := 0
	if generic {
		arity = g.GenericArity()
	}
	if arity != len(typeArgs) {
		return nil, false
	}
	if arity == 0 {
		return c, true
	}

	inst, err := g.Instantiate(typeArgs)
	if err != nil || inst == nil {
		return nil, false
	}

	return inst, true
}

// Select is the best-effort selector: it returns the index of the first
// candidate whose parameters accept values of the given types, nil standing
// for an untyped nil. It never fails on ambiguity.
func Select(candidates []Candidate, types []reflect.Type) (int, bool) {
	probe := make([]arg, len(types))
	for i, t := range types {
		probe[i] = arg{t: t, null: t == nil}
	}

	for i, c := range candidates {
		if _, ok := match(c.Signature(), probe, nil); ok {
			return i, true
		}
	}

	return -1, false
}

// Underlying returns the value behind raw, unwrapping a proxy. For a nil
// argument the value is invalid and the type is the declared type of the
// proxy, or nil.
func Underlying(raw any) (reflect.Value, reflect.Type) {
	a := unwrapOne(raw)
	return a.v, a.t
}

func unwrap(args []any) []arg {
	out := make([]arg, len(args))
	for i, raw := range args {
		out[i] = unwrapOne(raw)
	}
	return out
}

func unwrapOne(raw any) arg {
	if w, ok := raw.(Wrapped); ok {
		v, t := w.UnwrapTarget()
		if !v.IsValid() {
			return arg{t: t, null: true}
		}
		if v.Kind() == reflect.Interface {
			if v.IsNil() {
				return arg{t: t, null: true}
			}
			v = v.Elem()
		}
		return arg{v: v, t: v.Type()}
	}
	if raw == nil {
		return arg{null: true}
	}

	v := reflect.ValueOf(raw)
	return arg{v: v, t: v.Type()}
}

// match binds args against sig, returning per-argument ranks in the caller
// layout and coerced values.
func match(sig Signature, args []arg, names []string) (*matched, bool) {
	n := len(args)
	perm, ok := Align(sig.Names, n, names)
	if !ok {
		return nil, false
	}

	var (
		np           = len(sig.In)
		fixed        = np
		firstDefault = np - len(sig.Defaults)
		out          = make([]reflect.Value, np)
		aligned      = make([]reflect.Value, len(perm))
		alignedRanks = make([]rank, len(perm))
		padded       int
	)
	if sig.Variadic {
		fixed = np - 1
	}
	if !sig.Variadic && len(perm) > np {
		return nil, false
	}

	for i := range fixed {
		j := -1
		if i < len(perm) {
			j = perm[i]
		}
		if j < 0 {
			if i < firstDefault {
				return nil, false
			}
			d := sig.Defaults[i-firstDefault]
			if !d.IsValid() {
				d = reflect.Zero(sig.In[i])
			}
			out[i] = d
			padded++
			continue
		}

		r := compat(sig.In[i], args[j])
		if r == rankNone {
			return nil, false
		}
		out[i] = coerce(sig.In[i], args[j], r)
		aligned[i], alignedRanks[i] = out[i], r
	}

	if sig.Variadic {
		var rest []int
		if len(perm) > fixed {
			rest = perm[fixed:]
		}
		if !packRest(sig.In[fixed], args, rest, out, aligned[min(fixed, len(perm)):], alignedRanks[min(fixed, len(perm)):]) {
			return nil, false
		}
	}

	return &matched{
		ranks:  Restore(alignedRanks, perm, n),
		args:   out,
		values: Restore(aligned, perm, n),
		padded: padded,
	}, true
}

// packRest fills the variadic slot. A single argument assignable to the slice
// type is passed as is; otherwise every remaining argument must fit the
// element type.
func packRest(sliceType reflect.Type, args []arg, rest []int, out, aligned []reflect.Value, ranks []rank) bool {
	last := len(out) - 1
	for _, j := range rest {
		if j < 0 {
			return false
		}
	}

	if len(rest) == 1 {
		a := args[rest[0]]
		if r := compat(sliceType, a); r != rankNone {
			out[last] = coerce(sliceType, a, r)
			aligned[0], ranks[0] = out[last], r
			return true
		}
	}

	elem := sliceType.Elem()
	slice := reflect.MakeSlice(sliceType, len(rest), len(rest))
	for k, j := range rest {
		r := compat(elem, args[j])
		if r == rankNone {
			return false
		}
		v := coerce(elem, args[j], r)
		if v.IsValid() {
			slice.Index(k).Set(v)
		}
		aligned[k], ranks[k] = v, r
	}
	out[last] = slice

	return true
}

// SignatureOf derives a signature from a func type, skipping the first skip
// parameters (method receivers).
func SignatureOf(ft reflect.Type, skip int) Signature {
	in := make([]reflect.Type, 0, ft.NumIn()-skip)
	for i := skip; i < ft.NumIn(); i++ {
		in = append(in, ft.In(i))
	}
	return Signature{In: in, Variadic: ft.IsVariadic()}
}
