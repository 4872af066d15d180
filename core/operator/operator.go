// Package operator maps abstract operator kinds to the member names that
// declare them and reports the operand arity of each kind.
//
// Go has no operator overloading, so user-defined operators are ordinary
// methods following a naming convention (math/big style: Add, Sub, Cmp...).
// The mapping lives in a Table value so that a resolver can be configured
// with a different convention without touching the lookup code.
package operator

// Kind is an abstract operator tag.
type Kind int

const (
	Unknown Kind = iota

	// comparison
	Equal
	NotEqual
	Greater
	Less
	GreaterOrEqual
	LessOrEqual

	// arithmetic
	Add
	Sub
	Mul
	Div
	Mod
	Pow

	// bitwise
	And
	Or
	Xor
	Lsh
	Rsh

	// compound assignment
	AddAssign
	SubAssign
	MulAssign
	DivAssign
	ModAssign
	PowAssign
	AndAssign
	OrAssign
	XorAssign
	LshAssign
	RshAssign

	// unary
	Plus
	Neg
	Not
	Complement
	Inc
	Dec
	IsTrue
	IsFalse

	// conversion
	Explicit
	Implicit

	kindCount
)

var kindNames = [...]string{
	Unknown:        "unknown",
	Equal:          "==",
	NotEqual:       "!=",
	Greater:        ">",
	Less:           "<",
	GreaterOrEqual: ">=",
	LessOrEqual:    "<=",
	Add:            "+",
	Sub:            "-",
	Mul:            "*",
	Div:            "/",
	Mod:            "%",
	Pow:            "**",
	And:            "&",
	Or:             "|",
	Xor:            "^",
	Lsh:            "<<",
	Rsh:            ">>",
	AddAssign:      "+=",
	SubAssign:      "-=",
	MulAssign:      "*=",
	DivAssign:      "/=",
	ModAssign:      "%=",
	PowAssign:      "**=",
	AndAssign:      "&=",
	OrAssign:       "|=",
	XorAssign:      "^=",
	LshAssign:      "<<=",
	RshAssign:      ">>=",
	Plus:           "unary +",
	Neg:            "unary -",
	Not:            "!",
	Complement:     "^x",
	Inc:            "++",
	Dec:            "--",
	IsTrue:         "true",
	IsFalse:        "false",
	Explicit:       "explicit",
	Implicit:       "implicit",
}

func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return kindNames[Unknown]
	}
	return kindNames[k]
}

// Base returns the non-assigning operator of a compound assignment kind.
// Any other kind is returned as is.
func (k Kind) Base() Kind {
	switch k {
	case AddAssign:
		return Add
	case SubAssign:
		return Sub
	case MulAssign:
		return Mul
	case DivAssign:
		return Div
	case ModAssign:
		return Mod
	case PowAssign:
		return Pow
	case AndAssign:
		return And
	case OrAssign:
		return Or
	case XorAssign:
		return Xor
	case LshAssign:
		return Lsh
	case RshAssign:
		return Rsh
	default:
		return k
	}
}

// IsComparison reports whether k is one of the six relational kinds.
func (k Kind) IsComparison() bool {
	return k >= Equal && k <= LessOrEqual
}

// IsConversion reports whether k is a conversion kind.
func (k Kind) IsConversion() bool {
	return k == Explicit || k == Implicit
}

// Entry is a single row of a Table.
type Entry struct {
	Name  string
	Arity int
}

// Table maps operator kinds to member names. Kinds absent from the table are
// unsupported: they have no member name and arity 0.
type Table map[Kind]Entry

// Name returns the member name declared for k, or "" when k is unsupported.
// Compound assignment kinds map to the name of their base operator.
func (t Table) Name(k Kind) string {
	return t[k.Base()].Name
}

// Arity returns 1 for unary kinds, 2 for binary kinds and 0 for unsupported ones.
func (t Table) Arity(k Kind) int {
	return t[k.Base()].Arity
}

// Lookup returns the kind registered under the member name.
func (t Table) Lookup(name string) (Kind, bool) {
	for k, e := range t {
		if e.Name == name {
			return k, true
		}
	}
	return Unknown, false
}

// Clone returns an independent copy of the table.
func (t Table) Clone() Table {
	c := make(Table, len(t))
	for k, e := range t {
		c[k] = e
	}
	return c
}

// DefaultTable is the Go naming convention.
var DefaultTable = Table{
	Equal:          {"Equal", 2},
	NotEqual:       {"NotEqual", 2},
	Greater:        {"Greater", 2},
	Less:           {"Less", 2},
	GreaterOrEqual: {"GreaterOrEqual", 2},
	LessOrEqual:    {"LessOrEqual", 2},
	Add:            {"Add", 2},
	Sub:            {"Sub", 2},
	Mul:            {"Mul", 2},
	Div:            {"Div", 2},
	Mod:            {"Mod", 2},
	Pow:            {"Pow", 2},
	And:            {"And", 2},
	Or:             {"Or", 2},
	Xor:            {"Xor", 2},
	Lsh:            {"Lsh", 2},
	Rsh:            {"Rsh", 2},
	Plus:           {"Plus", 1},
	Neg:            {"Neg", 1},
	Not:            {"Not", 1},
	Complement:     {"Complement", 1},
	Inc:            {"Inc", 1},
	Dec:            {"Dec", 1},
	IsTrue:         {"IsTrue", 1},
	IsFalse:        {"IsFalse", 1},
	Explicit:       {"Explicit", 1},
	Implicit:       {"Implicit", 1},
}

// Name returns the default member name of k.
func Name(k Kind) string {
	return DefaultTable.Name(k)
}

// Arity returns the default operand arity of k.
func Arity(k Kind) int {
	return DefaultTable.Arity(k)
}
