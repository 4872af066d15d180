package operator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestName(t *testing.T) {
	tests := []struct {
		kind  Kind
		name  string
		arity int
	}{
		{Equal, "Equal", 2},
		{LessOrEqual, "LessOrEqual", 2},
		{Add, "Add", 2},
		{AddAssign, "Add", 2},
		{RshAssign, "Rsh", 2},
		{Neg, "Neg", 1},
		{Complement, "Complement", 1},
		{Inc, "Inc", 1},
		{Explicit, "Explicit", 1},
		{Unknown, "", 0},
		{Kind(1000), "", 0},
	}

	for _, test := range tests {
		t.Run(test.kind.String(), func(t *testing.T) {
			require.Equal(t, test.name, Name(test.kind))
			require.Equal(t, test.arity, Arity(test.kind))
		})
	}
}

func TestCompoundAssignMatchesBase(t *testing.T) {
	for k := AddAssign; k <= RshAssign; k++ {
		require.NotEqual(t, k, k.Base())
		require.Equal(t, Name(k.Base()), Name(k))
		require.NotEmpty(t, Name(k))
	}
}

func TestTableSwap(t *testing.T) {
	table := DefaultTable.Clone()
	table[Add] = Entry{Name: "op_Addition", Arity: 2}
	delete(table, Pow)

	require.Equal(t, "op_Addition", table.Name(AddAssign))
	require.Equal(t, 0, table.Arity(PowAssign))
	require.Equal(t, "Add", Name(Add))

	k, ok := table.Lookup("op_Addition")
	require.True(t, ok)
	require.Equal(t, Add, k)

	_, ok = table.Lookup("Pow")
	require.False(t, ok)
}

func TestKindClasses(t *testing.T) {
	require.True(t, Greater.IsComparison())
	require.False(t, Add.IsComparison())
	require.True(t, Implicit.IsConversion())
	require.False(t, Not.IsConversion())
	require.Equal(t, "+=", AddAssign.String())
	require.Equal(t, "unknown", Kind(-1).String())
}
