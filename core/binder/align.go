package binder

import "slices"

// Align computes where each caller argument lands in declared parameter
// order. The last len(names) of the n caller arguments are named; the rest are
// positional. The returned permutation maps a declared slot to the caller
// index feeding it, -1 marking a slot that only a default value can fill.
//
// Align fails when a name is unknown, refers to a slot already taken by a
// positional argument or is given twice.
func Align(params []string, n int, names []string) ([]int, bool) {
	k := len(names)
	if k == 0 {
		perm := make([]int, n)
		for i := range perm {
			perm[i] = i
		}
		return perm, true
	}
	if k > n {
		return nil, false
	}

	positional := n - k
	size := positional
	slots := make([]int, k)
	for i, name := range names {
		at := slices.Index(params, name)
		if at < positional {
			return nil, false
		}
		slots[i] = at
		size = max(size, at+1)
	}

	perm := make([]int, size)
	for i := range perm {
		perm[i] = -1
	}
	for i := range positional {
		perm[i] = i
	}
	for i, at := range slots {
		if perm[at] != -1 {
			return nil, false
		}
		perm[at] = positional + i
	}

	return perm, true
}

// Restore maps values laid out in declared order back to the caller layout of
// n arguments using a permutation produced by Align.
func Restore[T any](aligned []T, perm []int, n int) []T {
	out := make([]T, n)
	for slot, j := range perm {
		if j >= 0 && j < n && slot < len(aligned) {
			out[j] = aligned[slot]
		}
	}
	return out
}
