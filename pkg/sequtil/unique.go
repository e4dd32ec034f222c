// Package sequtil holds helpers for working with iterators and slices.
package sequtil

import (
	"iter"
	"slices"
)

// UniqueByIndex returns the distinct elements of seq in order of first
// occurrence. seq is ranged over exactly once, so one-shot sequences are fine.
func UniqueByIndex[T comparable](seq iter.Seq[T]) []T {
	seen := make(map[T]struct{})
	result := []T{}
	for v := range seq {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}

// UniqueSlice is UniqueByIndex over a slice.
func UniqueSlice[T comparable](s []T) []T {
	return UniqueByIndex(slices.Values(s))
}
