package internal

import (
	"cmp"
	"iter"
	"slices"
)

// IterSeq2Concat concatenates multiple dual-return iterators into a single iterator sequence.
func IterSeq2Concat[T1 any, T2 any](seqs ...iter.Seq2[T1, T2]) iter.Seq2[T1, T2] {
	return func(yield func(T1, T2) bool) {
		for _, seq := range seqs {
			for val1, val2 := range seq {
				if !yield(val1, val2) {
					return // Stop if the consumer stops
				}
			}
		}
	}
}

// SortedKeys collects the keys of a dual-return iterator, sorted.
func SortedKeys[T1 cmp.Ordered, T2 any](seq iter.Seq2[T1, T2]) (keys []T1) {
	for key := range seq {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return
}
