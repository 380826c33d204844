// Package selector picks a bounded, representative subset of contributions.
//
// The heaviest items by weight are kept, then one designated outlier is
// forced in so that a quiet or structurally distinct contribution is always
// represented next to the high-impact ones.
package selector

import (
	"slices"
	"time"
)

// Policy parameterizes Select for one item type
type Policy[T any] struct {
	// Weight scores an item; higher is more notable
	Weight func(T) float64

	// Date orders the final selection newest-first
	Date func(T) time.Time

	// Key identifies an item for the "already selected" check
	Key func(T) string

	// Outlier returns the index in items of the item to force into the
	// selection, or -1 when there is none
	Outlier func(items []T, weights []float64) int
}

// Select returns at most limit items.
//
// When len(items) <= limit every item is returned, newest-first. Otherwise
// items are ranked by descending weight (ties keep input order) and the top
// limit are kept. If the policy's outlier is not among them it overwrites the
// last kept slot. The result is sorted newest-first. items is not modified.
func Select[T any](items []T, limit int, p Policy[T]) []T {
	if limit <= 0 || len(items) == 0 {
		return []T{}
	}

	if len(items) <= limit {
		out := slices.Clone(items)
		sortNewestFirst(out, p.Date)
		return out
	}

	weights := make([]float64, len(items))
	for i, item := range items {
		weights[i] = p.Weight(item)
	}

	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		switch {
		case weights[a] > weights[b]:
			return -1
		case weights[a] < weights[b]:
			return 1
		}
		return 0
	})

	picks := make([]T, limit)
	selected := make(map[string]bool, limit)
	for i := 0; i < limit; i++ {
		picks[i] = items[order[i]]
		selected[p.Key(picks[i])] = true
	}

	if p.Outlier != nil {
		if idx := p.Outlier(items, weights); idx >= 0 && !selected[p.Key(items[idx])] {
			picks[limit-1] = items[idx]
		}
	}

	sortNewestFirst(picks, p.Date)
	return picks
}

func sortNewestFirst[T any](items []T, date func(T) time.Time) {
	slices.SortStableFunc(items, func(a, b T) int {
		return date(b).Compare(date(a))
	})
}

// LowestWeight returns the index of the first item with the globally lowest weight
func LowestWeight[T any](items []T, weights []float64) int {
	if len(weights) == 0 {
		return -1
	}
	lowest := 0
	for i, w := range weights {
		if w < weights[lowest] {
			lowest = i
		}
	}
	return lowest
}

// FirstMatching builds an outlier function returning the first item satisfying match
func FirstMatching[T any](match func(T) bool) func([]T, []float64) int {
	return func(items []T, _ []float64) int {
		for i, item := range items {
			if match(item) {
				return i
			}
		}
		return -1
	}
}
