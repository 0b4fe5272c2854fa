package pipeline

import (
	"fmt"
	"math"

	"github.com/sanspareilsmyn/windowlens/internal/message"
	"github.com/sanspareilsmyn/windowlens/internal/window"
)

// aggState is the accumulator behind all built-in aggregations. Each
// aggregation touches only its own fields, so an aggregation with a deduct
// stays invertible. max starts at -Inf so newly created and fully deducted
// states compare equal.
type aggState struct {
	count int64
	sum   float64
	sumSq float64
	max   float64
}

func newAggState() *aggState {
	return &aggState{max: math.Inf(-1)}
}

func aggStateEqual(a, b *aggState) bool {
	return *a == *b
}

// builtinOps resolves an aggregation by its configured name. The "max"
// aggregation carries no deduct, so sliding windows recompute it from the
// buffered frames instead of maintaining it incrementally.
func builtinOps(name string) (window.Ops[message.Event, *aggState, AggregationResult], error) {
	switch name {
	case "count":
		return countOps(), nil
	case "sum":
		return sumOps(), nil
	case "meanvar":
		return meanVarOps(), nil
	case "max":
		return maxOps(), nil
	default:
		return window.Ops[message.Event, *aggState, AggregationResult]{},
			fmt.Errorf("%w: %q", ErrUnknownAggregation, name)
	}
}

func countOps() window.Ops[message.Event, *aggState, AggregationResult] {
	return window.Ops[message.Event, *aggState, AggregationResult]{
		CreateEmpty: newAggState,
		Accumulate: func(acc *aggState, _ message.Event) *aggState {
			acc.count++
			return acc
		},
		Combine: func(a, b *aggState) *aggState {
			a.count += b.count
			return a
		},
		Deduct: func(a, b *aggState) *aggState {
			a.count -= b.count
			return a
		},
		Finish: func(acc *aggState) AggregationResult {
			return AggregationResult{Count: acc.count}
		},
		Equal: aggStateEqual,
	}
}

func sumOps() window.Ops[message.Event, *aggState, AggregationResult] {
	return window.Ops[message.Event, *aggState, AggregationResult]{
		CreateEmpty: newAggState,
		Accumulate: func(acc *aggState, ev message.Event) *aggState {
			acc.count++
			acc.sum += ev.Value
			return acc
		},
		Combine: func(a, b *aggState) *aggState {
			a.count += b.count
			a.sum += b.sum
			return a
		},
		Deduct: func(a, b *aggState) *aggState {
			a.count -= b.count
			a.sum -= b.sum
			return a
		},
		Finish: func(acc *aggState) AggregationResult {
			sum := acc.sum
			return AggregationResult{Count: acc.count, Sum: &sum}
		},
		Equal: aggStateEqual,
	}
}

func meanVarOps() window.Ops[message.Event, *aggState, AggregationResult] {
	return window.Ops[message.Event, *aggState, AggregationResult]{
		CreateEmpty: newAggState,
		Accumulate: func(acc *aggState, ev message.Event) *aggState {
			acc.count++
			acc.sum += ev.Value
			acc.sumSq += ev.Value * ev.Value
			return acc
		},
		Combine: func(a, b *aggState) *aggState {
			a.count += b.count
			a.sum += b.sum
			a.sumSq += b.sumSq
			return a
		},
		Deduct: func(a, b *aggState) *aggState {
			a.count -= b.count
			a.sum -= b.sum
			a.sumSq -= b.sumSq
			return a
		},
		Finish: func(acc *aggState) AggregationResult {
			result := AggregationResult{Count: acc.count}
			if acc.count <= 0 {
				return result
			}
			mean := acc.sum / float64(acc.count)
			// Variance = E[X^2] - (E[X])^2; floating point noise can push it
			// slightly below zero.
			variance := acc.sumSq/float64(acc.count) - mean*mean
			if variance < 0 {
				variance = 0
			}
			result.Mean = &mean
			result.Variance = &variance
			return result
		},
		Equal: aggStateEqual,
	}
}

func maxOps() window.Ops[message.Event, *aggState, AggregationResult] {
	return window.Ops[message.Event, *aggState, AggregationResult]{
		CreateEmpty: newAggState,
		Accumulate: func(acc *aggState, ev message.Event) *aggState {
			acc.count++
			acc.max = math.Max(acc.max, ev.Value)
			return acc
		},
		Combine: func(a, b *aggState) *aggState {
			a.count += b.count
			a.max = math.Max(a.max, b.max)
			return a
		},
		// No Deduct: a maximum cannot be un-merged.
		Finish: func(acc *aggState) AggregationResult {
			result := AggregationResult{Count: acc.count}
			if acc.count > 0 {
				maxVal := acc.max
				result.Max = &maxVal
			}
			return result
		},
		Equal: aggStateEqual,
	}
}
