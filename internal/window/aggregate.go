package window

import "reflect"

// Ops bundles the aggregation callables the operator applies to per-key
// accumulator state. T is the input item type, A the accumulator, R the
// finished result handed downstream.
//
// Contract: CreateEmpty must be deterministic, and the value it produces must
// stay equality-stable for the lifetime of the operator — the operator
// captures one empty accumulator at construction and compares against it to
// decide when a deducted entry can be dropped. Accumulate and Combine may
// mutate and return their first argument or return a fresh value; callers
// only ever use the returned one. Combine must be associative and
// commutative over non-empty frames. Finish must be pure.
type Ops[T, A, R any] struct {
	// CreateEmpty produces a fresh, empty accumulator.
	CreateEmpty func() A
	// Accumulate folds one item into an accumulator.
	Accumulate func(acc A, item T) A
	// Combine merges two accumulators.
	Combine func(a, b A) A
	// Deduct undoes a previous Combine: Deduct(Combine(x, y), y) must equal
	// x by value. Optional; when present the operator maintains sliding
	// windows incrementally instead of recomputing them per frame.
	Deduct func(a, b A) A
	// Finish derives the externally visible result from an accumulator.
	Finish func(acc A) R
	// Equal is the value-equality predicate on accumulators, used to detect
	// emptiness. Optional; nil falls back to reflect.DeepEqual, which is
	// content-based and therefore correct (if slow) for pointer
	// accumulators too.
	Equal func(a, b A) bool
}

func (o Ops[T, A, R]) validate() error {
	if o.CreateEmpty == nil {
		return ErrMissingCreateEmpty
	}
	if o.Accumulate == nil {
		return ErrMissingAccumulate
	}
	if o.Combine == nil {
		return ErrMissingCombine
	}
	if o.Finish == nil {
		return ErrMissingFinish
	}
	return nil
}

// Incremental reports whether the ops support add-leading/deduct-trailing
// window maintenance.
func (o Ops[T, A, R]) Incremental() bool {
	return o.Deduct != nil
}

func (o Ops[T, A, R]) equal(a, b A) bool {
	if o.Equal != nil {
		return o.Equal(a, b)
	}
	return reflect.DeepEqual(a, b)
}
