package window

import (
	"iter"

	"go.uber.org/zap"
)

// Frame is one emitted result row: the aggregation of key over the window
// ending at FrameSeq.
type Frame[K comparable, R any] struct {
	FrameSeq int64
	Key      K
	Result   R
}

// ProgressMarker signals that no further item with a frame sequence at or
// below Seq will arrive, authorizing emission of the windows it completes.
type ProgressMarker struct {
	Seq int64
}

// Emission is one element of the operator's output stream: either a result
// Frame or the forwarded ProgressMarker that bounds the frames before it.
// Exactly one of the two fields is set.
type Emission[K comparable, R any] struct {
	Frame  *Frame[K, R]
	Marker *ProgressMarker
}

// Operator is the windowing operator: it buckets incoming items into frames
// per key and, driven by progress markers, emits per-key aggregation results
// for every window of frames that has become complete. Window computation is
// tumbling, incremental sliding (when the ops supply Deduct), or sliding
// recomputed from scratch.
//
// An Operator instance is single-owner: the host must call OnItem and
// OnProgress serially and consume each returned sequence before the next
// call.
type Operator[T any, K comparable, A, R any] struct {
	def             Definition
	ops             Ops[T, A, R]
	extractFrameSeq func(T) int64
	extractKey      func(T) K
	logger          *zap.Logger

	store    *frameStore[T, K, A]
	sliding  *slidingState[K, A]
	emptyAcc A

	nextFrameSeqToEmit int64
	initialized        bool
}

// NewOperator builds an operator over the given window geometry, aggregation
// ops, and item extractors. The extractors map an item to the frame sequence
// assigned upstream and to its grouping key.
func NewOperator[T any, K comparable, A, R any](
	def Definition,
	ops Ops[T, A, R],
	extractFrameSeq func(T) int64,
	extractKey func(T) K,
	logger *zap.Logger,
) (*Operator[T, K, A, R], error) {
	if err := ops.validate(); err != nil {
		return nil, err
	}
	if extractFrameSeq == nil {
		return nil, ErrMissingFrameSeqFn
	}
	if extractKey == nil {
		return nil, ErrMissingKeyFn
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	emptyAcc := ops.CreateEmpty()
	op := &Operator[T, K, A, R]{
		def:             def,
		ops:             ops,
		extractFrameSeq: extractFrameSeq,
		extractKey:      extractKey,
		logger:          logger,
		store:           newFrameStore[T, K, A](ops.CreateEmpty, ops.Accumulate),
		emptyAcc:        emptyAcc,
	}
	if ops.Incremental() {
		op.sliding = newSlidingState[K, A](ops.CreateEmpty, ops.equal, emptyAcc)
	}

	logger.Debug("Windowing operator constructed",
		zap.Int64("frame_length", def.FrameLength()),
		zap.Int64("window_length", def.WindowLength()),
		zap.Bool("tumbling", def.IsTumbling()),
		zap.Bool("incremental", ops.Incremental()),
	)
	return op, nil
}

// OnItem folds one item into its frame's per-key accumulator. Per call it
// allocates at most one frame map entry and one accumulator.
func (o *Operator[T, K, A, R]) OnItem(item T) {
	o.store.upsert(o.extractFrameSeq(item), o.extractKey(item), item)
}

// OnProgress drives emission for one progress marker. It returns a lazy,
// single-use sequence of result frames in ascending frame order followed by
// the marker itself; the marker reaches downstream strictly after every
// frame it bounds. Frame eviction and sliding-state deduction for an emitted
// frame run once its rows have been consumed, so an abandoned iteration
// leaves unconsumed frames intact.
func (o *Operator[T, K, A, R]) OnProgress(marker ProgressMarker) iter.Seq[Emission[K, R]] {
	if !o.initialized {
		lowest, ok := o.store.minFrameSeq()
		if !ok {
			// No data on record: forward the marker and stay uninitialized.
			return func(yield func(Emission[K, R]) bool) {
				yield(Emission[K, R]{Marker: &marker})
			}
		}
		// First marker acted upon. Start from the lowest frame on record (or
		// the marker, if lower) so the first window covers at most one
		// existing frame and the add-leading/deduct-trailing state builds up
		// from empty.
		o.nextFrameSeqToEmit = min(lowest, marker.Seq)
		o.initialized = true
		o.logger.Debug("Emission cursor initialized",
			zap.Int64("lowest_frame_seq", lowest),
			zap.Int64("marker_seq", marker.Seq),
			zap.Int64("cursor", o.nextFrameSeqToEmit),
		)
	}

	rangeStart := o.nextFrameSeqToEmit
	rangeEnd := o.def.HigherFrameSeq(marker.Seq)
	if rangeEnd > rangeStart {
		// Advance eagerly so a marker arriving after this batch continues
		// where it left off. The cursor never moves backward: a regressed
		// marker yields an empty range and only forwards the marker.
		o.nextFrameSeqToEmit = rangeEnd
	}

	return func(yield func(Emission[K, R]) bool) {
		for frameSeq := rangeStart; frameSeq < rangeEnd; frameSeq += o.def.FrameLength() {
			for key, acc := range o.computeWindow(frameSeq) {
				e := Emission[K, R]{Frame: &Frame[K, R]{
					FrameSeq: frameSeq,
					Key:      key,
					Result:   o.ops.Finish(acc),
				}}
				if !yield(e) {
					return
				}
			}
			// Runs exactly once per emitted frame, rows or no rows.
			o.completeWindow(frameSeq)
		}
		yield(Emission[K, R]{Marker: &marker})
	}
}

// computeWindow produces the per-key accumulators for the window ending at
// frameSeq. The returned map must not be retained across emissions.
func (o *Operator[T, K, A, R]) computeWindow(frameSeq int64) map[K]A {
	if o.def.IsTumbling() {
		return o.store.get(frameSeq)
	}
	if o.sliding != nil {
		// Fold the leading-edge frame into the running window state.
		o.sliding.patch(o.ops.Combine, o.store.get(frameSeq))
		return o.sliding.snapshot()
	}
	// No Deduct: recompute the whole window from its frames.
	win := make(map[K]A)
	for seq := frameSeq - o.def.WindowLength() + o.def.FrameLength(); seq <= frameSeq; seq += o.def.FrameLength() {
		for key, frameAcc := range o.store.get(seq) {
			acc, ok := win[key]
			if !ok {
				acc = o.ops.CreateEmpty()
			}
			win[key] = o.ops.Combine(acc, frameAcc)
		}
	}
	return win
}

// completeWindow retires the trailing-edge frame of the window just emitted.
func (o *Operator[T, K, A, R]) completeWindow(frameSeq int64) {
	evicted := o.store.evict(frameSeq - o.def.WindowLength() + o.def.FrameLength())
	if o.sliding != nil {
		o.sliding.patch(o.ops.Deduct, evicted)
	}
}

// StoredFrames returns how many frames currently hold state.
func (o *Operator[T, K, A, R]) StoredFrames() int {
	return o.store.size()
}

// SlidingKeys returns how many keys the incremental window state currently
// tracks; zero when the ops have no Deduct.
func (o *Operator[T, K, A, R]) SlidingKeys() int {
	if o.sliding == nil {
		return 0
	}
	return o.sliding.size()
}
