package window

import (
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type event struct {
	seq int64
	key string
	val int64
}

func sumOps(withDeduct bool) Ops[event, int64, int64] {
	ops := Ops[event, int64, int64]{
		CreateEmpty: func() int64 { return 0 },
		Accumulate:  func(acc int64, e event) int64 { return acc + e.val },
		Combine:     func(a, b int64) int64 { return a + b },
		Finish:      func(acc int64) int64 { return acc },
		Equal:       func(a, b int64) bool { return a == b },
	}
	if withDeduct {
		ops.Deduct = func(a, b int64) int64 { return a - b }
	}
	return ops
}

func newSumOperator(t *testing.T, frameLength, windowLength int64, withDeduct bool) *Operator[event, string, int64, int64] {
	t.Helper()
	def, err := NewDefinition(frameLength, windowLength)
	require.NoError(t, err)
	op, err := NewOperator(def, sumOps(withDeduct),
		func(e event) int64 { return e.seq },
		func(e event) string { return e.key },
		zap.NewNop(),
	)
	require.NoError(t, err)
	return op
}

// drain consumes an emission sequence, returning the frame rows in emission
// order and the forwarded marker sequences.
func drain(seq iter.Seq[Emission[string, int64]]) ([]Frame[string, int64], []int64) {
	var frames []Frame[string, int64]
	var markers []int64
	for e := range seq {
		if e.Frame != nil {
			frames = append(frames, *e.Frame)
		} else {
			markers = append(markers, e.Marker.Seq)
		}
	}
	return frames, markers
}

// byFrame groups rows as frameSeq → key → result, since key order within a
// frame is unspecified.
func byFrame(frames []Frame[string, int64]) map[int64]map[string]int64 {
	grouped := make(map[int64]map[string]int64)
	for _, f := range frames {
		rows, ok := grouped[f.FrameSeq]
		if !ok {
			rows = make(map[string]int64)
			grouped[f.FrameSeq] = rows
		}
		rows[f.Key] = f.Result
	}
	return grouped
}

func TestTumblingEmission(t *testing.T) {
	op := newSumOperator(t, 1, 1, false)
	op.OnItem(event{10, "A", 1})
	op.OnItem(event{10, "B", 2})
	op.OnItem(event{11, "A", 3})

	frames, markers := drain(op.OnProgress(ProgressMarker{Seq: 11}))

	assert.Equal(t, map[int64]map[string]int64{
		10: {"A": 1, "B": 2},
		11: {"A": 3},
	}, byFrame(frames))
	assert.Equal(t, []int64{11}, markers)

	// Frames ascend; the marker is last, so markers collected == 1 already.
	for i := 1; i < len(frames); i++ {
		assert.LessOrEqual(t, frames[i-1].FrameSeq, frames[i].FrameSeq)
	}
}

func TestSlidingIncrementalEmission(t *testing.T) {
	op := newSumOperator(t, 1, 3, true)
	for _, e := range []event{{10, "A", 1}, {11, "A", 2}, {12, "A", 4}, {13, "A", 8}} {
		op.OnItem(e)
	}

	frames, markers := drain(op.OnProgress(ProgressMarker{Seq: 12}))
	assert.Equal(t, map[int64]map[string]int64{
		10: {"A": 1},
		11: {"A": 3},
		12: {"A": 7},
	}, byFrame(frames))
	assert.Equal(t, []int64{12}, markers)

	frames, markers = drain(op.OnProgress(ProgressMarker{Seq: 13}))
	assert.Equal(t, map[int64]map[string]int64{
		13: {"A": 14},
	}, byFrame(frames))
	assert.Equal(t, []int64{13}, markers)
}

func TestSlidingFromScratchMatchesIncremental(t *testing.T) {
	feed := func(op *Operator[event, string, int64, int64]) map[int64]map[string]int64 {
		items := []event{
			{10, "A", 1}, {10, "B", 5}, {11, "A", 2}, {12, "A", 4},
			{12, "B", 6}, {13, "A", 8}, {14, "C", 3},
		}
		for _, e := range items {
			op.OnItem(e)
		}
		all := make(map[int64]map[string]int64)
		for _, markerSeq := range []int64{12, 13, 14} {
			frames, _ := drain(op.OnProgress(ProgressMarker{Seq: markerSeq}))
			for seq, rows := range byFrame(frames) {
				all[seq] = rows
			}
		}
		return all
	}

	incremental := feed(newSumOperator(t, 1, 3, true))
	fromScratch := feed(newSumOperator(t, 1, 3, false))

	assert.Equal(t, fromScratch, incremental)
	// Spot-check one overlap: frame 12 covers frames 10..12.
	assert.Equal(t, map[string]int64{"A": 7, "B": 11}, incremental[12])
}

func TestEmptyWindowsStillAdvanceAndEvict(t *testing.T) {
	op := newSumOperator(t, 1, 1, false)
	op.OnItem(event{10, "A", 1})

	frames, markers := drain(op.OnProgress(ProgressMarker{Seq: 12}))

	// Frames 11 and 12 are empty: no rows, but they still count as emitted.
	assert.Equal(t, map[int64]map[string]int64{10: {"A": 1}}, byFrame(frames))
	assert.Equal(t, []int64{12}, markers)
	assert.Zero(t, op.StoredFrames(), "every emitted frame must be evicted")
}

func TestFirstMarkerWithEmptyStoreOnlyForwards(t *testing.T) {
	op := newSumOperator(t, 1, 1, true)

	frames, markers := drain(op.OnProgress(ProgressMarker{Seq: 42}))
	assert.Empty(t, frames)
	assert.Equal(t, []int64{42}, markers)

	// The cursor stayed uninitialized: a later item below the first marker's
	// seq still gets emitted once a marker covers it.
	op.OnItem(event{5, "A", 9})
	frames, markers = drain(op.OnProgress(ProgressMarker{Seq: 5}))
	assert.Equal(t, map[int64]map[string]int64{5: {"A": 9}}, byFrame(frames))
	assert.Equal(t, []int64{5}, markers)
}

func TestFirstInitUsesMarkerSeqWhenLower(t *testing.T) {
	op := newSumOperator(t, 1, 3, true)
	op.OnItem(event{10, "A", 1})

	// Marker below the lowest recorded frame: emission starts at the marker.
	frames, _ := drain(op.OnProgress(ProgressMarker{Seq: 8}))
	assert.Empty(t, frames, "frame 8 holds no data")

	// The next marker picks up at frame 9; only frame 10 has rows.
	frames, _ = drain(op.OnProgress(ProgressMarker{Seq: 10}))
	assert.Equal(t, map[int64]map[string]int64{10: {"A": 1}}, byFrame(frames))
}

func TestEvictionAfterWindowPasses(t *testing.T) {
	for _, withDeduct := range []bool{true, false} {
		name := "from-scratch"
		if withDeduct {
			name = "incremental"
		}
		t.Run(name, func(t *testing.T) {
			op := newSumOperator(t, 1, 3, withDeduct)
			for seq := int64(10); seq <= 14; seq++ {
				op.OnItem(event{seq, "A", 1})
			}
			for _, markerSeq := range []int64{10, 11, 12, 13} {
				drain(op.OnProgress(ProgressMarker{Seq: markerSeq}))
			}

			// The window ending at 13 spans frames 11..13, so everything at
			// or below 11 must be gone.
			assert.Nil(t, op.store.get(10))
			assert.Nil(t, op.store.get(11))
			assert.NotNil(t, op.store.get(12))
			assert.NotNil(t, op.store.get(13))
			assert.NotNil(t, op.store.get(14))
		})
	}
}

func TestCursorNeverRegresses(t *testing.T) {
	op := newSumOperator(t, 1, 1, false)
	op.OnItem(event{10, "A", 1})
	op.OnItem(event{12, "A", 2})

	frames, _ := drain(op.OnProgress(ProgressMarker{Seq: 12}))
	assert.Len(t, frames, 2)

	// A regressed marker produces no rows but is still forwarded.
	frames, markers := drain(op.OnProgress(ProgressMarker{Seq: 10}))
	assert.Empty(t, frames)
	assert.Equal(t, []int64{10}, markers)

	// Emission resumes where the batch before the regression stopped.
	op.OnItem(event{13, "A", 4})
	frames, _ = drain(op.OnProgress(ProgressMarker{Seq: 13}))
	assert.Equal(t, map[int64]map[string]int64{13: {"A": 4}}, byFrame(frames))
}

func TestAtMostOneRowPerFrameAndKey(t *testing.T) {
	op := newSumOperator(t, 1, 3, true)
	for seq := int64(0); seq < 8; seq++ {
		op.OnItem(event{seq, "A", seq})
		op.OnItem(event{seq, "B", 1})
	}

	seen := make(map[Frame[string, int64]]int)
	for _, markerSeq := range []int64{3, 5, 5, 7} {
		frames, _ := drain(op.OnProgress(ProgressMarker{Seq: markerSeq}))
		for _, f := range frames {
			seen[Frame[string, int64]{FrameSeq: f.FrameSeq, Key: f.Key}]++
		}
	}
	for row, count := range seen {
		assert.Equal(t, 1, count, "row %+v emitted more than once", row)
	}
}

func TestSlidingStateHygiene(t *testing.T) {
	op := newSumOperator(t, 1, 2, true)
	op.OnItem(event{10, "A", 1})
	op.OnItem(event{11, "B", 2})

	// Advance far enough that both frames slid fully out of the window.
	drain(op.OnProgress(ProgressMarker{Seq: 14}))

	assert.Zero(t, op.SlidingKeys(), "fully deducted keys must be removed")
	assert.Zero(t, op.StoredFrames())
}

func TestAbandonedOutputLeavesUnconsumedFramesIntact(t *testing.T) {
	op := newSumOperator(t, 1, 1, false)
	op.OnItem(event{10, "A", 1})
	op.OnItem(event{11, "A", 2})

	// Stop after the first row: frame 11 was never consumed, so its
	// completion (eviction) must not have run.
	for range op.OnProgress(ProgressMarker{Seq: 11}) {
		break
	}
	assert.NotNil(t, op.store.get(11))
}

func TestDeterministicReplay(t *testing.T) {
	run := func() (map[int64]map[string]int64, []int64) {
		op := newSumOperator(t, 2, 6, true)
		items := []event{
			{10, "A", 1}, {12, "B", 2}, {12, "A", 3}, {14, "A", 4}, {16, "B", 5},
		}
		all := make(map[int64]map[string]int64)
		var allMarkers []int64
		for _, e := range items {
			op.OnItem(e)
		}
		for _, markerSeq := range []int64{13, 17} {
			frames, markers := drain(op.OnProgress(ProgressMarker{Seq: markerSeq}))
			for seq, rows := range byFrame(frames) {
				all[seq] = rows
			}
			allMarkers = append(allMarkers, markers...)
		}
		return all, allMarkers
	}

	frames1, markers1 := run()
	frames2, markers2 := run()
	assert.Equal(t, frames1, frames2)
	assert.Equal(t, markers1, markers2)
}
