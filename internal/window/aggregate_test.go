package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewOperatorRejectsIncompleteOps(t *testing.T) {
	def, err := NewDefinition(1, 1)
	require.NoError(t, err)

	frameSeqFn := func(e event) int64 { return e.seq }
	keyFn := func(e event) string { return e.key }

	tests := []struct {
		name    string
		mutate  func(*Ops[event, int64, int64])
		wantErr error
	}{
		{"no CreateEmpty", func(o *Ops[event, int64, int64]) { o.CreateEmpty = nil }, ErrMissingCreateEmpty},
		{"no Accumulate", func(o *Ops[event, int64, int64]) { o.Accumulate = nil }, ErrMissingAccumulate},
		{"no Combine", func(o *Ops[event, int64, int64]) { o.Combine = nil }, ErrMissingCombine},
		{"no Finish", func(o *Ops[event, int64, int64]) { o.Finish = nil }, ErrMissingFinish},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops := sumOps(true)
			tt.mutate(&ops)
			_, err := NewOperator(def, ops, frameSeqFn, keyFn, zap.NewNop())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("no extractors", func(t *testing.T) {
		_, err := NewOperator(def, sumOps(false), nil, keyFn, zap.NewNop())
		assert.ErrorIs(t, err, ErrMissingFrameSeqFn)
		_, err = NewOperator[event, string, int64, int64](def, sumOps(false), frameSeqFn, nil, zap.NewNop())
		assert.ErrorIs(t, err, ErrMissingKeyFn)
	})
}

func TestOpsIncremental(t *testing.T) {
	assert.True(t, sumOps(true).Incremental())
	assert.False(t, sumOps(false).Incremental())
}

func TestOpsEqualFallsBackToDeepEqual(t *testing.T) {
	type counter struct{ n int64 }
	ops := Ops[event, *counter, int64]{
		CreateEmpty: func() *counter { return &counter{} },
		Accumulate:  func(acc *counter, e event) *counter { acc.n++; return acc },
		Combine:     func(a, b *counter) *counter { a.n += b.n; return a },
		Finish:      func(acc *counter) int64 { return acc.n },
	}

	// Distinct pointers, same content: emptiness must be content-based.
	assert.True(t, ops.equal(&counter{}, ops.CreateEmpty()))
	assert.False(t, ops.equal(&counter{n: 1}, ops.CreateEmpty()))
}
