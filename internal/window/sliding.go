package window

// slidingState is the running per-key accumulator over the currently emitted
// window, maintained incrementally by combining each leading-edge frame in
// and deducting each trailing-edge frame out. It exists only when the ops
// bundle supplies Deduct.
type slidingState[K comparable, A any] struct {
	acc         map[K]A
	createEmpty func() A
	equal       func(A, A) bool
	emptyAcc    A
}

func newSlidingState[K comparable, A any](createEmpty func() A, equal func(A, A) bool, emptyAcc A) *slidingState[K, A] {
	return &slidingState[K, A]{
		acc:         make(map[K]A),
		createEmpty: createEmpty,
		equal:       equal,
		emptyAcc:    emptyAcc,
	}
}

// patch applies op (combine for the leading edge, deduct for the trailing
// edge) entry-wise. Entries whose accumulator lands back on the empty value
// are removed, so the state never holds keys absent from the live window.
// A nil frame is a no-op.
func (s *slidingState[K, A]) patch(op func(A, A) A, frame map[K]A) {
	for key, v := range frame {
		acc, ok := s.acc[key]
		if !ok {
			acc = s.createEmpty()
		}
		result := op(acc, v)
		if s.equal(result, s.emptyAcc) {
			delete(s.acc, key)
		} else {
			s.acc[key] = result
		}
	}
}

// snapshot returns the live mapping. Callers must treat it as read-only.
func (s *slidingState[K, A]) snapshot() map[K]A {
	return s.acc
}

func (s *slidingState[K, A]) size() int {
	return len(s.acc)
}
