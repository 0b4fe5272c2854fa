package window

import "errors"

var (
	ErrInvalidFrameLength     = errors.New("frame length must be positive")
	ErrInvalidWindowLength    = errors.New("window length must be positive")
	ErrWindowNotFrameMultiple = errors.New("window length must be a multiple of frame length")
	ErrMissingCreateEmpty     = errors.New("aggregation ops: CreateEmpty is required")
	ErrMissingAccumulate      = errors.New("aggregation ops: Accumulate is required")
	ErrMissingCombine         = errors.New("aggregation ops: Combine is required")
	ErrMissingFinish          = errors.New("aggregation ops: Finish is required")
	ErrMissingFrameSeqFn      = errors.New("operator: frame sequence extractor is required")
	ErrMissingKeyFn           = errors.New("operator: key extractor is required")
)
