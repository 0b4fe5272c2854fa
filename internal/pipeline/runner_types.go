package pipeline

import "github.com/sanspareilsmyn/windowlens/internal/message"

// AggregationResult is the finished value for one key over one window. Only
// the fields the configured aggregation produces are set; Count is always
// populated.
type AggregationResult struct {
	Count    int64    `json:"count"`
	Sum      *float64 `json:"sum,omitempty"`
	Mean     *float64 `json:"mean,omitempty"`
	Variance *float64 `json:"variance,omitempty"`
	Max      *float64 `json:"max,omitempty"`
}

// FrameRecord is one emitted window result row.
type FrameRecord struct {
	FrameSeq int64             `json:"frame_seq"`
	Key      string            `json:"key"`
	Result   AggregationResult `json:"result"`
}

// OutputRecord is one element of the pipeline's output stream: a window
// result row or a forwarded progress marker. Exactly one field is set.
type OutputRecord struct {
	Frame  *FrameRecord
	Marker *message.Marker
}
