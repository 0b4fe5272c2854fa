package message

import "time"

// Event is one keyed stream item. FrameSeq is the frame the item was
// assigned to upstream; when the producer did not assign one it is nil and
// the runner derives it from Timestamp on the configured frame grid.
type Event struct {
	FrameSeq  *int64
	Key       string
	Value     float64
	Timestamp *time.Time
}

// Marker is an in-band progress signal: no further event with a frame
// sequence at or below Seq will arrive.
type Marker struct {
	Seq int64
}

// Envelope is one decoded input record, either an Event or a Marker.
// Exactly one field is set.
type Envelope struct {
	Event  *Event
	Marker *Marker
}

// IsMarker reports whether the envelope carries a progress marker.
func (e Envelope) IsMarker() bool {
	return e.Marker != nil
}
