package message

import (
	"encoding/json"
	"fmt"
	"time"
)

// Wire type discriminators.
const (
	typeEvent  = "event"
	typeMarker = "marker"
)

type wireEnvelope struct {
	Type      string     `json:"type"`
	FrameSeq  *int64     `json:"frame_seq,omitempty"`
	Key       string     `json:"key,omitempty"`
	Value     *float64   `json:"value,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Seq       *int64     `json:"seq,omitempty"`
}

// ParseEnvelope decodes one input record from its JSON wire form. Events
// need a key, a value, and at least one of frame_seq or timestamp; markers
// need a seq.
func ParseEnvelope(data []byte) (Envelope, error) {
	var w wireEnvelope
	if err := json.Unmarshal(data, &w); err != nil {
		return Envelope{}, fmt.Errorf("%w: %w", ErrJSONUnmarshalFailed, err)
	}

	switch w.Type {
	case typeEvent:
		if w.Key == "" {
			return Envelope{}, fmt.Errorf("%w: event without key", ErrMalformedEnvelope)
		}
		if w.Value == nil {
			return Envelope{}, fmt.Errorf("%w: event without value", ErrMalformedEnvelope)
		}
		if w.FrameSeq == nil && w.Timestamp == nil {
			return Envelope{}, fmt.Errorf("%w: event needs frame_seq or timestamp", ErrMalformedEnvelope)
		}
		return Envelope{Event: &Event{
			FrameSeq:  w.FrameSeq,
			Key:       w.Key,
			Value:     *w.Value,
			Timestamp: w.Timestamp,
		}}, nil

	case typeMarker:
		if w.Seq == nil {
			return Envelope{}, fmt.Errorf("%w: marker without seq", ErrMalformedEnvelope)
		}
		return Envelope{Marker: &Marker{Seq: *w.Seq}}, nil

	default:
		return Envelope{}, fmt.Errorf("%w: %q", ErrUnknownEnvelopeType, w.Type)
	}
}

// EncodeEvent renders an event in its JSON wire form, used by producers.
func EncodeEvent(ev Event) ([]byte, error) {
	return json.Marshal(wireEnvelope{
		Type:      typeEvent,
		FrameSeq:  ev.FrameSeq,
		Key:       ev.Key,
		Value:     &ev.Value,
		Timestamp: ev.Timestamp,
	})
}

// EncodeMarker renders a progress marker in its JSON wire form.
func EncodeMarker(m Marker) ([]byte, error) {
	return json.Marshal(wireEnvelope{Type: typeMarker, Seq: &m.Seq})
}
