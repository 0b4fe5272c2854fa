package message

import "errors"

var (
	ErrJSONUnmarshalFailed = errors.New("failed to unmarshal JSON message")
	ErrMalformedEnvelope   = errors.New("malformed envelope")
	ErrUnknownEnvelopeType = errors.New("unknown envelope type")
)
