package protocol

import "fmt"

// MalformedFrameError reports an inbound frame that is not a valid envelope:
// non-JSON payload, missing or non-string type, non-object data, or a
// missing required field.
type MalformedFrameError struct {
	Reason string
	Err    error
}

func (e *MalformedFrameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed frame: %s: %v", e.Reason, e.Err)
	}
	return "malformed frame: " + e.Reason
}

func (e *MalformedFrameError) Unwrap() error {
	return e.Err
}

// UnknownMessageTypeError reports a well-formed envelope whose type is not a
// known client-to-server message type.
type UnknownMessageTypeError struct {
	Type string
}

func (e *UnknownMessageTypeError) Error() string {
	return "Unknown message type " + e.Type
}
