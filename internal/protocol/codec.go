package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
)

type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type inboundEnvelope struct {
	Type *string         `json:"type"`
	Data json.RawMessage `json:"data"`
}

type userPatchData struct {
	Name *string `json:"name"`
}

type userPostData struct {
	Body *string `json:"body"`
}

// Decode parses one inbound text frame. It returns a *MalformedFrameError when
// the frame is not a valid envelope and an *UnknownMessageTypeError when the
// type is not user/patch or user/post.
func Decode(frame []byte) (Inbound, error) {
	var env inboundEnvelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, &MalformedFrameError{Reason: "invalid JSON envelope", Err: err}
	}
	if env.Type == nil {
		return nil, &MalformedFrameError{Reason: `missing "type"`}
	}

	switch *env.Type {
	case TypeUserPatch:
		var data userPatchData
		if err := decodeData(env.Data, &data); err != nil {
			return nil, err
		}
		if data.Name == nil {
			return nil, &MalformedFrameError{Reason: `user/patch requires "data.name"`}
		}
		return UserPatch{Name: *data.Name}, nil

	case TypeUserPost:
		var data userPostData
		if err := decodeData(env.Data, &data); err != nil {
			return nil, err
		}
		if data.Body == nil {
			return nil, &MalformedFrameError{Reason: `user/post requires "data.body"`}
		}
		return UserPost{Body: *data.Body}, nil

	default:
		return nil, &UnknownMessageTypeError{Type: *env.Type}
	}
}

func decodeData(raw json.RawMessage, dst any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return &MalformedFrameError{Reason: `missing "data"`}
	}
	if trimmed[0] != '{' {
		return &MalformedFrameError{Reason: `"data" must be an object`}
	}
	if err := json.Unmarshal(trimmed, dst); err != nil {
		return &MalformedFrameError{Reason: `invalid "data"`, Err: err}
	}
	return nil
}

// Encode wraps data in an envelope of the given type.
func Encode(msgType string, data any) ([]byte, error) {
	if msgType == "" {
		return nil, errors.New("protocol: empty message type")
	}
	return json.Marshal(envelope{Type: msgType, Data: data})
}

// EncodeRoomStatus encodes a room/status frame.
func EncodeRoomStatus(status RoomStatus) ([]byte, error) {
	if status.Users == nil {
		status.Users = []User{}
	}
	return Encode(TypeRoomStatus, status)
}

// EncodeNewMessage encodes a room/newMessage frame.
func EncodeNewMessage(msg ChatMessage) ([]byte, error) {
	return Encode(TypeRoomNewMessage, msg)
}

// EncodeError encodes an error frame carrying message.
func EncodeError(message string) ([]byte, error) {
	return Encode(TypeError, ErrorData{Message: message})
}

// ErrorMessage returns the text sent back to a client whose frame could not
// be handled.
func ErrorMessage(err error) string {
	var unknown *UnknownMessageTypeError
	if errors.As(err, &unknown) {
		return unknown.Error()
	}
	var malformed *MalformedFrameError
	if errors.As(err, &malformed) {
		return "Malformed frame: " + malformed.Reason
	}
	return err.Error()
}
