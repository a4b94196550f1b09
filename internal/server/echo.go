package server

import "log"

// echoHandler sends every inbound frame straight back to its sender with the
// same message type.
type echoHandler struct {
	client *Client
}

func (e *echoHandler) Join() error {
	log.Printf("Echo client connected from %s", e.client.addr)
	return nil
}

func (e *echoHandler) HandleFrame(frame []byte) error {
	return e.client.Send(frame)
}

func (e *echoHandler) HandleTypedFrame(messageType int, frame []byte) error {
	return e.client.sendMessage(messageType, frame)
}

func (e *echoHandler) Close() bool {
	return true
}
