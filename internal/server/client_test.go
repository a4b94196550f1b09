package server

import (
	"errors"
	"testing"

	"github.com/gorilla/websocket"
)

func TestClientSendNeverBlocks(t *testing.T) {
	t.Cleanup(func() { SetConfig(nil) })
	SetConfig(&Config{SendBufferSize: 2})

	c := NewClient(nil, nil, "test")

	for i := range 2 {
		if err := c.Send([]byte("frame")); err != nil {
			t.Fatalf("Send %d failed: %v", i, err)
		}
	}
	if err := c.Send([]byte("overflow")); !errors.Is(err, ErrSendBufferFull) {
		t.Fatalf("Expected ErrSendBufferFull, got %v", err)
	}
	if err := c.Send([]byte("late")); !errors.Is(err, ErrClientClosed) {
		t.Fatalf("Expected ErrClientClosed, got %v", err)
	}

	var got []string
	for frame := range c.sendQueue() {
		if frame.messageType != websocket.TextMessage {
			t.Errorf("Expected a text frame, got type %d", frame.messageType)
		}
		got = append(got, string(frame.data))
	}
	if len(got) != 2 {
		t.Errorf("Expected the two queued frames to drain, got %v", got)
	}
}

func TestClientCloseSendIdempotent(t *testing.T) {
	c := NewClient(nil, nil, "test")
	c.closeSend()
	c.closeSend()

	if err := c.Send([]byte("x")); !errors.Is(err, ErrClientClosed) {
		t.Errorf("Expected ErrClientClosed, got %v", err)
	}
}

func TestIsExpectedCloseError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, true},
		{errors.New("write tcp: use of closed network connection"), true},
		{errors.New("websocket: close sent"), true},
		{errors.New("write: broken pipe"), true},
		{errors.New("read: connection reset by peer"), true},
		{errors.New("something else"), false},
	}
	for _, tt := range tests {
		if got := isExpectedCloseError(tt.err); got != tt.want {
			t.Errorf("isExpectedCloseError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
