package server_test

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Tyrowin/roomchat/internal/protocol"
	"github.com/Tyrowin/roomchat/internal/room"
	"github.com/Tyrowin/roomchat/internal/server"
	"github.com/gorilla/websocket"
)

const readTimeout = 2 * time.Second

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// newTestApp starts an App behind an httptest server. customize may adjust
// the configuration before it is applied.
func newTestApp(t *testing.T, customize func(cfg *server.Config)) (*server.App, *httptest.Server) {
	t.Helper()

	cfg := server.NewConfig()
	if customize != nil {
		customize(cfg)
	}
	server.SetConfig(cfg)

	app := server.NewApp(room.NewRegistry())
	app.Start()
	testServer := httptest.NewServer(server.SetupRoutes(app))

	t.Cleanup(func() {
		testServer.Close()
		if err := app.Shutdown(2 * time.Second); err != nil {
			t.Errorf("Hub shutdown failed: %v", err)
		}
		server.SetConfig(nil)
	})
	return app, testServer
}

func wsURL(testServer *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(testServer.URL, "http") + path
}

func dial(t *testing.T, testServer *httptest.Server, path, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	conn, resp, err := dialer.Dial(wsURL(testServer, path), header)
	if resp != nil {
		_ = resp.Body.Close()
	}
	return conn, resp, err
}

// joinRoom connects to a room. The first frame it receives is the status
// announcing its own arrival.
func joinRoom(t *testing.T, testServer *httptest.Server, roomID string) *websocket.Conn {
	t.Helper()
	conn, _, err := dial(t, testServer, "/chat/"+roomID, testServer.URL)
	if err != nil {
		t.Fatalf("Failed to connect to room %q: %v", roomID, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msgType string, data any) {
	t.Helper()
	frame, err := protocol.Encode(msgType, data)
	if err != nil {
		t.Fatalf("Failed to encode %s: %v", msgType, err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		t.Fatalf("Failed to send %s: %v", msgType, err)
	}
}

func readEnvelope(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}
	messageType, frame, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read frame: %v", err)
	}
	if messageType != websocket.TextMessage {
		t.Fatalf("Expected a text frame, got type %d", messageType)
	}
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		t.Fatalf("Frame %q is not an envelope: %v", frame, err)
	}
	return env
}

func readStatus(t *testing.T, conn *websocket.Conn) protocol.RoomStatus {
	t.Helper()
	env := readEnvelope(t, conn)
	if env.Type != protocol.TypeRoomStatus {
		t.Fatalf("Expected %s, got %s: %s", protocol.TypeRoomStatus, env.Type, env.Data)
	}
	var status protocol.RoomStatus
	if err := json.Unmarshal(env.Data, &status); err != nil {
		t.Fatalf("Failed to decode status: %v", err)
	}
	return status
}

func readChatMessage(t *testing.T, conn *websocket.Conn) protocol.ChatMessage {
	t.Helper()
	env := readEnvelope(t, conn)
	if env.Type != protocol.TypeRoomNewMessage {
		t.Fatalf("Expected %s, got %s: %s", protocol.TypeRoomNewMessage, env.Type, env.Data)
	}
	var msg protocol.ChatMessage
	if err := json.Unmarshal(env.Data, &msg); err != nil {
		t.Fatalf("Failed to decode chat message: %v", err)
	}
	return msg
}

func readError(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	env := readEnvelope(t, conn)
	if env.Type != protocol.TypeError {
		t.Fatalf("Expected %s, got %s: %s", protocol.TypeError, env.Type, env.Data)
	}
	var data protocol.ErrorData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("Failed to decode error data: %v", err)
	}
	return data.Message
}

func expectNoMessage(t *testing.T, conn *websocket.Conn, timeout time.Duration) {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}
	_, frame, err := conn.ReadMessage()
	if err == nil {
		t.Fatalf("Expected no message, but received %s", frame)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return
	}
	t.Fatalf("Unexpected error while waiting for absence of message: %v", err)
}

func userNames(status protocol.RoomStatus) []string {
	names := make([]string, 0, len(status.Users))
	for _, u := range status.Users {
		names = append(names, u.Name)
	}
	return names
}
