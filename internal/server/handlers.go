// Package server exposes HTTP handlers, including the room page, WebSocket
// upgrades, health checks, and the read-only room API.
package server

import (
	"encoding/json"
	"fmt"
	"log"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/Tyrowin/roomchat/internal/room"
	"github.com/Tyrowin/roomchat/internal/session"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// App wires the HTTP surface to a room registry and a connection hub.
type App struct {
	Registry *room.Registry
	Hub      *Hub
	upgrader websocket.Upgrader
}

// NewApp creates an App serving the rooms in registry.
func NewApp(registry *room.Registry) *App {
	if registry == nil {
		registry = room.NewRegistry()
	}
	return &App{
		Registry: registry,
		Hub:      NewHub(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:   1024,
			WriteBufferSize:  1024,
			HandshakeTimeout: 10 * time.Second,
			CheckOrigin:      checkOrigin,
		},
	}
}

// Start runs the hub event loop in its own goroutine.
func (a *App) Start() {
	go a.Hub.Run()
	log.Println("Hub started and ready to manage WebSocket connections")
}

// Shutdown closes every connection and waits up to timeout for the pumps.
func (a *App) Shutdown(timeout time.Duration) error {
	return a.Hub.Shutdown(timeout)
}

// RoomHandler serves /chat/{id}: a WebSocket upgrade joins the room, any other
// GET returns the room page.
func (a *App) RoomHandler(w http.ResponseWriter, r *http.Request) {
	if websocket.IsWebSocketUpgrade(r) {
		a.roomSocket(w, r)
		return
	}
	RoomPageHandler(w, r)
}

func (a *App) roomSocket(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["id"]

	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade for room %q failed: %v", roomID, err)
		return
	}

	client := NewClient(conn, a.Hub, r.RemoteAddr)
	sess := session.New(a.Registry.GetOrCreate(roomID), client)
	client.Attach(sess)
	log.Printf("Client %s connected from %s to room %q", sess.ID(), r.RemoteAddr, sess.RoomID())

	if !a.Hub.Register(client) {
		sess.Close()
		client.closeConnection()
	}
}

// EchoHandler upgrades to a WebSocket that returns every frame to its sender.
func (a *App) EchoHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade for echo failed: %v", err)
		return
	}

	client := NewClient(conn, a.Hub, r.RemoteAddr)
	client.Attach(&echoHandler{client: client})
	if !a.Hub.Register(client) {
		client.closeConnection()
	}
}

// NewRoomHandler redirects to a freshly picked numeric room id.
func (a *App) NewRoomHandler(w http.ResponseWriter, r *http.Request) {
	id := strconv.FormatUint(rand.Uint64N(1e16), 10)
	http.Redirect(w, r, "/chat/"+id, http.StatusFound)
}

// RoomsHandler lists every room the registry knows with its member count.
func (a *App) RoomsHandler(w http.ResponseWriter, _ *http.Request) {
	ids := a.Registry.IDs()
	resp := RoomListResponse{Rooms: make([]RoomSummary, 0, len(ids))}
	for _, id := range ids {
		if rm, ok := a.Registry.Lookup(id); ok {
			resp.Rooms = append(resp.Rooms, RoomSummary{ID: id, Members: rm.Len()})
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

// RoomStatusHandler returns the roster of one room. Unknown ids are a 404 and
// are not created.
func (a *App) RoomStatusHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	rm, ok := a.Registry.Lookup(id)
	if !ok {
		respondJSON(w, http.StatusNotFound, ErrorResponse{Error: "room not found"})
		return
	}
	respondJSON(w, http.StatusOK, rm.Status())
}

// HealthHandler provides a simple health check endpoint that returns server status.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprint(w, "Room chat server is running!")
}

// RoomPageHandler serves the static room page. The page reads the room id
// from its own URL, so the same document serves every room.
func RoomPageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(roomPage); err != nil {
		log.Printf("Error writing room page: %v", err)
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}
