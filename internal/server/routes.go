// Package server wires HTTP handlers into a gorilla/mux router.
package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

// SetupRoutes configures and returns a router with all application routes.
func SetupRoutes(app *App) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/", HealthHandler)
	r.HandleFunc("/health", HealthHandler)

	r.HandleFunc("/chat", app.NewRoomHandler).Methods(http.MethodGet)
	r.HandleFunc("/chat/", app.NewRoomHandler).Methods(http.MethodGet)
	r.HandleFunc("/chat/{id}", app.RoomHandler).Methods(http.MethodGet)
	r.HandleFunc("/echo", app.EchoHandler).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/rooms", app.RoomsHandler).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{id}", app.RoomStatusHandler).Methods(http.MethodGet)

	return r
}
