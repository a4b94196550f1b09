// Package server defines the JSON payloads of the read-only room API and
// utility helpers reused across client and hub logic.
package server

import "strings"

// RoomSummary is one entry of the room listing.
type RoomSummary struct {
	ID      string `json:"id"`
	Members int    `json:"members"`
}

// RoomListResponse is the body of GET /api/rooms.
type RoomListResponse struct {
	Rooms []RoomSummary `json:"rooms"`
}

// ErrorResponse is the body of a failed API request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "connection reset by peer")
}
