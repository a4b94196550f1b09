// Package server implements the HTTP and WebSocket surface of the room chat
// service.
//
// The implementation is organized into specialized files for configuration,
// connection tracking (Hub), per-connection pumps (Client), routing, and
// HTTP handlers. Room state lives in package room and the per-connection
// protocol state machine in package session; this package only moves frames
// between the network and those packages.
package server
