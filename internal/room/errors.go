package room

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateClient is returned when a client id is already a member.
	ErrDuplicateClient = errors.New("room: duplicate client id")

	// ErrUnknownClient is returned when an operation names a client id that is
	// not (or no longer) a member of the room.
	ErrUnknownClient = errors.New("room: unknown client id")
)

// TransportError records a failed send to one recipient during a broadcast.
type TransportError struct {
	ClientID string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("send to client %s: %v", e.ClientID, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
