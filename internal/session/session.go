// Package session implements the per-connection client state machine.
//
// A Session starts Connected (no name), moves to Named on the first
// user/patch, and ends Closed when its transport goes away. Frames are
// handled one at a time in the order the caller feeds them; nothing is
// processed once the session is Closed.
package session

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/Tyrowin/roomchat/internal/protocol"
	"github.com/Tyrowin/roomchat/internal/room"
	"github.com/google/uuid"
)

// State is the lifecycle state of a Session.
type State int

const (
	// StateConnected means the transport is open and no name has been set.
	StateConnected State = iota
	// StateNamed means the client has set a display name at least once.
	StateNamed
	// StateClosed is terminal: the client has left its room.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateNamed:
		return "named"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrSessionClosed is returned for any frame handed to a closed session.
var ErrSessionClosed = errors.New("session: closed")

// Session binds one connection to one room.
type Session struct {
	id        string
	room      *room.Room
	transport room.Transport

	mu     sync.Mutex
	state  State
	joined bool
}

// Option customizes a Session.
type Option func(*Session)

// WithID overrides the generated client id.
func WithID(id string) Option {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

// New creates a session for a connection in r. The client is not a member of
// the room until Join is called.
func New(r *room.Room, transport room.Transport, opts ...Option) *Session {
	s := &Session{
		id:        uuid.NewString(),
		room:      r,
		transport: transport,
		state:     StateConnected,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the client id assigned to this session.
func (s *Session) ID() string {
	return s.id
}

// RoomID returns the id of the room this session belongs to.
func (s *Session) RoomID() string {
	return s.room.ID()
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Join adds the client to its room with an empty name and broadcasts the
// roster to every member, this client included.
func (s *Session) Join() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return ErrSessionClosed
	}
	if s.joined {
		return nil
	}
	if err := s.room.Join(room.Client{ID: s.id, Transport: s.transport}); err != nil {
		s.state = StateClosed
		return err
	}
	s.joined = true
	log.Printf("Client %s joined room %q", s.id, s.room.ID())
	return nil
}

// HandleFrame decodes one inbound text frame and applies it. Malformed frames
// and unknown types are answered with an error frame to this client only and
// returned to the caller; the session stays usable.
func (s *Session) HandleFrame(frame []byte) error {
	msg, err := protocol.Decode(frame)
	if err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.state == StateClosed {
			return ErrSessionClosed
		}
		log.Printf("Rejected frame from client %s: %v", s.id, err)
		s.replyError(err)
		return err
	}
	return s.Handle(msg)
}

// Handle applies a decoded message.
func (s *Session) Handle(msg protocol.Inbound) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return ErrSessionClosed
	}

	switch m := msg.(type) {
	case protocol.UserPatch:
		if err := s.room.Rename(s.id, m.Name); err != nil {
			return s.logRoomError(err)
		}
		s.state = StateNamed

	case protocol.UserPost:
		if _, err := s.room.Post(s.id, m.Body); err != nil {
			return s.logRoomError(err)
		}

	default:
		err := &protocol.UnknownMessageTypeError{Type: msg.MessageType()}
		log.Printf("Rejected frame from client %s: %v", s.id, err)
		s.replyError(err)
		return err
	}
	return nil
}

// Close removes the client from its room and broadcasts the new roster. It is
// safe to call more than once; only the first call has any effect and
// reports true.
func (s *Session) Close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return false
	}
	s.state = StateClosed
	if s.joined {
		s.room.Leave(s.id)
		log.Printf("Client %s left room %q", s.id, s.room.ID())
	}
	return true
}

// logRoomError logs room errors that are expected when a frame races a close.
func (s *Session) logRoomError(err error) error {
	if errors.Is(err, room.ErrUnknownClient) {
		log.Printf("Ignoring frame from client %s no longer in room %q: %v", s.id, s.room.ID(), err)
	} else {
		log.Printf("Error handling frame from client %s: %v", s.id, err)
	}
	return err
}

func (s *Session) replyError(cause error) {
	if s.transport == nil {
		return
	}
	frame, err := protocol.EncodeError(protocol.ErrorMessage(cause))
	if err != nil {
		log.Printf("Error encoding error reply for client %s: %v", s.id, err)
		return
	}
	if err := s.transport.Send(frame); err != nil {
		log.Printf("Error sending error reply to client %s: %v", s.id, err)
	}
}
