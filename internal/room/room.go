package room

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Tyrowin/roomchat/internal/protocol"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Transport delivers an encoded frame to one connected client. Send must not
// block on the network; it is called while the room lock is held.
type Transport interface {
	Send(frame []byte) error
}

// Client is one member of a room.
type Client struct {
	ID        string
	Name      string
	Transport Transport
}

// ClientPatch carries the client fields to merge. Nil fields are left as is.
type ClientPatch struct {
	Name *string
}

// Room holds the ordered membership of one room.
type Room struct {
	id      string
	mu      sync.Mutex
	clients *orderedmap.OrderedMap[string, Client]
	newID   func() string
	now     func() time.Time
}

func newRoom(id string, newID func() string, now func() time.Time) *Room {
	return &Room{
		id:      id,
		clients: orderedmap.New[string, Client](),
		newID:   newID,
		now:     now,
	}
}

// ID returns the room identifier.
func (r *Room) ID() string {
	return r.id
}

// Len returns the current number of members.
func (r *Room) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clients.Len()
}

// AddClient appends client to the membership.
func (r *Room) AddClient(client Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addLocked(client)
}

// RemoveClient drops the member with the given id and reports whether it was
// present. Removing an absent id is a no-op.
func (r *Room) RemoveClient(clientID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, present := r.clients.Delete(clientID)
	return present
}

// PatchClient merges patch into the member with the given id.
func (r *Room) PatchClient(clientID string, patch ClientPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.patchLocked(clientID, patch)
}

// Client returns a copy of the member with the given id.
func (r *Room) Client(clientID string) (Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clients.Get(clientID)
}

// Status returns a roster snapshot in join order.
func (r *Room) Status() protocol.RoomStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.statusLocked()
}

// Broadcast sends frame to every member in roster order. A failed send to one
// member does not stop delivery to the others; failures are returned joined
// as *TransportError values.
func (r *Room) Broadcast(frame []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.broadcastLocked(frame)
}

// Join adds client and broadcasts the new roster to every member, the joiner
// included.
func (r *Room) Join(client Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.addLocked(client); err != nil {
		return err
	}
	r.announceLocked()
	return nil
}

// Leave removes the client and, if it was a member, broadcasts the new
// roster. It reports whether anything was removed.
func (r *Room) Leave(clientID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, present := r.clients.Delete(clientID); !present {
		return false
	}
	r.announceLocked()
	return true
}

// Rename sets the display name of a member and broadcasts the new roster.
func (r *Room) Rename(clientID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.patchLocked(clientID, ClientPatch{Name: &name}); err != nil {
		return err
	}
	r.announceLocked()
	return nil
}

// Post builds a chat message from the member's current name and broadcasts it
// to the room. Nothing is sent if the sender is not a member.
func (r *Room) Post(clientID, body string) (protocol.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sender, ok := r.clients.Get(clientID)
	if !ok {
		return protocol.ChatMessage{}, fmt.Errorf("post to room %q: %w", r.id, ErrUnknownClient)
	}

	msg := protocol.ChatMessage{
		ID:     r.newID(),
		UserID: sender.ID,
		Name:   sender.Name,
		Body:   body,
		Date:   r.now().UnixMilli(),
	}

	frame, err := protocol.EncodeNewMessage(msg)
	if err != nil {
		return protocol.ChatMessage{}, fmt.Errorf("encode message for room %q: %w", r.id, err)
	}
	if err := r.broadcastLocked(frame); err != nil {
		log.Printf("Room %s: message %s not delivered to every member: %v", r.id, msg.ID, err)
	}
	return msg, nil
}

func (r *Room) addLocked(client Client) error {
	if _, exists := r.clients.Get(client.ID); exists {
		return fmt.Errorf("add %s to room %q: %w", client.ID, r.id, ErrDuplicateClient)
	}
	r.clients.Set(client.ID, client)
	return nil
}

func (r *Room) patchLocked(clientID string, patch ClientPatch) error {
	client, ok := r.clients.Get(clientID)
	if !ok {
		return fmt.Errorf("patch %s in room %q: %w", clientID, r.id, ErrUnknownClient)
	}
	if patch.Name != nil {
		client.Name = *patch.Name
	}
	r.clients.Set(clientID, client)
	return nil
}

func (r *Room) statusLocked() protocol.RoomStatus {
	users := make([]protocol.User, 0, r.clients.Len())
	for pair := r.clients.Oldest(); pair != nil; pair = pair.Next() {
		users = append(users, protocol.User{ID: pair.Value.ID, Name: pair.Value.Name})
	}
	return protocol.RoomStatus{ID: r.id, Users: users}
}

func (r *Room) broadcastLocked(frame []byte) error {
	var errs []error
	for pair := r.clients.Oldest(); pair != nil; pair = pair.Next() {
		client := pair.Value
		if client.Transport == nil {
			continue
		}
		if err := client.Transport.Send(frame); err != nil {
			errs = append(errs, &TransportError{ClientID: client.ID, Err: err})
		}
	}
	return errors.Join(errs...)
}

// announceLocked broadcasts the current roster.
func (r *Room) announceLocked() {
	frame, err := protocol.EncodeRoomStatus(r.statusLocked())
	if err != nil {
		log.Printf("Room %s: failed to encode status: %v", r.id, err)
		return
	}
	if err := r.broadcastLocked(frame); err != nil {
		log.Printf("Room %s: status not delivered to every member: %v", r.id, err)
	}
}
