package room

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry maps room ids to rooms. Rooms are created on first reference and
// live as long as the registry.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room
	newID func() string
	now   func() time.Time
}

// Option customizes a Registry.
type Option func(*Registry)

// WithIDGenerator sets the generator used for chat message ids.
func WithIDGenerator(fn func() string) Option {
	return func(r *Registry) {
		if fn != nil {
			r.newID = fn
		}
	}
}

// WithClock sets the time source used to stamp chat messages.
func WithClock(fn func() time.Time) Option {
	return func(r *Registry) {
		if fn != nil {
			r.now = fn
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		rooms: make(map[string]*Room),
		newID: uuid.NewString,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetOrCreate returns the room for id, creating it if needed. Concurrent
// callers with the same id always observe the same *Room.
func (r *Registry) GetOrCreate(id string) *Room {
	r.mu.Lock()
	defer r.mu.Unlock()

	if room, ok := r.rooms[id]; ok {
		return room
	}
	room := newRoom(id, r.newID, r.now)
	r.rooms[id] = room
	return room
}

// Lookup returns the room for id without creating it.
func (r *Registry) Lookup(id string) (*Room, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	return room, ok
}

// Len returns the number of rooms ever referenced.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}

// IDs returns the ids of all rooms, sorted.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	ids := make([]string, 0, len(r.rooms))
	for id := range r.rooms {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	sort.Strings(ids)
	return ids
}
