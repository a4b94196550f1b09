package protocol

// Message types carried in the envelope "type" field.
const (
	TypeUserPatch      = "user/patch"
	TypeUserPost       = "user/post"
	TypeRoomStatus     = "room/status"
	TypeRoomNewMessage = "room/newMessage"
	TypeError          = "error"
)

// User is one roster entry of a RoomStatus.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RoomStatus is the wire view of a room: its id and the ordered roster.
type RoomStatus struct {
	ID    string `json:"id"`
	Users []User `json:"users"`
}

// ChatMessage is a single posted message. Name is the sender's name at the
// moment of posting, not a live reference. Date is milliseconds since epoch.
type ChatMessage struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Body   string `json:"body"`
	Date   int64  `json:"date"`
}

// ErrorData is the payload of an "error" frame.
type ErrorData struct {
	Message string `json:"message"`
}

// Inbound is a decoded client-to-server message. The concrete type is one of
// UserPatch or UserPost.
type Inbound interface {
	MessageType() string
}

// UserPatch updates the sender's display name.
type UserPatch struct {
	Name string
}

// MessageType returns TypeUserPatch.
func (UserPatch) MessageType() string { return TypeUserPatch }

// UserPost asks the server to broadcast a chat message from the sender.
type UserPost struct {
	Body string
}

// MessageType returns TypeUserPost.
func (UserPost) MessageType() string { return TypeUserPost }
