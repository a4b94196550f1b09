// Package protocol defines the JSON envelope exchanged with browser clients
// over a room channel and the codec that turns raw text frames into typed
// inbound messages.
//
// Every frame in both directions is a single UTF-8 text frame holding a JSON
// object with exactly two keys:
//
//	{"type": "user/post", "data": {"body": "hi"}}
//
// Inbound frames decode into one of the Inbound variants (UserPatch,
// UserPost). Anything else yields a *MalformedFrameError or an
// *UnknownMessageTypeError, which callers answer with an "error" frame sent
// only to the originating connection.
package protocol
