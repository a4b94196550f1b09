// Package room keeps the process-wide room registry and per-room membership.
//
// A Room serializes every membership change together with the broadcast it
// triggers, so all members observe the roster updates of one room in the
// same order. Different rooms never contend with each other.
package room
