package server

import _ "embed"

//go:embed static/room.html
var roomPage []byte
