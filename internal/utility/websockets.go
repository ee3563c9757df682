package utility

import (
	"net/http"

	"github.com/gorilla/websocket"
)

// Upgrader is shared by every websocket endpoint.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API is consumed by a browser client served from another origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}
