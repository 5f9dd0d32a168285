package websocket

import (
	"github.com/gofiber/websocket/v2"
)

// ServeWs attaches the connection to the hub and blocks until it closes.
func ServeWs(hub *Hub, conn *websocket.Conn, sessionID, userID string) {
	client := NewClient(hub, conn, sessionID, userID)
	hub.Register(client)

	go client.writePump()
	client.readPump()
}
