package server

import (
	"errors"
	"net/http"

	"HealthBuddy/internal/models"
	"HealthBuddy/internal/utility"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// socketFrame is written for every text frame the client sends.
type socketFrame struct {
	Reply *models.ChatMessage `json:"reply,omitempty"`
	Error string              `json:"error,omitempty"`
}

// ChatSocketHandler upgrades to a websocket bound to one chat session. Each text
// frame is one user message; the read loop waits for the reply before reading
// the next frame, so sends on the socket never overlap.
func (s *Server) ChatSocketHandler(c echo.Context) error {
	logger := utility.RequestLogger(c)

	id := c.Param("session_id")
	session, ok := s.sessions.Get(id)
	if !ok {
		return c.JSON(http.StatusNotFound, errorResponse{"Chat session not found"})
	}

	conn, err := utility.Upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error().Err(err).Msg("Websocket upgrade failed")
		return nil
	}
	defer conn.Close()

	logger.Info().Str("session_id", id).Msg("Chat websocket connected")

	ctx := c.Request().Context()
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn().Err(err).Str("session_id", id).Msg("Chat websocket closed unexpectedly")
			}
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var frame socketFrame
		reply, err := session.Send(ctx, string(data))
		if err != nil {
			frame.Error = err.Error()
		} else {
			frame.Reply = &reply
		}

		if err := conn.WriteJSON(frame); err != nil {
			if !errors.Is(err, websocket.ErrCloseSent) {
				logger.Error().Err(err).Str("session_id", id).Msg("Failed to write chat reply")
			}
			break
		}
		// keep the session alive while the socket is in use
		s.sessions.Get(id)
	}

	logger.Info().Str("session_id", id).Msg("Chat websocket disconnected")
	return nil
}
