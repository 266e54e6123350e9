package server

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Be careful with this in production
	},
}

// wsMessage is the frame exchanged over the chat socket. Clients send
// {type:"query", content:...}; the server replies with session, status,
// answer and error frames. Answer frames carry sources in data.
type wsMessage struct {
	Type      string `json:"type"`
	Content   string `json:"content,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Data      any    `json:"data,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// One session per connection. Queries are handled in order on this
	// goroutine; the connection allows only one concurrent writer.
	sessionID := s.rag.CreateSession()
	s.send(conn, wsMessage{Type: "session", SessionID: sessionID})

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Error("websocket read failed", "error", err)
			}
			return
		}

		if msg.Type != "query" || strings.TrimSpace(msg.Content) == "" {
			s.send(conn, wsMessage{Type: "error", Content: "expected a query message with content"})
			continue
		}
		if msg.SessionID != "" {
			sessionID = msg.SessionID
		}

		s.send(conn, wsMessage{Type: "status", Content: "Searching course materials..."})

		answer, sources, err := s.rag.Query(r.Context(), sessionID, msg.Content)
		if err != nil {
			s.logger.Error("websocket query failed", "session", sessionID, "error", err)
			s.send(conn, wsMessage{Type: "error", Content: err.Error()})
			continue
		}

		s.send(conn, wsMessage{
			Type:      "answer",
			Content:   answer,
			SessionID: sessionID,
			Data:      sources,
		})
	}
}

func (s *Server) send(conn *websocket.Conn, msg wsMessage) {
	if err := conn.WriteJSON(msg); err != nil {
		s.logger.Error("websocket write failed", "error", err)
	}
}
