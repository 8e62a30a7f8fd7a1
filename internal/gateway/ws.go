package gateway

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/finsight/finsight/internal/agent"
	"github.com/finsight/finsight/internal/domain"
)

// wsRequest is one client frame on the WebSocket transport.
type wsRequest struct {
	Type      string             `json:"type"` // "chat" | "ping"
	SessionID string             `json:"sessionId,omitempty"`
	Messages  []domain.UIMessage `json:"messages,omitempty"`
}

// wsFrame is one server frame: either a turn event or a control message.
type wsFrame struct {
	Type  string       `json:"type"`
	Event *agent.Event `json:"event,omitempty"`
	Error string       `json:"error,omitempty"`
}

const wsWriteTimeout = 10 * time.Second

// handleWebSocket serves the long-lived chat transport. The connection
// processes one turn at a time; turn events arrive as "event" frames.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	remote := conn.RemoteAddr().String()
	s.log.Info().Str("remote", remote).Msg("websocket client connected")

	for {
		var req wsRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug().Err(err).Str("remote", remote).Msg("websocket read error")
			}
			return
		}

		switch req.Type {
		case "ping":
			s.writeFrame(conn, wsFrame{Type: "pong"})
		case "chat":
			s.serveWSTurn(r, conn, req)
		default:
			s.writeFrame(conn, wsFrame{Type: "error", Error: "unknown request type"})
		}
	}
}

func (s *Server) serveWSTurn(r *http.Request, conn *websocket.Conn, req wsRequest) {
	if len(req.Messages) == 0 || req.Messages[len(req.Messages)-1].Role != domain.RoleUser {
		s.writeFrame(conn, wsFrame{Type: "error", Error: "messages must end with a user message"})
		return
	}

	ctx := r.Context()
	assistant, err := s.runner.RunStream(ctx, req.Messages, func(ev agent.Event) {
		s.writeFrame(conn, wsFrame{Type: "event", Event: &ev})
	})
	if err != nil {
		s.writeFrame(conn, wsFrame{Type: "error", Error: err.Error()})
		return
	}

	if req.SessionID != "" {
		s.persistTurn(req.SessionID, req.Messages[len(req.Messages)-1], assistant)
	}
}

func (s *Server) writeFrame(conn *websocket.Conn, frame wsFrame) {
	payload, err := json.Marshal(frame)
	if err != nil {
		return
	}
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		s.log.Debug().Err(err).Msg("websocket write failed")
	}
}
