package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/finsight/finsight/internal/agent"
	"github.com/finsight/finsight/internal/domain"
)

// chatRequest is the body of POST /api/chat. Messages carry the whole
// conversation, last entry being the user's newest message. SessionID is
// optional; when present the turn is appended to the stored transcript.
type chatRequest struct {
	SessionID string             `json:"sessionId,omitempty"`
	Messages  []domain.UIMessage `json:"messages"`
}

// handleChat streams one conversation turn as Server-Sent Events. Each event
// is one agent.Event JSON object on a data line.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "messages must not be empty")
		return
	}
	last := req.Messages[len(req.Messages)-1]
	if last.Role != domain.RoleUser {
		writeError(w, http.StatusBadRequest, "last message must be from the user")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	ctx := r.Context()
	if timeout := s.cfg.Gateway.RequestTimeoutSeconds; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
		defer cancel()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	assistant, err := s.runner.RunStream(ctx, req.Messages, func(ev agent.Event) {
		writeSSE(w, ev)
		flusher.Flush()
	})
	if err != nil {
		// The stream is already open; the error event is all we can send.
		if ctx.Err() != nil {
			s.log.Info().Str("sessionId", req.SessionID).Msg("chat turn cancelled")
		} else {
			s.log.Error().Err(err).Str("sessionId", req.SessionID).Msg("chat turn failed")
		}
		return
	}

	if req.SessionID != "" {
		s.persistTurn(req.SessionID, last, assistant)
	}
}

// persistTurn appends the user message and assistant reply to the session.
func (s *Server) persistTurn(sessionID string, user domain.UIMessage, assistant *domain.UIMessage) {
	if _, err := s.sessions.GetOrCreate(sessionID); err != nil {
		s.log.Error().Err(err).Str("sessionId", sessionID).Msg("session lookup failed")
		return
	}
	if err := s.sessions.Append(sessionID, user, *assistant); err != nil {
		s.log.Error().Err(err).Str("sessionId", sessionID).Msg("persisting turn failed")
	}
}

func writeSSE(w http.ResponseWriter, ev agent.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", payload)
}
