package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/pavelanni/quizdesk/internal/model"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Session-cookie auth already ran in requireAuth; the API serves one
	// origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsTickMessage struct {
	Type        string `json:"type"` // tick
	RemainingMS int64  `json:"remaining_ms"`
}

type wsSubmittedMessage struct {
	Type    string               `json:"type"` // submitted
	Summary model.AttemptSummary `json:"summary"`
}

// handleAttemptWS pushes the countdown to the client once per second and
// delivers the expiry signal: when the deadline lapses the attempt is
// auto-submitted and the final summary is the last frame sent.
func (h *Handler) handleAttemptWS(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	quizID := chi.URLParam(r, "quizID")

	c, ok := h.attempts.Get(user.ID, quizID)
	if !ok {
		respondError(w, r, http.StatusNotFound, "no_active_attempt", "NoActiveAttempt")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// Drain client frames so close and ping/pong handling keep working.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		if summary, fired := c.Tick(); fired {
			h.recordSubmission(user.ID, quizID, summary)
			_ = conn.WriteJSON(wsSubmittedMessage{Type: "submitted", Summary: summary})
			return
		}
		if c.Status() != model.StatusInProgress {
			// Submitted elsewhere (manual submit or another connection).
			_ = conn.WriteJSON(wsSubmittedMessage{Type: "submitted", Summary: c.Summary()})
			return
		}

		msg := wsTickMessage{Type: "tick", RemainingMS: int64(c.Remaining() / time.Millisecond)}
		if err := conn.WriteJSON(msg); err != nil {
			return
		}

		select {
		case <-ticker.C:
		case <-r.Context().Done():
			return
		}
	}
}
