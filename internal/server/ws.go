package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/codementor-ai/codementor/internal/logging"
	"github.com/codementor-ai/codementor/internal/session"
)

// WSWriteTimeout bounds each frame write so a dead peer surfaces as a write
// error instead of blocking on a full TCP buffer.
const WSWriteTimeout = 10 * time.Second

// ChatFrame is one frame of the chat socket protocol. The tutor's reply
// arrives as a run of "chunk" frames closed by exactly one "end" frame, or
// by an "error" frame if the reply aborted.
type ChatFrame struct {
	Type    string `json:"type"` // "chunk" | "end" | "error"
	Content string `json:"content,omitempty"`
}

// wsSink delivers a streamed reply over a websocket connection. Frame
// writes are serialized; gorilla connections allow one writer at a time.
type wsSink struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *wsSink) writeFrame(frame ChatFrame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(WSWriteTimeout)); err != nil {
		return err
	}
	return s.conn.WriteJSON(frame)
}

func (s *wsSink) Send(delta string) error {
	return s.writeFrame(ChatFrame{Type: "chunk", Content: delta})
}

func (s *wsSink) End() error {
	return s.writeFrame(ChatFrame{Type: "end"})
}

func (s *wsSink) Error(err error) error {
	return s.writeFrame(ChatFrame{Type: "error", Content: err.Error()})
}

// chatSocket handles GET /ws/chat/{sessionID}. Each text message from the
// student yields one streamed tutor reply on the same connection.
func (srv *Server) chatSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	log := logging.Component("chat").With().Str("sessionID", sessionID).Logger()

	conn, err := srv.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	sink := &wsSink{conn: conn}

	// Reject unknown sessions on the socket itself so browser clients get
	// a protocol-level error rather than a failed upgrade.
	if _, err := srv.registry.Get(sessionID); err != nil {
		_ = sink.Error(errors.New("Invalid session ID. Please restart."))
		return
	}

	// After the upgrade the request context no longer fires on client
	// disconnect, so the read pump is the only close signal. It keeps a
	// ReadMessage pending between student messages and cancels the stream
	// context when the peer goes away, which aborts the provider read.
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	incoming := make(chan string, 8)
	go func() {
		defer cancel()
		defer close(incoming)
		for {
			msgType, payload, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Warn().Err(err).Msg("chat socket closed unexpectedly")
				}
				return
			}
			if msgType != websocket.TextMessage || len(payload) == 0 {
				continue
			}
			select {
			case incoming <- string(payload):
			case <-ctx.Done():
				return
			}
		}
	}()

	for msg := range incoming {
		if err := srv.tutor.Chat(ctx, sessionID, msg, sink); err != nil {
			switch {
			case errors.Is(err, session.ErrSessionNotFound):
				_ = sink.Error(errors.New("Invalid session ID. Please restart."))
				return
			case errors.Is(err, session.ErrStreamBusy):
				_ = sink.Error(err)
			default:
				// streamReply already delivered the error frame for
				// provider failures; anything else ends the socket.
				log.Error().Err(err).Msg("chat reply failed")
			}
		}
	}
}
