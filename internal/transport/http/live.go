package http

import (
	"errors"
	"net/http"
	"time"

	"classquiz-service/internal/auth"
	"classquiz-service/internal/domain"
	"github.com/gorilla/websocket"
)

const (
	liveWriteWait  = 10 * time.Second
	livePongWait   = 60 * time.Second
	livePingPeriod = livePongWait * 9 / 10
)

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type subscribedPayload struct {
	QuizID string `json:"quiz_id"`
}

// live streams a quiz's events to its creator over a websocket. Clients
// only read; anything they send is discarded.
func (s *Server) live(w http.ResponseWriter, r *http.Request, p auth.Principal) error {
	if s.svc.Feed == nil {
		return errors.New("live feed is not configured")
	}
	quizID, err := pathID(r)
	if err != nil {
		return err
	}
	if err := s.svc.Quizzes.AuthorizeLiveFeed(r.Context(), p, quizID); err != nil {
		return err
	}

	events, cancel, err := s.svc.Feed.Subscribe(r.Context(), quizID)
	if err != nil {
		return err
	}
	defer cancel()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the client.
		s.log.Warn("websocket upgrade failed", "quiz", quizID, "err", err)
		return nil
	}
	defer conn.Close()

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(livePongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(livePongWait))
		})
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	write := func(msg any) error {
		_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
		return conn.WriteJSON(msg)
	}

	if err := write(outboundMessage[subscribedPayload]{Type: "subscribed", Payload: subscribedPayload{QuizID: quizID.String()}}); err != nil {
		return nil
	}

	ticker := time.NewTicker(livePingPeriod)
	defer ticker.Stop()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(liveWriteWait))
				return nil
			}
			if err := write(outboundMessage[domain.QuizEvent]{Type: ev.Type, Payload: ev}); err != nil {
				s.log.Debug("live write failed", "quiz", quizID, "err", err)
				return nil
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(liveWriteWait)); err != nil {
				return nil
			}
		case <-readerDone:
			return nil
		case <-r.Context().Done():
			return nil
		}
	}
}
