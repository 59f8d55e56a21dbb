package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/nmurphy101/arena/rules"
	log "github.com/sirupsen/logrus"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Spectators connect from anywhere.
	CheckOrigin: func(r *http.Request) bool { return true },
}

func finished(status string) bool {
	return status == rules.GameStatusComplete || status == rules.GameStatusError
}

// stream sends every frame of a game over a websocket, in turn order, as the
// worker stores them. The socket is closed normally once the game is over
// and every frame was sent.
func (s *Server) stream(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if _, err := s.ctrl.Status(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).WithField("GameID", id).Warn("websocket upgrade failed")
		return
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Drain the client side so close frames are seen.
	go func() {
		defer cancel()
		for {
			if _, _, err := ws.NextReader(); err != nil {
				return
			}
		}
	}()

	logger := log.WithField("GameID", id)
	if err := s.sendFrames(ctx, ws, id); err != nil {
		logger.WithError(err).Debug("stream ended")
		return
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "game over")
	if err := ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)); err != nil {
		logger.WithError(err).Debug("close failed")
	}
}

func (s *Server) sendFrames(ctx context.Context, ws *websocket.Conn, id string) error {
	t := time.NewTicker(s.StreamPoll)
	defer t.Stop()

	sent := 0
	for {
		// Status first: once it reads finished every frame is already stored.
		st, err := s.ctrl.Status(ctx, id)
		if err != nil {
			return err
		}
		frames, err := s.ctrl.Frames(ctx, id, 0, sent)
		if err != nil {
			return err
		}
		for _, f := range frames {
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteJSON(f); err != nil {
				return err
			}
		}
		sent += len(frames)

		if finished(st.Game.Status) {
			return nil
		}
		select {
		case <-t.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
