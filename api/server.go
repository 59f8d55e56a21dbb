// Package api exposes the controller over HTTP for clients and spectators.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/nmurphy101/arena/controller"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
)

// Server is the HTTP API in front of a controller.
type Server struct {
	hs   *http.Server
	ctrl *controller.Server

	// StreamPoll is how often a websocket stream checks the store for new
	// frames.
	StreamPoll time.Duration
}

// New builds the API server listening on addr.
func New(addr string, ctrl *controller.Server) *Server {
	s := &Server{ctrl: ctrl, StreamPoll: 100 * time.Millisecond}

	router := httprouter.New()
	router.POST("/games", s.create)
	router.GET("/games/:id", s.status)
	router.POST("/games/:id/start", s.start)
	router.GET("/games/:id/frames", s.frames)
	router.GET("/games/:id/stream", s.stream)
	router.GET("/leaderboard", s.leaderboard)

	s.hs = &http.Server{
		Addr:    addr,
		Handler: cors.Default().Handler(logRequests(router)),
	}
	return s
}

// Handler returns the root handler, useful for tests.
func (s *Server) Handler() http.Handler { return s.hs.Handler }

// WaitForExit serves until the server is shut down.
func (s *Server) WaitForExit() error {
	log.WithField("listen", s.hs.Addr).Info("arena api listening")
	err := s.hs.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the server, waiting for open requests until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.hs.Shutdown(ctx)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start),
		}).Debug("api request")
	})
}
