package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"github.com/nmurphy101/arena/config"
	"github.com/nmurphy101/arena/controller"
	"github.com/nmurphy101/arena/rules"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	defaultFrameLimit       = 100
	defaultLeaderboardLimit = 10
)

// CreateResponse is returned by POST /games.
type CreateResponse struct {
	ID string `json:"id"`
}

// FramesResponse is returned by GET /games/:id/frames.
type FramesResponse struct {
	Count  int            `json:"count"`
	Frames []*rules.Frame `json:"frames"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("unable to write response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch errors.Cause(err) {
	case controller.ErrNotFound:
		code = http.StatusNotFound
	case config.ErrConfiguration:
		code = http.StatusBadRequest
	case controller.ErrFinished, controller.ErrIsLocked:
		code = http.StatusConflict
	}
	if code == http.StatusInternalServerError {
		log.WithError(err).Error("api request failed")
	}
	writeJSON(w, code, errorResponse{Error: err.Error()})
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(config.ErrConfiguration, "query %s=%q is not a number", name, v)
	}
	return n, nil
}

// create decodes an arena config on top of the defaults and stores a new
// stopped game.
func (s *Server) create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	cfg := config.Default()
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			writeError(w, errors.Wrapf(config.ErrConfiguration, "bad body: %v", err))
			return
		}
	}
	game, err := s.ctrl.Create(r.Context(), cfg)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CreateResponse{ID: game.ID})
}

func (s *Server) start(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := s.ctrl.Start(r.Context(), ps.ByName("id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	st, err := s.ctrl.Status(r.Context(), ps.ByName("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) frames(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	limit, err := queryInt(r, "limit", defaultFrameLimit)
	if err != nil {
		writeError(w, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	frames, err := s.ctrl.Frames(r.Context(), ps.ByName("id"), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	if frames == nil {
		frames = []*rules.Frame{}
	}
	writeJSON(w, http.StatusOK, FramesResponse{Count: len(frames), Frames: frames})
}

func (s *Server) leaderboard(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, err := queryInt(r, "limit", defaultLeaderboardLimit)
	if err != nil {
		writeError(w, err)
		return
	}
	scores, err := s.ctrl.Leaderboard(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if scores == nil {
		scores = []rules.Score{}
	}
	writeJSON(w, http.StatusOK, scores)
}
