package controller

import (
	"context"

	"github.com/nmurphy101/arena/rules"
	"github.com/prometheus/client_golang/prometheus"
)

// InstrumentStore wraps all store methods to instrument the underlying calls.
func InstrumentStore(s Store) Store { return &metrics{s} }

var (
	storeCalls = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "arena",
			Subsystem: "store",
			Name:      "calls",
			Help:      "Calls processed by the store.",
		},
		[]string{"method"},
	)
	storeErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "arena",
			Subsystem: "store",
			Name:      "errors_total",
			Help:      "Store calls that returned an error.",
		},
		[]string{"method"},
	)
)

func instrument(method string) func() {
	t := prometheus.NewTimer(storeCalls.WithLabelValues(method))
	return func() { t.ObserveDuration() }
}

func failed(method string, err error) error {
	if err != nil {
		storeErrors.WithLabelValues(method).Inc()
	}
	return err
}

func init() {
	prometheus.MustRegister(storeCalls, storeErrors)
}

type metrics struct{ s Store }

func (m *metrics) Lock(ctx context.Context, key, token string) (string, error) {
	defer instrument("Lock")()
	tok, err := m.s.Lock(ctx, key, token)
	return tok, failed("Lock", err)
}

func (m *metrics) Unlock(ctx context.Context, key, token string) error {
	defer instrument("Unlock")()
	return failed("Unlock", m.s.Unlock(ctx, key, token))
}

func (m *metrics) PopGameID(c context.Context) (string, error) {
	defer instrument("PopGameID")()
	return m.s.PopGameID(c)
}

func (m *metrics) SetGameStatus(c context.Context, id, status string) error {
	defer instrument("SetGameStatus")()
	return failed("SetGameStatus", m.s.SetGameStatus(c, id, status))
}

func (m *metrics) CreateGame(c context.Context, g *rules.Game, frames []*rules.Frame) error {
	defer instrument("CreateGame")()
	return failed("CreateGame", m.s.CreateGame(c, g, frames))
}

func (m *metrics) PushGameFrame(c context.Context, id string, f *rules.Frame) error {
	defer instrument("PushGameFrame")()
	return failed("PushGameFrame", m.s.PushGameFrame(c, id, f))
}

func (m *metrics) ListGameFrames(c context.Context, id string, limit, offset int) ([]*rules.Frame, error) {
	defer instrument("ListGameFrames")()
	frames, err := m.s.ListGameFrames(c, id, limit, offset)
	return frames, failed("ListGameFrames", err)
}

func (m *metrics) GetGame(c context.Context, id string) (*rules.Game, error) {
	defer instrument("GetGame")()
	return m.s.GetGame(c, id)
}

func (m *metrics) SaveScores(c context.Context, scores []rules.Score) error {
	defer instrument("SaveScores")()
	return failed("SaveScores", m.s.SaveScores(c, scores))
}

func (m *metrics) Leaderboard(c context.Context, limit int) ([]rules.Score, error) {
	defer instrument("Leaderboard")()
	scores, err := m.s.Leaderboard(c, limit)
	return scores, failed("Leaderboard", err)
}
