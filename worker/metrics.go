package worker

import (
	"github.com/nmurphy101/arena/rules"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "arena",
		Subsystem: "worker",
		Name:      "tick_seconds",
		Help:      "Time spent computing one world tick.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
	})
	aliveSnakes = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "arena",
		Subsystem: "worker",
		Name:      "alive_snakes",
		Help:      "Snakes alive in the games this worker is running.",
	})
	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "arena",
		Subsystem: "worker",
		Name:      "events_total",
		Help:      "Simulation events by kind.",
	}, []string{"kind"})
	gamesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "arena",
		Subsystem: "worker",
		Name:      "games_total",
		Help:      "Games finished by final status.",
	}, []string{"status"})
)

// observe counts every event of w and keeps the alive gauge in step with
// snake spawns and deaths.
func observe(w *rules.World) {
	w.Events.OnAll(func(e rules.Event) {
		eventsTotal.WithLabelValues(string(e.Kind)).Inc()
	})
	w.Events.On(rules.EventSpawn, func(e rules.Event) {
		if e.Entity == rules.KindSnake {
			aliveSnakes.Inc()
		}
	})
	w.Events.On(rules.EventDeath, func(e rules.Event) {
		if e.Entity == rules.KindSnake {
			aliveSnakes.Dec()
		}
	})
}
