// Package worker provides the actual running of games. It pops running games
// from the controller, holds their lock and ticks them to completion.
package worker

import (
	"context"
	"time"

	"github.com/nmurphy101/arena/config"
	"github.com/nmurphy101/arena/controller"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Worker is the worker interface. It wraps a RunGame function which is where
// all of the game logic should live.
type Worker struct {
	Controller        *controller.Server
	PollInterval      time.Duration
	HeartbeatInterval time.Duration
	RunGame           func(context.Context, *controller.Server, string) error

	// Limiter paces calls to Pop across all the goroutines of this worker.
	// Defaults to config.PopRate.
	Limiter *rate.Limiter
}

func (w *Worker) limiter() *rate.Limiter {
	if w.Limiter == nil {
		w.Limiter = rate.NewLimiter(config.PopRate, config.PopBurstRate)
	}
	return w.Limiter
}

// Run will run the worker in a loop until ctx is done.
func (w *Worker) Run(ctx context.Context, workerID int) {
	limiter := w.limiter()
	for {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		if err := w.run(ctx, workerID); err != nil {
			if errors.Cause(err) != controller.ErrNotFound {
				log.WithError(err).WithField("worker", workerID).Warn("run failed")
			}

			select {
			case <-time.After(w.PollInterval):
			case <-ctx.Done():
				return
			}
		}
	}
}

func (w *Worker) run(ctx context.Context, workerID int) error {
	// Pop an item of work.
	id, err := w.Controller.Pop(ctx)
	if err != nil {
		return err
	}

	// Attempt to get the lock initially.
	token, err := w.Controller.Lock(ctx, id)
	if err != nil {
		return err
	}

	logger := log.WithFields(log.Fields{"worker": workerID, "GameID": id})
	logger.Info("acquired lock")

	// Get a context with the lock token.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	ctx = controller.ContextWithLockToken(ctx, token)

	defer func() {
		logger.Info("unlocking")
		// The game context may already be cancelled.
		uctx := controller.ContextWithLockToken(context.Background(), token)
		if err := w.Controller.Unlock(uctx, id); err != nil {
			logger.WithError(err).Warn("unlock failed")
		}
	}()

	// Hold the lock, heartbeating every HeartbeatInterval.
	go func() {
		t := time.NewTicker(w.HeartbeatInterval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				if _, err := w.Controller.Lock(ctx, id); err != nil {
					logger.WithError(err).Warn("lock expired during heartbeat")
					cancel()
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	// Perform the actual work, this should respect context and Done() rules.
	// RunGame writes through the controller using the lock token in ctx.
	runGame := w.RunGame
	if runGame == nil {
		runGame = Runner
	}
	return runGame(ctx, w.Controller, id)
}
