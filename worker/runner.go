package worker

import (
	"context"
	"time"

	"github.com/nmurphy101/arena/controller"
	"github.com/nmurphy101/arena/rules"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Runner will run an individual game to completion. It rebuilds the world
// from the stored game, catches up to the last stored frame, then ticks at
// the configured rate pushing every frame.
func Runner(ctx context.Context, ctrl *controller.Server, id string) error {
	st, err := ctrl.Status(ctx, id)
	if err != nil {
		return err
	}
	game := st.Game

	var turn int64
	if st.LastFrame != nil {
		turn = st.LastFrame.Turn
	}
	world, err := rules.Resume(game, turn)
	if err != nil {
		endWithError(ctx, ctrl, id, err)
		return err
	}
	if st.LastFrame == nil {
		if err := ctrl.AddFrame(ctx, id, world.Frame()); err != nil {
			return err
		}
	}

	logger := log.WithField("GameID", id)
	observe(world)
	aliveSnakes.Add(float64(len(world.AliveSnakes())))
	world.Events.On(rules.EventPickup, func(e rules.Event) {
		logger.WithFields(log.Fields{"Turn": e.Turn, "Snake": e.EntityID}).Debug("food eaten")
	})
	world.Events.On(rules.EventPortal, func(e rules.Event) {
		logger.WithFields(log.Fields{"Turn": e.Turn, "Snake": e.EntityID}).Debug("teleported")
	})

	logger.WithFields(log.Fields{"Turn": world.Turn, "Mode": game.Mode}).Info("running game")
	limiter := rate.NewLimiter(rate.Limit(game.Config.TickRate), 1)

	for !world.Over() {
		if err := limiter.Wait(ctx); err != nil {
			aliveSnakes.Sub(float64(len(world.AliveSnakes())))
			return err
		}

		start := time.Now()
		if err := world.Tick(nil); err != nil {
			// A tick error is fatal, no more game processing can take place.
			aliveSnakes.Sub(float64(len(world.AliveSnakes())))
			endWithError(ctx, ctrl, id, err)
			return err
		}
		tickDuration.Observe(time.Since(start).Seconds())

		if err := ctrl.AddFrame(ctx, id, world.Frame()); err != nil {
			// This is likely a lock error, another worker owns the game now.
			aliveSnakes.Sub(float64(len(world.AliveSnakes())))
			return err
		}
	}

	world.GameOver()
	scores := world.Scores()
	logger.WithFields(log.Fields{"Turn": world.Turn, "Snakes": len(scores)}).Info("ending game")
	if err := ctrl.EndGame(ctx, id, rules.GameStatusComplete, scores); err != nil {
		return errors.Wrap(err, "end game")
	}
	gamesTotal.WithLabelValues(rules.GameStatusComplete).Inc()
	return nil
}

func endWithError(ctx context.Context, ctrl *controller.Server, id string, cause error) {
	log.WithError(cause).WithField("GameID", id).Error("ending game due to fatal error")
	if err := ctrl.EndGame(ctx, id, rules.GameStatusError, nil); err != nil {
		log.WithError(err).WithField("GameID", id).Error("failed to end game after fatal error")
	}
	gamesTotal.WithLabelValues(rules.GameStatusError).Inc()
}
