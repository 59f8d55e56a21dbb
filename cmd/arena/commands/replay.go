package commands

import (
	"context"
	"time"

	"github.com/nmurphy101/arena/api"
	"github.com/nmurphy101/arena/rules"
	termbox "github.com/nsf/termbox-go"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var replaySpeed = 200 * time.Millisecond

func init() {
	replayCmd.Flags().StringVarP(&gameID, "game-id", "g", "", "the game id of the game to replay")
	replayCmd.Flags().DurationVar(&replaySpeed, "speed", replaySpeed, "time each frame is shown")
}

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "replays a game from the arena api, following it live while it runs",
	Args:  requireGameID,
	RunE: func(*cobra.Command, []string) error {
		return replayGame()
	},
}

func moveFrameForwards(frameIndex int, frames *frameHolder) (int, *rules.Frame) {
	if frameIndex+1 >= frames.count() {
		return frameIndex, frames.get(frameIndex)
	}
	frameIndex++
	return frameIndex, frames.get(frameIndex)
}

func moveFrameBackwards(frameIndex int, frames *frameHolder) (int, *rules.Frame) {
	frameIndex--
	if frameIndex <= 0 {
		frameIndex = 0
	}
	return frameIndex, frames.get(frameIndex)
}

// loadGame fetches the game and streams its frames into a frameHolder in the
// background.
func loadGame(ctx context.Context) (*rules.Game, *frameHolder, error) {
	client := api.NewClient(apiAddr)
	st, err := client.Status(gameID)
	if err != nil {
		return nil, nil, err
	}

	frames := &frameHolder{}
	go func() {
		if err := client.Stream(ctx, gameID, frames.append); err != nil && ctx.Err() == nil {
			log.WithError(err).WithField("GameID", gameID).Warn("frame stream ended")
		}
	}()
	return st.Game, frames, nil
}

func replayGame() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	game, frames, err := loadGame(ctx)
	if err != nil {
		return err
	}

	var currentFrame *rules.Frame
	select {
	case currentFrame = <-frames.initialFrame():
	case <-time.After(5 * time.Second):
		return errors.Errorf("no frames received for game %s", gameID)
	}

	if err := initTerm(); err != nil {
		return err
	}
	defer termbox.Close()

	b := boardOf(game.Config)
	eventQueue := setupEventQueue()
	cycle := time.NewTicker(replaySpeed)
	defer cycle.Stop()
	frameIndex := 0
	paused := false

	for {
		select {
		case ev := <-eventQueue:
			if ev.Type != termbox.EventKey {
				continue
			}
			switch ev.Key {
			case termbox.KeyEsc, termbox.KeyCtrlC:
				return nil
			case termbox.KeySpace:
				paused = !paused
			case termbox.KeyArrowLeft:
				paused = true
				frameIndex, currentFrame = moveFrameBackwards(frameIndex, frames)
			case termbox.KeyArrowRight:
				paused = true
				frameIndex, currentFrame = moveFrameForwards(frameIndex, frames)
			}
		case <-cycle.C:
			if !paused {
				frameIndex, currentFrame = moveFrameForwards(frameIndex, frames)
			}
		}
		status := "playing"
		if paused {
			status = "paused, space to resume"
		}
		if err := render(b, currentFrame, status); err != nil {
			return err
		}
	}
}
