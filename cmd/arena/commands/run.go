package commands

import (
	"fmt"
	"io/ioutil"
	"os"
	"text/tabwriter"
	"time"

	"github.com/nmurphy101/arena/config"
	"github.com/nmurphy101/arena/rules"
	termbox "github.com/nsf/termbox-go"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	runRender   bool
	runPlayers  int
	runAISnakes int
	runSeed     int64
	runMaxTurns int
)

func init() {
	runCmd.Flags().StringVarP(&configFile, "config", "c", "", "arena config yaml, defaults and ARENA_* variables otherwise")
	runCmd.Flags().BoolVarP(&runRender, "render", "r", false, "play in the terminal, arrow keys steer the first player and wasd the second")
	runCmd.Flags().IntVar(&runPlayers, "players", -1, "player snakes, overrides the config")
	runCmd.Flags().IntVar(&runAISnakes, "ai-snakes", -1, "ai snakes, overrides the config")
	runCmd.Flags().Int64Var(&runSeed, "seed", 0, "world seed, random when 0")
	runCmd.Flags().IntVar(&runMaxTurns, "max-turns", -1, "turn limit, overrides the config")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "runs a game locally, headless or in the terminal",
	Args: func(c *cobra.Command, args []string) error {
		a, err := config.Load(configFile)
		if err != nil {
			return err
		}
		if runPlayers >= 0 {
			a.Players = runPlayers
		}
		if runAISnakes >= 0 {
			a.AISnakes = runAISnakes
		}
		if runMaxTurns >= 0 {
			a.MaxTurns = runMaxTurns
		}
		if runSeed != 0 {
			a.Seed = runSeed
		}
		arena = a
		return arena.Validate()
	},
	RunE: func(*cobra.Command, []string) error {
		game, _, err := rules.CreateInitialGame(arena)
		if err != nil {
			return err
		}
		world, err := rules.Resume(game, 0)
		if err != nil {
			return err
		}

		if runRender {
			// The terminal belongs to the board.
			log.SetOutput(ioutil.Discard)
			err = playTerminal(world)
			log.SetOutput(os.Stderr)
		} else {
			err = runHeadless(world)
		}
		if err != nil {
			return err
		}

		world.GameOver()
		return printScores(world.Scores())
	},
}

func runHeadless(w *rules.World) error {
	logger := log.WithFields(log.Fields{"GameID": w.ID, "Mode": w.Mode()})
	logger.Info("running game")
	start := time.Now()
	for !w.Over() {
		if err := w.Tick(nil); err != nil {
			return err
		}
	}
	logger.WithFields(log.Fields{"Turn": w.Turn, "elapsed": time.Since(start)}).Info("game over")
	return nil
}

// steering maps keys to a player's direction.
type steering struct {
	keys  map[termbox.Key]rules.Direction
	chars map[rune]rules.Direction
}

var steerings = []steering{
	{keys: map[termbox.Key]rules.Direction{
		termbox.KeyArrowUp:    rules.DirUp,
		termbox.KeyArrowRight: rules.DirRight,
		termbox.KeyArrowDown:  rules.DirDown,
		termbox.KeyArrowLeft:  rules.DirLeft,
	}},
	{chars: map[rune]rules.Direction{
		'w': rules.DirUp,
		'd': rules.DirRight,
		's': rules.DirDown,
		'a': rules.DirLeft,
	}},
}

func playerIDs(w *rules.World) []string {
	var ids []string
	for _, s := range w.Snakes {
		if s.Player {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

// steer records the direction requested by ev into input.
func steer(input rules.Input, players []string, ev termbox.Event) {
	for i, st := range steerings {
		if i >= len(players) {
			return
		}
		if d, ok := st.keys[ev.Key]; ok && ev.Ch == 0 {
			input[players[i]] = d
		}
		if d, ok := st.chars[ev.Ch]; ok {
			input[players[i]] = d
		}
	}
}

func playTerminal(w *rules.World) error {
	if err := initTerm(); err != nil {
		return err
	}
	defer termbox.Close()

	b := boardOf(w.Config)
	players := playerIDs(w)
	eventQueue := setupEventQueue()
	ticker := time.NewTicker(w.Config.TickInterval())
	defer ticker.Stop()

	input := rules.Input{}
	if err := render(b, w.Frame(), "esc to quit"); err != nil {
		return err
	}
	for !w.Over() {
		select {
		case ev := <-eventQueue:
			if ev.Type != termbox.EventKey {
				continue
			}
			if ev.Key == termbox.KeyEsc || ev.Key == termbox.KeyCtrlC {
				return nil
			}
			steer(input, players, ev)
		case <-ticker.C:
			if err := w.Tick(input); err != nil {
				return err
			}
			input = rules.Input{}
			if err := render(b, w.Frame(), "esc to quit"); err != nil {
				return err
			}
		}
	}

	if err := render(b, w.Frame(), "game over, press any key"); err != nil {
		return err
	}
	<-eventQueue
	return nil
}

func printScores(scores []rules.Score) error {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tPOINTS\tLENGTH\tTURN\tCAUSE")
	for i, s := range scores {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%s\n", i+1, s.Name, s.Points, s.Length, s.Turn, s.Cause)
	}
	return tw.Flush()
}
