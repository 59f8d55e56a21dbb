package commands

import (
	"github.com/davecgh/go-spew/spew"
	"github.com/nmurphy101/arena/api"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	gameID           string
	leaderboardLimit int
)

func requireGameID(c *cobra.Command, args []string) error {
	if len(gameID) == 0 {
		return errors.New("game id is required")
	}
	return nil
}

func init() {
	statusCmd.Flags().StringVarP(&gameID, "game-id", "g", "", "the game id of the game to get the status of")
	leaderboardCmd.Flags().IntVarP(&leaderboardLimit, "limit", "n", 10, "number of scores to show")
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "gets the status of a game from the arena api",
	Args:  requireGameID,
	RunE: func(*cobra.Command, []string) error {
		st, err := api.NewClient(apiAddr).Status(gameID)
		if err != nil {
			return err
		}
		spew.Dump(st)
		return nil
	},
}

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "shows the best scores across finished games",
	RunE: func(*cobra.Command, []string) error {
		scores, err := api.NewClient(apiAddr).Leaderboard(leaderboardLimit)
		if err != nil {
			return err
		}
		return printScores(scores)
	},
}
