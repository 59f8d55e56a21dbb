package commands

import (
	"io"
	"os"

	"github.com/nmurphy101/arena/api"
	"github.com/nmurphy101/arena/controller/csv"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var exportOut string

func init() {
	exportCmd.Flags().StringVarP(&gameID, "game-id", "g", "", "the game id of the game to export")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "csv file to write, stdout when empty")
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "writes the moves of a stored game as csv",
	Args:  requireGameID,
	RunE: func(*cobra.Command, []string) error {
		client := api.NewClient(apiAddr)
		st, err := client.Status(gameID)
		if err != nil {
			return err
		}
		frames, err := client.Frames(gameID, 0, 0)
		if err != nil {
			return err
		}

		var w io.Writer = os.Stdout
		if exportOut != "" {
			f, err := os.Create(exportOut)
			if err != nil {
				return errors.Wrap(err, "create export file")
			}
			defer f.Close()
			w = f
		}
		if err := csv.Write(w, st.Game, frames); err != nil {
			return err
		}
		log.WithFields(log.Fields{"GameID": gameID, "frames": len(frames)}).Info("game exported")
		return nil
	},
}
