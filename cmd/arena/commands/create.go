package commands

import (
	"fmt"

	"github.com/nmurphy101/arena/api"
	"github.com/nmurphy101/arena/config"
	"github.com/spf13/cobra"
)

var (
	configFile string
	startGame  bool
	arena      config.Arena
)

func init() {
	createCmd.Flags().StringVarP(&configFile, "config", "c", "", "arena config yaml, defaults and ARENA_* variables otherwise")
	createCmd.Flags().BoolVarP(&startGame, "start", "s", false, "start the game once created")
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "creates a new game on the arena api",
	Args: func(c *cobra.Command, args []string) error {
		var err error
		arena, err = config.Load(configFile)
		return err
	},
	RunE: func(*cobra.Command, []string) error {
		client := api.NewClient(apiAddr)
		id, err := client.Create(arena)
		if err != nil {
			return err
		}
		if startGame {
			if err := client.Start(id); err != nil {
				return err
			}
		}
		fmt.Printf(`{"ID": "%s"}`+"\n", id)
		return nil
	},
}
