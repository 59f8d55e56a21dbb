package commands

import (
	"fmt"
	"os"

	"github.com/nmurphy101/arena/cmd/arena/commands/server"
	"github.com/nmurphy101/arena/config"
	"github.com/nmurphy101/arena/version"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:     "arena",
	Short:   "arena runs snake games on a grid, locally or as a service",
	Version: version.Version,
	PersistentPreRunE: func(c *cobra.Command, args []string) error {
		return setupLogging()
	},
	Run: func(c *cobra.Command, args []string) {
		server.RootCmd.PreRun(c, args)
		server.RootCmd.Run(c, args)
	},
}

var (
	apiAddr  string
	logLevel = "info"
	logJSON  bool
	envFile  = ".env"
)

func setupLogging() error {
	config.LoadEnvFile(envFile)

	lvl, err := log.ParseLevel(logLevel)
	if err != nil {
		return errors.Wrapf(config.ErrConfiguration, "log level %q", logLevel)
	}
	log.SetLevel(lvl)
	if logJSON {
		log.SetFormatter(&log.JSONFormatter{})
	}
	return nil
}

// Execute runs the root command
func Execute() {
	rootCmd.PersistentFlags().StringVar(&apiAddr, "api-addr", "http://localhost:3005", "address of the api server")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", logLevel, "log level, one of: [debug, info, warn, error]")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", logJSON, "log as json")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", envFile, "environment file loaded before anything else")

	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(server.RootCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
