package server

import (
	"context"
	"time"

	"github.com/nmurphy101/arena/api"
	"github.com/nmurphy101/arena/controller"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	apiListen = ":3005"
)

func init() {
	apiCmd.Flags().StringVarP(&apiListen, "listen", "l", apiListen, "api address to listen on")
	RootCmd.Flags().AddFlagSet(apiCmd.Flags())
}

var apiCmd = &cobra.Command{
	Use:    "api",
	Short:  "runs the arena api",
	PreRun: func(c *cobra.Command, args []string) { prometheus() },
	Run: func(c *cobra.Command, args []string) {
		ctrl, closeStore := openController()
		defer closeStore()

		ctx, cancel := signalContext()
		defer cancel()
		serveAPI(ctx, ctrl)
	},
}

// serveAPI serves until ctx is done.
func serveAPI(ctx context.Context, ctrl *controller.Server) {
	s := api.New(apiListen, ctrl)
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Shutdown(sctx); err != nil {
			log.WithError(err).Warn("api shutdown")
		}
	}()
	if err := s.WaitForExit(); err != nil {
		log.WithError(err).
			WithField("listen", apiListen).
			Fatal("api server failed")
	}
}
