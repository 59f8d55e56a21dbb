package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	promEnable = true
	promListen = ":9000"
)

// RootCmd runs the api and the workers in one process over a shared store.
var RootCmd = &cobra.Command{
	Use:    "server",
	Short:  "serve the arena api and run games",
	PreRun: func(c *cobra.Command, args []string) { prometheus() },
	Run: func(c *cobra.Command, args []string) {
		ctrl, closeStore := openController()
		defer closeStore()

		ctx, cancel := signalContext()
		defer cancel()

		go serveAPI(ctx, ctrl)
		runWorkers(ctx, ctrl)
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&backend, "backend", "b", backend, "store backend, as one of: [inmem, file, redis, postgres]")
	RootCmd.PersistentFlags().StringVarP(&backendArgs, "backend-args", "a", backendArgs, "options to pass to the backend being used")
	RootCmd.PersistentFlags().BoolVar(&promEnable, "prometheus", promEnable, "enable prometheus metrics")
	RootCmd.PersistentFlags().StringVar(&promListen, "prometheus-listen", promListen, "prometheus http endpoint")

	RootCmd.AddCommand(apiCmd)
	RootCmd.AddCommand(workerCmd)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case s := <-sig:
			log.WithField("signal", s.String()).Info("shutting down")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sig)
	}()
	return ctx, cancel
}

func prometheus() {
	if !promEnable {
		log.Info("prometheus exporter not enabled")
		return
	}

	log.WithField("addr", promListen).Info("starting prometheus exporter")
	go func() {
		r := http.NewServeMux()
		r.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(promListen, r); err != nil {
			log.WithError(err).Warn("prometheus failed to listen")
		}
	}()
}
