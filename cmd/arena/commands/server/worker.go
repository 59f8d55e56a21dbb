package server

import (
	"context"
	"sync"
	"time"

	"github.com/nmurphy101/arena/controller"
	"github.com/nmurphy101/arena/worker"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	workerThreads           = 10
	workerPollInterval      = 1 * time.Second
	workerHeartbeatInterval = 300 * time.Millisecond
)

func init() {
	workerCmd.Flags().IntVarP(&workerThreads, "threads", "t", workerThreads, "worker processor threads, this is the amount of concurrent games a worker can process")
	workerCmd.Flags().DurationVarP(&workerPollInterval, "poll-interval", "p", workerPollInterval, "worker poll interval")
	workerCmd.Flags().DurationVar(&workerHeartbeatInterval, "heartbeat-interval", workerHeartbeatInterval, "how often a running game's lock is renewed, below the lock expiry")
	RootCmd.Flags().AddFlagSet(workerCmd.Flags())
}

var workerCmd = &cobra.Command{
	Use:    "worker",
	Short:  "runs the arena worker",
	PreRun: func(c *cobra.Command, args []string) { prometheus() },
	Run: func(c *cobra.Command, args []string) {
		ctrl, closeStore := openController()
		defer closeStore()

		ctx, cancel := signalContext()
		defer cancel()
		runWorkers(ctx, ctrl)
	},
}

// runWorkers runs workerThreads game loops until ctx is done.
func runWorkers(ctx context.Context, ctrl *controller.Server) {
	if workerHeartbeatInterval >= controller.LockExpiry {
		log.WithFields(log.Fields{
			"heartbeat": workerHeartbeatInterval,
			"expiry":    controller.LockExpiry,
		}).Warn("heartbeat interval is not below the lock expiry, games will change hands")
	}

	w := &worker.Worker{
		Controller:        ctrl,
		PollInterval:      workerPollInterval,
		HeartbeatInterval: workerHeartbeatInterval,
		RunGame:           worker.Runner,
	}

	wg := &sync.WaitGroup{}
	wg.Add(workerThreads)
	for i := 0; i < workerThreads; i++ {
		go func(i int) {
			log.WithField("worker", i).Info("arena worker starting")
			w.Run(ctx, i)
			wg.Done()
		}(i)
	}
	wg.Wait()
}
