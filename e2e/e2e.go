// Package e2e runs whole games through the api and workers, in process.
package e2e

import (
	"context"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/nmurphy101/arena/api"
	"github.com/nmurphy101/arena/controller"
	"github.com/nmurphy101/arena/rules"
	"github.com/nmurphy101/arena/worker"
)

// Harness serves the api over a store with workers running games.
type Harness struct {
	Client *api.Client

	hs     *httptest.Server
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Start runs the api and workers goroutines against store.
func Start(store controller.Store, workers int) *Harness {
	ctrl := controller.New(controller.InstrumentStore(store))
	srv := api.New("", ctrl)
	srv.StreamPoll = 10 * time.Millisecond

	h := &Harness{hs: httptest.NewServer(srv.Handler())}
	h.Client = api.NewClient(h.hs.URL)

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	w := &worker.Worker{
		Controller:        ctrl,
		PollInterval:      10 * time.Millisecond,
		HeartbeatInterval: 100 * time.Millisecond,
	}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer h.wg.Done()
			w.Run(ctx, i)
		}(i)
	}
	return h
}

// Stop cancels the workers and closes the api.
func (h *Harness) Stop() {
	h.cancel()
	h.wg.Wait()
	h.hs.Close()
}

// WaitFinished polls the game until it is complete or errored, or the
// timeout passes.
func (h *Harness) WaitFinished(id string, timeout time.Duration) (*controller.Status, error) {
	deadline := time.Now().Add(timeout)
	for {
		st, err := h.Client.Status(id)
		if err != nil {
			return nil, err
		}
		if st.Game.Status == rules.GameStatusComplete || st.Game.Status == rules.GameStatusError {
			return st, nil
		}
		if time.Now().After(deadline) {
			return st, context.DeadlineExceeded
		}
		time.Sleep(20 * time.Millisecond)
	}
}
