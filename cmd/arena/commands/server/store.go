package server

import (
	"io"

	"github.com/nmurphy101/arena/controller"
	"github.com/nmurphy101/arena/controller/filestore"
	"github.com/nmurphy101/arena/controller/redisstore"
	"github.com/nmurphy101/arena/controller/sqlstore"
	log "github.com/sirupsen/logrus"
)

var (
	backend     = "inmem"
	backendArgs = ""
)

// openController opens the configured backend store and wraps it in an
// instrumented controller. The returned func closes the store.
func openController() (*controller.Server, func()) {
	var store controller.Store
	var err error
	switch backend {
	case "inmem":
		store = controller.InMemStore()
	case "file":
		store = filestore.NewFileStore(backendArgs)
	case "redis":
		store, err = redisstore.NewStore(backendArgs)
	case "postgres", "sql":
		store, err = sqlstore.NewSQLStore(backendArgs)
	default:
		log.WithField("backend", backend).Fatal("invalid backend")
	}
	if err != nil {
		log.WithError(err).WithField("backend", backend).Fatal("unable to start up backend store")
	}
	log.WithField("backend", backend).Info("store ready")

	closeStore := func() {
		if c, ok := store.(io.Closer); ok {
			if err := c.Close(); err != nil {
				log.WithError(err).Error("unable to close store")
			}
		}
	}
	return controller.New(controller.InstrumentStore(store)), closeStore
}
