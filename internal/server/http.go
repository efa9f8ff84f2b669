// Package server assembles the Kratos transport servers.
package server

import (
	stdhttp "net/http"

	"github.com/oshiworks/streamvault/internal/controllers"
	"github.com/oshiworks/streamvault/internal/infrastructure/config"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// NewHTTPServer builds the HTTP server and mounts every handler.
func NewHTTPServer(
	cfg config.Server,
	jobs *controllers.JobsHandler,
	live *controllers.LiveHandler,
	channels *controllers.ChannelHandler,
	health *controllers.HealthHandler,
	logger log.Logger,
) *khttp.Server {
	opts := []khttp.ServerOption{
		khttp.Middleware(
			recovery.Recovery(),
			logging.Server(logger),
		),
	}
	if cfg.HTTPAddr != "" {
		opts = append(opts, khttp.Address(cfg.HTTPAddr))
	}
	if cfg.HTTPTimeout > 0 {
		opts = append(opts, khttp.Timeout(cfg.HTTPTimeout))
	}

	srv := khttp.NewServer(opts...)

	srv.Handle("/healthz", stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, _ *stdhttp.Request) {
		w.WriteHeader(stdhttp.StatusOK)
	}))

	root := srv.Route("/")
	jobs.Register(root)
	live.Register(root)
	channels.Register(root)
	health.Register(root)
	return srv
}
