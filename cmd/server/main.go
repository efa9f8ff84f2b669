package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/oshiworks/streamvault/internal/infrastructure/config"
	"github.com/oshiworks/streamvault/internal/infrastructure/logger"
	"github.com/oshiworks/streamvault/internal/tasks/backup"
	"github.com/oshiworks/streamvault/internal/tasks/watch"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"

	_ "go.uber.org/automaxprocs"
)

// go build -ldflags "-X main.Version=x.y.z"
var (
	// Name is the name of the compiled software.
	Name = "streamvault"
	// Version is the version of the compiled software.
	Version string
	// flagconf is the config flag.
	flagconf string
)

func init() {
	flag.StringVar(&flagconf, "conf", "", "config path, eg: -conf configs/config.yaml")
}

func newApp(meta config.Service, logger log.Logger, hs *khttp.Server, br *backup.Runner, wr *watch.Runner) *kratos.App {
	return kratos.New(
		kratos.ID(meta.InstanceID),
		kratos.Name(meta.Name),
		kratos.Version(meta.Version),
		kratos.Metadata(map[string]string{}),
		kratos.Logger(logger),
		kratos.Server(
			hs,
			br,
			wr,
		),
	)
}

func main() {
	flag.Parse()

	cfg, err := config.Load(config.ResolveConfPath(flagconf), Name, Version)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	baseLogger := logger.NewLogger(cfg.Service)
	helper := log.NewHelper(baseLogger)

	app, cleanup, err := wireApp(cfg, baseLogger)
	if err != nil {
		helper.Fatalf("wire app: %v", err)
	}
	defer cleanup()

	// start and wait for stop signal
	if err := app.Run(); err != nil {
		helper.Fatalf("run: %v", err)
	}
}
