//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package main

import (
	"github.com/oshiworks/streamvault/internal/clients/ytdlp"
	"github.com/oshiworks/streamvault/internal/controllers"
	"github.com/oshiworks/streamvault/internal/infrastructure/config"
	"github.com/oshiworks/streamvault/internal/infrastructure/database"
	"github.com/oshiworks/streamvault/internal/infrastructure/notify"
	"github.com/oshiworks/streamvault/internal/infrastructure/objectstore"
	"github.com/oshiworks/streamvault/internal/infrastructure/secrets"
	"github.com/oshiworks/streamvault/internal/repositories"
	"github.com/oshiworks/streamvault/internal/server"
	"github.com/oshiworks/streamvault/internal/services"
	"github.com/oshiworks/streamvault/internal/tasks/backup"
	"github.com/oshiworks/streamvault/internal/tasks/watch"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// wireApp init kratos application.
func wireApp(*config.Config, log.Logger) (*kratos.App, func(), error) {
	panic(wire.Build(
		config.ProviderSet,
		database.ProviderSet,
		repositories.ProviderSet,
		ytdlp.ProviderSet,
		objectstore.ProviderSet,
		notify.ProviderSet,
		secrets.ProviderSet,
		services.ProviderSet,
		backup.ProviderSet,
		watch.ProviderSet,
		controllers.ProviderSet,
		server.ProviderSet,
		newApp,
	))
}
