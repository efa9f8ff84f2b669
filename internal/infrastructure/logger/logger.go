// Package logger builds the Kratos logger shared by every component.
package logger

import (
	"os"

	"github.com/oshiworks/streamvault/internal/infrastructure/config"

	"github.com/go-kratos/kratos/v2/log"
)

// NewLogger builds a structured logger annotated with service metadata.
func NewLogger(meta config.Service) log.Logger {
	return log.With(
		log.NewStdLogger(os.Stdout),
		"ts", log.DefaultTimestamp,
		"caller", log.DefaultCaller,
		"service.name", meta.Name,
		"service.version", meta.Version,
		"service.env", meta.Environment,
		"service.id", meta.InstanceID,
	)
}
