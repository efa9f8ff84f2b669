package ytdlp

import (
	"github.com/oshiworks/streamvault/internal/infrastructure/config"
	"github.com/oshiworks/streamvault/internal/services"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// ProviderSet wires the yt-dlp adapter as the extraction collaborator.
var ProviderSet = wire.NewSet(NewExtractor)

// NewExtractor exposes the client through the service-side contract.
func NewExtractor(cfg config.Extractor, cookies config.Cookies, logger log.Logger) services.Extractor {
	return NewClient(cfg, cookies, logger)
}
