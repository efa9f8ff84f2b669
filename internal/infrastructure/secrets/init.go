package secrets

import (
	"context"

	"github.com/oshiworks/streamvault/internal/infrastructure/config"
	"github.com/oshiworks/streamvault/internal/services"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// ProviderSet wires the cookie source.
var ProviderSet = wire.NewSet(NewCookieSource)

// NewCookieSource builds the configured source and materializes cookies
// once at startup, mirroring the bootstrap fetch the extractor expects.
func NewCookieSource(cfg config.Cookies, logger log.Logger) (services.CookieSource, error) {
	src, err := newSource(cfg, logger)
	if err != nil {
		return nil, err
	}
	helper := log.NewHelper(logger)
	if path, err := src.Resolve(context.Background()); err != nil {
		helper.Warnf("cookie bootstrap failed: %v", err)
	} else if path == "" {
		helper.Info("no cookies configured, extractor runs unauthenticated")
	} else {
		helper.Infof("cookies materialized: path=%s", path)
	}
	return src, nil
}
