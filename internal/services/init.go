package services

import "github.com/google/wire"

// ProviderSet exposes use-case constructors for dependency injection.
var ProviderSet = wire.NewSet(
	NewJobService,
	NewPipelineService,
	NewChannelService,
	NewLiveService,
)
