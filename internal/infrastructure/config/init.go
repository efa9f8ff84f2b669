package config

import "github.com/google/wire"

// ProviderSet exposes config field accessors for dependency injection.
var ProviderSet = wire.NewSet(
	wire.FieldsOf(new(*Config), "Service", "Server", "Data", "Storage", "Notify", "Cookies", "Jobs", "Live", "Extractor"),
)
