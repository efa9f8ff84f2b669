package logger

import "github.com/google/wire"

// ProviderSet wires the logger provider for dependency injection.
var ProviderSet = wire.NewSet(NewLogger)
