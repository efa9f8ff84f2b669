package watch

import "github.com/google/wire"

// ProviderSet wires the live watcher runner.
var ProviderSet = wire.NewSet(NewRunner, wire.Struct(new(RunnerParams), "*"))
