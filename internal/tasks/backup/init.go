package backup

import "github.com/google/wire"

// ProviderSet wires the worker pool runner.
var ProviderSet = wire.NewSet(NewRunner, wire.Struct(new(RunnerParams), "*"))
