package database

import "github.com/google/wire"

// ProviderSet wires the connection pool provider.
var ProviderSet = wire.NewSet(NewPgxPool)
