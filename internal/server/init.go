package server

import "github.com/google/wire"

// ProviderSet wires the transport servers.
var ProviderSet = wire.NewSet(NewHTTPServer)
