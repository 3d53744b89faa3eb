//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"
)

// initializeApp creates the App used by explore and types.
func initializeApp(path configPath) (*App, func(), error) {
	wire.Build(
		provideConfig,
		provideLogger,
		provideRegistry,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}

// initializeMapsApp creates the MapsApp used by the maps commands.
func initializeMapsApp(path configPath) (*MapsApp, func(), error) {
	wire.Build(
		provideConfig,
		provideLogger,
		provideStore,
		wire.Struct(new(MapsApp), "*"),
	)
	return nil, nil, nil
}
