//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"github.com/moveout-labs/moveout-backend/internal/app"
)

func InitializeApp() (*app.App, error) {
	panic(wire.Build(
		ConfigSet,
		ObservabilitySet,
		RuntimeInfraSet,
		RepositorySet,
		SecuritySet,
		ServiceSet,
		SweepSet,
		HTTPSet,
		AppSet,
	))
}

func InitializeMigrationRunner() (*MigrationRunner, error) {
	panic(wire.Build(
		ConfigSet,
		provideOpenDB,
		NewMigrationRunner,
	))
}
